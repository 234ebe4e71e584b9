package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"sketchpaint/internal/domain"
	"sketchpaint/internal/infrastructure/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.uber.org/zap"
)

const (
	// healthMessage は、GET / の応答本文です
	healthMessage = "Backend API is running."

	shutdownTimeout = 10 * time.Second
)

// PaintingGenerator は、スケッチのリクエストから絵画を生成するサービスのインターフェースです
type PaintingGenerator interface {
	GeneratePainting(ctx context.Context, req domain.SketchRequest) (*domain.GenerationResult, error)
}

// Server は、スケッチ変換APIを提供するHTTPサーバーです
type Server struct {
	config    config.ServerConfig
	generator PaintingGenerator
	logger    *zap.Logger
	app       *fiber.App
}

// NewServer は新しいServerインスタンスを作成し、ルートを登録します
func NewServer(cfg config.ServerConfig, generator PaintingGenerator, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}

	s := &Server{
		config:    cfg,
		generator: generator,
		logger:    logger,
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		BodyLimit:             cfg.BodyLimit,
		ErrorHandler:          s.handleError,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{AllowOrigins: cfg.AllowOrigins}))

	app.Get("/", s.handleHealth)
	app.Post("/generate", s.handleGenerate)

	s.app = app
	return s
}

// App は、テストやミドルウェアの追加用に内部のfiberアプリを返します
func (s *Server) App() *fiber.App {
	return s.app
}

// Run は、設定されたアドレスでサーバーを起動します
// Shutdown が呼ばれるまで戻りません
func (s *Server) Run() error {
	s.logger.Info("HTTPサーバーを起動します",
		zap.String("listen", s.config.Address()),
		zap.String("allow_origins", s.config.AllowOrigins),
	)
	return s.app.Listen(s.config.Address())
}

// Shutdown は、処理中のリクエストを待ってからサーバーを停止します
func (s *Server) Shutdown() error {
	s.logger.Info("HTTPサーバーを停止します")
	return s.app.ShutdownWithTimeout(shutdownTimeout)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.SendString(healthMessage)
}

// handleGenerate は、スケッチを受け取り生成された絵画を返します
func (s *Server) handleGenerate(c *fiber.Ctx) error {
	startTime := time.Now()

	var req domain.SketchRequest
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		s.logger.Warn("リクエストボディの解析に失敗", zap.Error(err))
		return c.Status(fiber.StatusBadRequest).JSON(domain.NewErrorResult(domain.ErrInvalidRequestBody))
	}

	result, err := s.generator.GeneratePainting(c.UserContext(), req)
	if err != nil {
		kind := domain.KindOf(err)
		status := statusFor(kind)
		s.logger.Error("絵画の生成に失敗",
			zap.Stringer("kind", kind),
			zap.Int("status", status),
			zap.Duration("duration", time.Since(startTime)),
			zap.Error(err),
		)
		return c.Status(status).JSON(domain.NewErrorResult(err))
	}

	s.logger.Info("絵画を生成しました",
		zap.Int("response_chars", len(result.Image)),
		zap.Duration("duration", time.Since(startTime)),
	)
	return c.JSON(result)
}

// handleError は、ハンドラーから返されたエラーやパニックをJSONの応答に変換します
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		return c.Status(fiberErr.Code).JSON(domain.GenerationResult{Error: fiberErr.Message})
	}

	s.logger.Error("予期しないエラーが発生しました",
		zap.String("path", c.Path()),
		zap.Error(err),
	)
	return c.Status(fiber.StatusInternalServerError).JSON(
		domain.NewErrorResult(fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err)),
	)
}

// statusFor は、エラー種別をHTTPステータスコードに対応付けます
func statusFor(kind domain.ErrorKind) int {
	if kind == domain.ErrorKindValidation {
		return fiber.StatusBadRequest
	}
	return fiber.StatusInternalServerError
}
