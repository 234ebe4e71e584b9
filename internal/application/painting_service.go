package application

import (
	"context"
	"fmt"

	"sketchpaint/internal/domain"

	"github.com/samber/lo"
	"go.uber.org/zap"
)

// PaintingService は、スケッチを絵画に変換するリレー処理を担当するサービスです
type PaintingService struct {
	init   ModelInit
	logger *zap.Logger
}

// NewPaintingService は新しいPaintingServiceインスタンスを作成します
func NewPaintingService(init ModelInit, logger *zap.Logger) *PaintingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PaintingService{
		init:   init,
		logger: logger,
	}
}

// GeneratePainting は、データURL形式のスケッチを受け取り、生成された絵画をデータURLで返します
// 失敗時は種別付きの domain.RelayError を返します
func (s *PaintingService) GeneratePainting(ctx context.Context, req domain.SketchRequest) (*domain.GenerationResult, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	if req.ImageData == nil {
		return nil, domain.NewRelayError(domain.ErrorKindValidation, domain.ErrMissingImageData)
	}

	sketch, err := domain.DecodeSketch(*req.ImageData)
	if err != nil {
		s.logger.Warn("入力スケッチのデコードに失敗", zap.Error(err))
		return nil, err
	}

	s.logger.Info("入力スケッチをデコードしました",
		zap.String("format", sketch.Format),
		zap.String("source_format", sketch.SourceFormat),
		zap.Int("width", sketch.Width),
		zap.Int("height", sketch.Height),
		zap.String("mime", sketch.DeclaredMIMEType),
	)

	img, err := s.PaintSketch(ctx, sketch, req.Prompt)
	if err != nil {
		return nil, err
	}

	return domain.NewImageResult(img), nil
}

// PaintSketch は、デコード済みのスケッチからモデルを呼び出して絵画を生成します
func (s *PaintingService) PaintSketch(ctx context.Context, sketch *domain.Sketch, userPrompt string) (*domain.GeneratedImage, error) {
	if err := s.checkReady(); err != nil {
		return nil, err
	}

	promptText := domain.ComposePrompt(userPrompt)
	s.logger.Debug("プロンプトを作成しました",
		zap.String("prompt", promptText),
		zap.Bool("user_prompt", promptText != domain.DefaultPaintingPrompt),
	)

	resp, err := s.init.Model.GeneratePainting(ctx, promptText, sketch)
	if err != nil {
		s.logger.Error("Gemini APIの呼び出しに失敗", zap.Error(err))
		return nil, domain.NewRelayError(domain.ErrorKindUpstreamCall,
			fmt.Errorf("%w: %w", domain.ErrGenerationFailed, err))
	}

	img, err := InterpretResponse(resp)
	if err != nil {
		s.logger.Warn("Geminiの応答から画像を取得できませんでした",
			zap.Stringer("kind", domain.KindOf(err)),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("生成画像を取得しました",
		zap.String("mime", img.MIMEType),
		zap.Int("bytes", len(img.Data)),
	)
	return img, nil
}

// checkReady は、モデルクライアントの初期化に失敗している場合に設定エラーを返します
func (s *PaintingService) checkReady() error {
	if s.init.Ready() {
		return nil
	}
	return domain.NewRelayError(domain.ErrorKindConfiguration, domain.ErrClientNotInitialized)
}

// InterpretResponse は、モデルの応答を順に検査し、最初の画像パートを取り出します
func InterpretResponse(resp *domain.ModelResponse) (*domain.GeneratedImage, error) {
	if resp == nil {
		return nil, domain.NewRelayError(domain.ErrorKindInternalParsing, domain.ErrCandidateAccess)
	}

	// 1. 安全フィルターによるブロック
	if resp.PromptFeedback.Blocked() {
		msg := fmt.Errorf("%w: %s", domain.ErrRequestBlocked, resp.PromptFeedback.BlockReason)
		if len(resp.PromptFeedback.SafetyRatings) > 0 {
			msg = fmt.Errorf("%w Safety Ratings: %s", msg, domain.FormatSafetyRatings(resp.PromptFeedback.SafetyRatings))
		}
		return nil, domain.NewRelayError(domain.ErrorKindUpstreamBlocked, msg)
	}

	// 2. 候補なし
	if len(resp.Candidates) == 0 {
		var msg error = domain.ErrNoCandidates
		if resp.Text != "" {
			msg = fmt.Errorf("%w Response text: %s", msg, resp.Text)
		}
		return nil, domain.NewRelayError(domain.ErrorKindUpstreamEmpty, msg)
	}

	// 3. 最初の候補のみを参照する
	candidate := resp.Candidates[0]
	if candidate == nil {
		return nil, domain.NewRelayError(domain.ErrorKindInternalParsing, domain.ErrCandidateAccess)
	}
	// パートのない候補とは区別し、応答の解析エラーとして扱う
	if candidate.ContentMissing {
		msg := fmt.Errorf("%w: candidate has no content", domain.ErrResponseParts)
		if candidate.FinishReason != "" {
			msg = fmt.Errorf("%w (Finish Reason: %s)", msg, candidate.FinishReason)
		}
		return nil, domain.NewRelayError(domain.ErrorKindInternalParsing, msg)
	}

	// 4. 最初に見つかった画像パートを採用し、以降のパートは無視する
	if part, found := lo.Find(candidate.Parts, func(p domain.Part) bool {
		return p.InlineData.IsImage()
	}); found {
		return &domain.GeneratedImage{
			MIMEType: part.InlineData.MIMEType,
			Data:     part.InlineData.Data,
		}, nil
	}

	// 5. 画像パートなし
	var msg error = domain.ErrNoImagePart
	if candidate.FinishReason != "" && candidate.FinishReason != domain.FinishReasonStop {
		msg = fmt.Errorf("%w Finish Reason: %s", msg, candidate.FinishReason)
	}
	return nil, domain.NewRelayError(domain.ErrorKindUpstreamEmpty, msg)
}
