package gemini

import (
	"context"
	"errors"
	"fmt"

	"sketchpaint/internal/domain"
	"sketchpaint/internal/infrastructure/config"

	"go.uber.org/zap"
	"google.golang.org/genai"
)

// responseModalities は、テキストと画像の両方を応答に含めるよう要求します
var responseModalities = []string{"TEXT", "IMAGE"}

// safetyCategories は、しきい値を適用する安全フィルターのカテゴリです
var safetyCategories = []genai.HarmCategory{
	genai.HarmCategoryHarassment,
	genai.HarmCategoryHateSpeech,
	genai.HarmCategorySexuallyExplicit,
	genai.HarmCategoryDangerousContent,
}

// PaintingClient は、Gemini APIにスケッチを送信して絵画を生成するクライアントです
type PaintingClient struct {
	client *genai.Client
	config *config.GeminiConfig
	logger *zap.Logger
}

// NewPaintingClient は新しいPaintingClientインスタンスを作成します
func NewPaintingClient(ctx context.Context, geminiConfig *config.GeminiConfig, logger *zap.Logger) (*PaintingClient, error) {
	if geminiConfig == nil {
		geminiConfig = config.DefaultGeminiConfig()
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	if geminiConfig.APIKey == "" {
		return nil, errors.New("GEMINI_API_KEY が設定されていません")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  geminiConfig.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("Gemini APIクライアントの作成に失敗: %w", err)
	}

	return &PaintingClient{
		client: client,
		config: geminiConfig,
		logger: logger,
	}, nil
}

// GeneratePainting は、プロンプトとスケッチ画像を1回のリクエストでGemini APIに送信します
func (g *PaintingClient) GeneratePainting(ctx context.Context, prompt string, sketch *domain.Sketch) (*domain.ModelResponse, error) {
	if sketch == nil {
		return nil, errors.New("スケッチが指定されていません")
	}

	g.logger.Info("Gemini APIに画像生成をリクエスト中",
		zap.String("model", g.config.ModelName),
		zap.Int("prompt_chars", len(prompt)),
		zap.String("mime", sketch.MIMEType()),
		zap.Int("image_bytes", len(sketch.Data)),
	)

	resp, err := g.client.Models.GenerateContent(ctx, g.config.ModelName, buildContents(prompt, sketch), g.createGenerateConfig())
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("Gemini APIへのリクエストがタイムアウトしました: %w", err)
		}
		return nil, err
	}

	g.logResponse(resp)
	return toModelResponse(resp), nil
}

// buildContents は、テキストパートと画像パートからなるユーザーコンテンツを作成します
func buildContents(prompt string, sketch *domain.Sketch) []*genai.Content {
	parts := []*genai.Part{
		genai.NewPartFromText(prompt),
		genai.NewPartFromBytes(sketch.Data, sketch.MIMEType()),
	}
	return []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}
}

// createGenerateConfig は、画像生成用の設定を作成します
func (g *PaintingClient) createGenerateConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseModalities: responseModalities,
		SafetySettings:     createSafetySettings(g.config.SafetyThreshold),
	}
}

// createSafetySettings は、安全フィルター設定を作成します
// しきい値が空の場合はモデル既定の設定を使用します
func createSafetySettings(threshold string) []*genai.SafetySetting {
	if threshold == "" {
		return nil
	}

	settings := make([]*genai.SafetySetting, 0, len(safetyCategories))
	for _, category := range safetyCategories {
		settings = append(settings, &genai.SafetySetting{
			Category:  category,
			Threshold: genai.HarmBlockThreshold(threshold),
		})
	}
	return settings
}

// logResponse は、デバッグ用にレスポンスの概要をログ出力します
func (g *PaintingClient) logResponse(resp *genai.GenerateContentResponse) {
	if resp == nil {
		g.logger.Warn("Gemini APIのレスポンスが空です")
		return
	}

	g.logger.Debug("Gemini APIレスポンス", zap.Int("candidates", len(resp.Candidates)))
	for i, candidate := range resp.Candidates {
		if candidate == nil {
			continue
		}
		parts := 0
		if candidate.Content != nil {
			parts = len(candidate.Content.Parts)
		}
		g.logger.Debug("Candidate詳細",
			zap.Int("index", i),
			zap.String("finish_reason", string(candidate.FinishReason)),
			zap.Int("parts", parts),
		)
	}
}
