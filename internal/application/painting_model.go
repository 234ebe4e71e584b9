package application

import (
	"context"

	"sketchpaint/internal/domain"
)

// PaintingModel は、スケッチとプロンプトから画像を生成する外部モデルのインターフェースです
type PaintingModel interface {
	// GeneratePainting は、プロンプトとスケッチをモデルに送信し、応答をそのまま返します
	GeneratePainting(ctx context.Context, prompt string, sketch *domain.Sketch) (*domain.ModelResponse, error)
}

// ModelInit は、起動時に一度だけ行うモデルクライアントの初期化結果です
// Err が nil でない場合、リクエストはすべて設定エラーとして扱われます
type ModelInit struct {
	Model PaintingModel
	Err   error
}

// Ready は、モデルクライアントが利用可能かどうかを返します
func (m ModelInit) Ready() bool {
	return m.Err == nil && m.Model != nil
}
