package domain

import (
	"encoding/base64"
	"strings"
)

// DefaultPaintingPrompt は、スケッチを絵画に変換するための既定の指示文です
const DefaultPaintingPrompt = "Convert this input sketch into a beautiful, detailed painting. Maintain the core subject and composition of the sketch."

// ComposePrompt は、既定の指示文とユーザーのプロンプトを連結します
func ComposePrompt(userPrompt string) string {
	userPrompt = strings.TrimSpace(userPrompt)
	if userPrompt == "" {
		return DefaultPaintingPrompt
	}
	return DefaultPaintingPrompt + " " + userPrompt
}

// GeneratedImage は、Geminiが生成した画像です
type GeneratedImage struct {
	MIMEType string
	Data     []byte
}

// DataURL は、生成画像をデータURLとして返します
func (g GeneratedImage) DataURL() string {
	return "data:" + g.MIMEType + ";base64," + base64.StdEncoding.EncodeToString(g.Data)
}

// GenerationResult は、/generate の応答ボディです
type GenerationResult struct {
	Image string `json:"generated_image,omitempty"`
	Error string `json:"error,omitempty"`
}

// NewImageResult は、成功時の結果を作成します
func NewImageResult(img *GeneratedImage) *GenerationResult {
	return &GenerationResult{Image: img.DataURL()}
}

// NewErrorResult は、失敗時の結果を作成します
func NewErrorResult(err error) *GenerationResult {
	return &GenerationResult{Error: err.Error()}
}
