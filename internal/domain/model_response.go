package domain

import (
	"fmt"
	"strings"
)

// FinishReasonStop は、モデルが正常に生成を終えたことを表す終了理由です
const FinishReasonStop = "STOP"

// ModelResponse は、Geminiの応答のうちリレー処理が参照する部分だけを表します
// 省略可能な項目はポインタまたは空値で表現します
type ModelResponse struct {
	PromptFeedback *PromptFeedback
	Candidates     []*Candidate
	Text           string // 応答に含まれるテキストを連結したもの
}

// PromptFeedback は、プロンプトに対する安全フィルターの判定です
type PromptFeedback struct {
	BlockReason   string
	SafetyRatings []SafetyRating
}

// SafetyRating は、安全性カテゴリごとの評価です
type SafetyRating struct {
	Category    string
	Probability string
	Blocked     bool
}

// Candidate は、モデルが返した生成候補です
type Candidate struct {
	Parts          []Part
	FinishReason   string // 空の場合は終了理由なし
	ContentMissing bool   // 候補にコンテンツ自体が含まれていない
}

// Part は、候補に含まれるコンテンツの一単位です
type Part struct {
	Text       string
	InlineData *InlineData
}

// InlineData は、パートに埋め込まれたバイナリデータです
type InlineData struct {
	MIMEType string
	Data     []byte
}

// IsImage は、インラインデータが画像かどうかを返します
func (d *InlineData) IsImage() bool {
	return d != nil && strings.HasPrefix(d.MIMEType, "image/")
}

// Blocked は、プロンプトがブロックされたかどうかを返します
func (f *PromptFeedback) Blocked() bool {
	return f != nil && f.BlockReason != ""
}

// FormatSafetyRatings は、安全性評価を "[CATEGORY: PROBABILITY ...]" 形式で整形します
func FormatSafetyRatings(ratings []SafetyRating) string {
	details := make([]string, 0, len(ratings))
	for _, rating := range ratings {
		detail := fmt.Sprintf("%s: %s", rating.Category, rating.Probability)
		if rating.Blocked {
			detail += " (blocked)"
		}
		details = append(details, detail)
	}
	return "[" + strings.Join(details, ", ") + "]"
}
