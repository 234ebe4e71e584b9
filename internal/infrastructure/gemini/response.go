package gemini

import (
	"strings"

	"sketchpaint/internal/domain"

	"github.com/samber/lo"
	"google.golang.org/genai"
)

// toModelResponse は、SDKのレスポンスをドメインのモデル応答に変換します
// nil のパートや候補はそのまま保持し、解釈はアプリケーション層に任せます
func toModelResponse(resp *genai.GenerateContentResponse) *domain.ModelResponse {
	if resp == nil {
		return nil
	}

	out := &domain.ModelResponse{
		PromptFeedback: toPromptFeedback(resp.PromptFeedback),
		Candidates:     lo.Map(resp.Candidates, func(c *genai.Candidate, _ int) *domain.Candidate { return toCandidate(c) }),
		Text:           firstCandidateText(resp),
	}
	return out
}

func toPromptFeedback(feedback *genai.GenerateContentResponsePromptFeedback) *domain.PromptFeedback {
	if feedback == nil {
		return nil
	}
	return &domain.PromptFeedback{
		BlockReason:   string(feedback.BlockReason),
		SafetyRatings: toSafetyRatings(feedback.SafetyRatings),
	}
}

func toSafetyRatings(ratings []*genai.SafetyRating) []domain.SafetyRating {
	return lo.FilterMap(ratings, func(r *genai.SafetyRating, _ int) (domain.SafetyRating, bool) {
		if r == nil {
			return domain.SafetyRating{}, false
		}
		return domain.SafetyRating{
			Category:    string(r.Category),
			Probability: string(r.Probability),
			Blocked:     r.Blocked,
		}, true
	})
}

func toCandidate(c *genai.Candidate) *domain.Candidate {
	if c == nil {
		return nil
	}

	candidate := &domain.Candidate{FinishReason: string(c.FinishReason)}
	if c.Content == nil {
		candidate.ContentMissing = true
		return candidate
	}

	for _, part := range c.Content.Parts {
		if part == nil {
			continue
		}
		p := domain.Part{Text: part.Text}
		if part.InlineData != nil {
			p.InlineData = &domain.InlineData{
				MIMEType: part.InlineData.MIMEType,
				Data:     part.InlineData.Data,
			}
		}
		candidate.Parts = append(candidate.Parts, p)
	}
	return candidate
}

// firstCandidateText は、最初の候補のテキストパートを連結して返します
// 思考パートは含めません
func firstCandidateText(resp *genai.GenerateContentResponse) string {
	if len(resp.Candidates) == 0 || resp.Candidates[0] == nil || resp.Candidates[0].Content == nil {
		return ""
	}

	var builder strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if part != nil && !part.Thought {
			builder.WriteString(part.Text)
		}
	}
	return builder.String()
}
