package application

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/gif"
	"image/png"
	"testing"

	"sketchpaint/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockPaintingModel は、テスト用のモックモデルです
type MockPaintingModel struct {
	response *domain.ModelResponse
	err      error

	calls      int
	lastPrompt string
	lastSketch *domain.Sketch
}

func (m *MockPaintingModel) GeneratePainting(ctx context.Context, prompt string, sketch *domain.Sketch) (*domain.ModelResponse, error) {
	m.calls++
	m.lastPrompt = prompt
	m.lastSketch = sketch
	return m.response, m.err
}

func onePixelPNGDataURL(t *testing.T) string {
	t.Helper()
	buf := new(bytes.Buffer)
	require.NoError(t, png.Encode(buf, image.NewRGBA(image.Rect(0, 0, 1, 1))))
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())
}

func imageResponse(mime string, data []byte) *domain.ModelResponse {
	return &domain.ModelResponse{
		Candidates: []*domain.Candidate{
			{
				Parts:        []domain.Part{{InlineData: &domain.InlineData{MIMEType: mime, Data: data}}},
				FinishReason: domain.FinishReasonStop,
			},
		},
	}
}

func newTestService(model *MockPaintingModel) *PaintingService {
	return NewPaintingService(ModelInit{Model: model}, nil)
}

func TestPaintingService_GeneratePainting_Success(t *testing.T) {
	model := &MockPaintingModel{response: imageResponse("image/png", []byte("X"))}
	service := newTestService(model)
	imageData := onePixelPNGDataURL(t)

	result, err := service.GeneratePainting(context.Background(), domain.SketchRequest{ImageData: &imageData})
	require.NoError(t, err)

	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString([]byte("X")), result.Image)
	assert.Empty(t, result.Error)
	assert.Equal(t, 1, model.calls)
	assert.Equal(t, domain.DefaultPaintingPrompt, model.lastPrompt)
	assert.Equal(t, "png", model.lastSketch.Format)
}

func TestPaintingService_GeneratePainting_GIFSketch(t *testing.T) {
	model := &MockPaintingModel{response: imageResponse("image/png", []byte("X"))}
	service := newTestService(model)

	buf := new(bytes.Buffer)
	require.NoError(t, gif.Encode(buf, image.NewPaletted(image.Rect(0, 0, 3, 2), nil), nil))
	imageData := "data:image/gif;base64," + base64.StdEncoding.EncodeToString(buf.Bytes())

	_, err := service.GeneratePainting(context.Background(), domain.SketchRequest{ImageData: &imageData})
	require.NoError(t, err)

	require.NotNil(t, model.lastSketch)
	assert.Equal(t, "gif", model.lastSketch.SourceFormat)
	assert.Equal(t, "image/png", model.lastSketch.MIMEType())
	_, err = png.Decode(bytes.NewReader(model.lastSketch.Data))
	assert.NoError(t, err)
}

func TestPaintingService_GeneratePainting_UserPrompt(t *testing.T) {
	model := &MockPaintingModel{response: imageResponse("image/png", []byte("X"))}
	service := newTestService(model)
	imageData := onePixelPNGDataURL(t)

	_, err := service.GeneratePainting(context.Background(), domain.SketchRequest{ImageData: &imageData, Prompt: " oil on canvas "})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultPaintingPrompt+" oil on canvas", model.lastPrompt)
}

func TestPaintingService_GeneratePainting_Idempotent(t *testing.T) {
	model := &MockPaintingModel{response: imageResponse("image/jpeg", []byte{0xFF, 0xD8, 0xFF})}
	service := newTestService(model)
	imageData := onePixelPNGDataURL(t)
	req := domain.SketchRequest{ImageData: &imageData, Prompt: "sunset"}

	first, err := service.GeneratePainting(context.Background(), req)
	require.NoError(t, err)
	second, err := service.GeneratePainting(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, 2, model.calls)
}

func TestPaintingService_GeneratePainting_ValidationErrors(t *testing.T) {
	notAnImage := base64.StdEncoding.EncodeToString([]byte("definitely not an image"))

	tests := []struct {
		name      string
		imageData *string
		wantErr   error
	}{
		{name: "image_dataなし", imageData: nil, wantErr: domain.ErrMissingImageData},
		{name: "不正なbase64", imageData: strPtr("data:image/png;base64,@@not-base64@@"), wantErr: domain.ErrInvalidBase64},
		{name: "画像でないbase64", imageData: strPtr("data:image/png;base64," + notAnImage), wantErr: domain.ErrUndecodableImage},
		{name: "ヘッダーなしの画像でないbase64", imageData: strPtr(notAnImage), wantErr: domain.ErrUndecodableImage},
		{name: "不正なヘッダー", imageData: strPtr("garbage," + notAnImage), wantErr: domain.ErrInvalidDataURL},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			model := &MockPaintingModel{response: imageResponse("image/png", []byte("X"))}
			service := newTestService(model)

			result, err := service.GeneratePainting(context.Background(), domain.SketchRequest{ImageData: tt.imageData})
			assert.Nil(t, result)
			require.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, domain.ErrorKindValidation, domain.KindOf(err))
			assert.Zero(t, model.calls, "検証エラー時にモデルを呼び出してはいけません")
		})
	}
}

func strPtr(s string) *string {
	return &s
}

func TestPaintingService_NotInitialized(t *testing.T) {
	imageData := onePixelPNGDataURL(t)

	tests := []struct {
		name string
		init ModelInit
	}{
		{name: "初期化エラーあり", init: ModelInit{Err: errors.New("missing api key")}},
		{name: "モデルなし", init: ModelInit{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			service := NewPaintingService(tt.init, nil)

			_, err := service.GeneratePainting(context.Background(), domain.SketchRequest{ImageData: &imageData})
			require.ErrorIs(t, err, domain.ErrClientNotInitialized)
			assert.Equal(t, domain.ErrorKindConfiguration, domain.KindOf(err))

			// image_data がなくても設定エラーが優先される
			_, err = service.GeneratePainting(context.Background(), domain.SketchRequest{})
			assert.ErrorIs(t, err, domain.ErrClientNotInitialized)

			_, err = service.PaintSketch(context.Background(), &domain.Sketch{}, "")
			assert.ErrorIs(t, err, domain.ErrClientNotInitialized)
		})
	}
}

func TestPaintingService_UpstreamCallError(t *testing.T) {
	upstreamErr := errors.New("quota exceeded")
	model := &MockPaintingModel{err: upstreamErr}
	service := newTestService(model)
	imageData := onePixelPNGDataURL(t)

	_, err := service.GeneratePainting(context.Background(), domain.SketchRequest{ImageData: &imageData})
	require.Error(t, err)
	assert.Equal(t, "Failed to generate painting: quota exceeded", err.Error())
	assert.ErrorIs(t, err, upstreamErr)
	assert.Equal(t, domain.ErrorKindUpstreamCall, domain.KindOf(err))
}

func TestInterpretResponse(t *testing.T) {
	tests := []struct {
		name     string
		resp     *domain.ModelResponse
		wantKind domain.ErrorKind
		wantMsg  string
		wantMIME string
		wantData []byte
	}{
		{
			name:     "画像パートあり",
			resp:     imageResponse("image/png", []byte("X")),
			wantMIME: "image/png",
			wantData: []byte("X"),
		},
		{
			name: "テキストの後の最初の画像パートを採用",
			resp: &domain.ModelResponse{Candidates: []*domain.Candidate{{Parts: []domain.Part{
				{Text: "Here is your painting"},
				{InlineData: &domain.InlineData{MIMEType: "application/octet-stream", Data: []byte("bin")}},
				{InlineData: &domain.InlineData{MIMEType: "image/jpeg", Data: []byte("first")}},
				{InlineData: &domain.InlineData{MIMEType: "image/png", Data: []byte("second")}},
			}}}},
			wantMIME: "image/jpeg",
			wantData: []byte("first"),
		},
		{
			name: "ブロック理由あり",
			resp: &domain.ModelResponse{
				PromptFeedback: &domain.PromptFeedback{BlockReason: "SAFETY"},
				Candidates:     imageResponse("image/png", []byte("X")).Candidates,
			},
			wantKind: domain.ErrorKindUpstreamBlocked,
			wantMsg:  "Request blocked by Gemini: SAFETY",
		},
		{
			name: "ブロック理由と安全性評価",
			resp: &domain.ModelResponse{
				PromptFeedback: &domain.PromptFeedback{
					BlockReason:   "SAFETY",
					SafetyRatings: []domain.SafetyRating{{Category: "HARM_CATEGORY_HARASSMENT", Probability: "HIGH"}},
				},
			},
			wantKind: domain.ErrorKindUpstreamBlocked,
			wantMsg:  "Request blocked by Gemini: SAFETY Safety Ratings: [HARM_CATEGORY_HARASSMENT: HIGH]",
		},
		{
			name: "ブロック理由なしのフィードバックは無視",
			resp: &domain.ModelResponse{
				PromptFeedback: &domain.PromptFeedback{},
				Candidates:     imageResponse("image/gif", []byte("G")).Candidates,
			},
			wantMIME: "image/gif",
			wantData: []byte("G"),
		},
		{
			name:     "候補なし",
			resp:     &domain.ModelResponse{},
			wantKind: domain.ErrorKindUpstreamEmpty,
			wantMsg:  "Gemini returned no candidates in the response.",
		},
		{
			name:     "候補なしでテキストあり",
			resp:     &domain.ModelResponse{Text: "I cannot do that"},
			wantKind: domain.ErrorKindUpstreamEmpty,
			wantMsg:  "Gemini returned no candidates in the response. Response text: I cannot do that",
		},
		{
			name:     "候補がnil",
			resp:     &domain.ModelResponse{Candidates: []*domain.Candidate{nil}},
			wantKind: domain.ErrorKindInternalParsing,
			wantMsg:  "Error accessing response candidate.",
		},
		{
			name:     "応答がnil",
			resp:     nil,
			wantKind: domain.ErrorKindInternalParsing,
			wantMsg:  "Error accessing response candidate.",
		},
		{
			name: "画像なしで正常終了",
			resp: &domain.ModelResponse{Candidates: []*domain.Candidate{{
				Parts:        []domain.Part{{Text: "only text"}},
				FinishReason: domain.FinishReasonStop,
			}}},
			wantKind: domain.ErrorKindUpstreamEmpty,
			wantMsg:  "Gemini did not return an image in the response parts.",
		},
		{
			name:     "画像なしで終了理由なし",
			resp:     &domain.ModelResponse{Candidates: []*domain.Candidate{{}}},
			wantKind: domain.ErrorKindUpstreamEmpty,
			wantMsg:  "Gemini did not return an image in the response parts.",
		},
		{
			name:     "コンテンツのない候補",
			resp:     &domain.ModelResponse{Candidates: []*domain.Candidate{{ContentMissing: true}}},
			wantKind: domain.ErrorKindInternalParsing,
			wantMsg:  "Error processing response parts: candidate has no content",
		},
		{
			name: "コンテンツのない候補と終了理由",
			resp: &domain.ModelResponse{Candidates: []*domain.Candidate{{
				ContentMissing: true,
				FinishReason:   "PROHIBITED_CONTENT",
			}}},
			wantKind: domain.ErrorKindInternalParsing,
			wantMsg:  "Error processing response parts: candidate has no content (Finish Reason: PROHIBITED_CONTENT)",
		},
		{
			name: "画像なしで異常終了",
			resp: &domain.ModelResponse{Candidates: []*domain.Candidate{{
				Parts:        []domain.Part{{Text: "refused"}},
				FinishReason: "IMAGE_SAFETY",
			}}},
			wantKind: domain.ErrorKindUpstreamEmpty,
			wantMsg:  "Gemini did not return an image in the response parts. Finish Reason: IMAGE_SAFETY",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			img, err := InterpretResponse(tt.resp)
			if tt.wantMsg == "" {
				require.NoError(t, err)
				assert.Equal(t, tt.wantMIME, img.MIMEType)
				assert.Equal(t, tt.wantData, img.Data)
				return
			}
			require.Error(t, err)
			assert.Nil(t, img)
			assert.Equal(t, tt.wantMsg, err.Error())
			assert.Equal(t, tt.wantKind, domain.KindOf(err))
		})
	}
}

func TestModelInit_Ready(t *testing.T) {
	assert.True(t, ModelInit{Model: &MockPaintingModel{}}.Ready())
	assert.False(t, ModelInit{Model: &MockPaintingModel{}, Err: errors.New("x")}.Ready())
	assert.False(t, ModelInit{}.Ready())
}
