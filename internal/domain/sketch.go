package domain

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"strings"
	"unicode"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// DefaultSketchMIMEType は、ヘッダーのない base64 文字列を受け取った場合に仮定するMIMEタイプです
const DefaultSketchMIMEType = "image/png"

// uploadFormats は、Geminiがインライン画像としてそのまま受け付ける形式です
var uploadFormats = map[string]bool{
	"png":  true,
	"jpeg": true,
	"webp": true,
}

// SketchRequest は、フロントエンドから送られてくるスケッチ変換の要求です
// ImageData が nil の場合はスケッチが送られていないことを表します
type SketchRequest struct {
	ImageData *string `json:"image_data"`
	Prompt    string  `json:"prompt"`
}

// DataURL は、分解済みのデータURLです
type DataURL struct {
	MIMEType string
	Payload  string
}

// ParseDataURL は、"data:<mime>;base64,<payload>" 形式の文字列を分解します
// カンマを含まない場合は文字列全体を image/png のペイロードとして扱います
func ParseDataURL(raw string) (DataURL, error) {
	header, payload, found := strings.Cut(raw, ",")
	if !found {
		return DataURL{MIMEType: DefaultSketchMIMEType, Payload: raw}, nil
	}

	mediaType, _, _ := strings.Cut(header, ";")
	_, mimeType, ok := strings.Cut(mediaType, ":")
	if !ok {
		return DataURL{}, validationError(ErrInvalidDataURL)
	}

	return DataURL{MIMEType: mimeType, Payload: payload}, nil
}

// Bytes は、ペイロードを base64 としてデコードします
func (d DataURL) Bytes() ([]byte, error) {
	// 改行などの空白はフロントエンドの整形で混入しうるため取り除く
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, d.Payload)

	data, err := base64.StdEncoding.DecodeString(cleaned)
	if err != nil {
		return nil, validationError(ErrInvalidBase64)
	}
	return data, nil
}

// Sketch は、画像として検証済みの入力スケッチです
// Data と Format はアップロードする画像を表し、常に uploadFormats のいずれかです
type Sketch struct {
	Data             []byte
	DeclaredMIMEType string // データURLのヘッダーに書かれていたMIMEタイプ
	Format           string // アップロードする形式 (png, jpeg, webp)
	SourceFormat     string // デコーダーが判定した元の形式 (png, jpeg, gif, webp, bmp)
	Width            int
	Height           int
}

// NewSketch は、バイト列を画像としてデコードできることを確認してSketchを作成します
// GIFやBMPなどGeminiが受け付けない形式はPNGに変換します
func NewSketch(data []byte, declaredMIMEType string) (*Sketch, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, validationError(ErrUndecodableImage)
	}

	uploadData, uploadFormat := data, format
	if !uploadFormats[format] {
		buf := new(bytes.Buffer)
		if err := png.Encode(buf, img); err != nil {
			return nil, NewRelayError(ErrorKindInternalParsing, fmt.Errorf("Error processing input image: %w", err))
		}
		uploadData, uploadFormat = buf.Bytes(), "png"
	}

	bounds := img.Bounds()
	return &Sketch{
		Data:             uploadData,
		DeclaredMIMEType: declaredMIMEType,
		Format:           uploadFormat,
		SourceFormat:     format,
		Width:            bounds.Dx(),
		Height:           bounds.Dy(),
	}, nil
}

// DecodeSketch は、データURL（またはヘッダーなしの base64）をSketchに変換します
func DecodeSketch(raw string) (*Sketch, error) {
	dataURL, err := ParseDataURL(raw)
	if err != nil {
		return nil, err
	}

	data, err := dataURL.Bytes()
	if err != nil {
		return nil, err
	}

	return NewSketch(data, dataURL.MIMEType)
}

// MIMEType は、アップロードする画像のMIMEタイプを返します
func (s *Sketch) MIMEType() string {
	return "image/" + s.Format
}
