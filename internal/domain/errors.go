package domain

import "errors"

// ドメイン固有のエラーを定義
// メッセージはそのままクライアントへ返されるため英語で記述します
var (
	// ErrClientNotInitialized は、Geminiクライアントの初期化に失敗している場合のエラーです
	ErrClientNotInitialized = errors.New("Gemini client not initialized. Check API key and configuration.")

	// ErrMissingImageData は、リクエストにスケッチが含まれていない場合のエラーです
	ErrMissingImageData = errors.New("Missing image_data in request")

	// ErrInvalidRequestBody は、リクエストボディがJSONとして解釈できない場合のエラーです
	ErrInvalidRequestBody = errors.New("Invalid JSON body")

	// ErrInvalidDataURL は、データURLのヘッダーが不正な場合のエラーです
	ErrInvalidDataURL = errors.New("Invalid data URL header")

	// ErrInvalidBase64 は、base64のデコードに失敗した場合のエラーです
	ErrInvalidBase64 = errors.New("Invalid base64 string received from frontend")

	// ErrUndecodableImage は、画像として解釈できないデータの場合のエラーです
	ErrUndecodableImage = errors.New("Invalid image data received (cannot be decoded as an image)")

	// ErrRequestBlocked は、Geminiの安全フィルターによりリクエストがブロックされた場合のエラーです
	ErrRequestBlocked = errors.New("Request blocked by Gemini")

	// ErrGenerationFailed は、Gemini APIの呼び出しに失敗した場合のエラーです
	ErrGenerationFailed = errors.New("Failed to generate painting")

	// ErrNoCandidates は、Geminiの応答に候補が含まれていない場合のエラーです
	ErrNoCandidates = errors.New("Gemini returned no candidates in the response.")

	// ErrNoImagePart は、Geminiの応答に画像パートが含まれていない場合のエラーです
	ErrNoImagePart = errors.New("Gemini did not return an image in the response parts.")

	// ErrCandidateAccess は、候補の参照に失敗した場合のエラーです
	ErrCandidateAccess = errors.New("Error accessing response candidate.")

	// ErrResponseParts は、候補のパートを読み取れなかった場合のエラーです
	ErrResponseParts = errors.New("Error processing response parts")
)

// ErrorKind は、リレー処理で発生するエラーの種別です
type ErrorKind int

const (
	ErrorKindConfiguration ErrorKind = iota
	ErrorKindValidation
	ErrorKindUpstreamBlocked
	ErrorKindUpstreamEmpty
	ErrorKindUpstreamCall
	ErrorKindInternalParsing
)

var errorKindNames = []string{
	"configuration",
	"validation",
	"upstream_blocked",
	"upstream_empty",
	"upstream_call",
	"internal_parsing",
}

// String は、ErrorKindの名前を返します
func (k ErrorKind) String() string {
	if int(k) >= 0 && int(k) < len(errorKindNames) {
		return errorKindNames[k]
	}
	return "unknown"
}

// AllErrorKinds は、すべてのErrorKindを返します
func AllErrorKinds() []ErrorKind {
	return []ErrorKind{
		ErrorKindConfiguration,
		ErrorKindValidation,
		ErrorKindUpstreamBlocked,
		ErrorKindUpstreamEmpty,
		ErrorKindUpstreamCall,
		ErrorKindInternalParsing,
	}
}

// RelayError は、種別付きのリレー処理エラーです
type RelayError struct {
	Kind ErrorKind
	Err  error
}

// NewRelayError は、新しいRelayErrorを作成します
func NewRelayError(kind ErrorKind, err error) *RelayError {
	return &RelayError{Kind: kind, Err: err}
}

// Error は、クライアントに返すエラーメッセージを返します
func (e *RelayError) Error() string {
	if e.Err == nil {
		return e.Kind.String()
	}
	return e.Err.Error()
}

// Unwrap は、元のエラーを返します
func (e *RelayError) Unwrap() error {
	return e.Err
}

// KindOf は、エラーの種別を返します
// RelayErrorでないエラーは内部エラーとして扱います
func KindOf(err error) ErrorKind {
	var relayErr *RelayError
	if errors.As(err, &relayErr) {
		return relayErr.Kind
	}
	return ErrorKindInternalParsing
}

func validationError(err error) *RelayError {
	return NewRelayError(ErrorKindValidation, err)
}
