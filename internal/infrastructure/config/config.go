package config

import (
	"fmt"
	"net"
	"strconv"
)

// DefaultImageModelName は、スケッチの変換に使用するデフォルトの画像生成モデルです
const DefaultImageModelName = "gemini-2.0-flash-exp-image-generation"

// GeminiConfig は、Gemini API関連の設定を定義します
type GeminiConfig struct {
	APIKey          string
	ModelName       string // 画像生成用モデル名
	SafetyThreshold string // 空の場合はモデル既定の安全フィルターを使用
}

// ServerConfig は、HTTPサーバー関連の設定を定義します
type ServerConfig struct {
	Host         string
	Port         int
	BodyLimit    int // リクエストボディの最大バイト数
	AllowOrigins string
}

// Address は、待ち受けアドレスを返します
func (c ServerConfig) Address() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DiscordConfig は、Discord関連の設定を定義します
type DiscordConfig struct {
	BotToken           string
	MaxAttachmentBytes int64
}

// Enabled は、Discord連携が有効かどうかを返します
func (c DiscordConfig) Enabled() bool {
	return c.BotToken != ""
}

// LogConfig は、ログ出力の設定を定義します
type LogConfig struct {
	Debug bool
}

// DefaultGeminiConfig は、デフォルトのGemini設定を返します
func DefaultGeminiConfig() *GeminiConfig {
	return &GeminiConfig{
		ModelName: DefaultImageModelName,
	}
}

// String は、APIキーを伏せた設定内容を返します
func (c GeminiConfig) String() string {
	key := "未設定"
	if c.APIKey != "" {
		key = "設定済み"
	}
	return fmt.Sprintf("GeminiConfig{APIKey: %s, ModelName: %s, SafetyThreshold: %q}", key, c.ModelName, c.SafetyThreshold)
}
