package configs

import (
	"fmt"
	"os"
	"strconv"

	"sketchpaint/internal/infrastructure/config"

	"github.com/joho/godotenv"
)

// Config は、アプリケーション全体の設定を定義します
type Config struct {
	Server  config.ServerConfig
	Gemini  config.GeminiConfig
	Discord config.DiscordConfig
	Log     config.LogConfig
}

// safetyThresholds は、GEMINI_SAFETY_THRESHOLD に指定できる値です
var safetyThresholds = map[string]bool{
	"":                       true,
	"BLOCK_LOW_AND_ABOVE":    true,
	"BLOCK_MEDIUM_AND_ABOVE": true,
	"BLOCK_ONLY_HIGH":        true,
	"BLOCK_NONE":             true,
	"OFF":                    true,
}

// LoadConfig は、環境変数から設定を読み込みます
func LoadConfig() (*Config, error) {
	// .envファイルを読み込み（ファイルが存在しない場合は無視）
	if err := godotenv.Load(); err != nil {
		fmt.Printf("警告: .envファイルの読み込みに失敗しました: %v\n", err)
	}

	config := &Config{
		Server: config.ServerConfig{
			Host:         getEnvOrDefault("HOST", "0.0.0.0"),
			Port:         getEnvAsIntOrDefault("PORT", 5000),
			BodyLimit:    getEnvAsIntOrDefault("MAX_REQUEST_BYTES", 20*1024*1024),
			AllowOrigins: getEnvOrDefault("CORS_ALLOW_ORIGINS", "*"),
		},
		Gemini: config.GeminiConfig{
			// フロントエンドと.envを共有する構成のため REACT_APP_ 付きのキーも受け付ける
			APIKey:          firstEnv("GEMINI_API_KEY", "REACT_APP_GEMINI_API_KEY", "GOOGLE_API_KEY"),
			ModelName:       getEnvOrDefault("GEMINI_IMAGE_MODEL", config.DefaultImageModelName),
			SafetyThreshold: getEnvOrDefault("GEMINI_SAFETY_THRESHOLD", ""),
		},
		Discord: config.DiscordConfig{
			BotToken:           getEnvOrDefault("DISCORD_BOT_TOKEN", ""),
			MaxAttachmentBytes: int64(getEnvAsIntOrDefault("DISCORD_MAX_ATTACHMENT_BYTES", 8*1024*1024)),
		},
		Log: config.LogConfig{
			Debug: getEnvAsBoolOrDefault("LOG_DEBUG", false),
		},
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate は、設定の妥当性を検証します
// APIキーの未設定は起動時エラーにせず、リクエスト時の設定エラーとして扱います
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("PORT は1以上65535以下である必要があります")
	}

	if c.Server.BodyLimit <= 0 {
		return fmt.Errorf("MAX_REQUEST_BYTES は正の整数である必要があります")
	}

	if c.Gemini.ModelName == "" {
		return fmt.Errorf("GEMINI_IMAGE_MODEL が設定されていません")
	}

	if !safetyThresholds[c.Gemini.SafetyThreshold] {
		return fmt.Errorf("GEMINI_SAFETY_THRESHOLD の値が不正です: %s", c.Gemini.SafetyThreshold)
	}

	if c.Discord.Enabled() && c.Discord.MaxAttachmentBytes <= 0 {
		return fmt.Errorf("DISCORD_MAX_ATTACHMENT_BYTES は正の整数である必要があります")
	}

	return nil
}

// getEnvOrDefault は、環境変数を取得し、存在しない場合はデフォルト値を返します
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// firstEnv は、指定されたキーのうち最初に値が設定されている環境変数を返します
func firstEnv(keys ...string) string {
	for _, key := range keys {
		if value := os.Getenv(key); value != "" {
			return value
		}
	}
	return ""
}

// getEnvAsIntOrDefault は、環境変数を整数として取得し、存在しない場合はデフォルト値を返します
func getEnvAsIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// getEnvAsBoolOrDefault は、環境変数を真偽値として取得し、存在しない場合はデフォルト値を返します
func getEnvAsBoolOrDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}
