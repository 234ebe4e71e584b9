package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"

	"sketchpaint/configs"
	"sketchpaint/internal/infrastructure/logger"
	"sketchpaint/internal/inject"
	"sketchpaint/internal/presentation/discord"
	httpserver "sketchpaint/internal/presentation/http"

	"github.com/samber/do"
	"go.uber.org/zap"
)

func main() {
	// 設定を読み込み
	config, err := configs.LoadConfig()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗: %v", err)
	}

	zapLogger := logger.NewLogger(config.Log.Debug)
	defer zapLogger.Sync()

	zapLogger.Info("スケッチ変換サーバーを起動中...",
		zap.String("model", config.Gemini.ModelName),
		zap.Bool("discord", config.Discord.Enabled()),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	injector := inject.Setup(ctx, config, zapLogger)

	server := do.MustInvoke[*httpserver.Server](injector)
	serverErr := make(chan error, 1)
	go func() {
		serverErr <- server.Run()
	}()

	if config.Discord.Enabled() {
		bot := do.MustInvoke[*discord.Bot](injector)
		if err := bot.Start(); err != nil {
			zapLogger.Error("Discord Botの起動に失敗", zap.Error(err))
		} else {
			zapLogger.Info("利用可能なスラッシュコマンド: /paint")
		}
	}

	// 終了シグナルかサーバーの停止を待機
	select {
	case <-ctx.Done():
		zapLogger.Info("終了シグナルを受信しました。停止中...")
	case err := <-serverErr:
		if err != nil {
			zapLogger.Error("HTTPサーバーが停止しました", zap.Error(err))
		}
	}

	// クリーンアップ
	if err := injector.Shutdown(); err != nil {
		zapLogger.Error("シャットダウン中にエラーが発生しました", zap.Error(err))
	}

	zapLogger.Info("正常に停止しました")
}
