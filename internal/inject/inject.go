package inject

import (
	"context"
	"fmt"

	"sketchpaint/configs"
	"sketchpaint/internal/application"
	"sketchpaint/internal/infrastructure/gemini"
	"sketchpaint/internal/presentation/discord"
	httpserver "sketchpaint/internal/presentation/http"

	"github.com/samber/do"
	"go.uber.org/zap"
)

// Setup は、設定とロガーから各コンポーネントの生成方法を登録したインジェクターを作成します
// Discord Botはトークンが設定されている場合のみ登録します
func Setup(ctx context.Context, cfg *configs.Config, logger *zap.Logger) *do.Injector {
	injector := do.NewWithOpts(&do.InjectorOpts{
		Logf: func(format string, args ...any) {
			logger.Debug(fmt.Sprintf(format, args...))
		},
	})

	do.ProvideValue[*configs.Config](injector, cfg)
	do.ProvideValue[*zap.Logger](injector, logger)

	do.Provide[application.ModelInit](injector, func(i *do.Injector) (application.ModelInit, error) {
		cfg := do.MustInvoke[*configs.Config](i)
		logger := do.MustInvoke[*zap.Logger](i)

		client, err := gemini.NewPaintingClient(ctx, &cfg.Gemini, logger.Named("gemini"))
		if err != nil {
			// 起動は継続し、各リクエストで設定エラーを返す
			logger.Error("Geminiクライアントの初期化に失敗しました", zap.Error(err))
			return application.ModelInit{Err: err}, nil
		}
		logger.Info("Geminiクライアントを初期化しました", zap.Stringer("config", cfg.Gemini))
		return application.ModelInit{Model: client}, nil
	})

	do.Provide[*application.PaintingService](injector, func(i *do.Injector) (*application.PaintingService, error) {
		return application.NewPaintingService(
			do.MustInvoke[application.ModelInit](i),
			do.MustInvoke[*zap.Logger](i).Named("service"),
		), nil
	})

	do.Provide[*httpserver.Server](injector, func(i *do.Injector) (*httpserver.Server, error) {
		return httpserver.NewServer(
			do.MustInvoke[*configs.Config](i).Server,
			do.MustInvoke[*application.PaintingService](i),
			do.MustInvoke[*zap.Logger](i).Named("http"),
		), nil
	})

	if cfg.Discord.Enabled() {
		do.Provide[*discord.Bot](injector, func(i *do.Injector) (*discord.Bot, error) {
			return discord.NewBot(
				do.MustInvoke[*configs.Config](i).Discord,
				do.MustInvoke[*application.PaintingService](i),
				do.MustInvoke[*zap.Logger](i).Named("discord"),
			)
		})
	}

	return injector
}
