package discord

import (
	"context"
	"fmt"

	"sketchpaint/internal/domain"
	"sketchpaint/internal/infrastructure/config"

	"github.com/bwmarrin/discordgo"
	"go.uber.org/zap"
)

// DiscordMessageLimit は、Discordのメッセージ長制限です
const DiscordMessageLimit = 2000

// SketchPainter は、デコード済みのスケッチから絵画を生成するサービスのインターフェースです
type SketchPainter interface {
	PaintSketch(ctx context.Context, sketch *domain.Sketch, userPrompt string) (*domain.GeneratedImage, error)
}

// Bot は、/paint スラッシュコマンドを提供するDiscord Botです
type Bot struct {
	session *discordgo.Session
	config  config.DiscordConfig
	painter SketchPainter
	logger  *zap.Logger
}

// NewBot は新しいBotインスタンスを作成します
// 接続は Start まで行いません
func NewBot(cfg config.DiscordConfig, painter SketchPainter, logger *zap.Logger) (*Bot, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("Discordセッションの作成に失敗: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds

	return &Bot{
		session: session,
		config:  cfg,
		painter: painter,
		logger:  logger,
	}, nil
}

// Start は、Discordに接続してスラッシュコマンドを登録します
func (b *Bot) Start() error {
	// Botの情報を取得
	user, err := b.session.User("@me")
	if err != nil {
		return fmt.Errorf("Bot情報の取得に失敗: %w", err)
	}
	b.logger.Info("Bot情報", zap.String("username", user.Username), zap.String("id", user.ID))

	b.session.AddHandler(b.handleInteractionCreate)

	if err := b.session.Open(); err != nil {
		return fmt.Errorf("Discordへの接続に失敗: %w", err)
	}

	// グローバルコマンドとして登録
	for _, command := range slashCommands() {
		if _, err := b.session.ApplicationCommandCreate(user.ID, "", command); err != nil {
			return fmt.Errorf("スラッシュコマンド %s の登録に失敗: %w", command.Name, err)
		}
		b.logger.Info("スラッシュコマンドを登録しました", zap.String("command", command.Name))
	}

	b.logger.Info("Discordに接続しました。Botが準備完了しました")
	return nil
}

// Shutdown は、Discordセッションを閉じます
func (b *Bot) Shutdown() error {
	b.logger.Info("Discordセッションを閉じます")
	if err := b.session.Close(); err != nil {
		return fmt.Errorf("Discordセッションのクローズに失敗: %w", err)
	}
	return nil
}

// handleInteractionCreate は、インタラクション作成イベントを処理します
func (b *Bot) handleInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	switch i.ApplicationCommandData().Name {
	case paintCommandName:
		go b.handlePaintCommand(s, i)
	default:
		b.logger.Warn("未知のスラッシュコマンド", zap.String("command", i.ApplicationCommandData().Name))
	}
}

// interactionUser は、インタラクションを実行したユーザー名を返します
func interactionUser(i *discordgo.InteractionCreate) string {
	switch {
	case i.Member != nil && i.Member.User != nil:
		return i.Member.User.Username
	case i.User != nil:
		return i.User.Username
	default:
		return ""
	}
}
