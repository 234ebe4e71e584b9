package discord

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sketchpaint/internal/domain"

	"github.com/bwmarrin/discordgo"
	"github.com/samber/lo"
	"go.uber.org/zap"
)

const (
	paintCommandName  = "paint"
	sketchOptionName  = "sketch"
	promptOptionName  = "prompt"
	paintingFileStem  = "painting"
	interactionWindow = 14 * time.Minute // インタラクションのトークンは15分で失効する
)

var (
	errMissingSketch    = errors.New("スケッチ画像が添付されていません")
	errAttachmentSize   = errors.New("添付ファイルが大きすぎます")
	errAttachmentStatus = errors.New("添付ファイルのダウンロードに失敗しました")
)

// slashCommands は、Botが登録するスラッシュコマンドの定義です
func slashCommands() []*discordgo.ApplicationCommand {
	return []*discordgo.ApplicationCommand{
		{
			Name:        paintCommandName,
			Description: "スケッチ画像をGeminiで絵画に変換します",
			Options: []*discordgo.ApplicationCommandOption{
				{
					Type:        discordgo.ApplicationCommandOptionAttachment,
					Name:        sketchOptionName,
					Description: "変換するスケッチ画像",
					Required:    true,
				},
				{
					Type:        discordgo.ApplicationCommandOptionString,
					Name:        promptOptionName,
					Description: "画風などの追加の指示（英語推奨）",
					Required:    false,
				},
			},
		},
	}
}

// paintOptions は、/paint コマンドの引数です
type paintOptions struct {
	Attachment *discordgo.MessageAttachment
	Prompt     string
}

// paintReply は、/paint コマンドへの返信内容です
type paintReply struct {
	Content string
	File    *discordgo.File
}

// parsePaintOptions は、インタラクションのデータから /paint の引数を取り出します
func parsePaintOptions(data discordgo.ApplicationCommandInteractionData) (paintOptions, error) {
	var opts paintOptions

	for _, option := range data.Options {
		switch option.Name {
		case sketchOptionName:
			id, ok := option.Value.(string)
			if !ok || data.Resolved == nil {
				return opts, errMissingSketch
			}
			opts.Attachment = data.Resolved.Attachments[id]
		case promptOptionName:
			opts.Prompt = option.StringValue()
		}
	}

	if opts.Attachment == nil {
		return opts, errMissingSketch
	}
	return opts, nil
}

// handlePaintCommand は、/paint コマンドを処理します
// 生成に時間がかかるため先に遅延応答を返し、完了後に応答を編集します
func (b *Bot) handlePaintCommand(s *discordgo.Session, i *discordgo.InteractionCreate) {
	err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	})
	if err != nil {
		b.logger.Error("遅延応答の送信に失敗", zap.Error(err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), interactionWindow)
	defer cancel()

	b.logger.Info("/paint を受信しました", zap.String("user", interactionUser(i)))

	var reply paintReply
	opts, err := parsePaintOptions(i.ApplicationCommandData())
	if err != nil {
		reply = paintReply{Content: formatError(err)}
	} else {
		reply = b.paint(ctx, s.Client, opts)
	}

	edit := &discordgo.WebhookEdit{Content: &reply.Content}
	if reply.File != nil {
		edit.Files = []*discordgo.File{reply.File}
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		b.logger.Error("インタラクションの応答編集に失敗", zap.Error(err))
	}
}

// paint は、添付されたスケッチをダウンロードして絵画を生成し、返信内容を作成します
func (b *Bot) paint(ctx context.Context, client *http.Client, opts paintOptions) paintReply {
	data, err := downloadAttachment(ctx, client, opts.Attachment, b.config.MaxAttachmentBytes)
	if err != nil {
		b.logger.Warn("添付ファイルの取得に失敗", zap.String("filename", opts.Attachment.Filename), zap.Error(err))
		return paintReply{Content: formatError(err)}
	}

	sketch, err := domain.NewSketch(data, opts.Attachment.ContentType)
	if err != nil {
		return paintReply{Content: formatError(err)}
	}

	img, err := b.painter.PaintSketch(ctx, sketch, opts.Prompt)
	if err != nil {
		return paintReply{Content: formatError(err)}
	}

	content := "🎨 スケッチを絵画に変換しました"
	if prompt := strings.TrimSpace(opts.Prompt); prompt != "" {
		content += "\nプロンプト: " + prompt
	}

	return paintReply{
		Content: truncate(content, DiscordMessageLimit),
		File: &discordgo.File{
			Name:        fileNameFor(img.MIMEType),
			ContentType: img.MIMEType,
			Reader:      bytes.NewReader(img.Data),
		},
	}
}

// downloadAttachment は、添付ファイルを上限サイズまでダウンロードします
func downloadAttachment(ctx context.Context, client *http.Client, attachment *discordgo.MessageAttachment, maxBytes int64) ([]byte, error) {
	if client == nil {
		client = http.DefaultClient
	}
	if attachment.Size > 0 && int64(attachment.Size) > maxBytes {
		return nil, fmt.Errorf("%w: %d バイト（上限 %d バイト）", errAttachmentSize, attachment.Size, maxBytes)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, attachment.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("リクエストの作成に失敗: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errAttachmentStatus, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: HTTP %d", errAttachmentStatus, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", errAttachmentStatus, err)
	}
	if int64(len(data)) > maxBytes {
		return nil, fmt.Errorf("%w: 上限 %d バイト", errAttachmentSize, maxBytes)
	}
	return data, nil
}

// fileNameFor は、MIMEタイプから添付ファイル名を決定します
func fileNameFor(mimeType string) string {
	ext := strings.TrimPrefix(mimeType, "image/")
	ext = lo.Ternary(ext == "jpeg", "jpg", ext)
	if ext == "" || strings.ContainsAny(ext, "/;+") {
		ext = "png"
	}
	return paintingFileStem + "." + ext
}

// isTimeoutError は、エラーがタイムアウトエラーかどうかを判定します
func isTimeoutError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	errorMsg := strings.ToLower(err.Error())
	return lo.SomeBy([]string{"timeout", "タイムアウト", "deadline exceeded"}, func(keyword string) bool {
		return strings.Contains(errorMsg, keyword)
	})
}

// formatError は、エラーを適切なメッセージにフォーマットします
func formatError(err error) string {
	if isTimeoutError(err) {
		return "⏰ **タイムアウトしました**\n処理に時間がかかりすぎました。しばらく待ってから再度お試しください。"
	}

	var message string
	switch {
	case errors.Is(err, errMissingSketch):
		message = "📎 **スケッチ画像を添付してください**"
	case errors.Is(err, errAttachmentSize):
		message = fmt.Sprintf("📏 **%s**", err.Error())
	default:
		switch domain.KindOf(err) {
		case domain.ErrorKindValidation:
			message = fmt.Sprintf("🖼️ **画像を読み込めませんでした**\n%s", err.Error())
		case domain.ErrorKindUpstreamBlocked:
			message = fmt.Sprintf("🚫 **Geminiによりブロックされました**\n%s", err.Error())
		case domain.ErrorKindConfiguration:
			message = fmt.Sprintf("⚙️ **Botの設定に問題があります**\n%s", err.Error())
		default:
			message = fmt.Sprintf("❌ **エラーが発生しました**\n%s", err.Error())
		}
	}
	return truncate(message, DiscordMessageLimit)
}

// truncate は、文字列を最大ルーン数に切り詰めます
func truncate(s string, maxRunes int) string {
	runes := []rune(s)
	if len(runes) <= maxRunes {
		return s
	}
	return string(runes[:maxRunes-1]) + "…"
}
