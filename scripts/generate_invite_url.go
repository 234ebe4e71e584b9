package main

import (
	"fmt"
	"log"
	"os"

	"github.com/bwmarrin/discordgo"
	"github.com/joho/godotenv"
)

// invitePermissions は、/paint の応答に画像を添付するために必要な権限です
const invitePermissions = discordgo.PermissionViewChannel |
	discordgo.PermissionSendMessages |
	discordgo.PermissionAttachFiles

func main() {
	// .envファイルを読み込み
	if err := godotenv.Load(); err != nil {
		log.Printf("警告: .envファイルの読み込みに失敗しました: %v", err)
	}

	// Bot Tokenを取得
	botToken := os.Getenv("DISCORD_BOT_TOKEN")
	if botToken == "" {
		log.Fatal("DISCORD_BOT_TOKEN が設定されていません")
	}

	// Discordセッションを作成
	session, err := discordgo.New("Bot " + botToken)
	if err != nil {
		log.Fatalf("Discordセッションの作成に失敗: %v", err)
	}
	defer session.Close()

	// Botの情報を取得
	user, err := session.User("@me")
	if err != nil {
		log.Fatalf("Bot情報の取得に失敗: %v", err)
	}

	fmt.Printf("🤖 Bot情報:\n")
	fmt.Printf("   名前: %s\n", user.Username)
	fmt.Printf("   Client ID: %s\n", user.ID)
	fmt.Println()

	// スラッシュコマンドの登録には applications.commands スコープが必要
	inviteURL := fmt.Sprintf(
		"https://discord.com/api/oauth2/authorize?client_id=%s&permissions=%d&scope=bot%%20applications.commands",
		user.ID, invitePermissions,
	)

	fmt.Printf("🔗 Bot招待URL:\n")
	fmt.Printf("   %s\n", inviteURL)
	fmt.Println()

	fmt.Printf("📋 必要な権限:\n")
	fmt.Printf("   - View Channels (%d)\n", discordgo.PermissionViewChannel)
	fmt.Printf("   - Send Messages (%d)\n", discordgo.PermissionSendMessages)
	fmt.Printf("   - Attach Files (%d)\n", discordgo.PermissionAttachFiles)
	fmt.Printf("   - 合計: %d\n", invitePermissions)
	fmt.Println()

	fmt.Printf("💡 使用方法:\n")
	fmt.Printf("   1. 上記のURLをクリックまたはコピー\n")
	fmt.Printf("   2. 招待したいDiscordサーバーを選択\n")
	fmt.Printf("   3. 権限を確認して「承認」をクリック\n")
	fmt.Println()

	fmt.Printf("🎨 Botの使い方:\n")
	fmt.Printf("   1. /paint を入力し、sketch にスケッチ画像を添付\n")
	fmt.Printf("   2. 必要なら prompt に画風などの指示を入力（例: watercolor）\n")
	fmt.Printf("   3. Geminiが生成した絵画が画像で返信されます\n")
}
