package bot

import (
	"fmt"
	"strings"

	"voicebot/internal/catalog"
	"voicebot/internal/library"
)

const (
	notAllowedText     = "⛔ This command is limited to bot admins."
	uploadStartingText = "⏳ Starting audio file upload..."
	uploadRunningText  = "⏳ An upload is already running. Wait for it to finish."
)

func helpText(username string) string {
	mention := "@" + username
	if username == "" {
		mention = "@<bot>"
	}
	var sb strings.Builder
	sb.WriteString("👋 Hello! I'm a voice message bot.\n\n")
	sb.WriteString("To use me:\n")
	fmt.Fprintf(&sb, "1. Type %s in any chat\n", mention)
	sb.WriteString("2. Enter part of the audio name\n")
	sb.WriteString("3. Choose the audio from the list\n\n")
	fmt.Fprintf(&sb, "Example: %s zealot\n\n", mention)
	sb.WriteString("Commands:\n")
	sb.WriteString("/upload - Upload all audio files to Telegram\n")
	sb.WriteString("/rescan - Reload the audio directory\n")
	sb.WriteString("/stats - Show statistics")
	return sb.String()
}

func statsText(stats library.Stats) string {
	var sb strings.Builder
	sb.WriteString("📊 Statistics:\n\n")
	fmt.Fprintf(&sb, "Total audio files: %d\n", stats.Clips)
	fmt.Fprintf(&sb, "Uploaded to Telegram: %d\n\n", stats.Cached)
	sb.WriteString("By category:\n")
	for _, cs := range stats.Categories {
		fmt.Fprintf(&sb, "  • %s: %d (uploaded: %d)\n", catalog.Title(cs.Name), cs.Total, cs.Cached)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func rescanText(stats library.Stats) string {
	return fmt.Sprintf("🔄 Rescan complete. %d audio files, %d uploaded.", stats.Clips, stats.Cached)
}
