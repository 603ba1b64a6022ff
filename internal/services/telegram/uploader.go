package telegram

import (
	"context"
	"errors"

	"voicebot/internal/acquire"
)

var _ acquire.Transport = (*Uploader)(nil)

// Uploader acquires handles by sending clips as voice messages to a chat.
type Uploader struct {
	client *Client
	chatID int64
}

// NewUploader returns a transport that uploads into chatID.
func NewUploader(client *Client, chatID int64) *Uploader {
	return &Uploader{client: client, chatID: chatID}
}

// Acquire sends the clip and returns its voice file_id. The delivered message
// is deleted through the outcome's Discard hook.
func (u *Uploader) Acquire(ctx context.Context, item acquire.Item) acquire.Outcome {
	msg, err := u.client.SendVoice(ctx, u.chatID, item.Path)
	if err != nil {
		if cooldown, ok := RetryAfter(err); ok {
			return acquire.RateLimitedFor(cooldown, err)
		}
		return acquire.Failed(err)
	}
	if msg.Voice == nil || msg.Voice.FileID == "" {
		return acquire.Failed(errors.New("telegram sendVoice: message carries no voice file"))
	}

	chatID, messageID := msg.Chat.ID, msg.MessageID
	if chatID == 0 {
		chatID = u.chatID
	}
	return acquire.Succeeded(msg.Voice.FileID, func(ctx context.Context) error {
		return u.client.DeleteMessage(ctx, chatID, messageID)
	})
}
