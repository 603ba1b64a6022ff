package telegram_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"voicebot/internal/acquire"
	"voicebot/internal/services/telegram"
)

func writeClip(t *testing.T) acquire.Item {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fire.ogg")
	if err := os.WriteFile(path, []byte("clip"), 0o644); err != nil {
		t.Fatalf("write clip: %v", err)
	}
	return acquire.Item{Identifier: "terran/marine/fire.ogg", Label: "[Terran/Marine] fire", Path: path}
}

func TestUploaderSuccessDeletesMessageOnDiscard(t *testing.T) {
	api, server := newFakeAPI(t)
	api.respond("sendVoice", `{"ok":true,"result":{"message_id":9,"chat":{"id":42,"type":"private"},"voice":{"file_id":"FID","file_unique_id":"u","duration":1}}}`)

	outcome := telegram.NewUploader(newClient(server), 42).Acquire(context.Background(), writeClip(t))
	if outcome.Kind != acquire.KindSuccess || outcome.Handle != "FID" {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
	if outcome.Discard == nil {
		t.Fatal("expected discard hook")
	}
	if err := outcome.Discard(context.Background()); err != nil {
		t.Fatalf("Discard: %v", err)
	}
	deletes := api.callsFor("deleteMessage")
	if len(deletes) != 1 || deletes[0].Body["message_id"] != float64(9) || deletes[0].Body["chat_id"] != float64(42) {
		t.Fatalf("unexpected delete %+v", deletes)
	}
}

func TestUploaderMapsRateLimit(t *testing.T) {
	api, server := newFakeAPI(t)
	api.respond("sendVoice", `{"ok":false,"error_code":429,"description":"Too Many Requests","parameters":{"retry_after":12}}`)

	outcome := telegram.NewUploader(newClient(server), 42).Acquire(context.Background(), writeClip(t))
	if outcome.Kind != acquire.KindRateLimited || outcome.Cooldown != 12*time.Second {
		t.Fatalf("unexpected outcome %+v", outcome)
	}
}

func TestUploaderMapsOtherFailuresToTransient(t *testing.T) {
	api, server := newFakeAPI(t)
	api.respond("sendVoice",
		`{"ok":false,"error_code":500,"description":"Internal Server Error"}`,
		`{"ok":true,"result":{"message_id":1,"chat":{"id":42,"type":"private"}}}`,
	)
	uploader := telegram.NewUploader(newClient(server), 42)
	item := writeClip(t)

	if outcome := uploader.Acquire(context.Background(), item); outcome.Kind != acquire.KindTransient || outcome.Err == nil {
		t.Fatalf("expected transient outcome, got %+v", outcome)
	}
	if outcome := uploader.Acquire(context.Background(), item); outcome.Kind != acquire.KindTransient {
		t.Fatalf("expected transient outcome for message without voice, got %+v", outcome)
	}
}

func TestUploaderMissingFileIsTransient(t *testing.T) {
	_, server := newFakeAPI(t)
	item := acquire.Item{Identifier: "gone.ogg", Path: filepath.Join(t.TempDir(), "gone.ogg")}
	if outcome := telegram.NewUploader(newClient(server), 1).Acquire(context.Background(), item); outcome.Kind != acquire.KindTransient {
		t.Fatalf("expected transient outcome, got %+v", outcome)
	}
}
