package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"

	"voicebot/internal/daemon"
	"voicebot/internal/testsupport"
)

type fakeBotAPI struct {
	mu      sync.Mutex
	uploads int
	deletes int
}

func (f *fakeBotAPI) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	_, _ = io.Copy(io.Discard, r.Body)
	f.mu.Lock()
	defer f.mu.Unlock()
	w.Header().Set("Content-Type", "application/json")
	switch {
	case strings.HasSuffix(r.URL.Path, "/sendVoice"):
		f.uploads++
		fmt.Fprintf(w, `{"ok":true,"result":{"message_id":%d,"chat":{"id":5,"type":"private"},"date":0,"voice":{"file_id":"F-%d","file_unique_id":"u%d","duration":1}}}`,
			f.uploads, f.uploads, f.uploads)
	case strings.HasSuffix(r.URL.Path, "/deleteMessage"):
		f.deletes++
		fmt.Fprint(w, `{"ok":true,"result":true}`)
	default:
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
	}
}

func TestUploadCommandAcquiresMissingHandles(t *testing.T) {
	api := &fakeBotAPI{}
	server := httptest.NewServer(api)
	defer server.Close()
	env := setupCLITestEnv(t, testsupport.WithAPIBaseURL(server.URL))

	out, _, err := runCLI(t, []string{"upload", "--chat", "5"}, env.configPath)
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	requireContains(t, out, "2 without a handle")
	requireContains(t, out, "== Upload summary ==")
	requireContains(t, out, "completed")

	api.mu.Lock()
	uploads, deletes := api.uploads, api.deletes
	api.mu.Unlock()
	if uploads != 2 || deletes != 2 {
		t.Fatalf("expected 2 uploads and deletes, got %d/%d", uploads, deletes)
	}

	data, err := os.ReadFile(env.cfg.Paths.HandleCache)
	if err != nil {
		t.Fatalf("read handle cache: %v", err)
	}
	var handles map[string]string
	if err := json.Unmarshal(data, &handles); err != nil {
		t.Fatalf("decode handle cache: %v", err)
	}
	if len(handles) != 3 || handles["protoss/zealot/attack.ogg"] != "H-zealot" {
		t.Fatalf("unexpected handle cache %v", handles)
	}

	out, _, err = runCLI(t, []string{"runs", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, `"source": "cli"`)
	requireContains(t, out, `"uploaded": 2`)
}

func TestUploadCommandRefusesWhileServeHoldsLock(t *testing.T) {
	api := &fakeBotAPI{}
	server := httptest.NewServer(api)
	defer server.Close()
	env := setupCLITestEnv(t, testsupport.WithAPIBaseURL(server.URL))

	lock, err := daemon.AcquireLock(env.cfg.LockPath())
	if err != nil {
		t.Fatalf("AcquireLock: %v", err)
	}
	defer func() { _ = lock.Unlock() }()

	_, _, err = runCLI(t, []string{"upload", "--chat", "5"}, env.configPath)
	if !errors.Is(err, daemon.ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	api.mu.Lock()
	uploads := api.uploads
	api.mu.Unlock()
	if uploads != 0 {
		t.Fatalf("expected no uploads while locked, got %d", uploads)
	}
	data, err := os.ReadFile(env.cfg.Paths.HandleCache)
	if err != nil {
		t.Fatalf("read handle cache: %v", err)
	}
	var handles map[string]string
	if err := json.Unmarshal(data, &handles); err != nil {
		t.Fatalf("decode handle cache: %v", err)
	}
	if len(handles) != 1 {
		t.Fatalf("expected handle cache untouched, got %v", handles)
	}
}

func TestUploadCommandRequiresChat(t *testing.T) {
	env := setupCLITestEnv(t)

	_, _, err := runCLI(t, []string{"upload"}, env.configPath)
	if err == nil || !strings.Contains(err.Error(), "--chat") {
		t.Fatalf("expected --chat error, got %v", err)
	}
}

func TestCheckCommandVerifiesToken(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		if !strings.HasSuffix(r.URL.Path, "/getMe") {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"ok":false,"error_code":404,"description":"Not Found"}`)
			return
		}
		fmt.Fprint(w, `{"ok":true,"result":{"id":1,"is_bot":true,"first_name":"Clips","username":"clipbot"}}`)
	}))
	defer server.Close()
	env := setupCLITestEnv(t, testsupport.WithAPIBaseURL(server.URL))

	out, _, err := runCLI(t, []string{"check"}, env.configPath)
	if err != nil {
		t.Fatalf("check: %v\n%s", err, out)
	}
	requireContains(t, out, "@clipbot")
}
