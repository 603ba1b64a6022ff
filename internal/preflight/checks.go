package preflight

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"voicebot/internal/handlecache"
	"voicebot/internal/services"
	"voicebot/internal/services/telegram"
)

// Identity is the Bot API call used to verify the token.
type Identity interface {
	GetMe(ctx context.Context) (telegram.User, error)
}

// CheckTelegram verifies that the Bot API is reachable and accepts the token.
// It uses a 10-second timeout and a single attempt.
func CheckTelegram(ctx context.Context, api Identity) Result {
	const name = "Telegram"
	if api == nil {
		return Result{Name: name, Detail: "bot token missing"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	me, err := api.GetMe(checkCtx)
	if err != nil {
		return Result{Name: name, Detail: summarizeTelegramError(err)}
	}
	if me.Username == "" {
		return Result{Name: name, Passed: true, Detail: "token accepted"}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("token accepted (@%s)", me.Username)}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	return checkDirectory(name, path, unix.R_OK|unix.W_OK|unix.X_OK, "read/write ok")
}

// CheckReadableDirectory verifies that the directory exists and can be listed.
// A missing directory passes: the catalog creates it on first scan.
func CheckReadableDirectory(name, path string) Result {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (created on first scan)", path)}
	}
	return checkDirectory(name, path, unix.R_OK|unix.X_OK, "readable")
}

func checkDirectory(name, path string, mode uint32, okDetail string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, mode); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%s)", path, okDetail)}
}

// CheckHandleCache verifies that the handle cache parses and that its
// directory accepts the atomic rename used on save.
func CheckHandleCache(path string) Result {
	const name = "Handle cache"
	dir := filepath.Dir(path)
	if _, err := os.Stat(dir); err == nil {
		if err := unix.Access(dir, unix.W_OK|unix.X_OK); err != nil {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: directory not writable: %v)", path, err)}
		}
	} else if !os.IsNotExist(err) {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", dir, err)}
	}

	handles, err := handlecache.NewStore(path).Load()
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (%d handles)", path, len(handles))}
}

func summarizeTelegramError(err error) string {
	switch {
	case errors.Is(err, services.ErrUnauthorized):
		return "token rejected (check telegram.bot_token)"
	case errors.Is(err, context.DeadlineExceeded):
		return "health check timed out (Bot API unresponsive)"
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "health check timed out (Bot API unreachable)"
	}
	return strings.TrimSpace(err.Error())
}
