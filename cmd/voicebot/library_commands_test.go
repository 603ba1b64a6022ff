package main

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"voicebot/internal/library"
	"voicebot/internal/runlog"
)

func TestSearchCommandTable(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"search", "zeal"}, env.configPath)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "[Protoss/Zealot] attack")
	requireContains(t, out, "protoss/zealot/attack.ogg")
	requireContains(t, out, "100.0")
}

func TestSearchCommandCachedJSON(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"search", "protoss", "--cached", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	var hits []searchHit
	if err := json.Unmarshal([]byte(out), &hits); err != nil {
		t.Fatalf("decode: %v\n%s", err, out)
	}
	if len(hits) != 1 || hits[0].Identifier != "protoss/zealot/attack.ogg" || !hits[0].Cached {
		t.Fatalf("unexpected hits %+v", hits)
	}
}

func TestSearchCommandNoMatches(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"search", "qqqqqqqqqqqqqqqqqqqq"}, env.configPath)
	if err != nil {
		t.Fatalf("search: %v", err)
	}
	requireContains(t, out, "No clips match")
}

func TestStatsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"stats"}, env.configPath)
	if err != nil {
		t.Fatalf("stats: %v", err)
	}
	requireContains(t, out, "== Library ==")
	requireContains(t, out, "1 of 3")
	requireContains(t, out, "Protoss")

	out, _, err = runCLI(t, []string{"stats", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("stats --json: %v", err)
	}
	var stats libraryStatsJSON
	if err := json.Unmarshal([]byte(out), &stats); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if stats.Clips != 3 || stats.Cached != 1 || len(stats.Categories) != 2 {
		t.Fatalf("unexpected stats %+v", stats)
	}
	if stats.Categories[0] != (categoryJSON{Name: "protoss", Clips: 2, Cached: 1}) {
		t.Fatalf("unexpected protoss stats %+v", stats.Categories[0])
	}
}

func TestBrowseCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"browse"}, env.configPath)
	if err != nil {
		t.Fatalf("browse: %v", err)
	}
	requireContains(t, out, "protoss")
	requireContains(t, out, "terran")

	out, _, err = runCLI(t, []string{"browse", "prot"}, env.configPath)
	if err != nil {
		t.Fatalf("browse prot: %v", err)
	}
	requireContains(t, out, "Category: protoss (2 clips)")
	requireContains(t, out, "[Protoss/Probe] ready")

	if _, _, err := runCLI(t, []string{"browse", "xyz"}, env.configPath); err == nil {
		t.Fatal("expected error for unknown category")
	}
}

func TestResolveCategory(t *testing.T) {
	categories := []string{"protoss", "protoss_old", "terran", "zerg"}
	tests := []struct {
		query string
		want  string
	}{
		{"protoss", "protoss"},
		{"TERRAN", "terran"},
		{"zrg", "zerg"},
		{"trn", "terran"},
	}
	for _, tt := range tests {
		got, err := resolveCategory(tt.query, categories)
		if err != nil {
			t.Fatalf("resolveCategory(%q): %v", tt.query, err)
		}
		if got != tt.want {
			t.Fatalf("resolveCategory(%q) = %q, want %q", tt.query, got, tt.want)
		}
	}
	if _, err := resolveCategory("  ", categories); err == nil {
		t.Fatal("expected error for blank query")
	}
	if _, err := resolveCategory("qq", categories); err == nil {
		t.Fatal("expected error when nothing matches")
	}
}

func TestRunsCommand(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "No acquisition runs recorded")

	lib, err := library.Open(env.cfg, nil)
	if err != nil {
		t.Fatalf("library.Open: %v", err)
	}
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	err = lib.Runs().Record(context.Background(), runlog.Run{
		ID:         "0123456789abcdef",
		Source:     "cli",
		Status:     "completed",
		Total:      3,
		Uploaded:   2,
		Skipped:    1,
		StartedAt:  started,
		FinishedAt: started.Add(90 * time.Second),
	})
	lib.Close()
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	out, _, err = runCLI(t, []string{"runs"}, env.configPath)
	if err != nil {
		t.Fatalf("runs: %v", err)
	}
	requireContains(t, out, "01234567")
	requireContains(t, out, "1m30s")

	out, _, err = runCLI(t, []string{"runs", "--json"}, env.configPath)
	if err != nil {
		t.Fatalf("runs --json: %v", err)
	}
	var runs []runJSON
	if err := json.Unmarshal([]byte(out), &runs); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(runs) != 1 || runs[0].Uploaded != 2 || !strings.EqualFold(runs[0].Status, "completed") {
		t.Fatalf("unexpected runs %+v", runs)
	}
}
