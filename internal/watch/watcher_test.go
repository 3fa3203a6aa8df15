package watch

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"testing"
	"time"
)

func TestRelevant(t *testing.T) {
	cases := []struct {
		path string
		want bool
	}{
		{"a.md", true},
		{"sub/b.md", true},
		{"Vault Digest.md", false},
		{"image.png", false},
		{".obsidian/x.md", false},
		{"Export/.vaultdigest-tmp-123", false},
		{"sub/.hidden.md", false},
	}
	for _, c := range cases {
		if got := Relevant(c.path, "Vault Digest.md"); got != c.want {
			t.Errorf("Relevant(%q) = %v, want %v", c.path, got, c.want)
		}
	}
}

type triggers struct {
	mu    sync.Mutex
	calls [][]string
}

func (tr *triggers) fn(_ context.Context, changed []string) {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	tr.calls = append(tr.calls, changed)
}

func (tr *triggers) snapshot() [][]string {
	tr.mu.Lock()
	defer tr.mu.Unlock()
	return slices.Clone(tr.calls)
}

func startWatch(t *testing.T, debounce time.Duration) (string, *triggers) {
	t.Helper()
	dir := t.TempDir()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	tr := &triggers{}
	go Watch(ctx, dir, "Vault Digest.md", debounce, logger, tr.fn)
	time.Sleep(100 * time.Millisecond)
	return dir, tr
}

// eventually polls fn every tick until it returns true or timeout elapses.
func eventually(t *testing.T, timeout, tick time.Duration, fn func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if fn() {
			return
		}
		time.Sleep(tick)
	}
	t.Error(msg)
}

func TestWatch_BurstDebounced(t *testing.T) {
	dir, tr := startWatch(t, 200*time.Millisecond)

	for range 5 {
		_ = os.WriteFile(filepath.Join(dir, "a.md"), []byte("x"), 0o644)
		time.Sleep(20 * time.Millisecond)
	}
	_ = os.WriteFile(filepath.Join(dir, "b.md"), []byte("y"), 0o644)

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		return len(tr.snapshot()) > 0
	}, "trigger never fired")

	time.Sleep(400 * time.Millisecond)
	calls := tr.snapshot()
	if len(calls) != 1 {
		t.Fatalf("trigger fired %d times, want 1", len(calls))
	}
	if !slices.Equal(calls[0], []string{"a.md", "b.md"}) {
		t.Errorf("changed = %q", calls[0])
	}
}

func TestWatch_IgnoresDestinationAndDotDirs(t *testing.T) {
	dir, tr := startWatch(t, 100*time.Millisecond)

	_ = os.WriteFile(filepath.Join(dir, "Vault Digest.md"), []byte("digest"), 0o644)
	_ = os.MkdirAll(filepath.Join(dir, ".obsidian"), 0o755)
	time.Sleep(50 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(dir, ".obsidian", "workspace.md"), []byte("{}"), 0o644)

	time.Sleep(500 * time.Millisecond)
	if calls := tr.snapshot(); len(calls) != 0 {
		t.Errorf("unexpected triggers: %q", calls)
	}
}

func TestWatch_NewDirWatched(t *testing.T) {
	dir, tr := startWatch(t, 100*time.Millisecond)

	sub := filepath.Join(dir, "sub")
	_ = os.MkdirAll(sub, 0o755)
	time.Sleep(100 * time.Millisecond)
	_ = os.WriteFile(filepath.Join(sub, "deep.md"), []byte("# Deep"), 0o644)

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		for _, c := range tr.snapshot() {
			if slices.Contains(c, "sub/deep.md") {
				return true
			}
		}
		return false
	}, "change in new subdir not seen")
}

func TestWatch_DirMovedInRegenerates(t *testing.T) {
	dir, tr := startWatch(t, 100*time.Millisecond)

	outside := filepath.Join(t.TempDir(), "Project")
	_ = os.MkdirAll(filepath.Join(outside, "notes"), 0o755)
	_ = os.WriteFile(filepath.Join(outside, "plan.md"), []byte("# Plan"), 0o644)
	_ = os.WriteFile(filepath.Join(outside, "notes", "log.md"), []byte("# Log"), 0o644)
	_ = os.WriteFile(filepath.Join(outside, "cover.png"), []byte("png"), 0o644)

	if err := os.Rename(outside, filepath.Join(dir, "Project")); err != nil {
		t.Skipf("rename across temp dirs unsupported: %v", err)
	}

	eventually(t, 3*time.Second, 50*time.Millisecond, func() bool {
		return len(tr.snapshot()) > 0
	}, "moving a folder of notes in did not trigger")

	var seen []string
	for _, c := range tr.snapshot() {
		seen = append(seen, c...)
	}
	for _, want := range []string{"Project/notes/log.md", "Project/plan.md"} {
		if !slices.Contains(seen, want) {
			t.Errorf("changed = %q, missing %s", seen, want)
		}
	}
	if slices.Contains(seen, "Project/cover.png") {
		t.Errorf("non-markdown file reported: %q", seen)
	}
}
