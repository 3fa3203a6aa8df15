package digest

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/starford/vaultdigest/internal/apperr"
	"github.com/starford/vaultdigest/internal/testutil"
)

func TestResolveDestination(t *testing.T) {
	cases := map[string]string{
		"":                DefaultDestination,
		"   ":             DefaultDestination,
		"/":               DefaultDestination,
		" Export/All.md ": "Export/All.md",
		"/Export/All.md/": "Export/All.md",
		"Digest.md":       "Digest.md",
	}
	for in, want := range cases {
		if got := ResolveDestination(in); got != want {
			t.Errorf("ResolveDestination(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestWrite_CreatesMissingDirectory(t *testing.T) {
	store := testutil.NewMemStore()
	if err := Write(store, "Export/All.md", "digest", quietLogger()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	want := []string{"exists:Export/All.md", "mkdir:Export", "write:Export/All.md"}
	if got := store.Calls(); !slices.Equal(got, want) {
		t.Errorf("calls = %q, want %q", got, want)
	}
	if got, _ := store.File("Export/All.md"); got != "digest" {
		t.Errorf("content = %q", got)
	}
}

func TestWrite_ExistingDestinationOverwritten(t *testing.T) {
	store := testutil.NewMemStore()
	store.Add("Export/All.md", "old", time.Time{}, time.Time{})

	if err := Write(store, "Export/All.md", "new", quietLogger()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n := store.CallCount("mkdir"); n != 0 {
		t.Errorf("mkdir called %d times for an existing destination", n)
	}
	if got, _ := store.File("Export/All.md"); got != "new" {
		t.Errorf("content = %q, want full replacement", got)
	}
}

func TestWrite_ExistingDirectorySwallowed(t *testing.T) {
	store := testutil.NewMemStore()
	store.Add("Export/other.md", "", time.Time{}, time.Time{})

	if err := Write(store, "Export/All.md", "x", quietLogger()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if got, _ := store.File("Export/All.md"); got != "x" {
		t.Errorf("content = %q", got)
	}
}

func TestWrite_DirectoryFailureStillAttemptsWrite(t *testing.T) {
	store := testutil.NewMemStore()
	store.MakeDirErr = errors.New("read-only")

	err := Write(store, "Export/All.md", "x", quietLogger())
	if !errors.Is(err, apperr.ErrWrite) {
		t.Fatalf("err = %v, want ErrWrite from the attempted write", err)
	}
	if n := store.CallCount("write"); n != 1 {
		t.Errorf("write attempted %d times, want 1", n)
	}
}

func TestWrite_RootDestinationNoMkdir(t *testing.T) {
	store := testutil.NewMemStore()
	if err := Write(store, "  ", "x", quietLogger()); err != nil {
		t.Fatalf("Write: %v", err)
	}
	if n := store.CallCount("mkdir"); n != 0 {
		t.Errorf("mkdir called %d times", n)
	}
	if got, ok := store.File(DefaultDestination); !ok || got != "x" {
		t.Errorf("default destination content = %q (%v)", got, ok)
	}
}

func TestWrite_WriteError(t *testing.T) {
	store := testutil.NewMemStore()
	store.WriteErr = errors.New("denied")
	if err := Write(store, "a.md", "x", quietLogger()); !errors.Is(err, apperr.ErrWrite) {
		t.Errorf("err = %v, want ErrWrite", err)
	}
}
