// SPDX-License-Identifier: MPL-2.0

package archive

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spmkit/spm/internal/testutil/projecttest"
)

func newTestStore(t *testing.T) (*AssetStore, string) {
	t.Helper()

	dst := t.TempDir()
	store, err := NewAssetStore(&Workspace{Dir: dst}, 8)
	if err != nil {
		t.Fatalf("NewAssetStore() error = %v", err)
	}
	return store, dst
}

func TestAssetStoreCopyAndRemove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, dst := newTestStore(t)
	src := t.TempDir()
	data := []byte("meow")
	name := projecttest.PayloadName(data, "wav")
	if err := os.WriteFile(filepath.Join(src, name), data, 0o644); err != nil {
		t.Fatal(err)
	}

	if err := store.Copy(ctx, src, name); err != nil {
		t.Fatalf("Copy() error = %v", err)
	}
	got, err := os.ReadFile(filepath.Join(dst, name))
	if err != nil {
		t.Fatalf("copied payload missing: %v", err)
	}
	if string(got) != "meow" {
		t.Errorf("copied payload = %q", got)
	}

	// identical content is skipped
	if err := store.Copy(ctx, src, name); err != nil {
		t.Fatalf("second Copy() error = %v", err)
	}

	if err := store.Remove(ctx, name); err != nil {
		t.Fatalf("Remove() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(dst, name)); !os.IsNotExist(err) {
		t.Error("payload still present after Remove()")
	}
	if err := store.Remove(ctx, name); err != nil {
		t.Errorf("Remove() of a missing payload error = %v", err)
	}
}

func TestAssetStoreRejectsPaths(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store, _ := newTestStore(t)
	for _, name := range []string{"", "..", "../evil.png", "dir/a.png"} {
		if err := store.Copy(ctx, t.TempDir(), name); err == nil {
			t.Errorf("Copy(%q) expected error", name)
		}
		if err := store.Remove(ctx, name); err == nil {
			t.Errorf("Remove(%q) expected error", name)
		}
	}
}

func TestAssetStoreCopyMissingSource(t *testing.T) {
	t.Parallel()

	store, _ := newTestStore(t)
	if err := store.Copy(context.Background(), t.TempDir(), "abc.png"); err == nil {
		t.Error("Copy() of a missing payload expected error")
	}
}

func TestAssetStoreDigest(t *testing.T) {
	t.Parallel()

	store, dst := newTestStore(t)
	data := []byte("costume")
	path := filepath.Join(dst, "c.svg")
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	want := projecttest.PayloadName(data, "svg")
	for range 2 {
		sum, err := store.Digest(path)
		if err != nil {
			t.Fatalf("Digest() error = %v", err)
		}
		if sum+".svg" != want {
			t.Errorf("Digest() = %s, want %s", sum, want)
		}
	}
	if store.digests.Len() != 1 {
		t.Errorf("digest cache holds %d entries, want 1", store.digests.Len())
	}
}

func TestExpectedDigest(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		want string
	}{
		{"83c36d806dc92327b9e7049a565c6bff.wav", "83c36d806dc92327b9e7049a565c6bff"},
		{"83C36D806DC92327B9E7049A565C6BFF.wav", "83c36d806dc92327b9e7049a565c6bff"},
		{"cat.png", ""},
		{"zzzzzzzzzzzzzzzzzzzzzzzzzzzzzzzz.png", ""},
	}
	for _, tt := range tests {
		if got := expectedDigest(tt.name); got != tt.want {
			t.Errorf("expectedDigest(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}
