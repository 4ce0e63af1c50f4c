package images

import (
	"context"
	"errors"
	"strings"
	"testing"

	"jangbu/internal/log"
)

func newTestStore(t *testing.T) *DiskStore {
	t.Helper()
	s, err := NewDiskStore(t.TempDir(), "/images", log.New(log.DefaultConfig()))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func TestSaveReadRemove(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(t)

	url, err := s.Save(ctx, []byte("jpeg-bytes"), "image/jpeg")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if !strings.HasPrefix(url, "/images/") || !strings.HasSuffix(url, ".jpg") {
		t.Fatalf("url = %s", url)
	}

	data, err := s.Read(ctx, url)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if string(data) != "jpeg-bytes" {
		t.Fatalf("data = %q", data)
	}

	if err := s.Remove(ctx, url); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if _, err := s.Read(ctx, url); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after remove, got %v", err)
	}
	// Idempotent.
	if err := s.Remove(ctx, url); err != nil {
		t.Fatalf("second remove should be a no-op, got %v", err)
	}
}

func TestSaveRejectsUnknownType(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Save(context.Background(), []byte("x"), "application/pdf"); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("got %v", err)
	}
}

func TestReadRejectsTraversal(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Read(context.Background(), "/images/../../etc/passwd"); err == nil {
		t.Fatal("traversal should be rejected")
	}
}
