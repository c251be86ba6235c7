package checksum

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReader_KnownDigest(t *testing.T) {
	// sha256("hello") is a well-known vector
	got, err := Reader(context.Background(), strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	want := "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	if got != want {
		t.Errorf("digest = %s, want %s", got, want)
	}
}

func TestReader_EmptyInput(t *testing.T) {
	got, err := Reader(context.Background(), strings.NewReader(""))
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	want := "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	if got != want {
		t.Errorf("digest = %s, want %s", got, want)
	}
}

func TestFile_MatchesReader(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.docx")
	if err := os.WriteFile(path, []byte("document body"), 0644); err != nil {
		t.Fatal(err)
	}

	fromFile, err := File(context.Background(), path)
	if err != nil {
		t.Fatalf("File: %v", err)
	}
	fromReader, err := Reader(context.Background(), strings.NewReader("document body"))
	if err != nil {
		t.Fatalf("Reader: %v", err)
	}
	if fromFile != fromReader {
		t.Errorf("File digest %s != Reader digest %s", fromFile, fromReader)
	}
}

func TestFile_Missing(t *testing.T) {
	_, err := File(context.Background(), filepath.Join(t.TempDir(), "nope.docx"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestReader_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Reader(ctx, strings.NewReader("data"))
	if err == nil {
		t.Fatal("expected context error")
	}
}
