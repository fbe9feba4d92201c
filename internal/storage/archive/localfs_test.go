package archive

import (
	"context"
	"errors"
	"testing"

	"github.com/newthinker/swingbot/internal/core"
)

func TestLocalFS_ImplementsStorage(t *testing.T) {
	var _ Storage = (*LocalFS)(nil)
}

func TestLocalFS_WriteRead(t *testing.T) {
	fs, err := NewLocalFS(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalFS: %v", err)
	}
	ctx := context.Background()
	data := []byte(`{"total_return":0.1}`)

	if err := fs.Write(ctx, "momentum/run-1/summary.json", data); err != nil {
		t.Fatalf("Write: %v", err)
	}
	got, err := fs.Read(ctx, "momentum/run-1/summary.json")
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if string(got) != string(data) {
		t.Errorf("got %q, want %q", got, data)
	}
}

func TestLocalFS_ReadMissing(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	_, err := fs.Read(context.Background(), "momentum/none/summary.json")
	if !errors.Is(err, core.ErrArtifactNotFound) {
		t.Errorf("expected ARTIFACT_NOT_FOUND, got %v", err)
	}
}

func TestLocalFS_Exists(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	exists, _ := fs.Exists(ctx, "nonexistent.txt")
	if exists {
		t.Error("expected false for nonexistent file")
	}

	if err := fs.Write(ctx, "exists.txt", []byte("data")); err != nil {
		t.Fatal(err)
	}
	exists, _ = fs.Exists(ctx, "exists.txt")
	if !exists {
		t.Error("expected true for existing file")
	}
}

func TestLocalFS_List(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	ctx := context.Background()

	for _, p := range []string{"donchian/b/summary.json", "donchian/a/summary.json", "momentum/c/summary.json"} {
		if err := fs.Write(ctx, p, []byte("{}")); err != nil {
			t.Fatal(err)
		}
	}

	paths, err := fs.List(ctx, "donchian")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	want := []string{"donchian/a/summary.json", "donchian/b/summary.json"}
	if len(paths) != len(want) || paths[0] != want[0] || paths[1] != want[1] {
		t.Errorf("List = %v, want %v", paths, want)
	}

	paths, err = fs.List(ctx, "nothing")
	if err != nil || len(paths) != 0 {
		t.Errorf("List(missing) = %v, %v", paths, err)
	}
}

func TestLocalFS_RejectsEscapes(t *testing.T) {
	fs, _ := NewLocalFS(t.TempDir())
	if err := fs.Write(context.Background(), "../outside.txt", []byte("x")); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestNew(t *testing.T) {
	s, err := New(Config{Type: "localfs", Path: t.TempDir()})
	if err != nil {
		t.Fatalf("New(localfs): %v", err)
	}
	if _, ok := s.(*LocalFS); !ok {
		t.Errorf("expected *LocalFS, got %T", s)
	}
	if _, err := New(Config{Type: "s3", S3: S3Config{Bucket: "runs", Region: "us-east-1"}}); err != nil {
		t.Errorf("New(s3): %v", err)
	}
	if _, err := New(Config{Type: "ftp"}); !errors.Is(err, core.ErrConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
}
