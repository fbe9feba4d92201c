package archive

import (
	"errors"
	"testing"

	"github.com/newthinker/swingbot/internal/core"
)

func TestS3Storage_ImplementsStorage(t *testing.T) {
	var _ Storage = (*S3Storage)(nil)
}

func TestS3Storage_Key(t *testing.T) {
	tests := []struct {
		prefix string
		path   string
		want   string
	}{
		{"", "file.txt", "file.txt"},
		{"runs", "momentum/1/summary.json", "runs/momentum/1/summary.json"},
		{"/runs/", "file.txt", "runs/file.txt"},
	}

	for _, tt := range tests {
		s, err := NewS3(S3Config{Bucket: "b", Region: "us-east-1", Prefix: tt.prefix})
		if err != nil {
			t.Fatal(err)
		}
		if got := s.key(tt.path); got != tt.want {
			t.Errorf("key(%q) with prefix %q = %q, want %q", tt.path, tt.prefix, got, tt.want)
		}
		if got := s.relative(s.key(tt.path)); got != tt.path {
			t.Errorf("relative(key(%q)) = %q", tt.path, got)
		}
	}
}

func TestNewS3_RequiresBucket(t *testing.T) {
	if _, err := NewS3(S3Config{}); !errors.Is(err, core.ErrConfigMissing) {
		t.Errorf("expected CONFIG_MISSING, got %v", err)
	}
}

func TestContentType(t *testing.T) {
	for p, want := range map[string]string{
		"x/summary.json": "application/json",
		"x/equity.csv":   "text/csv",
		"x/blob":         "application/octet-stream",
	} {
		if got := contentType(p); got != want {
			t.Errorf("contentType(%q) = %q, want %q", p, got, want)
		}
	}
}
