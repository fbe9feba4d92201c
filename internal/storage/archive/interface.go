// Package archive stores run artifacts on the local filesystem or in an
// S3-compatible bucket. Paths are slash-separated and relative to the root.
package archive

import (
	"context"
	"fmt"

	"github.com/newthinker/swingbot/internal/core"
)

// Storage defines the interface for archive storage backends
type Storage interface {
	// Write stores data at the given path
	Write(ctx context.Context, path string, data []byte) error

	// Read retrieves data from the given path. A missing path is
	// core.ErrArtifactNotFound.
	Read(ctx context.Context, path string) ([]byte, error)

	// List returns all paths under the prefix in lexical order
	List(ctx context.Context, prefix string) ([]string, error)

	// Exists checks if data exists at the given path
	Exists(ctx context.Context, path string) (bool, error)
}

// Config selects and configures a backend
type Config struct {
	Type string
	Path string
	S3   S3Config
}

// New creates the backend named by cfg.Type
func New(cfg Config) (Storage, error) {
	switch cfg.Type {
	case "", "localfs":
		return NewLocalFS(cfg.Path)
	case "s3":
		return NewS3(cfg.S3)
	}
	return nil, core.Errorf(core.ErrConfigInvalid, "unknown archive type %q", cfg.Type)
}

func notFound(path string) error {
	return core.WrapError(core.ErrArtifactNotFound, fmt.Errorf("%s", path))
}
