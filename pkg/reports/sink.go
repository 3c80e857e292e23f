package reports

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// Sink stores an encoded report under a name.
type Sink interface {
	Name() string
	Write(ctx context.Context, name, contentType string, data []byte) error
}

// FileSink writes reports into a local directory.
type FileSink struct {
	Dir string
}

func NewFileSink(dir string) (*FileSink, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create report dir: %w", err)
	}
	return &FileSink{Dir: dir}, nil
}

func (s *FileSink) Name() string { return "file" }

// Write goes through a temp file and rename so readers never see a partial report.
func (s *FileSink) Write(ctx context.Context, name, _ string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	path := filepath.Join(s.Dir, filepath.Base(name))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("write report: %w", err)
	}
	return nil
}
