package storage

import (
	"context"
	"fmt"

	"zap-scraper/models"
)

// ResultWriter is the interface any storage backend must satisfy.
type ResultWriter interface {
	Write(ctx context.Context, result *models.RunResult) error
	Close() error
}

// WriteError reports a failed persistence step. Op names the step
// (mkdir, create, write, sync, rename, insert, ...).
type WriteError struct {
	Path string
	Op   string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write %s: %s: %v", e.Path, e.Op, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}
