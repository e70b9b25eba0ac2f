package ports

import (
	"context"

	"github.com/mikey/bec-analyzer/internal/core"
)

// EmailFilter defines the interface for mail-stream risk filtering
type EmailFilter interface {
	// ProcessEmail scores an email and returns the verdict
	ProcessEmail(ctx context.Context, email core.Email) (*core.Verdict, error)

	// Start starts the filter service
	Start() error

	// Stop stops the filter service
	Stop() error
}
