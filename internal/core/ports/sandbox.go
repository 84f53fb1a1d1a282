package ports

import (
	"context"
	"io"

	"go.trai.ch/keel/internal/core/domain"
)

// Sandbox runs build commands against a filesystem composed from trees.
//
//go:generate mockgen -source=sandbox.go -destination=mocks/mock_sandbox.go -package=mocks
type Sandbox interface {
	// Run stages the mounts from store, executes the request and stores the
	// output directory. A non-zero exit is reported in the result, not as an error.
	Run(ctx context.Context, store ContentStore, req domain.SandboxRequest) (domain.SandboxResult, error)
	// Shell starts an interactive shell in the composed filesystem.
	Shell(ctx context.Context, store ContentStore, req domain.SandboxRequest, stdin io.Reader, stdout io.Writer) error
}
