// Package sandbox runs build commands in a scratch directory composed from
// content store trees.
package sandbox

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/zerr"
)

// DefaultShell interprets build commands.
const DefaultShell = "sh"

var _ ports.Sandbox = (*Sandbox)(nil)

// Sandbox implements ports.Sandbox on the host. Each run gets a fresh root
// directory; mounts are checked out into it rather than bind mounted, so a
// build cannot modify stored trees.
type Sandbox struct {
	trees  ports.TreeIO
	logger ports.Logger
	// TempDir holds sandbox roots. Empty uses the system temp directory.
	TempDir string
	// KeepRoot leaves roots behind for inspection.
	KeepRoot bool
	environ  func() []string
}

// New creates a Sandbox that stages and captures trees through trees.
func New(trees ports.TreeIO, logger ports.Logger) *Sandbox {
	return &Sandbox{trees: trees, logger: logger, environ: os.Environ}
}

// Run executes req.Commands in order. The first non-zero exit stops the run
// and is reported in the result.
func (s *Sandbox) Run(ctx context.Context, store ports.ContentStore, req domain.SandboxRequest) (domain.SandboxResult, error) {
	root, err := s.prepare(ctx, store, req)
	if err != nil {
		return domain.SandboxResult{}, err
	}
	defer s.cleanup(root)

	env := s.environment(root, req)
	shell, err := lookPath(DefaultShell, env)
	if err != nil {
		return domain.SandboxResult{}, zerr.With(zerr.Wrap(err, "failed to find shell"), "shell", DefaultShell)
	}

	var stdout, stderr bytes.Buffer
	outW, errW := io.Writer(&stdout), io.Writer(&stderr)
	if req.Log != nil {
		outW = io.MultiWriter(&stdout, req.Log)
		errW = io.MultiWriter(&stderr, req.Log)
	}

	res := domain.SandboxResult{}
	for _, command := range req.Commands {
		cmd := exec.CommandContext(ctx, shell, "-e", "-c", command) //nolint:gosec // Commands come from the project.
		cmd.Args[0] = DefaultShell
		cmd.Dir = filepath.Join(root, filepath.FromSlash(req.WorkDir))
		cmd.Env = env
		cmd.Stdout = outW
		cmd.Stderr = errW

		err := cmd.Run()
		if err == nil {
			continue
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return domain.SandboxResult{}, ctxErr
		}
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return domain.SandboxResult{}, zerr.With(zerr.Wrap(err, "failed to start command"), "command", command)
		}
		res.ExitCode = exitErr.ExitCode()
		break
	}
	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()
	if res.ExitCode != 0 {
		return res, nil
	}

	res.Output, err = s.trees.Import(ctx, store, filepath.Join(root, filepath.FromSlash(req.OutputDir)))
	if err != nil {
		return domain.SandboxResult{}, zerr.With(err, "element", req.Element)
	}
	return res, nil
}

// prepare creates a root and checks out every mount into it.
func (s *Sandbox) prepare(ctx context.Context, store ports.ContentStore, req domain.SandboxRequest) (string, error) {
	if s.TempDir != "" {
		if err := os.MkdirAll(s.TempDir, domain.DirPerm); err != nil {
			return "", domain.WrapError(err, domain.ErrStoreWriteFailed, "path", s.TempDir)
		}
	}
	root, err := os.MkdirTemp(s.TempDir, "keel-sandbox-")
	if err != nil {
		return "", domain.WrapError(err, domain.ErrStoreWriteFailed)
	}

	for _, m := range req.Mounts {
		dest := root
		if m.Path != "" {
			rel, err := domain.CleanEntryPath(m.Path)
			if err != nil {
				s.cleanup(root)
				return "", err
			}
			dest = filepath.Join(root, filepath.FromSlash(rel))
		}
		if err := s.trees.Checkout(ctx, store, m.Tree, dest); err != nil {
			s.cleanup(root)
			return "", zerr.With(err, "mount", m.Path)
		}
	}

	for _, dir := range []string{req.WorkDir, req.OutputDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(filepath.Join(root, filepath.FromSlash(dir)), domain.DirPerm); err != nil {
			s.cleanup(root)
			return "", domain.WrapError(err, domain.ErrStoreWriteFailed, "path", dir)
		}
	}
	return root, nil
}

func (s *Sandbox) environment(root string, req domain.SandboxRequest) []string {
	return resolveEnvironment(s.environ(), map[string]string{
		EnvRoot:    root,
		EnvBuild:   filepath.Join(root, filepath.FromSlash(req.WorkDir)),
		EnvInstall: filepath.Join(root, filepath.FromSlash(req.OutputDir)),
		EnvElement: req.Element,
	}, req.Env)
}

func (s *Sandbox) cleanup(root string) {
	if s.KeepRoot {
		s.logger.Info("kept sandbox root " + root)
		return
	}
	if err := os.RemoveAll(root); err != nil {
		s.logger.Warn("failed to remove sandbox root " + root + ": " + err.Error())
	}
}
