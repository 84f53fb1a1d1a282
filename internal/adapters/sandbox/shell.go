package sandbox

import (
	"context"
	"errors"
	"io"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/creack/pty"
	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/zerr"
	"golang.org/x/term"
)

// Shell starts an interactive shell in the work directory of a root composed
// like Run composes it. The shell runs on a pseudo terminal; when stdin is a
// terminal it is put into raw mode for the duration.
func (s *Sandbox) Shell(
	ctx context.Context,
	store ports.ContentStore,
	req domain.SandboxRequest,
	stdin io.Reader,
	stdout io.Writer,
) error {
	root, err := s.prepare(ctx, store, req)
	if err != nil {
		return err
	}
	defer s.cleanup(root)

	env := s.environment(root, req)
	name := DefaultShell
	if sh := os.Getenv("SHELL"); sh != "" {
		name = sh
	}
	executable, err := lookPath(name, env)
	if err != nil {
		return zerr.With(zerr.Wrap(err, "failed to find shell"), "shell", name)
	}

	cmd := exec.CommandContext(ctx, executable) //nolint:gosec // The user's own shell.
	cmd.Args[0] = filepath.Base(name)
	cmd.Dir = filepath.Join(root, filepath.FromSlash(req.WorkDir))
	cmd.Env = env

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return zerr.Wrap(err, "failed to start pty")
	}
	defer func() { _ = ptmx.Close() }()

	if f, ok := stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		_ = pty.InheritSize(f, ptmx)
		state, err := term.MakeRaw(int(f.Fd()))
		if err == nil {
			defer func() { _ = term.Restore(int(f.Fd()), state) }()
		}
	}

	go func() { _, _ = io.Copy(ptmx, stdin) }()
	ioDone := make(chan struct{})
	go func() {
		defer close(ioDone)
		_, _ = io.Copy(stdout, ptmx)
	}()

	err = cmd.Wait()
	// Reading the master fails once the shell and its children are gone.
	<-ioDone

	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return zerr.With(zerr.Wrap(err, "shell exited"), "exit_code", exitErr.ExitCode())
		}
		return zerr.Wrap(err, "shell failed")
	}
	return nil
}
