package sources

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/keel/internal/core/domain"
	"go.trai.ch/keel/internal/core/ports"
	"go.trai.ch/zerr"
)

var commitPattern = regexp.MustCompile(`^[0-9a-f]{40}([0-9a-f]{24})?$`)

// Git serves "git" sources through the git command line. The revision is a
// commit id; the fetched tree is the checked out work tree without .git.
type Git struct {
	stager
	// Binary is the git executable.
	Binary string
}

// NewGit creates the git plugin.
func NewGit(trees ports.TreeIO) *Git {
	return &Git{stager: stager{trees: trees}, Binary: "git"}
}

// Kind returns "git".
func (*Git) Kind() string { return "git" }

// ResolveRef asks the remote which commit the tracking pattern points at. A
// track that already is a commit id resolves to itself.
func (g *Git) ResolveRef(ctx context.Context, _ string, src domain.Source) (string, error) {
	track := src.Track
	if track == "" {
		track = "HEAD"
	}
	if commitPattern.MatchString(track) {
		return track, nil
	}

	out, err := g.run(ctx, "", "ls-remote", src.URL, track)
	if err != nil {
		return "", err
	}
	for line := range strings.SplitSeq(strings.TrimSpace(out), "\n") {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		if name := fields[1]; name == track || name == "refs/heads/"+track || name == "refs/tags/"+track {
			return fields[0], nil
		}
	}
	return "", zerr.With(zerr.New("tracking pattern matches no ref"), "track", track)
}

// Fetch checks out the pinned commit in a scratch directory and imports it.
func (g *Git) Fetch(ctx context.Context, _ string, src domain.Source, store ports.ContentStore) (domain.Digest, error) {
	if !commitPattern.MatchString(src.Ref) {
		return "", zerr.With(zerr.New("git revision is not a commit id"), "ref", src.Ref)
	}

	dir, err := os.MkdirTemp("", "keel-git-")
	if err != nil {
		return "", domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	defer func() { _ = os.RemoveAll(dir) }()

	steps := [][]string{
		{"init", "--quiet"},
		{"fetch", "--quiet", "--depth", "1", src.URL, src.Ref},
		{"-c", "advice.detachedHead=false", "checkout", "--quiet", "FETCH_HEAD"},
	}
	for _, args := range steps {
		if _, err := g.run(ctx, dir, args...); err != nil {
			return "", err
		}
	}

	head, err := g.run(ctx, dir, "rev-parse", "HEAD")
	if err != nil {
		return "", err
	}
	if got := strings.TrimSpace(head); got != src.Ref {
		return "", domain.NewError(domain.ErrIntegrity, "url", src.URL, "expected", src.Ref, "actual", got)
	}

	if err := os.RemoveAll(filepath.Join(dir, ".git")); err != nil {
		return "", domain.WrapError(err, domain.ErrStoreWriteFailed)
	}
	return g.trees.Import(ctx, store, dir)
}

func (g *Git) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, g.Binary, args...) //nolint:gosec // Arguments come from the project.
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", zerr.With(zerr.Wrap(err, "git "+args[0]+" failed"), "stderr", strings.TrimSpace(stderr.String()))
	}
	return stdout.String(), nil
}
