// Package vcs reads and writes release tags through the git CLI.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kingrea/invoker/internal/release"
	"github.com/kingrea/invoker/internal/shell"
)

// Git wraps the git executable for one working tree.
type Git struct {
	exec shell.Executor
	path string
	dir  string
}

// New returns a Git bound to the repository at dir, invoking the binary at
// path.
func New(exec shell.Executor, path, dir string) *Git {
	if path == "" {
		path = "git"
	}
	return &Git{exec: exec, path: path, dir: dir}
}

func (g *Git) run(ctx context.Context, args ...string) (shell.Result, error) {
	return g.exec.Run(ctx, shell.Command{Name: g.path, Args: args, Dir: g.dir})
}

// CurrentTag returns the release tag on HEAD, or "" if HEAD is untagged. When
// several tags point at HEAD the highest semver one wins.
func (g *Git) CurrentTag(ctx context.Context) (string, error) {
	res, err := g.run(ctx, "tag", "--points-at", "HEAD")
	if err != nil {
		return "", fmt.Errorf("vcs: list tags at HEAD: %w", err)
	}
	tags := strings.Fields(res.Stdout)
	if len(tags) == 0 {
		return "", nil
	}
	if best := release.Highest(tags); best != "" {
		return best, nil
	}
	return tags[0], nil
}

// LatestTag returns the most recent tag reachable from HEAD, or "" when the
// history has no tags at all.
func (g *Git) LatestTag(ctx context.Context) (string, error) {
	res, err := g.run(ctx, "describe", "--tags", "--abbrev=0")
	if err != nil {
		var cmdErr *shell.ExternalCommandError
		if errors.As(err, &cmdErr) && noTags(cmdErr.Result.Combined) {
			return "", nil
		}
		return "", fmt.Errorf("vcs: describe latest tag: %w", err)
	}
	return strings.TrimSpace(res.Stdout), nil
}

func noTags(output string) bool {
	lower := strings.ToLower(output)
	return strings.Contains(lower, "no names found") ||
		strings.Contains(lower, "no tags can describe")
}

// CreateTag records an annotated tag at HEAD. Annotated tags are what
// `git push --follow-tags` carries along.
func (g *Git) CreateTag(ctx context.Context, version string) error {
	if _, err := g.run(ctx, "tag", "-a", version, "-m", "Release "+version); err != nil {
		return fmt.Errorf("vcs: create tag %s: %w", version, err)
	}
	return nil
}

// PushWithTags pushes the current branch together with annotated tags that
// point at the pushed commits.
func (g *Git) PushWithTags(ctx context.Context) error {
	if _, err := g.run(ctx, "push", "--follow-tags"); err != nil {
		return fmt.Errorf("vcs: push with tags: %w", err)
	}
	return nil
}
