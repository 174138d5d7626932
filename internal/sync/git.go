package sync

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// GitDestination commits each snapshot to a file in a local clone and
// pushes the branch.
type GitDestination struct {
	repo   string
	file   string // relative to repo
	branch string
}

// NewGitDestination returns a destination for an existing clone at repo.
func NewGitDestination(repo, file, branch string) *GitDestination {
	return &GitDestination{repo: repo, file: file, branch: branch}
}

func (d *GitDestination) Name() string {
	return fmt.Sprintf("git:%s@%s", filepath.Join(d.repo, d.file), d.branch)
}

// commitMessage summarizes a snapshot in one line.
func commitMessage(snap *Snapshot) string {
	return fmt.Sprintf("configstore: export %d records (%s)", snap.Records, snap.ShortDigest())
}

// Write replaces the file with the snapshot, commits and pushes. A snapshot
// identical to the committed file produces no commit.
func (d *GitDestination) Write(ctx context.Context, snap *Snapshot) error {
	if _, err := d.git(ctx, "checkout", d.branch); err != nil {
		return err
	}
	// Fails harmlessly when the remote has no such branch yet.
	_, _ = d.git(ctx, "pull", "--ff-only", "origin", d.branch)

	target := filepath.Join(d.repo, d.file)
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create export dir: %w", err)
	}
	if err := os.WriteFile(target, snap.Data, 0o644); err != nil {
		return fmt.Errorf("write export: %w", err)
	}

	if _, err := d.git(ctx, "add", "--", d.file); err != nil {
		return err
	}
	staged, err := d.git(ctx, "status", "--porcelain", "--", d.file)
	if err != nil {
		return err
	}
	if staged == "" {
		return nil
	}
	if _, err := d.git(ctx, "commit", "-m", commitMessage(snap)); err != nil {
		return err
	}
	_, err = d.git(ctx, "push", "origin", d.branch)
	return err
}

// git runs a subcommand in the clone and returns its trimmed output. On
// failure the output is folded into the error.
func (d *GitDestination) git(ctx context.Context, args ...string) (string, error) {
	var out bytes.Buffer
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = d.repo
	cmd.Stdout = &out
	cmd.Stderr = &out
	err := cmd.Run()
	text := strings.TrimSpace(out.String())
	if err != nil {
		return "", fmt.Errorf("git %s: %w: %s", args[0], err, text)
	}
	return text, nil
}
