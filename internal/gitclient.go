package internal

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/cache"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/storage/filesystem"
)

const (
	DefaultBranch = "main"
	DefaultAuthor = "memsync"
	DefaultEmail  = "memsync@local"
)

// VersionControlClient is the narrow surface the sync cycle needs from a
// version-control system: materialize a working copy, converge it with
// the remote, and publish changes. Everything behind it is opaque; the
// orchestrator only looks at errors and the HasChanges answer.
type VersionControlClient interface {
	Open(ctx context.Context, dir string) error
	Clone(ctx context.Context, url, dir string) error
	FastForward(ctx context.Context, dir string) error
	Stage(ctx context.Context, dir string, paths ...string) error
	Commit(ctx context.Context, dir, message string) (string, error)
	Push(ctx context.Context, dir string) error
	HasChanges(ctx context.Context, dir string) (bool, error)
}

// GitClient implements VersionControlClient on go-git.
type GitClient struct {
	author AuthorConfig
}

func NewGitClient(author AuthorConfig) *GitClient {
	if author.Name == "" {
		author.Name = DefaultAuthor
	}
	if author.Email == "" {
		author.Email = DefaultEmail
	}
	return &GitClient{author: author}
}

// Open verifies the working copy at dir is a usable repository. The
// orchestrator calls it as a precondition before mutating anything.
func (c *GitClient) Open(ctx context.Context, dir string) error {
	_, err := c.open(dir)
	return err
}

func (c *GitClient) Clone(ctx context.Context, url, dir string) error {
	_, err := git.PlainCloneContext(ctx, dir, false, &git.CloneOptions{
		URL: url,
	})
	if err != nil {
		return fmt.Errorf("clone %s: %w", url, err)
	}
	return nil
}

// FastForward pulls the remote into the working copy. Already up to date
// is success; anything requiring a merge is surfaced to the caller, which
// treats it as non-fatal and continues with the local state.
func (c *GitClient) FastForward(ctx context.Context, dir string) error {
	worktree, err := c.worktree(dir)
	if err != nil {
		return err
	}

	err = worktree.PullContext(ctx, &git.PullOptions{RemoteName: "origin"})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("fast-forward: %w", err)
	}
	return nil
}

func (c *GitClient) Stage(ctx context.Context, dir string, paths ...string) error {
	worktree, err := c.worktree(dir)
	if err != nil {
		return err
	}

	for _, path := range paths {
		if _, err := worktree.Add(path); err != nil {
			return fmt.Errorf("stage %s: %w", path, err)
		}
	}
	return nil
}

func (c *GitClient) Commit(ctx context.Context, dir, message string) (string, error) {
	worktree, err := c.worktree(dir)
	if err != nil {
		return "", err
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  c.author.Name,
			Email: c.author.Email,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("commit: %w", err)
	}
	return hash.String(), nil
}

func (c *GitClient) Push(ctx context.Context, dir string) error {
	repo, err := c.open(dir)
	if err != nil {
		return err
	}

	err = repo.PushContext(ctx, &git.PushOptions{})
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("push: %w", err)
	}
	return nil
}

// HasChanges reports whether the working tree differs from HEAD.
func (c *GitClient) HasChanges(ctx context.Context, dir string) (bool, error) {
	worktree, err := c.worktree(dir)
	if err != nil {
		return false, err
	}

	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("get status: %w", err)
	}
	return !status.IsClean(), nil
}

func (c *GitClient) open(dir string) (*git.Repository, error) {
	fs := osfs.New(filepath.Join(dir, git.GitDirName))
	storage := filesystem.NewStorage(fs, cache.NewObjectLRUDefault())
	wt := osfs.New(dir)

	repo, err := git.Open(storage, wt)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}
	return repo, nil
}

func (c *GitClient) worktree(dir string) (*git.Worktree, error) {
	repo, err := c.open(dir)
	if err != nil {
		return nil, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("get worktree: %w", err)
	}
	return worktree, nil
}
