package driver

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"

	git "github.com/go-git/go-git/v5"
)

// SourceExtension marks borrowlisp source files.
const SourceExtension = ".blisp"

// ChangedSources lists the borrowlisp sources in the git work tree enclosing dir that are
// modified, staged or untracked. Deleted files are skipped. Paths are absolute and sorted.
func ChangedSources(dir string) ([]string, error) {
	repo, err := git.PlainOpenWithOptions(dir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s is not inside a git repository: %w", dir, err)
		}
		return nil, fmt.Errorf("open repository at %s: %w", dir, err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("open worktree: %w", err)
	}
	status, err := worktree.Status()
	if err != nil {
		return nil, fmt.Errorf("worktree status: %w", err)
	}

	root := worktree.Filesystem.Root()
	var changed []string
	for path, entry := range status {
		if entry == nil || filepath.Ext(path) != SourceExtension {
			continue
		}
		if entry.Worktree == git.Deleted || entry.Staging == git.Deleted {
			continue
		}
		if entry.Worktree == git.Unmodified && entry.Staging == git.Unmodified {
			continue
		}
		changed = append(changed, filepath.Join(root, filepath.FromSlash(path)))
	}
	sort.Strings(changed)
	return changed, nil
}
