// Package archive keeps an audit trail of proposal changes as commits
// in a local git repository. Each proposal is one JSON file; every
// mutation that goes through the archive becomes a commit touching
// that file, so per-proposal history is a filtered git log.
package archive

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"bidtrack/api/internal/store"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// CommitInfo is one entry of a proposal's audit history.
type CommitInfo struct {
	Hash      string    `json:"hash"`
	Message   string    `json:"message"`
	Author    string    `json:"author"`
	CreatedAt time.Time `json:"createdAt"`
}

type Service struct {
	baseDir string
	mu      sync.Mutex
}

// New opens (or initializes) the audit repository under baseDir.
func New(baseDir string) (*Service, error) {
	s := &Service{baseDir: baseDir}
	if err := s.ensureRepo(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) ensureRepo() error {
	if _, err := os.Stat(filepath.Join(s.baseDir, ".git")); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat archive path: %w", err)
	}

	if err := os.MkdirAll(s.baseDir, 0o755); err != nil {
		return fmt.Errorf("create archive dir: %w", err)
	}

	repo, err := git.PlainInit(s.baseDir, false)
	if err != nil {
		return fmt.Errorf("init archive repo: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	readme := []byte("Audit trail of proposal snapshots. One JSON file per proposal.\n")
	if err := os.WriteFile(filepath.Join(s.baseDir, "README"), readme, 0o644); err != nil {
		return fmt.Errorf("write baseline: %w", err)
	}
	if _, err := worktree.Add("README"); err != nil {
		return fmt.Errorf("git add baseline: %w", err)
	}
	hash, err := worktree.Commit("Initialize audit archive", &git.CommitOptions{
		Author: signature(),
	})
	if err != nil {
		return fmt.Errorf("commit baseline: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), hash)); err != nil {
		return fmt.Errorf("set main branch ref: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))); err != nil {
		return fmt.Errorf("set HEAD to main: %w", err)
	}
	return nil
}

// Record commits the current state of a proposal with the given message.
func (s *Service) Record(p store.Proposal, message string) (CommitInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.baseDir)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open archive repo: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open worktree: %w", err)
	}

	payload, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return CommitInfo{}, fmt.Errorf("marshal proposal snapshot: %w", err)
	}
	rel := proposalFile(p.ID)
	abs := filepath.Join(s.baseDir, rel)
	if err := os.MkdirAll(filepath.Dir(abs), 0o755); err != nil {
		return CommitInfo{}, fmt.Errorf("create snapshot dir: %w", err)
	}
	if err := os.WriteFile(abs, append(payload, '\n'), 0o644); err != nil {
		return CommitInfo{}, fmt.Errorf("write snapshot: %w", err)
	}
	if _, err := worktree.Add(rel); err != nil {
		return CommitInfo{}, fmt.Errorf("git add snapshot: %w", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		AllowEmptyCommits: true,
		Author:            signature(),
	})
	if err != nil {
		return CommitInfo{}, fmt.Errorf("commit snapshot: %w", err)
	}
	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("read commit object: %w", err)
	}
	return toCommitInfo(commitObj), nil
}

// RecordDeletion removes the proposal's snapshot file and commits the removal.
func (s *Service) RecordDeletion(proposalID, message string) (CommitInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.baseDir)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open archive repo: %w", err)
	}
	worktree, err := repo.Worktree()
	if err != nil {
		return CommitInfo{}, fmt.Errorf("open worktree: %w", err)
	}

	rel := proposalFile(proposalID)
	if _, err := worktree.Remove(rel); err != nil {
		return CommitInfo{}, fmt.Errorf("git rm snapshot: %w", err)
	}
	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: signature(),
	})
	if err != nil {
		return CommitInfo{}, fmt.Errorf("commit removal: %w", err)
	}
	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return CommitInfo{}, fmt.Errorf("read commit object: %w", err)
	}
	return toCommitInfo(commitObj), nil
}

// History returns the commits that touched a proposal's snapshot,
// newest first. A limit of zero or less means the whole trail.
func (s *Service) History(proposalID string, limit int) ([]CommitInfo, error) {
	if limit < 0 {
		limit = 0
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.baseDir)
	if err != nil {
		return nil, fmt.Errorf("open archive repo: %w", err)
	}

	rel := proposalFile(proposalID)
	iter, err := repo.Log(&git.LogOptions{FileName: &rel})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]CommitInfo, 0, limit)
	count := 0
	err = iter.ForEach(func(commitObj *object.Commit) error {
		items = append(items, toCommitInfo(commitObj))
		count++
		if limit > 0 && count >= limit {
			return io.EOF
		}
		return nil
	})
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("iterate log: %w", err)
	}
	return items, nil
}

// Snapshot reads the proposal state recorded in a particular commit.
func (s *Service) Snapshot(proposalID, hash string) (store.Proposal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	repo, err := git.PlainOpen(s.baseDir)
	if err != nil {
		return store.Proposal{}, fmt.Errorf("open archive repo: %w", err)
	}
	resolved, err := resolveHash(repo, hash)
	if err != nil {
		return store.Proposal{}, err
	}
	commitObj, err := repo.CommitObject(resolved)
	if err != nil {
		return store.Proposal{}, fmt.Errorf("read commit %s: %w", hash, err)
	}

	file, err := commitObj.File(proposalFile(proposalID))
	if err != nil {
		return store.Proposal{}, fmt.Errorf("load snapshot from commit: %w", err)
	}
	reader, err := file.Reader()
	if err != nil {
		return store.Proposal{}, fmt.Errorf("open snapshot reader: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return store.Proposal{}, fmt.Errorf("read snapshot bytes: %w", err)
	}
	var p store.Proposal
	if err := json.Unmarshal(raw, &p); err != nil {
		return store.Proposal{}, fmt.Errorf("decode snapshot: %w", err)
	}
	return p, nil
}

// proposalFile is the in-repo path of a proposal's snapshot. Git paths
// use forward slashes on every platform.
func proposalFile(proposalID string) string {
	return "proposals/" + proposalID + ".json"
}

func signature() *object.Signature {
	return &object.Signature{
		Name:  "Bidtrack",
		Email: "bidtrack@localhost",
		When:  time.Now(),
	}
}

func toCommitInfo(commitObj *object.Commit) CommitInfo {
	return CommitInfo{
		Hash:      commitObj.Hash.String()[:7],
		Message:   commitObj.Message,
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
}

func resolveHash(repo *git.Repository, hash string) (plumbing.Hash, error) {
	if len(hash) == 40 {
		return plumbing.NewHash(hash), nil
	}
	resolved, err := repo.ResolveRevision(plumbing.Revision(hash))
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("resolve hash %s: %w", hash, err)
	}
	return *resolved, nil
}
