// Package menurepo versions each event's menu as a tiny git repository, one
// per event, with menu.json on a single main branch. Every regeneration or
// manual edit becomes a commit, so hosts can walk back to an earlier menu.
package menurepo

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"convivio/api/internal/store"
)

// Course is one line of the menu: what is served and what is poured with it.
type Course struct {
	Name  string `json:"name"`
	Dish  string `json:"dish"`
	Wine  string `json:"wine,omitempty"`
	Notes string `json:"notes,omitempty"`
}

// Menu is the content committed to menu.json.
type Menu struct {
	Title   string   `json:"title"`
	Courses []Course `json:"courses"`
	Notes   string   `json:"notes,omitempty"`
}

type Service struct {
	baseDir string
	lockMu  sync.Mutex
	locks   map[string]*sync.Mutex
}

func New(baseDir string) *Service {
	return &Service{
		baseDir: baseDir,
		locks:   make(map[string]*sync.Mutex),
	}
}

// EnsureEventRepo initialises the event's menu repository with a baseline
// commit. Calling it for an existing repo is a no-op.
func (s *Service) EnsureEventRepo(eventID string, initial Menu, author string) error {
	lock := s.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	path := s.repoPath(eventID)
	if _, err := os.Stat(path); err == nil {
		return nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("stat repo path: %w", err)
	}

	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create repo dir: %w", err)
	}

	repo, err := git.PlainInit(path, false)
	if err != nil {
		return fmt.Errorf("init repo: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("open worktree: %w", err)
	}
	payload, err := json.MarshalIndent(initial, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal initial menu: %w", err)
	}
	if err := os.WriteFile(filepath.Join(path, "menu.json"), append(payload, '\n'), 0o644); err != nil {
		return fmt.Errorf("write initial menu: %w", err)
	}
	if _, err := worktree.Add("menu.json"); err != nil {
		return fmt.Errorf("git add initial menu: %w", err)
	}
	hash, err := worktree.Commit("Create menu", &git.CommitOptions{
		Author: signature(author),
	})
	if err != nil {
		return fmt.Errorf("commit initial menu: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewHashReference(plumbing.NewBranchReferenceName("main"), hash)); err != nil {
		return fmt.Errorf("set main branch ref: %w", err)
	}
	if err := repo.Storer.SetReference(plumbing.NewSymbolicReference(plumbing.HEAD, plumbing.NewBranchReferenceName("main"))); err != nil {
		return fmt.Errorf("set HEAD to main: %w", err)
	}
	return nil
}

// Commit records a new menu revision and returns its commit info.
func (s *Service) Commit(eventID string, menu Menu, author, message string) (store.MenuCommitInfo, error) {
	lock := s.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(eventID))
	if err != nil {
		return store.MenuCommitInfo{}, fmt.Errorf("open repo: %w", err)
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return store.MenuCommitInfo{}, fmt.Errorf("open worktree: %w", err)
	}

	payload, err := json.MarshalIndent(menu, "", "  ")
	if err != nil {
		return store.MenuCommitInfo{}, fmt.Errorf("marshal menu: %w", err)
	}
	repoRoot := worktree.Filesystem.Root()
	if err := os.WriteFile(filepath.Join(repoRoot, "menu.json"), append(payload, '\n'), 0o644); err != nil {
		return store.MenuCommitInfo{}, fmt.Errorf("write menu.json: %w", err)
	}
	if _, err := worktree.Add("menu.json"); err != nil {
		return store.MenuCommitInfo{}, fmt.Errorf("git add menu: %w", err)
	}

	hash, err := worktree.Commit(message, &git.CommitOptions{
		Author: signature(author),
	})
	if err != nil {
		return store.MenuCommitInfo{}, fmt.Errorf("commit menu: %w", err)
	}

	commitObj, err := repo.CommitObject(hash)
	if err != nil {
		return store.MenuCommitInfo{}, fmt.Errorf("read commit object: %w", err)
	}
	return toCommitInfo(commitObj), nil
}

// Head returns the current menu and the commit it came from.
func (s *Service) Head(eventID string) (Menu, store.MenuCommitInfo, error) {
	lock := s.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(eventID))
	if err != nil {
		return Menu{}, store.MenuCommitInfo{}, fmt.Errorf("open repo: %w", err)
	}

	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if err != nil {
		return Menu{}, store.MenuCommitInfo{}, fmt.Errorf("resolve main: %w", err)
	}
	commitObj, err := repo.CommitObject(ref.Hash())
	if err != nil {
		return Menu{}, store.MenuCommitInfo{}, fmt.Errorf("load commit object: %w", err)
	}
	menu, err := readMenuFromCommit(commitObj)
	if err != nil {
		return Menu{}, store.MenuCommitInfo{}, err
	}
	return menu, toCommitInfo(commitObj), nil
}

// GetByHash returns the menu as of a specific revision. Abbreviated hashes
// resolve like they do on the command line.
func (s *Service) GetByHash(eventID, hash string) (Menu, error) {
	lock := s.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(eventID))
	if err != nil {
		return Menu{}, fmt.Errorf("open repo: %w", err)
	}
	resolvedHash, err := resolveHash(repo, hash)
	if err != nil {
		return Menu{}, err
	}
	commitObj, err := repo.CommitObject(resolvedHash)
	if err != nil {
		return Menu{}, fmt.Errorf("read commit %s: %w", hash, err)
	}
	return readMenuFromCommit(commitObj)
}

// History lists revisions newest first, up to limit when positive.
func (s *Service) History(eventID string, limit int) ([]store.MenuCommitInfo, error) {
	lock := s.eventLock(eventID)
	lock.Lock()
	defer lock.Unlock()

	repo, err := git.PlainOpen(s.repoPath(eventID))
	if err != nil {
		return nil, fmt.Errorf("open repo: %w", err)
	}
	ref, err := repo.Reference(plumbing.NewBranchReferenceName("main"), true)
	if err != nil {
		return nil, fmt.Errorf("resolve main: %w", err)
	}
	iter, err := repo.Log(&git.LogOptions{From: ref.Hash()})
	if err != nil {
		return nil, fmt.Errorf("read log: %w", err)
	}
	defer iter.Close()

	items := make([]store.MenuCommitInfo, 0, limit)
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

// HasChanges reports whether two menus differ in any committed field.
func HasChanges(from, to Menu) bool {
	if from.Title != to.Title || from.Notes != to.Notes {
		return true
	}
	if len(from.Courses) != len(to.Courses) {
		return true
	}
	for i := range from.Courses {
		if from.Courses[i] != to.Courses[i] {
			return true
		}
	}
	return false
}

func (s *Service) repoPath(eventID string) string {
	return filepath.Join(s.baseDir, eventID)
}

func (s *Service) eventLock(eventID string) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	lock, ok := s.locks[eventID]
	if ok {
		return lock
	}
	lock = &sync.Mutex{}
	s.locks[eventID] = lock
	return lock
}

func signature(author string) *object.Signature {
	return &object.Signature{
		Name:  author,
		Email: fmt.Sprintf("%s@local.convivio.dev", sanitizeEmail(author)),
		When:  time.Now(),
	}
}

func readMenuFromCommit(commitObj *object.Commit) (Menu, error) {
	file, err := commitObj.File("menu.json")
	if err != nil {
		return Menu{}, fmt.Errorf("load menu.json from commit: %w", err)
	}
	reader, err := file.Reader()
	if err != nil {
		return Menu{}, fmt.Errorf("open menu reader: %w", err)
	}
	defer reader.Close()

	raw, err := io.ReadAll(reader)
	if err != nil {
		return Menu{}, fmt.Errorf("read menu bytes: %w", err)
	}

	var menu Menu
	if err := json.Unmarshal(raw, &menu); err != nil {
		return Menu{}, fmt.Errorf("decode commit menu: %w", err)
	}
	return menu, nil
}

func toCommitInfo(commitObj *object.Commit) store.MenuCommitInfo {
	return store.MenuCommitInfo{
		Hash:      commitObj.Hash.String()[:7],
		Message:   commitObj.Message,
		Author:    commitObj.Author.Name,
		CreatedAt: commitObj.Author.When,
	}
}

func sanitizeEmail(input string) string {
	out := make([]rune, 0, len(input))
	for _, r := range input {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') {
			out = append(out, r)
			continue
		}
		if r == ' ' || r == '-' || r == '_' {
			out = append(out, '.')
		}
	}
	if len(out) == 0 {
		return "host"
	}
	return string(out)
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
