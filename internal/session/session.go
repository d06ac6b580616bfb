// Package session keeps a client's signed-in user and selected branch.
package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/victorcamacaro253/farmacia-web/internal/model"
	"github.com/victorcamacaro253/farmacia-web/pkg/storage"
)

const (
	userKey   = "session.user"
	branchKey = "session.selectedBranch"
)

// ErrBranchNotFound is returned when selecting a branch that is not in the dataset
var ErrBranchNotFound = errors.New("branch not found")

// Directory resolves users and branches. *catalog.Catalog satisfies it.
type Directory interface {
	UserByCredentials(email, password string) (model.User, bool)
	UserByID(id string) (model.User, bool)
	BranchByID(id string) (model.Branch, bool)
}

// Store is the session of a single client. It is not safe for concurrent use;
// callers serialise access per client.
type Store struct {
	dir     Directory
	user    *storage.Entry[model.SessionUser]
	branch  *storage.Entry[string]
	current *model.SessionUser
}

// New binds a session to a client's key space. onDiscard may be nil.
func New(store storage.Store, dir Directory, onDiscard storage.DiscardFunc) *Store {
	s := &Store{dir: dir}
	s.user = storage.NewEntry(store, userKey, s.validateUser).OnDiscard(onDiscard)
	s.branch = storage.NewEntry(store, branchKey, s.validateBranch).OnDiscard(onDiscard)
	return s
}

func (s *Store) validateUser(u model.SessionUser) error {
	if u.ID == "" {
		return errors.New("missing user id")
	}
	if _, ok := s.dir.UserByID(u.ID); !ok {
		return fmt.Errorf("unknown user %s", u.ID)
	}
	return nil
}

func (s *Store) validateBranch(id string) error {
	if _, ok := s.dir.BranchByID(id); !ok {
		return fmt.Errorf("unknown branch %q", id)
	}
	return nil
}

// Restore loads the persisted user, if any, into memory
func (s *Store) Restore(ctx context.Context) (*model.SessionUser, error) {
	u, found, err := s.user.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to restore session: %w", err)
	}
	if !found {
		s.current = nil
		return nil, nil
	}
	s.current = &u
	return s.Current(), nil
}

// Login signs in when email and password match a dataset user exactly.
// A failed attempt changes nothing.
func (s *Store) Login(ctx context.Context, email, password string) (bool, error) {
	u, ok := s.dir.UserByCredentials(email, password)
	if !ok {
		return false, nil
	}

	sanitized := u.Sanitize()
	if err := s.user.Save(ctx, sanitized); err != nil {
		return false, fmt.Errorf("failed to persist session: %w", err)
	}
	s.current = &sanitized
	return true, nil
}

// Logout clears the user and the selected branch. Logging out twice is fine.
func (s *Store) Logout(ctx context.Context) error {
	s.current = nil
	if err := s.user.Remove(ctx); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	if err := s.branch.Remove(ctx); err != nil {
		return fmt.Errorf("failed to clear selected branch: %w", err)
	}
	return nil
}

// Current returns a copy of the signed-in user, or nil for guests
func (s *Store) Current() *model.SessionUser {
	if s.current == nil {
		return nil
	}
	u := *s.current
	return &u
}

// UserID is the signed-in user's id, empty for guests
func (s *Store) UserID() string {
	if s.current == nil {
		return ""
	}
	return s.current.ID
}

// SelectBranch persists the client's chosen branch
func (s *Store) SelectBranch(ctx context.Context, branchID string) (model.Branch, error) {
	b, ok := s.dir.BranchByID(branchID)
	if !ok {
		return model.Branch{}, fmt.Errorf("%w: %s", ErrBranchNotFound, branchID)
	}
	if err := s.branch.Save(ctx, branchID); err != nil {
		return model.Branch{}, fmt.Errorf("failed to persist branch: %w", err)
	}
	return b, nil
}

// SelectedBranch returns the chosen branch. A stored id that no longer resolves reads as none.
func (s *Store) SelectedBranch(ctx context.Context) (model.Branch, bool, error) {
	id, found, err := s.branch.Load(ctx)
	if err != nil {
		return model.Branch{}, false, fmt.Errorf("failed to load selected branch: %w", err)
	}
	if !found {
		return model.Branch{}, false, nil
	}
	b, ok := s.dir.BranchByID(id)
	return b, ok, nil
}
