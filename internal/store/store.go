package store

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"CarrySentinel/internal/model"
)

// State is the on-disk shape: one record per Telegram chat.
type State struct {
	Users map[string]*model.User `json:"users"`
}

// Store persists per-user carry state to a JSON file. A single mutex
// serializes all access, which is the single-writer guarantee the batch
// job and the interactive handler rely on when they share a process.
type Store struct {
	mu    sync.Mutex
	path  string
	state *State
}

// Open loads the state file, or starts empty when it doesn't exist yet.
func Open(path string) (*Store, error) {
	state := &State{Users: map[string]*model.User{}}
	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read state file: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(data, state); err != nil {
			return nil, fmt.Errorf("parse state file: %w", err)
		}
		if state.Users == nil {
			state.Users = map[string]*model.User{}
		}
	}
	return &Store{path: path, state: state}, nil
}

// UpdateUser runs fn on the user's record under the lock and persists
// the result. The record is created in onboarding state (carry starting
// today) when the user is new.
func (s *Store) UpdateUser(chatID, startDate string, fn func(u *model.User)) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.state.Users[chatID]
	if !ok {
		u = model.NewUser(startDate)
		s.state.Users[chatID] = u
	}
	fn(u)
	return s.save()
}

// Snapshot returns a value copy of every user keyed by chat ID, for the
// batch job to iterate without holding the lock across network I/O.
func (s *Store) Snapshot() map[string]model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]model.User, len(s.state.Users))
	for id, u := range s.state.Users {
		cp := *u
		cp.Contributions = append([]model.Contribution(nil), u.Contributions...)
		out[id] = cp
	}
	return out
}

// MarkSent records that the user was notified on the given date.
func (s *Store) MarkSent(chatID, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u, ok := s.state.Users[chatID]
	if !ok {
		return fmt.Errorf("unknown user %s", chatID)
	}
	u.LastSent = date
	return s.save()
}

// Count returns the number of registered users.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.state.Users)
}

// save writes the state atomically: temp file in the same directory,
// then rename over the target. Caller must hold the lock.
func (s *Store) save() error {
	data, err := json.MarshalIndent(s.state, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace state file: %w", err)
	}
	return nil
}
