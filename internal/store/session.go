package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxRecentSearches bounds the recent search term list.
const MaxRecentSearches = 5

// SetLoggedIn records that the passphrase gate has been passed.
func (s *Store) SetLoggedIn() error {
	return s.Set(KeySession, []byte("true"))
}

// IsLoggedIn reports whether the passphrase gate has been passed.
func (s *Store) IsLoggedIn() (bool, error) {
	raw, err := s.Get(KeySession)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return string(raw) == "true", nil
}

// Logout clears the session flag.
func (s *Store) Logout() error {
	return s.Delete(KeySession)
}

// RecentSearches returns the recent free-text search terms, most recent
// first. A corrupt entry is treated as empty.
func (s *Store) RecentSearches() ([]string, error) {
	raw, err := s.Get(KeyRecentSearches)
	if err == sql.ErrNoRows {
		return []string{}, nil
	}
	if err != nil {
		return nil, err
	}

	var terms []string
	if err := json.Unmarshal(raw, &terms); err != nil {
		return []string{}, nil
	}
	return terms, nil
}

// AddRecentSearch records a search term: de-duplicated, most-recent-first,
// bounded to MaxRecentSearches. Blank terms are ignored.
func (s *Store) AddRecentSearch(term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil
	}

	existing, err := s.RecentSearches()
	if err != nil {
		return err
	}

	terms := []string{term}
	for _, t := range existing {
		if strings.EqualFold(t, term) {
			continue
		}
		terms = append(terms, t)
		if len(terms) == MaxRecentSearches {
			break
		}
	}

	data, err := json.Marshal(terms)
	if err != nil {
		return fmt.Errorf("marshal recent searches: %w", err)
	}
	return s.Set(KeyRecentSearches, data)
}
