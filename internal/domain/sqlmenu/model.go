package sqlmenu

import (
	"errors"
	"strings"
)

// Domain errors
var (
	ErrMissingFields = errors.New("menu_name and sql are required")
	ErrDuplicateName = errors.New("menu name already exists")
	ErrNotFound      = errors.New("config not found")
)

// Entry is a saved SQL shortcut shown in a user's menu. The JSON tags match
// the on-disk sqlconfig.json format.
type Entry struct {
	ID        string `json:"id"`
	MenuName  string `json:"menu_name"`
	SQL       string `json:"sql"`
	DBName    string `json:"dbname"`
	CreatedAt string `json:"created_at,omitempty"`
}

// Validate checks if the Entry has valid data.
// PRE: Entry struct is populated
// POST: Returns nil if valid, error otherwise
func (e *Entry) Validate() error {
	if strings.TrimSpace(e.MenuName) == "" || strings.TrimSpace(e.SQL) == "" {
		return ErrMissingFields
	}
	return nil
}

// FindByID returns the index of the entry with the given id, or -1.
func FindByID(entries []Entry, id string) int {
	for i, e := range entries {
		if e.ID == id {
			return i
		}
	}
	return -1
}

// FindByName returns the index of the entry with the given menu name, or -1.
func FindByName(entries []Entry, name string) int {
	for i, e := range entries {
		if e.MenuName == name {
			return i
		}
	}
	return -1
}
