/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Package topics persists the list of liar game topics.
package topics

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/Seednode/liarbox/games/liar"
)

// Store holds an ordered list of topics. Topics are only ever appended.
type Store interface {
	// List returns every stored topic in insertion order. A store that has never
	// been written to returns an empty list.
	List(ctx context.Context) ([]liar.Topic, error)
	// Append validates and stores a new topic. Blank fields are rejected with
	// liar.ErrEmptyField and leave the store unchanged.
	Append(ctx context.Context, question, numberRange string) error
	Close() error
}

// Open picks a backend from the file extension: SQLite for .db, .sqlite and
// .sqlite3, a JSON file for anything else.
func Open(path string) (Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("topic store path is required")
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return OpenSQLite(path)
	default:
		return NewFileStore(path), nil
	}
}
