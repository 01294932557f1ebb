package topics

import (
	"context"
	"database/sql"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/Seednode/liarbox/games/liar"
	"go.uber.org/zap"
	_ "modernc.org/sqlite"
)

const schema = `
CREATE TABLE IF NOT EXISTS topics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    question TEXT NOT NULL,
    number_range TEXT NOT NULL,
    created_at INTEGER NOT NULL
);
`

// SQLiteStore keeps topics in a SQLite table, listed in insertion order.
type SQLiteStore struct {
	sqlDB *sql.DB
}

// OpenSQLite opens the database at path, creating the topics table if needed.
func OpenSQLite(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("storage path is required")
	}

	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_busy_timeout=5000&_synchronous=NORMAL"
	sqlDB, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("create topics table: %w", err)
	}

	return &SQLiteStore{sqlDB: sqlDB}, nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

func (s *SQLiteStore) List(ctx context.Context) ([]liar.Topic, error) {
	if s == nil || s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}

	rows, err := s.sqlDB.QueryContext(ctx, `SELECT question, number_range FROM topics ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("list topics: %w", err)
	}
	defer rows.Close()

	topics := []liar.Topic{}
	for rows.Next() {
		var t liar.Topic
		if err := rows.Scan(&t.Question, &t.NumberRange); err != nil {
			return nil, fmt.Errorf("scan topic: %w", err)
		}
		topics = append(topics, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate topics: %w", err)
	}

	return topics, nil
}

func (s *SQLiteStore) Append(ctx context.Context, question, numberRange string) error {
	if s == nil || s.sqlDB == nil {
		return fmt.Errorf("storage is not configured")
	}

	topic, err := liar.NewTopic(question, numberRange)
	if err != nil {
		return err
	}

	res, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO topics (question, number_range, created_at) VALUES (?, ?, ?)`,
		topic.Question,
		topic.NumberRange,
		time.Now().UTC().UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert topic: %w", err)
	}

	id, _ := res.LastInsertId()
	zap.L().Debug("stored topic", zap.Int64("id", id))

	return nil
}
