// Package sqlite provides a SQLite-backed injury history store.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/okian/matchsim/internal/domain/model"
)

//go:embed schema.sql
var schema string

// loadChunk bounds the number of bound parameters per query.
const loadChunk = 500

// ErrPathRequired is returned by Open for an empty path.
var ErrPathRequired = errors.New("storage path is required")

// Store persists injury history in SQLite.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens a SQLite injury store and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrPathRequired
	}
	dsn := filepath.Clean(path) + "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"
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
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

// Close closes the SQLite handle.
func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Record stores injuries in one transaction, first deleting any earlier
// records of the matches they belong to.
func (s *Store) Record(ctx context.Context, records []model.InjuryRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(records) == 0 {
		return nil
	}

	tx, err := s.sqlDB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin injury tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	matches := make(map[string]struct{})
	for _, r := range records {
		if _, ok := matches[r.MatchID]; ok {
			continue
		}
		matches[r.MatchID] = struct{}{}
		if _, err := tx.ExecContext(ctx, `DELETE FROM injuries WHERE match_id = ?`, r.MatchID); err != nil {
			return fmt.Errorf("replace injuries of match %s: %w", r.MatchID, err)
		}
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO injuries (
		   player_id, team_id, match_id, round, kind, severity, body_part,
		   multiplier, injured_out, quarter, second, recorded_at
		 ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare injury insert: %w", err)
	}
	defer stmt.Close()

	recordedAt := s.now().UTC().UnixMilli()
	for _, r := range records {
		if _, err := stmt.ExecContext(ctx,
			int64(r.PlayerID),
			int64(r.TeamID),
			r.MatchID,
			r.Round,
			r.Kind,
			r.Severity.String(),
			r.BodyPart.String(),
			r.Multiplier,
			r.InjuredOut,
			r.Quarter,
			r.Second,
			recordedAt,
		); err != nil {
			return fmt.Errorf("insert injury for player %d: %w", r.PlayerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit injury tx: %w", err)
	}
	return nil
}

// Load returns every recorded injury for the given players, oldest first.
func (s *Store) Load(ctx context.Context, playerIDs []model.PlayerID) (model.InjuryHistory, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	out := make(model.InjuryHistory)
	for start := 0; start < len(playerIDs); start += loadChunk {
		end := min(start+loadChunk, len(playerIDs))
		if err := s.loadChunk(ctx, playerIDs[start:end], out); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (s *Store) loadChunk(ctx context.Context, ids []model.PlayerID, out model.InjuryHistory) error {
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = int64(id)
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(ids)), ",")

	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT player_id, team_id, match_id, round, kind, severity, body_part,
		        multiplier, injured_out, quarter, second
		   FROM injuries
		  WHERE player_id IN (`+placeholders+`)
		  ORDER BY player_id, id`, args...)
	if err != nil {
		return fmt.Errorf("query injuries: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r                  model.InjuryRecord
			playerID, teamID   int64
			severity, bodyPart string
		)
		if err := rows.Scan(&playerID, &teamID, &r.MatchID, &r.Round, &r.Kind, &severity, &bodyPart,
			&r.Multiplier, &r.InjuredOut, &r.Quarter, &r.Second); err != nil {
			return fmt.Errorf("scan injury: %w", err)
		}
		r.PlayerID = model.PlayerID(playerID)
		r.TeamID = model.TeamID(teamID)
		if err := r.Severity.UnmarshalText([]byte(severity)); err != nil {
			return fmt.Errorf("player %d: %w", playerID, err)
		}
		if err := r.BodyPart.UnmarshalText([]byte(bodyPart)); err != nil {
			return fmt.Errorf("player %d: %w", playerID, err)
		}
		out.Add(r)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate injuries: %w", err)
	}
	return nil
}
