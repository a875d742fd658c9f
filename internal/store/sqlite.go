// ABOUTME: SQLite implementation of the Store interface using modernc.org/sqlite
// ABOUTME: Provides player/team persistence with automatic schema creation

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements the Store interface using SQLite.
type SQLiteStore struct {
	db     *sql.DB
	logger *slog.Logger
}

// NewSQLiteStore creates a new SQLite store at the given path.
// The schema is automatically created if it doesn't exist.
// Parent directories are created if needed.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	logger := slog.Default().With("component", "store")

	if path != ":memory:" {
		dir := filepath.Dir(path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// Enable WAL mode for better concurrent performance
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		logger: logger,
	}

	if err := s.createSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("SQLite store initialized", "path", path)
	return s, nil
}

// createSchema creates the database tables if they don't exist
func (s *SQLiteStore) createSchema() error {
	schema := `
		CREATE TABLE IF NOT EXISTS teams (
			id TEXT PRIMARY KEY,
			name TEXT NOT NULL
		);

		CREATE TABLE IF NOT EXISTS player_data (
			uuid TEXT PRIMARY KEY,
			gamertag TEXT NOT NULL,
			first_join DATETIME NOT NULL,
			last_join DATETIME NOT NULL,
			last_region TEXT NOT NULL DEFAULT '',
			last_location TEXT NOT NULL DEFAULT '',
			team_id TEXT,
			team_chat_enabled INTEGER NOT NULL DEFAULT 0,
			FOREIGN KEY (team_id) REFERENCES teams(id)
		);

		CREATE INDEX IF NOT EXISTS idx_player_data_team_id
			ON player_data(team_id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// IsTeamChatEnabled reports whether the player has team chat turned on.
// Unknown players read as disabled.
func (s *SQLiteStore) IsTeamChatEnabled(ctx context.Context, id uuid.UUID) (bool, error) {
	var enabled int
	err := s.db.QueryRowContext(ctx,
		"SELECT team_chat_enabled FROM player_data WHERE uuid = ?", id.String(),
	).Scan(&enabled)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("querying team_chat_enabled: %w", err)
	}
	return enabled == 1, nil
}

// TeamIDForPlayer returns the player's team ID, or nil if they have none.
func (s *SQLiteStore) TeamIDForPlayer(ctx context.Context, id uuid.UUID) (*string, error) {
	var teamID sql.NullString
	err := s.db.QueryRowContext(ctx,
		"SELECT team_id FROM player_data WHERE uuid = ?", id.String(),
	).Scan(&teamID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying team_id: %w", err)
	}
	if !teamID.Valid {
		return nil, nil
	}
	return &teamID.String, nil
}

// TeamName returns the team's display name, or nil for an unknown team.
func (s *SQLiteStore) TeamName(ctx context.Context, teamID string) (*string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT name FROM teams WHERE id = ?", teamID,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying team name: %w", err)
	}
	return &name, nil
}

// TeamMembers returns the IDs of all players assigned to the team.
func (s *SQLiteStore) TeamMembers(ctx context.Context, teamID string) ([]uuid.UUID, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT uuid FROM player_data WHERE team_id = ?", teamID,
	)
	if err != nil {
		return nil, fmt.Errorf("querying team members: %w", err)
	}
	defer rows.Close()

	var members []uuid.UUID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scanning member: %w", err)
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			s.logger.Warn("skipping malformed player uuid", "uuid", raw)
			continue
		}
		members = append(members, id)
	}
	return members, rows.Err()
}

// RecordConnect upserts the player row on session start, refreshing the
// gamertag and clearing the stored last region and location.
func (s *SQLiteStore) RecordConnect(ctx context.Context, id uuid.UUID, name string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO player_data (uuid, gamertag, first_join, last_join, last_region, last_location)
		VALUES (?, ?, ?, ?, '', '')
		ON CONFLICT(uuid) DO UPDATE SET
			gamertag = excluded.gamertag,
			last_join = excluded.last_join,
			last_region = '',
			last_location = ''`,
		id.String(), name, now, now,
	)
	if err != nil {
		return fmt.Errorf("recording connect: %w", err)
	}
	return nil
}

// RecordDisconnect persists the backend server the player was on when the
// session ended.
func (s *SQLiteStore) RecordDisconnect(ctx context.Context, id uuid.UUID, server string) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE player_data SET last_region = ? WHERE uuid = ?",
		server, id.String(),
	)
	if err != nil {
		return fmt.Errorf("recording disconnect: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("recording disconnect: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// CreateTeam inserts a team row.
func (s *SQLiteStore) CreateTeam(ctx context.Context, team *Team) error {
	_, err := s.db.ExecContext(ctx,
		"INSERT INTO teams (id, name) VALUES (?, ?)",
		team.ID, team.Name,
	)
	if err != nil {
		return fmt.Errorf("creating team: %w", err)
	}
	return nil
}

// AssignTeam sets or clears (nil) the player's team.
func (s *SQLiteStore) AssignTeam(ctx context.Context, id uuid.UUID, teamID *string) error {
	var value sql.NullString
	if teamID != nil {
		value = sql.NullString{String: *teamID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE player_data SET team_id = ? WHERE uuid = ?",
		value, id.String(),
	)
	if err != nil {
		return fmt.Errorf("assigning team: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("assigning team: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// SetTeamChatEnabled toggles the player's team-chat preference.
func (s *SQLiteStore) SetTeamChatEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	value := 0
	if enabled {
		value = 1
	}
	res, err := s.db.ExecContext(ctx,
		"UPDATE player_data SET team_chat_enabled = ? WHERE uuid = ?",
		value, id.String(),
	)
	if err != nil {
		return fmt.Errorf("setting team_chat_enabled: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("setting team_chat_enabled: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPlayer returns a single player record or ErrNotFound.
func (s *SQLiteStore) GetPlayer(ctx context.Context, id uuid.UUID) (*PlayerRecord, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT uuid, gamertag, first_join, last_join, last_region, last_location, team_id, team_chat_enabled
		FROM player_data WHERE uuid = ?`, id.String(),
	)
	rec, err := scanPlayer(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("querying player: %w", err)
	}
	return rec, nil
}

// ListPlayers returns all player records ordered by gamertag.
func (s *SQLiteStore) ListPlayers(ctx context.Context) ([]*PlayerRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT uuid, gamertag, first_join, last_join, last_region, last_location, team_id, team_chat_enabled
		FROM player_data ORDER BY gamertag`)
	if err != nil {
		return nil, fmt.Errorf("listing players: %w", err)
	}
	defer rows.Close()

	var players []*PlayerRecord
	for rows.Next() {
		rec, err := scanPlayer(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning player: %w", err)
		}
		players = append(players, rec)
	}
	return players, rows.Err()
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// scanner covers both *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func scanPlayer(sc scanner) (*PlayerRecord, error) {
	var (
		raw     string
		rec     PlayerRecord
		teamID  sql.NullString
		enabled int
	)
	if err := sc.Scan(&raw, &rec.Name, &rec.FirstJoin, &rec.LastJoin,
		&rec.LastRegion, &rec.LastLocation, &teamID, &enabled); err != nil {
		return nil, err
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("parsing player uuid %q: %w", raw, err)
	}
	rec.ID = id
	if teamID.Valid {
		rec.TeamID = &teamID.String
	}
	rec.TeamChatEnabled = enabled == 1
	return &rec, nil
}
