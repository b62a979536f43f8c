package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/playmatatu/paperball/internal/models"
)

// PostgresStore is the sqlx-backed Store.
type PostgresStore struct {
	db *sqlx.DB
}

func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

const upsertProfileSQL = `
INSERT INTO profiles (
	player_id, high_score, best_streak, total_shots, total_scores, perfects, attempts,
	control_scheme, ball_size_mult, cup_size_mult, cup_draggable, sound_enabled, haptic_enabled,
	cup_x, cup_y, seen_splash, updated_at
) VALUES (
	:player_id, :high_score, :best_streak, :total_shots, :total_scores, :perfects, :attempts,
	:control_scheme, :ball_size_mult, :cup_size_mult, :cup_draggable, :sound_enabled, :haptic_enabled,
	:cup_x, :cup_y, :seen_splash, :updated_at
)
ON CONFLICT (player_id) DO UPDATE SET
	high_score = EXCLUDED.high_score,
	best_streak = EXCLUDED.best_streak,
	total_shots = EXCLUDED.total_shots,
	total_scores = EXCLUDED.total_scores,
	perfects = EXCLUDED.perfects,
	attempts = EXCLUDED.attempts,
	control_scheme = EXCLUDED.control_scheme,
	ball_size_mult = EXCLUDED.ball_size_mult,
	cup_size_mult = EXCLUDED.cup_size_mult,
	cup_draggable = EXCLUDED.cup_draggable,
	sound_enabled = EXCLUDED.sound_enabled,
	haptic_enabled = EXCLUDED.haptic_enabled,
	cup_x = EXCLUDED.cup_x,
	cup_y = EXCLUDED.cup_y,
	seen_splash = EXCLUDED.seen_splash,
	updated_at = EXCLUDED.updated_at`

func (s *PostgresStore) CreatePlayer(ctx context.Context, player *models.Player, profile *models.Profile) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowxContext(ctx,
		`INSERT INTO players (display_name, pin_hash, created_at, last_active) VALUES ($1, $2, NOW(), NOW()) RETURNING id, created_at`,
		player.DisplayName, player.PinHash,
	).Scan(&player.ID, &player.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert player: %w", err)
	}

	profile.PlayerID = player.ID
	profile.UpdatedAt = time.Now()
	if _, err := tx.NamedExecContext(ctx, upsertProfileSQL, profile); err != nil {
		return fmt.Errorf("insert profile: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit player: %w", err)
	}
	return nil
}

func (s *PostgresStore) GetPlayer(ctx context.Context, id int) (*models.Player, error) {
	var p models.Player
	err := s.db.GetContext(ctx, &p, `SELECT id, display_name, pin_hash, created_at, last_active FROM players WHERE id=$1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get player %d: %w", id, err)
	}
	return &p, nil
}

func (s *PostgresStore) LoadProfile(ctx context.Context, playerID int) (*models.Profile, error) {
	var p models.Profile
	err := s.db.GetContext(ctx, &p, `SELECT * FROM profiles WHERE player_id=$1`, playerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load profile %d: %w", playerID, err)
	}
	return &p, nil
}

func (s *PostgresStore) SaveProfile(ctx context.Context, profile *models.Profile) error {
	profile.UpdatedAt = time.Now()
	if _, err := s.db.NamedExecContext(ctx, upsertProfileSQL, profile); err != nil {
		return fmt.Errorf("save profile %d: %w", profile.PlayerID, err)
	}
	if _, err := s.db.ExecContext(ctx, `UPDATE players SET last_active=NOW() WHERE id=$1`, profile.PlayerID); err != nil {
		return fmt.Errorf("touch player %d: %w", profile.PlayerID, err)
	}
	return nil
}

func (s *PostgresStore) RecordShot(ctx context.Context, shot *models.ShotRecord) error {
	err := s.db.QueryRowxContext(ctx, `
		INSERT INTO shot_records (player_id, session_token, outcome, perfect, miss_reason, launch_vx, launch_vy, frames, bounces, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NOW())
		RETURNING id, created_at`,
		shot.PlayerID, shot.SessionToken, shot.Outcome, shot.Perfect, shot.MissReason,
		shot.LaunchVX, shot.LaunchVY, shot.Frames, shot.Bounces,
	).Scan(&shot.ID, &shot.CreatedAt)
	if err != nil {
		return fmt.Errorf("record shot: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentShots(ctx context.Context, playerID, limit int) ([]models.ShotRecord, error) {
	shots := []models.ShotRecord{}
	err := s.db.SelectContext(ctx, &shots,
		`SELECT * FROM shot_records WHERE player_id=$1 ORDER BY created_at DESC, id DESC LIMIT $2`,
		playerID, ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("recent shots %d: %w", playerID, err)
	}
	return shots, nil
}
