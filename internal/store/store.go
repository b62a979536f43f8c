package store

import (
	"context"
	"errors"

	"github.com/playmatatu/paperball/internal/models"
)

var ErrNotFound = errors.New("not found")

// Store persists players, their profiles and their shot history.
type Store interface {
	// CreatePlayer inserts the player together with its initial profile and
	// fills in the generated ID on both.
	CreatePlayer(ctx context.Context, player *models.Player, profile *models.Profile) error
	GetPlayer(ctx context.Context, id int) (*models.Player, error)
	LoadProfile(ctx context.Context, playerID int) (*models.Profile, error)
	SaveProfile(ctx context.Context, profile *models.Profile) error
	RecordShot(ctx context.Context, shot *models.ShotRecord) error
	RecentShots(ctx context.Context, playerID, limit int) ([]models.ShotRecord, error)
}

const (
	DefaultShotLimit = 20
	MaxShotLimit     = 200
)

// ClampLimit bounds a caller-supplied page size.
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultShotLimit
	}
	if limit > MaxShotLimit {
		return MaxShotLimit
	}
	return limit
}

func cloneProfile(p *models.Profile) *models.Profile {
	cp := *p
	if p.CupX != nil {
		x := *p.CupX
		cp.CupX = &x
	}
	if p.CupY != nil {
		y := *p.CupY
		cp.CupY = &y
	}
	return &cp
}
