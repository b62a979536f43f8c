package store

import (
	"context"
	"errors"
	"testing"

	"github.com/playmatatu/paperball/internal/models"
)

func newPlayer(t *testing.T, s *MemoryStore) *models.Player {
	t.Helper()
	p := &models.Player{DisplayName: "ace", PinHash: "hash"}
	if err := s.CreatePlayer(context.Background(), p, &models.Profile{CupDraggable: true}); err != nil {
		t.Fatalf("create player: %v", err)
	}
	return p
}

func TestCreateAndLoadProfile(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p := newPlayer(t, s)

	if p.ID == 0 {
		t.Fatalf("expected generated player id")
	}
	got, err := s.GetPlayer(ctx, p.ID)
	if err != nil || got.DisplayName != "ace" {
		t.Fatalf("get player: %+v %v", got, err)
	}

	prof, err := s.LoadProfile(ctx, p.ID)
	if err != nil {
		t.Fatalf("load profile: %v", err)
	}
	if prof.PlayerID != p.ID || !prof.CupDraggable {
		t.Errorf("unexpected profile: %+v", prof)
	}
}

func TestMissingPlayer(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()

	if _, err := s.GetPlayer(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.LoadProfile(ctx, 42); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if err := s.SaveProfile(ctx, &models.Profile{PlayerID: 42}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on save, got %v", err)
	}
	if err := s.RecordShot(ctx, &models.ShotRecord{PlayerID: 42}); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound on record, got %v", err)
	}
}

func TestProfileIsCopied(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p := newPlayer(t, s)

	prof, _ := s.LoadProfile(ctx, p.ID)
	x := 120.0
	prof.CupX = &x
	prof.HighScore = 9
	if err := s.SaveProfile(ctx, prof); err != nil {
		t.Fatalf("save: %v", err)
	}

	x = 999
	prof.HighScore = 1

	again, _ := s.LoadProfile(ctx, p.ID)
	if again.HighScore != 9 {
		t.Errorf("stored profile mutated through caller: high=%d", again.HighScore)
	}
	if again.CupX == nil || *again.CupX != 120 {
		t.Errorf("cup position not isolated: %v", again.CupX)
	}
}

func TestRecentShotsNewestFirst(t *testing.T) {
	s := NewMemoryStore()
	ctx := context.Background()
	p := newPlayer(t, s)

	for i := 0; i < 5; i++ {
		shot := &models.ShotRecord{PlayerID: p.ID, Outcome: "missed", Frames: i}
		if err := s.RecordShot(ctx, shot); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	shots, err := s.RecentShots(ctx, p.ID, 3)
	if err != nil {
		t.Fatalf("recent: %v", err)
	}
	if len(shots) != 3 {
		t.Fatalf("expected 3 shots, got %d", len(shots))
	}
	if shots[0].Frames != 4 || shots[2].Frames != 2 {
		t.Errorf("shots not newest first: %+v", shots)
	}
}

func TestClampLimit(t *testing.T) {
	if ClampLimit(0) != DefaultShotLimit || ClampLimit(-3) != DefaultShotLimit {
		t.Errorf("non-positive limit should use default")
	}
	if ClampLimit(10_000) != MaxShotLimit {
		t.Errorf("limit should cap at %d", MaxShotLimit)
	}
	if ClampLimit(5) != 5 {
		t.Errorf("in-range limit should pass through")
	}
}

func TestProfileKey(t *testing.T) {
	if got := ProfileKey(17); got != "profile:17" {
		t.Errorf("unexpected key %q", got)
	}
}
