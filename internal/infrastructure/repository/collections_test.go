package repository_test

import (
	"context"
	"testing"

	"github.com/matchday/scorekeeper/internal/domain/match"
	"github.com/matchday/scorekeeper/internal/infrastructure/repository"
	"github.com/matchday/scorekeeper/internal/infrastructure/store"
	"github.com/matchday/scorekeeper/internal/infrastructure/store/memory"
	"github.com/matchday/scorekeeper/internal/platform/logging"
)

func TestMatches_DecodesBySport(t *testing.T) {
	t.Parallel()

	backend := memory.NewBackend()
	matches := repository.Matches(backend, logging.NewNop())
	ctx := context.Background()

	created, err := matches.Add(ctx, match.CricketMatch{
		Header: match.Header{Name: "Sunday T20", SportID: match.SportCricket, Status: match.StatusScheduled},
		Config: match.CricketConfig{OversPerInnings: 20, PlayersPerSide: 11},
	})
	if err != nil {
		t.Fatalf("add: %v", err)
	}

	got, ok, err := matches.Get(ctx, created.MatchID())
	if err != nil || !ok {
		t.Fatalf("get: ok=%v err=%v", ok, err)
	}
	cricket, isCricket := got.(match.CricketMatch)
	if !isCricket {
		t.Fatalf("expected CricketMatch, got %T", got)
	}
	if cricket.Config.OversPerInnings != 20 {
		t.Fatalf("config lost in round-trip: %+v", cricket.Config)
	}
}

func TestMatches_UnknownSportFilteredFromList(t *testing.T) {
	t.Parallel()

	backend := memory.NewBackend()
	matches := repository.Matches(backend, logging.NewNop())
	ctx := context.Background()

	if _, err := matches.Add(ctx, match.FootballMatch{
		Header: match.Header{ID: "f1", SportID: match.SportFootball, Status: match.StatusLive},
	}); err != nil {
		t.Fatalf("add: %v", err)
	}
	// a document written by a newer client with a sport this build predates
	if err := backend.Put(ctx, repository.CollectionMatches, "x1",
		[]byte(`{"entityId":"x1","sportId":"KABADDI"}`)); err != nil {
		t.Fatalf("raw put: %v", err)
	}

	_, ok, err := matches.Get(ctx, "x1")
	if err != nil {
		t.Fatalf("get unknown sport: %v", err)
	}
	if ok {
		t.Fatal("unknown sport should read as absent, not fail")
	}

	all, err := matches.List(ctx, store.NewQuery())
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 1 || all[0].MatchID() != "f1" {
		t.Fatalf("expected only the known-sport match, got %d entries", len(all))
	}
}
