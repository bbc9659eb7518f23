package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/matchday/scorekeeper/internal/domain/cohost"
	"github.com/matchday/scorekeeper/internal/domain/match"
)

func TestCreateCricketMatch_OfflineStaysLocal(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.newCricketMatch(t, ctx, false)

	if m.VisibilityLink != "" {
		t.Fatalf("offline match got a share link %q", m.VisibilityLink)
	}
	if _, ok, err := env.repos.Matches.Get(ctx, m.ID); err != nil || !ok {
		t.Fatalf("local store missing match: ok=%v err=%v", ok, err)
	}
	if _, ok, err := env.remoteRepos.Matches.Get(ctx, m.ID); err != nil || ok {
		t.Fatalf("offline match leaked to the realtime store: ok=%v err=%v", ok, err)
	}
}

func TestCreateCricketMatch_OnlineGetsShareLink(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.newCricketMatch(t, ctx, true)

	if m.VisibilityLink == "" {
		t.Fatal("online match has no share link")
	}
	for name, repos := range map[string]interface {
		Get(ctx context.Context, id string) (match.Match, bool, error)
	}{"local": env.repos.Matches, "realtime": env.remoteRepos.Matches} {
		if _, ok, err := repos.Get(ctx, m.ID); err != nil || !ok {
			t.Fatalf("%s store missing match: ok=%v err=%v", name, ok, err)
		}
	}

	resolved, err := env.hosting.MatchByShareLink(ctx, m.VisibilityLink)
	if err != nil {
		t.Fatalf("resolve share link: %v", err)
	}
	if resolved.MatchID() != m.ID {
		t.Fatalf("share link resolved to %s, want %s", resolved.MatchID(), m.ID)
	}

	if _, err := env.hosting.MatchByShareLink(ctx, "nosuchcode"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("unknown code: err = %v, want ErrNotFound", err)
	}
}

func TestCreateCricketMatch_Validation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	cases := []struct {
		name string
		in   CreateCricketMatchInput
	}{
		{"no name", CreateCricketMatchInput{
			Config: match.CricketConfig{OversPerInnings: 2},
			Teams:  []TeamSelection{{TeamID: "a"}, {TeamID: "b"}},
		}},
		{"one team", CreateCricketMatchInput{
			Name:   "x",
			Config: match.CricketConfig{OversPerInnings: 2},
			Teams:  []TeamSelection{{TeamID: "a"}},
		}},
		{"duplicate team", CreateCricketMatchInput{
			Name:   "x",
			Config: match.CricketConfig{OversPerInnings: 2},
			Teams:  []TeamSelection{{TeamID: "a"}, {TeamID: "a"}},
		}},
		{"no overs", CreateCricketMatchInput{
			Name:  "x",
			Teams: []TeamSelection{{TeamID: "a"}, {TeamID: "b"}},
		}},
	}
	for _, tc := range cases {
		if _, err := env.hosting.CreateCricketMatch(ctx, testHost, tc.in); !errors.Is(err, ErrInvalidInput) {
			t.Errorf("%s: err = %v, want ErrInvalidInput", tc.name, err)
		}
	}
}

func TestCoHost_PermissionsAndRemoval(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.newCricketMatch(t, ctx, false)

	// Only the host (or a FULL_ACCESS co-host) can add co-hosts.
	if _, err := env.hosting.AddCoHost(ctx, "stranger", AddCoHostInput{
		EntityID:   m.ID,
		EntityType: cohost.EntityMatch,
		UserID:     "scorer-1",
		Permission: cohost.PermissionEditOnly,
	}); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("stranger add: err = %v, want ErrUnauthorized", err)
	}

	scorer, err := env.hosting.AddCoHost(ctx, testHost, AddCoHostInput{
		EntityID:   m.ID,
		EntityType: cohost.EntityMatch,
		UserID:     "scorer-1",
		Permission: cohost.PermissionEditOnly,
	})
	if err != nil {
		t.Fatalf("add scorer: %v", err)
	}
	viewer, err := env.hosting.AddCoHost(ctx, testHost, AddCoHostInput{
		EntityID:   m.ID,
		EntityType: cohost.EntityMatch,
		UserID:     "viewer-1",
		Permission: cohost.PermissionViewOnly,
	})
	if err != nil {
		t.Fatalf("add viewer: %v", err)
	}

	for user, want := range map[string]bool{
		testHost:   true,
		"scorer-1": true,
		"viewer-1": false,
		"stranger": false,
	} {
		got, err := env.hosting.CanScore(ctx, user, m.Header)
		if err != nil {
			t.Fatalf("CanScore(%s): %v", user, err)
		}
		if got != want {
			t.Errorf("CanScore(%s) = %v, want %v", user, got, want)
		}
	}

	// A co-host may remove themselves; anyone else needs manage rights.
	if err := env.hosting.RemoveCoHost(ctx, "viewer-1", scorer.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("viewer removing scorer: err = %v, want ErrUnauthorized", err)
	}
	if err := env.hosting.RemoveCoHost(ctx, "viewer-1", viewer.ID); err != nil {
		t.Fatalf("self removal: %v", err)
	}
	if err := env.hosting.RemoveCoHost(ctx, testHost, scorer.ID); err != nil {
		t.Fatalf("host removal: %v", err)
	}

	if ok, _ := env.hosting.CanScore(ctx, "scorer-1", m.Header); ok {
		t.Fatal("removed co-host can still score")
	}
}

func TestCreateSeries_RejectsEvenBestOf(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	_, err := env.hosting.CreateSeries(ctx, testHost, CreateSeriesInput{
		Name:    "trophy",
		Sport:   match.SportCricket,
		TeamAID: "team-a",
		TeamBID: "team-b",
		BestOf:  4,
	})
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("err = %v, want ErrInvalidInput", err)
	}
}

func TestCreateTournament_DefaultsPointsBySport(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	cricket, err := env.hosting.CreateTournament(ctx, testHost, CreateTournamentInput{
		Name: "cup", Sport: match.SportCricket,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if cricket.Points.Win != 2 || cricket.Points.NoResult != 1 {
		t.Fatalf("cricket points = %+v, want win 2 no-result 1", cricket.Points)
	}

	football, err := env.hosting.CreateTournament(ctx, testHost, CreateTournamentInput{
		Name: "league", Sport: match.SportFootball,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if football.Points.Win != 3 || football.Points.Draw != 1 {
		t.Fatalf("football points = %+v, want win 3 draw 1", football.Points)
	}
}
