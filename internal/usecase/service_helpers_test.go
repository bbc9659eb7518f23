package usecase

import (
	"context"
	"testing"

	"github.com/matchday/scorekeeper/internal/domain/match"
	"github.com/matchday/scorekeeper/internal/infrastructure/repository"
	"github.com/matchday/scorekeeper/internal/infrastructure/store/memory"
	"github.com/matchday/scorekeeper/internal/platform/id"
	"github.com/matchday/scorekeeper/internal/platform/logging"
	"github.com/matchday/scorekeeper/internal/syncer"
)

const testHost = "host-1"

type testEnv struct {
	local       *memory.Backend
	remote      *memory.Backend
	repos       *repository.Collections
	remoteRepos *repository.Collections
	writer      *DocWriter
	hosting     *HostingService
	sessions    *ScoringSessionService
	tournaments *TournamentService
	stats       *StatisticsService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	local := memory.NewBackend()
	remote := memory.NewBackend()
	logger := logging.NewNop()
	repos := repository.New(local, logger)
	remoteRepos := repository.New(remote, logger)
	writer := NewDocWriter(local, syncer.New(local, remote, logger))
	ids := id.NewPushKeyGenerator()

	hosting := NewHostingService(repos, remoteRepos, writer, ids, logger)
	sessions := NewScoringSessionService(repos, writer, hosting, ids, logger)
	tournaments := NewTournamentService(repos, writer, hosting, ids, logger)
	stats := NewStatisticsService(repos, writer, logger)
	sessions.AddResultObserver(tournaments, stats)

	return &testEnv{
		local:       local,
		remote:      remote,
		repos:       repos,
		remoteRepos: remoteRepos,
		writer:      writer,
		hosting:     hosting,
		sessions:    sessions,
		tournaments: tournaments,
		stats:       stats,
	}
}

func (e *testEnv) newCricketMatch(t *testing.T, ctx context.Context, online bool) match.CricketMatch {
	t.Helper()

	m, err := e.hosting.CreateCricketMatch(ctx, testHost, CreateCricketMatchInput{
		Name:     "alpha vs bravo",
		IsOnline: online,
		Config:   match.CricketConfig{OversPerInnings: 2, PlayersPerSide: 11},
		Teams: []TeamSelection{
			{TeamID: "team-a", TeamName: "Alpha", PlayingXI: []string{"a1", "a2", "a3"}},
			{TeamID: "team-b", TeamName: "Bravo", PlayingXI: []string{"b1", "b2", "b3"}},
		},
	})
	if err != nil {
		t.Fatalf("create cricket match: %v", err)
	}
	return m
}

func (e *testEnv) newFootballMatch(t *testing.T, ctx context.Context) match.FootballMatch {
	t.Helper()

	m, err := e.hosting.CreateFootballMatch(ctx, testHost, CreateFootballMatchInput{
		Name:   "home vs away",
		Config: match.FootballConfig{HalfMinutes: 45},
		Teams: []TeamSelection{
			{TeamID: "team-h", TeamName: "Home", IsHome: true},
			{TeamID: "team-v", TeamName: "Visitors"},
		},
	})
	if err != nil {
		t.Fatalf("create football match: %v", err)
	}
	return m
}

// liveCricket starts the match and gets the openers and the first bowler in.
func (e *testEnv) liveCricket(t *testing.T, ctx context.Context, matchID string) {
	t.Helper()

	if _, err := e.sessions.StartCricketMatch(ctx, testHost, matchID, "team-a", match.TossBat); err != nil {
		t.Fatalf("start match: %v", err)
	}
	for _, batsman := range []string{"a1", "a2"} {
		if _, err := e.sessions.SelectBatsman(ctx, testHost, matchID, batsman); err != nil {
			t.Fatalf("select batsman %s: %v", batsman, err)
		}
	}
	if _, err := e.sessions.SelectBowler(ctx, testHost, matchID, "b1"); err != nil {
		t.Fatalf("select bowler: %v", err)
	}
}
