package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/matchday/scorekeeper/internal/domain/event"
	"github.com/matchday/scorekeeper/internal/domain/match"
	"github.com/matchday/scorekeeper/internal/infrastructure/store"
	"github.com/matchday/scorekeeper/internal/scoring"
)

func TestCricketSession_PersistsAggregates(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.newCricketMatch(t, ctx, false)
	env.liveCricket(t, ctx, m.ID)

	if _, err := env.sessions.RecordDelivery(ctx, testHost, m.ID, scoring.Delivery{BatRuns: 4, IsBoundary: true}); err != nil {
		t.Fatalf("record ball: %v", err)
	}
	state, err := env.sessions.RecordDelivery(ctx, testHost, m.ID, scoring.Delivery{BatRuns: 1})
	if err != nil {
		t.Fatalf("record ball: %v", err)
	}

	stored, ok, err := env.repos.Matches.Get(ctx, m.ID)
	if err != nil || !ok {
		t.Fatalf("get match: ok=%v err=%v", ok, err)
	}
	if stored.MatchStatus() != match.StatusLive {
		t.Fatalf("stored status = %s, want LIVE", stored.MatchStatus())
	}

	innings, err := env.repos.Innings.List(ctx, store.NewQuery().Eq("matchId", m.ID))
	if err != nil {
		t.Fatalf("list innings: %v", err)
	}
	if len(innings) != 1 || innings[0].TotalRuns != 5 {
		t.Fatalf("persisted innings = %+v, want one innings with 5 runs", innings)
	}

	balls, err := env.repos.Balls.List(ctx, store.NewQuery().Eq("matchId", m.ID))
	if err != nil {
		t.Fatalf("list balls: %v", err)
	}
	if len(balls) != 2 {
		t.Fatalf("persisted balls = %d, want 2", len(balls))
	}

	if runs, wkts := state.Score(); runs != 5 || wkts != 0 {
		t.Fatalf("session score = %d/%d, want 5/0", runs, wkts)
	}
}

func TestCricketSession_UndoRemovesPersistedBall(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.newCricketMatch(t, ctx, false)
	env.liveCricket(t, ctx, m.ID)

	if _, err := env.sessions.RecordDelivery(ctx, testHost, m.ID, scoring.Delivery{BatRuns: 6, IsBoundary: true}); err != nil {
		t.Fatalf("record ball: %v", err)
	}

	if err := env.sessions.Undo(ctx, testHost, m.ID); err != nil {
		t.Fatalf("undo: %v", err)
	}

	balls, err := env.repos.Balls.List(ctx, store.NewQuery().Eq("matchId", m.ID))
	if err != nil {
		t.Fatalf("list balls: %v", err)
	}
	if len(balls) != 0 {
		t.Fatalf("ball still persisted after undo: %+v", balls)
	}
	innings, err := env.repos.Innings.List(ctx, store.NewQuery().Eq("matchId", m.ID))
	if err != nil {
		t.Fatalf("list innings: %v", err)
	}
	if innings[0].TotalRuns != 0 {
		t.Fatalf("innings runs after undo = %d, want 0", innings[0].TotalRuns)
	}

	if err := env.sessions.Redo(ctx, testHost, m.ID); err != nil {
		t.Fatalf("redo: %v", err)
	}
	balls, err = env.repos.Balls.List(ctx, store.NewQuery().Eq("matchId", m.ID))
	if err != nil {
		t.Fatalf("list balls: %v", err)
	}
	if len(balls) != 1 || balls[0].TotalRuns != 6 {
		t.Fatalf("redo did not restore the ball: %+v", balls)
	}
}

func TestCricketSession_RebuildAfterRestart(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.newCricketMatch(t, ctx, false)
	env.liveCricket(t, ctx, m.ID)
	if _, err := env.sessions.RecordDelivery(ctx, testHost, m.ID, scoring.Delivery{BatRuns: 4}); err != nil {
		t.Fatalf("record ball: %v", err)
	}

	// A fresh service over the same store simulates a host app restart.
	restarted := NewScoringSessionService(env.repos, env.writer, env.hosting, env.sessions.ids, nil)

	state, err := restarted.CricketState(ctx, m.ID)
	if err != nil {
		t.Fatalf("rebuild state: %v", err)
	}
	if runs, _ := state.Score(); runs != 4 {
		t.Fatalf("rebuilt score = %d, want 4", runs)
	}

	// Crease bookkeeping is host-local, so the rebuilt session asks for the
	// batsmen again before accepting a ball.
	if _, err := restarted.RecordDelivery(ctx, testHost, m.ID, scoring.Delivery{BatRuns: 1}); !errors.Is(err, scoring.ErrSelectionNeeded) {
		t.Fatalf("ball on rebuilt session: err = %v, want ErrSelectionNeeded", err)
	}
	for _, batsman := range []string{"a1", "a2"} {
		if _, err := restarted.SelectBatsman(ctx, testHost, m.ID, batsman); err != nil {
			t.Fatalf("reselect %s: %v", batsman, err)
		}
	}
	state, err = restarted.RecordDelivery(ctx, testHost, m.ID, scoring.Delivery{BatRuns: 1})
	if err != nil {
		t.Fatalf("record after rebuild: %v", err)
	}
	if runs, _ := state.Score(); runs != 5 {
		t.Fatalf("score after rebuild = %d, want 5", runs)
	}
}

func TestScoringSession_RejectsUnauthorizedUser(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.newCricketMatch(t, ctx, false)

	_, err := env.sessions.StartCricketMatch(ctx, "stranger", m.ID, "team-a", match.TossBat)
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
}

func TestFootballSession_GoalAndFullTime(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.newFootballMatch(t, ctx)
	if _, err := env.sessions.KickOff(ctx, testHost, m.ID); err != nil {
		t.Fatalf("kick off: %v", err)
	}

	state, err := env.sessions.RecordFootballEvent(ctx, testHost, m.ID, scoring.FootballEventInput{
		TeamID:      "team-h",
		Category:    event.CategoryGoal,
		MatchMinute: 23,
		Goal:        &event.GoalDetail{ScorerID: "h9"},
	})
	if err != nil {
		t.Fatalf("record goal: %v", err)
	}
	if state.Match.HomeScore != 1 || state.Match.AwayScore != 0 {
		t.Fatalf("score = %d-%d, want 1-0", state.Match.HomeScore, state.Match.AwayScore)
	}

	events, err := env.repos.FootballEvents.List(ctx, store.NewQuery().Eq("matchId", m.ID))
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("persisted events = %d, want 1", len(events))
	}

	// First half -> half time -> second half -> full time.
	for _, minute := range []int{45, 45, 90} {
		if _, err := env.sessions.AdvancePeriod(ctx, testHost, m.ID, minute); err != nil {
			t.Fatalf("advance period at %d: %v", minute, err)
		}
	}

	stored, ok, err := env.repos.Matches.Get(ctx, m.ID)
	if err != nil || !ok {
		t.Fatalf("get match: ok=%v err=%v", ok, err)
	}
	fm := stored.(match.FootballMatch)
	if fm.Status != match.StatusCompleted {
		t.Fatalf("status = %s, want COMPLETED", fm.Status)
	}
	if fm.Result == nil || fm.Result.WinnerTeamID != "team-h" || fm.WinnerTeamID != "team-h" {
		t.Fatalf("result = %+v header winner %q, want team-h", fm.Result, fm.WinnerTeamID)
	}
}

func TestFootballSession_FullTimeUpdatesStandings(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	tn := env.newFootballLeague(t, ctx, "team-h", "team-v")
	m, err := env.hosting.CreateFootballMatch(ctx, testHost, CreateFootballMatchInput{
		Name:         "home vs away",
		TournamentID: tn.ID,
		Config:       match.FootballConfig{HalfMinutes: 45},
		Teams: []TeamSelection{
			{TeamID: "team-h", TeamName: "Home", IsHome: true},
			{TeamID: "team-v", TeamName: "Visitors"},
		},
	})
	if err != nil {
		t.Fatalf("create football match: %v", err)
	}

	if _, err := env.sessions.KickOff(ctx, testHost, m.ID); err != nil {
		t.Fatalf("kick off: %v", err)
	}
	if _, err := env.sessions.RecordFootballEvent(ctx, testHost, m.ID, scoring.FootballEventInput{
		TeamID:      "team-h",
		Category:    event.CategoryGoal,
		MatchMinute: 31,
		Goal:        &event.GoalDetail{ScorerID: "h9"},
	}); err != nil {
		t.Fatalf("record goal: %v", err)
	}
	for _, minute := range []int{45, 45, 90} {
		if _, err := env.sessions.AdvancePeriod(ctx, testHost, m.ID, minute); err != nil {
			t.Fatalf("advance period at %d: %v", minute, err)
		}
	}

	// Full time alone must land the result in the table; no explicit
	// result report happens here.
	rows, err := env.tournaments.StandingsTable(ctx, tn.ID)
	if err != nil {
		t.Fatalf("standings: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("standings rows = %d, want 2", len(rows))
	}
	if rows[0].TeamID != "team-h" || rows[0].Played != 1 || rows[0].Won != 1 || rows[0].Points != 3 {
		t.Fatalf("winner row = %+v, want team-h with 1 played, 1 won, 3 points", rows[0])
	}
	if rows[1].TeamID != "team-v" || rows[1].Lost != 1 {
		t.Fatalf("loser row = %+v, want team-v with 1 lost", rows[1])
	}

	board, err := env.stats.TopGoalScorers(ctx, tn.ID, 10)
	if err != nil {
		t.Fatalf("top scorers: %v", err)
	}
	if len(board) != 1 || board[0].PlayerID != "h9" || board[0].Goals != 1 {
		t.Fatalf("scorer board = %+v, want h9 with one goal", board)
	}
}

func TestAbandonMatch_NoResult(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	m := env.newCricketMatch(t, ctx, false)
	env.liveCricket(t, ctx, m.ID)

	if err := env.sessions.AbandonMatch(ctx, testHost, m.ID, "rain"); err != nil {
		t.Fatalf("abandon: %v", err)
	}

	stored, _, err := env.repos.Matches.Get(ctx, m.ID)
	if err != nil {
		t.Fatalf("get match: %v", err)
	}
	cm := stored.(match.CricketMatch)
	if cm.Status != match.StatusAbandoned || cm.Result == nil || !cm.Result.IsNoResult {
		t.Fatalf("abandoned match = status %s result %+v", cm.Status, cm.Result)
	}
}
