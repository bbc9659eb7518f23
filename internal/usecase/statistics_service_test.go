package usecase

import (
	"context"
	"testing"

	"github.com/matchday/scorekeeper/internal/domain/event"
	"github.com/matchday/scorekeeper/internal/domain/match"
	"github.com/matchday/scorekeeper/internal/domain/team"
)

func TestRecompute_CricketAggregates(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	tn, err := env.hosting.CreateTournament(ctx, testHost, CreateTournamentInput{
		Name: "cup", Sport: match.SportCricket,
	})
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}

	cm := match.CricketMatch{
		Header: match.Header{
			ID:           "cm1",
			HostUserID:   testHost,
			SportID:      match.SportCricket,
			Status:       match.StatusCompleted,
			TournamentID: tn.ID,
		},
		Teams: []team.MatchTeam{{TeamID: "team-a"}, {TeamID: "team-b"}},
	}
	if err := env.repos.Matches.Update(ctx, cm); err != nil {
		t.Fatalf("store match: %v", err)
	}

	balls := []event.Ball{
		{ID: "b1", MatchID: "cm1", StrikerID: "a1", BowlerID: "b9", BatRuns: 4, TotalRuns: 4},
		{ID: "b2", MatchID: "cm1", StrikerID: "a1", BowlerID: "b9", BatRuns: 6, TotalRuns: 6},
		// Wide: one penalty run against the bowler, no ball faced.
		{ID: "b3", MatchID: "cm1", StrikerID: "a1", BowlerID: "b9", ExtrasType: event.ExtrasWide, ExtraRuns: 0, TotalRuns: 1},
		// Leg byes are faced but not conceded by the bowler.
		{ID: "b4", MatchID: "cm1", StrikerID: "a2", BowlerID: "b9", ExtrasType: event.ExtrasLegBye, ExtraRuns: 2, TotalRuns: 2},
		{ID: "b5", MatchID: "cm1", StrikerID: "a2", BowlerID: "b9", IsWicket: true, WicketType: event.WicketBowled, DismissedID: "a2"},
		// Run out is not the bowler's wicket.
		{ID: "b6", MatchID: "cm1", StrikerID: "a1", BowlerID: "b9", BatRuns: 1, TotalRuns: 1, IsWicket: true, WicketType: event.WicketRunOut, DismissedID: "a3"},
	}
	for _, b := range balls {
		if err := env.repos.Balls.Update(ctx, b); err != nil {
			t.Fatalf("store ball: %v", err)
		}
	}
	for _, p := range []team.Player{
		{ID: "a1", Name: "Asha", TeamID: "team-a"},
		{ID: "b9", Name: "Bela", TeamID: "team-b"},
	} {
		if _, err := env.repos.Players.Add(ctx, p); err != nil {
			t.Fatalf("store player: %v", err)
		}
	}

	rows, err := env.stats.Recompute(ctx, tn.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}

	byPlayer := make(map[string]int)
	for i, row := range rows {
		byPlayer[row.PlayerID] = i
	}

	bat := rows[byPlayer["a1"]]
	if bat.Runs != 11 || bat.BallsFaced != 3 {
		t.Fatalf("a1 = %d runs off %d balls, want 11 off 3 (the wide is not faced)", bat.Runs, bat.BallsFaced)
	}
	if bat.PlayerName != "Asha" || bat.HighScore != 11 {
		t.Fatalf("a1 row = %+v, want name Asha high score 11", bat)
	}

	bowl := rows[byPlayer["b9"]]
	if bowl.Wickets != 1 {
		t.Fatalf("b9 wickets = %d, want 1 (run out not credited)", bowl.Wickets)
	}
	// 4+6 off the bat, 1 wide; leg byes excluded.
	if bowl.RunsConceded != 12 {
		t.Fatalf("b9 conceded = %d, want 12", bowl.RunsConceded)
	}

	out := rows[byPlayer["a2"]]
	if out.TimesOut != 1 {
		t.Fatalf("a2 times out = %d, want 1", out.TimesOut)
	}
}

func TestRecompute_SkipsLiveMatches(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	tn, err := env.hosting.CreateTournament(ctx, testHost, CreateTournamentInput{
		Name: "cup", Sport: match.SportCricket,
	})
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}

	cm := match.CricketMatch{
		Header: match.Header{
			ID:           "live1",
			HostUserID:   testHost,
			SportID:      match.SportCricket,
			Status:       match.StatusLive,
			TournamentID: tn.ID,
		},
	}
	if err := env.repos.Matches.Update(ctx, cm); err != nil {
		t.Fatalf("store match: %v", err)
	}
	ball := event.Ball{ID: "lb1", MatchID: "live1", StrikerID: "a1", BowlerID: "b1", BatRuns: 4}
	if err := env.repos.Balls.Update(ctx, ball); err != nil {
		t.Fatalf("store ball: %v", err)
	}

	rows, err := env.stats.Recompute(ctx, tn.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("live match leaked into statistics: %+v", rows)
	}
}

func TestLeaderboards_OrderAndTieBreak(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	tn, err := env.hosting.CreateTournament(ctx, testHost, CreateTournamentInput{
		Name: "liga", Sport: match.SportFootball,
	})
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}

	fm := match.FootballMatch{
		Header: match.Header{
			ID:           "fm1",
			HostUserID:   testHost,
			SportID:      match.SportFootball,
			Status:       match.StatusCompleted,
			TournamentID: tn.ID,
		},
		Teams: []team.MatchTeam{{TeamID: "team-h", IsHome: true}, {TeamID: "team-v"}},
	}
	if err := env.repos.Matches.Update(ctx, fm); err != nil {
		t.Fatalf("store match: %v", err)
	}

	goals := []struct {
		id     string
		scorer string
		own    bool
	}{
		{"e1", "zane", false},
		{"e2", "abby", false},
		{"e3", "zane", false},
		{"e4", "mara", false},
		{"e5", "mara", false},
		// Own goal scores for the other side but not for the scorer.
		{"e6", "oona", true},
	}
	for i, g := range goals {
		ev := event.FootballEvent{
			ID:          g.id,
			MatchID:     "fm1",
			TeamID:      "team-h",
			Category:    event.CategoryGoal,
			MatchMinute: 10 + i,
			Seq:         i + 1,
			Goal:        &event.GoalDetail{ScorerID: g.scorer, IsOwnGoal: g.own},
		}
		if err := env.repos.FootballEvents.Update(ctx, ev); err != nil {
			t.Fatalf("store event: %v", err)
		}
	}
	for _, p := range []team.Player{
		{ID: "zane", Name: "Zane"},
		{ID: "abby", Name: "Abby"},
		{ID: "mara", Name: "Mara"},
		{ID: "oona", Name: "Oona"},
	} {
		if _, err := env.repos.Players.Add(ctx, p); err != nil {
			t.Fatalf("store player: %v", err)
		}
	}
	if _, err := env.stats.Recompute(ctx, tn.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	board, err := env.stats.TopGoalScorers(ctx, tn.ID, 10)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}

	// Mara and Zane are tied on two; the name breaks the tie. Oona's own
	// goal earns no entry.
	want := []string{"mara", "zane", "abby"}
	if len(board) != len(want) {
		t.Fatalf("board size = %d, want %d: %+v", len(board), len(want), board)
	}
	for i, playerID := range want {
		if board[i].PlayerID != playerID {
			t.Fatalf("board[%d] = %s, want %s", i, board[i].PlayerID, playerID)
		}
	}

	short, err := env.stats.TopGoalScorers(ctx, tn.ID, 2)
	if err != nil {
		t.Fatalf("leaderboard: %v", err)
	}
	if len(short) != 2 {
		t.Fatalf("limited board size = %d, want 2", len(short))
	}
}
