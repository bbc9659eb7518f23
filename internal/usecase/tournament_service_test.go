package usecase

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/matchday/scorekeeper/internal/domain/match"
	"github.com/matchday/scorekeeper/internal/domain/team"
	"github.com/matchday/scorekeeper/internal/domain/tournament"
	"github.com/matchday/scorekeeper/internal/infrastructure/store"
)

func (e *testEnv) newFootballLeague(t *testing.T, ctx context.Context, teamIDs ...string) tournament.Tournament {
	t.Helper()

	tn, err := e.hosting.CreateTournament(ctx, testHost, CreateTournamentInput{
		Name: "league", Sport: match.SportFootball,
	})
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}
	for _, teamID := range teamIDs {
		if _, err := e.tournaments.RegisterTeam(ctx, testHost, tn.ID, teamID, "Team "+teamID); err != nil {
			t.Fatalf("register %s: %v", teamID, err)
		}
	}
	return tn
}

func (e *testEnv) completedFootballMatch(t *testing.T, ctx context.Context, id, tournamentID, homeID, awayID string, homeGoals, awayGoals int) {
	t.Helper()

	result := match.Result{MatchID: id, IsDraw: homeGoals == awayGoals}
	winner := ""
	if homeGoals > awayGoals {
		winner = homeID
	} else if awayGoals > homeGoals {
		winner = awayID
	}
	result.WinnerTeamID = winner

	fm := match.FootballMatch{
		Header: match.Header{
			ID:           id,
			Name:         homeID + " vs " + awayID,
			HostUserID:   testHost,
			SportID:      match.SportFootball,
			Status:       match.StatusCompleted,
			TournamentID: tournamentID,
			WinnerTeamID: winner,
		},
		Teams: []team.MatchTeam{
			{TeamID: homeID, IsHome: true},
			{TeamID: awayID},
		},
		HomeScore: homeGoals,
		AwayScore: awayGoals,
		Result:    &result,
	}
	if err := e.repos.Matches.Update(ctx, fm); err != nil {
		t.Fatalf("store match %s: %v", id, err)
	}
}

func TestRegisterTeam_HostOnly(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	tn := env.newFootballLeague(t, ctx)

	if _, err := env.tournaments.RegisterTeam(ctx, "stranger", tn.ID, "team-x", "X"); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("err = %v, want ErrUnauthorized", err)
	}
	if _, err := env.tournaments.RegisterTeam(ctx, testHost, tn.ID, "team-x", "X"); err != nil {
		t.Fatalf("register: %v", err)
	}
	if _, err := env.tournaments.RegisterTeam(ctx, testHost, tn.ID, "team-x", "X"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("duplicate registration: err = %v, want ErrInvalidInput", err)
	}
}

func TestRecomputeStandings_FootballIsIdempotent(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	tn := env.newFootballLeague(t, ctx, "team-x", "team-y", "team-z")
	env.completedFootballMatch(t, ctx, "m1", tn.ID, "team-x", "team-y", 2, 0)
	env.completedFootballMatch(t, ctx, "m2", tn.ID, "team-y", "team-z", 1, 1)

	first, err := env.tournaments.RecomputeStandings(ctx, tn.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}
	// Running it again over the same matches must not double-count.
	second, err := env.tournaments.RecomputeStandings(ctx, tn.ID)
	if err != nil {
		t.Fatalf("recompute again: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Fatalf("recompute is not idempotent:\nfirst  %+v\nsecond %+v", first, second)
	}

	if second[0].TeamID != "team-x" || second[0].Points != 3 {
		t.Fatalf("leader = %+v, want team-x on 3 points", second[0])
	}
	for _, row := range second {
		if row.Played != row.Won+row.Lost+row.Drawn {
			t.Fatalf("row %s breaks played = won+lost+drawn: %+v", row.TeamID, row)
		}
	}
}

func TestRecomputeStandings_CricketUsesInningsFigures(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	tn, err := env.hosting.CreateTournament(ctx, testHost, CreateTournamentInput{
		Name: "cup", Sport: match.SportCricket,
	})
	if err != nil {
		t.Fatalf("create tournament: %v", err)
	}
	for _, teamID := range []string{"team-a", "team-b"} {
		if _, err := env.tournaments.RegisterTeam(ctx, testHost, tn.ID, teamID, teamID); err != nil {
			t.Fatalf("register: %v", err)
		}
	}

	cm := match.CricketMatch{
		Header: match.Header{
			ID:           "cm1",
			HostUserID:   testHost,
			SportID:      match.SportCricket,
			Status:       match.StatusCompleted,
			TournamentID: tn.ID,
			WinnerTeamID: "team-a",
		},
		Config: match.CricketConfig{OversPerInnings: 2},
		Teams: []team.MatchTeam{
			{TeamID: "team-a"},
			{TeamID: "team-b"},
		},
		Result: &match.Result{MatchID: "cm1", WinnerTeamID: "team-a"},
	}
	if err := env.repos.Matches.Update(ctx, cm); err != nil {
		t.Fatalf("store match: %v", err)
	}
	innings := []match.Innings{
		{ID: "i1", MatchID: "cm1", Number: 1, BattingTeamID: "team-a", BowlingTeamID: "team-b", TotalRuns: 24, OversDone: 2, Completed: true},
		{ID: "i2", MatchID: "cm1", Number: 2, BattingTeamID: "team-b", BowlingTeamID: "team-a", TotalRuns: 12, OversDone: 2, Completed: true},
	}
	overs := []match.Over{
		{ID: "o1", InningsID: "i1", Number: 1, Completed: true},
		{ID: "o2", InningsID: "i1", Number: 2, Completed: true},
		{ID: "o3", InningsID: "i2", Number: 1, Completed: true},
		{ID: "o4", InningsID: "i2", Number: 2, Completed: true},
	}
	for _, in := range innings {
		if err := env.repos.Innings.Update(ctx, in); err != nil {
			t.Fatalf("store innings: %v", err)
		}
	}
	for _, ov := range overs {
		if err := env.repos.Overs.Update(ctx, ov); err != nil {
			t.Fatalf("store over: %v", err)
		}
	}

	rows, err := env.tournaments.RecomputeStandings(ctx, tn.ID)
	if err != nil {
		t.Fatalf("recompute: %v", err)
	}

	// team-a: 24 runs off 2 overs for, 12 off 2 against -> NRR +6.
	if rows[0].TeamID != "team-a" {
		t.Fatalf("leader = %s, want team-a", rows[0].TeamID)
	}
	if got := rows[0].NetRunRate; got < 5.99 || got > 6.01 {
		t.Fatalf("team-a NRR = %v, want 6", got)
	}
	if rows[0].Points != 2 || rows[1].Points != 0 {
		t.Fatalf("points = %d/%d, want 2/0", rows[0].Points, rows[1].Points)
	}
}

func TestApplyMatchResult_SeriesScore(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	sr, err := env.hosting.CreateSeries(ctx, testHost, CreateSeriesInput{
		Name:    "trophy",
		Sport:   match.SportFootball,
		TeamAID: "team-x",
		TeamBID: "team-y",
		BestOf:  3,
	})
	if err != nil {
		t.Fatalf("create series: %v", err)
	}

	for i, id := range []string{"sm1", "sm2"} {
		fm := match.FootballMatch{
			Header: match.Header{
				ID:           id,
				HostUserID:   testHost,
				SportID:      match.SportFootball,
				Status:       match.StatusCompleted,
				SeriesID:     sr.ID,
				WinnerTeamID: "team-x",
			},
			Teams: []team.MatchTeam{
				{TeamID: "team-x", IsHome: true},
				{TeamID: "team-y"},
			},
			HomeScore: 1 + i,
			Result:    &match.Result{MatchID: id, WinnerTeamID: "team-x"},
		}
		if err := env.repos.Matches.Update(ctx, fm); err != nil {
			t.Fatalf("store match: %v", err)
		}
		if err := env.tournaments.ApplyMatchResult(ctx, id); err != nil {
			t.Fatalf("apply result %s: %v", id, err)
		}
	}

	got, ok, err := env.repos.Series.Get(ctx, sr.ID)
	if err != nil || !ok {
		t.Fatalf("get series: ok=%v err=%v", ok, err)
	}
	if got.TeamAWins != 2 || got.TeamBWins != 0 {
		t.Fatalf("series score = %d-%d, want 2-0", got.TeamAWins, got.TeamBWins)
	}
	if !got.Decided() || got.Status != "COMPLETED" {
		t.Fatalf("best-of-3 swept 2-0 should be decided, got %+v", got)
	}
}

func TestGenerateBracket_SeededPairsTopAgainstBottom(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	tn := env.newFootballLeague(t, ctx, "s1", "s2", "s3", "s4")
	// Give the field a standings order: s1 beats s4, s2 beats s3.
	env.completedFootballMatch(t, ctx, "b1", tn.ID, "s1", "s4", 3, 0)
	env.completedFootballMatch(t, ctx, "b2", tn.ID, "s2", "s3", 1, 0)
	if _, err := env.tournaments.RecomputeStandings(ctx, tn.ID); err != nil {
		t.Fatalf("recompute: %v", err)
	}

	fixtures, err := env.tournaments.GenerateBracket(ctx, testHost, tn.ID, BracketSeeded, 0)
	if err != nil {
		t.Fatalf("generate bracket: %v", err)
	}
	if len(fixtures) != 2 {
		t.Fatalf("fixtures = %d, want 2", len(fixtures))
	}
	if fixtures[0].HomeTeamID != "s1" || fixtures[0].AwayTeamID != "s4" {
		t.Fatalf("first pairing = %s vs %s, want s1 vs s4", fixtures[0].HomeTeamID, fixtures[0].AwayTeamID)
	}
	if fixtures[1].HomeTeamID != "s2" || fixtures[1].AwayTeamID != "s3" {
		t.Fatalf("second pairing = %s vs %s, want s2 vs s3", fixtures[1].HomeTeamID, fixtures[1].AwayTeamID)
	}

	stages, err := env.repos.Stages.List(ctx, store.NewQuery().Eq("tournamentId", tn.ID))
	if err != nil {
		t.Fatalf("list stages: %v", err)
	}
	if len(stages) != 1 || stages[0].Type != tournament.StageSemiFinal {
		t.Fatalf("stages = %+v, want one SEMI_FINAL", stages)
	}
}

func TestGenerateRoundRobin_EveryPairOnce(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	tn := env.newFootballLeague(t, ctx, "r1", "r2", "r3", "r4")

	fixtures, err := env.tournaments.GenerateRoundRobin(ctx, testHost, tn.ID)
	if err != nil {
		t.Fatalf("generate round robin: %v", err)
	}
	if len(fixtures) != 6 {
		t.Fatalf("fixtures = %d, want 6", len(fixtures))
	}

	pairs := make(map[string]bool)
	for _, f := range fixtures {
		a, b := f.HomeTeamID, f.AwayTeamID
		if b < a {
			a, b = b, a
		}
		key := a + ":" + b
		if pairs[key] {
			t.Fatalf("pair %s scheduled twice", key)
		}
		pairs[key] = true
	}
}

func TestGenerateBracket_RandomSeedReproducible(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	draw := func() []tournament.Match {
		env := newTestEnv(t)
		tn := env.newFootballLeague(t, ctx, "p1", "p2", "p3", "p4")
		fixtures, err := env.tournaments.GenerateBracket(ctx, testHost, tn.ID, BracketRandom, 42)
		if err != nil {
			t.Fatalf("generate bracket: %v", err)
		}
		for i := range fixtures {
			fixtures[i].ID = ""
			fixtures[i].StageID = ""
			fixtures[i].TournamentID = ""
		}
		return fixtures
	}

	if first, second := draw(), draw(); !reflect.DeepEqual(first, second) {
		t.Fatalf("same seed drew different brackets:\n%+v\n%+v", first, second)
	}
}
