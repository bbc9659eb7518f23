package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/matchday/scorekeeper/internal/domain/event"
	"github.com/matchday/scorekeeper/internal/domain/match"
	"github.com/matchday/scorekeeper/internal/domain/playerstats"
	"github.com/matchday/scorekeeper/internal/domain/team"
	"github.com/matchday/scorekeeper/internal/infrastructure/repository"
	"github.com/matchday/scorekeeper/internal/infrastructure/store"
	"github.com/matchday/scorekeeper/internal/platform/logging"
)

// StatisticsService maintains the per-player per-tournament aggregates and
// serves the leaderboards. Aggregates are recomputed from the ball and
// event logs rather than incremented, so a re-run after an undo or a resync
// always converges on the same numbers.
type StatisticsService struct {
	local  *repository.Collections
	writer *DocWriter
	logger *logging.Logger
}

func NewStatisticsService(local *repository.Collections, writer *DocWriter, logger *logging.Logger) *StatisticsService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &StatisticsService{local: local, writer: writer, logger: logger}
}

// OnMatchCompleted refreshes the tournament's player aggregates when a
// scoring session finishes one of its matches.
func (s *StatisticsService) OnMatchCompleted(ctx context.Context, h match.Header) error {
	if h.TournamentID == "" {
		return nil
	}
	_, err := s.Recompute(ctx, h.TournamentID)
	return err
}

// Recompute rebuilds every player row of the tournament from its terminal
// matches and persists them. Rows for players no longer appearing are
// removed.
func (s *StatisticsService) Recompute(ctx context.Context, tournamentID string) ([]playerstats.Statistics, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatisticsService.Recompute")
	defer span.End()

	t, ok, err := s.local.Tournaments.Get(ctx, tournamentID)
	if err != nil {
		return nil, fmt.Errorf("get tournament: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: tournament %s", ErrNotFound, tournamentID)
	}

	matches, err := s.local.Matches.List(ctx,
		store.NewQuery().Eq("tournamentId", tournamentID))
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}

	acc := newStatsAccumulator(tournamentID)
	for _, m := range matches {
		if !m.MatchStatus().Terminal() {
			continue
		}
		switch m.(type) {
		case match.CricketMatch:
			balls, err := s.local.Balls.List(ctx,
				store.NewQuery().Eq("matchId", m.MatchID()))
			if err != nil {
				return nil, fmt.Errorf("list balls: %w", err)
			}
			acc.addCricketMatch(balls)
		case match.FootballMatch:
			events, err := s.local.FootballEvents.List(ctx,
				store.NewQuery().Eq("matchId", m.MatchID()))
			if err != nil {
				return nil, fmt.Errorf("list events: %w", err)
			}
			acc.addFootballMatch(events)
		}
	}

	players, err := s.local.Players.List(ctx, store.NewQuery())
	if err != nil {
		return nil, fmt.Errorf("list players: %w", err)
	}
	rows := acc.rows(players)

	existing, err := s.local.PlayerStats.List(ctx,
		store.NewQuery().Eq("tournamentId", tournamentID))
	if err != nil {
		return nil, fmt.Errorf("list player statistics: %w", err)
	}
	current := make(map[string]bool, len(rows))
	for _, row := range rows {
		current[row.ID] = true
		if err := s.writer.Put(ctx, t.IsOnline, repository.CollectionPlayerStats, row.ID, row); err != nil {
			return nil, fmt.Errorf("persist player statistics: %w", err)
		}
	}
	for _, old := range existing {
		if !current[old.ID] {
			if err := s.writer.Delete(ctx, t.IsOnline, repository.CollectionPlayerStats, old.ID); err != nil {
				return nil, fmt.Errorf("delete player statistics: %w", err)
			}
		}
	}

	s.logger.InfoContext(ctx, "player statistics recomputed",
		"tournamentId", tournamentID, "players", len(rows))
	return rows, nil
}

// TopRunScorers returns the batting leaderboard: runs descending, player
// name then id breaking ties so equal tallies always list in the same
// order.
func (s *StatisticsService) TopRunScorers(ctx context.Context, tournamentID string, limit int) ([]playerstats.Statistics, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatisticsService.TopRunScorers")
	defer span.End()

	return s.leaderboard(ctx, tournamentID, limit, func(st playerstats.Statistics) int { return st.Runs })
}

// TopWicketTakers returns the bowling leaderboard.
func (s *StatisticsService) TopWicketTakers(ctx context.Context, tournamentID string, limit int) ([]playerstats.Statistics, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatisticsService.TopWicketTakers")
	defer span.End()

	return s.leaderboard(ctx, tournamentID, limit, func(st playerstats.Statistics) int { return st.Wickets })
}

// TopGoalScorers returns the football scoring leaderboard.
func (s *StatisticsService) TopGoalScorers(ctx context.Context, tournamentID string, limit int) ([]playerstats.Statistics, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.StatisticsService.TopGoalScorers")
	defer span.End()

	return s.leaderboard(ctx, tournamentID, limit, func(st playerstats.Statistics) int { return st.Goals })
}

const defaultLeaderboardSize = 10

func (s *StatisticsService) leaderboard(ctx context.Context, tournamentID string, limit int, metric func(playerstats.Statistics) int) ([]playerstats.Statistics, error) {
	if limit <= 0 {
		limit = defaultLeaderboardSize
	}

	rows, err := s.local.PlayerStats.List(ctx,
		store.NewQuery().Eq("tournamentId", tournamentID))
	if err != nil {
		return nil, fmt.Errorf("list player statistics: %w", err)
	}

	sort.Slice(rows, func(i, j int) bool {
		if mi, mj := metric(rows[i]), metric(rows[j]); mi != mj {
			return mi > mj
		}
		if rows[i].PlayerName != rows[j].PlayerName {
			return rows[i].PlayerName < rows[j].PlayerName
		}
		return rows[i].PlayerID < rows[j].PlayerID
	})

	out := rows[:0:0]
	for _, row := range rows {
		if metric(row) == 0 {
			continue
		}
		out = append(out, row)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

// statsAccumulator folds match logs into per-player aggregates.
type statsAccumulator struct {
	tournamentID string
	players      map[string]*playerstats.Statistics
}

func newStatsAccumulator(tournamentID string) *statsAccumulator {
	return &statsAccumulator{
		tournamentID: tournamentID,
		players:      make(map[string]*playerstats.Statistics),
	}
}

func (a *statsAccumulator) row(playerID string) *playerstats.Statistics {
	st, ok := a.players[playerID]
	if !ok {
		st = &playerstats.Statistics{
			ID:           a.tournamentID + ":" + playerID,
			TournamentID: a.tournamentID,
			PlayerID:     playerID,
		}
		a.players[playerID] = st
	}
	return st
}

func (a *statsAccumulator) addCricketMatch(balls []event.Ball) {
	matchRuns := make(map[string]int)
	bowlerBalls := make(map[string]int)
	seen := make(map[string]bool)

	for _, b := range balls {
		seen[b.StrikerID] = true
		seen[b.BowlerID] = true
		if b.NonStrikerID != "" {
			seen[b.NonStrikerID] = true
		}

		bat := a.row(b.StrikerID)
		bat.Runs += b.BatRuns
		matchRuns[b.StrikerID] += b.BatRuns
		if b.ExtrasType != event.ExtrasWide {
			bat.BallsFaced++
		}

		bowl := a.row(b.BowlerID)
		conceded := b.TotalRuns
		if b.ExtrasType == event.ExtrasBye || b.ExtrasType == event.ExtrasLegBye {
			conceded -= b.ExtraRuns
		}
		bowl.RunsConceded += conceded
		if b.ExtrasType.LegalDelivery() {
			bowlerBalls[b.BowlerID]++
		}

		if b.IsWicket {
			if b.DismissedID != "" {
				seen[b.DismissedID] = true
				a.row(b.DismissedID).TimesOut++
			}
			if bowlerCredited(b.WicketType) {
				bowl.Wickets++
			}
		}
	}

	for playerID, legal := range bowlerBalls {
		a.row(playerID).OversBowled += float64(legal) / match.LegalBallsPerOver
	}
	for playerID := range seen {
		if playerID == "" {
			continue
		}
		st := a.row(playerID)
		st.Matches++
		if runs := matchRuns[playerID]; runs > st.HighScore {
			st.HighScore = runs
		}
	}
}

func (a *statsAccumulator) addFootballMatch(events []event.FootballEvent) {
	seen := make(map[string]bool)

	for _, e := range events {
		switch e.Category {
		case event.CategoryGoal:
			if e.Goal == nil {
				continue
			}
			seen[e.Goal.ScorerID] = true
			if !e.Goal.IsOwnGoal {
				a.row(e.Goal.ScorerID).Goals++
			}
			if e.Goal.AssistID != "" {
				seen[e.Goal.AssistID] = true
				a.row(e.Goal.AssistID).Assists++
			}
		case event.CategoryCard:
			if e.Card == nil {
				continue
			}
			seen[e.Card.PlayerID] = true
			switch e.Card.Color {
			case "YELLOW":
				a.row(e.Card.PlayerID).YellowCards++
			case "RED":
				a.row(e.Card.PlayerID).RedCards++
			}
		case event.CategorySubstitution:
			if e.Substitution == nil {
				continue
			}
			seen[e.Substitution.PlayerInID] = true
			seen[e.Substitution.PlayerOutID] = true
		}
	}

	for playerID := range seen {
		if playerID == "" {
			continue
		}
		a.row(playerID).Matches++
	}
}

// rows materializes the aggregates, enriched with player names for the
// leaderboard tie-break, in a stable order.
func (a *statsAccumulator) rows(roster []team.Player) []playerstats.Statistics {
	names := make(map[string]team.Player, len(roster))
	for _, p := range roster {
		names[p.ID] = p
	}

	out := make([]playerstats.Statistics, 0, len(a.players))
	for _, st := range a.players {
		if p, ok := names[st.PlayerID]; ok {
			st.PlayerName = p.Name
			st.TeamID = p.TeamID
		}
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PlayerID < out[j].PlayerID })
	return out
}

// bowlerCredited reports whether the dismissal counts in the bowler's
// wicket column.
func bowlerCredited(w event.WicketType) bool {
	switch w {
	case event.WicketRunOut, event.WicketObstructing, event.WicketTimedOut, event.WicketRetiredOut:
		return false
	default:
		return true
	}
}
