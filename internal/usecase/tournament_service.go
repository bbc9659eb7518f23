package usecase

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/matchday/scorekeeper/internal/domain/match"
	"github.com/matchday/scorekeeper/internal/domain/tournament"
	"github.com/matchday/scorekeeper/internal/infrastructure/repository"
	"github.com/matchday/scorekeeper/internal/infrastructure/store"
	"github.com/matchday/scorekeeper/internal/platform/id"
	"github.com/matchday/scorekeeper/internal/platform/logging"
	"github.com/matchday/scorekeeper/internal/standings"
)

// BracketKind selects the pairing strategy for a knockout round.
type BracketKind string

const (
	BracketRandom BracketKind = "RANDOM"
	BracketSeeded BracketKind = "SEEDED"
)

// TournamentService runs the competition side: team registration, the
// standings table, knockout brackets and round-robin fixtures, and the
// series score. The table is always recomputed from scratch over all
// terminal matches, which makes every recompute idempotent no matter how
// many times a match result is reported.
type TournamentService struct {
	local   *repository.Collections
	writer  *DocWriter
	hosting *HostingService
	ids     id.Generator
	logger  *logging.Logger
	now     func() time.Time
}

func NewTournamentService(
	local *repository.Collections,
	writer *DocWriter,
	hosting *HostingService,
	ids id.Generator,
	logger *logging.Logger,
) *TournamentService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &TournamentService{
		local:   local,
		writer:  writer,
		hosting: hosting,
		ids:     ids,
		logger:  logger,
		now:     time.Now,
	}
}

// RegisterTeam adds a team row to the tournament table.
func (s *TournamentService) RegisterTeam(ctx context.Context, userID, tournamentID, teamID, teamName string) (tournament.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.RegisterTeam")
	defer span.End()

	if strings.TrimSpace(teamID) == "" {
		return tournament.Team{}, fmt.Errorf("%w: team id is required", ErrInvalidInput)
	}

	t, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return tournament.Team{}, err
	}
	if err := s.hosting.requireManage(ctx, userID, t.HostUserID, t.ID); err != nil {
		return tournament.Team{}, err
	}

	existing, err := s.local.TournamentTeams.List(ctx,
		store.NewQuery().Eq("tournamentId", tournamentID).Eq("teamId", teamID))
	if err != nil {
		return tournament.Team{}, fmt.Errorf("list tournament teams: %w", err)
	}
	if len(existing) > 0 {
		return tournament.Team{}, fmt.Errorf("%w: team %s already registered", ErrInvalidInput, teamID)
	}

	docID, err := s.ids.NewID()
	if err != nil {
		return tournament.Team{}, fmt.Errorf("allocate row id: %w", err)
	}
	row := tournament.Team{
		ID:           docID,
		TournamentID: tournamentID,
		TeamID:       teamID,
		TeamName:     teamName,
	}
	if err := s.writer.Put(ctx, t.IsOnline, repository.CollectionTournamentTeams, row.ID, row); err != nil {
		return tournament.Team{}, fmt.Errorf("persist tournament team: %w", err)
	}

	t.TeamIDs = append(t.TeamIDs, teamID)
	if err := s.writer.Put(ctx, t.IsOnline, repository.CollectionTournaments, t.ID, t); err != nil {
		return tournament.Team{}, fmt.Errorf("persist tournament: %w", err)
	}
	return row, nil
}

// OnMatchCompleted folds the finished match into its tournament table and
// series score as soon as a scoring session reports it terminal.
func (s *TournamentService) OnMatchCompleted(ctx context.Context, h match.Header) error {
	if h.TournamentID == "" && h.SeriesID == "" {
		return nil
	}
	return s.ApplyMatchResult(ctx, h.ID)
}

// ApplyMatchResult folds a finished match into its tournament table and its
// series score. Safe to call more than once for the same match.
func (s *TournamentService) ApplyMatchResult(ctx context.Context, matchID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.ApplyMatchResult")
	defer span.End()

	m, ok, err := s.local.Matches.Get(ctx, matchID)
	if err != nil {
		return fmt.Errorf("get match: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	if !m.MatchStatus().Terminal() {
		return fmt.Errorf("%w: match %s has not finished", ErrInvalidInput, matchID)
	}

	h := m.HostedHeader()
	if h.TournamentID != "" {
		if _, err := s.RecomputeStandings(ctx, h.TournamentID); err != nil {
			return err
		}
	}
	if h.SeriesID != "" {
		if err := s.recomputeSeries(ctx, h.SeriesID); err != nil {
			return err
		}
	}
	return nil
}

// RecomputeStandings rebuilds the whole table from the tournament's
// terminal matches and persists the rows. Returns them in display order.
func (s *TournamentService) RecomputeStandings(ctx context.Context, tournamentID string) ([]tournament.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.RecomputeStandings")
	defer span.End()

	t, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}

	rows, err := s.local.TournamentTeams.List(ctx,
		store.NewQuery().Eq("tournamentId", tournamentID).OrderBy("teamName"))
	if err != nil {
		return nil, fmt.Errorf("list tournament teams: %w", err)
	}
	for i := range rows {
		rows[i] = tournament.Team{
			ID:           rows[i].ID,
			TournamentID: rows[i].TournamentID,
			TeamID:       rows[i].TeamID,
			TeamName:     rows[i].TeamName,
		}
	}

	matches, err := s.local.Matches.List(ctx,
		store.NewQuery().Eq("tournamentId", tournamentID).OrderBy("matchDate"))
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	for _, m := range matches {
		if !m.MatchStatus().Terminal() {
			continue
		}
		out, ok, err := s.outcomeFor(ctx, m)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		updated, err := standings.Apply(rows, out, t.Points)
		if err != nil {
			// A match against an unregistered team cannot score the table.
			s.logger.WarnContext(ctx, "match skipped in standings recompute",
				"matchId", m.MatchID(), "error", err)
			continue
		}
		rows = updated
	}

	for _, row := range rows {
		if err := s.writer.Put(ctx, t.IsOnline, repository.CollectionTournamentTeams, row.ID, row); err != nil {
			return nil, fmt.Errorf("persist tournament team: %w", err)
		}
	}
	return standings.Sort(rows, t.SportID), nil
}

// StandingsTable reads the persisted rows in display order.
func (s *TournamentService) StandingsTable(ctx context.Context, tournamentID string) ([]tournament.Team, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.StandingsTable")
	defer span.End()

	t, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	rows, err := s.local.TournamentTeams.List(ctx,
		store.NewQuery().Eq("tournamentId", tournamentID))
	if err != nil {
		return nil, fmt.Errorf("list tournament teams: %w", err)
	}
	return standings.Sort(rows, t.SportID), nil
}

// GenerateBracket pairs the current field into a knockout round and
// persists the stage plus its scheduled matches. Seed only matters for the
// random draw; pass 0 for an unseeded draw.
func (s *TournamentService) GenerateBracket(ctx context.Context, userID, tournamentID string, kind BracketKind, seed int64) ([]tournament.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.GenerateBracket")
	defer span.End()

	t, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := s.hosting.requireManage(ctx, userID, t.HostUserID, t.ID); err != nil {
		return nil, err
	}

	rows, err := s.local.TournamentTeams.List(ctx,
		store.NewQuery().Eq("tournamentId", tournamentID))
	if err != nil {
		return nil, fmt.Errorf("list tournament teams: %w", err)
	}

	var strategy standings.BracketStrategy
	switch kind {
	case BracketRandom:
		if seed == 0 {
			seed = s.now().UnixNano()
		}
		strategy = standings.RandomBracket{Rand: rand.New(rand.NewSource(seed))}
	case BracketSeeded:
		strategy = standings.SeededBracket{Sport: t.SportID}
	default:
		return nil, fmt.Errorf("%w: unknown bracket kind %q", ErrInvalidInput, kind)
	}

	pairings, err := strategy.Pair(tournamentID, rows)
	if err != nil {
		return nil, fmt.Errorf("pair bracket: %w", err)
	}
	return s.persistFixtures(ctx, t, stageForField(len(rows)), pairings)
}

// GenerateRoundRobin schedules every registered pair once as a group stage.
func (s *TournamentService) GenerateRoundRobin(ctx context.Context, userID, tournamentID string) ([]tournament.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.TournamentService.GenerateRoundRobin")
	defer span.End()

	t, err := s.getTournament(ctx, tournamentID)
	if err != nil {
		return nil, err
	}
	if err := s.hosting.requireManage(ctx, userID, t.HostUserID, t.ID); err != nil {
		return nil, err
	}

	rows, err := s.local.TournamentTeams.List(ctx,
		store.NewQuery().Eq("tournamentId", tournamentID).OrderBy("teamName"))
	if err != nil {
		return nil, fmt.Errorf("list tournament teams: %w", err)
	}
	if len(rows) < 2 {
		return nil, fmt.Errorf("%w: round robin needs at least two teams", ErrInvalidInput)
	}

	teamIDs := make([]string, 0, len(rows))
	for _, row := range rows {
		teamIDs = append(teamIDs, row.TeamID)
	}
	return s.persistFixtures(ctx, t, tournament.StageGroup, standings.RoundRobin(tournamentID, teamIDs))
}

func (s *TournamentService) persistFixtures(ctx context.Context, t tournament.Tournament, stageType tournament.StageType, fixtures []tournament.Match) ([]tournament.Match, error) {
	existing, err := s.local.Stages.List(ctx,
		store.NewQuery().Eq("tournamentId", t.ID))
	if err != nil {
		return nil, fmt.Errorf("list stages: %w", err)
	}

	stageID, err := s.ids.NewID()
	if err != nil {
		return nil, fmt.Errorf("allocate stage id: %w", err)
	}
	stage := tournament.Stage{
		ID:           stageID,
		TournamentID: t.ID,
		Type:         stageType,
		Order:        len(existing) + 1,
	}
	if err := s.writer.Put(ctx, t.IsOnline, repository.CollectionStages, stage.ID, stage); err != nil {
		return nil, fmt.Errorf("persist stage: %w", err)
	}

	for i := range fixtures {
		docID, err := s.ids.NewID()
		if err != nil {
			return nil, fmt.Errorf("allocate fixture id: %w", err)
		}
		fixtures[i].ID = docID
		fixtures[i].StageID = stage.ID
		if err := s.writer.Put(ctx, t.IsOnline, repository.CollectionTournamentMatches, docID, fixtures[i]); err != nil {
			return nil, fmt.Errorf("persist fixture: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "fixtures generated",
		"tournamentId", t.ID, "stage", string(stageType), "count", len(fixtures))
	return fixtures, nil
}

// recomputeSeries recounts the series score from its terminal matches.
func (s *TournamentService) recomputeSeries(ctx context.Context, seriesID string) error {
	sr, ok, err := s.local.Series.Get(ctx, seriesID)
	if err != nil {
		return fmt.Errorf("get series: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: series %s", ErrNotFound, seriesID)
	}

	matches, err := s.local.Matches.List(ctx,
		store.NewQuery().Eq("seriesId", seriesID))
	if err != nil {
		return fmt.Errorf("list series matches: %w", err)
	}

	sr.TeamAWins, sr.TeamBWins = 0, 0
	for _, m := range matches {
		if m.MatchStatus() != match.StatusCompleted {
			continue
		}
		switch m.HostedHeader().WinnerTeamID {
		case sr.TeamAID:
			sr.TeamAWins++
		case sr.TeamBID:
			sr.TeamBWins++
		}
	}
	if sr.Decided() {
		sr.Status = "COMPLETED"
	} else if sr.TeamAWins+sr.TeamBWins > 0 {
		sr.Status = "LIVE"
	}

	if err := s.writer.Put(ctx, sr.IsOnline, repository.CollectionSeries, sr.ID, sr); err != nil {
		return fmt.Errorf("persist series: %w", err)
	}
	return nil
}

// outcomeFor assembles the standings input for one terminal match. The
// second return is false when the match carries no usable sides.
func (s *TournamentService) outcomeFor(ctx context.Context, m match.Match) (standings.Outcome, bool, error) {
	switch cm := m.(type) {
	case match.CricketMatch:
		return s.cricketOutcome(ctx, cm)
	case match.FootballMatch:
		return footballOutcome(cm), true, nil
	default:
		return standings.Outcome{}, false, nil
	}
}

func (s *TournamentService) cricketOutcome(ctx context.Context, cm match.CricketMatch) (standings.Outcome, bool, error) {
	out := standings.Outcome{Sport: match.SportCricket}
	if cm.Result != nil {
		out.Result = *cm.Result
	} else {
		out.Result = match.Result{MatchID: cm.ID, IsNoResult: true}
	}
	if cm.Status == match.StatusAbandoned {
		out.Result.IsNoResult = true
	}

	innings, err := s.local.Innings.List(ctx,
		store.NewQuery().Eq("matchId", cm.ID).OrderBy("inningsNumber"))
	if err != nil {
		return standings.Outcome{}, false, fmt.Errorf("list innings: %w", err)
	}

	scores := make([]standings.TeamScore, 0, 2)
	for _, in := range innings {
		overs, err := s.local.Overs.List(ctx,
			store.NewQuery().Eq("inningsId", in.ID))
		if err != nil {
			return standings.Outcome{}, false, fmt.Errorf("list overs: %w", err)
		}
		scores = append(scores, standings.TeamScore{
			TeamID: in.BattingTeamID,
			Runs:   in.TotalRuns,
			Overs:  oversBowled(overs),
		})
	}

	// Sides with no recorded innings still need a table entry, e.g. for an
	// abandoned match.
	for _, mt := range cm.Teams {
		found := false
		for _, sc := range scores {
			if sc.TeamID == mt.TeamID {
				found = true
			}
		}
		if !found {
			scores = append(scores, standings.TeamScore{TeamID: mt.TeamID})
		}
	}
	if len(scores) < 2 {
		return standings.Outcome{}, false, nil
	}

	out.Home, out.Away = scores[0], scores[1]
	return out, true, nil
}

func footballOutcome(fm match.FootballMatch) standings.Outcome {
	out := standings.Outcome{Sport: match.SportFootball}
	if fm.Result != nil {
		out.Result = *fm.Result
	} else {
		out.Result = match.Result{MatchID: fm.ID, IsNoResult: true}
	}
	if fm.Status == match.StatusAbandoned {
		out.Result.IsNoResult = true
	}

	home, _ := fm.HomeTeam()
	away, _ := fm.AwayTeam()
	out.Home = standings.TeamScore{TeamID: home.TeamID, Goals: fm.HomeScore}
	out.Away = standings.TeamScore{TeamID: away.TeamID, Goals: fm.AwayScore}
	return out
}

// oversBowled converts an over list into the fractional over count used by
// net run rate: a completed over counts one, an open one its legal balls
// over six.
func oversBowled(overs []match.Over) float64 {
	var total float64
	for _, ov := range overs {
		if ov.Completed {
			total++
		} else {
			total += float64(ov.LegalBalls) / match.LegalBallsPerOver
		}
	}
	return total
}

// stageForField maps the field size to the knockout stage it seeds.
func stageForField(teams int) tournament.StageType {
	switch {
	case teams <= 2:
		return tournament.StageFinal
	case teams <= 4:
		return tournament.StageSemiFinal
	case teams <= 8:
		return tournament.StageQuarterFinal
	case teams <= 16:
		return tournament.StageRoundOf16
	default:
		return tournament.StageGroup
	}
}

func (s *TournamentService) getTournament(ctx context.Context, tournamentID string) (tournament.Tournament, error) {
	if strings.TrimSpace(tournamentID) == "" {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament id is required", ErrInvalidInput)
	}
	t, ok, err := s.local.Tournaments.Get(ctx, tournamentID)
	if err != nil {
		return tournament.Tournament{}, fmt.Errorf("get tournament: %w", err)
	}
	if !ok {
		return tournament.Tournament{}, fmt.Errorf("%w: tournament %s", ErrNotFound, tournamentID)
	}
	return t, nil
}
