// Package standings turns completed match results into tournament tables,
// brackets, and fixtures. Everything here is pure: same inputs, same table,
// no clock and no store.
package standings

import (
	"math"
	"sort"

	"github.com/cockroachdb/errors"

	"github.com/matchday/scorekeeper/internal/domain/match"
	"github.com/matchday/scorekeeper/internal/domain/tournament"
)

var ErrTeamNotInTable = errors.New("team not in standings table")

// TeamScore is one side's figures from a completed match. Goals feed the
// football columns; Runs/Overs feed the cricket net-run-rate inputs.
type TeamScore struct {
	TeamID string
	Goals  int
	Runs   int
	Overs  float64
}

// Outcome is everything the table needs from one finished match.
type Outcome struct {
	Sport  match.Sport
	Result match.Result
	Home   TeamScore
	Away   TeamScore
}

// Apply folds one outcome into the table and returns the updated rows; the
// input slice is never modified. Both participating teams must already have
// rows. A no-result counts as a draw in the played/won/lost/drawn columns
// (keeping played = won+lost+drawn) but awards the configured no-result
// points and contributes no scoring figures.
func Apply(rows []tournament.Team, out Outcome, cfg tournament.PointsConfig) ([]tournament.Team, error) {
	updated := append([]tournament.Team(nil), rows...)

	hi, err := rowIndex(updated, out.Home.TeamID)
	if err != nil {
		return nil, err
	}
	ai, err := rowIndex(updated, out.Away.TeamID)
	if err != nil {
		return nil, err
	}

	updated[hi].Played++
	updated[ai].Played++

	switch {
	case out.Result.IsNoResult:
		updated[hi].Drawn++
		updated[ai].Drawn++
		updated[hi].Points += cfg.NoResult
		updated[ai].Points += cfg.NoResult
		return updated, nil
	case out.Result.IsDraw:
		updated[hi].Drawn++
		updated[ai].Drawn++
		updated[hi].Points += cfg.Draw
		updated[ai].Points += cfg.Draw
	case out.Result.WinnerTeamID == out.Home.TeamID:
		updated[hi].Won++
		updated[ai].Lost++
		updated[hi].Points += cfg.Win
		updated[ai].Points += cfg.Loss
	case out.Result.WinnerTeamID == out.Away.TeamID:
		updated[ai].Won++
		updated[hi].Lost++
		updated[ai].Points += cfg.Win
		updated[hi].Points += cfg.Loss
	default:
		return nil, errors.Wrapf(ErrTeamNotInTable, "winner %s", out.Result.WinnerTeamID)
	}

	switch out.Sport {
	case match.SportCricket:
		accumulateCricket(&updated[hi], out.Home, out.Away)
		accumulateCricket(&updated[ai], out.Away, out.Home)
	case match.SportFootball:
		updated[hi].GoalsFor += out.Home.Goals
		updated[hi].GoalsAgainst += out.Away.Goals
		updated[ai].GoalsFor += out.Away.Goals
		updated[ai].GoalsAgainst += out.Home.Goals
	}

	return updated, nil
}

// accumulateCricket folds one match's figures into the cumulative NRR
// inputs and recomputes the rate over all matches, not per match.
func accumulateCricket(row *tournament.Team, own, opp TeamScore) {
	row.RunsFor += own.Runs
	row.OversFaced += own.Overs
	row.RunsAgainst += opp.Runs
	row.OversBowled += opp.Overs
	row.NetRunRate = netRunRate(row.RunsFor, row.OversFaced, row.RunsAgainst, row.OversBowled)
}

func netRunRate(runsFor int, oversFaced float64, runsAgainst int, oversBowled float64) float64 {
	var nrr float64
	if oversFaced > 0 {
		nrr = float64(runsFor) / oversFaced
	}
	if oversBowled > 0 {
		nrr -= float64(runsAgainst) / oversBowled
	}
	return nrr
}

// Sort orders the table: points, then wins, then net run rate (cricket) or
// goal difference (football), then runs/goals scored, then team name. The
// result is deterministic for any input permutation; the input is not
// modified.
func Sort(rows []tournament.Team, sport match.Sport) []tournament.Team {
	out := append([]tournament.Team(nil), rows...)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.Points != b.Points {
			return a.Points > b.Points
		}
		if a.Won != b.Won {
			return a.Won > b.Won
		}
		if sport == match.SportCricket {
			if !almostEqual(a.NetRunRate, b.NetRunRate) {
				return a.NetRunRate > b.NetRunRate
			}
			if a.RunsFor != b.RunsFor {
				return a.RunsFor > b.RunsFor
			}
		} else {
			if a.GoalDifference() != b.GoalDifference() {
				return a.GoalDifference() > b.GoalDifference()
			}
			if a.GoalsFor != b.GoalsFor {
				return a.GoalsFor > b.GoalsFor
			}
		}
		if a.TeamName != b.TeamName {
			return a.TeamName < b.TeamName
		}
		return a.TeamID < b.TeamID
	})
	return out
}

const nrrEpsilon = 1e-9

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < nrrEpsilon
}

func rowIndex(rows []tournament.Team, teamID string) (int, error) {
	for i := range rows {
		if rows[i].TeamID == teamID {
			return i, nil
		}
	}
	return 0, errors.Wrapf(ErrTeamNotInTable, "team %s", teamID)
}
