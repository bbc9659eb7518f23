package tournament

import (
	"time"

	"github.com/matchday/scorekeeper/internal/domain/match"
)

type Type string

const (
	TypeKnockout Type = "KNOCKOUT"
	TypeLeague   Type = "LEAGUE"
	TypeMixed    Type = "MIXED"
)

type StageType string

const (
	StageGroup        StageType = "GROUP"
	StageRoundOf16    StageType = "ROUND_OF_16"
	StageQuarterFinal StageType = "QUARTER_FINAL"
	StageSemiFinal    StageType = "SEMI_FINAL"
	StageFinal        StageType = "FINAL"
	StageThirdPlace   StageType = "THIRD_PLACE"
)

// PointsConfig is the tournament-configured points system. Defaults differ
// by sport; points-per-win is never hardcoded downstream.
type PointsConfig struct {
	Win      int `json:"winPoints"`
	Draw     int `json:"drawPoints"`
	Loss     int `json:"lossPoints"`
	NoResult int `json:"noResultPoints"`
}

func DefaultCricketPoints() PointsConfig {
	return PointsConfig{Win: 2, Draw: 1, Loss: 0, NoResult: 1}
}

func DefaultFootballPoints() PointsConfig {
	return PointsConfig{Win: 3, Draw: 1, Loss: 0, NoResult: 1}
}

// Tournament is a hosted entity; IsOnline picks the canonical store.
type Tournament struct {
	ID             string       `json:"entityId"`
	Name           string       `json:"name"`
	HostUserID     string       `json:"hostUserId"`
	SportID        match.Sport  `json:"sportId"`
	Type           Type         `json:"tournamentType"`
	Status         string       `json:"status"`
	Points         PointsConfig `json:"pointsConfig"`
	TeamIDs        []string     `json:"teamIds,omitempty"`
	IsOnline       bool         `json:"isOnline"`
	VisibilityLink string       `json:"visibilityLink,omitempty"`
	StartDate      time.Time    `json:"startDate,omitempty"`
}

// Team is one row of the tournament table: mutable counters written only by
// the standings aggregator. MatchesPlayed = Won + Lost + Drawn always.
type Team struct {
	ID           string  `json:"tournamentTeamId"`
	TournamentID string  `json:"tournamentId"`
	TeamID       string  `json:"teamId"`
	TeamName     string  `json:"teamName,omitempty"`
	Played       int     `json:"matchesPlayed"`
	Won          int     `json:"matchesWon"`
	Lost         int     `json:"matchesLost"`
	Drawn        int     `json:"matchesDrawn"`
	Points       int     `json:"points"`
	GoalsFor     int     `json:"goalsFor"`
	GoalsAgainst int     `json:"goalsAgainst"`
	// Cumulative NRR inputs, tracked across all of the team's matches.
	RunsFor     int     `json:"runsFor"`
	OversFaced  float64 `json:"oversFaced"`
	RunsAgainst int     `json:"runsAgainst"`
	OversBowled float64 `json:"oversBowled"`
	NetRunRate  float64 `json:"netRunRate"`
}

// GoalDifference is the football standings tie-break metric.
func (t Team) GoalDifference() int {
	return t.GoalsFor - t.GoalsAgainst
}

// Stage groups bracket matches (group phase, quarter final, ...).
type Stage struct {
	ID           string    `json:"stageId"`
	TournamentID string    `json:"tournamentId"`
	Type         StageType `json:"stageType"`
	Order        int       `json:"stageOrder"`
}

// Match is a scheduled pairing inside a stage; MatchID is filled once an
// actual match record is created for it.
type Match struct {
	ID           string `json:"tournamentMatchId"`
	TournamentID string `json:"tournamentId"`
	StageID      string `json:"stageId,omitempty"`
	MatchID      string `json:"matchId,omitempty"`
	HomeTeamID   string `json:"homeTeamId"`
	AwayTeamID   string `json:"awayTeamId"`
	MatchOrder   int    `json:"matchOrder"`
}

// Series is a best-of-N hosted container between two teams.
type Series struct {
	ID             string      `json:"entityId"`
	Name           string      `json:"name"`
	HostUserID     string      `json:"hostUserId"`
	SportID        match.Sport `json:"sportId"`
	TeamAID        string      `json:"teamAId"`
	TeamBID        string      `json:"teamBId"`
	BestOf         int         `json:"bestOf"`
	TeamAWins      int         `json:"teamAWins"`
	TeamBWins      int         `json:"teamBWins"`
	Status         string      `json:"status"`
	IsOnline       bool        `json:"isOnline"`
	VisibilityLink string      `json:"visibilityLink,omitempty"`
}

// Decided reports whether one side has already taken the series.
func (s Series) Decided() bool {
	if s.BestOf <= 0 {
		return false
	}
	need := s.BestOf/2 + 1
	return s.TeamAWins >= need || s.TeamBWins >= need
}
