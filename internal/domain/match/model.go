package match

import (
	"time"

	"github.com/matchday/scorekeeper/internal/domain/team"
)

// Sport discriminates the concrete match variant stored under a common schema.
type Sport string

const (
	SportCricket  Sport = "CRICKET"
	SportFootball Sport = "FOOTBALL"
)

// Status is the match lifecycle. SCHEDULED -> LIVE -> COMPLETED is the only
// forward path; ABANDONED is a terminal alternative to COMPLETED.
type Status string

const (
	StatusScheduled Status = "SCHEDULED"
	StatusLive      Status = "LIVE"
	StatusCompleted Status = "COMPLETED"
	StatusAbandoned Status = "ABANDONED"
)

// Terminal reports whether no further events may be appended.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusAbandoned
}

type TossDecision string

const (
	TossBat  TossDecision = "BAT"
	TossBowl TossDecision = "BOWL"
)

// Header carries the hosted-entity fields shared by both match variants.
// IsOnline designates which store holds the canonical record; the share link
// only exists for online-hosted matches.
type Header struct {
	ID             string    `json:"entityId"`
	Name           string    `json:"name"`
	HostUserID     string    `json:"hostUserId"`
	SportID        Sport     `json:"sportId"`
	Status         Status    `json:"matchStatus"`
	Venue          string    `json:"venue,omitempty"`
	MatchDate      time.Time `json:"matchDate,omitempty"`
	TournamentID   string    `json:"tournamentId,omitempty"`
	SeriesID       string    `json:"seriesId,omitempty"`
	WinnerTeamID   string    `json:"winnerTeamId,omitempty"`
	IsOnline       bool      `json:"isOnline"`
	VisibilityLink string    `json:"visibilityLink,omitempty"`
}

// Match is the sport-polymorphic aggregate root.
type Match interface {
	MatchID() string
	SportKind() Sport
	MatchStatus() Status
	HostedHeader() Header
	// WithID returns a copy carrying the given ID; used by the store layer
	// when the backend generates the ID.
	WithID(id string) Match
}

// Result summarizes a completed match for standings and brackets.
type Result struct {
	MatchID      string `json:"matchId"`
	WinnerTeamID string `json:"winnerTeamId,omitempty"`
	IsDraw       bool   `json:"isDraw"`
	IsNoResult   bool   `json:"isNoResult"`
	Summary      string `json:"summary,omitempty"`
}

// CricketConfig is the host-chosen format for a cricket match.
type CricketConfig struct {
	OversPerInnings int  `json:"numberOfOvers"`
	PlayersPerSide  int  `json:"playersPerSide,omitempty"`
	WideCountsRun   bool `json:"wideOn"`
	NoBallCountsRun bool `json:"noBallOn"`
}

// Wickets ending an innings: playersPerSide - 1, defaulting to ten.
func (c CricketConfig) WicketsLimit() int {
	if c.PlayersPerSide > 1 {
		return c.PlayersPerSide - 1
	}
	return 10
}

type CricketMatch struct {
	Header
	Config           CricketConfig    `json:"matchConfig"`
	Teams            []team.MatchTeam `json:"teams,omitempty"`
	TossWinnerTeamID string           `json:"tossWinnerTeamId,omitempty"`
	TossDecision     TossDecision     `json:"tossDecision,omitempty"`
	CurrentInnings   int              `json:"currentInningsNumber"`
	TargetScore      int              `json:"targetScore"`
	Result           *Result          `json:"matchResult,omitempty"`
}

func (m CricketMatch) MatchID() string      { return m.ID }
func (m CricketMatch) SportKind() Sport     { return SportCricket }
func (m CricketMatch) MatchStatus() Status  { return m.Status }
func (m CricketMatch) HostedHeader() Header { return m.Header }

func (m CricketMatch) WithID(id string) Match {
	m.ID = id
	return m
}

// TeamByID looks up a participating side.
func (m CricketMatch) TeamByID(teamID string) (team.MatchTeam, bool) {
	for _, t := range m.Teams {
		if t.TeamID == teamID {
			return t, true
		}
	}
	return team.MatchTeam{}, false
}

// OpponentOf returns the other participating side.
func (m CricketMatch) OpponentOf(teamID string) (team.MatchTeam, bool) {
	for _, t := range m.Teams {
		if t.TeamID != teamID {
			return t, true
		}
	}
	return team.MatchTeam{}, false
}

type FootballConfig struct {
	HalfMinutes      int  `json:"halfMinutes"`
	ExtraTimeAllowed bool `json:"extraTimeAllowed"`
	PlayersPerSide   int  `json:"playersPerSide,omitempty"`
}

type Period string

const (
	PeriodFirstHalf  Period = "FIRST_HALF"
	PeriodHalfTime   Period = "HALF_TIME"
	PeriodSecondHalf Period = "SECOND_HALF"
	PeriodExtraTime  Period = "EXTRA_TIME"
	PeriodFullTime   Period = "FULL_TIME"
)

type FootballMatch struct {
	Header
	Config        FootballConfig   `json:"matchConfig"`
	Teams         []team.MatchTeam `json:"teams,omitempty"`
	HomeScore     int              `json:"homeScore"`
	AwayScore     int              `json:"awayScore"`
	CurrentMinute int              `json:"currentMatchMinute"`
	Period        Period           `json:"matchPeriod,omitempty"`
	Result        *Result          `json:"matchResult,omitempty"`
}

func (m FootballMatch) MatchID() string      { return m.ID }
func (m FootballMatch) SportKind() Sport     { return SportFootball }
func (m FootballMatch) MatchStatus() Status  { return m.Status }
func (m FootballMatch) HostedHeader() Header { return m.Header }

func (m FootballMatch) WithID(id string) Match {
	m.ID = id
	return m
}

// HomeTeam returns the home side when present.
func (m FootballMatch) HomeTeam() (team.MatchTeam, bool) {
	for _, t := range m.Teams {
		if t.IsHome {
			return t, true
		}
	}
	return team.MatchTeam{}, false
}

// AwayTeam returns the away side when present.
func (m FootballMatch) AwayTeam() (team.MatchTeam, bool) {
	for _, t := range m.Teams {
		if !t.IsHome {
			return t, true
		}
	}
	return team.MatchTeam{}, false
}
