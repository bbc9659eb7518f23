package team

import "time"

// Team is a reusable roster owned by a host user; matches and tournaments
// reference it by ID.
type Team struct {
	ID         string   `json:"teamId"`
	Name       string   `json:"name"`
	ShortName  string   `json:"shortName,omitempty"`
	HostUserID string   `json:"hostUserId"`
	PlayerIDs  []string `json:"playerIds,omitempty"`
	CreatedAt  time.Time `json:"createdAt,omitempty"`
}

// Player is a registered roster member.
type Player struct {
	ID         string `json:"playerId"`
	Name       string `json:"name"`
	TeamID     string `json:"teamId,omitempty"`
	JerseyNo   int    `json:"jerseyNumber,omitempty"`
	Role       string `json:"role,omitempty"`
	HostUserID string `json:"hostUserId,omitempty"`
}

// HasPlayer reports whether playerID is on the team roster.
func (t Team) HasPlayer(playerID string) bool {
	for _, id := range t.PlayerIDs {
		if id == playerID {
			return true
		}
	}
	return false
}

// MatchTeam is a team's participation in one match: the match-day selection
// of players, not the full roster.
type MatchTeam struct {
	TeamID     string   `json:"teamId"`
	TeamName   string   `json:"teamName"`
	IsHome     bool     `json:"isHome"`
	PlayingXI  []string `json:"playingXI,omitempty"`
	CaptainID  string   `json:"captainId,omitempty"`
	KeeperID   string   `json:"keeperId,omitempty"`
}

// HasPlayer reports whether playerID is in the match-day selection.
func (mt MatchTeam) HasPlayer(playerID string) bool {
	for _, id := range mt.PlayingXI {
		if id == playerID {
			return true
		}
	}
	return false
}
