package playerstats

// Statistics is a per-player per-tournament aggregate, recomputed from match
// results by the statistics service. One row per (tournament, player).
type Statistics struct {
	ID           string `json:"statisticsId"`
	TournamentID string `json:"tournamentId"`
	PlayerID     string `json:"playerId"`
	PlayerName   string `json:"playerName,omitempty"`
	TeamID       string `json:"teamId,omitempty"`
	Matches      int    `json:"matchesPlayed"`

	// Cricket.
	Runs         int     `json:"runsScored"`
	BallsFaced   int     `json:"ballsFaced"`
	Wickets      int     `json:"wicketsTaken"`
	OversBowled  float64 `json:"oversBowled"`
	RunsConceded int     `json:"runsConceded"`
	Catches      int     `json:"catches"`
	TimesOut     int     `json:"timesOut"`
	HighScore    int     `json:"highestScore"`

	// Football.
	Goals       int `json:"goals"`
	Assists     int `json:"assists"`
	YellowCards int `json:"yellowCards"`
	RedCards    int `json:"redCards"`
}

// BattingAverage is runs per dismissal; zero dismissals yields the run total.
func (s Statistics) BattingAverage() float64 {
	if s.TimesOut == 0 {
		return float64(s.Runs)
	}
	return float64(s.Runs) / float64(s.TimesOut)
}

// Economy is runs conceded per over bowled.
func (s Statistics) Economy() float64 {
	if s.OversBowled == 0 {
		return 0
	}
	return float64(s.RunsConceded) / s.OversBowled
}
