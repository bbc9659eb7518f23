package match

// Innings is one team's batting turn. Stored as its own document, overs in a
// separate collection, to keep document sizes bounded. TotalRuns and
// WicketsFallen only ever grow while the innings is open.
type Innings struct {
	ID            string `json:"inningsId"`
	MatchID       string `json:"matchId"`
	Number        int    `json:"inningsNumber"`
	BattingTeamID string `json:"battingTeamId"`
	BowlingTeamID string `json:"bowlingTeamId"`
	TotalRuns     int    `json:"totalRuns"`
	WicketsFallen int    `json:"wicketsFallen"`
	OversDone     int    `json:"oversCompleted"`
	Completed     bool   `json:"isCompleted"`
	Byes          int    `json:"byes"`
	LegByes       int    `json:"legByes"`
	Wides         int    `json:"wides"`
	NoBalls       int    `json:"noBalls"`
}

// Over is a block of deliveries by one bowler. Complete exactly when six
// legal deliveries have been bowled, or when declared complete explicitly.
type Over struct {
	ID         string `json:"overId"`
	InningsID  string `json:"inningsId"`
	Number     int    `json:"overNumber"`
	BowlerID   string `json:"bowlerId"`
	Runs       int    `json:"runsInOver"`
	Wickets    int    `json:"wicketsInOver"`
	LegalBalls int    `json:"legalDeliveries"`
	Completed  bool   `json:"isCompleted"`
}

const LegalBallsPerOver = 6
