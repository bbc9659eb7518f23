package event

import "time"

// ExtrasType classifies runs credited outside the batsman's own scoring.
type ExtrasType string

const (
	ExtrasNone    ExtrasType = "NONE"
	ExtrasWide    ExtrasType = "WIDE"
	ExtrasNoBall  ExtrasType = "NO_BALL"
	ExtrasBye     ExtrasType = "BYE"
	ExtrasLegBye  ExtrasType = "LEG_BYE"
	ExtrasPenalty ExtrasType = "PENALTY"
)

// LegalDelivery reports whether a delivery with this extras type counts
// toward the six-ball over. Wides and no-balls do not.
func (e ExtrasType) LegalDelivery() bool {
	return e != ExtrasWide && e != ExtrasNoBall
}

// PenaltyRuns is the automatic run conceded by the delivery itself:
// exactly one for a wide or a no-ball, zero otherwise.
func (e ExtrasType) PenaltyRuns() int {
	if e == ExtrasWide || e == ExtrasNoBall {
		return 1
	}
	return 0
}

type WicketType string

const (
	WicketBowled       WicketType = "BOWLED"
	WicketCaught       WicketType = "CAUGHT"
	WicketLBW          WicketType = "LBW"
	WicketRunOut       WicketType = "RUN_OUT"
	WicketStumped      WicketType = "STUMPED"
	WicketHitWicket    WicketType = "HIT_WICKET"
	WicketHitBallTwice WicketType = "HIT_BALL_TWICE"
	WicketObstructing  WicketType = "OBSTRUCTING"
	WicketTimedOut     WicketType = "TIMED_OUT"
	WicketRetiredOut   WicketType = "RETIRED_OUT"
)

// Ball is one cricket delivery. Immutable once committed; BallNumber is
// strictly increasing within its over. RunsAtBall/WicketsAtBall snapshot the
// innings score after the ball so viewers can render without replaying.
type Ball struct {
	ID            string     `json:"ballId"`
	MatchID       string     `json:"matchId"`
	InningsID     string     `json:"inningsId"`
	OverID        string     `json:"overId"`
	BallNumber    int        `json:"ballNumber"`
	StrikerID     string     `json:"batsmanId"`
	NonStrikerID  string     `json:"nonStrikerId,omitempty"`
	BowlerID      string     `json:"bowlerId"`
	BatRuns       int        `json:"runsScoredBat"`
	ExtraRuns     int        `json:"runsScoredExtras"`
	TotalRuns     int        `json:"runsScored"`
	ExtrasType    ExtrasType `json:"extrasType,omitempty"`
	IsWicket      bool       `json:"isWicket"`
	WicketType    WicketType `json:"wicketType,omitempty"`
	DismissedID   string     `json:"dismissedPlayerId,omitempty"`
	IsBoundary    bool       `json:"isBoundary"`
	RunsAtBall    int        `json:"runsAtBall"`
	WicketsAtBall int        `json:"wicketsAtBall"`
	RecordedAt    time.Time  `json:"recordedAt,omitempty"`
}

// Category classifies football events.
type Category string

const (
	CategoryGoal         Category = "GOAL"
	CategoryCard         Category = "CARD"
	CategorySubstitution Category = "SUBSTITUTION"
	CategoryCorner       Category = "CORNER"
	CategoryFreeKick     Category = "FREE_KICK"
	CategoryPenalty      Category = "PENALTY"
	CategorySave         Category = "SAVE"
	CategoryShot         Category = "SHOT"
	CategoryFoul         Category = "FOUL"
	CategoryOffside      Category = "OFFSIDE"
	CategoryVARReview    Category = "VAR_REVIEW"
	CategoryPeriodEnd    Category = "PERIOD_END"
)

type GoalDetail struct {
	ScorerID   string `json:"scorerId"`
	AssistID   string `json:"assistId,omitempty"`
	IsOwnGoal  bool   `json:"isOwnGoal"`
	IsPenalty  bool   `json:"isPenalty"`
}

type CardDetail struct {
	PlayerID string `json:"playerId"`
	Color    string `json:"color"` // YELLOW or RED
	Reason   string `json:"reason,omitempty"`
}

type SubstitutionDetail struct {
	PlayerOutID string `json:"playerOutId"`
	PlayerInID  string `json:"playerInId"`
}

// FootballEvent is one timeline entry. MatchMinute alone is not a total
// order (several events can share a minute); Seq is the insertion-order
// tie-break and the key readers sort by second.
type FootballEvent struct {
	ID           string              `json:"eventId"`
	MatchID      string              `json:"matchId"`
	TeamID       string              `json:"teamId"`
	Category     Category            `json:"eventCategory"`
	MatchMinute  int                 `json:"matchMinute"`
	AddedMinute  int                 `json:"addedTimeMinute,omitempty"`
	Seq          int                 `json:"seq"`
	Period       string              `json:"matchPeriod,omitempty"`
	HomeScoreAt  int                 `json:"homeScoreAtEvent"`
	AwayScoreAt  int                 `json:"awayScoreAtEvent"`
	Goal         *GoalDetail         `json:"goalDetail,omitempty"`
	Card         *CardDetail         `json:"cardDetail,omitempty"`
	Substitution *SubstitutionDetail `json:"substitutionDetail,omitempty"`
	RecordedAt   time.Time           `json:"recordedAt,omitempty"`
}
