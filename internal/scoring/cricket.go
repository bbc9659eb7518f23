package scoring

import (
	"fmt"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/matchday/scorekeeper/internal/domain/event"
	"github.com/matchday/scorekeeper/internal/domain/match"
)

// Delivery is the host's input for one cricket ball. Document IDs are not
// part of it; commands carry pre-allocated IDs so the engine stays pure.
type Delivery struct {
	BatRuns    int
	Extras     event.ExtrasType
	ExtraRuns  int
	IsWicket   bool
	WicketType event.WicketType
	// DismissedID defaults to the striker when empty.
	DismissedID string
	IsBoundary  bool
	RecordedAt  time.Time
}

func (d Delivery) extras() event.ExtrasType {
	if d.Extras == "" {
		return event.ExtrasNone
	}
	return d.Extras
}

// TotalRuns is everything the delivery adds to the innings: bat runs, runs
// taken as extras, and the automatic wide/no-ball penalty.
func (d Delivery) TotalRuns() int {
	return d.BatRuns + d.ExtraRuns + d.extras().PenaltyRuns()
}

// StartMatch runs the toss and opens the first innings. The toss winner's
// decision fixes who bats; the match goes LIVE but deliveries still need
// openers and a bowler selected.
type StartMatch struct {
	TossWinnerTeamID string
	Decision         match.TossDecision
	InningsID        string
}

func (StartMatch) Name() string { return "START_MATCH" }

func (c StartMatch) Apply(s MatchState) (MatchState, error) {
	if s.Match.Status != match.StatusScheduled {
		return s, errors.Wrapf(ErrAlreadyStarted, "status %s", s.Match.Status)
	}
	winner, ok := s.Match.TeamByID(c.TossWinnerTeamID)
	if !ok {
		return s, errors.Wrapf(ErrInvalidSelection, "toss winner %s is not playing", c.TossWinnerTeamID)
	}
	if c.Decision != match.TossBat && c.Decision != match.TossBowl {
		return s, errors.Wrapf(ErrInvalidSelection, "toss decision %q", c.Decision)
	}
	other, ok := s.Match.OpponentOf(winner.TeamID)
	if !ok {
		return s, errors.Wrap(ErrInvalidSelection, "match needs two teams")
	}

	batting, bowling := winner.TeamID, other.TeamID
	if c.Decision == match.TossBowl {
		batting, bowling = bowling, batting
	}

	s = s.clone()
	s.Match.TossWinnerTeamID = c.TossWinnerTeamID
	s.Match.TossDecision = c.Decision
	s.Match.Status = match.StatusLive
	s.Match.CurrentInnings = 1
	s.Innings = append(s.Innings, match.Innings{
		ID:            c.InningsID,
		MatchID:       s.Match.ID,
		Number:        1,
		BattingTeamID: batting,
		BowlingTeamID: bowling,
	})
	return s, nil
}

// SelectBatsman fills the open batting slot: the openers before the first
// ball, or the replacement after a wicket.
type SelectBatsman struct {
	PlayerID string
}

func (SelectBatsman) Name() string { return "SELECT_BATSMAN" }

func (c SelectBatsman) Apply(s MatchState) (MatchState, error) {
	if s.Match.Status != match.StatusLive {
		return s, ErrMatchNotLive
	}
	if c.PlayerID == "" {
		return s, errors.Wrap(ErrInvalidSelection, "batsman id is empty")
	}
	if c.PlayerID == s.StrikerID || c.PlayerID == s.NonStrikerID {
		return s, errors.Wrapf(ErrInvalidSelection, "%s is already at the crease", c.PlayerID)
	}

	s = s.clone()
	switch {
	case s.StrikerID == "":
		s.StrikerID = c.PlayerID
		s.PendingBatsman = false
	case s.NonStrikerID == "":
		s.NonStrikerID = c.PlayerID
		s.PendingBatsman = false
	case s.PendingBatsman:
		// the dismissal vacated a slot; pending stays until one is empty,
		// so reaching here with both filled is a bug guard
		return s, errors.Wrap(ErrInvalidSelection, "no open batting slot")
	default:
		return s, errors.Wrap(ErrInvalidSelection, "both batsmen already selected")
	}
	return s, nil
}

// SelectBowler opens a new over for the given bowler. The previous over's
// bowler is rejected whether the pick comes from here or from the rotation
// queue.
type SelectBowler struct {
	BowlerID string
	OverID   string
}

func (SelectBowler) Name() string { return "SELECT_BOWLER" }

func (c SelectBowler) Apply(s MatchState) (MatchState, error) {
	if s.Match.Status != match.StatusLive {
		return s, ErrMatchNotLive
	}
	if c.BowlerID == "" {
		return s, errors.Wrap(ErrInvalidSelection, "bowler id is empty")
	}
	inn, open := s.CurrentInnings()
	if !open {
		return s, ErrInningsComplete
	}
	if _, overOpen := s.CurrentOver(); overOpen {
		return s, errors.Wrap(ErrInvalidSelection, "an over is already in progress")
	}
	if c.BowlerID == s.LastOverBowlerID {
		return s, errors.Wrapf(ErrSameBowler, "%s bowled the previous over", c.BowlerID)
	}

	s = s.clone()
	s.Overs = append(s.Overs, match.Over{
		ID:        c.OverID,
		InningsID: inn.ID,
		Number:    inn.OversDone + 1,
		BowlerID:  c.BowlerID,
	})
	s.PendingBowler = false
	return s, nil
}

// SetBowlingRotation installs a bowler queue; completed overs auto-open the
// next over for the next queued bowler instead of pausing for selection.
type SetBowlingRotation struct {
	BowlerIDs []string
}

func (SetBowlingRotation) Name() string { return "SET_BOWLING_ROTATION" }

func (c SetBowlingRotation) Apply(s MatchState) (MatchState, error) {
	if s.Match.Status != match.StatusLive {
		return s, ErrMatchNotLive
	}
	if len(c.BowlerIDs) < 2 {
		return s, errors.Wrap(ErrInvalidSelection, "rotation needs at least two bowlers")
	}

	s = s.clone()
	s.BowlerQueue = append([]string(nil), c.BowlerIDs...)
	s.queueNext = 0
	return s, nil
}

// AddDelivery commits one ball. NextOverID is only consumed when this ball
// completes the over and a rotation queue can open the next one directly.
type AddDelivery struct {
	BallID     string
	NextOverID string
	Input      Delivery
}

func (AddDelivery) Name() string { return "ADD_DELIVERY" }

func (c AddDelivery) Apply(s MatchState) (MatchState, error) {
	if s.Match.Status != match.StatusLive {
		return s, ErrMatchNotLive
	}
	if s.PendingBatsman {
		return s, ErrBatsmanPending
	}
	if s.PendingBowler {
		return s, ErrBowlerPending
	}
	if s.StrikerID == "" || s.NonStrikerID == "" {
		return s, errors.Wrap(ErrSelectionNeeded, "openers not selected")
	}

	inn, inningsOpen := s.CurrentInnings()
	if !inningsOpen {
		return s, ErrInningsComplete
	}
	over, overOpen := s.CurrentOver()
	if !overOpen {
		return s, errors.Wrap(ErrSelectionNeeded, "no over in progress")
	}
	if over.LegalBalls >= match.LegalBallsPerOver {
		return s, ErrOverComplete
	}

	d := c.Input
	if d.Extras == event.ExtrasWide && d.BatRuns != 0 {
		return s, errors.Wrap(ErrInvalidSelection, "bat runs off a wide")
	}
	if d.BatRuns < 0 || d.ExtraRuns < 0 {
		return s, errors.Wrap(ErrInvalidSelection, "negative runs")
	}
	if d.IsWicket && d.WicketType == "" {
		return s, errors.Wrap(ErrInvalidSelection, "wicket without a type")
	}

	s = s.clone()
	ii, oi := s.currentInningsIndex(), s.currentOverIndex()

	total := d.TotalRuns()
	legal := d.extras().LegalDelivery()

	s.Innings[ii].TotalRuns += total
	s.Overs[oi].Runs += total
	switch d.extras() {
	case event.ExtrasWide:
		s.Innings[ii].Wides += d.extras().PenaltyRuns() + d.ExtraRuns
	case event.ExtrasNoBall:
		s.Innings[ii].NoBalls += d.extras().PenaltyRuns()
	case event.ExtrasBye:
		s.Innings[ii].Byes += d.ExtraRuns
	case event.ExtrasLegBye:
		s.Innings[ii].LegByes += d.ExtraRuns
	}
	if legal {
		s.Overs[oi].LegalBalls++
	}

	dismissed := ""
	if d.IsWicket {
		dismissed = d.DismissedID
		if dismissed == "" {
			dismissed = s.StrikerID
		}
		s.Innings[ii].WicketsFallen++
		s.Overs[oi].Wickets++
	}

	ball := event.Ball{
		ID:            c.BallID,
		MatchID:       s.Match.ID,
		InningsID:     inn.ID,
		OverID:        over.ID,
		BallNumber:    len(s.ballsInOver(over.ID)) + 1,
		StrikerID:     s.StrikerID,
		NonStrikerID:  s.NonStrikerID,
		BowlerID:      over.BowlerID,
		BatRuns:       d.BatRuns,
		ExtraRuns:     d.ExtraRuns + d.extras().PenaltyRuns(),
		TotalRuns:     total,
		ExtrasType:    d.extras(),
		IsWicket:      d.IsWicket,
		WicketType:    d.WicketType,
		DismissedID:   dismissed,
		IsBoundary:    d.IsBoundary,
		RunsAtBall:    s.Innings[ii].TotalRuns,
		WicketsAtBall: s.Innings[ii].WicketsFallen,
		RecordedAt:    d.RecordedAt,
	}
	s.Balls = append(s.Balls, ball)

	if d.IsWicket {
		switch dismissed {
		case s.NonStrikerID:
			s.NonStrikerID = ""
		default:
			s.StrikerID = ""
		}
		s.PendingBatsman = true
	}

	// batsmen cross on odd physical runs
	if (d.BatRuns+d.ExtraRuns)%2 == 1 {
		s.StrikerID, s.NonStrikerID = s.NonStrikerID, s.StrikerID
	}

	if legal && s.Overs[oi].LegalBalls == match.LegalBallsPerOver {
		s = s.completeOver(oi, c.NextOverID)
	}

	return s.settleInnings()
}

// EndOver declares the in-progress over finished before six legal balls,
// for an injured or retired bowler. The close follows the same path as a
// sixth ball: strike rotates, the queue or a pending selection supplies the
// next bowler, and the innings settles if this was the final over.
type EndOver struct {
	NextOverID string
}

func (EndOver) Name() string { return "END_OVER" }

func (c EndOver) Apply(s MatchState) (MatchState, error) {
	if s.Match.Status != match.StatusLive {
		return s, ErrMatchNotLive
	}
	if _, inningsOpen := s.CurrentInnings(); !inningsOpen {
		return s, ErrInningsComplete
	}
	over, overOpen := s.CurrentOver()
	if !overOpen {
		return s, errors.Wrap(ErrSelectionNeeded, "no over in progress")
	}
	if over.LegalBalls == 0 {
		return s, errors.Wrap(ErrInvalidSelection, "over has no deliveries")
	}

	s = s.clone()
	s = s.completeOver(s.currentOverIndex(), c.NextOverID)
	return s.settleInnings()
}

// completeOver closes the over, rotates strike, and either opens the next
// over from the rotation queue or flags a pending bowler selection.
func (s MatchState) completeOver(oi int, nextOverID string) MatchState {
	s.Overs[oi].Completed = true
	ii := s.currentInningsIndex()
	s.Innings[ii].OversDone++
	s.LastOverBowlerID = s.Overs[oi].BowlerID
	s.StrikerID, s.NonStrikerID = s.NonStrikerID, s.StrikerID

	next, ok := s.nextQueuedBowler()
	if ok && nextOverID != "" {
		s.Overs = append(s.Overs, match.Over{
			ID:        nextOverID,
			InningsID: s.Innings[ii].ID,
			Number:    s.Innings[ii].OversDone + 1,
			BowlerID:  next,
		})
		return s
	}

	s.PendingBowler = true
	return s
}

// nextQueuedBowler advances the rotation, skipping whoever bowled the last
// over so the consecutive-over rule holds on the queue path too.
func (s *MatchState) nextQueuedBowler() (string, bool) {
	n := len(s.BowlerQueue)
	for tried := 0; tried < n; tried++ {
		candidate := s.BowlerQueue[s.queueNext%n]
		s.queueNext++
		if candidate != s.LastOverBowlerID {
			return candidate, true
		}
	}
	return "", false
}

// settleInnings checks the end-of-innings conditions after a ball and, for
// the second innings, the end of the match.
func (s MatchState) settleInnings() (MatchState, error) {
	ii := s.currentInningsIndex()
	if ii < 0 || s.Innings[ii].Completed {
		return s, nil
	}
	inn := s.Innings[ii]

	allOut := inn.WicketsFallen >= s.Match.Config.WicketsLimit()
	oversGone := inn.OversDone >= s.Match.Config.OversPerInnings
	chased := inn.Number == 2 && s.Match.TargetScore > 0 && inn.TotalRuns >= s.Match.TargetScore
	if !allOut && !oversGone && !chased {
		return s, nil
	}

	s.Innings[ii].Completed = true
	if oi := s.currentOverIndex(); oi >= 0 {
		s.Overs[oi].Completed = true
	}
	s.StrikerID, s.NonStrikerID = "", ""
	s.PendingBatsman, s.PendingBowler = false, false
	s.LastOverBowlerID = ""
	s.queueNext = 0

	if inn.Number == 1 {
		s.FirstInningsTotal = inn.TotalRuns
		s.Match.TargetScore = inn.TotalRuns + 1
		return s, nil
	}

	s.Match.Status = match.StatusCompleted
	s.Match.Result = s.decideResult(inn)
	s.Match.WinnerTeamID = s.Match.Result.WinnerTeamID
	return s, nil
}

func (s MatchState) decideResult(second match.Innings) *match.Result {
	target := s.Match.TargetScore
	switch {
	case second.TotalRuns >= target:
		wicketsLeft := s.Match.Config.WicketsLimit() - second.WicketsFallen
		return &match.Result{
			MatchID:      s.Match.ID,
			WinnerTeamID: second.BattingTeamID,
			Summary:      winSummary(second.BattingTeamID, wicketsLeft, "wicket"),
		}
	case second.TotalRuns == target-1:
		return &match.Result{MatchID: s.Match.ID, IsDraw: true, Summary: "match tied"}
	default:
		margin := target - 1 - second.TotalRuns
		return &match.Result{
			MatchID:      s.Match.ID,
			WinnerTeamID: second.BowlingTeamID,
			Summary:      winSummary(second.BowlingTeamID, margin, "run"),
		}
	}
}

// StartNextInnings opens the chase once the first innings has closed.
type StartNextInnings struct {
	InningsID string
}

func (StartNextInnings) Name() string { return "START_NEXT_INNINGS" }

func (c StartNextInnings) Apply(s MatchState) (MatchState, error) {
	if s.Match.Status != match.StatusLive {
		return s, ErrMatchNotLive
	}
	if len(s.Innings) != 1 || !s.Innings[0].Completed {
		return s, errors.Wrap(ErrInvalidSelection, "first innings still open")
	}

	first := s.Innings[0]
	s = s.clone()
	s.Match.CurrentInnings = 2
	s.Innings = append(s.Innings, match.Innings{
		ID:            c.InningsID,
		MatchID:       s.Match.ID,
		Number:        2,
		BattingTeamID: first.BowlingTeamID,
		BowlingTeamID: first.BattingTeamID,
	})
	return s, nil
}

// AbandonMatch voids the match; standings treat it as a no-result.
type AbandonMatch struct {
	Reason string
}

func (AbandonMatch) Name() string { return "ABANDON_MATCH" }

func (c AbandonMatch) Apply(s MatchState) (MatchState, error) {
	if s.Match.Status.Terminal() {
		return s, errors.Wrapf(ErrMatchNotLive, "status %s", s.Match.Status)
	}

	s = s.clone()
	s.Match.Status = match.StatusAbandoned
	s.Match.Result = &match.Result{MatchID: s.Match.ID, IsNoResult: true, Summary: c.Reason}
	s.PendingBatsman, s.PendingBowler = false, false
	return s, nil
}

func winSummary(teamID string, margin int, unit string) string {
	if margin != 1 {
		unit += "s"
	}
	return fmt.Sprintf("%s won by %d %s", teamID, margin, unit)
}

func (s MatchState) ballsInOver(overID string) []event.Ball {
	out := make([]event.Ball, 0, match.LegalBallsPerOver)
	for _, b := range s.Balls {
		if b.OverID == overID {
			out = append(out, b)
		}
	}
	return out
}
