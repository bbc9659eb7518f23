// Package scoring is the in-memory match engine. State values are
// snapshots: applying a command returns a new state and never mutates the
// input, which is what makes the undo stack a plain stack of prior values.
package scoring

import (
	"github.com/cockroachdb/errors"

	"github.com/matchday/scorekeeper/internal/domain/event"
	"github.com/matchday/scorekeeper/internal/domain/match"
)

// Engine validation failures. All are synchronous rejections; the state a
// failed command was applied to is still the committed state.
var (
	ErrMatchNotLive     = errors.New("match is not live")
	ErrMatchNotStarted  = errors.New("match has not been started")
	ErrAlreadyStarted   = errors.New("match already started")
	ErrSelectionNeeded  = errors.New("player selection required")
	ErrOverComplete     = errors.New("over already complete")
	ErrInningsComplete  = errors.New("innings already complete")
	ErrSameBowler       = errors.New("bowler cannot bowl consecutive overs")
	ErrBatsmanPending   = errors.New("next batsman not selected")
	ErrBowlerPending    = errors.New("next bowler not selected")
	ErrNothingToUndo    = errors.New("nothing to undo")
	ErrNothingToRedo    = errors.New("nothing to redo")
	ErrWrongSport       = errors.New("command does not apply to this sport")
	ErrInvalidSelection = errors.New("invalid player selection")
)

// MatchState is the full cricket scoring snapshot: the aggregate documents
// as they would be persisted plus the at-the-crease bookkeeping that never
// leaves the host device.
type MatchState struct {
	Match   match.CricketMatch
	Innings []match.Innings
	Overs   []match.Over
	Balls   []event.Ball

	StrikerID    string
	NonStrikerID string

	// PendingBatsman is set after a wicket until SelectBatsman; while set,
	// deliveries are rejected.
	PendingBatsman bool
	// PendingBowler is set after an over completes until SelectBowler (or a
	// queue pick); while set, deliveries are rejected.
	PendingBowler bool
	// LastOverBowlerID is the bowler of the most recently completed over;
	// the next over must go to someone else.
	LastOverBowlerID string

	// BowlerQueue, when non-empty, auto-rotates the next over's bowler.
	BowlerQueue []string
	queueNext   int

	FirstInningsTotal int
}

// NewMatchState wraps a scheduled cricket match for the engine.
func NewMatchState(m match.CricketMatch) MatchState {
	return MatchState{Match: m}
}

// clone deep-copies the slice-valued fields so that mutating the copy can
// never reach into a snapshot held by the history stack.
func (s MatchState) clone() MatchState {
	s.Innings = append([]match.Innings(nil), s.Innings...)
	s.Overs = append([]match.Over(nil), s.Overs...)
	s.Balls = append([]event.Ball(nil), s.Balls...)
	s.BowlerQueue = append([]string(nil), s.BowlerQueue...)
	return s
}

// CurrentInnings returns the innings in progress. ok is false before the
// toss and after the match completes.
func (s MatchState) CurrentInnings() (match.Innings, bool) {
	if len(s.Innings) == 0 {
		return match.Innings{}, false
	}
	last := s.Innings[len(s.Innings)-1]
	if last.Completed {
		return last, false
	}
	return last, true
}

// CurrentOver returns the over accepting deliveries, if any.
func (s MatchState) CurrentOver() (match.Over, bool) {
	if len(s.Overs) == 0 {
		return match.Over{}, false
	}
	last := s.Overs[len(s.Overs)-1]
	if last.Completed {
		return last, false
	}
	return last, true
}

// Score reports the live (runs, wickets) of the current innings.
func (s MatchState) Score() (runs, wickets int) {
	if len(s.Innings) == 0 {
		return 0, 0
	}
	last := s.Innings[len(s.Innings)-1]
	return last.TotalRuns, last.WicketsFallen
}

// LastBall returns the most recent delivery, if one exists.
func (s MatchState) LastBall() (event.Ball, bool) {
	if len(s.Balls) == 0 {
		return event.Ball{}, false
	}
	return s.Balls[len(s.Balls)-1], true
}

func (s MatchState) currentInningsIndex() int {
	return len(s.Innings) - 1
}

func (s MatchState) currentOverIndex() int {
	return len(s.Overs) - 1
}
