package scoring

import (
	"sort"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/matchday/scorekeeper/internal/domain/event"
	"github.com/matchday/scorekeeper/internal/domain/match"
)

// FootballState is the football scoring snapshot: the match document plus
// the flat event timeline.
type FootballState struct {
	Match  match.FootballMatch
	Events []event.FootballEvent
}

func NewFootballState(m match.FootballMatch) FootballState {
	return FootballState{Match: m}
}

func (s FootballState) clone() FootballState {
	s.Events = append([]event.FootballEvent(nil), s.Events...)
	return s
}

// Timeline returns the events in display order: match minute ascending,
// insertion sequence breaking ties within a minute.
func (s FootballState) Timeline() []event.FootballEvent {
	out := append([]event.FootballEvent(nil), s.Events...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].MatchMinute != out[j].MatchMinute {
			return out[i].MatchMinute < out[j].MatchMinute
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// KickOff moves the match into play.
type KickOff struct{}

func (KickOff) Name() string { return "KICK_OFF" }

func (KickOff) Apply(s FootballState) (FootballState, error) {
	if s.Match.Status != match.StatusScheduled {
		return s, errors.Wrapf(ErrAlreadyStarted, "status %s", s.Match.Status)
	}

	s = s.clone()
	s.Match.Status = match.StatusLive
	s.Match.Period = match.PeriodFirstHalf
	return s, nil
}

// FootballEventInput is the host's input for one timeline entry. Exactly
// one detail payload should match the category; the engine assigns Seq and
// the score snapshot.
type FootballEventInput struct {
	TeamID       string
	Category     event.Category
	MatchMinute  int
	AddedMinute  int
	Goal         *event.GoalDetail
	Card         *event.CardDetail
	Substitution *event.SubstitutionDetail
	RecordedAt   time.Time
}

// AddFootballEvent appends one event. Goals move the score; an own goal
// credits the opposing side.
type AddFootballEvent struct {
	EventID string
	Input   FootballEventInput
}

func (AddFootballEvent) Name() string { return "ADD_FOOTBALL_EVENT" }

func (c AddFootballEvent) Apply(s FootballState) (FootballState, error) {
	if s.Match.Status != match.StatusLive {
		return s, ErrMatchNotLive
	}
	in := c.Input
	if in.Category == "" {
		return s, errors.Wrap(ErrInvalidSelection, "event category is empty")
	}
	if in.MatchMinute < 0 {
		return s, errors.Wrap(ErrInvalidSelection, "negative match minute")
	}
	if in.Category == event.CategoryGoal && in.Goal == nil {
		return s, errors.Wrap(ErrInvalidSelection, "goal without detail")
	}
	if in.Category == event.CategoryCard && in.Card == nil {
		return s, errors.Wrap(ErrInvalidSelection, "card without detail")
	}
	if in.Category == event.CategorySubstitution && in.Substitution == nil {
		return s, errors.Wrap(ErrInvalidSelection, "substitution without detail")
	}

	home, hasHome := s.Match.HomeTeam()
	if !hasHome {
		return s, errors.Wrap(ErrInvalidSelection, "match has no home side")
	}

	s = s.clone()
	if in.Category == event.CategoryGoal {
		creditsHome := in.TeamID == home.TeamID
		if in.Goal.IsOwnGoal {
			creditsHome = !creditsHome
		}
		if creditsHome {
			s.Match.HomeScore++
		} else {
			s.Match.AwayScore++
		}
	}
	if in.MatchMinute > s.Match.CurrentMinute {
		s.Match.CurrentMinute = in.MatchMinute
	}

	s.Events = append(s.Events, event.FootballEvent{
		ID:           c.EventID,
		MatchID:      s.Match.ID,
		TeamID:       in.TeamID,
		Category:     in.Category,
		MatchMinute:  in.MatchMinute,
		AddedMinute:  in.AddedMinute,
		Seq:          len(s.Events) + 1,
		Period:       string(s.Match.Period),
		HomeScoreAt:  s.Match.HomeScore,
		AwayScoreAt:  s.Match.AwayScore,
		Goal:         in.Goal,
		Card:         in.Card,
		Substitution: in.Substitution,
		RecordedAt:   in.RecordedAt,
	})
	return s, nil
}

// AdvancePeriod steps the match through its periods; FULL_TIME completes
// the match and fixes the result.
type AdvancePeriod struct {
	EventID string
	Minute  int
}

func (AdvancePeriod) Name() string { return "ADVANCE_PERIOD" }

func (c AdvancePeriod) Apply(s FootballState) (FootballState, error) {
	if s.Match.Status != match.StatusLive {
		return s, ErrMatchNotLive
	}

	next, ok := nextPeriod(s.Match.Period, s.Match.Config.ExtraTimeAllowed)
	if !ok {
		return s, errors.Wrapf(ErrInvalidSelection, "no period after %s", s.Match.Period)
	}

	s = s.clone()
	s.Events = append(s.Events, event.FootballEvent{
		ID:          c.EventID,
		MatchID:     s.Match.ID,
		Category:    event.CategoryPeriodEnd,
		MatchMinute: c.Minute,
		Seq:         len(s.Events) + 1,
		Period:      string(s.Match.Period),
		HomeScoreAt: s.Match.HomeScore,
		AwayScoreAt: s.Match.AwayScore,
	})
	s.Match.Period = next
	if c.Minute > s.Match.CurrentMinute {
		s.Match.CurrentMinute = c.Minute
	}

	if next == match.PeriodFullTime {
		s.Match.Status = match.StatusCompleted
		s.Match.Result = s.decideResult()
		s.Match.WinnerTeamID = s.Match.Result.WinnerTeamID
	}
	return s, nil
}

func nextPeriod(p match.Period, extraTime bool) (match.Period, bool) {
	switch p {
	case match.PeriodFirstHalf:
		return match.PeriodHalfTime, true
	case match.PeriodHalfTime:
		return match.PeriodSecondHalf, true
	case match.PeriodSecondHalf:
		if extraTime {
			return match.PeriodExtraTime, true
		}
		return match.PeriodFullTime, true
	case match.PeriodExtraTime:
		return match.PeriodFullTime, true
	default:
		return "", false
	}
}

func (s FootballState) decideResult() *match.Result {
	home, _ := s.Match.HomeTeam()
	away, _ := s.Match.AwayTeam()
	switch {
	case s.Match.HomeScore > s.Match.AwayScore:
		return &match.Result{MatchID: s.Match.ID, WinnerTeamID: home.TeamID}
	case s.Match.AwayScore > s.Match.HomeScore:
		return &match.Result{MatchID: s.Match.ID, WinnerTeamID: away.TeamID}
	default:
		return &match.Result{MatchID: s.Match.ID, IsDraw: true}
	}
}

// AbandonFootballMatch voids the match as a no-result.
type AbandonFootballMatch struct {
	Reason string
}

func (AbandonFootballMatch) Name() string { return "ABANDON_MATCH" }

func (c AbandonFootballMatch) Apply(s FootballState) (FootballState, error) {
	if s.Match.Status.Terminal() {
		return s, errors.Wrapf(ErrMatchNotLive, "status %s", s.Match.Status)
	}

	s = s.clone()
	s.Match.Status = match.StatusAbandoned
	s.Match.Result = &match.Result{MatchID: s.Match.ID, IsNoResult: true, Summary: c.Reason}
	return s, nil
}
