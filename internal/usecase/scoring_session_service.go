package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/matchday/scorekeeper/internal/domain/event"
	"github.com/matchday/scorekeeper/internal/domain/match"
	"github.com/matchday/scorekeeper/internal/infrastructure/repository"
	"github.com/matchday/scorekeeper/internal/infrastructure/store"
	"github.com/matchday/scorekeeper/internal/platform/id"
	"github.com/matchday/scorekeeper/internal/platform/logging"
	"github.com/matchday/scorekeeper/internal/scoring"
)

// ScorePermitter answers whether a user may mutate scores on a hosted
// entity. Implemented by the hosting service over the co-host rows.
type ScorePermitter interface {
	CanScore(ctx context.Context, userID string, h match.Header) (bool, error)
}

// ResultObserver is told once when a session drives its match into a
// terminal status. Observers run after the documents are committed, so a
// failing observer is logged and never fails the scoring command; the
// result report endpoint stays available as the manual re-run.
type ResultObserver interface {
	OnMatchCompleted(ctx context.Context, h match.Header) error
}

// ScoringSessionService runs live scoring sessions. A session is the
// in-memory engine state plus its undo stack, keyed by match; the stack is
// host-local and never persisted, while every applied command writes the
// updated aggregate documents back through the doc writer.
type ScoringSessionService struct {
	repos  *repository.Collections
	writer *DocWriter
	perm   ScorePermitter
	ids    id.Generator
	logger *logging.Logger
	now    func() time.Time

	observers []ResultObserver

	mu       sync.Mutex
	cricket  map[string]*cricketSession
	football map[string]*footballSession
}

type cricketSession struct {
	mu      sync.Mutex
	state   scoring.MatchState
	history *scoring.History[scoring.MatchState]
}

type footballSession struct {
	mu      sync.Mutex
	state   scoring.FootballState
	history *scoring.History[scoring.FootballState]
}

func NewScoringSessionService(
	repos *repository.Collections,
	writer *DocWriter,
	perm ScorePermitter,
	ids id.Generator,
	logger *logging.Logger,
) *ScoringSessionService {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &ScoringSessionService{
		repos:    repos,
		writer:   writer,
		perm:     perm,
		ids:      ids,
		logger:   logger,
		now:      time.Now,
		cricket:  make(map[string]*cricketSession),
		football: make(map[string]*footballSession),
	}
}

// AddResultObserver registers observers run when a match finishes. Called
// during wiring, before the service takes traffic.
func (s *ScoringSessionService) AddResultObserver(obs ...ResultObserver) {
	s.observers = append(s.observers, obs...)
}

func (s *ScoringSessionService) notifyCompleted(ctx context.Context, h match.Header) {
	for _, obs := range s.observers {
		if err := obs.OnMatchCompleted(ctx, h); err != nil {
			s.logger.ErrorContext(ctx, "match completion observer failed",
				"match_id", h.ID, "error", err)
		}
	}
}

// StartCricketMatch records the toss and opens the first innings.
func (s *ScoringSessionService) StartCricketMatch(ctx context.Context, userID, matchID, tossWinnerTeamID string, decision match.TossDecision) (scoring.MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.StartCricketMatch")
	defer span.End()

	inningsID, err := s.ids.NewID()
	if err != nil {
		return scoring.MatchState{}, fmt.Errorf("allocate innings id: %w", err)
	}
	return s.applyCricket(ctx, userID, matchID, scoring.StartMatch{
		TossWinnerTeamID: tossWinnerTeamID,
		Decision:         decision,
		InningsID:        inningsID,
	})
}

// SelectBatsman fills the open batting slot.
func (s *ScoringSessionService) SelectBatsman(ctx context.Context, userID, matchID, playerID string) (scoring.MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.SelectBatsman")
	defer span.End()

	return s.applyCricket(ctx, userID, matchID, scoring.SelectBatsman{PlayerID: playerID})
}

// SelectBowler opens a new over for the given bowler.
func (s *ScoringSessionService) SelectBowler(ctx context.Context, userID, matchID, bowlerID string) (scoring.MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.SelectBowler")
	defer span.End()

	overID, err := s.ids.NewID()
	if err != nil {
		return scoring.MatchState{}, fmt.Errorf("allocate over id: %w", err)
	}
	return s.applyCricket(ctx, userID, matchID, scoring.SelectBowler{BowlerID: bowlerID, OverID: overID})
}

// SetBowlingRotation installs a bowler queue for automatic over handover.
func (s *ScoringSessionService) SetBowlingRotation(ctx context.Context, userID, matchID string, bowlerIDs []string) (scoring.MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.SetBowlingRotation")
	defer span.End()

	return s.applyCricket(ctx, userID, matchID, scoring.SetBowlingRotation{BowlerIDs: bowlerIDs})
}

// RecordDelivery commits one ball.
func (s *ScoringSessionService) RecordDelivery(ctx context.Context, userID, matchID string, in scoring.Delivery) (scoring.MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.RecordDelivery")
	defer span.End()

	ballID, err := s.ids.NewID()
	if err != nil {
		return scoring.MatchState{}, fmt.Errorf("allocate ball id: %w", err)
	}
	// Allocated up front so the engine can open the next over directly when
	// this ball completes the current one and a rotation queue is set.
	nextOverID, err := s.ids.NewID()
	if err != nil {
		return scoring.MatchState{}, fmt.Errorf("allocate over id: %w", err)
	}
	if in.RecordedAt.IsZero() {
		in.RecordedAt = s.now().UTC()
	}
	return s.applyCricket(ctx, userID, matchID, scoring.AddDelivery{
		BallID:     ballID,
		NextOverID: nextOverID,
		Input:      in,
	})
}

// EndOver closes the in-progress over before six legal balls, for a bowler
// who cannot finish it.
func (s *ScoringSessionService) EndOver(ctx context.Context, userID, matchID string) (scoring.MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.EndOver")
	defer span.End()

	// Same pre-allocation as RecordDelivery: the engine opens the next over
	// directly when a rotation queue is set.
	nextOverID, err := s.ids.NewID()
	if err != nil {
		return scoring.MatchState{}, fmt.Errorf("allocate over id: %w", err)
	}
	return s.applyCricket(ctx, userID, matchID, scoring.EndOver{NextOverID: nextOverID})
}

// StartNextInnings opens the second innings after the first has closed.
func (s *ScoringSessionService) StartNextInnings(ctx context.Context, userID, matchID string) (scoring.MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.StartNextInnings")
	defer span.End()

	inningsID, err := s.ids.NewID()
	if err != nil {
		return scoring.MatchState{}, fmt.Errorf("allocate innings id: %w", err)
	}
	return s.applyCricket(ctx, userID, matchID, scoring.StartNextInnings{InningsID: inningsID})
}

// KickOff moves a football match into play.
func (s *ScoringSessionService) KickOff(ctx context.Context, userID, matchID string) (scoring.FootballState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.KickOff")
	defer span.End()

	return s.applyFootball(ctx, userID, matchID, scoring.KickOff{})
}

// RecordFootballEvent appends one timeline entry.
func (s *ScoringSessionService) RecordFootballEvent(ctx context.Context, userID, matchID string, in scoring.FootballEventInput) (scoring.FootballState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.RecordFootballEvent")
	defer span.End()

	eventID, err := s.ids.NewID()
	if err != nil {
		return scoring.FootballState{}, fmt.Errorf("allocate event id: %w", err)
	}
	if in.RecordedAt.IsZero() {
		in.RecordedAt = s.now().UTC()
	}
	return s.applyFootball(ctx, userID, matchID, scoring.AddFootballEvent{EventID: eventID, Input: in})
}

// AdvancePeriod moves a football match to its next period, completing the
// match at full time.
func (s *ScoringSessionService) AdvancePeriod(ctx context.Context, userID, matchID string, minute int) (scoring.FootballState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.AdvancePeriod")
	defer span.End()

	eventID, err := s.ids.NewID()
	if err != nil {
		return scoring.FootballState{}, fmt.Errorf("allocate event id: %w", err)
	}
	return s.applyFootball(ctx, userID, matchID, scoring.AdvancePeriod{EventID: eventID, Minute: minute})
}

// AbandonMatch voids a live match of either sport as a no-result.
func (s *ScoringSessionService) AbandonMatch(ctx context.Context, userID, matchID, reason string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.AbandonMatch")
	defer span.End()

	sport, err := s.sportOf(ctx, matchID)
	if err != nil {
		return err
	}
	if sport == match.SportCricket {
		_, err = s.applyCricket(ctx, userID, matchID, scoring.AbandonMatch{Reason: reason})
		return err
	}
	_, err = s.applyFootball(ctx, userID, matchID, scoring.AbandonFootballMatch{Reason: reason})
	return err
}

// Undo restores the snapshot before the last command and re-persists it.
func (s *ScoringSessionService) Undo(ctx context.Context, userID, matchID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.Undo")
	defer span.End()

	sport, err := s.sportOf(ctx, matchID)
	if err != nil {
		return err
	}
	if sport == match.SportCricket {
		return s.stepCricket(ctx, userID, matchID, true)
	}
	return s.stepFootball(ctx, userID, matchID, true)
}

// Redo re-applies the most recently undone command.
func (s *ScoringSessionService) Redo(ctx context.Context, userID, matchID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.Redo")
	defer span.End()

	sport, err := s.sportOf(ctx, matchID)
	if err != nil {
		return err
	}
	if sport == match.SportCricket {
		return s.stepCricket(ctx, userID, matchID, false)
	}
	return s.stepFootball(ctx, userID, matchID, false)
}

// CricketState is the viewer read of a session; no authorization needed.
func (s *ScoringSessionService) CricketState(ctx context.Context, matchID string) (scoring.MatchState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.CricketState")
	defer span.End()

	sess, err := s.cricketSessionFor(ctx, matchID)
	if err != nil {
		return scoring.MatchState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state, nil
}

// FootballState is the football counterpart of CricketState.
func (s *ScoringSessionService) FootballState(ctx context.Context, matchID string) (scoring.FootballState, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ScoringSessionService.FootballState")
	defer span.End()

	sess, err := s.footballSessionFor(ctx, matchID)
	if err != nil {
		return scoring.FootballState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return sess.state, nil
}

func (s *ScoringSessionService) applyCricket(ctx context.Context, userID, matchID string, cmd scoring.Command[scoring.MatchState]) (scoring.MatchState, error) {
	sess, err := s.cricketSessionFor(ctx, matchID)
	if err != nil {
		return scoring.MatchState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.authorize(ctx, userID, sess.state.Match.Header); err != nil {
		return scoring.MatchState{}, err
	}

	before := sess.state
	next, err := cmd.Apply(before)
	if err != nil {
		return scoring.MatchState{}, err
	}
	if err := s.persistCricket(ctx, before, next); err != nil {
		return scoring.MatchState{}, err
	}

	sess.history.Record(before)
	sess.state = next
	if next.Match.Status.Terminal() {
		sess.history.Clear()
		if !before.Match.Status.Terminal() {
			s.notifyCompleted(ctx, next.Match.Header)
		}
	}
	return next, nil
}

func (s *ScoringSessionService) stepCricket(ctx context.Context, userID, matchID string, undo bool) error {
	sess, err := s.cricketSessionFor(ctx, matchID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.authorize(ctx, userID, sess.state.Match.Header); err != nil {
		return err
	}

	current := sess.state
	var next scoring.MatchState
	if undo {
		next, err = sess.history.Undo(current)
	} else {
		next, err = sess.history.Redo(current)
	}
	if err != nil {
		return err
	}

	if err := s.persistCricket(ctx, current, next); err != nil {
		// Put the stack back so a failed undo/redo leaves everything as if
		// it had not been invoked.
		if undo {
			_, _ = sess.history.Redo(next)
		} else {
			_, _ = sess.history.Undo(next)
		}
		return err
	}
	sess.state = next
	return nil
}

func (s *ScoringSessionService) applyFootball(ctx context.Context, userID, matchID string, cmd scoring.Command[scoring.FootballState]) (scoring.FootballState, error) {
	sess, err := s.footballSessionFor(ctx, matchID)
	if err != nil {
		return scoring.FootballState{}, err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.authorize(ctx, userID, sess.state.Match.Header); err != nil {
		return scoring.FootballState{}, err
	}

	before := sess.state
	next, err := cmd.Apply(before)
	if err != nil {
		return scoring.FootballState{}, err
	}
	if err := s.persistFootball(ctx, before, next); err != nil {
		return scoring.FootballState{}, err
	}

	sess.history.Record(before)
	sess.state = next
	if next.Match.Status.Terminal() {
		sess.history.Clear()
		if !before.Match.Status.Terminal() {
			s.notifyCompleted(ctx, next.Match.Header)
		}
	}
	return next, nil
}

func (s *ScoringSessionService) stepFootball(ctx context.Context, userID, matchID string, undo bool) error {
	sess, err := s.footballSessionFor(ctx, matchID)
	if err != nil {
		return err
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()

	if err := s.authorize(ctx, userID, sess.state.Match.Header); err != nil {
		return err
	}

	current := sess.state
	var next scoring.FootballState
	if undo {
		next, err = sess.history.Undo(current)
	} else {
		next, err = sess.history.Redo(current)
	}
	if err != nil {
		return err
	}

	if err := s.persistFootball(ctx, current, next); err != nil {
		if undo {
			_, _ = sess.history.Redo(next)
		} else {
			_, _ = sess.history.Undo(next)
		}
		return err
	}
	sess.state = next
	return nil
}

func (s *ScoringSessionService) authorize(ctx context.Context, userID string, h match.Header) error {
	ok, err := s.perm.CanScore(ctx, userID, h)
	if err != nil {
		return fmt.Errorf("check scoring permission: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w: user %s cannot score match %s", ErrUnauthorized, userID, h.ID)
	}
	return nil
}

func (s *ScoringSessionService) sportOf(ctx context.Context, matchID string) (match.Sport, error) {
	s.mu.Lock()
	_, isCricket := s.cricket[matchID]
	_, isFootball := s.football[matchID]
	s.mu.Unlock()
	if isCricket {
		return match.SportCricket, nil
	}
	if isFootball {
		return match.SportFootball, nil
	}

	m, ok, err := s.repos.Matches.Get(ctx, matchID)
	if err != nil {
		return "", fmt.Errorf("get match: %w", err)
	}
	if !ok {
		return "", fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	return m.SportKind(), nil
}

// cricketSessionFor returns the live session, rebuilding it from the store
// after a process restart. The rebuilt state carries the persisted
// aggregates; who is at the crease is host-device bookkeeping that is not
// persisted, so after a rebuild the host re-selects the batsmen before the
// next ball.
func (s *ScoringSessionService) cricketSessionFor(ctx context.Context, matchID string) (*cricketSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.cricket[matchID]; ok {
		return sess, nil
	}

	m, ok, err := s.repos.Matches.Get(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	cm, isCricket := m.(match.CricketMatch)
	if !isCricket {
		return nil, fmt.Errorf("%w: match %s is not a cricket match", ErrInvalidInput, matchID)
	}

	state := scoring.NewMatchState(cm)
	if cm.Status != match.StatusScheduled {
		innings, err := s.repos.Innings.List(ctx,
			store.NewQuery().Eq("matchId", matchID).OrderBy("inningsNumber"))
		if err != nil {
			return nil, fmt.Errorf("list innings: %w", err)
		}
		var overs []match.Over
		for _, in := range innings {
			part, err := s.repos.Overs.List(ctx,
				store.NewQuery().Eq("inningsId", in.ID).OrderBy("overNumber"))
			if err != nil {
				return nil, fmt.Errorf("list overs: %w", err)
			}
			overs = append(overs, part...)
		}
		balls, err := s.repos.Balls.List(ctx,
			store.NewQuery().Eq("matchId", matchID).OrderBy("recordedAt"))
		if err != nil {
			return nil, fmt.Errorf("list balls: %w", err)
		}

		state.Innings = innings
		state.Overs = overs
		state.Balls = balls
		if len(innings) > 0 && innings[0].Completed {
			state.FirstInningsTotal = innings[0].TotalRuns
		}
		if cur, open := state.CurrentInnings(); open {
			var last match.Over
			for _, ov := range overs {
				if ov.InningsID == cur.ID && ov.Completed && ov.Number > last.Number {
					last = ov
				}
			}
			state.LastOverBowlerID = last.BowlerID
		}
	}

	sess := &cricketSession{state: state, history: scoring.NewHistory[scoring.MatchState](0)}
	s.cricket[matchID] = sess
	return sess, nil
}

func (s *ScoringSessionService) footballSessionFor(ctx context.Context, matchID string) (*footballSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.football[matchID]; ok {
		return sess, nil
	}

	m, ok, err := s.repos.Matches.Get(ctx, matchID)
	if err != nil {
		return nil, fmt.Errorf("get match: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: match %s", ErrNotFound, matchID)
	}
	fm, isFootball := m.(match.FootballMatch)
	if !isFootball {
		return nil, fmt.Errorf("%w: match %s is not a football match", ErrInvalidInput, matchID)
	}

	state := scoring.NewFootballState(fm)
	if fm.Status != match.StatusScheduled {
		events, err := s.repos.FootballEvents.List(ctx,
			store.NewQuery().Eq("matchId", matchID).OrderBy("seq"))
		if err != nil {
			return nil, fmt.Errorf("list events: %w", err)
		}
		state.Events = events
	}

	sess := &footballSession{state: state, history: scoring.NewHistory[scoring.FootballState](0)}
	s.football[matchID] = sess
	return sess, nil
}

// persistCricket writes the documents the command touched: the match plus
// every innings, over and ball that changed, and deletes whatever an undo
// removed. Balls are immutable once committed so forward commands only ever
// add them.
func (s *ScoringSessionService) persistCricket(ctx context.Context, before, after scoring.MatchState) error {
	online := after.Match.IsOnline

	if err := s.writer.Put(ctx, online, repository.CollectionMatches, after.Match.ID, after.Match); err != nil {
		return fmt.Errorf("persist match: %w", err)
	}

	inPuts, inDels := diffDocs(before.Innings, after.Innings, func(d match.Innings) string { return d.ID })
	for _, d := range inPuts {
		if err := s.writer.Put(ctx, online, repository.CollectionInnings, d.ID, d); err != nil {
			return fmt.Errorf("persist innings: %w", err)
		}
	}
	ovPuts, ovDels := diffDocs(before.Overs, after.Overs, func(d match.Over) string { return d.ID })
	for _, d := range ovPuts {
		if err := s.writer.Put(ctx, online, repository.CollectionOvers, d.ID, d); err != nil {
			return fmt.Errorf("persist over: %w", err)
		}
	}
	blPuts, blDels := diffDocs(before.Balls, after.Balls, func(d event.Ball) string { return d.ID })
	for _, d := range blPuts {
		if err := s.writer.Put(ctx, online, repository.CollectionBalls, d.ID, d); err != nil {
			return fmt.Errorf("persist ball: %w", err)
		}
	}

	for _, docID := range blDels {
		if err := s.writer.Delete(ctx, online, repository.CollectionBalls, docID); err != nil {
			return fmt.Errorf("delete ball: %w", err)
		}
	}
	for _, docID := range ovDels {
		if err := s.writer.Delete(ctx, online, repository.CollectionOvers, docID); err != nil {
			return fmt.Errorf("delete over: %w", err)
		}
	}
	for _, docID := range inDels {
		if err := s.writer.Delete(ctx, online, repository.CollectionInnings, docID); err != nil {
			return fmt.Errorf("delete innings: %w", err)
		}
	}
	return nil
}

func (s *ScoringSessionService) persistFootball(ctx context.Context, before, after scoring.FootballState) error {
	online := after.Match.IsOnline

	if err := s.writer.Put(ctx, online, repository.CollectionMatches, after.Match.ID, after.Match); err != nil {
		return fmt.Errorf("persist match: %w", err)
	}

	puts, dels := diffDocs(before.Events, after.Events, func(d event.FootballEvent) string { return d.ID })
	for _, d := range puts {
		if err := s.writer.Put(ctx, online, repository.CollectionFootballEvents, d.ID, d); err != nil {
			return fmt.Errorf("persist event: %w", err)
		}
	}
	for _, docID := range dels {
		if err := s.writer.Delete(ctx, online, repository.CollectionFootballEvents, docID); err != nil {
			return fmt.Errorf("delete event: %w", err)
		}
	}
	return nil
}

// diffDocs compares two document slices by ID and value, returning the
// documents to upsert and the IDs to delete.
func diffDocs[T comparable](before, after []T, idOf func(T) string) (changed []T, removed []string) {
	prev := make(map[string]T, len(before))
	for _, d := range before {
		prev[idOf(d)] = d
	}

	seen := make(map[string]bool, len(after))
	for _, d := range after {
		docID := idOf(d)
		seen[docID] = true
		if p, ok := prev[docID]; !ok || p != d {
			changed = append(changed, d)
		}
	}
	for _, d := range before {
		if docID := idOf(d); !seen[docID] {
			removed = append(removed, docID)
		}
	}
	return changed, removed
}
