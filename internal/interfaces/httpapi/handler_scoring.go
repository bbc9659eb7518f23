package httpapi

import (
	"net/http"
	"time"

	"github.com/matchday/scorekeeper/internal/domain/event"
	"github.com/matchday/scorekeeper/internal/domain/match"
	"github.com/matchday/scorekeeper/internal/scoring"
)

// cricketStateDTO is the live scoreboard a host or viewer polls: the match
// aggregate plus its innings, overs, and ball log, with the host-local crease
// bookkeeping alongside.
type cricketStateDTO struct {
	Match             match.CricketMatch `json:"match"`
	Innings           []match.Innings    `json:"innings"`
	Overs             []match.Over       `json:"overs"`
	Balls             []event.Ball       `json:"balls"`
	StrikerID         string             `json:"strikerId,omitempty"`
	NonStrikerID      string             `json:"nonStrikerId,omitempty"`
	LastOverBowlerID  string             `json:"lastOverBowlerId,omitempty"`
	FirstInningsTotal int                `json:"firstInningsTotal"`
}

func cricketStateToDTO(s scoring.MatchState) cricketStateDTO {
	return cricketStateDTO{
		Match:             s.Match,
		Innings:           s.Innings,
		Overs:             s.Overs,
		Balls:             s.Balls,
		StrikerID:         s.StrikerID,
		NonStrikerID:      s.NonStrikerID,
		LastOverBowlerID:  s.LastOverBowlerID,
		FirstInningsTotal: s.FirstInningsTotal,
	}
}

type footballStateDTO struct {
	Match    match.FootballMatch   `json:"match"`
	Timeline []event.FootballEvent `json:"timeline"`
}

func footballStateToDTO(s scoring.FootballState) footballStateDTO {
	return footballStateDTO{
		Match:    s.Match,
		Timeline: s.Timeline(),
	}
}

type startCricketMatchRequest struct {
	TossWinnerTeamID string `json:"tossWinnerTeamId" validate:"required"`
	TossDecision     string `json:"tossDecision" validate:"required,oneof=BAT BOWL"`
}

func (h *Handler) StartCricketMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartCricketMatch")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req startCricketMatchRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := r.PathValue("matchID")
	state, err := h.sessions.StartCricketMatch(ctx, principal.UserID, matchID, req.TossWinnerTeamID, match.TossDecision(req.TossDecision))
	if err != nil {
		h.logger.WarnContext(ctx, "start match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cricketStateToDTO(state))
}

type selectPlayerRequest struct {
	PlayerID string `json:"playerId" validate:"required"`
}

func (h *Handler) SelectBatsman(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SelectBatsman")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req selectPlayerRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.sessions.SelectBatsman(ctx, principal.UserID, r.PathValue("matchID"), req.PlayerID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cricketStateToDTO(state))
}

func (h *Handler) SelectBowler(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SelectBowler")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req selectPlayerRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.sessions.SelectBowler(ctx, principal.UserID, r.PathValue("matchID"), req.PlayerID)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cricketStateToDTO(state))
}

type bowlingRotationRequest struct {
	BowlerIDs []string `json:"bowlerIds" validate:"required,min=1,dive,required"`
}

func (h *Handler) SetBowlingRotation(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.SetBowlingRotation")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req bowlingRotationRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.sessions.SetBowlingRotation(ctx, principal.UserID, r.PathValue("matchID"), req.BowlerIDs)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cricketStateToDTO(state))
}

type deliveryRequest struct {
	BatRuns     int    `json:"runsScoredBat" validate:"min=0,max=7"`
	Extras      string `json:"extrasType" validate:"omitempty,oneof=NONE WIDE NO_BALL BYE LEG_BYE PENALTY"`
	ExtraRuns   int    `json:"runsScoredExtras" validate:"min=0"`
	IsWicket    bool   `json:"isWicket"`
	WicketType  string `json:"wicketType" validate:"omitempty,oneof=BOWLED CAUGHT LBW RUN_OUT STUMPED HIT_WICKET HIT_BALL_TWICE OBSTRUCTING TIMED_OUT RETIRED_OUT"`
	DismissedID string `json:"dismissedPlayerId"`
	IsBoundary  bool   `json:"isBoundary"`
}

func (h *Handler) RecordDelivery(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordDelivery")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req deliveryRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := r.PathValue("matchID")
	state, err := h.sessions.RecordDelivery(ctx, principal.UserID, matchID, scoring.Delivery{
		BatRuns:     req.BatRuns,
		Extras:      event.ExtrasType(req.Extras),
		ExtraRuns:   req.ExtraRuns,
		IsWicket:    req.IsWicket,
		WicketType:  event.WicketType(req.WicketType),
		DismissedID: req.DismissedID,
		IsBoundary:  req.IsBoundary,
		RecordedAt:  time.Now().UTC(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record delivery failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cricketStateToDTO(state))
}

func (h *Handler) EndOver(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.EndOver")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.sessions.EndOver(ctx, principal.UserID, r.PathValue("matchID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cricketStateToDTO(state))
}

func (h *Handler) StartNextInnings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.StartNextInnings")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.sessions.StartNextInnings(ctx, principal.UserID, r.PathValue("matchID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cricketStateToDTO(state))
}

func (h *Handler) KickOff(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.KickOff")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.sessions.KickOff(ctx, principal.UserID, r.PathValue("matchID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, footballStateToDTO(state))
}

type footballEventRequest struct {
	TeamID      string `json:"teamId" validate:"required"`
	Category    string `json:"eventCategory" validate:"required,oneof=GOAL CARD SUBSTITUTION CORNER FREE_KICK PENALTY SAVE SHOT FOUL OFFSIDE VAR_REVIEW"`
	MatchMinute int    `json:"matchMinute" validate:"min=0"`
	AddedMinute int    `json:"addedMinute" validate:"min=0"`

	Goal         *event.GoalDetail         `json:"goalDetail,omitempty"`
	Card         *event.CardDetail         `json:"cardDetail,omitempty"`
	Substitution *event.SubstitutionDetail `json:"substitutionDetail,omitempty"`
}

func (h *Handler) RecordFootballEvent(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecordFootballEvent")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req footballEventRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := r.PathValue("matchID")
	state, err := h.sessions.RecordFootballEvent(ctx, principal.UserID, matchID, scoring.FootballEventInput{
		TeamID:       req.TeamID,
		Category:     event.Category(req.Category),
		MatchMinute:  req.MatchMinute,
		AddedMinute:  req.AddedMinute,
		Goal:         req.Goal,
		Card:         req.Card,
		Substitution: req.Substitution,
		RecordedAt:   time.Now().UTC(),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "record football event failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, footballStateToDTO(state))
}

type advancePeriodRequest struct {
	Minute int `json:"matchMinute" validate:"min=0"`
}

func (h *Handler) AdvancePeriod(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AdvancePeriod")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req advancePeriodRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	state, err := h.sessions.AdvancePeriod(ctx, principal.UserID, r.PathValue("matchID"), req.Minute)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, footballStateToDTO(state))
}

type abandonMatchRequest struct {
	Reason string `json:"reason" validate:"max=200"`
}

func (h *Handler) AbandonMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AbandonMatch")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req abandonMatchRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := r.PathValue("matchID")
	if err := h.sessions.AbandonMatch(ctx, principal.UserID, matchID, req.Reason); err != nil {
		h.logger.WarnContext(ctx, "abandon match failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"matchId": matchID, "status": string(match.StatusAbandoned)})
}

func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Undo")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := r.PathValue("matchID")
	if err := h.sessions.Undo(ctx, principal.UserID, matchID); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"matchId": matchID})
}

func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Redo")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := r.PathValue("matchID")
	if err := h.sessions.Redo(ctx, principal.UserID, matchID); err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"matchId": matchID})
}

func (h *Handler) GetCricketState(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetCricketState")
	defer span.End()

	state, err := h.sessions.CricketState(ctx, r.PathValue("matchID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, cricketStateToDTO(state))
}

func (h *Handler) GetFootballState(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetFootballState")
	defer span.End()

	state, err := h.sessions.FootballState(ctx, r.PathValue("matchID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, footballStateToDTO(state))
}
