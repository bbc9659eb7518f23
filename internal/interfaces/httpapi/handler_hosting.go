package httpapi

import (
	"net/http"
	"time"

	"github.com/matchday/scorekeeper/internal/domain/cohost"
	"github.com/matchday/scorekeeper/internal/domain/match"
	"github.com/matchday/scorekeeper/internal/domain/tournament"
	"github.com/matchday/scorekeeper/internal/usecase"
)

type teamSelectionRequest struct {
	TeamID    string   `json:"teamId" validate:"required"`
	TeamName  string   `json:"teamName" validate:"required"`
	IsHome    bool     `json:"isHome"`
	PlayingXI []string `json:"playingXI" validate:"dive,required"`
	CaptainID string   `json:"captainId"`
	KeeperID  string   `json:"keeperId"`
}

func (t teamSelectionRequest) toSelection() usecase.TeamSelection {
	return usecase.TeamSelection{
		TeamID:    t.TeamID,
		TeamName:  t.TeamName,
		IsHome:    t.IsHome,
		PlayingXI: t.PlayingXI,
		CaptainID: t.CaptainID,
		KeeperID:  t.KeeperID,
	}
}

func toSelections(in []teamSelectionRequest) []usecase.TeamSelection {
	out := make([]usecase.TeamSelection, 0, len(in))
	for _, t := range in {
		out = append(out, t.toSelection())
	}
	return out
}

type cricketConfigRequest struct {
	OversPerInnings int  `json:"numberOfOvers" validate:"required,min=1"`
	PlayersPerSide  int  `json:"playersPerSide" validate:"omitempty,min=2,max=11"`
	WideCountsRun   bool `json:"wideOn"`
	NoBallCountsRun bool `json:"noBallOn"`
}

type createCricketMatchRequest struct {
	Name         string                 `json:"name" validate:"required,max=120"`
	Venue        string                 `json:"venue" validate:"max=120"`
	MatchDate    time.Time              `json:"matchDate"`
	TournamentID string                 `json:"tournamentId"`
	SeriesID     string                 `json:"seriesId"`
	IsOnline     bool                   `json:"isOnline"`
	Config       cricketConfigRequest   `json:"matchConfig" validate:"required"`
	Teams        []teamSelectionRequest `json:"teams" validate:"required,len=2,dive"`
}

func (h *Handler) CreateCricketMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateCricketMatch")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createCricketMatchRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.hosting.CreateCricketMatch(ctx, principal.UserID, usecase.CreateCricketMatchInput{
		Name:         req.Name,
		Venue:        req.Venue,
		MatchDate:    req.MatchDate,
		TournamentID: req.TournamentID,
		SeriesID:     req.SeriesID,
		IsOnline:     req.IsOnline,
		Config: match.CricketConfig{
			OversPerInnings: req.Config.OversPerInnings,
			PlayersPerSide:  req.Config.PlayersPerSide,
			WideCountsRun:   req.Config.WideCountsRun,
			NoBallCountsRun: req.Config.NoBallCountsRun,
		},
		Teams: toSelections(req.Teams),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create cricket match failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, created)
}

type footballConfigRequest struct {
	HalfMinutes      int  `json:"halfMinutes" validate:"required,min=1"`
	ExtraTimeAllowed bool `json:"extraTimeAllowed"`
	PlayersPerSide   int  `json:"playersPerSide" validate:"omitempty,min=3,max=11"`
}

type createFootballMatchRequest struct {
	Name         string                 `json:"name" validate:"required,max=120"`
	Venue        string                 `json:"venue" validate:"max=120"`
	MatchDate    time.Time              `json:"matchDate"`
	TournamentID string                 `json:"tournamentId"`
	SeriesID     string                 `json:"seriesId"`
	IsOnline     bool                   `json:"isOnline"`
	Config       footballConfigRequest  `json:"matchConfig" validate:"required"`
	Teams        []teamSelectionRequest `json:"teams" validate:"required,len=2,dive"`
}

func (h *Handler) CreateFootballMatch(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateFootballMatch")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createFootballMatchRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.hosting.CreateFootballMatch(ctx, principal.UserID, usecase.CreateFootballMatchInput{
		Name:         req.Name,
		Venue:        req.Venue,
		MatchDate:    req.MatchDate,
		TournamentID: req.TournamentID,
		SeriesID:     req.SeriesID,
		IsOnline:     req.IsOnline,
		Config: match.FootballConfig{
			HalfMinutes:      req.Config.HalfMinutes,
			ExtraTimeAllowed: req.Config.ExtraTimeAllowed,
			PlayersPerSide:   req.Config.PlayersPerSide,
		},
		Teams: toSelections(req.Teams),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create football match failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, created)
}

type createTournamentRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Sport    string `json:"sportId" validate:"required,oneof=CRICKET FOOTBALL"`
	Type     string `json:"tournamentType" validate:"omitempty,oneof=LEAGUE KNOCKOUT"`
	IsOnline bool   `json:"isOnline"`

	// Optional per-result points override; zero values take the sport default.
	WinPoints      int `json:"winPoints" validate:"min=0"`
	DrawPoints     int `json:"drawPoints" validate:"min=0"`
	LossPoints     int `json:"lossPoints" validate:"min=0"`
	NoResultPoints int `json:"noResultPoints" validate:"min=0"`
}

func (h *Handler) CreateTournament(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateTournament")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createTournamentRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.hosting.CreateTournament(ctx, principal.UserID, usecase.CreateTournamentInput{
		Name:  req.Name,
		Sport: match.Sport(req.Sport),
		Type:  tournament.Type(req.Type),
		Points: tournament.PointsConfig{
			Win:      req.WinPoints,
			Draw:     req.DrawPoints,
			Loss:     req.LossPoints,
			NoResult: req.NoResultPoints,
		},
		IsOnline: req.IsOnline,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create tournament failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, created)
}

type createSeriesRequest struct {
	Name     string `json:"name" validate:"required,max=120"`
	Sport    string `json:"sportId" validate:"required,oneof=CRICKET FOOTBALL"`
	TeamAID  string `json:"teamAId" validate:"required"`
	TeamBID  string `json:"teamBId" validate:"required,nefield=TeamAID"`
	BestOf   int    `json:"bestOf" validate:"required,min=1"`
	IsOnline bool   `json:"isOnline"`
}

func (h *Handler) CreateSeries(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.CreateSeries")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req createSeriesRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.hosting.CreateSeries(ctx, principal.UserID, usecase.CreateSeriesInput{
		Name:     req.Name,
		Sport:    match.Sport(req.Sport),
		TeamAID:  req.TeamAID,
		TeamBID:  req.TeamBID,
		BestOf:   req.BestOf,
		IsOnline: req.IsOnline,
	})
	if err != nil {
		h.logger.WarnContext(ctx, "create series failed", "user_id", principal.UserID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, created)
}

type addCoHostRequest struct {
	EntityID   string `json:"entityId" validate:"required"`
	EntityType string `json:"entityType" validate:"required,oneof=MATCH TOURNAMENT SERIES"`
	UserID     string `json:"userId" validate:"required"`
	Permission string `json:"permissionLevel" validate:"required,oneof=FULL_ACCESS EDIT_ONLY VIEW_ONLY"`
}

func (h *Handler) AddCoHost(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.AddCoHost")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req addCoHostRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	created, err := h.hosting.AddCoHost(ctx, principal.UserID, usecase.AddCoHostInput{
		EntityID:   req.EntityID,
		EntityType: req.EntityType,
		UserID:     req.UserID,
		Permission: cohost.Permission(req.Permission),
	})
	if err != nil {
		h.logger.WarnContext(ctx, "add co-host failed", "user_id", principal.UserID, "entity_id", req.EntityID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, created)
}

func (h *Handler) RemoveCoHost(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RemoveCoHost")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	coHostID := r.PathValue("coHostID")
	if err := h.hosting.RemoveCoHost(ctx, principal.UserID, coHostID); err != nil {
		h.logger.WarnContext(ctx, "remove co-host failed", "user_id", principal.UserID, "cohost_id", coHostID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"removed": coHostID})
}

func (h *Handler) GetMatchByShareLink(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetMatchByShareLink")
	defer span.End()

	code := r.PathValue("code")
	found, err := h.hosting.MatchByShareLink(ctx, code)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, found)
}

func (h *Handler) GetTournamentByShareLink(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetTournamentByShareLink")
	defer span.End()

	code := r.PathValue("code")
	found, err := h.hosting.TournamentByShareLink(ctx, code)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, found)
}
