package httpapi

import (
	"net/http"

	"github.com/matchday/scorekeeper/internal/usecase"
)

type registerTeamRequest struct {
	TeamID   string `json:"teamId" validate:"required"`
	TeamName string `json:"teamName" validate:"required,max=120"`
}

func (h *Handler) RegisterTeam(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RegisterTeam")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req registerTeamRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	tournamentID := r.PathValue("tournamentID")
	row, err := h.tournaments.RegisterTeam(ctx, principal.UserID, tournamentID, req.TeamID, req.TeamName)
	if err != nil {
		h.logger.WarnContext(ctx, "register team failed", "tournament_id", tournamentID, "team_id", req.TeamID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, row)
}

// ApplyMatchResult folds a finished match into its tournament standings and
// series score. Safe to call more than once: both are recomputed from
// scratch.
func (h *Handler) ApplyMatchResult(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ApplyMatchResult")
	defer span.End()

	if _, err := requirePrincipal(ctx); err != nil {
		writeError(ctx, w, err)
		return
	}

	matchID := r.PathValue("matchID")
	if err := h.tournaments.ApplyMatchResult(ctx, matchID); err != nil {
		h.logger.WarnContext(ctx, "apply match result failed", "match_id", matchID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"matchId": matchID})
}

func (h *Handler) RecomputeStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecomputeStandings")
	defer span.End()

	if _, err := requirePrincipal(ctx); err != nil {
		writeError(ctx, w, err)
		return
	}

	tournamentID := r.PathValue("tournamentID")
	table, err := h.tournaments.RecomputeStandings(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "recompute standings failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, table)
}

func (h *Handler) GetStandings(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetStandings")
	defer span.End()

	table, err := h.tournaments.StandingsTable(ctx, r.PathValue("tournamentID"))
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, table)
}

type generateBracketRequest struct {
	Kind string `json:"bracketKind" validate:"required,oneof=RANDOM SEEDED"`
	Seed int64  `json:"seed"`
}

func (h *Handler) GenerateBracket(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GenerateBracket")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	var req generateBracketRequest
	if err := h.decodeBody(ctx, r, &req); err != nil {
		writeError(ctx, w, err)
		return
	}

	tournamentID := r.PathValue("tournamentID")
	fixtures, err := h.tournaments.GenerateBracket(ctx, principal.UserID, tournamentID, usecase.BracketKind(req.Kind), req.Seed)
	if err != nil {
		h.logger.WarnContext(ctx, "generate bracket failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, fixtures)
}

func (h *Handler) GenerateRoundRobin(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GenerateRoundRobin")
	defer span.End()

	principal, err := requirePrincipal(ctx)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	tournamentID := r.PathValue("tournamentID")
	fixtures, err := h.tournaments.GenerateRoundRobin(ctx, principal.UserID, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "generate round robin failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusCreated, fixtures)
}

func (h *Handler) RecomputeStatistics(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.RecomputeStatistics")
	defer span.End()

	if _, err := requirePrincipal(ctx); err != nil {
		writeError(ctx, w, err)
		return
	}

	tournamentID := r.PathValue("tournamentID")
	rows, err := h.statistics.Recompute(ctx, tournamentID)
	if err != nil {
		h.logger.WarnContext(ctx, "recompute statistics failed", "tournament_id", tournamentID, "error", err)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rows)
}

func (h *Handler) TopRunScorers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TopRunScorers")
	defer span.End()

	limit, err := limitQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rows, err := h.statistics.TopRunScorers(ctx, r.PathValue("tournamentID"), limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rows)
}

func (h *Handler) TopWicketTakers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TopWicketTakers")
	defer span.End()

	limit, err := limitQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rows, err := h.statistics.TopWicketTakers(ctx, r.PathValue("tournamentID"), limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rows)
}

func (h *Handler) TopGoalScorers(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.TopGoalScorers")
	defer span.End()

	limit, err := limitQuery(r)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	rows, err := h.statistics.TopGoalScorers(ctx, r.PathValue("tournamentID"), limit)
	if err != nil {
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, rows)
}
