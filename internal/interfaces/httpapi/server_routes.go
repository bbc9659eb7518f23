package httpapi

import "net/http"

func registerSystemRoutes(mux *http.ServeMux, handler *Handler, swaggerEnabled bool) {
	mux.HandleFunc("GET /healthz", handler.Healthz)
	if !swaggerEnabled {
		return
	}

	mux.HandleFunc("GET /openapi.yaml", handler.OpenAPI)
	mux.HandleFunc("GET /docs", handler.SwaggerUI)
	mux.HandleFunc("GET /docs/", handler.SwaggerUI)
}

// Viewer routes need no token: anyone holding a share code (or an entity id
// learned through one) may read.
func registerViewerRoutes(mux *http.ServeMux, handler *Handler) {
	mux.HandleFunc("GET /v1/shared/matches/{code}", handler.GetMatchByShareLink)
	mux.HandleFunc("GET /v1/shared/tournaments/{code}", handler.GetTournamentByShareLink)
	mux.HandleFunc("GET /v1/matches/{matchID}/cricket", handler.GetCricketState)
	mux.HandleFunc("GET /v1/matches/{matchID}/football", handler.GetFootballState)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}/standings", handler.GetStandings)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}/leaderboards/runs", handler.TopRunScorers)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}/leaderboards/wickets", handler.TopWicketTakers)
	mux.HandleFunc("GET /v1/tournaments/{tournamentID}/leaderboards/goals", handler.TopGoalScorers)
}

func registerHostRoutes(mux *http.ServeMux, handler *Handler, verifier TokenVerifier) {
	authorized := func(h http.HandlerFunc) http.Handler {
		return RequireAuth(verifier, h)
	}

	mux.Handle("POST /v1/matches/cricket", authorized(handler.CreateCricketMatch))
	mux.Handle("POST /v1/matches/football", authorized(handler.CreateFootballMatch))
	mux.Handle("POST /v1/tournaments", authorized(handler.CreateTournament))
	mux.Handle("POST /v1/series", authorized(handler.CreateSeries))
	mux.Handle("POST /v1/cohosts", authorized(handler.AddCoHost))
	mux.Handle("DELETE /v1/cohosts/{coHostID}", authorized(handler.RemoveCoHost))

	mux.Handle("POST /v1/matches/{matchID}/start", authorized(handler.StartCricketMatch))
	mux.Handle("POST /v1/matches/{matchID}/batsman", authorized(handler.SelectBatsman))
	mux.Handle("POST /v1/matches/{matchID}/bowler", authorized(handler.SelectBowler))
	mux.Handle("POST /v1/matches/{matchID}/rotation", authorized(handler.SetBowlingRotation))
	mux.Handle("POST /v1/matches/{matchID}/deliveries", authorized(handler.RecordDelivery))
	mux.Handle("POST /v1/matches/{matchID}/over/end", authorized(handler.EndOver))
	mux.Handle("POST /v1/matches/{matchID}/innings/next", authorized(handler.StartNextInnings))
	mux.Handle("POST /v1/matches/{matchID}/kickoff", authorized(handler.KickOff))
	mux.Handle("POST /v1/matches/{matchID}/events", authorized(handler.RecordFootballEvent))
	mux.Handle("POST /v1/matches/{matchID}/period/advance", authorized(handler.AdvancePeriod))
	mux.Handle("POST /v1/matches/{matchID}/abandon", authorized(handler.AbandonMatch))
	mux.Handle("POST /v1/matches/{matchID}/undo", authorized(handler.Undo))
	mux.Handle("POST /v1/matches/{matchID}/redo", authorized(handler.Redo))
	mux.Handle("POST /v1/matches/{matchID}/result", authorized(handler.ApplyMatchResult))

	mux.Handle("POST /v1/tournaments/{tournamentID}/teams", authorized(handler.RegisterTeam))
	mux.Handle("POST /v1/tournaments/{tournamentID}/standings/recompute", authorized(handler.RecomputeStandings))
	mux.Handle("POST /v1/tournaments/{tournamentID}/bracket", authorized(handler.GenerateBracket))
	mux.Handle("POST /v1/tournaments/{tournamentID}/round-robin", authorized(handler.GenerateRoundRobin))
	mux.Handle("POST /v1/tournaments/{tournamentID}/statistics/recompute", authorized(handler.RecomputeStatistics))
}
