package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	sonic "github.com/bytedance/sonic"
	"github.com/matchday/scorekeeper/internal/domain/user"
	"github.com/matchday/scorekeeper/internal/infrastructure/repository"
	"github.com/matchday/scorekeeper/internal/infrastructure/store/memory"
	"github.com/matchday/scorekeeper/internal/platform/id"
	"github.com/matchday/scorekeeper/internal/syncer"
	"github.com/matchday/scorekeeper/internal/usecase"
)

// tokenVerifierFunc maps bearer tokens straight to user ids; unknown tokens
// are rejected.
type tokenVerifierFunc func(token string) (user.Principal, error)

func (f tokenVerifierFunc) VerifyAccessToken(_ context.Context, token string) (user.Principal, error) {
	return f(token)
}

func staticTokens(tokens map[string]string) TokenVerifier {
	return tokenVerifierFunc(func(token string) (user.Principal, error) {
		userID, ok := tokens[token]
		if !ok {
			return user.Principal{}, fmt.Errorf("%w: unknown token", usecase.ErrUnauthorized)
		}
		return user.Principal{UserID: userID}, nil
	})
}

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()

	local := memory.NewBackend()
	remote := memory.NewBackend()
	repos := repository.New(local, nil)
	remoteRepos := repository.New(remote, nil)
	writer := usecase.NewDocWriter(local, syncer.New(local, remote, nil))
	ids := id.NewPushKeyGenerator()

	hosting := usecase.NewHostingService(repos, remoteRepos, writer, ids, nil)
	sessions := usecase.NewScoringSessionService(repos, writer, hosting, ids, nil)
	tournaments := usecase.NewTournamentService(repos, writer, hosting, ids, nil)
	statistics := usecase.NewStatisticsService(repos, writer, nil)
	sessions.AddResultObserver(tournaments, statistics)

	handler := NewHandler(hosting, sessions, tournaments, statistics, nil)
	verifier := staticTokens(map[string]string{"host-token": "host-1"})
	return NewRouter(handler, verifier, nil, false, []string{"*"})
}

func doJSON(t *testing.T, router http.Handler, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	var envelope struct {
		Data map[string]any `json:"data"`
	}
	if err := sonic.Unmarshal(rec.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	return envelope.Data
}

const createCricketBody = `{
	"name": "Street Cup Final",
	"isOnline": false,
	"matchConfig": {"numberOfOvers": 2},
	"teams": [
		{"teamId": "team-a", "teamName": "Alpha", "isHome": true, "playingXI": ["a1", "a2", "a3"]},
		{"teamId": "team-b", "teamName": "Bravo", "playingXI": ["b1", "b2", "b3"]}
	]
}`

func TestRouter_RequiresBearerToken(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/matches/cricket", "", createCricketBody)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token, got %d", rec.Code)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/matches/cricket", "bogus", createCricketBody)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for unknown token, got %d", rec.Code)
	}
}

func TestRouter_CreateAndScoreCricketMatch(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/matches/cricket", "host-token", createCricketBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create match: expected 201, got %d body=%s", rec.Code, rec.Body.String())
	}
	created := decodeData(t, rec)
	matchID, _ := created["entityId"].(string)
	if matchID == "" {
		t.Fatalf("expected entityId in create response, got %v", created)
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/matches/"+matchID+"/start", "host-token",
		`{"tossWinnerTeamId": "team-a", "tossDecision": "BAT"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("start match: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	for _, playerID := range []string{"a1", "a2"} {
		rec = doJSON(t, router, http.MethodPost, "/v1/matches/"+matchID+"/batsman", "host-token",
			fmt.Sprintf(`{"playerId": %q}`, playerID))
		if rec.Code != http.StatusOK {
			t.Fatalf("select batsman %s: expected 200, got %d body=%s", playerID, rec.Code, rec.Body.String())
		}
	}
	rec = doJSON(t, router, http.MethodPost, "/v1/matches/"+matchID+"/bowler", "host-token",
		`{"playerId": "b1"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("select bowler: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	rec = doJSON(t, router, http.MethodPost, "/v1/matches/"+matchID+"/deliveries", "host-token",
		`{"runsScoredBat": 4, "isBoundary": true}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("record delivery: expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}

	// The viewer read needs no token.
	req := httptest.NewRequest(http.MethodGet, "/v1/matches/"+matchID+"/cricket", nil)
	viewerRec := httptest.NewRecorder()
	router.ServeHTTP(viewerRec, req)
	if viewerRec.Code != http.StatusOK {
		t.Fatalf("viewer read: expected 200, got %d", viewerRec.Code)
	}
	state := decodeData(t, viewerRec)
	innings, _ := state["innings"].([]any)
	if len(innings) != 1 {
		t.Fatalf("expected one innings in viewer state, got %v", state["innings"])
	}
	first, _ := innings[0].(map[string]any)
	if runs, _ := first["totalRuns"].(float64); runs != 4 {
		t.Fatalf("expected 4 runs on the board, got %v", first["totalRuns"])
	}
}

func TestRouter_DeliveryBeforeStartConflicts(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/matches/cricket", "host-token", createCricketBody)
	if rec.Code != http.StatusCreated {
		t.Fatalf("create match: expected 201, got %d", rec.Code)
	}
	matchID, _ := decodeData(t, rec)["entityId"].(string)

	rec = doJSON(t, router, http.MethodPost, "/v1/matches/"+matchID+"/deliveries", "host-token",
		`{"runsScoredBat": 1}`)
	if rec.Code != http.StatusConflict {
		t.Fatalf("expected 409 for delivery before start, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouter_RejectsUnknownFields(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/v1/tournaments", "host-token",
		`{"name": "Cup", "sportId": "CRICKET", "surprise": true}`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown field, got %d body=%s", rec.Code, rec.Body.String())
	}
}

func TestRouter_Healthz(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 from healthz, got %d", rec.Code)
	}
}
