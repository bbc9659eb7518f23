package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
	"github.com/go-playground/validator/v10"
	"github.com/matchday/scorekeeper/internal/domain/user"
	"github.com/matchday/scorekeeper/internal/platform/logging"
	"github.com/matchday/scorekeeper/internal/usecase"
)

type Handler struct {
	hosting     *usecase.HostingService
	sessions    *usecase.ScoringSessionService
	tournaments *usecase.TournamentService
	statistics  *usecase.StatisticsService
	logger      *logging.Logger
	validator   *validator.Validate
}

func NewHandler(
	hosting *usecase.HostingService,
	sessions *usecase.ScoringSessionService,
	tournaments *usecase.TournamentService,
	statistics *usecase.StatisticsService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.NewNop()
	}

	return &Handler{
		hosting:     hosting,
		sessions:    sessions,
		tournaments: tournaments,
		statistics:  statistics,
		logger:      logger,
		validator:   validator.New(),
	}
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

// decodeBody fills req from the request body, rejecting unknown fields, and
// runs struct validation.
func (h *Handler) decodeBody(ctx context.Context, r *http.Request, req any) error {
	decoder := sonic.ConfigDefault.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(req); err != nil {
		return fmt.Errorf("%w: invalid JSON payload: %v", usecase.ErrInvalidInput, err)
	}
	return h.validateRequest(ctx, req)
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func requirePrincipal(ctx context.Context) (user.Principal, error) {
	principal, ok := principalFromContext(ctx)
	if !ok {
		return user.Principal{}, fmt.Errorf("%w: principal is missing from request context", usecase.ErrUnauthorized)
	}
	return principal, nil
}

// limitQuery reads an optional ?limit= parameter; zero means the service
// default.
func limitQuery(r *http.Request) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("limit"))
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 0 {
		return 0, fmt.Errorf("%w: limit must be a non-negative integer", usecase.ErrInvalidInput)
	}
	return limit, nil
}
