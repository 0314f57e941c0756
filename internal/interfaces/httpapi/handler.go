package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/riskibarqy/club-stats/internal/platform/logging"
	"github.com/riskibarqy/club-stats/internal/usecase"
)

type Handler struct {
	seasonService  *usecase.SeasonService
	allTimeService *usecase.AllTimeService
	logger         *logging.Logger
	validator      *validator.Validate
}

func NewHandler(
	seasonService *usecase.SeasonService,
	allTimeService *usecase.AllTimeService,
	logger *logging.Logger,
) *Handler {
	if logger == nil {
		logger = logging.Default()
	}

	return &Handler{
		seasonService:  seasonService,
		allTimeService: allTimeService,
		logger:         logger,
		validator:      validator.New(),
	}
}

// Sort modes are not restricted to the known names; an unknown mode falls back
// to the default ordering.
type seasonViewQuery struct {
	Season       string `validate:"required,numeric,max=8"`
	PlayersSort  string `validate:"omitempty,alpha,max=32"`
	RegionalSort string `validate:"omitempty,alpha,max=32"`
	ViewContext  string `validate:"omitempty,printascii,max=64"`
}

type allTimeQuery struct {
	PlayersSort  string `validate:"omitempty,alpha,max=32"`
	RegionalSort string `validate:"omitempty,alpha,max=32"`
}

func (h *Handler) validateRequest(ctx context.Context, payload any) error {
	ctx, span := startSpan(ctx, "httpapi.Handler.validateRequest")
	defer span.End()

	if err := h.validator.StructCtx(ctx, payload); err != nil {
		return fmt.Errorf("%w: validation failed: %v", usecase.ErrInvalidInput, err)
	}

	return nil
}

func (h *Handler) Healthz(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.Healthz")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *Handler) ListSeasons(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.ListSeasons")
	defer span.End()

	writeSuccess(ctx, w, http.StatusOK, h.seasonService.Catalog())
}

func (h *Handler) GetSeason(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetSeason")
	defer span.End()

	query := seasonViewQuery{
		Season:       strings.TrimSpace(r.PathValue("season")),
		PlayersSort:  strings.TrimSpace(r.URL.Query().Get("players_sort")),
		RegionalSort: strings.TrimSpace(r.URL.Query().Get("regional_sort")),
		ViewContext:  strings.TrimSpace(r.Header.Get(viewContextHeader)),
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.seasonService.GetSeasonView(ctx, usecase.SeasonViewInput{
		SeasonID:     query.Season,
		PlayersSort:  query.PlayersSort,
		RegionalSort: query.RegionalSort,
		ViewKey:      query.ViewContext,
	})
	if err != nil {
		if errors.Is(err, usecase.ErrSuperseded) {
			h.logger.DebugContext(ctx, "season view superseded", "season", query.Season, "view_context", query.ViewContext)
		} else {
			h.logger.WarnContext(ctx, "get season view failed", "season", query.Season, "error", err)
		}
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, view)
}

func (h *Handler) GetAllTime(w http.ResponseWriter, r *http.Request) {
	ctx, span := startSpan(r.Context(), "httpapi.Handler.GetAllTime")
	defer span.End()

	query := allTimeQuery{
		PlayersSort:  strings.TrimSpace(r.URL.Query().Get("players_sort")),
		RegionalSort: strings.TrimSpace(r.URL.Query().Get("regional_sort")),
	}
	if err := h.validateRequest(ctx, query); err != nil {
		writeError(ctx, w, err)
		return
	}

	view, err := h.allTimeService.GetAllTime(ctx, usecase.AllTimeInput{
		PlayersSort:  query.PlayersSort,
		RegionalSort: query.RegionalSort,
	})
	if err != nil {
		h.logger.ErrorContext(ctx, "get all-time view failed",
			"requested", view.Requested,
			"failed", len(view.Failed),
			"error", err,
		)
		writeError(ctx, w, err)
		return
	}

	writeSuccess(ctx, w, http.StatusOK, view)
}
