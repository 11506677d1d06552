package server

import (
	"errors"
	"net/http"
	"net/url"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog/log"

	"github.com/careloop/health-coach/agent/agents/coach"
	contractx "github.com/careloop/health-coach/agent/contract"
)

// Handler translates HTTP operations to store operations. It holds no state
// of its own and performs exactly one store call per request.
type Handler struct {
	store contractx.MedicationStore
	coach *coach.Coach // nil when the conversational collaborator is not configured
}

func NewHandler(store contractx.MedicationStore, coachSvc *coach.Coach) *Handler {
	return &Handler{
		store: store,
		coach: coachSvc,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	e.GET("/health", h.Health)
	e.GET("/medications", h.ListMedications)
	e.DELETE("/medications/:name", h.DeleteMedication)
	e.DELETE("/medications", h.ClearMedications)
	e.POST("/chat", h.Chat)
}

type medicationListResponse struct {
	Medications []contractx.MedicationRecord `json:"medications"`
}

type clearResponse struct {
	Cleared int `json:"cleared"`
}

type chatRequest struct {
	SessionID string `json:"session_id"`
	Message   string `json:"message"`
}

func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "healthy"})
}

func (h *Handler) ListMedications(c echo.Context) error {
	records := h.store.List()
	if records == nil {
		records = []contractx.MedicationRecord{}
	}
	return c.JSON(http.StatusOK, medicationListResponse{Medications: records})
}

// DeleteMedication removes one record by normalized name. Deleting an
// absent name is success, not 404.
func (h *Handler) DeleteMedication(c echo.Context) error {
	raw := c.Param("name")
	// echo hands the param through percent-encoded.
	if decoded, err := url.PathUnescape(raw); err == nil {
		raw = decoded
	}
	name := contractx.NormalizeMedicationName(raw)
	if name == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "medication name is required")
	}
	h.store.Remove(name)
	return c.NoContent(http.StatusNoContent)
}

func (h *Handler) ClearMedications(c echo.Context) error {
	cleared := h.store.Clear()
	log.Info().Int("cleared", cleared).Msg("medications cleared")
	return c.JSON(http.StatusOK, clearResponse{Cleared: cleared})
}

func (h *Handler) Chat(c echo.Context) error {
	if h.coach == nil {
		return echo.NewHTTPError(
			http.StatusServiceUnavailable,
			"conversational endpoint is disabled; set OPENAI_API_KEY to enable it",
		)
	}

	var req chatRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid chat request")
	}

	out, err := h.coach.HandleTurn(c.Request().Context(), req.SessionID, req.Message)
	if err != nil {
		if errors.Is(err, coach.ErrInvalidSession) || errors.Is(err, coach.ErrInvalidMessage) {
			return echo.NewHTTPError(http.StatusBadRequest, err.Error())
		}
		log.Error().Err(err).Str("session_id", req.SessionID).Msg("chat turn failed")
		return echo.NewHTTPError(http.StatusBadGateway, "chat turn failed")
	}
	return c.JSON(http.StatusOK, out)
}
