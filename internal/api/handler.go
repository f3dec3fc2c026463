package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/emicklei/go-restful/v3"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/api/middleware"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/executor"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/guard"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/models"
	"github.com/povarna/generative-ai-agents/guard-agent/internal/validator"
	"github.com/rs/zerolog"
)

type Dispatcher interface {
	DispatchRequest(ctx context.Context, req models.ValidateRequest) (models.ValidationOutcome, error)
}

type GuardCatalog interface {
	ListNames() []string
	Get(name string) (*guard.Guard, error)
}

type Handler struct {
	dispatcher Dispatcher
	guards     GuardCatalog
	logger     *zerolog.Logger
}

func NewHandler(dispatcher Dispatcher, guards GuardCatalog, logger *zerolog.Logger) *Handler {
	return &Handler{
		dispatcher: dispatcher,
		guards:     guards,
		logger:     logger,
	}
}

// POST /guards/{name}/validate
// Body: ValidateRequest
// Returns: ValidateResponse
func (h *Handler) Validate(req *restful.Request, resp *restful.Response) {
	guardName := req.PathParameter("name")

	var body models.ValidateRequest
	if err := req.ReadEntity(&body); err != nil {
		h.logger.Error().Err(err).Msg("Failed to parse request body")
		middleware.HandleError(resp, err, http.StatusBadRequest)
		return
	}
	body.Guard = guardName

	outcome, err := h.dispatcher.DispatchRequest(req.Request.Context(), body)
	if err != nil {
		h.writeDispatchError(resp, outcome, err)
		return
	}

	_ = resp.WriteHeaderAndEntity(http.StatusOK, models.NewValidateResponse(outcome))
}

// GET /guards
func (h *Handler) ListGuards(_ *restful.Request, resp *restful.Response) {
	_ = resp.WriteHeaderAndEntity(http.StatusOK, GuardListResponse{Guards: h.guards.ListNames()})
}

// GET /guards/{name}
func (h *Handler) DescribeGuard(req *restful.Request, resp *restful.Response) {
	g, err := h.guards.Get(req.PathParameter("name"))
	if err != nil {
		middleware.HandleError(resp, err, http.StatusNotFound)
		return
	}
	_ = resp.WriteHeaderAndEntity(http.StatusOK, g.Describe())
}

// Health handler GET /health
func (h *Handler) Health(_ *restful.Request, resp *restful.Response) {
	_ = resp.WriteHeaderAndEntity(http.StatusOK, HealthResponse{
		Status:  "ok",
		Version: "1.0.0",
		Guards:  len(h.guards.ListNames()),
	})
}

func (h *Handler) writeDispatchError(resp *restful.Response, outcome models.ValidationOutcome, err error) {
	var rejected *guard.GuardRejected
	if errors.As(err, &rejected) {
		_ = resp.WriteHeaderAndEntity(http.StatusUnprocessableEntity, executor.NewResponse(outcome, err))
		return
	}

	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		h.logger.Error().Err(err).Str("requestID", outcome.RequestID).Msg("Validation failed")
	}
	middleware.HandleError(resp, err, status)
}

// StatusFor maps a dispatch error onto an HTTP status code.
func StatusFor(err error) int {
	var (
		unknown  *guard.UnknownGuardError
		empty    *executor.EmptyInputError
		backend  *validator.DetectionBackendError
		rejected *guard.GuardRejected
	)

	switch {
	case errors.As(err, &unknown):
		return http.StatusNotFound
	case errors.As(err, &empty):
		return http.StatusBadRequest
	case errors.As(err, &rejected):
		return http.StatusUnprocessableEntity
	case errors.As(err, &backend):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
