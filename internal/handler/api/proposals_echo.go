package api

import (
	"errors"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	"github.com/JackFeatherston/Osprey/internal/engine"
	"github.com/JackFeatherston/Osprey/internal/usecase"
	xhttp "github.com/JackFeatherston/Osprey/pkg/http"
	xlogger "github.com/JackFeatherston/Osprey/pkg/logger"
)

// Handler exposes the proposal lifecycle and on-demand analysis over
// Echo.
type Handler struct {
	logger    *xlogger.Logger
	analyzer  *usecase.Analyzer
	proposals *usecase.ProposalService
	bias      *engine.BiasCache
	symbols   []string
}

func NewHandler(
	logger *xlogger.Logger,
	analyzer *usecase.Analyzer,
	proposals *usecase.ProposalService,
	bias *engine.BiasCache,
	symbols []string,
) *Handler {
	return &Handler{
		logger:    logger,
		analyzer:  analyzer,
		proposals: proposals,
		bias:      bias,
		symbols:   symbols,
	}
}

func (h *Handler) RegisterRoutes(e *echo.Echo) {
	g := e.Group("/api")
	g.GET("/proposals", h.ListProposals)
	g.GET("/proposals/:id", h.GetProposal)
	g.GET("/decisions", h.ListDecisions)
	g.GET("/executions", h.ListExecutions)
	g.POST("/decisions", h.Decide)
	g.POST("/analyze", h.Analyze)
	g.POST("/bias/refresh", h.RefreshBias)
	g.GET("/bias", h.ListBias)
	g.GET("/bias/:symbol", h.GetBias)
	g.GET("/users", h.ListTargetUsers)
	g.POST("/users", h.AddTargetUser)
	g.DELETE("/users/:id", h.RemoveTargetUser)
}

// ListProposals returns proposals filtered by user and status.
func (h *Handler) ListProposals(c echo.Context) error {
	req := &models.ProposalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.proposals.ListProposals(c.Request().Context(),
		req.UserID, models.ProposalStatus(req.Status), req.Limit)
	if err != nil {
		h.logger.Error("list proposals error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, domainError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// GetProposal returns one proposal by id.
func (h *Handler) GetProposal(c echo.Context) error {
	p, err := h.proposals.GetProposal(c.Request().Context(), c.Param("id"))
	if err != nil {
		return xhttp.AppErrorResponse(c, domainError(err))
	}
	return xhttp.SuccessResponse(c, p)
}

// ListDecisions returns recent decisions for a user.
func (h *Handler) ListDecisions(c echo.Context) error {
	req := &models.ProposalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.proposals.ListDecisions(c.Request().Context(), req.UserID, req.Limit)
	if err != nil {
		h.logger.Error("list decisions error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, domainError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// ListExecutions returns recent executions for a user.
func (h *Handler) ListExecutions(c echo.Context) error {
	req := &models.ProposalsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.proposals.ListExecutions(c.Request().Context(), req.UserID, req.Limit)
	if err != nil {
		h.logger.Error("list executions error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, domainError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}

// Decide records a user verdict and, on approval, places the order.
func (h *Handler) Decide(c echo.Context) error {
	req := &models.DecisionRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	res, err := h.proposals.Decide(c.Request().Context(), req)
	if err != nil {
		h.logger.Error("decision error",
			xlogger.String("proposal_id", req.ProposalID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, domainError(err))
	}
	return xhttp.SuccessResponse(c, res)
}

// Analyze runs the evaluation pipeline for one symbol on demand. The
// result reports whether a signal was produced; it does not create
// proposals.
func (h *Handler) Analyze(c echo.Context) error {
	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	end := xhttp.ParseTimeDefault(req.End, time.Now())
	sig, err := h.analyzer.EvaluateSymbolAt(c.Request().Context(), req.Symbol, end)
	if err != nil {
		h.logger.Error("analyze error", xlogger.String("symbol", req.Symbol), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, domainError(err))
	}
	return xhttp.SuccessResponse(c, map[string]interface{}{
		"symbol":   req.Symbol,
		"end":      end,
		"signaled": sig != nil,
		"signal":   sig,
	})
}

// RefreshBias forces a bias refresh for the given symbols, or the
// configured watchlist when none are given.
func (h *Handler) RefreshBias(c echo.Context) error {
	req := &models.BiasRefreshRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	symbols := req.Symbols
	if len(symbols) == 0 {
		symbols = h.symbols
	}
	if err := h.bias.Refresh(c.Request().Context(), symbols); err != nil {
		h.logger.Error("bias refresh error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, domainError(err))
	}

	entries := make([]models.BiasEntry, 0, len(symbols))
	for _, s := range symbols {
		if state := h.bias.Get(s); state.Known {
			entries = append(entries, state.Entry)
		}
	}
	return xhttp.SuccessResponse(c, entries)
}

// ListBias returns every cached verdict.
func (h *Handler) ListBias(c echo.Context) error {
	entries := h.bias.Entries()
	return xhttp.ListResponse(c, entries, int64(len(entries)))
}

// GetBias returns the cached verdict for one symbol.
func (h *Handler) GetBias(c echo.Context) error {
	symbol := c.Param("symbol")
	state := h.bias.Get(symbol)
	if !state.Known {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no bias cached for %s", symbol))
	}
	return xhttp.SuccessResponse(c, state.Entry)
}

// ListTargetUsers lists users receiving proposals.
func (h *Handler) ListTargetUsers(c echo.Context) error {
	users := h.proposals.TargetUsers()
	return xhttp.ListResponse(c, users, int64(len(users)))
}

// AddTargetUser registers a user for future proposals.
func (h *Handler) AddTargetUser(c echo.Context) error {
	req := &models.TargetUserRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	h.proposals.AddTargetUser(req.UserID)
	return xhttp.CreatedResponse(c, map[string]string{"user_id": req.UserID})
}

// RemoveTargetUser stops new proposals for a user.
func (h *Handler) RemoveTargetUser(c echo.Context) error {
	h.proposals.RemoveTargetUser(c.Param("id"))
	return xhttp.NoContentResponse(c)
}

// domainError maps domain sentinels onto HTTP-status-carrying errors.
func domainError(err error) error {
	switch {
	case errors.Is(err, models.ErrNotFound):
		return xhttp.NotFoundError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrTerminalState):
		return xhttp.ConflictError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrInsufficientData):
		return xhttp.UnprocessableError(err.Error()).WithError(err)
	case errors.Is(err, models.ErrCollaboratorUnavailable):
		return xhttp.NewAppError("ERR_UPSTREAM", "", err.Error(), 502).WithError(err)
	default:
		return err
	}
}
