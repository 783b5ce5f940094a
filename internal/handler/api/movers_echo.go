package api

import (
	"context"
	"io"
	"net/http"

	"TopMover/internal/domain/models"
	domrepo "TopMover/internal/domain/repository"
	"TopMover/internal/service/ratelimit"
	xhttp "TopMover/pkg/http"
	xlogger "TopMover/pkg/logger"

	"github.com/labstack/echo/v4"
)

// maxRunBody caps POST /api/runs payloads.
const maxRunBody = 4 << 10

// MoversReader is the read side used by GET /api/movers.
type MoversReader interface {
	Latest(ctx context.Context, limit int) ([]models.MoverItem, error)
}

// RunDispatcher executes invocation payloads.
type RunDispatcher interface {
	ParseJSON(b []byte) (models.Invocation, error)
	Run(ctx context.Context, inv models.Invocation) (*models.RunResult, error)
}

// MoversEchoHandler serves the read API, the run trigger and health.
type MoversEchoHandler struct {
	logger       *xlogger.Logger
	movers       MoversReader
	runs         RunDispatcher
	store        domrepo.RecordStore
	rl           *ratelimit.Limiter
	defaultLimit int
}

func NewMoversEchoHandler(logger *xlogger.Logger, movers MoversReader, runs RunDispatcher, store domrepo.RecordStore, defaultLimit int) *MoversEchoHandler {
	if defaultLimit <= 0 {
		defaultLimit = 7
	}
	if logger == nil {
		logger = xlogger.Nop()
	}
	return &MoversEchoHandler{
		logger:       logger,
		movers:       movers,
		runs:         runs,
		store:        store,
		rl:           ratelimit.New(),
		defaultLimit: defaultLimit,
	}
}

func (h *MoversEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	g := e.Group("/api")
	g.GET("/movers", h.Movers)
	g.POST("/runs", h.TriggerRun)
}

// Movers returns {"items":[...]} newest first.
func (h *MoversEchoHandler) Movers(c echo.Context) error {
	req := &models.MoversRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	limit := req.Limit
	if limit == 0 {
		limit = h.defaultLimit
	}

	items, err := h.movers.Latest(c.Request().Context(), limit)
	if err != nil {
		h.logger.Error("movers query error", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	c.Response().Header().Set(echo.HeaderCacheControl, "public, max-age=60")
	return c.JSON(http.StatusOK, map[string]interface{}{"items": items})
}

// TriggerRun accepts an invocation payload and runs it synchronously.
func (h *MoversEchoHandler) TriggerRun(c echo.Context) error {
	if !h.rl.Allow(c.RealIP()+":runs", 3, 0.05) {
		h.logger.Warn("runs rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.DataResponse(c, http.StatusTooManyRequests, "rate limited")
	}
	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxRunBody))
	if err != nil {
		return xhttp.BadRequestResponse(c, "unreadable body")
	}
	inv, err := h.runs.ParseJSON(body)
	if err != nil {
		return xhttp.AppErrorResponse(c, err)
	}

	res, err := h.runs.Run(c.Request().Context(), inv)
	if err != nil {
		h.logger.Warn("triggered run failed",
			xlogger.String("mode", string(inv.Mode)),
			xlogger.Error(err),
		)
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.SuccessResponse(c, res)
}

func (h *MoversEchoHandler) Health(c echo.Context) error {
	if err := h.store.Health(c.Request().Context()); err != nil {
		h.logger.Error("health check failed", xlogger.Error(err))
		return xhttp.DataResponse(c, http.StatusServiceUnavailable, map[string]string{"store": "unavailable"})
	}
	return xhttp.SuccessResponse(c, map[string]string{"store": "ok"})
}
