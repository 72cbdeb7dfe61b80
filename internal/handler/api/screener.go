package api

import (
	"bytes"
	"errors"
	"net/http"
	"time"

	"SmartMoney/internal/domain/models"
	"SmartMoney/internal/service/export"
	"SmartMoney/internal/service/metrics"
	"SmartMoney/internal/service/progress"
	"SmartMoney/internal/service/ratelimit"
	"SmartMoney/internal/usecase"
	xhttp "SmartMoney/pkg/http"
	xlogger "SmartMoney/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// RunLimit bounds how often one client may trigger a screening run.
type RunLimit struct {
	Capacity     float64
	RefillPerSec float64
}

// ScreenerHandler exposes the screening commands over HTTP and streams run
// progress over a websocket.
type ScreenerHandler struct {
	logger *xlogger.Logger
	svc    *usecase.ScreeningService
	hub    *progress.Hub
	rl     *ratelimit.Limiter
	limit  RunLimit
}

func NewScreenerHandler(logger *xlogger.Logger, svc *usecase.ScreeningService, hub *progress.Hub, rl *ratelimit.Limiter, limit RunLimit) *ScreenerHandler {
	metrics.Register()
	if logger == nil {
		logger = xlogger.Nop()
	}
	if rl == nil {
		rl = ratelimit.New()
	}
	if limit.Capacity <= 0 {
		limit.Capacity = 3
	}
	return &ScreenerHandler{logger: logger.Component("api"), svc: svc, hub: hub, rl: rl, limit: limit}
}

func (h *ScreenerHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", h.Health)
	e.GET("/ws/progress", h.Progress)

	g := e.Group("/api/screen")
	g.POST("/run", h.Run)
	g.GET("/results", h.Results)
	g.GET("/failures", h.Failures)
	g.POST("/filter", h.Filter)
	g.GET("/export", h.Export)
}

// RunResponse is the body of a finished run.
type RunResponse struct {
	Summary models.Summary       `json:"summary"`
	Records []models.ScoreRecord `json:"records"`
}

func observe(endpoint string, start time.Time) {
	metrics.APILatency.WithLabelValues(endpoint).Observe(time.Since(start).Seconds())
}

func (h *ScreenerHandler) Health(c echo.Context) error {
	body := map[string]interface{}{"status": "ok"}
	if res, cached, ok := h.svc.Last(); ok {
		body["last_run_id"] = res.RunID
		body["last_computed_at"] = res.ComputedAt
		body["cached"] = cached
	}
	return xhttp.SuccessResponse(c, body)
}

func (h *ScreenerHandler) Run(c echo.Context) error {
	defer observe("run", time.Now())

	req := &models.RunRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	if !h.rl.Allow(c.RealIP()+":run", h.limit.Capacity, h.limit.RefillPerSec) {
		metrics.RunsRejected.Inc()
		h.logger.Warn("screen.run rate_limited", xlogger.String("remote", c.RealIP()))
		return xhttp.AppErrorResponse(c, xhttp.TooManyRequestsError("too many screening runs, retry later"))
	}

	out, err := h.svc.RunScreening(c.Request().Context(), usecase.RunCommand{
		Tickers:    req.Tickers,
		Period:     req.Period,
		Interval:   req.Interval,
		BatchSize:  req.BatchSize,
		Refresh:    req.Refresh,
		RefreshAll: req.RefreshAll,
	})
	if err != nil {
		metrics.APIErrors.WithLabelValues("run").Inc()
		h.logger.Error("screen.run failed", xlogger.Error(err))
		return xhttp.AppErrorResponse(c, runError(err))
	}

	summary := out.Result.Summary()
	summary.Cached = out.Cached
	return xhttp.SuccessResponse(c, RunResponse{Summary: summary, Records: out.Result.Records})
}

func runError(err error) error {
	switch {
	case errors.Is(err, usecase.ErrEmptyUniverse):
		return xhttp.BadRequestError(err.Error()).WithError(err)
	case errors.Is(err, usecase.ErrRunInProgress):
		return xhttp.ServiceUnavailableError("a screening run is already in progress").WithError(err)
	case errors.Is(err, usecase.ErrBenchmarkUnavailable):
		return xhttp.ServiceUnavailableError("benchmark data unavailable, try again later").WithError(err)
	default:
		return xhttp.InternalError("screening run failed").WithError(err)
	}
}

func (h *ScreenerHandler) Results(c echo.Context) error {
	defer observe("results", time.Now())

	req := &models.ResultsRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	res, _, ok := h.svc.Last()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(usecase.ErrNoResults.Error()))
	}
	rows := limit(res.Records, req.Limit)
	return xhttp.ListResponse(c, rows, int64(len(res.Records)))
}

func (h *ScreenerHandler) Failures(c echo.Context) error {
	defer observe("failures", time.Now())

	res, _, ok := h.svc.Last()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(usecase.ErrNoResults.Error()))
	}
	return xhttp.ListResponse(c, res.Failures, int64(len(res.Failures)))
}

func (h *ScreenerHandler) Filter(c echo.Context) error {
	defer observe("filter", time.Now())

	req := &models.FilterRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}
	rows, err := h.svc.ApplyFilters(usecase.Filter{
		MinScore: *req.MinScore,
		Labels:   req.Labels,
		MinRSI:   *req.MinRSI,
	})
	if errors.Is(err, usecase.ErrNoResults) {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(err.Error()))
	}
	if err != nil {
		metrics.APIErrors.WithLabelValues("filter").Inc()
		return xhttp.AppErrorResponse(c, err)
	}
	return xhttp.ListResponse(c, limit(rows, req.Limit), int64(len(rows)))
}

func (h *ScreenerHandler) Export(c echo.Context) error {
	defer observe("export", time.Now())

	res, _, ok := h.svc.Last()
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundError(usecase.ErrNoResults.Error()))
	}
	var buf bytes.Buffer
	if err := export.WriteXLSX(&buf, res.Records); err != nil {
		metrics.APIErrors.WithLabelValues("export").Inc()
		h.logger.Error("screen.export failed", xlogger.Error(err))
		return xhttp.InternalServerErrorResponse(c)
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+export.FileName+`"`)
	return c.Blob(http.StatusOK, xlsxContentType, buf.Bytes())
}

// Progress upgrades to a websocket and streams progress events until the
// client goes away. The latest known event is sent first.
func (h *ScreenerHandler) Progress(c echo.Context) error {
	conn, err := upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("ws.progress upgrade failed", xlogger.Error(err))
		return nil
	}
	defer conn.Close()

	events, cancel := h.hub.Subscribe()
	defer cancel()

	if ev, ok := h.hub.Last(); ok {
		if err := conn.WriteJSON(ev); err != nil {
			return nil
		}
	}

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if err := conn.WriteJSON(ev); err != nil {
				h.logger.Debug("ws.progress write failed", xlogger.Error(err))
				return nil
			}
		}
	}
}

func limit[T any](rows []T, n int) []T {
	if n > 0 && n < len(rows) {
		return rows[:n]
	}
	return rows
}
