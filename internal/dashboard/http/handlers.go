package dashboardhttp

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/wayne-insights/dashboard/internal/dashboard"
	"github.com/wayne-insights/dashboard/internal/dashboard/export"
	"github.com/wayne-insights/dashboard/internal/dashboard/ui"
	"github.com/wayne-insights/dashboard/internal/platform/httpx"
	"github.com/wayne-insights/dashboard/internal/view"
)

const pageTitle = "Executive Dashboard"

const requestTimeout = 10 * time.Second

// DashboardService defines the snapshot contract used by the handler.
type DashboardService interface {
	Page(ctx context.Context) dashboard.Page
	Snapshot(ctx context.Context) (*dashboard.Snapshot, error)
	Refresh(ctx context.Context) (*dashboard.Snapshot, error)
	Invalidate(ctx context.Context) error
}

// Handler serves the executive dashboard page and its exports.
type Handler struct {
	logger    *slog.Logger
	service   DashboardService
	templates *view.Engine
	renderers ui.Renderers
	csvPool   sync.Pool
	now       func() time.Time
	timeout   time.Duration
}

// NewHandler constructs the dashboard HTTP handler.
func NewHandler(logger *slog.Logger, service DashboardService, templates *view.Engine, renderers ui.Renderers) *Handler {
	h := &Handler{
		logger:    logger,
		service:   service,
		templates: templates,
		renderers: renderers,
		now:       time.Now,
		timeout:   requestTimeout,
	}
	h.csvPool.New = func() interface{} { return new(bytes.Buffer) }
	return h
}

// WithNow overrides the handler clock for testing.
func (h *Handler) WithNow(fn func() time.Time) {
	if fn != nil {
		h.now = fn
	}
}

// WithTimeout bounds how long one request may wait for the snapshot.
func (h *Handler) WithTimeout(d time.Duration) {
	if d > 0 {
		h.timeout = d
	}
}

func (h *Handler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	page := h.service.Page(ctx)
	if page.State != dashboard.StateReady || page.Snapshot == nil {
		h.logError("load dashboard", page.Err)
		h.renderError(w, r, http.StatusBadGateway, page.Message)
		return
	}

	vm, err := ui.BuildViewModel(*page.Snapshot, h.renderers)
	if err != nil {
		h.logError("render charts", err)
		h.renderError(w, r, http.StatusInternalServerError, dashboard.ErrorMessage)
		return
	}

	viewData := view.TemplateData{
		Title:       pageTitle,
		CurrentPath: r.URL.Path,
		Data:        vm,
	}
	if err := h.templates.Render(w, "pages/executive.html", viewData); err != nil {
		h.handleServerError(w, "render template", err)
	}
}

func (h *Handler) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.service.Snapshot(ctx)
	if err != nil {
		h.logError("load snapshot", err)
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", dashboard.ErrorMessage)
		return
	}
	httpx.JSON(w, http.StatusOK, snap)
}

func (h *Handler) handleCSV(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	snap, err := h.service.Snapshot(ctx)
	if err != nil {
		h.logError("load snapshot", err)
		httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", dashboard.ErrorMessage)
		return
	}

	buf := h.csvPool.Get().(*bytes.Buffer)
	buf.Reset()
	defer func() {
		buf.Reset()
		h.csvPool.Put(buf)
	}()

	if err := export.WriteSnapshotCSV(buf, *snap); err != nil {
		h.handleServerError(w, "write snapshot csv", err)
		return
	}

	filename := fmt.Sprintf("executive-dashboard-%s.csv", h.now().UTC().Format("2006-01-02"))
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=\"%s\"", filename))
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logError("stream csv", err)
	}
}

func (h *Handler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.service.Invalidate(ctx); err != nil && h.logger != nil {
		h.logger.Warn("invalidate snapshot cache", slog.Any("error", err))
	}
	snap, err := h.service.Refresh(ctx)
	if err != nil {
		h.logError("refresh snapshot", err)
		if wantsJSON(r) {
			httpx.Problem(w, http.StatusBadGateway, "Bad Gateway", dashboard.ErrorMessage)
			return
		}
		h.renderError(w, r, http.StatusBadGateway, dashboard.ErrorMessage)
		return
	}
	if wantsJSON(r) {
		httpx.JSON(w, http.StatusOK, snap)
		return
	}
	http.Redirect(w, r, "/executive", http.StatusSeeOther)
}

func (h *Handler) renderError(w http.ResponseWriter, r *http.Request, status int, message string) {
	if message == "" {
		message = dashboard.ErrorMessage
	}
	path := r.URL.Path
	if r.Method != http.MethodGet {
		path = "/executive"
	}
	data := view.TemplateData{
		Title:       pageTitle,
		CurrentPath: path,
		Data:        errorPage{Message: message},
	}
	if err := h.templates.RenderStatus(w, status, "pages/error.html", data); err != nil {
		h.handleServerError(w, "render error page", err)
	}
}

type errorPage struct {
	Message string
}

func wantsJSON(r *http.Request) bool {
	return strings.Contains(r.Header.Get("Accept"), "application/json")
}

func (h *Handler) handleServerError(w http.ResponseWriter, context string, err error) {
	h.logError(context, err)
	http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
}

func (h *Handler) logError(context string, err error) {
	if h.logger == nil {
		return
	}
	if err == nil {
		err = errors.New("unknown failure")
	}
	h.logger.Error(context, slog.Any("error", err))
}
