package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/deckgen/deckgen/internal/config"
	"github.com/deckgen/deckgen/pkg/layout"
	"github.com/deckgen/deckgen/pkg/psi"
	"github.com/deckgen/deckgen/pkg/report"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the report engine as an HTTP service",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		return runServe(cmd.Context(), cfg)
	},
}

func runServe(ctx context.Context, cfg *config.Config) error {
	eng, err := newEngine(cfg)
	if err != nil {
		return err
	}
	defer eng.Close()

	mux := http.NewServeMux()
	mux.HandleFunc("POST /v1/report", eng.handleReport)
	mux.HandleFunc("POST /v1/paginate", eng.handlePaginate)
	mux.HandleFunc("GET /healthz", eng.handleHealthz)
	mux.Handle("GET /metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      mux,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		eng.logger.Info().Str("addr", cfg.Server.Addr).Msg("Starting report engine")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	eng.logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// reportRequest is the body of POST /v1/report.
type reportRequest struct {
	Variant       string               `json:"variant"`
	Specs         []psi.RequestSpec    `json:"specs"`
	IncludeImpact bool                 `json:"include_impact"`
	Layout        *report.LayoutConfig `json:"layout,omitempty"`
}

// reportResponse carries both the raw rows and the built deck so callers
// can render or post-process either.
type reportResponse struct {
	Rows []psi.ResultRow `json:"rows"`
	Deck *report.Deck    `json:"deck"`
}

func (e *engine) handleReport(w http.ResponseWriter, r *http.Request) {
	var req reportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}
	if req.Variant == "" {
		req.Variant = "web"
	}

	builder, err := report.Resolve(req.Variant)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	rows, err := e.runBatch(r.Context(), req.Specs, req.IncludeImpact)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, psi.ErrInvalidSpec) {
			status = http.StatusBadRequest
		}
		if errors.Is(err, errMeasurementDisabled) || errors.Is(err, errImpactDisabled) {
			status = http.StatusServiceUnavailable
		}
		writeError(w, status, err.Error())
		return
	}

	layoutCfg := e.cfg.Layout
	if req.Layout != nil {
		layoutCfg = *req.Layout
	}

	deck, err := builder(rows, e.fieldMap, layoutCfg)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, reportResponse{Rows: rows, Deck: deck})
}

// paginateRequest is the body of POST /v1/paginate: a raw table plus
// geometry, with optional filter/sort shaping.
type paginateRequest struct {
	Header        layout.Row          `json:"header"`
	Rows          []layout.Row        `json:"rows"`
	ColumnWidths  layout.ColumnWidths `json:"column_widths"`
	LineHeight    float64             `json:"line_height"`
	MaxPageHeight float64             `json:"max_page_height"`
	Spec          *report.TableSpec   `json:"spec,omitempty"`
}

type paginateResponse struct {
	Pages [][]layout.Row `json:"pages"`
}

func (e *engine) handlePaginate(w http.ResponseWriter, r *http.Request) {
	var req paginateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body: "+err.Error())
		return
	}

	rows := req.Rows
	if req.Spec != nil {
		shaped, err := req.Spec.Apply(rows)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		rows = shaped
	}

	pages, err := layout.Paginate(req.Header, rows, req.ColumnWidths, req.LineHeight, req.MaxPageHeight)
	if err != nil {
		var invalid *layout.InvalidInputError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := paginateResponse{Pages: make([][]layout.Row, 0, len(pages))}
	for _, page := range pages {
		resp.Pages = append(resp.Pages, page.Table())
	}
	writeJSON(w, http.StatusOK, resp)
}

func (e *engine) handleHealthz(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "ok"}
	if e.redis != nil {
		if err := e.redis.Ping(r.Context()).Err(); err != nil {
			status["redis"] = "unreachable"
		} else {
			status["redis"] = "ok"
		}
	}
	writeJSON(w, http.StatusOK, status)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
