package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/pagefinder/internal/analysis"
	"github.com/sells-group/pagefinder/internal/model"
	"github.com/sells-group/pagefinder/internal/oracle"
)

var servePort int

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API for page analysis and answers",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("serve"); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		h := &apiHandler{
			oracle:   initOracle(cfg),
			settings: cfg.Settings(),
			maxBody:  cfg.Server.MaxBodyBytes,
		}

		port := servePort
		if port == 0 {
			port = cfg.Server.Port
		}

		srv := &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           newRouter(h, cfg.Server.CORSOrigins),
			ReadHeaderTimeout: 10 * time.Second,
		}

		// Graceful shutdown
		go func() {
			<-ctx.Done()
			zap.L().Info("shutting down server")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = srv.Shutdown(shutdownCtx)
		}()

		zap.L().Info("starting server", zap.Int("port", port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return eris.Wrap(err, "server listen")
		}

		return nil
	},
}

// apiHandler serves the analysis API. Each request gets its own session.
type apiHandler struct {
	oracle   oracle.Oracle
	settings analysis.Settings
	maxBody  int64
}

type analyzeRequest struct {
	Query      string   `json:"query"`
	Name       string   `json:"name"`
	Pages      []string `json:"pages"`
	BatchSize  int      `json:"batch_size"`
	MaxResults int      `json:"max_results"`
	SinglePage bool     `json:"single_page"`
}

type answerRequest struct {
	Query     string          `json:"query"`
	Name      string          `json:"name"`
	Pages     []string        `json:"pages"`
	Selection model.Selection `json:"selection"`
}

func newRouter(h *apiHandler, origins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		ExposedHeaders: []string{"X-Session-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/v1", func(r chi.Router) {
		r.Post("/analyze", h.analyze)
		r.Post("/answer", h.answer)
	})

	return r
}

func (h *apiHandler) analyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if !h.decode(w, r, &req) {
		return
	}

	settings := h.settings
	if req.SinglePage {
		settings = settings.SinglePage()
	}
	if req.BatchSize != 0 {
		settings.BatchSize = req.BatchSize
	}
	if req.MaxResults != 0 {
		settings.MaxResults = req.MaxResults
	}

	doc := model.NewDocument(req.Name, req.Pages)
	session, err := analysis.NewSession(doc, req.Query, h.oracle, settings, analysis.WithProgress(logProgress))
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("X-Session-ID", session.ID())

	out, err := session.Run(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *apiHandler) answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if !h.decode(w, r, &req) {
		return
	}

	doc := model.NewDocument(req.Name, req.Pages)
	ans, err := analysis.Synthesize(r.Context(), h.oracle, doc, req.Query, req.Selection, h.settings)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ans)
}

func (h *apiHandler) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if h.maxBody > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxBody)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "request body too large"})
			return false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return false
	}
	return true
}

// statusFor maps engine errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, analysis.ErrInvalidConfiguration),
		errors.Is(err, analysis.ErrEmptyQuery),
		errors.Is(err, analysis.ErrEmptySelection):
		return http.StatusBadRequest
	case errors.Is(err, oracle.ErrQuotaExhausted):
		return http.StatusTooManyRequests
	case errors.Is(err, oracle.ErrOracleUnavailable), errors.Is(err, oracle.ErrOracleRejected):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		zap.L().Error("api request failed", zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func init() {
	serveCmd.Flags().IntVar(&servePort, "port", 0, "server port (default from config)")
	rootCmd.AddCommand(serveCmd)
}
