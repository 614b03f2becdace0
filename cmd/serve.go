package main

import (
	"context"
	"encoding/json"
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

	"github.com/cecilia-mis/trends-cli/internal/enrich"
	"github.com/cecilia-mis/trends-cli/internal/scoring"
	"github.com/cecilia-mis/trends-cli/internal/trend"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the scoring HTTP API",
	Long: `Expose scoring over HTTP.

Routes:
  GET  /health        liveness probe
  POST /score         score a JSON payload of trend records

POST /score accepts records plus optional inline calibration and
enrichment tables:

  {
    "records": [{"keyword": "ai detector", "avg_volume": 5400, ...}],
    "config": "weights:\n  large: 0.5\n",
    "pain": {"ai detector": 12},
    "buyers": {"ai detector": "consumer_urgent"},
    "top": 10
  }`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().Int("port", 0, "listen port (default: server.port config)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	port, _ := cmd.Flags().GetInt("port")
	if port == 0 {
		port = cfg.Server.Port
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           newRouter(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		zap.L().Info("serve: listening", zap.Int("port", port))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		return eris.Wrap(err, "serve: listen")
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "serve: shutdown")
	}
	zap.L().Info("serve: stopped")
	return nil
}

func newRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/health", handleHealth)
	r.Post("/score", handleScore)
	return r
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type scoreRequest struct {
	Records []map[string]any `json:"records"`
	Config  string           `json:"config,omitempty"`
	Pain    map[string]any   `json:"pain,omitempty"`
	Buyers  map[string]any   `json:"buyers,omitempty"`
	Top     int              `json:"top,omitempty"`
}

type scoredRecord struct {
	Keyword   string  `json:"keyword"`
	Large     float64 `json:"large_0_25"`
	Early     float64 `json:"early_0_25"`
	WhoPays   float64 `json:"who_pays_0_25"`
	Desperate float64 `json:"desperate_0_25"`
	Total     int     `json:"lewd_total_0_100"`
}

type scoreResponse struct {
	ConfigHash string         `json:"config_hash"`
	Records    int            `json:"records"`
	Ranked     []scoredRecord `json:"ranked"`
}

func handleScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, eris.Wrap(err, "decode request"))
		return
	}
	if len(req.Records) == 0 {
		writeError(w, http.StatusBadRequest, eris.New("records is required"))
		return
	}

	scoringCfg, err := scoring.ResolveConfigBytes([]byte(req.Config))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	batch := &trend.Batch{Rows: make([]trend.Record, len(req.Records))}
	for i, rec := range req.Records {
		batch.Rows[i] = trend.Record(rec)
	}

	engine := scoring.New(scoringCfg, enrich.FromPairs(req.Pain), enrich.FromPairs(req.Buyers))
	results, err := engine.ScoreBatch(r.Context(), batch)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	top := req.Top
	if top <= 0 {
		top = len(results)
	}
	ranked := scoring.Rank(results, top)
	out := scoreResponse{
		ConfigHash: scoring.ConfigHash(scoringCfg),
		Records:    len(results),
		Ranked:     make([]scoredRecord, len(ranked)),
	}
	for i, res := range ranked {
		out.Ranked[i] = scoredRecord{
			Keyword:   res.Row.String("keyword"),
			Large:     res.Large,
			Early:     res.Early,
			WhoPays:   res.WhoPays,
			Desperate: res.Desperate,
			Total:     res.Total,
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("serve: encode response", zap.Error(err))
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	zap.L().Warn("serve: request failed", zap.Int("status", status), zap.Error(err))
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
