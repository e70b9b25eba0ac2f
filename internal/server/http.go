package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mikey/bec-analyzer/internal/core"
	"github.com/mikey/bec-analyzer/internal/ports"
)

// RebuildFunc builds, trains and finalizes a fresh scorer snapshot.
type RebuildFunc func() (*core.Scorer, error)

// Server exposes the analysis engine over HTTP: analyze, stats,
// history, retrain and Prometheus metrics.
type Server struct {
	holder  *core.Holder
	store   ports.VerdictStore
	rebuild RebuildFunc
	metrics *Metrics
	logger  *zap.Logger
	addr    string
	httpSrv *http.Server
}

// New creates a new HTTP server
func New(
	holder *core.Holder,
	store ports.VerdictStore,
	rebuild RebuildFunc,
	metrics *Metrics,
	logger *zap.Logger,
	addr string,
) *Server {
	return &Server{
		holder:  holder,
		store:   store,
		rebuild: rebuild,
		metrics: metrics,
		logger:  logger,
		addr:    addr,
	}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/analyze", s.handleAnalyze).Methods(http.MethodPost)
	r.HandleFunc("/api/stats", s.handleStats).Methods(http.MethodGet)
	r.HandleFunc("/api/history", s.handleHistory).Methods(http.MethodGet)
	r.HandleFunc("/api/graph", s.handleGraph).Methods(http.MethodGet)
	r.HandleFunc("/api/retrain", s.handleRetrain).Methods(http.MethodPost)
	r.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	return r
}

// Start starts the HTTP listener
func (s *Server) Start() error {
	s.httpSrv = &http.Server{
		Addr:         s.addr,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	s.logger.Info("HTTP server starting", zap.String("address", s.addr))

	go func() {
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts the HTTP listener down gracefully
func (s *Server) Stop() error {
	if s.httpSrv == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return s.httpSrv.Shutdown(ctx)
}

// analyzeRequest mirrors the dashboard's analyze form: the amount alone
// drives the payment-request flag.
type analyzeRequest struct {
	From           string     `json:"from_addr"`
	To             string     `json:"to_addr"`
	Subject        string     `json:"subject"`
	Body           string     `json:"body"`
	Timestamp      *time.Time `json:"timestamp,omitempty"`
	TimezoneOffset int        `json:"timezone_offset"`
	Amount         float64    `json:"amount"`
}

func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	ts := time.Now().UTC()
	if req.Timestamp != nil && !req.Timestamp.IsZero() {
		ts = *req.Timestamp
	}

	email := core.Email{
		From:              req.From,
		To:                req.To,
		Subject:           req.Subject,
		Body:              req.Body,
		Timestamp:         ts,
		TimezoneOffset:    req.TimezoneOffset,
		HasPaymentRequest: req.Amount > 0,
		AmountRequested:   req.Amount,
	}

	verdict, err := s.holder.Current().Analyze(email)
	if err != nil {
		if err == core.ErrNotReady {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.metrics.AnalysesTotal.WithLabelValues(string(verdict.RiskLevel)).Inc()
	s.metrics.RiskScore.Observe(verdict.OverallRiskScore)

	record := core.NewVerdictRecord(uuid.NewString(), email, verdict)
	if err := s.store.Save(r.Context(), record); err != nil {
		s.logger.Error("Failed to persist verdict", zap.Error(err))
	}

	writeJSON(w, verdict)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.holder.Current().Stats())
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := parsePositiveInt(v); err == nil {
			limit = n
		}
	}

	records, err := s.store.Recent(r.Context(), limit)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if records == nil {
		records = []*core.VerdictRecord{}
	}
	writeJSON(w, records)
}

func (s *Server) handleGraph(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.holder.Current().Graph().ExportNodes())
}

func (s *Server) handleRetrain(w http.ResponseWriter, r *http.Request) {
	if s.rebuild == nil {
		http.Error(w, "retraining not configured", http.StatusNotImplemented)
		return
	}

	scorer, err := s.rebuild()
	if err != nil {
		s.logger.Error("Retraining failed", zap.Error(err))
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	s.holder.Swap(scorer)
	s.metrics.Retrainings.Inc()
	s.logger.Info("Scorer snapshot replaced")

	writeJSON(w, scorer.Stats())
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]any{
		"status":     "ok",
		"is_trained": s.holder.Current().IsReady(),
	})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func parsePositiveInt(v string) (int, error) {
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, strconv.ErrRange
	}
	return n, nil
}
