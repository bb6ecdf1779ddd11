// Package v1 exposes the HTTP mirror of the programmatic facade: JSON
// endpoints for the latest price, full report, per-venue feed health, and
// oracle-signal comparison of one or more tracked assets.
package v1

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/justinas/alice"
	"github.com/rs/cors"
	"github.com/rs/zerolog"

	"github.com/ojo-network/refprice-feeder/config"
	"github.com/ojo-network/refprice-feeder/oracle"
	"github.com/ojo-network/refprice-feeder/oracle/types"
)

const (
	// APIPathPrefix is mounted in front of every route this router
	// registers.
	APIPathPrefix = "/api/v1"

	StatusAvailable   = "available"
	StatusUnavailable = "unavailable"
)

// FeedStat is the JSON form of feeder.FeedStat, with snake_case field
// names.
type FeedStat struct {
	Venue          types.Venue `json:"venue"`
	Connected      bool        `json:"connected"`
	LastPrice      float64     `json:"last_price"`
	AgeMs          int64       `json:"age_ms"`
	MessageCount   int64       `json:"message_count"`
	ErrorCount     int64       `json:"error_count"`
	ReconnectCount int64       `json:"reconnect_count"`
}

// Facade is the contract the v1 router depends on. main wires a
// map[types.Asset]*feeder.Feed behind this interface via AssetFacade.
type Facade interface {
	GetPrice(asset types.Asset) (float64, bool)
	GetReport(asset types.Asset) (*types.PriceReport, bool)
	FeedStats(asset types.Asset) ([]FeedStat, bool)
	GetOracleSignal(asset types.Asset) (oracle.OracleSignal, bool)
}

// Router wires Facade to gorilla/mux routes under APIPathPrefix.
type Router struct {
	logger zerolog.Logger
	cfg    config.Config
	facade Facade
}

// New builds a Router backed by facade.
func New(logger zerolog.Logger, cfg config.Config, facade Facade) *Router {
	return &Router{
		logger: logger.With().Str("module", "router").Logger(),
		cfg:    cfg,
		facade: facade,
	}
}

// RegisterRoutes mounts every handler under prefix on mux, wrapped in a
// CORS + request-logging middleware chain.
func (r *Router) RegisterRoutes(router *mux.Router, prefix string) {
	corsOptions := cors.Options{
		AllowedOrigins: r.cfg.Server.AllowedOrigins,
	}
	if r.cfg.Server.VerboseCORS {
		corsOptions.Debug = true
	}
	chain := alice.New(cors.New(corsOptions).Handler, r.loggingMiddleware)

	sub := router.PathPrefix(prefix).Subrouter()
	sub.Handle("/healthz", chain.ThenFunc(r.healthzHandler)).Methods(http.MethodGet)
	sub.Handle("/price/{asset}", chain.ThenFunc(r.priceHandler)).Methods(http.MethodGet)
	sub.Handle("/report/{asset}", chain.ThenFunc(r.reportHandler)).Methods(http.MethodGet)
	sub.Handle("/stats/{asset}", chain.ThenFunc(r.statsHandler)).Methods(http.MethodGet)
	sub.Handle("/oracle-signal/{asset}", chain.ThenFunc(r.oracleSignalHandler)).Methods(http.MethodGet)
}

func (r *Router) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		r.logger.Debug().Str("path", req.URL.Path).Msg("handling request")
		next.ServeHTTP(w, req)
	})
}

func (r *Router) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": StatusAvailable})
}

// PriceResponse is the body of GET /price/{asset}.
type PriceResponse struct {
	Asset         types.Asset `json:"asset"`
	Price         float64     `json:"price"`
	DivergencePct float64     `json:"divergence_pct"`
	Confidence    float64     `json:"confidence"`
	SourceCount   int         `json:"source_count"`
	GeneratedAtMs int64       `json:"generated_at_ms"`
}

func (r *Router) priceHandler(w http.ResponseWriter, req *http.Request) {
	asset := types.Asset(mux.Vars(req)["asset"])
	report, ok := r.facade.GetReport(asset)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": StatusUnavailable})
		return
	}
	writeJSON(w, http.StatusOK, PriceResponse{
		Asset:         report.Asset,
		Price:         report.Price,
		DivergencePct: report.DivergencePct,
		Confidence:    report.Confidence,
		SourceCount:   report.SourceCount,
		GeneratedAtMs: report.GeneratedAtMs,
	})
}

func (r *Router) reportHandler(w http.ResponseWriter, req *http.Request) {
	asset := types.Asset(mux.Vars(req)["asset"])
	report, ok := r.facade.GetReport(asset)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": StatusUnavailable})
		return
	}
	writeJSON(w, http.StatusOK, report)
}

// StatsResponse is the body of GET /stats/{asset}.
type StatsResponse struct {
	Asset types.Asset `json:"asset"`
	Feeds []FeedStat  `json:"feeds"`
}

func (r *Router) statsHandler(w http.ResponseWriter, req *http.Request) {
	asset := types.Asset(mux.Vars(req)["asset"])
	stats, ok := r.facade.FeedStats(asset)
	if !ok {
		writeJSON(w, http.StatusNotFound, map[string]string{"status": StatusUnavailable})
		return
	}
	writeJSON(w, http.StatusOK, StatsResponse{Asset: asset, Feeds: stats})
}

func (r *Router) oracleSignalHandler(w http.ResponseWriter, req *http.Request) {
	asset := types.Asset(mux.Vars(req)["asset"])
	signal, ok := r.facade.GetOracleSignal(asset)
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, signal)
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
