package server

import (
	"LandLedger/internal/ingestion"
	"LandLedger/internal/store"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/grpc-ecosystem/grpc-gateway/v2/runtime"
)

const maxInjectBody = 1 << 20

// StatusResponse is the body of GET /v1/status.
type StatusResponse struct {
	Block          uint64           `json:"block"`
	TxIndex        uint64           `json:"tx_index"`
	LogIndex       uint64           `json:"log_index"`
	EventType      string           `json:"event_type,omitempty"`
	IdempotencyKey string           `json:"idempotency_key,omitempty"`
	ChainHash      string           `json:"chain_hash,omitempty"`
	Events         int64            `json:"events"`
	OutOfOrder     int64            `json:"out_of_order"`
	UpdatedAt      *time.Time       `json:"updated_at,omitempty"`
	Uptime         string           `json:"uptime"`
	Cache          *CacheStatus     `json:"cache,omitempty"`
	Records        map[string]int64 `json:"records,omitempty"`
}

type CacheStatus struct {
	Size      int   `json:"size"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

type route struct {
	method  string
	pattern string
	handler runtime.HandlerFunc
}

// Handler builds the HTTP mux: status, health and, when an injector is
// configured, event injection.
func (s *Server) Handler() (http.Handler, error) {
	mux := runtime.NewServeMux()

	routes := []route{
		{http.MethodGet, "/v1/status", s.handleStatus},
		{http.MethodGet, "/healthz", s.handleLiveness},
		{http.MethodGet, "/readyz", s.handleReadiness},
	}
	if s.deps.Injector != nil {
		routes = append(routes, route{http.MethodPost, "/v1/events/{type}", s.handleInject})
	}

	for _, r := range routes {
		if err := mux.HandlePath(r.method, r.pattern, r.handler); err != nil {
			return nil, fmt.Errorf("register %s %s: %w", r.method, r.pattern, err)
		}
	}
	return mux, nil
}

func (s *Server) handleLiveness(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	if s.deps.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "alive"})
		return
	}
	s.deps.Health.LivenessHandler(w, r)
}

func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	if s.deps.Health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
		return
	}
	s.deps.Health.ReadinessHandler(w, r)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request, _ map[string]string) {
	resp := StatusResponse{Uptime: time.Since(s.startTime).Round(time.Second).String()}

	if s.deps.Status != nil {
		resp.OutOfOrder = s.deps.Status.OutOfOrder()
		if cp := s.deps.Status.Checkpoint(); cp != nil {
			resp.Block = cp.Position.Block
			resp.TxIndex = cp.Position.TxIndex
			resp.LogIndex = cp.Position.LogIndex
			resp.EventType = cp.EventType
			resp.IdempotencyKey = cp.IdempotencyKey
			resp.ChainHash = cp.ChainHash
			resp.Events = cp.Events
			updated := cp.UpdatedAt
			resp.UpdatedAt = &updated
		}
	}

	if s.deps.Cache != nil {
		st := s.deps.Cache.Stats()
		resp.Cache = &CacheStatus{Size: st.Size, Hits: st.Hits, Misses: st.Misses, Evictions: st.Evictions}
	}

	if s.deps.Counter != nil && r.URL.Query().Get("counts") == "true" {
		counts, err := s.deps.Counter.CountByKind(r.Context())
		if err != nil {
			s.logger.Error().Err(err).Msg("count records")
			writeError(w, http.StatusInternalServerError, "count records failed")
			return
		}
		resp.Records = make(map[string]int64, len(counts))
		for kind, n := range counts {
			resp.Records[string(kind)] = n
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleInject(w http.ResponseWriter, r *http.Request, params map[string]string) {
	eventType := params["type"]
	body, err := io.ReadAll(io.LimitReader(r.Body, maxInjectBody))
	if err != nil {
		writeError(w, http.StatusBadRequest, "read body failed")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 30*time.Second)
	defer cancel()

	if err := s.deps.Injector.Inject(ctx, eventType, body); err != nil {
		switch {
		case errors.Is(err, ingestion.ErrParse):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, store.ErrRejected):
			writeError(w, http.StatusUnprocessableEntity, err.Error())
		case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
			writeError(w, http.StatusGatewayTimeout, "event not processed in time")
		default:
			s.logger.Error().Err(err).Str("event_type", eventType).Msg("inject event")
			writeError(w, http.StatusServiceUnavailable, err.Error())
		}
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "applied", "event_type": eventType})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
