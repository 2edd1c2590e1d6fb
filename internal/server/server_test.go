package server_test

import (
	"LandLedger/internal/entity"
	"LandLedger/internal/event"
	"LandLedger/internal/ingestion"
	"LandLedger/internal/observability"
	"LandLedger/internal/server"
	"LandLedger/internal/store"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fakeStatus struct {
	cp *store.Checkpoint
}

func (f fakeStatus) Checkpoint() *store.Checkpoint { return f.cp }
func (f fakeStatus) OutOfOrder() int64             { return 2 }

type fakeCounter struct{}

func (fakeCounter) CountByKind(context.Context) (map[entity.Kind]int64, error) {
	return map[entity.Kind]int64{entity.KindLand: 3, entity.KindUser: 5}, nil
}

type fakeInjector struct {
	got []string
	err error
}

func (f *fakeInjector) Inject(_ context.Context, eventType string, data []byte) error {
	f.got = append(f.got, eventType+":"+string(data))
	return f.err
}

func newHandler(t *testing.T, deps server.Deps) http.Handler {
	t.Helper()
	deps.Logger = zerolog.Nop()
	srv, err := server.New(":0", ":0", deps)
	require.NoError(t, err)
	h, err := srv.Handler()
	require.NoError(t, err)
	return h
}

func do(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(method, target, strings.NewReader(body)))
	return rec
}

func TestStatusReportsCheckpoint(t *testing.T) {
	cp := &store.Checkpoint{
		Position:       event.Position{Block: 120, TxIndex: 1, LogIndex: 4},
		EventType:      "BidFinalized",
		IdempotencyKey: "0xabc-4",
		ChainHash:      "deadbeef",
		Events:         42,
		UpdatedAt:      time.Unix(1700000000, 0).UTC(),
	}
	h := newHandler(t, server.Deps{Status: fakeStatus{cp: cp}, Counter: fakeCounter{}})

	rec := do(h, http.MethodGet, "/v1/status?counts=true", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp server.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Equal(t, uint64(120), resp.Block)
	require.Equal(t, uint64(4), resp.LogIndex)
	require.Equal(t, "deadbeef", resp.ChainHash)
	require.Equal(t, int64(42), resp.Events)
	require.Equal(t, int64(2), resp.OutOfOrder)
	require.Equal(t, int64(3), resp.Records["Land"])
	require.Nil(t, resp.Cache)
}

func TestStatusBeforeFirstEvent(t *testing.T) {
	h := newHandler(t, server.Deps{Status: fakeStatus{}})

	rec := do(h, http.MethodGet, "/v1/status", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp server.StatusResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Zero(t, resp.Events)
	require.Empty(t, resp.ChainHash)
	require.Nil(t, resp.Records)
}

func TestHealthEndpoints(t *testing.T) {
	health := observability.NewHealthChecker()
	health.SetDependency("store", true)
	h := newHandler(t, server.Deps{Health: health})

	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/healthz", "").Code)
	require.Equal(t, http.StatusServiceUnavailable, do(h, http.MethodGet, "/readyz", "").Code)

	health.SetReady(true)
	require.Equal(t, http.StatusOK, do(h, http.MethodGet, "/readyz", "").Code)
}

func TestInjectEndpoint(t *testing.T) {
	inj := &fakeInjector{}
	h := newHandler(t, server.Deps{Injector: inj})

	rec := do(h, http.MethodPost, "/v1/events/Transfer", `{"token_id":"1"}`)
	require.Equal(t, http.StatusAccepted, rec.Code)
	require.Equal(t, []string{`Transfer:{"token_id":"1"}`}, inj.got)

	inj.err = fmt.Errorf("%w: bad address", ingestion.ErrParse)
	require.Equal(t, http.StatusBadRequest, do(h, http.MethodPost, "/v1/events/Transfer", `{}`).Code)

	inj.err = fmt.Errorf("commit: %w", store.ErrRejected)
	require.Equal(t, http.StatusUnprocessableEntity, do(h, http.MethodPost, "/v1/events/Transfer", `{}`).Code)

	inj.err = errors.New("rpc unavailable")
	require.Equal(t, http.StatusServiceUnavailable, do(h, http.MethodPost, "/v1/events/Transfer", `{}`).Code)
}

func TestInjectDisabledWithoutInjector(t *testing.T) {
	h := newHandler(t, server.Deps{})
	rec := do(h, http.MethodPost, "/v1/events/Transfer", `{}`)
	require.NotEqual(t, http.StatusAccepted, rec.Code)
}
