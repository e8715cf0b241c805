package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feedrelay/feedrelay/pkg/history"
	"github.com/feedrelay/feedrelay/pkg/scheduler"
	"github.com/feedrelay/feedrelay/server/mocks"
)

type testConfig struct{}

func (testConfig) GetServerConfig() (string, time.Duration) { return "127.0.0.1:0", time.Second }

func testServer(t *testing.T, dispatcher Dispatcher, audit Audit) *httptest.Server {
	t.Helper()
	s := New(testConfig{}, dispatcher, audit, "test", false)
	ts := httptest.NewServer(s.router)
	t.Cleanup(ts.Close)
	return ts
}

func TestStatusHandler(t *testing.T) {
	dispatcher := &mocks.DispatcherMock{
		StatusFunc: func() scheduler.Status {
			return scheduler.Status{Cursor: "item-42"}
		},
	}
	audit := &mocks.AuditMock{
		CountByDestinationFunc: func(context.Context) (map[string]int, error) {
			return map[string]int{"telegram": 7}, nil
		},
	}
	ts := testServer(t, dispatcher, audit)

	resp, err := http.Get(ts.URL + "/api/v1/status")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, "item-42", body["dispatch"].(map[string]any)["cursor"])
	assert.Equal(t, float64(7), body["delivered"].(map[string]any)["telegram"])
}

func TestDeliveriesHandler(t *testing.T) {
	audit := &mocks.AuditMock{
		RecentFunc: func(_ context.Context, limit int) ([]history.Delivery, error) {
			assert.Equal(t, 2, limit)
			return []history.Delivery{{ItemID: "a", Destination: "telegram"}}, nil
		},
	}
	ts := testServer(t, &mocks.DispatcherMock{}, audit)

	resp, err := http.Get(ts.URL + "/api/v1/deliveries?limit=2")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body, 1)
	assert.Equal(t, "a", body[0]["item_id"])
}

func TestDeliveriesHandler_BadLimit(t *testing.T) {
	ts := testServer(t, &mocks.DispatcherMock{}, &mocks.AuditMock{})

	resp, err := http.Get(ts.URL + "/api/v1/deliveries?limit=bogus")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestDeliveriesHandler_NoAudit(t *testing.T) {
	ts := testServer(t, &mocks.DispatcherMock{}, nil)

	resp, err := http.Get(ts.URL + "/api/v1/deliveries")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestSyncHandler(t *testing.T) {
	dispatcher := &mocks.DispatcherMock{
		SyncCursorFunc: func(context.Context) (string, error) { return "item-99", nil },
	}
	ts := testServer(t, dispatcher, nil)

	resp, err := http.Post(ts.URL+"/api/v1/sync", "application/json", strings.NewReader(""))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "item-99", body["cursor"])
	assert.Len(t, dispatcher.SyncCursorCalls(), 1)
}

func TestSyncHandler_Failure(t *testing.T) {
	dispatcher := &mocks.DispatcherMock{
		SyncCursorFunc: func(context.Context) (string, error) { return "", fmt.Errorf("feed down") },
	}
	ts := testServer(t, dispatcher, nil)

	resp, err := http.Post(ts.URL+"/api/v1/sync", "application/json", strings.NewReader(""))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "feed down", body["error"])
}

func TestPingMiddleware(t *testing.T) {
	ts := testServer(t, &mocks.DispatcherMock{}, nil)

	resp, err := http.Get(ts.URL + "/ping")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
