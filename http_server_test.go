package main

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/breez/device-sync/config"
	"github.com/breez/device-sync/conflict"
	"github.com/breez/device-sync/coordinator"
	"github.com/breez/device-sync/metrics"
	"github.com/breez/device-sync/middleware"
	"github.com/breez/device-sync/notify"
	"github.com/breez/device-sync/store"
	"github.com/breez/device-sync/store/sqlite"
	"github.com/btcsuite/btcd/btcec/v2"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func httpServer(t *testing.T) (*httptest.Server, *coordinator.Coordinator) {
	cfg := &config.Config{OfflineBufferCapacity: 10}
	storage, err := sqlite.NewSQLiteSyncStorage(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err, "failed to open storage")
	t.Cleanup(func() { storage.Close() })

	hub := notify.NewHub(notify.NewRingBuffer(cfg.OfflineBufferCapacity))
	c := coordinator.New(storage, conflict.NewResolver(), hub, zap.NewNop(), coordinator.Options{})
	s := CreateServer(cfg, NewPersistentSyncerServer(cfg, c, zap.NewNop()), nil)
	t.Cleanup(s.Stop)

	reg := prometheus.NewRegistry()
	metrics.Register(reg)
	ts := httptest.NewServer(newHTTPHandler(cfg, s, c, reg, zap.NewNop()))
	t.Cleanup(ts.Close)
	return ts, c
}

func TestDeviceSocketReceivesEnvelopes(t *testing.T) {
	ts, c := httpServer(t)
	privateKey, err := btcec.NewPrivateKey()
	require.NoError(t, err, "failed to create private key")

	requestTime := time.Now().Unix()
	signature, err := middleware.SignMessage(privateKey, []byte(middleware.SignTrackChanges("watch", requestTime)))
	require.NoError(t, err)
	q := url.Values{}
	q.Set("device_id", "watch")
	q.Set("request_time", fmt.Sprint(requestTime))
	q.Set("signature", signature)
	wsURL := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws?" + q.Encode()

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err, "failed to dial websocket")
	defer conn.Close()

	owner, err := middleware.VerifyMessage([]byte(middleware.SignTrackChanges("watch", requestTime)), signature)
	require.NoError(t, err)
	ownerID := fmt.Sprintf("%x", owner.SerializeCompressed())

	// Buffered or live, the envelope reaches the socket once registered.
	res, err := c.SubmitMutation(context.Background(), coordinator.Mutation{
		OwnerId:   ownerID,
		DeviceId:  "phone",
		DataType:  store.DeviceSettings,
		Operation: store.OperationCreate,
		Payload:   []byte("ping"),
	})
	require.NoError(t, err)
	require.Equal(t, int64(1), res.Version)

	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var env notify.Envelope
	require.NoError(t, conn.ReadJSON(&env))
	require.Equal(t, ownerID, env.OwnerId)
	require.Equal(t, store.DeviceSettings, env.DataType)
	require.Equal(t, int64(1), env.Version)
}

func TestDeviceSocketRequiresSignature(t *testing.T) {
	ts, _ := httpServer(t)
	resp, err := http.Get(ts.URL + "/ws?device_id=watch")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestMetricsEndpoint(t *testing.T) {
	ts, _ := httpServer(t)
	resp, err := http.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(ts.URL + "/unknown")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
