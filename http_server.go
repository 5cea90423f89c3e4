package main

import (
	"context"
	"net/http"
	"time"

	"github.com/breez/device-sync/config"
	"github.com/breez/device-sync/coordinator"
	"github.com/breez/device-sync/middleware"
	"github.com/breez/device-sync/notify"
	"github.com/gorilla/websocket"
	"github.com/improbable-eng/grpc-web/go/grpcweb"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// newHTTPHandler serves browser devices: grpc-web for the Syncer calls, a
// websocket for envelope push and the prometheus endpoint.
func newHTTPHandler(config *config.Config, s *grpc.Server, c *coordinator.Coordinator, gatherer prometheus.Gatherer, log *zap.Logger) http.Handler {
	wrapped := grpcweb.WrapServer(s,
		grpcweb.WithOriginFunc(func(string) bool { return true }),
		grpcweb.WithWebsockets(true),
		grpcweb.WithWebsocketOriginFunc(func(*http.Request) bool { return true }),
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		serveDeviceSocket(w, r, config, c, log)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if wrapped.IsGrpcWebRequest(r) || wrapped.IsGrpcWebSocketRequest(r) || wrapped.IsAcceptableGrpcCorsRequest(r) {
			wrapped.ServeHTTP(w, r)
			return
		}
		http.NotFound(w, r)
	})

	return cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"grpc-status", "grpc-message"},
	}).Handler(mux)
}

func serveDeviceSocket(w http.ResponseWriter, r *http.Request, config *config.Config, c *coordinator.Coordinator, log *zap.Logger) {
	ownerID, deviceID, err := middleware.AuthenticateWebSocket(config, r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnauthorized)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("websocket upgrade failed", zap.Error(err))
		return
	}

	ch := notify.NewQueueChannel(deviceQueueSize(config))
	if err := c.RegisterDevice(r.Context(), ownerID, deviceID, ch); err != nil {
		log.Warn("failed to register device", zap.String("owner", ownerID), zap.String("device", deviceID), zap.Error(err))
		conn.Close()
		return
	}
	log.Debug("device connected", zap.String("owner", ownerID), zap.String("device", deviceID))
	if err := notify.ServeWebSocket(conn, ch, wsWriteTimeout); err != nil {
		log.Debug("device socket closed", zap.String("device", deviceID), zap.Error(err))
	}
	c.DetachDevice(context.Background(), deviceID, ch)
}

// deviceQueueSize leaves room for a full buffer replay plus live traffic.
func deviceQueueSize(config *config.Config) int {
	return config.OfflineBufferCapacity + trackQueueSize
}
