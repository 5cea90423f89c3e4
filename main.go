package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/breez/device-sync/config"
	"github.com/breez/device-sync/conflict"
	"github.com/breez/device-sync/coordinator"
	"github.com/breez/device-sync/metrics"
	"github.com/breez/device-sync/notify"
	"github.com/breez/device-sync/proto"
	"github.com/breez/device-sync/store"
	"github.com/breez/device-sync/store/postgres"
	"github.com/breez/device-sync/store/sqlite"
	grpcprom "github.com/grpc-ecosystem/go-grpc-middleware/providers/prometheus"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/keepalive"
)

func main() {
	config, err := config.NewConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	log, err := newLogger(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	storage, err := newStorage(config)
	if err != nil {
		log.Fatal("failed to open storage", zap.Error(err))
	}
	defer storage.Close()

	fanout, closeFanout, err := newFanout(ctx, config, log)
	if err != nil {
		log.Fatal("failed to create fanout", zap.Error(err))
	}
	defer closeFanout()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(reg)
	srvMetrics := grpcprom.NewServerMetrics(grpcprom.WithServerHandlingTimeHistogram())
	reg.MustRegister(srvMetrics)

	c := coordinator.New(storage, conflict.NewResolver(), fanout, log.Named("coordinator"), coordinator.Options{
		LockTimeout:     config.LockTimeout(),
		DefaultStrategy: config.DefaultStrategy(),
	})
	syncServer := NewPersistentSyncerServer(config, c, log.Named("grpc"))

	grpcListener, err := net.Listen("tcp", config.GrpcListenAddress)
	if err != nil {
		log.Fatal("failed to listen", zap.String("address", config.GrpcListenAddress), zap.Error(err))
	}
	s := CreateServer(config, syncServer, srvMetrics)
	httpServer := &http.Server{
		Addr:              config.HttpListenAddress,
		Handler:           newHTTPHandler(config, s, c, reg, log.Named("http")),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("grpc server listening", zap.String("address", config.GrpcListenAddress))
		if err := s.Serve(grpcListener); err != nil {
			log.Error("grpc server stopped", zap.Error(err))
			stop()
		}
	}()
	go func() {
		log.Info("http server listening", zap.String("address", config.HttpListenAddress))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server stopped", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	s.GracefulStop()
}

func CreateServer(config *config.Config, syncServer proto.SyncerServer, srvMetrics *grpcprom.ServerMetrics) *grpc.Server {
	opts := []grpc.ServerOption{
		grpc.KeepaliveEnforcementPolicy(keepalive.EnforcementPolicy{
			MinTime:             time.Second * 5,
			PermitWithoutStream: true,
		}),
	}
	if srvMetrics != nil {
		opts = append(opts,
			grpc.ChainUnaryInterceptor(srvMetrics.UnaryServerInterceptor()),
			grpc.ChainStreamInterceptor(srvMetrics.StreamServerInterceptor()),
		)
	}
	s := grpc.NewServer(opts...)
	proto.RegisterSyncerServer(s, syncServer)
	if srvMetrics != nil {
		srvMetrics.InitializeMetrics(s)
	}
	return s
}

func newLogger(config *config.Config) (*zap.Logger, error) {
	if config.DevLogging {
		return zap.NewDevelopment()
	}
	level, err := zap.ParseAtomicLevel(config.LogLevel)
	if err != nil {
		return nil, err
	}
	cfg := zap.NewProductionConfig()
	cfg.Level = level
	return cfg.Build()
}

// newStorage prefers Postgres when DATABASE_URL is set and falls back to a
// SQLite file under SQLITE_DIR_PATH.
func newStorage(config *config.Config) (store.SyncStorage, error) {
	if config.PgDatabaseUrl != "" {
		storage, err := postgres.NewPGSyncStorage(config.PgDatabaseUrl)
		if err != nil {
			return nil, err
		}
		return storage, nil
	}
	if err := os.MkdirAll(config.SQLiteDirPath, 0700); err != nil {
		return nil, fmt.Errorf("failed to create %v: %w", config.SQLiteDirPath, err)
	}
	storage, err := sqlite.NewSQLiteSyncStorage(filepath.Join(config.SQLiteDirPath, "sync.db"))
	if err != nil {
		return nil, err
	}
	return storage, nil
}

// newFanout shares buffer and presence through Redis when REDIS_URL is set,
// otherwise everything stays in process.
func newFanout(ctx context.Context, config *config.Config, log *zap.Logger) (notify.Fanout, func(), error) {
	if config.RedisUrl == "" {
		buffer := notify.NewRingBuffer(config.OfflineBufferCapacity)
		hub := notify.NewHub(buffer, notify.WithLogger(log.Named("hub")), notify.WithKnownTTL(config.OfflineBufferTTL()))
		go hub.ForgetLoop(ctx, time.Hour)
		return hub, func() {}, nil
	}
	opts, err := redis.ParseURL(config.RedisUrl)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	buffer := notify.NewRedisBuffer(client, notify.RedisBufferOptions{
		Capacity: config.OfflineBufferCapacity,
		TTL:      config.OfflineBufferTTL(),
	})
	fanout := notify.NewRedisFanout(client, buffer, log.Named("fanout"), notify.RedisFanoutOptions{
		KnownTTL: config.OfflineBufferTTL(),
	})
	if err := fanout.Start(ctx); err != nil {
		client.Close()
		return nil, nil, err
	}
	return fanout, func() {
		fanout.Close()
		client.Close()
	}, nil
}
