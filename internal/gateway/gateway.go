// ABOUTME: Gateway orchestrator wiring the relay core to its collaborators
// ABOUTME: Manages store, bus, cache, filter and health endpoint lifecycle

package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/h2ph/prism-relay/internal/bus"
	"github.com/h2ph/prism-relay/internal/config"
	"github.com/h2ph/prism-relay/internal/directory"
	"github.com/h2ph/prism-relay/internal/filter"
	"github.com/h2ph/prism-relay/internal/playercache"
	"github.com/h2ph/prism-relay/internal/presence"
	"github.com/h2ph/prism-relay/internal/relay"
	"github.com/h2ph/prism-relay/internal/store"
)

// Gateway assembles the relay core for one proxy instance: backing store,
// relay bus, player cache, spam filter, presence registry and the chat
// router, plus the health HTTP endpoint.
type Gateway struct {
	config     *config.Config
	logger     *slog.Logger
	store      store.Store
	bus        bus.Bus
	cache      *playercache.Cache
	filter     *filter.Filter
	players    *presence.Registry
	router     *relay.Router
	httpServer *http.Server

	// instanceID identifies this proxy instance for relay origin dedup
	instanceID string

	// degraded is set when Redis was unavailable at startup and the
	// in-process bus is standing in; cross-instance relay is off.
	degraded bool
}

// New builds a Gateway from configuration. A Redis outage downgrades the
// relay to local-only operation instead of failing startup; chat must keep
// working on this instance regardless.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Gateway, error) {
	if logger == nil {
		logger = slog.Default()
	}

	st, err := store.NewSQLiteStore(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	instanceID := uuid.New().String()

	var relayBus bus.Bus
	var dir relay.SessionDirectory
	degraded := false
	redisBus, err := bus.NewRedisBus(ctx, bus.RedisOptions{
		Addr:     cfg.Redis.Addr,
		Username: cfg.Redis.Username,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		logger.Warn("redis unavailable, relay degraded to local-only", "error", err)
		relayBus = bus.NewMemoryBus()
		degraded = true
	} else {
		relayBus = redisBus
		dir = directory.New(redisBus.Client(), logger)
	}

	f := filter.New(filter.Config{
		CooldownSeconds:   *cfg.Chat.CooldownSeconds,
		SpamWindowSeconds: *cfg.Chat.SpamWindowSeconds,
		SpamMaxMessages:   *cfg.Chat.SpamMaxMessages,
		RepeatMinLength:   *cfg.Chat.RepeatMinLength,
		RepeatSimilarity:  *cfg.Chat.RepeatSimilarity,
	})
	cache := playercache.New(st, logger)
	players := presence.NewRegistry(logger)

	router := relay.New(relay.Options{
		InstanceID: instanceID,
		Filter:     f,
		Cache:      cache,
		Bus:        relayBus,
		Players:    players,
		Sessions:   st,
		Directory:  dir,
		Logger:     logger,
	})

	return &Gateway{
		config:     cfg,
		logger:     logger,
		store:      st,
		bus:        relayBus,
		cache:      cache,
		filter:     f,
		players:    players,
		router:     router,
		instanceID: instanceID,
		degraded:   degraded,
	}, nil
}

// Router exposes the chat router for the host event system to drive.
func (g *Gateway) Router() *relay.Router {
	return g.router
}

// InstanceID returns this process's relay origin identifier.
func (g *Gateway) InstanceID() string {
	return g.instanceID
}

// Start subscribes the relay topics and serves the health endpoint until
// the context is canceled.
func (g *Gateway) Start(ctx context.Context) error {
	g.router.Start()

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", g.handleHealthz)
	mux.HandleFunc("/statusz", g.handleStatusz)

	g.httpServer = &http.Server{
		Addr:    g.config.Server.HTTPAddr,
		Handler: mux,
	}

	errCh := make(chan error, 1)
	go func() {
		g.logger.Info("http server listening", "addr", g.config.Server.HTTPAddr)
		if err := g.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		return g.Shutdown()
	case err := <-errCh:
		return fmt.Errorf("http server: %w", err)
	}
}

// Shutdown stops the HTTP server and closes the bus, filter and store.
func (g *Gateway) Shutdown() error {
	g.logger.Info("shutting down")

	if g.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := g.httpServer.Shutdown(ctx); err != nil {
			g.logger.Warn("http shutdown failed", "error", err)
		}
	}

	if err := g.bus.Close(); err != nil {
		g.logger.Warn("bus close failed", "error", err)
	}
	g.filter.Close()

	if err := g.store.Close(); err != nil {
		return fmt.Errorf("closing store: %w", err)
	}
	return nil
}

func (g *Gateway) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	fmt.Fprintln(w, "ok")
}

// statusResponse is the JSON body served by /statusz.
type statusResponse struct {
	InstanceID string `json:"instance_id"`
	Online     int    `json:"online"`
	Degraded   bool   `json:"degraded"`
}

func (g *Gateway) handleStatusz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(statusResponse{
		InstanceID: g.instanceID,
		Online:     g.players.Count(),
		Degraded:   g.degraded,
	})
}
