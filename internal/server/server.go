package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"

	"github.com/jenkinsci/radiatorview/internal/config"
	"github.com/jenkinsci/radiatorview/internal/protocol"
	"github.com/jenkinsci/radiatorview/internal/radiator"
	"github.com/jenkinsci/radiatorview/internal/store"
)

type radiatorServer struct {
	db     *store.Store
	cfg    config.File
	health *health.Server
	hub    *streamHub

	// refreshMu serializes refresh so renders are published in order.
	refreshMu sync.Mutex
	seq       uint64

	mu         sync.RWMutex
	latest     *published
	groupNames map[string]struct{}
}

// published is a refreshed snapshot tagged with its publish order.
type published struct {
	seq  uint64
	snap protocol.RadiatorSnapshot
}

func newRadiatorServer(db *store.Store, cfg config.File) *radiatorServer {
	return &radiatorServer{
		db:         db,
		cfg:        cfg,
		health:     health.NewServer(),
		hub:        newStreamHub(),
		groupNames: map[string]struct{}{},
	}
}

func Run(ctx context.Context) error {
	addr := envOrDefault("RADIATOR_SERVER_ADDR", ":8080")
	grpcAddr := grpcAddrFromEnv()
	dbPath := envOrDefault("RADIATOR_DB", "radiator.db")
	cfgPath := envOrDefault("RADIATOR_CONFIG", "radiator.yaml")
	interval := refreshIntervalFromEnv()

	cfg, err := config.LoadOrDefault(cfgPath)
	if err != nil {
		return err
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	var grpcLis net.Listener
	if grpcAddr != "" {
		grpcLis, err = net.Listen("tcp", grpcAddr)
		if err != nil {
			return fmt.Errorf("listen grpc on %s: %w", grpcAddr, err)
		}
	}

	s := newRadiatorServer(db, cfg)
	if _, err := s.refresh(ctx); err != nil {
		slog.Warn("initial render failed", "error", err)
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           buildRouter(s),
		ReadHeaderTimeout: 10 * time.Second,
	}
	stopMDNS := startMDNSAdvertiser(addr)
	defer stopMDNS()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		slog.Info("radiator server started", "addr", addr, "db", dbPath, "config", cfgPath, "view", cfg.Settings().Name)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen and serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.hub.closeAll()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown server: %w", err)
		}
		return nil
	})

	if grpcLis != nil {
		grpcSrv := grpc.NewServer()
		healthpb.RegisterHealthServer(grpcSrv, s.health)
		g.Go(func() error {
			slog.Info("grpc health service started", "addr", grpcAddr)
			if err := grpcSrv.Serve(grpcLis); err != nil && !errors.Is(err, grpc.ErrServerStopped) {
				return fmt.Errorf("serve grpc: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			s.health.Shutdown()
			grpcSrv.GracefulStop()
			return nil
		})
	}

	g.Go(func() error {
		s.refreshLoop(gctx, interval)
		return nil
	})

	err = g.Wait()
	slog.Info("radiator server stopped")
	return err
}

func (s *radiatorServer) refreshLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := s.refresh(ctx); err != nil && ctx.Err() == nil {
				slog.Error("refresh radiator", "error", err)
			}
		}
	}
}

// render runs one render pass over a fresh store snapshot.
func (s *radiatorServer) render(ctx context.Context, grouped bool) (protocol.RadiatorSnapshot, *radiator.Group, error) {
	snap, err := s.db.Snapshot(ctx)
	if err != nil {
		return protocol.RadiatorSnapshot{}, nil, fmt.Errorf("load snapshot: %w", err)
	}
	view, err := s.cfg.RadiatorView(snap)
	if err != nil {
		return protocol.RadiatorSnapshot{}, nil, err
	}
	root, err := view.RenderGrouped(ctx, snap, grouped)
	if err != nil {
		return protocol.RadiatorSnapshot{}, nil, fmt.Errorf("render view %q: %w", view.Name, err)
	}

	settings := s.cfg.Settings()
	out := protocol.RadiatorSnapshot{
		RenderID:     uuid.NewString(),
		GeneratedUTC: time.Now().UTC(),
		View:         settings,
		Contents:     radiator.EntryView(root),
		PassingRows:  [][]protocol.EntryView{},
		FailingRows:  radiator.RowViews(radiator.LayoutRows(root.FailingJobs(), true)),
	}
	if settings.ShowStable {
		out.PassingRows = radiator.RowViews(radiator.LayoutRows(root.PassingJobs(), false))
	}
	slog.Debug("radiator rendered",
		"render_id", out.RenderID,
		"view", view.Name,
		"grouped", grouped,
		"entries", root.Len(),
		"failing", len(root.FailingJobs()),
	)
	return out, root, nil
}

// refresh renders with the configured grouping, publishes the result to
// stream subscribers and the health service, and records it.
func (s *radiatorServer) refresh(ctx context.Context) (protocol.RadiatorSnapshot, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	out, root, err := s.render(ctx, s.cfg.Settings().GroupByPrefix)
	if err != nil {
		return protocol.RadiatorSnapshot{}, err
	}
	s.seq++
	p := published{seq: s.seq, snap: out}
	s.mu.Lock()
	s.latest = &p
	s.mu.Unlock()

	s.updateHealth(root)
	s.hub.broadcast(p)

	if err := s.db.SetAppState(ctx, store.StateLastRenderID, out.RenderID); err != nil {
		slog.Warn("record last render", "error", err)
	}
	if err := s.db.SetAppState(ctx, store.StateLastRenderUTC, out.GeneratedUTC.Format(time.RFC3339Nano)); err != nil {
		slog.Warn("record last render time", "error", err)
	}
	return out, nil
}

func (s *radiatorServer) latestSnapshot() (protocol.RadiatorSnapshot, bool) {
	p, ok := s.latestPublished()
	return p.snap, ok
}

func (s *radiatorServer) latestPublished() (published, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return published{}, false
	}
	return *s.latest, true
}

// Render runs a single render pass outside of a running server.
func Render(ctx context.Context, db *store.Store, cfg config.File, grouped bool) (protocol.RadiatorSnapshot, error) {
	out, _, err := newRadiatorServer(db, cfg).render(ctx, grouped)
	return out, err
}
