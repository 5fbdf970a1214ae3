// Package system wires the editing services together and runs them.
package system

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/KevinKickass/OpenSequenceCore/internal/api/rest"
	"github.com/KevinKickass/OpenSequenceCore/internal/api/websocket"
	"github.com/KevinKickass/OpenSequenceCore/internal/auth"
	"github.com/KevinKickass/OpenSequenceCore/internal/config"
	"github.com/KevinKickass/OpenSequenceCore/internal/definition"
	"github.com/KevinKickass/OpenSequenceCore/internal/document"
	"github.com/KevinKickass/OpenSequenceCore/internal/editor"
	"github.com/KevinKickass/OpenSequenceCore/internal/export"
	"github.com/KevinKickass/OpenSequenceCore/internal/export/xlsx"
	"github.com/KevinKickass/OpenSequenceCore/internal/i18n"
	"github.com/KevinKickass/OpenSequenceCore/internal/interfaces"
	"github.com/KevinKickass/OpenSequenceCore/internal/storage"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"
)

// HealthService is the service name reported by the gRPC health server in
// addition to the overall "" entry.
const HealthService = "opensequencecore.Editor"

type LifecycleManager struct {
	config    *config.Config
	logger    *zap.Logger
	catalog   *i18n.Catalog
	loader    *definition.Loader
	workspace *editor.Workspace
	exporter  *export.Exporter
	store     storage.DocumentStore

	authService *auth.AuthService
	wsHub       *websocket.Hub
	hubCancel   context.CancelFunc

	restServer   *rest.Server
	grpcServer   *grpc.Server
	healthServer *health.Server
	grpcAddr     net.Addr

	stateMu      sync.RWMutex
	currentState SystemState
	lastError    error

	shutdownChan chan struct{}
	shutdownOnce sync.Once
}

// NewLifecycleManager builds every service from cfg. Nothing listens until
// Start is called.
func NewLifecycleManager(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*LifecycleManager, error) {
	catalog, err := newCatalog(cfg.I18n, logger)
	if err != nil {
		return nil, err
	}

	loader, err := definition.NewLoader()
	if err != nil {
		return nil, fmt.Errorf("failed to create program loader: %w", err)
	}

	doc := document.New()
	if path := cfg.Storage.InitialProgram; path != "" {
		p, err := loader.LoadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to load initial program: %w", err)
		}
		if doc, err = p.ToDocument(); err != nil {
			return nil, fmt.Errorf("failed to load initial program %s: %w", path, err)
		}
		logger.Info("Initial program loaded", zap.String("path", path), zap.String("name", p.Name))
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	authService := auth.NewAuthService(cfg.Auth, logger)
	workspace := editor.NewWorkspace(doc, logger)
	hub := websocket.NewHub(logger, authService)
	hub.Watch(workspace)

	return &LifecycleManager{
		config:       cfg,
		logger:       logger,
		catalog:      catalog,
		loader:       loader,
		workspace:    workspace,
		exporter:     export.NewExporter(xlsx.Open, logger),
		store:        store,
		authService:  authService,
		wsHub:        hub,
		currentState: StateInitializing,
		shutdownChan: make(chan struct{}),
	}, nil
}

func newCatalog(cfg config.I18nConfig, logger *zap.Logger) (*i18n.Catalog, error) {
	catalog, err := i18n.NewCatalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load built-in language packs: %w", err)
	}
	for _, dir := range cfg.SearchPaths {
		n, err := catalog.SearchPacks(dir)
		if err != nil {
			logger.Warn("Failed to search language packs", zap.String("dir", dir), zap.Error(err))
			continue
		}
		logger.Info("Language packs loaded", zap.String("dir", dir), zap.Int("count", n))
	}
	if cfg.Language != "" {
		if err := catalog.SetActive(cfg.Language); err != nil {
			logger.Warn("Configured language not available, using default",
				zap.String("language", cfg.Language), zap.Error(err))
		}
	}
	return catalog, nil
}

// openStore returns nil for the "none" driver.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.DocumentStore, error) {
	switch cfg.Storage.Driver {
	case "", "none":
		logger.Info("Document storage disabled")
		return nil, nil
	case "file":
		fs, err := storage.NewFileStore(cfg.Storage.Dir)
		if err != nil {
			return nil, err
		}
		logger.Info("Using file document store", zap.String("dir", cfg.Storage.Dir))
		return fs, nil
	case "postgres":
		pg, err := storage.NewPostgresClient(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		if err := pg.EnsureSchema(ctx); err != nil {
			pg.Close()
			return nil, err
		}
		logger.Info("Using postgres document store", zap.String("host", cfg.Database.Host))
		return pg, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
	}
}

// Start starts the websocket hub, the gRPC health server and the REST API.
func (lm *LifecycleManager) Start() error {
	lm.logger.Info("Starting OpenSequenceCore")

	hubCtx, cancel := context.WithCancel(context.Background())
	lm.hubCancel = cancel
	go lm.wsHub.Run(hubCtx)

	if err := lm.startGRPCServer(); err != nil {
		lm.setError(fmt.Errorf("failed to start gRPC: %w", err))
		return err
	}

	if err := lm.startRESTServer(); err != nil {
		lm.setError(fmt.Errorf("failed to start REST API: %w", err))
		return err
	}

	if err := lm.setState(StateRunning); err != nil {
		return err
	}
	lm.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	lm.healthServer.SetServingStatus(HealthService, grpc_health_v1.HealthCheckResponse_SERVING)

	lm.logger.Info("System started successfully",
		zap.Int("grpc_port", lm.config.Server.GRPCPort),
		zap.Int("http_port", lm.config.Server.HTTPPort),
		zap.Bool("auth_enabled", lm.authService.Enabled()),
		zap.Bool("storage_enabled", lm.store != nil))

	return nil
}

// Done is closed once Shutdown has finished.
func (lm *LifecycleManager) Done() <-chan struct{} {
	return lm.shutdownChan
}

// Shutdown gracefully shuts down the system
func (lm *LifecycleManager) Shutdown(ctx context.Context) error {
	var shutdownErr error

	lm.shutdownOnce.Do(func() {
		lm.logger.Info("Shutting down system")
		lm.setState(StateStopping)

		shutdownErr = lm.gracefulShutdown(ctx)

		lm.setState(StateStopped)
		close(lm.shutdownChan)
	})

	return shutdownErr
}

func (lm *LifecycleManager) gracefulShutdown(ctx context.Context) error {
	if lm.healthServer != nil {
		lm.healthServer.Shutdown()
	}

	var wg sync.WaitGroup
	errChan := make(chan error, 2)

	if lm.restServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
			defer cancel()

			if err := lm.restServer.Shutdown(shutdownCtx); err != nil {
				errChan <- fmt.Errorf("rest api shutdown failed: %w", err)
			}
		}()
	}

	if lm.grpcServer != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			lm.logger.Info("Stopping gRPC server")
			lm.grpcServer.GracefulStop()
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()

	var err error
	select {
	case <-done:
		lm.logger.Info("Graceful shutdown completed")
	case <-ctx.Done():
		lm.logger.Warn("Shutdown timeout, forcing stop")
		if lm.grpcServer != nil {
			lm.grpcServer.Stop()
		}
		err = errors.New("shutdown timeout exceeded")
	}
	for drained := false; !drained; {
		select {
		case e := <-errChan:
			err = errors.Join(err, e)
		default:
			drained = true
		}
	}

	if lm.hubCancel != nil {
		lm.hubCancel()
	}
	if lm.store != nil {
		lm.store.Close()
	}
	return err
}

func (lm *LifecycleManager) startGRPCServer() error {
	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", lm.config.Server.GRPCPort))
	if err != nil {
		return fmt.Errorf("failed to listen: %w", err)
	}
	lm.grpcAddr = lis.Addr()

	lm.grpcServer = grpc.NewServer()
	lm.healthServer = health.NewServer()
	lm.healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_NOT_SERVING)
	grpc_health_v1.RegisterHealthServer(lm.grpcServer, lm.healthServer)

	go func() {
		lm.logger.Info("gRPC server listening",
			zap.String("address", lis.Addr().String()),
			zap.String("services", "grpc.health.v1.Health"))
		if err := lm.grpcServer.Serve(lis); err != nil {
			lm.logger.Error("gRPC server failed", zap.Error(err))
		}
	}()

	return nil
}

// GRPCAddr is the address the gRPC server listens on, once started.
func (lm *LifecycleManager) GRPCAddr() net.Addr {
	return lm.grpcAddr
}

func (lm *LifecycleManager) startRESTServer() error {
	lm.restServer = rest.NewServer(lm.config, lm, lm.logger, lm.wsHub, lm.authService)
	return lm.restServer.Start()
}

// RESTServer is nil until Start has run.
func (lm *LifecycleManager) RESTServer() *rest.Server {
	return lm.restServer
}

// setState moves to state if the transition is allowed and announces it.
func (lm *LifecycleManager) setState(state SystemState) error {
	lm.stateMu.Lock()
	prev := lm.currentState
	if err := ValidateTransition(prev, state); err != nil {
		lm.stateMu.Unlock()
		lm.logger.Error("Rejected state change", zap.Error(err))
		return err
	}
	lm.currentState = state
	lm.stateMu.Unlock()

	lm.logger.Info("System state changed",
		zap.String("from", prev.String()),
		zap.String("to", state.String()))
	lm.wsHub.Broadcast(websocket.NewSystemStatusMessage(state.String(), prev.String()))
	return nil
}

func (lm *LifecycleManager) setError(err error) {
	lm.stateMu.Lock()
	lm.lastError = err
	lm.stateMu.Unlock()

	lm.logger.Error("System error", zap.Error(err))
	lm.setState(StateError)
}

func (lm *LifecycleManager) State() SystemState {
	lm.stateMu.RLock()
	defer lm.stateMu.RUnlock()
	return lm.currentState
}

// GetCurrentStatus returns current system status (Interface implementation)
func (lm *LifecycleManager) GetCurrentStatus() interfaces.SystemStatus {
	lm.stateMu.RLock()
	status := interfaces.SystemStatus{State: lm.currentState.String()}
	if lm.lastError != nil {
		status.Error = lm.lastError.Error()
	}
	lm.stateMu.RUnlock()

	lm.workspace.View(func(doc *document.Document) error {
		status.IOElements = doc.IO.Len()
		status.Subprograms = doc.Subprograms.Len()
		status.Rules = doc.Rules.Len()
		status.LastAddress = doc.Subprograms.LastAddress()
		return nil
	})
	return status
}

func (lm *LifecycleManager) Config() *config.Config       { return lm.config }
func (lm *LifecycleManager) Workspace() *editor.Workspace { return lm.workspace }
func (lm *LifecycleManager) Exporter() *export.Exporter   { return lm.exporter }
func (lm *LifecycleManager) Catalog() *i18n.Catalog       { return lm.catalog }
func (lm *LifecycleManager) Loader() *definition.Loader   { return lm.loader }
func (lm *LifecycleManager) Store() storage.DocumentStore { return lm.store }
