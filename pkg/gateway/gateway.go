package gateway

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	apiv1 "github.com/beam-cloud/s3meta/pkg/api/v1"
	"github.com/beam-cloud/s3meta/pkg/auth"
	"github.com/beam-cloud/s3meta/pkg/clients"
	"github.com/beam-cloud/s3meta/pkg/common"
	"github.com/beam-cloud/s3meta/pkg/metadata"
	"github.com/beam-cloud/s3meta/pkg/repository"
	"github.com/beam-cloud/s3meta/pkg/types"
)

const defaultShutdownTimeout = 30 * time.Second

type Gateway struct {
	Config        types.AppConfig
	RedisClient   *common.RedisClient
	BackendRepo   *repository.PostgresBackend
	Permissions   repository.PermissionAdmin
	Metadata      *metadata.Service
	EventBus      *common.EventBus
	InstanceId    string
	configManager *common.ConfigManager[types.AppConfig]
	httpServer    *http.Server
	echo          *echo.Echo
	ctx           context.Context
	cancelFunc    context.CancelFunc

	baseRouteGroup *echo.Group
}

func NewGateway() (*Gateway, error) {
	configManager, err := common.NewConfigManager[types.AppConfig]()
	if err != nil {
		return nil, err
	}
	return NewGatewayWithConfig(configManager)
}

// NewGatewayWithConfig builds a gateway from an existing config manager.
func NewGatewayWithConfig(configManager *common.ConfigManager[types.AppConfig]) (*Gateway, error) {
	config := configManager.GetConfig()
	ConfigureLogging(config)

	ctx, cancel := context.WithCancel(context.Background())
	g := &Gateway{
		Config:        config,
		InstanceId:    common.GenerateInstanceID(),
		configManager: configManager,
		ctx:           ctx,
		cancelFunc:    cancel,
	}

	if err := g.initStores(); err != nil {
		cancel()
		return nil, err
	}

	g.Metadata = metadata.NewService(metadata.ServiceOptions{
		Config:   config.Metadata,
		Resolver: g.Permissions,
		Factory:  clients.NewS3ClientFactory(g.metadataConfig),
	})
	metadata.WatchSettings(metadataSettings{configManager}, g.Metadata)

	g.EventBus = common.NewEventBus(ctx, g.RedisClient, g.InstanceId)
	g.Metadata.Subscribe(g.EventBus)

	return g, nil
}

// ConfigureLogging applies the log level and format from config.
func ConfigureLogging(config types.AppConfig) {
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	if config.DebugMode {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}
	if config.PrettyLogs {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}
}

func (g *Gateway) initStores() error {
	// Local mode: skip Redis and Postgres, permissions come from config
	if g.Config.IsLocalMode() {
		log.Info().Int("permissions", len(g.Config.Permissions)).Msg("running in local mode - Redis and Postgres disabled")
		g.Permissions = g.configPermissions()
		return nil
	}

	redisClient, err := common.NewRedisClient(g.Config.Database.Redis, common.WithClientName("S3MetaGateway"))
	if err != nil {
		return err
	}
	g.RedisClient = redisClient

	if g.Config.Database.Postgres.Host == "" {
		log.Warn().Msg("postgres not configured, serving permissions from config")
		g.Permissions = g.configPermissions()
		return nil
	}

	backendRepo, err := repository.NewPostgresBackend(g.ctx, g.Config.Database.Postgres)
	if err != nil {
		return err
	}
	if err := backendRepo.RunMigrations(); err != nil {
		backendRepo.Close()
		return err
	}
	g.BackendRepo = backendRepo
	g.Permissions = backendRepo
	return nil
}

// configPermissions serves the permissions section of the config file and
// follows it across reloads.
func (g *Gateway) configPermissions() *repository.MemoryPermissionRepository {
	repo := repository.NewMemoryPermissionRepository(g.Config.Permissions)
	g.configManager.OnChange(func(_, next types.AppConfig) {
		repo.Replace(next.Permissions)
		log.Info().Int("permissions", len(next.Permissions)).Msg("permissions reloaded from config")
	})
	return repo
}

// metadataConfig is read each time a bucket client is built.
func (g *Gateway) metadataConfig() types.MetadataConfig {
	return g.configManager.GetConfig().Metadata.WithDefaults()
}

func (g *Gateway) initHTTP() error {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: common.GenerateRequestID,
	}))

	if g.Config.Gateway.HTTP.EnablePrettyLogs {
		e.Use(middleware.LoggerWithConfig(middleware.LoggerConfig{
			Format: "${time_rfc3339} ${id} ${method} ${uri} ${status} ${latency_human}\n",
		}))
	}

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: g.Config.Gateway.HTTP.CORS.AllowedOrigins,
		AllowHeaders: g.Config.Gateway.HTTP.CORS.AllowedHeaders,
		AllowMethods: g.Config.Gateway.HTTP.CORS.AllowedMethods,
	}))

	e.Use(middleware.Recover())

	signer := auth.NewTokenSigner(g.Config.Gateway.JWTSecret)
	if g.Config.Gateway.JWTSecret == "" {
		log.Warn().Msg("no jwt secret configured, user tokens will not survive a restart")
	}
	if g.Config.Gateway.AuthToken == "" {
		log.Warn().Msg("no admin token configured, admin routes are disabled")
	}
	e.Use(auth.HTTPMiddleware(auth.NewJWTValidator(g.Config.Gateway.AuthToken, signer)))

	g.echo = e
	g.httpServer = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", g.Config.Gateway.HTTP.Host, g.Config.Gateway.HTTP.Port),
		Handler: e,
	}

	g.baseRouteGroup = e.Group(apiv1.HttpServerBaseRoute)
	RegisterRoutes(g.baseRouteGroup, g.RedisClient, g.Metadata, g.EventBus, g.Permissions)

	return nil
}

// RegisterRoutes mounts the API groups under base.
func RegisterRoutes(base *echo.Group, rdb *common.RedisClient, svc *metadata.Service, bus *common.EventBus, perms repository.PermissionAdmin) {
	apiv1.NewHealthGroup(base.Group("/health"), rdb, svc)

	s3 := base.Group("/s3")
	apiv1.NewMetadataGroup(s3, svc)
	apiv1.NewAdminGroup(s3.Group("/admin", auth.RequireClusterAdminMiddleware()), svc, bus, rdb, perms)
}

// StartAsync starts the gateway without blocking.
func (g *Gateway) StartAsync() error {
	if err := g.initHTTP(); err != nil {
		return fmt.Errorf("failed to initialize http server: %w", err)
	}

	if err := g.configManager.Watch(); err != nil {
		log.Warn().Err(err).Msg("config file watch disabled")
	}

	go g.EventBus.Start()

	lis, err := net.Listen("tcp", g.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("failed to listen on http: %w", err)
	}

	go func() {
		if err := g.httpServer.Serve(lis); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("http server error")
		}
	}()

	log.Info().
		Str("instance_id", g.InstanceId).
		Str("host", g.Config.Gateway.HTTP.Host).
		Int("port", g.Config.Gateway.HTTP.Port).
		Str("mode", g.Config.Mode).
		Msg("gateway http server running")

	return nil
}

// Start runs the gateway until SIGINT or SIGTERM.
func (g *Gateway) Start() error {
	if err := g.StartAsync(); err != nil {
		return err
	}

	terminationSignal := make(chan os.Signal, 1)
	signal.Notify(terminationSignal, os.Interrupt, syscall.SIGTERM)
	<-terminationSignal

	log.Info().Msg("termination signal received. shutting down...")
	g.Shutdown()

	return nil
}

// Shutdown stops the HTTP server, the invalidation scheduler and the stores.
func (g *Gateway) Shutdown() {
	timeout := g.Config.Gateway.ShutdownTimeout
	if timeout <= 0 {
		timeout = defaultShutdownTimeout
	}
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	eg, ctx := errgroup.WithContext(ctx)

	if g.httpServer != nil {
		eg.Go(func() error {
			return g.httpServer.Shutdown(ctx)
		})
	}

	eg.Go(func() error {
		g.Metadata.Close()
		return nil
	})

	g.cancelFunc()

	if err := eg.Wait(); err != nil {
		log.Error().Err(err).Msg("failed to shutdown gateway gracefully")
	}

	if g.BackendRepo != nil {
		if err := g.BackendRepo.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close postgres")
		}
	}
	if g.RedisClient != nil {
		if err := g.RedisClient.Close(); err != nil {
			log.Error().Err(err).Msg("failed to close redis")
		}
	}

	log.Info().Msg("gateway stopped")
}
