package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"net/http/cookiejar"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"go.uber.org/zap"

	httptransport "github.com/spec-kit/support-console/internal/api/http"
	"github.com/spec-kit/support-console/internal/api/http/handlers"
	"github.com/spec-kit/support-console/internal/auth"
	"github.com/spec-kit/support-console/internal/backend"
	"github.com/spec-kit/support-console/internal/config"
	"github.com/spec-kit/support-console/internal/domain"
	"github.com/spec-kit/support-console/internal/events"
	"github.com/spec-kit/support-console/internal/identity"
	"github.com/spec-kit/support-console/internal/observability"
	"github.com/spec-kit/support-console/internal/persistence"
	"github.com/spec-kit/support-console/internal/realtime"
	"github.com/spec-kit/support-console/internal/repository"
	"github.com/spec-kit/support-console/internal/service"
	"github.com/spec-kit/support-console/internal/worker"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck
	metrics := observability.NewMetrics()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	pg, err := persistence.OpenArchive(ctx, cfg.Postgres, logger)
	if err != nil {
		logger.Fatal("failed to open transcript archive", zap.Error(err))
	}
	defer pg.Close()

	redis := persistence.NewRedis(ctx, cfg.Redis, logger)
	defer redis.Close()

	// The jar carries the session cookie on backend and websocket requests.
	jar, err := cookiejar.New(nil)
	if err != nil {
		logger.Fatal("failed to create cookie jar", zap.Error(err))
	}
	httpClient := &http.Client{Jar: jar}

	local := repository.NewMemorySessionStore()
	if redis != nil {
		local = repository.NewRedisSessionStore(redis.Client, cfg.Session.StorageKey, cfg.Session.CookieMaxAge)
	}
	cookie, err := repository.NewCookieSessionStore(jar, cfg.Backend.BaseURL, cfg.Session.CookieName, cfg.Session.CookieMaxAge)
	if err != nil {
		logger.Fatal("failed to create session cookie store", zap.Error(err))
	}

	sessions := service.NewSessionProvider(service.SessionProviderDependencies{
		Identity:   identity.NewClient(cfg.Identity.URL, cfg.Identity.AnonKey, nil, logger.Named("identity")),
		Local:      local,
		Cookie:     cookie,
		Tokens:     auth.NewTokenParser(cfg.Identity.JWTSecret),
		AuthHeader: cfg.Backend.AuthHeader,
		Logger:     logger.Named("session"),
	})

	client := backend.NewClient(cfg.Backend.BaseURL, backend.ClientDependencies{
		HTTPClient: httpClient,
		Headers:    sessions.AuthHeaders,
		Logger:     logger.Named("backend"),
	})

	var archive repository.TranscriptRepository
	if pg != nil {
		archive = repository.NewTranscriptRepository(pg.PoolHandle())
	}
	transcripts := service.TranscriptDependencies{Archive: archive, Logger: logger.Named("transcript")}

	dispatcher := events.NewInMemoryDispatcher()
	channel := realtime.NewChannel(cfg.Backend.BaseURL, cfg.Realtime, realtime.ChannelDependencies{
		Dialer:     realtime.WebSocketDialer{HTTPClient: httpClient},
		Dispatcher: dispatcher,
		Logger:     logger.Named("realtime"),
		Metrics:    metrics,
		Headers:    sessions.AuthHeaders,
	})
	defer channel.Close() //nolint:errcheck

	agentID := sessions.Identity(domain.UnknownAgent)
	notifications := service.NewNotificationCenter(cfg.Notification, service.NotificationDependencies{
		Sound:  service.NewSoundPlayer(cfg.Notification.SoundCommand),
		Logger: logger.Named("notifications"),
	})
	queue := service.NewQueueBoard(service.QueueBoardDependencies{
		Assigner: client,
		AgentID:  agentID,
		Logger:   logger.Named("queue"),
	})
	roster := service.NewAgentRoster(nil)
	console := service.NewAgentConsole(service.AgentConsoleDependencies{
		Channel:       channel,
		Notifications: notifications,
		Queue:         queue,
		Roster:        roster,
		Identity:      agentID,
		NewTransport: func() service.Transport {
			if cfg.Backend.AgentTransport == config.AgentTransportHTTP {
				return service.AgentHTTPTransport{Client: client, AgentID: agentID}
			}
			return service.AgentRealtimeTransport{Channel: channel, Logger: logger.Named("realtime")}
		},
		Transcripts: transcripts,
		Logger:      logger.Named("console"),
	})
	customer := service.NewChatSession(service.ChatSessionDependencies{
		Transcript: service.NewTranscript(transcripts),
		Transport:  service.CustomerTransport{Client: client, CustomerID: sessions.Identity(cfg.Identity.CustomerID)},
		Sender:     domain.SenderCustomer,
		Responder:  domain.SenderAgent,
		Logger:     logger.Named("chat"),
	})
	desk := service.NewSupportDesk(client, sessions.Identity(cfg.Identity.CustomerID), logger.Named("support"))

	mirror := events.NewKafkaMirror(cfg.Kafka, logger.Named("kafka"))
	defer mirror.Close() //nolint:errcheck

	if cfg.App.Mode == config.ModeAgent {
		worker.StartEventWorker(dispatcher, console, mirror)
		startChannel(ctx, sessions, channel, queue, logger)
	}

	if cfg.Identity.Email != "" {
		if res := sessions.SignIn(ctx, cfg.Identity.Email, cfg.Identity.Password); !res.OK {
			logger.Warn("automatic sign in failed", zap.String("email", cfg.Identity.Email), zap.Error(res.Err))
		}
	}

	app := httptransport.NewApp(cfg.App.Name)
	httptransport.RegisterMiddlewares(app, logger, metrics, cfg.App.RequestTimeout())

	httptransport.RegisterRoutes(app, httptransport.RouteConfig{
		Mode: cfg.App.Mode,
		Health: handlers.NewHealthHandler(handlers.HealthDependencies{
			ServiceName: cfg.App.Name,
			Version:     cfg.App.Version,
			Postgres:    pg,
			Redis:       redis,
			Channel:     channel,
			Metrics:     metrics,
		}),
		Auth: handlers.NewAuthHandler(sessions),
		Chat: handlers.NewChatHandler(cfg.App.Mode, customer, console),
		Agent: handlers.NewAgentHandler(handlers.AgentDependencies{
			Console:       console,
			Queue:         queue,
			Roster:        roster,
			Notifications: notifications,
		}),
		Support:           handlers.NewSupportHandler(desk),
		SessionMiddleware: auth.NewSessionMiddleware(sessions, cfg.App.Mode),
	})

	go func() {
		if err := app.Listen(cfg.App.Addr()); err != nil {
			logger.Fatal("fiber listen", zap.Error(err))
		}
	}()

	waitForShutdown(logger)

	_ = app.Shutdown()
}

// startChannel opens the agent channel once a session is known and moves it to
// the new identity when a different agent signs in.
func startChannel(ctx context.Context, sessions *service.SessionProvider, channel *realtime.Channel, queue *service.QueueBoard, logger *zap.Logger) {
	var mu sync.Mutex
	opened := false
	open := func(session *domain.Session) {
		mu.Lock()
		defer mu.Unlock()
		queue.SetSelf(session.Identity())
		if !opened {
			if err := channel.Open(ctx, session.Identity()); err != nil && !errors.Is(err, realtime.ErrAlreadyOpen) {
				logger.Error("open realtime channel", zap.Error(err))
				return
			}
			opened = true
			return
		}
		if err := channel.Retarget(session.Identity()); err != nil {
			logger.Error("retarget realtime channel", zap.Error(err))
		}
	}
	sessions.OnSessionChanged(func(session *domain.Session) {
		if session != nil {
			go open(session)
		}
	})
	if session, _ := sessions.CurrentSession(ctx); session != nil {
		open(session)
	}
}

func waitForShutdown(logger *zap.Logger) {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigCh
	logger.Info("shutting down", zap.String("signal", sig.String()))
}
