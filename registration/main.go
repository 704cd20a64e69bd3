// registration/main.go
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	registrationapi "github.com/hackbits/registration-service/registration/api"
	"github.com/hackbits/registration-service/registration/gateway"
	"github.com/hackbits/registration-service/registration/notify"
	"github.com/hackbits/registration-service/registration/service"
	"github.com/hackbits/registration-service/registration/storage"
	"github.com/hackbits/registration-service/registration/store"
	"github.com/hackbits/registration-service/registration/ticket"
	"github.com/hackbits/registration-service/shared/api"
	"github.com/hackbits/registration-service/shared/config"
	"github.com/hackbits/registration-service/shared/logger"
	mongodbu "github.com/hackbits/registration-service/shared/mongodb"
	redisu "github.com/hackbits/registration-service/shared/redis"
	"github.com/hackbits/registration-service/shared/registry"
)

func main() {
	// .env is optional; real deployments use the environment directly.
	_ = godotenv.Load()

	log := logger.New("registration-service")
	defer log.Sync()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalw("failed to load configuration", "error", err)
	}

	// --- MongoDB ---
	mongoClient, err := mongodbu.NewClient(cfg.MongoDBConnStr, cfg.MongoDBDatabase, log)
	if err != nil {
		log.Fatalw("failed to connect to MongoDB", "error", err)
	}
	defer func() {
		if err := mongoClient.Disconnect(context.Background()); err != nil {
			log.Errorw("failed to disconnect from MongoDB", "error", err)
		}
	}()

	// --- Redis ---
	redisClient, err := redisu.NewClient(cfg.RedisAddrs, cfg.RedisPassword)
	if err != nil {
		log.Fatalw("failed to connect to Redis", "error", err)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Errorw("failed to close Redis client", "error", err)
		}
	}()

	// --- Data stores ---
	teamStore := store.NewTeamStore(mongoClient.Collection(cfg.MongoDBTeamsCollection))
	adminStore := store.NewAdminStore(mongoClient.Collection(cfg.MongoDBAdminsCollection))
	counterStore := store.NewCounterStore(mongoClient.Collection(cfg.MongoDBCountersCollection))
	liveStats := store.NewLiveStatsStore(redisClient)

	bootCtx, bootCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer bootCancel()
	if err := teamStore.EnsureIndexes(bootCtx); err != nil {
		log.Fatalw("failed to ensure team indexes", "error", err)
	}
	if err := adminStore.EnsureIndexes(bootCtx); err != nil {
		log.Fatalw("failed to ensure admin indexes", "error", err)
	}

	defaultAdminUser := os.Getenv("DEFAULT_ADMIN_USERNAME")
	defaultAdminPass := os.Getenv("DEFAULT_ADMIN_PASSWORD")
	if defaultAdminUser != "" && defaultAdminPass != "" {
		if err := adminStore.EnsureDefaultAdmin(bootCtx, defaultAdminUser, defaultAdminPass); err != nil {
			log.Fatalw("failed to seed default admin", "error", err)
		}
	}

	// --- External collaborators ---
	var blobs storage.BlobStore
	if cfg.StorageUploadURL != "" {
		blobs = storage.NewHTTPStore(cfg.StorageUploadURL, cfg.StorageUploadPreset, cfg.StorageTimeout)
	} else {
		log.Warn("no blob store configured, documents are kept in memory")
		blobs = storage.NewMemoryStore()
	}

	var notifier notify.Notifier = notify.NopNotifier{}
	if cfg.SMTPUsername != "" && cfg.SMTPPassword != "" {
		notifier = notify.NewMailer(notify.MailerConfig{
			Host:        cfg.SMTPHost,
			Port:        cfg.SMTPPort,
			Username:    cfg.SMTPUsername,
			Password:    cfg.SMTPPassword,
			From:        cfg.MailFrom,
			EventName:   cfg.EventName,
			FrontendURL: cfg.FrontendURL,
		})
	} else {
		log.Warn("no SMTP credentials configured, notifications are disabled")
	}

	gatewayClient := gateway.NewRazorpayClient(cfg.GatewayBaseURL, cfg.GatewayKeyID, cfg.GatewayKeySecret, cfg.GatewayTimeout)

	ticketGen := ticket.NewGenerator(ticket.PNGEncoder{}, ticket.EventInfo{
		Name:          cfg.EventName,
		Date:          cfg.EventDate,
		Time:          cfg.EventTime,
		Venue:         cfg.EventVenue,
		ReportingTime: cfg.ReportingTime,
		SupportEmail:  cfg.SupportEmail,
	})

	// --- Business services ---
	registrationService := service.NewRegistrationService(teamStore, counterStore, notifier, log)
	paymentService := service.NewPaymentService(teamStore, gatewayClient, log)
	documentService := service.NewDocumentService(teamStore, blobs, log)
	verificationService := service.NewVerificationService(teamStore, counterStore, ticketGen, notifier, log)
	checkinService := service.NewCheckinService(teamStore, liveStats, log)
	authService := service.NewAuthService(adminStore, cfg.JWTSecret, cfg.TokenTTL, log)

	// --- Instance registry ---
	registrar := registry.NewRegistrar(redisClient, registry.Config{
		ServiceType:     "registration-service",
		IP:              cfg.ServiceIP,
		Port:            cfg.ServicePort,
		Interval:        cfg.HeartbeatInterval,
		TTL:             cfg.HeartbeatTTL,
		CleanupInterval: cfg.RegistryCleanupInterval,
	}, log)
	registrar.Start()
	defer registrar.Stop()
	registryClient := registry.NewClient(redisClient, cfg.HeartbeatTTL, log)

	// --- HTTP server ---
	baseServer := api.NewBaseServer(cfg.ListenAddr, log)

	protected := baseServer.Router.NewRoute().Subrouter()
	protected.Use(registrationapi.AdminAuthMiddleware(authService))

	registrationapi.NewTeamHandlers(registrationService, log).RegisterRoutes(baseServer.Router)
	registrationapi.NewPaymentHandlers(paymentService, documentService, log).RegisterRoutes(baseServer.Router)
	registrationapi.NewAdminHandlers(authService, registrationService, verificationService, registryClient, log).RegisterRoutes(baseServer.Router, protected)
	registrationapi.NewCheckinHandlers(checkinService, log).RegisterRoutes(baseServer.Router, protected)

	go func() {
		if err := baseServer.Start(); err != nil {
			log.Fatalw("HTTP server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := baseServer.Shutdown(shutdownCtx); err != nil {
		log.Errorw("graceful shutdown failed", "error", err)
	}
}
