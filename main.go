package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"studiobook/config"
	"studiobook/cron"
	"studiobook/database"
	bookingRepo "studiobook/database/repository/booking"
	"studiobook/database/repository/memstore"
	paymentRepo "studiobook/database/repository/payment"
	sessionRepo "studiobook/database/repository/session"
	"studiobook/handlers"
	"studiobook/routes"
	"studiobook/services/booking"
	"studiobook/services/payment"
	"studiobook/services/session"
	"studiobook/services/slot"
	"studiobook/services/storage"
	"studiobook/services/tasks"
	"studiobook/utils"

	"github.com/gin-gonic/gin"
	"github.com/hibiken/asynq"
	"github.com/stripe/stripe-go/v76"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// How long a retried booking request is held off while the first one runs.
const idempotencyHold = 2 * time.Minute

type repositories struct {
	sessions sessionRepo.SessionRepository
	bookings bookingRepo.BookingRepository
	payments paymentRepo.PaymentRepository
}

func openRepositories(ctx context.Context, logger *zap.Logger) (repositories, *mongo.Client) {
	if config.AppConfig.DatabaseURL == "memory" {
		logger.Warn("main: using in-memory storage, data is lost on restart")
		return repositories{
			sessions: memstore.NewSessions(),
			bookings: memstore.NewBookings(),
			payments: memstore.NewPayments(),
		}, nil
	}

	database.InitDB()
	db := database.DB()
	repos := repositories{
		sessions: sessionRepo.NewMongoSessionRepo(db),
		bookings: bookingRepo.NewMongoBookingRepo(db),
		payments: paymentRepo.NewMongoPaymentRepo(db),
	}
	for name, ensure := range map[string]func(context.Context) error{
		"sessions": repos.sessions.EnsureIndexes,
		"bookings": repos.bookings.EnsureIndexes,
		"payments": repos.payments.EnsureIndexes,
	} {
		if err := ensure(ctx); err != nil {
			logger.Fatal("main: failed to create indexes", zap.String("collection", name), zap.Error(err))
		}
	}
	return repos, database.MongoClient
}

func main() {
	config.LoadConfig()
	logger := utils.GetLogger()
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repos, mongoClient := openRepositories(ctx, logger)
	cache := utils.GetCacheClient()
	stripe.Key = config.AppConfig.StripeKey

	imageStore, err := storage.NewCloudinaryImageStore(config.AppConfig.CloudinaryURL, config.AppConfig.CloudinaryFolder, logger)
	if err != nil {
		logger.Sugar().Fatalf("main: failed to initialize cloudinary storage service: %v", err)
	}

	// services.
	drafts := slot.NewDraftService(slot.NewRedisDraftStore(cache), imageStore, config.DraftTTL(), logger)
	sessionService := session.NewSessionService(repos.sessions, drafts, logger)
	bookingService := booking.NewBookingService(
		repos.sessions,
		repos.bookings,
		booking.NewRedisIdempotencyGuard(cache, idempotencyHold),
		logger,
	)
	flowService := booking.NewFlowService(
		booking.NewRedisFlowStore(cache),
		repos.sessions,
		bookingService,
		config.FlowTTL(),
		config.AppConfig.MobileBreakpointPx,
		logger,
	)

	queueClient := asynq.NewClient(cron.QueueRedisOpt())
	defer queueClient.Close()
	orchestrator := payment.NewOrchestrator(
		bookingService,
		repos.payments,
		payment.NewStripeGateway(config.AppConfig.StripeWebhookSecret),
		tasks.NewAsynqEnqueuer(queueClient, config.ReconcileAfter()),
		config.AppConfig.PaymentCurrency,
		config.ReconcileAfter(),
		logger,
	)

	worker, err := cron.NewPaymentWorker(orchestrator, logger)
	if err != nil {
		logger.Fatal("main: failed to set up payment worker", zap.Error(err))
	}
	worker.Start(ctx)
	utils.StartHealthMonitor(ctx, cache, mongoClient, 30*time.Second)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(utils.ErrorHandler())
	router.Use(gin.Logger())

	handlerBundle := &handlers.HandlerBundle{
		SlotDraftHandler: handlers.NewSlotDraftHandler(drafts),
		SessionHandler:   handlers.NewSessionHandler(sessionService),
		BookingHandler:   handlers.NewBookingHandler(bookingService),
		FlowHandler:      handlers.NewFlowHandler(flowService),
		PaymentHandler:   handlers.NewPaymentHandler(orchestrator, logger),
	}
	routes.RegisterRoutes(router, handlerBundle)

	port := config.AppConfig.AppPort
	if port == "" {
		port = "8080"
	}
	srv := &http.Server{
		Addr:    "0.0.0.0:" + port,
		Handler: router,
	}

	logger.Sugar().Infof("Starting server on %s...", srv.Addr)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Sugar().Fatalf("main: server failed to start: %v", err)
		}
	}()

	<-ctx.Done()
	logger.Sugar().Info("main: server is shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("main: server forced to shutdown", zap.Error(err))
	}
	worker.Shutdown()
	if err := utils.CloseCache(); err != nil {
		logger.Warn("main: failed to close redis", zap.Error(err))
	}
	if err := database.Close(shutdownCtx); err != nil {
		logger.Warn("main: failed to disconnect mongo", zap.Error(err))
	}

	logger.Sugar().Info("main: server stopped gracefully")
}
