package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/feedesk-api/internal/assistant"
	"github.com/noah-isme/feedesk-api/internal/config"
	"github.com/noah-isme/feedesk-api/internal/database"
	"github.com/noah-isme/feedesk-api/internal/handler"
	"github.com/noah-isme/feedesk-api/internal/jobs"
	"github.com/noah-isme/feedesk-api/internal/middleware"
	"github.com/noah-isme/feedesk-api/internal/models"
	"github.com/noah-isme/feedesk-api/internal/repository"
	"github.com/noah-isme/feedesk-api/internal/router"
	"github.com/noah-isme/feedesk-api/internal/service"
	"github.com/noah-isme/feedesk-api/internal/session"
	"github.com/noah-isme/feedesk-api/internal/token"
	"github.com/noah-isme/feedesk-api/pkg/ai"
	cloud "github.com/noah-isme/feedesk-api/pkg/cloudinary"
	"github.com/noah-isme/feedesk-api/pkg/whatsapp"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", cfg.AppName).Logger()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}

	if err := db.AutoMigrate(&models.Admin{}, &models.Student{}, &models.Payment{}, &models.AppSettings{}); err != nil {
		log.Fatalf("failed to migrate database: %v", err)
	}

	redisClient, err := database.ConnectRedis(cfg.RedisURL)
	if err != nil {
		log.Fatalf("failed to connect to redis: %v", err)
	}
	defer redisClient.Close()

	var events service.EventPublisher
	if cfg.NATSURL != "" {
		natsConn, err := database.ConnectNATS(cfg.NATSURL)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable, fee events disabled")
		} else {
			defer natsConn.Close()
			events = natsConn
		}
	}

	var receipts service.ReceiptUploader
	if cfg.Cloudinary.Enabled() {
		store, err := cloud.New(cloud.Config{
			CloudName: cfg.Cloudinary.CloudName,
			APIKey:    cfg.Cloudinary.APIKey,
			APISecret: cfg.Cloudinary.APISecret,
			Folder:    cfg.Cloudinary.Folder,
		}, logger)
		if err != nil {
			log.Fatalf("failed to create cloudinary client: %v", err)
		}
		receipts = store
	}

	var rewriter assistant.Rewriter
	if cfg.AI.RewriterEnabled {
		promptRewriter, err := ai.NewPromptRewriter(ai.OpenAIConfig{
			APIKey: cfg.AI.OpenAIAPIKey,
			Model:  cfg.AI.Model,
			Logger: logger,
		})
		if err != nil {
			logger.Warn().Err(err).Msg("prompt rewriter disabled")
		} else {
			rewriter = promptRewriter
		}
	}

	validate := validator.New(validator.WithRequiredStructEnabled())
	tokens := token.NewManager(cfg.JWTSecret, cfg.JWTTTL)
	sessions := session.NewRedisStore(redisClient)

	adminRepo := repository.NewAdminRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	paymentRepo := repository.NewPaymentRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)

	messenger := whatsapp.New(whatsapp.Config{
		AccessToken:        cfg.WhatsApp.AccessToken,
		PhoneNumberID:      cfg.WhatsApp.PhoneNumberID,
		GraphURL:           cfg.WhatsApp.GraphURL,
		APIVersion:         cfg.WhatsApp.APIVersion,
		DefaultCountryCode: cfg.WhatsApp.DefaultCountryCode,
	}, nil, logger)
	notifier := service.NewFeeNotifier(messenger, receipts, events, service.NotifierConfig{
		FeePaidTemplate:  cfg.WhatsApp.FeePaidTemplate,
		ReminderTemplate: cfg.WhatsApp.ReminderTemplate,
		TemplateLanguage: cfg.WhatsApp.TemplateLanguage,
	}, logger)

	settingsService := service.NewSettingsService(settingsRepo, studentRepo, validate, logger)
	studentService := service.NewStudentService(studentRepo, sessions, logger)
	promotionService := service.NewPromotionService(studentRepo, paymentRepo, logger)
	paymentService := service.NewPaymentService(paymentRepo, studentRepo, settingsRepo, validate, service.PaymentServiceConfig{
		Cache:     redisClient,
		Notifier:  notifier,
		Promotion: promotionService,
	}, logger)
	reminderService := service.NewReminderService(studentRepo, settingsRepo, notifier, logger)
	authService := service.NewAuthService(adminRepo, studentRepo, settingsRepo, validate, service.AuthServiceConfig{
		Tokens:      tokens,
		Sessions:    sessions,
		MaxSessions: cfg.MaxSessions,
	}, logger)

	engine := assistant.New(assistant.Config{
		Students: studentRepo,
		Payments: paymentService.Ledger(),
		Settings: settingsRepo,
		Notifier: notifier,
		Rewriter: rewriter,
		Logger:   logger,
	})
	assistantService := service.NewAssistantService(engine, logger)

	startupCtx, cancelStartup := context.WithTimeout(context.Background(), 10*time.Second)
	if err := settingsService.EnsureDefaults(startupCtx, cfg.DefaultMonthlyFee); err != nil {
		log.Fatalf("failed to seed fee settings: %v", err)
	}
	cancelStartup()

	scheduler, err := jobs.NewScheduler(cfg.Reminder, cfg.Promotion, reminderService, promotionService, logger)
	if err != nil {
		log.Fatalf("failed to schedule jobs: %v", err)
	}
	scheduler.Start()

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
	})

	middleware.Register(app, middleware.Config{
		Logger:      &logger,
		CORSOrigins: cfg.CORSOrigins,
		AccessLog:   cfg.AppEnv == "development",
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:      handler.NewAuthHandler(authService, logger),
		StudentHandler:   handler.NewStudentHandler(studentService, logger),
		PaymentHandler:   handler.NewPaymentHandler(paymentService, logger),
		SettingsHandler:  handler.NewSettingsHandler(settingsService, logger),
		AssistantHandler: handler.NewAssistantHandler(assistantService, logger),
		JWTMiddleware: middleware.JWTProtected(middleware.JWTConfig{
			Tokens:   tokens,
			Sessions: sessions,
			Logger:   logger,
		}),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			log.Fatalf("failed to start server: %v", err)
		}
	}()

	waitForShutdown(app, scheduler, engine, paymentService)
}

func waitForShutdown(app *fiber.App, scheduler *jobs.Scheduler, engine *assistant.Assistant, payments service.PaymentService) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		log.Printf("graceful shutdown failed: %v", err)
	}
	scheduler.Stop(ctx)
	engine.Wait()
	payments.Wait()

	log.Println("server stopped")
}
