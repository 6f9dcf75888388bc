// main.go
package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"event-registration/controllers"
	"event-registration/events"
	"event-registration/gateway"
	"event-registration/media"
	"event-registration/middleware"
	"event-registration/routes"
	"event-registration/services"
	"event-registration/store"
	"event-registration/utils"

	"github.com/gorilla/mux"
)

func main() {
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	// Load environment variables from .env file
	cfg := utils.LoadConfig()

	// Set the JWT secret key
	utils.JwtKey = []byte(cfg.JWTSecret)

	payments, registrations, sports, closeStore := openStores(cfg)
	defer closeStore()

	if cfg.SportsFile != "" {
		if err := seedSports(sports, cfg.SportsFile); err != nil {
			log.Fatal(err)
		}
	}

	gw, err := gateway.NewRazorpay(cfg.RazorpayKeyID, cfg.RazorpaySecret)
	if err != nil {
		log.Fatal(err)
	}

	storage, err := openMedia(cfg)
	if err != nil {
		log.Fatal(err)
	}

	var publisher events.Publisher = events.Nop{}
	if cfg.SQSQueueURL != "" {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		sqsPub, err := events.NewSQS(ctx, cfg.SQSQueueURL, cfg.AWSRegion, cfg.AWSAccessKey, cfg.AWSSecretKey)
		cancel()
		if err != nil {
			log.Fatal(err)
		}
		publisher = sqsPub
	}

	// Initialize EmailService
	emailService := utils.NewEmailService(cfg)

	// Initialize services and controllers
	orderService := services.NewOrderService(payments, registrations, gw, cfg.Currency)
	orderService.Sports = sports
	verificationService := services.NewVerificationService(payments, registrations, gw, storage, publisher, emailService)
	paymentController := controllers.NewPaymentController(orderService, verificationService)
	sportController := controllers.NewSportController(sports)
	adminController := controllers.NewAdminController(payments, registrations, utils.AdminCredentials{
		Email:        cfg.AdminEmail,
		PasswordHash: cfg.AdminPassHash,
	})

	limiter := middleware.NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)
	go func() {
		for range time.Tick(5 * time.Minute) {
			limiter.Sweep(30 * time.Minute)
		}
	}()

	// Set up the router
	router := mux.NewRouter()
	routes.RegisterRoutes(router, paymentController, sportController, adminController, limiter)
	router.Use(middleware.RequestLogger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           middleware.CORS(cfg.CORSOrigin)(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("server is running", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("shutdown", "err", err)
	}
}

func openStores(cfg utils.Config) (store.PaymentStore, store.RegistrationStore, store.SportStore, func()) {
	if cfg.StoreDriver == "memory" {
		slog.Warn("using in-memory store, data is lost on restart")
		mem := store.NewMemory()
		return mem.Payments(), mem.Registrations(), mem.Sports(), func() {}
	}

	// Connect to MongoDB
	client, err := utils.ConnectDB(cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}
	payments, registrations := store.NewMongoStores(client, cfg.MongoDatabase)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := store.EnsureIndexes(ctx, payments, registrations); err != nil {
		log.Fatal(err)
	}

	return payments, registrations, store.NewMongoSports(client, cfg.MongoDatabase), func() {
		if err := client.Disconnect(context.Background()); err != nil {
			slog.Error("disconnect MongoDB", "err", err)
		}
	}
}

func openMedia(cfg utils.Config) (media.Storage, error) {
	if cfg.MediaDriver == "cloudinary" {
		return media.NewCloudinary(cfg.CloudName, cfg.CloudAPIKey, cfg.CloudAPISecret, "registrations")
	}
	return &media.Local{Root: cfg.UploadDir}, nil
}

func seedSports(sports store.SportStore, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := store.SeedSports(ctx, sports, f)
	if err != nil {
		return err
	}
	slog.Info("sports catalog seeded", "count", n, "file", path)
	return nil
}
