package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"cart-payment-service/config"
	"cart-payment-service/controllers"
	"cart-payment-service/correlation"
	"cart-payment-service/database"
	"cart-payment-service/kafka"
	"cart-payment-service/logger"
	"cart-payment-service/repository"
	"cart-payment-service/routes"
	"cart-payment-service/services"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Initialize(cfg.Environment)
	defer logger.Log.Sync()

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	redisClient, err := database.NewRedisClient(cfg.RedisURL)
	if err != nil {
		log.Fatalf("Failed to connect to redis: %v", err)
	}

	brokers := strings.Split(cfg.KafkaBrokers, ",")
	producer := kafka.NewProducer(brokers, cfg.LookupRequestTopic, cfg.CartEventTopic, cfg.PaymentEventTopic, logger.Log)
	defer producer.Close()

	registry := correlation.NewRegistry(logger.Log)
	lookupClient := services.NewLookupClient(registry, producer, cfg.LookupTimeout, cfg.RequesterTag, logger.Log)

	cartRepo := repository.NewGormCartRepository(db)
	paymentRepo := repository.NewGormPaymentRepository(db)
	idemStore := repository.NewRedisIdempotencyStore(redisClient, cfg.IdempotencyTTL)

	cartService := services.NewCartService(cartRepo, lookupClient, producer, logger.Log)
	simulator := services.NewSimulatedProcessor(cfg.SimulationSuccessRate, cfg.SimulationMinDelay, cfg.SimulationMaxDelay, logger.Log)
	paymentService := services.NewPaymentService(paymentRepo, cartRepo, cartService, simulator, producer, idemStore, logger.Log)

	// Response ingress: marketplace snapshots and lookup responses
	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	consumer := kafka.NewSnapshotConsumer(brokers, cfg.SnapshotTopic, cfg.SnapshotGroupID, registry, cartService, logger.Log)
	go consumer.Start(consumerCtx)

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(logger.RequestLogger())
	routes.RegisterRoutes(router,
		controllers.NewCartController(cartService),
		controllers.NewPaymentController(paymentService),
		[]byte(cfg.JWTSecret))

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Printf("Cart payment service is running on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("Shutting down gracefully...")
	stopConsumer()
	registry.Shutdown()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("Shutdown error: %v", err)
	}
	log.Println("Server shutdown complete.")
}
