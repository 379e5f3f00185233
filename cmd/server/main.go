package main

import (
	"context"

	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/AshikurRahmanMunna/intertools-server/internal/app"
	"github.com/AshikurRahmanMunna/intertools-server/internal/app/handlers"
	"github.com/AshikurRahmanMunna/intertools-server/internal/config"
	"github.com/AshikurRahmanMunna/intertools-server/internal/events"
	"github.com/AshikurRahmanMunna/intertools-server/internal/lib/logger"
	"github.com/AshikurRahmanMunna/intertools-server/internal/lib/logger/handlers/urllog"
	"github.com/AshikurRahmanMunna/intertools-server/internal/service"
	"github.com/AshikurRahmanMunna/intertools-server/internal/storage"
	"github.com/AshikurRahmanMunna/intertools-server/internal/token"
	"github.com/AshikurRahmanMunna/intertools-server/internal/token/tokenmiddleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/pkg/errors"
	"github.com/stripe/stripe-go/v82/client"
)

func main() {
	// загрузка конфигурации
	cfg := config.MustLoad()

	// инициализация логгера, зависит от настройки окружения
	log := logger.SetupLogger(cfg.Env)
	log.Info("starting app", slog.String("env", cfg.Env))

	// загружаем объект приложения, конфигом и подключением к БД
	application, err := app.NewApp(log, cfg)
	if err != nil {
		log.Error("failed to initialize app", slog.Any("error", err))
		panic(errors.Wrap(err, "failed to initialize app"))
	}
	defer application.DB.Close()

	router := chi.NewRouter()
	// настройка middleware
	router.Use(middleware.RequestID)
	router.Use(urllog.CustomLoggerMiddleware(log))
	router.Use(middleware.Recoverer)
	router.Use(middleware.URLFormat)

	// реализация слоев по работе с БД по каждому направлению
	userRepo := storage.NewUserRepository(application.DB)
	toolRepo := storage.NewToolRepository(application.DB)
	orderRepo := storage.NewOrderRepository(application.DB)
	paymentRepo := storage.NewPaymentRepository(application.DB)
	reviewRepo := storage.NewReviewRepository(application.DB)

	tokenService := token.NewService([]byte(cfg.Token.Secret), cfg.Token.TTL)

	// публикация событий заказов включается только при заданных брокерах
	var publisher service.EventPublisher
	if cfg.Kafka.Brokers != "" {
		producer := events.NewProducer(log, strings.Split(cfg.Kafka.Brokers, ","), cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
	}

	stripeClient := &client.API{}
	stripeClient.Init(cfg.Stripe.SecretKey, nil)

	userService := service.NewUserService(log, userRepo, tokenService)
	toolService := service.NewToolService(log, toolRepo)
	orderService := service.NewOrderService(log, application.DB, toolRepo, orderRepo, paymentRepo, publisher)
	paymentService := service.NewPaymentService(log, stripeClient.PaymentIntents)
	reviewService := service.NewReviewService(log, reviewRepo)

	// публичные эндпоинты
	router.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("Intertools server is running"))
	})
	router.Get("/tools", handlers.ListToolsHandler(log, toolService))
	router.Get("/toolsByLimit", handlers.ListToolsByLimitHandler(log, toolService))
	router.Get("/tools/{id}", handlers.GetToolHandler(log, toolService))
	router.Delete("/tools/{id}", handlers.DeleteToolHandler(log, toolService))
	router.Put("/user/{email}", handlers.UpsertUserHandler(log, userService))
	router.Get("/reviews", handlers.ListReviewsHandler(log, reviewService))

	// эндпоинты под bearer-токеном
	router.Group(func(r chi.Router) {
		r.Use(tokenmiddleware.Authenticate(tokenService))

		r.Post("/tools", handlers.CreateToolHandler(log, toolService))
		r.Get("/user/{email}", handlers.GetUserHandler(log, userService))
		r.Get("/admin/{email}", handlers.IsAdminHandler(log, userService))
		r.Post("/order", handlers.CreateOrderHandler(log, orderService))
		r.Get("/orderById/{id}", handlers.GetOrderByIDHandler(log, orderService))
		r.Get("/order/{email}", handlers.GetOrdersByEmailHandler(log, orderService))
		r.Put("/order/{id}", handlers.UpdateOrderHandler(log, orderService))
		r.Patch("/order/{id}", handlers.RecordPaymentHandler(log, orderService))
		r.Delete("/order/{id}", handlers.DeleteOrderHandler(log, orderService))
		r.Post("/reviews", handlers.AddReviewHandler(log, reviewService))
		r.Post("/create-payment-intent", handlers.CreatePaymentIntentHandler(log, paymentService))

		// админские эндпоинты
		r.Group(func(ar chi.Router) {
			ar.Use(tokenmiddleware.RequireAdmin(log, userRepo))

			ar.Get("/user", handlers.ListUsersHandler(log, userService))
			ar.Get("/order", handlers.ListOrdersHandler(log, orderService))
			ar.Put("/updateUser/{email}", handlers.UpdateUserHandler(log, userService))
			ar.Put("/makeAdmin/{email}", handlers.MakeAdminHandler(log, userService))
		})
	})

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	go func() {
		log.Info("starting server", slog.String("address", cfg.HTTPServer.Addr()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.Any("error", err))
		}
	}()

	// graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	stopSign := <-stop
	log.Info("received shutdown signal", slog.String("signal", stopSign.String()))

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Error("server shutdown failed", slog.Any("error", err))
	}
	log.Info("server gracefully stopped")
}
