package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	gormpostgres "gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/frahmantamala/aims-commerce/internal"
	"github.com/frahmantamala/aims-commerce/internal/cart"
	cartpostgres "github.com/frahmantamala/aims-commerce/internal/cart/postgres"
	"github.com/frahmantamala/aims-commerce/internal/commandbus"
	"github.com/frahmantamala/aims-commerce/internal/core/events"
	"github.com/frahmantamala/aims-commerce/internal/customer"
	customerpostgres "github.com/frahmantamala/aims-commerce/internal/customer/postgres"
	"github.com/frahmantamala/aims-commerce/internal/notification"
	"github.com/frahmantamala/aims-commerce/internal/order"
	orderpostgres "github.com/frahmantamala/aims-commerce/internal/order/postgres"
	"github.com/frahmantamala/aims-commerce/internal/payment"
	paymentpostgres "github.com/frahmantamala/aims-commerce/internal/payment/postgres"
	"github.com/frahmantamala/aims-commerce/internal/product"
	productpostgres "github.com/frahmantamala/aims-commerce/internal/product/postgres"
	"github.com/frahmantamala/aims-commerce/internal/transport"
	"github.com/frahmantamala/aims-commerce/internal/transport/rest"
	"github.com/frahmantamala/aims-commerce/internal/vnpay"
	"github.com/frahmantamala/aims-commerce/pkg/logger"
)

var httpServerCmd = &cobra.Command{
	Use:   "server",
	Short: "Start HTTP server",
	Long:  `Start the HTTP server to handle API requests`,
	Run: func(cmd *cobra.Command, args []string) {
		startHTTPServer()
	},
}

type Dependencies struct {
	Config     *internal.Config
	DB         *sqlx.DB
	Router     *chi.Mux
	Dispatcher *notification.Dispatcher
	Logger     *slog.Logger
}

func startHTTPServer() {
	deps, err := initializeDependencies()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize dependencies: %v\n", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", deps.Config.Server.Port)
	deps.Logger.Info("Starting HTTP server", "address", addr)

	server := &http.Server{
		Addr:              addr,
		Handler:           deps.Router,
		ReadHeaderTimeout: deps.Config.Server.ReadHeaderTimeout,
		ReadTimeout:       deps.Config.Server.ReadTimeout,
		WriteTimeout:      deps.Config.Server.WriteTimeout,
		IdleTimeout:       deps.Config.Server.IdleTimeout,
	}

	// Signal handling for graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	serverErrChan := make(chan error, 1)
	go func() {
		serverErrChan <- server.ListenAndServe()
	}()

	select {
	case sig := <-sigChan:
		deps.Logger.Info("Received signal, shutting down...", "signal", sig)
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			deps.Logger.Error("Server shutdown error", "error", err)
		}
		// Drain in-flight notification deliveries before dropping the DB.
		deps.Dispatcher.Shutdown()
		if err := deps.DB.Close(); err != nil {
			deps.Logger.Error("Database close error", "error", err)
		}
	case err := <-serverErrChan:
		if err != nil && err != http.ErrServerClosed {
			deps.Logger.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}

	deps.Logger.Info("Server stopped")
}

func initializeDependencies() (*Dependencies, error) {
	config, err := loadConfig(".")
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger.Setup(config.Logging.Level, config.Logging.Format)
	log := logger.LoggerWrapper()

	db, err := initDB(config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	// gorm shares the sqlx pool instead of opening a second one.
	gormDB, err := gorm.Open(gormpostgres.New(gormpostgres.Config{Conn: db.DB}), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize gorm: %w", err)
	}

	eventStore := events.NewStore()
	eventBus := events.NewEventBus(eventStore, log)

	bus := commandbus.New(log)
	bus.Use(commandbus.NewLoggingMiddleware(log))

	// Catalog
	productRepo := productpostgres.NewProductRepository(db)
	productService := product.NewService(productRepo, log)
	productHandler := product.NewHandler(productService)

	// Cart
	cartRepo := cartpostgres.NewCartRepository(gormDB)
	cartService := cart.NewService(cartRepo, productService, log)
	cartHandler := cart.NewHandler(cartService)

	// Customers and auth
	customerRepo := customerpostgres.NewCustomerRepository(db)
	tokenGen := customer.NewJWTTokenGenerator(config.Security)
	customerService := customer.NewService(customerRepo, tokenGen, config.Security.BCryptCost)
	customerHandler := customer.NewHandler(customerService)

	// Payments
	gateway := vnpay.NewGateway(vnpay.Config{
		TmnCode:        config.VNPay.TmnCode,
		HashSecret:     config.VNPay.HashSecret,
		PayURL:         config.VNPay.PayURL,
		APIURL:         config.VNPay.APIURL,
		ReturnURL:      config.VNPay.ReturnURL,
		Version:        config.VNPay.Version,
		TimeoutMinutes: config.VNPay.TimeoutMinutes,
		HTTPTimeout:    config.VNPay.HTTPTimeout,
		MaxRetries:     config.VNPay.MaxRetries,
	}, log)
	paymentRepo := paymentpostgres.NewPaymentRepository(gormDB)
	vnpayService := payment.NewVNPayService(gateway, paymentRepo, log)
	codService := payment.NewCODService(paymentRepo, log)
	coordinator := payment.NewCoordinator(log,
		payment.NewVietnamFactory(vnpayService, codService),
		payment.NewGlobalFactory(),
	)

	// Orders
	orderRepo := orderpostgres.NewOrderRepository(gormDB)
	orderService := order.NewService(orderRepo, log)
	orderHandler := order.NewHandler(orderService, bus)
	order.RegisterCommandHandlers(bus, order.NewCommandHandlers(orderRepo, cartService, productService, coordinator, eventBus, log))
	order.RegisterEventHandlers(eventBus, order.NewEventHandler(orderRepo, log))

	// Notifications react to order and payment events after the order
	// projections have run.
	dispatcher := notification.NewDispatcher(config.Notification, log)
	notification.RegisterEventHandlers(eventBus, notification.NewEventHandler(dispatcher, orderService, log))

	paymentHandler := payment.NewHandler(coordinator, paymentRepo, orderService)
	webhookHandler := payment.NewWebhookHandler(transport.NewBaseHandler(log), gateway, paymentRepo, eventBus, log)

	router := chi.NewRouter()
	rest.RegisterAllRoutes(router, db.DB, customerHandler, productHandler, cartHandler, orderHandler, paymentHandler, webhookHandler, config.Server.AllowedOrigins, log)

	return &Dependencies{
		Config:     config,
		Logger:     log,
		DB:         db,
		Router:     router,
		Dispatcher: dispatcher,
	}, nil
}

// initDB initializes the database connection
func initDB(cfg internal.DatabaseConfig) (*sqlx.DB, error) {
	const driver = "pgx"

	dbConn, err := sqlx.Connect(driver, cfg.Source)
	if err != nil {
		return nil, fmt.Errorf("failed to open db connection: %w", err)
	}

	dbConn.SetMaxIdleConns(cfg.MaxIdleConns)
	dbConn.SetMaxOpenConns(cfg.MaxOpenConns)
	dbConn.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	dbConn.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	return dbConn, nil
}
