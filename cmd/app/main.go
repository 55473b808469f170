package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/wichananm65/coffee-shop-backend/internal/cart"
	"github.com/wichananm65/coffee-shop-backend/internal/category"
	"github.com/wichananm65/coffee-shop-backend/internal/checkout"
	"github.com/wichananm65/coffee-shop-backend/internal/config"
	"github.com/wichananm65/coffee-shop-backend/internal/consent"
	"github.com/wichananm65/coffee-shop-backend/internal/database"
	"github.com/wichananm65/coffee-shop-backend/internal/events"
	"github.com/wichananm65/coffee-shop-backend/internal/logger"
	"github.com/wichananm65/coffee-shop-backend/internal/notification"
	"github.com/wichananm65/coffee-shop-backend/internal/order"
	"github.com/wichananm65/coffee-shop-backend/internal/payment"
	"github.com/wichananm65/coffee-shop-backend/internal/product"
	"github.com/wichananm65/coffee-shop-backend/internal/session"
	"github.com/wichananm65/coffee-shop-backend/internal/shipping"
	"github.com/wichananm65/coffee-shop-backend/internal/storage"
	"github.com/wichananm65/coffee-shop-backend/internal/user"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx := context.Background()

	var db *sql.DB
	if cfg.DatabaseURL != "" {
		var err error
		db, err = database.Open(ctx, database.Options{
			URL:             cfg.DatabaseURL,
			MaxOpenConns:    cfg.MaxOpenConns,
			MaxIdleConns:    cfg.MaxIdleConns,
			ConnMaxLifetime: cfg.ConnMaxLifetime,
		}, log)
		if err != nil {
			return err
		}
		defer db.Close()
		if err := database.EnsureSchema(ctx, db); err != nil {
			return err
		}
	} else {
		log.Warn("DATABASE_URL is not set, using in-memory repositories")
	}

	kv, err := openStorage(ctx, cfg, db)
	if err != nil {
		return err
	}
	log.Info("storage backend selected", zap.String("backend", cfg.StorageBackend))

	var (
		productRepo product.Repository = product.NewInMemoryRepository(nil)
		orderRepo   order.Repository   = order.NewInMemoryRepository()
		userRepo    user.Repository    = user.NewInMemoryRepository(nil)
	)
	if db != nil {
		productRepo = product.NewPostgresRepository(db)
		orderRepo = order.NewPostgresRepository(db)
		userRepo = user.NewPostgresRepository(db)
	}

	productService := product.NewService(productRepo)
	if n, err := productService.SeedIfEmpty(ctx, product.DefaultCatalog()); err != nil {
		log.Warn("catalogue seed failed", zap.Error(err))
	} else if n > 0 {
		log.Info("catalogue seeded", zap.Int("products", n))
	}

	var notifier notification.Notifier = notification.NewLogNotifier(log.Named("email"))
	if cfg.EmailAPIKey != "" {
		notifier = notification.NewResendClient(cfg.EmailAPIURL, cfg.EmailAPIKey, cfg.EmailFrom)
	} else {
		log.Warn("EMAIL_API_KEY is not set, emails are only logged")
	}

	var publisher events.Publisher = events.Noop{}
	if len(cfg.KafkaBrokers) > 0 {
		publisher = events.NewKafka(cfg.KafkaBrokers)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Warn("closing event publisher failed", zap.Error(err))
		}
	}()

	secret := cfg.JWTSecret
	if secret == "" {
		if cfg.IsProduction() {
			return errors.New("JWT_SECRET is not set")
		}
		log.Warn("JWT_SECRET is not set, using an insecure development secret")
		secret = "dev-secret"
	}
	gate := session.NewGate(session.Options{
		Secret:            []byte(secret),
		Revoked:           kv,
		RoleLookupTimeout: cfg.RoleLookupTimeout,
		Log:               log.Named("session"),
	})

	userService := user.NewService(userRepo, notifier, log.Named("user"))
	gate.SetRoleLookup(userService)

	cartService := cart.NewService(cart.NewStorageRepository(kv), log.Named("cart"))
	orderService := order.NewService(orderRepo)
	checkoutService := checkout.NewService(checkout.Options{
		Orders:        orderRepo,
		Inventory:     productService,
		Payments:      payment.NewSimulated(cfg.PaymentStubDelay),
		Notifier:      notifier,
		Events:        publisher,
		Currency:      cfg.Currency,
		OperatorEmail: cfg.OperatorEmail,
		Log:           log.Named("checkout"),
	})

	gate.Subscribe(func(e session.Event) {
		log.Info("session event", zap.String("type", string(e.Type)), zap.Int("user_id", e.Session.UserID))
		if e.CartID == "" || (e.Type != session.SignedIn && e.Type != session.SignedUp) {
			return
		}
		mergeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		cartService.Merge(mergeCtx, cart.AnonymousOwner(e.CartID), e.Session.Owner())
	})

	app := fiber.New(fiber.Config{ErrorHandler: errorHandler(log)})
	app.Use(logger.Middleware(log))
	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.CORSOrigins,
		AllowMethods:  "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + cart.CartIDHeader,
		ExposeHeaders: cart.CartIDHeader,
	}))
	app.Use(gate.Resolve())

	app.Get("/healthz", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	productHandler := product.NewHandler(productService)
	productHandler.RegisterPublicRoutes(app)
	category.NewHandler(category.NewService(productService)).RegisterPublicRoutes(app)
	shipping.NewHandler().RegisterRoutes(app)

	userHandler := user.NewHandler(userService, gate, log)
	userHandler.RegisterPublicRoutes(app)
	cart.NewHandler(cartService, productService).RegisterRoutes(app)
	consent.NewHandler(consent.NewService(kv, log.Named("consent")), cart.Owner).RegisterRoutes(app)
	checkout.NewHandler(checkoutService, cartService, log.Named("checkout")).RegisterRoutes(app)

	admin := app.Group("/api/v1/admin", gate.RequireRole(session.RoleAdmin))
	productHandler.RegisterAdminRoutes(admin)
	orderHandler := order.NewHandler(orderService)
	orderHandler.RegisterAdminRoutes(admin)
	notification.NewHandler(notifier, log).RegisterAdminRoutes(admin)

	// registered last: the group middleware runs for every path reaching it
	protected := app.Group("", gate.RequireAuth())
	userHandler.RegisterProtectedRoutes(protected)
	orderHandler.RegisterProtectedRoutes(protected)

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", zap.String("addr", cfg.Addr))
		errCh <- app.Listen(cfg.Addr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return err
	case sig := <-quit:
		log.Info("shutting down", zap.String("signal", sig.String()))
	}
	return app.ShutdownWithTimeout(10 * time.Second)
}

func openStorage(ctx context.Context, cfg config.Config, db *sql.DB) (storage.KV, error) {
	switch cfg.StorageBackend {
	case "memory":
		return storage.NewMemory(), nil
	case "redis":
		client, err := storage.DialRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return storage.NewRedis(client), nil
	case "postgres":
		if db == nil {
			return nil, errors.New("STORAGE_BACKEND=postgres requires DATABASE_URL")
		}
		return storage.NewPostgres(db), nil
	}
	return nil, fmt.Errorf("unknown STORAGE_BACKEND %q", cfg.StorageBackend)
}

func errorHandler(log *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		code := fiber.StatusInternalServerError
		var ferr *fiber.Error
		if errors.As(err, &ferr) {
			code = ferr.Code
		}
		if code >= fiber.StatusInternalServerError {
			log.Error("unhandled error", zap.String("path", c.Path()), zap.Error(err))
		}
		return c.Status(code).JSON(fiber.Map{"message": err.Error()})
	}
}
