package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/sessions"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/brookemaisy/storefront-api/internal/config"
	"github.com/brookemaisy/storefront-api/internal/handler"
	"github.com/brookemaisy/storefront-api/internal/middleware"
	"github.com/brookemaisy/storefront-api/internal/repository"
	"github.com/brookemaisy/storefront-api/internal/service"
	"github.com/brookemaisy/storefront-api/internal/worker"
)

func main() {
	log := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	cfg, err := config.Load()
	if err != nil {
		log.Error("load config", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// PostgreSQL
	poolCfg, err := pgxpool.ParseConfig(cfg.DB.DSN())
	if err != nil {
		log.Error("parse db config", "error", err)
		os.Exit(1)
	}
	poolCfg.MaxConns = cfg.DB.MaxConns

	dbPool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		log.Error("connect to database", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(ctx); err != nil {
		log.Error("ping database", "error", err)
		os.Exit(1)
	}
	log.Info("connected to PostgreSQL")

	// Redis
	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Error("connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("connected to Redis")

	// RabbitMQ
	amqpConn, err := amqp.Dial(cfg.RabbitMQ.URL)
	if err != nil {
		log.Error("connect to RabbitMQ", "error", err)
		os.Exit(1)
	}
	defer amqpConn.Close()

	amqpCh, err := amqpConn.Channel()
	if err != nil {
		log.Error("open RabbitMQ channel", "error", err)
		os.Exit(1)
	}
	defer amqpCh.Close()

	if err := worker.SetupRabbitMQ(amqpCh); err != nil {
		log.Error("setup RabbitMQ", "error", err)
		os.Exit(1)
	}
	log.Info("connected to RabbitMQ")

	// Repositories
	userRepo := repository.NewUserRepository(dbPool)
	categoryRepo := repository.NewCategoryRepository(dbPool)
	productRepo := repository.NewProductRepository(dbPool)
	variantRepo := repository.NewVariantRepository(dbPool)
	cartRepo := repository.NewCartRepository(dbPool)
	orderRepo := repository.NewOrderRepository(dbPool)
	reviewRepo := repository.NewReviewRepository(dbPool)
	articleRepo := repository.NewArticleRepository(dbPool)

	// Services
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	categorySvc := service.NewCategoryService(categoryRepo)
	productSvc := service.NewProductService(productRepo, variantRepo, categoryRepo, reviewRepo, redisClient)
	cartSvc := service.NewCartService(cartRepo, productRepo, variantRepo)
	orderSvc := service.NewOrderService(orderRepo, cartRepo, productRepo, variantRepo, amqpCh, log)
	reviewSvc := service.NewReviewService(reviewRepo, productRepo)
	articleSvc := service.NewArticleService(articleRepo)
	adminSvc := service.NewAdminService(productRepo, orderRepo, userRepo, reviewRepo)

	// Handlers
	authH := handler.NewAuthHandler(authSvc, cartSvc)
	categoryH := handler.NewCategoryHandler(categorySvc)
	productH := handler.NewProductHandler(productSvc)
	cartH := handler.NewCartHandler(cartSvc)
	orderH := handler.NewOrderHandler(orderSvc)
	reviewH := handler.NewReviewHandler(reviewSvc)
	articleH := handler.NewArticleHandler(articleSvc)
	adminH := handler.NewAdminHandler(adminSvc, authSvc)
	healthH := handler.NewHealthHandler(dbPool, redisClient, amqpConn)

	// Workers
	mailWorker := worker.NewMailWorker(amqpCh, worker.LogSender{Log: log}, redisClient, log)
	janitor := worker.NewCartJanitor(cartRepo, cfg.Cart.AbandonedAfter, log)

	// Router
	sessionStore := sessions.NewCookieStore([]byte(cfg.Session.Secret))

	router := gin.Default()
	router.Use(middleware.Metrics())
	router.GET("/healthz", healthH.Healthz)
	router.GET("/readyz", healthH.Readyz)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	v1.Use(middleware.Session(sessionStore, cfg.Session.CookieName))
	{
		auth := v1.Group("/auth", middleware.OptionalAuth(cfg.JWT.Secret))
		auth.POST("/register", authH.Register)
		auth.POST("/login", authH.Login)

		products := v1.Group("/products")
		products.GET("", productH.List)
		products.GET("/search", productH.List)
		products.GET("/:slug", productH.GetBySlug)
		products.GET("/:slug/reviews", reviewH.ListForProduct)
		products.POST("/:slug/reviews", middleware.AuthMiddleware(cfg.JWT.Secret), reviewH.Create)

		categories := v1.Group("/categories")
		categories.GET("", categoryH.List)
		categories.GET("/:slug", categoryH.GetBySlug)

		cart := v1.Group("/cart", middleware.OptionalAuth(cfg.JWT.Secret))
		cart.GET("", cartH.Get)
		cart.DELETE("", cartH.Clear)
		cart.POST("/items", cartH.AddItem)
		cart.PATCH("/items/:id", cartH.UpdateItem)
		cart.DELETE("/items/:id", cartH.RemoveItem)

		orders := v1.Group("/orders", middleware.OptionalAuth(cfg.JWT.Secret))
		orders.POST("", orderH.Checkout)
		orders.GET("", orderH.ListMine)
		orders.GET("/:order_number", orderH.GetByNumber)
		orders.POST("/:order_number/cancel", orderH.Cancel)

		articles := v1.Group("/articles")
		articles.GET("", articleH.List)
		articles.GET("/:slug", articleH.GetBySlug)

		admin := v1.Group("/admin", middleware.AuthMiddleware(cfg.JWT.Secret), middleware.AdminOnly())
		{
			admin.GET("/dashboard", adminH.Dashboard)
			admin.GET("/analytics", adminH.Analytics)

			admin.GET("/products", productH.AdminList)
			admin.POST("/products", productH.Create)
			admin.GET("/products/export.csv", adminH.ExportProductsCSV)
			admin.POST("/products/bulk_update", productH.BulkUpdate)
			admin.POST("/products/bulk_destroy", productH.BulkDestroy)
			admin.GET("/products/:id", productH.GetByID)
			admin.PATCH("/products/:id", productH.Update)
			admin.DELETE("/products/:id", productH.Delete)
			admin.POST("/products/:id/duplicate", productH.Duplicate)
			admin.POST("/products/:id/toggle_active", productH.ToggleActive)
			admin.POST("/products/:id/toggle_featured", productH.ToggleFeatured)

			admin.GET("/products/:id/variants", productH.ListVariants)
			admin.POST("/products/:id/variants", productH.CreateVariant)
			admin.PATCH("/products/:id/variants/:variant_id", productH.UpdateVariant)
			admin.DELETE("/products/:id/variants/:variant_id", productH.DeleteVariant)

			admin.GET("/categories", categoryH.AdminList)
			admin.POST("/categories", categoryH.Create)
			admin.POST("/categories/reorder", categoryH.Reorder)
			admin.PATCH("/categories/:id", categoryH.Update)
			admin.DELETE("/categories/:id", categoryH.Delete)
			admin.POST("/categories/:id/move_up", categoryH.MoveUp)
			admin.POST("/categories/:id/move_down", categoryH.MoveDown)

			admin.GET("/orders", orderH.List)
			admin.PATCH("/orders/:id/status", orderH.UpdateStatus)
			admin.PATCH("/orders/:id/payment_status", orderH.UpdatePaymentStatus)
			admin.POST("/orders/:id/send_tracking_email", orderH.SendTrackingEmail)

			admin.GET("/reviews", reviewH.ListPending)
			admin.POST("/reviews/:id/approve", reviewH.Approve)
			admin.POST("/reviews/:id/reject", reviewH.Reject)
			admin.DELETE("/reviews/:id", reviewH.Delete)

			admin.GET("/articles", articleH.AdminList)
			admin.POST("/articles", articleH.Create)
			admin.PATCH("/articles/:id", articleH.Update)
			admin.DELETE("/articles/:id", articleH.Delete)

			admin.GET("/customers", adminH.ListCustomers)
			admin.POST("/admin_users", adminH.CreateAdminUser)
			admin.DELETE("/users/:id", adminH.DeleteUser)
		}
	}

	if err := mailWorker.Start(ctx); err != nil {
		log.Error("start mail worker", "error", err)
		os.Exit(1)
	}
	if err := janitor.Start(cfg.Cart.JanitorCron); err != nil {
		log.Error("start cart janitor", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting HTTP server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("server shutdown", "error", err)
	}

	mailWorker.Stop()
	janitor.Stop()
	time.Sleep(500 * time.Millisecond)
	cancel()
	log.Info("server stopped")
}
