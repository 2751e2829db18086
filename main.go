package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/danatour/booking/config"
	"github.com/danatour/booking/config/db"
	"github.com/danatour/booking/config/redis"
	"github.com/danatour/booking/logger"
	"github.com/danatour/booking/middlewares/cors"
	"github.com/danatour/booking/routes"
)

func init() {
	logger.InitLoggers()
	config.LoadEnv()
}

func main() {
	db.Connect()
	defer db.Close()
	defer redis.CloseRedis()

	port := os.Getenv("PORT")
	if port == "" {
		port = "8081"
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(cors.CorsMiddleware())

	routes.RegisterTourRoutes(r)
	routes.RegisterVoucherRoutes(r)
	routes.RegisterBookingRoutes(r)
	routes.RegisterPaymentRoutes(r)
	routes.RegisterComplaintRoutes(r)
	routes.RegisterCancelBookRoutes(r)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "ok from booking service"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}

	go func() {
		logger.InfoLogger.Infof("Booking service listening on :%s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorLogger.Fatalf("Server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.InfoLogger.Info("Shutting down booking service...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.ErrorLogger.Errorf("Forced shutdown: %v", err)
	}
	logger.InfoLogger.Info("Booking service stopped.")
}
