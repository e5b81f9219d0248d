package main

import (
	"context"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"clinic-booking-service/internal/app"
	"clinic-booking-service/internal/cache"
	"clinic-booking-service/internal/config"
	"clinic-booking-service/internal/logger"
	"clinic-booking-service/internal/metrics"
	"clinic-booking-service/internal/schedule"
	"clinic-booking-service/internal/server"
	"clinic-booking-service/internal/storage"
)

func main() {
	ctx := context.Background()

	_ = godotenv.Load()
	config.Load()
	logger.Initialize()
	zlog := logger.Get()
	defer zlog.Sync()

	if config.AppConfig.DatabaseURL == "" {
		log.Fatal("DATABASE_URL required")
	}

	pool, err := pgxpool.New(ctx, config.AppConfig.DatabaseURL)
	if err != nil {
		zlog.Fatal("failed to connect to db", zap.Error(err))
	}
	defer pool.Close()

	var store cache.Store = cache.NewMemory()
	if config.AppConfig.RedisAddr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     config.AppConfig.RedisAddr,
			Password: config.AppConfig.RedisPassword,
			DB:       config.AppConfig.RedisDB,
		})
		pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
		if err := client.Ping(pingCtx).Err(); err != nil {
			zlog.Fatal("failed to connect to redis", zap.Error(err))
		}
		cancel()
		store = cache.NewRedis(client, 10*time.Minute)
	}

	grid := schedule.GridLabels(config.AppConfig.GridStart, config.AppConfig.GridEnd, config.AppConfig.SlotMinutes)
	appInstance := app.New(storage.New(pool), store, zlog, grid)

	if config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(metrics.Middleware())
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// OAuth2 callback (must be before auth middleware)
	router.GET("/oauth2callback", appInstance.GoogleOAuth2CallbackHandler)

	router.Use(app.AuthMiddleware())

	api := router.Group("/api")
	{
		sched := api.Group("/schedule")
		{
			sched.GET("/matrix", appInstance.GetMatrixHandler)
			sched.GET("/template", appInstance.GetTemplateHandler)
			sched.PUT("/template/:weekday", appInstance.SetWeekdayHandler)
			sched.POST("/template/copy", appInstance.CopyWeekdayHandler)
			sched.GET("/exceptions", appInstance.ListExceptionsHandler)
			sched.POST("/exceptions", appInstance.CreateExceptionHandler)
			sched.DELETE("/exceptions/:id", appInstance.DeleteExceptionHandler)
		}

		api.GET("/appointments", appInstance.ListAppointmentsHandler)
		api.POST("/appointments", appInstance.CreateAppointmentHandler)
		api.DELETE("/appointments/:id", appInstance.CancelAppointmentHandler)

		api.POST("/packages/selection/validate", appInstance.ValidateSelectionHandler)

		calendarGroup := api.Group("/calendar")
		{
			calendarGroup.GET("/auth", appInstance.GoogleAuthHandler)
			calendarGroup.GET("/events", appInstance.GetExternalEventsHandler)
			calendarGroup.GET("/calendars", appInstance.GetCalendarListHandler)
		}
	}

	zlog.Info("starting clinic booking service",
		zap.String("port", config.AppConfig.AppPort),
		zap.Int("grid_slots", len(grid)))

	server.Run(router)
}
