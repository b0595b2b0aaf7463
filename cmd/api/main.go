package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"rollcall/internal/attendance"
	"rollcall/internal/auth"
	"rollcall/internal/config"
	"rollcall/internal/httpmiddleware"
	"rollcall/internal/logging"
	"rollcall/internal/notify"
	"rollcall/internal/queue"
	"rollcall/internal/reports"
	"rollcall/internal/store"
)

var markOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "rollcall_mark_outcomes_total",
	Help: "Attendance marking attempts by outcome status.",
}, []string{"status"})

func main() {
	cfg := config.Load()
	log := logging.New(cfg.LogLevel, cfg.LogPretty)

	if cfg.Env == "production" || cfg.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := runHTTP(cfg, log); err != nil {
		log.Fatal().Err(err).Msg("http server failed")
	}
}

func runHTTP(cfg config.App, log zerolog.Logger) error {
	db, err := store.NewDB(cfg.DatabaseURL)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := store.Migrate(context.Background(), db.Client); err != nil {
		return err
	}

	redisClient := store.NewRedis(cfg.RedisAddr)

	var q queue.Queue
	if cfg.QueueBackend == "memory" {
		q = queue.NewInMemory(64)
	} else {
		q = queue.NewRedisQueue(redisClient.Client, "rollcall:notifications")
	}

	attStore := attendance.NewPostgresStore(db.Client)
	svc := attendance.NewService(attStore, log)
	dispatcher := notify.NewDispatcher(q, cfg.PlaceholderMail, log)
	repRepo := reports.NewRepository(db.Client)

	// Notifications are scheduled after the response path commits; a fresh
	// context keeps queue pushes alive past the request.
	notifyCtx := context.Background()

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(gin.LoggerWithConfig(gin.LoggerConfig{
		SkipPaths: []string{"/healthz", "/metrics"},
	}))
	r.Use(corsMiddleware())
	r.Use(securityHeaders())
	r.Use(httpmiddleware.NewTokenBucket(cfg.RateLimitPerMin, cfg.RateLimitPerMin).Middleware())

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/healthz", func(c *gin.Context) {
		redisHealthy := redisClient.Healthy(c.Request.Context())
		dbHealthy := db.Client.PingContext(c.Request.Context()) == nil
		status := http.StatusOK
		if !redisHealthy || !dbHealthy {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"status": "ok", "redis": redisHealthy, "db": dbHealthy})
	})

	r.POST("/api/admin/login", func(c *gin.Context) {
		var req struct {
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.Password != cfg.AdminPassword {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error"})
			return
		}
		tok, err := auth.Issue("admin", auth.RoleAdmin, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "access_token": tok.Value, "expires_at": tok.ExpiresAt.Unix()})
	})

	r.POST("/api/course/login", func(c *gin.Context) {
		var req struct {
			CourseCode string `json:"course_code" binding:"required"`
			Password   string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		course, err := attStore.Course(c.Request.Context(), req.CourseCode)
		if err != nil {
			log.Error().Err(err).Msg("course lookup failed")
			c.JSON(http.StatusInternalServerError, gin.H{"status": "error"})
			return
		}
		if course == nil || !auth.CheckPassword(req.Password, course.PasswordHash) {
			c.JSON(http.StatusUnauthorized, gin.H{"status": "error"})
			return
		}
		tok, err := auth.Issue(course.Code, auth.RoleCourse, cfg.JWTIssuer, cfg.JWTSigningKey, cfg.AccessTTL)
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "token issue failed"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success", "access_token": tok.Value, "expires_at": tok.ExpiresAt.Unix()})
	})

	marking := r.Group("/api/attendance", auth.Require(cfg.JWTSigningKey, cfg.JWTIssuer))

	marking.POST("/mark", func(c *gin.Context) {
		var req struct {
			StudentID  string `json:"student_id" binding:"required"`
			RoomNumber string `json:"room_number"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if req.RoomNumber == "" {
			req.RoomNumber = "Hall_1"
		}

		out := svc.Mark(c.Request.Context(), req.StudentID, req.RoomNumber)
		markOutcomes.WithLabelValues(string(out.Status)).Inc()
		if out.Status == attendance.StatusSuccess {
			dispatcher.Confirm(notifyCtx, out.Email, out.StudentName, out.CourseName, out.MarkedAt)
		}
		c.JSON(outcomeCode(out.Status), out)
	})

	marking.GET("/live", func(c *gin.Context) {
		entries, err := repRepo.Live(c.Request.Context(), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, entries)
	})

	admin := r.Group("/api", auth.Require(cfg.JWTSigningKey, cfg.JWTIssuer, auth.RoleAdmin))

	admin.POST("/attendance/manual", func(c *gin.Context) {
		var req struct {
			StudentID  string `json:"student_id" binding:"required"`
			CourseCode string `json:"course_code" binding:"required"`
			Status     string `json:"status" binding:"required"`
			Date       string `json:"date"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		out := svc.ManualEdit(c.Request.Context(), req.StudentID, req.CourseCode, req.Status, req.Date)
		if out.Status == attendance.StatusSuccess && out.Email != "" {
			dispatcher.Confirm(notifyCtx, out.Email, out.StudentName, out.CourseName, out.MarkedAt)
		}
		c.JSON(outcomeCode(out.Status), out)
	})

	reporting := r.Group("/api", auth.Require(cfg.JWTSigningKey, cfg.JWTIssuer, auth.RoleAdmin, auth.RoleCourse))

	reporting.GET("/dashboard/stats", func(c *gin.Context) {
		stats, err := repRepo.Stats(c.Request.Context(), c.DefaultQuery("filter", "Today"), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, stats)
	})

	reporting.GET("/dashboard/chart_data", func(c *gin.Context) {
		data, err := repRepo.ChartData(c.Request.Context(), c.DefaultQuery("filter", "Today"), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, data)
	})

	reporting.GET("/course/:code/report", func(c *gin.Context) {
		rowsOut, err := repRepo.Risk(c.Request.Context(), c.Param("code"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, rowsOut)
	})

	reporting.GET("/course/:code/history", func(c *gin.Context) {
		rowsOut, err := repRepo.History(c.Request.Context(), c.Param("code"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, rowsOut)
	})

	reporting.GET("/course/:code/dates", func(c *gin.Context) {
		dates, err := repRepo.Dates(c.Request.Context(), c.Param("code"), time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, dates)
	})

	reporting.GET("/course/:code/date/:date", func(c *gin.Context) {
		roll, err := repRepo.DailyDetail(c.Request.Context(), c.Param("code"), c.Param("date"))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, roll)
	})

	reporting.GET("/students", func(c *gin.Context) {
		students, err := repRepo.ListStudents(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, students)
	})

	reporting.GET("/courses", func(c *gin.Context) {
		courses, err := repRepo.ListCourses(c.Request.Context())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "query failed"})
			return
		}
		c.JSON(http.StatusOK, courses)
	})

	srv := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.HTTPPort).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced shutdown")
	}

	log.Info().Msg("server exited")
	return nil
}

// outcomeCode maps business outcomes to HTTP statuses; every expected outcome
// is a 2xx/4xx, only infrastructure faults are 500.
func outcomeCode(s attendance.Status) int {
	switch s {
	case attendance.StatusSuccess:
		return http.StatusOK
	case attendance.StatusAlreadyMarked, attendance.StatusNoActiveLecture, attendance.StatusNotRegistered:
		return http.StatusOK
	case attendance.StatusNotFound:
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// CORS middleware for browser requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if origin == "" {
			origin = "*"
		}

		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Accept, Authorization")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// Security headers middleware
func securityHeaders() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("X-Content-Type-Options", "nosniff")
		c.Header("X-Frame-Options", "DENY")
		c.Header("Referrer-Policy", "strict-origin-when-cross-origin")

		if gin.Mode() == gin.ReleaseMode {
			c.Header("Strict-Transport-Security", "max-age=31536000; includeSubDomains")
		}

		c.Next()
	}
}
