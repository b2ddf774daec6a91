package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dhanush-hc/hrms-backend-go/internal/config"
	appHTTP "github.com/dhanush-hc/hrms-backend-go/internal/handler/http"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/database"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/facematch"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/jwt"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/sse"
	"github.com/dhanush-hc/hrms-backend-go/internal/pkg/storage"
	"github.com/dhanush-hc/hrms-backend-go/internal/repository/postgresql"
	redisRepo "github.com/dhanush-hc/hrms-backend-go/internal/repository/redis"
	approvalService "github.com/dhanush-hc/hrms-backend-go/internal/service/approval"
	attendanceService "github.com/dhanush-hc/hrms-backend-go/internal/service/attendance"
	"github.com/dhanush-hc/hrms-backend-go/internal/service/fraud"
	"github.com/dhanush-hc/hrms-backend-go/internal/service/identity"
	notificationService "github.com/dhanush-hc/hrms-backend-go/internal/service/notification"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		return
	}
	if err := cfg.Validate(); err != nil {
		fmt.Println("Invalid config:", err)
		return
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil)).With(
		slog.String("app", "hrms-attendance"),
	)

	db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
	if err != nil {
		fmt.Println("Error connecting to database:", err)
		return
	}
	defer db.Close()

	redisClient, err := redisRepo.NewClient(context.Background(), cfg.Redis)
	if err != nil {
		log.Fatal("Failed to connect to redis: ", err)
	}
	defer redisClient.Close()

	var fileStorage storage.FileStorage
	switch cfg.Storage.Type {
	case "local":
		fileStorage, err = storage.NewLocalStorage(
			cfg.Storage.BasePath,
			cfg.Storage.BaseURL,
		)
		if err != nil {
			log.Fatal("Failed to initialize local storage:", err)
		}
	default:
		log.Fatal("Unsupported storage type: ", cfg.Storage.Type)
	}

	attendanceRepo := postgresql.NewAttendanceRepository(db)
	employeeRepo := postgresql.NewEmployeeRepository(db)
	shiftRepo := postgresql.NewShiftRepository(db)
	wfhRepo := postgresql.NewWFHRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	userRepo := postgresql.NewUserRepository(db)
	attemptStore := redisRepo.NewAttemptStore(redisClient, cfg.Attendance.RapidAttemptWindow)

	jwtService := jwt.NewJWTService(cfg.JWT.Secret)
	hub := sse.NewHub()

	notifService := notificationService.NewNotificationService(
		notificationRepo,
		userRepo,
		hub,
		logger,
		notificationService.Config{},
	)

	matcher := facematch.NewClient(cfg.FaceMatch)
	verifier := identity.NewVerifier(matcher, employeeRepo, fileStorage, cfg.Attendance, logger)
	detector := fraud.NewDetector(attemptStore, attendanceRepo, cfg.Attendance, logger)

	transactor := func(ctx context.Context, fn func(ctx context.Context) error) error {
		return postgresql.WithTransaction(ctx, db, fn)
	}

	attendanceSvc := attendanceService.NewAttendanceService(
		transactor,
		attendanceRepo,
		employeeRepo,
		shiftRepo,
		wfhRepo,
		verifier,
		detector,
		fileStorage,
		notifService,
		cfg.Attendance,
		logger,
	)
	approvalSvc := approvalService.NewApprovalService(attendanceRepo, employeeRepo, notifService, logger)

	attendanceHandler := appHTTP.NewAttendanceHandler(attendanceSvc, approvalSvc, verifier)
	notificationHandler := appHTTP.NewNotificationHandler(notifService, hub)

	router := appHTTP.NewRouter(cfg, jwtService, attendanceHandler, notificationHandler)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.App.Port),
		Handler: router,
	}

	go func() {
		fmt.Printf("Server running at http://localhost%s\n", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Server error: ", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	notifService.Shutdown()
}
