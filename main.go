package main

import (
	"log"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-co-op/gocron"
	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/facetrack/facetrackbackend/config"
	"github.com/facetrack/facetrackbackend/database"
	"github.com/facetrack/facetrackbackend/handlers"
	"github.com/facetrack/facetrackbackend/models"
	"github.com/facetrack/facetrackbackend/realtime"
	"github.com/facetrack/facetrackbackend/recognition"
	"github.com/facetrack/facetrackbackend/repository"
	"github.com/facetrack/facetrackbackend/services"
	"github.com/facetrack/facetrackbackend/workers"
)

func main() {
	err := godotenv.Load()
	if err != nil {
		log.Printf("Info: No .env file found or error loading: %v", err)
	}
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("FATAL: Failed to load configuration: %v", err)
	}

	db, err := database.InitGormDB(cfg.DatabaseDSN)
	if err != nil {
		log.Fatalf("FATAL: Failed to initialize database: %v", err)
	}
	if err := database.AutoMigrateModels(db); err != nil {
		log.Fatalf("FATAL: Failed to run migrations: %v", err)
	}

	userRepo := repository.NewUserRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	holidayRepo := repository.NewHolidayRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	appRepo := repository.NewWorkApplicationRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	seedAdmin(adminRepo)

	store := recognition.NewStore(cfg.MaxSamplesPerIdentity, nil)
	matcher := recognition.NewMatcher(store)
	tracker := recognition.NewTracker(matcher, cfg.FallbackThreshold, recognition.TrackerConfig{
		ConfirmSimilarity: cfg.ConfirmSimilarity,
		RepeatCount:       cfg.ConfirmRepeat,
		Expiry:            cfg.TrackerExpiry,
	})
	trainer := recognition.NewTrainer(store, userRepo, recognition.TrainerConfig{
		ScoreThreshold:      cfg.TrainScoreThreshold,
		DuplicateSimilarity: cfg.TrainDupSimilarity,
	})
	trainer.SetEnabled(cfg.AutoTrainEnabled)

	log.Printf("Initializing attendance writer (Queue Size: %d)...", cfg.WriterQueueSize)
	writer := workers.NewAttendanceWriter(attendanceRepo, cfg.WriterQueueSize)
	defer writer.Stop()

	hub := realtime.NewHub()
	go hub.Run()

	service := services.NewRecognitionService(
		userRepo, attendanceRepo,
		store, matcher, tracker, trainer,
		writer, hub,
		cfg.FallbackThreshold,
	)

	if err := service.RefreshEmbeddings(); err != nil {
		log.Printf("Warning: Initial embedding load failed, starting with empty index: %v", err)
	}
	identities, samples := service.IndexStats()
	log.Printf("Embedding index ready (%d identities, %d samples)", identities, samples)

	scheduler := gocron.NewScheduler(time.UTC)
	if _, err := scheduler.Every(cfg.EmbeddingRefreshInterval).Do(func() {
		if err := service.RefreshEmbeddings(); err != nil {
			log.Printf("Scheduler: Embedding refresh failed: %v", err)
		}
	}); err != nil {
		log.Fatalf("FATAL: Failed to schedule embedding refresh: %v", err)
	}
	if _, err := scheduler.Every(cfg.TrackerExpiry).Do(func() {
		if purged := service.PurgeTracks(); purged > 0 {
			log.Printf("Scheduler: Purged %d stale tracking sessions", purged)
		}
	}); err != nil {
		log.Fatalf("FATAL: Failed to schedule tracker purge: %v", err)
	}
	if _, err := scheduler.Every(1).Day().At("03:30").Do(func() {
		cutoff := time.Now().Add(-cfg.AuditRetention)
		deleted, err := auditRepo.DeleteOlderThan(cutoff)
		if err != nil {
			log.Printf("Scheduler: Audit retention sweep failed: %v", err)
			return
		}
		if deleted > 0 {
			log.Printf("Scheduler: Audit retention sweep removed %d entries", deleted)
		}
	}); err != nil {
		log.Fatalf("FATAL: Failed to schedule audit retention sweep: %v", err)
	}
	scheduler.StartAsync()
	defer scheduler.Stop()

	auth := handlers.NewAuthMiddleware(adminRepo, cfg.JWTKey)
	authHandler := handlers.NewAuthHandler(adminRepo, auditRepo, auth)
	attendanceHandler := handlers.NewAttendanceHandler(service, attendanceRepo, auditRepo)
	userHandler := handlers.NewUserHandler(userRepo, service, auditRepo, cfg.MaxSamplesPerIdentity)
	holidayHandler := handlers.NewHolidayHandler(holidayRepo)
	shiftHandler := handlers.NewShiftHandler(shiftRepo)
	appHandler := handlers.NewWorkApplicationHandler(appRepo, auditRepo)
	auditHandler := handlers.NewAuditHandler(auditRepo)

	r := chi.NewRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}
	corsHandler := cors.New(corsOptions)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(corsHandler.Handler)

	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/login", authHandler.Login)

		// terminal endpoints: the kiosk authenticates at the network layer,
		// not with admin sessions
		r.Route("/recognition", func(r chi.Router) {
			r.Post("/preview", attendanceHandler.Preview)
			r.Post("/mark", attendanceHandler.Mark)
			r.Get("/stats", attendanceHandler.IndexStats)

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireAuth)
				r.Post("/refresh", attendanceHandler.RefreshIndex)
				r.Get("/autotrain", attendanceHandler.AutoTrainStatus)
				r.Post("/autotrain/toggle", attendanceHandler.ToggleAutoTrain)
			})
		})

		r.Get("/users/embeddings", userHandler.EmbeddingFeed)

		r.Group(func(r chi.Router) {
			r.Use(auth.RequireAuth)

			r.Post("/auth/change-password", authHandler.ChangePassword)

			r.Route("/users", func(r chi.Router) {
				r.Post("/", userHandler.Create)
				r.Get("/", userHandler.List)
				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", userHandler.Get)
					r.Put("/", userHandler.Update)
					r.Delete("/", userHandler.Deactivate)
					r.Post("/embeddings", userHandler.RegisterEmbedding)
				})
			})

			r.Get("/attendance/logs", attendanceHandler.ListLogs)

			r.Route("/holidays", func(r chi.Router) {
				r.Get("/", holidayHandler.List)
				r.Post("/", holidayHandler.Create)
				r.Delete("/{id}", holidayHandler.Delete)
				r.Post("/paid", holidayHandler.GrantPaid)
				r.Get("/paid/{userID}", holidayHandler.ListPaid)
				r.Delete("/paid/{id}", holidayHandler.DeletePaid)
			})

			r.Route("/shifts", func(r chi.Router) {
				r.Get("/", shiftHandler.List)
				r.Post("/", shiftHandler.Create)
				r.Put("/{id}", shiftHandler.Update)
				r.Delete("/{id}", shiftHandler.Delete)
				r.Post("/assign", shiftHandler.Assign)
				r.Get("/assignment/{userID}", shiftHandler.GetAssignment)
			})

			r.Route("/applications", func(r chi.Router) {
				r.Post("/", appHandler.Create)
				r.Get("/user/{userID}", appHandler.ListByUser)
				r.Group(func(r chi.Router) {
					r.Use(auth.RequireHR)
					r.Get("/pending", appHandler.ListPending)
					r.Post("/{id}/decide", appHandler.Decide)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireHR)
				r.Get("/audit", auditHandler.ListRecent)
			})
		})
	})

	r.Get("/ws/events", hub.ServeWS)

	log.Printf("Server listening on %s", cfg.ListenAddr)
	server := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}
	log.Fatal(server.ListenAndServe())
}

// seedAdmin creates the bootstrap admin account when none exists yet.
// Credentials come from ADMIN_USERNAME / ADMIN_PASSWORD; without a password
// set, seeding is skipped so a bare deployment never gets a guessable login.
func seedAdmin(adminRepo repository.AdminRepositoryInterface) {
	username := os.Getenv("ADMIN_USERNAME")
	if username == "" {
		username = "admin"
	}
	if _, err := adminRepo.GetByUsername(username); err == nil {
		return
	}

	password := os.Getenv("ADMIN_PASSWORD")
	if password == "" {
		log.Printf("Info: No admin account found and ADMIN_PASSWORD not set; skipping seed")
		return
	}

	admin := &models.Admin{Username: username, IsHR: true}
	if err := admin.SetPassword(password); err != nil {
		log.Fatalf("FATAL: Failed to hash seed admin password: %v", err)
	}
	if err := adminRepo.Create(admin); err != nil {
		log.Fatalf("FATAL: Failed to create seed admin: %v", err)
	}
	log.Printf("Created seed admin account %q", username)
}
