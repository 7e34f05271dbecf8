package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"wordquest/internal/audio"
	"wordquest/internal/config"
	"wordquest/internal/content"
	"wordquest/internal/credentials"
	"wordquest/internal/database"
	"wordquest/internal/events"
	"wordquest/internal/handlers"
	"wordquest/internal/repository"
	"wordquest/internal/security"
	"wordquest/internal/service"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.InitializeWithConfig(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := db.RunMigrations(cfg.MigrationsPath); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Load content
	modules, report, err := content.LoadModules(cfg.ContentPath)
	if err != nil {
		log.Fatalf("Failed to load content: %v", err)
	}
	log.Printf("Loaded %d modules (%d files skipped)", len(modules), len(report.Skipped))

	catalog := content.NewCatalog(modules, content.DefaultBooks())
	for _, problem := range catalog.Problems() {
		log.Printf("Catalog: %s", problem)
	}

	// Wire up stores and services
	stateRepo := repository.NewDBStateRepository(db)
	writer := repository.NewWriter()
	session := service.NewSession(writer)

	creds := credentials.NewStore()
	users := service.NewUserService(stateRepo, creds, session)
	books := service.NewBookService(stateRepo, catalog, session)

	bus := events.NewBus()
	bus.Subscribe(func(e events.RewardEvent) {
		log.Printf("Reward: user %s earned %d xp (badge %q) for quest %s in %s",
			e.UserID, e.Reward.XP, e.Reward.Badge, e.QuestID, e.ModuleID)
	})

	quests := service.NewQuestService(stateRepo, catalog, users, books, bus, session)
	backup := service.NewBackupService(db)

	// Resume the persisted session, through the same path a login takes
	users.ResumeSession()

	// HTTP surface
	tokens := security.NewTokenManager(cfg.JWTSecret, cfg.SessionDuration)
	loginLimiter := security.NewLoginLimiter(10, time.Minute)
	player := audio.NewLocalPlayer(cfg.AudioPath)

	mw := handlers.NewMiddleware(users, tokens)
	authHandler := handlers.NewAuthHandler(users, tokens, loginLimiter)
	bookHandler := handlers.NewBookHandler(catalog, books)
	questHandler := handlers.NewQuestHandler(catalog, quests, users)
	adminHandler := handlers.NewAdminHandler(backup, catalog, report, session)
	audioHandler := handlers.NewAudioHandler(player)

	mux := http.NewServeMux()

	// Auth and profiles
	mux.HandleFunc("POST /api/auth/register", authHandler.Register)
	mux.HandleFunc("POST /api/auth/guest", authHandler.RegisterGuest)
	mux.HandleFunc("POST /api/auth/convert", mw.RequireAuth(authHandler.ConvertGuest))
	mux.HandleFunc("POST /api/auth/login", authHandler.Login)
	mux.HandleFunc("POST /api/auth/logout", mw.RequireAuth(authHandler.Logout))
	mux.HandleFunc("POST /api/auth/switch", mw.RequireAuth(authHandler.Switch))
	mux.HandleFunc("GET /api/auth/me", mw.RequireAuth(authHandler.Me))
	mux.HandleFunc("GET /api/auth/suggest", authHandler.SuggestCredentials)
	mux.HandleFunc("GET /api/users", mw.RequireAuth(authHandler.ListUsers))
	mux.HandleFunc("DELETE /api/users/{id}", mw.RequireAdmin(authHandler.DeleteUser))
	mux.HandleFunc("PUT /api/users/{id}/role", mw.RequireAdmin(authHandler.UpdateRole))
	mux.HandleFunc("PUT /api/profile", mw.RequireAuth(authHandler.UpdateProfile))
	mux.HandleFunc("PUT /api/settings", mw.RequireAuth(authHandler.UpdateSettings))

	// Books
	mux.HandleFunc("GET /api/books", mw.RequireAuth(bookHandler.ListBooks))
	mux.HandleFunc("GET /api/books/next", mw.RequireAuth(bookHandler.NextBook))
	mux.HandleFunc("GET /api/books/progress", mw.RequireAuth(bookHandler.Progress))
	mux.HandleFunc("GET /api/books/{id}", mw.RequireAuth(bookHandler.GetBook))
	mux.HandleFunc("POST /api/books/current", mw.RequireAuth(bookHandler.SetCurrentBook))
	mux.HandleFunc("POST /api/books/{id}/unlock", mw.RequireAuth(bookHandler.UnlockBook))

	// Modules and quests
	mux.HandleFunc("GET /api/modules", mw.RequireAuth(questHandler.ListModules))
	mux.HandleFunc("GET /api/modules/{id}", mw.RequireAuth(questHandler.GetModule))
	mux.HandleFunc("POST /api/modules/{id}/reset", mw.RequireAuth(questHandler.ResetProgress))
	mux.HandleFunc("POST /api/quests/start", mw.RequireAuth(questHandler.StartQuest))
	mux.HandleFunc("GET /api/quests/current", mw.RequireAuth(questHandler.CurrentQuest))
	mux.HandleFunc("POST /api/quests/step", mw.RequireAuth(questHandler.CompleteStep))
	mux.HandleFunc("POST /api/quests/abandon", mw.RequireAuth(questHandler.AbandonQuest))

	// Audio
	mux.HandleFunc("GET /api/audio/{ref}", mw.RequireAuth(audioHandler.Play))

	// Admin
	mux.HandleFunc("GET /api/admin/export", mw.RequireAdmin(adminHandler.ExportState))
	mux.HandleFunc("POST /api/admin/import", mw.RequireAdmin(adminHandler.ImportState))
	mux.HandleFunc("GET /api/admin/content", mw.RequireAdmin(adminHandler.ContentReport))

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      handlers.Logging(mux),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("Server starting on port %s", cfg.ServerPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Server failed: %v", err)
		}
	}()

	<-done
	log.Println("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Printf("Server shutdown error: %v", err)
	}

	// Save the active user's state and drain the write queue before exit
	if userID := session.CurrentUserID(); userID != "" {
		session.Deactivate()
	}
	writer.Close()

	log.Println("Server stopped")
}
