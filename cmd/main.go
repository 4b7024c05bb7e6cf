package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/cors"

	"github.com/certistudy/deletion-service/internal/app"
	"github.com/certistudy/deletion-service/internal/config"
	"github.com/certistudy/deletion-service/internal/controllers"
	"github.com/certistudy/deletion-service/internal/identity"
	"github.com/certistudy/deletion-service/internal/repositories"
	"github.com/certistudy/deletion-service/internal/services"
	"github.com/certistudy/deletion-service/internal/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize application:", err)
	}
	defer application.Close()

	//----------------------------------------------------------------------
	// Repositories
	//----------------------------------------------------------------------
	memberRepo := repositories.NewMemberRepository(application.DB, cfg.DBEncryptionKey)
	tokenRepo := repositories.NewDeletionTokenRepository(application.DB)
	outboxRepo := repositories.NewOutboxRepository(application.DB)

	//----------------------------------------------------------------------
	// Services
	//----------------------------------------------------------------------
	identityClient, err := identity.NewRESTClient(
		cfg.IdentityAPIURL,
		cfg.IdentityAPIKey,
		cfg.IdentityAPISecret,
		2,             // retries on rate limit
		2*time.Second, // initial backoff
	)
	if err != nil {
		utils.Logger.Fatal("Failed to create identity client:", err)
	}

	deletionService := services.NewDeletionService(memberRepo, tokenRepo, outboxRepo, identityClient, cfg)
	outboxDispatcher := services.NewOutboxDispatcher(outboxRepo, cfg)

	//----------------------------------------------------------------------
	// Controllers
	//----------------------------------------------------------------------
	deletionController := controllers.NewDeletionController(deletionService)
	healthController := controllers.NewHealthController(application)

	//----------------------------------------------------------------------
	// Router & Endpoints
	//----------------------------------------------------------------------
	router := mux.NewRouter()

	// Health
	router.HandleFunc("/health", healthController.HealthCheckHandler).Methods("GET")

	router.HandleFunc("/request-deletion", deletionController.RequestDeletion).Methods("POST")
	router.HandleFunc("/confirm-deletion", deletionController.ConfirmDeletion).Methods("GET")

	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		utils.RespondPlainText(w, http.StatusMethodNotAllowed, "Method not allowed")
	})

	//----------------------------------------------------------------------
	// Outbox dispatch via cron
	//----------------------------------------------------------------------
	c := cron.New()

	_, schErr := c.AddFunc("* * * * *", func() {
		if e := outboxDispatcher.DispatchPending(context.Background()); e != nil {
			utils.Logger.WithError(e).Error("Scheduled outbox dispatch failed")
		}
	})
	if schErr != nil {
		utils.Logger.WithError(schErr).Fatal("Failed to schedule outbox dispatch job")
	}

	c.Start()

	co := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.CORSOrigin},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
	if err := http.ListenAndServe(":"+cfg.AppPort, co.Handler(router)); err != nil {
		utils.Logger.Fatal("Failed to start server:", err)
	}
}
