package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/tcge/card-intel/backend/internal/api"
	"github.com/tcge/card-intel/backend/internal/database"
	"github.com/tcge/card-intel/backend/internal/knowledge"
	"github.com/tcge/card-intel/backend/internal/services"
)

func main() {
	// Database path
	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./card_intel.db"
	}

	// Initialize database
	if err := database.Initialize(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Load the game knowledge base. Malformed static data is a deploy
	// error, not something to limp past.
	registry, err := knowledge.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to load game knowledge base: %v", err)
	}
	log.Printf("Loaded %d game profiles", len(registry.Profiles()))

	// OCR language defaults to Japanese + English, matching the catalogs
	ocrLanguage := os.Getenv("TESSERACT_LANG")
	if ocrLanguage == "" {
		ocrLanguage = "jpn+eng"
	}

	// Recognition pipeline
	textExtractor := services.NewTextSignalExtractor(registry, ocrLanguage)
	classifier := services.NewGameClassifier(registry)
	priceService := services.NewPriceService(database.GetDB())
	retrieval := services.NewRetrievalEngine(database.GetDB(), registry, priceService, services.DefaultRetrievalConfig())
	recognizer := services.NewRecognizer(registry, textExtractor, classifier, retrieval)

	// Remote similarity service (optional alternate path)
	remote := services.NewRemoteClassifierService(os.Getenv("CLOUD_AI_URL"))
	if remote.Enabled() {
		log.Println("Remote recognition service configured")
	} else {
		log.Println("Remote recognition service not configured, cloud path disabled")
	}

	router := api.SetupRouter(recognizer, remote, retrieval, priceService)

	// Get port from environment
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	srv := &http.Server{
		Addr:    ":" + port,
		Handler: router,
	}

	go func() {
		log.Printf("Starting server on port %s", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	// Give outstanding requests a deadline to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
