package server

import (
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	// Load env file into environments.
	_ "github.com/joho/godotenv/autoload"

	"github.com/strhzy/vacancyhunter/internal/auth"
	"github.com/strhzy/vacancyhunter/internal/database"
	"github.com/strhzy/vacancyhunter/internal/mailer"
	"github.com/strhzy/vacancyhunter/internal/storage"
	"github.com/strhzy/vacancyhunter/internal/telegram"
)

// MyServer bundles the listening port with every dependency the route
// handlers need.
type MyServer struct {
	port int

	DB        *database.Service
	Storage   storage.Client
	Mailer    mailer.Dispatcher
	Telegram  *telegram.Client
	Blacklist auth.JwtBlacklistStore
}

// NewServer construct new Server instance
func NewServer() *http.Server {
	port, _ := strconv.Atoi(os.Getenv("PORT"))
	if port == 0 {
		port = 8080
	}

	db, err := database.GetMainDB()
	if err != nil {
		log.Fatalf("Database failed to initialize: %s", err)
	}

	s := &MyServer{
		port:      port,
		DB:        db,
		Storage:   newStorageClient(),
		Telegram:  telegram.NewClientFromEnv(),
		Blacklist: auth.NewInMemoryBlacklistStore(),
	}

	if m := mailer.NewSMTPMailerFromEnv(); m != nil {
		s.Mailer = m
	} else {
		log.Println("MAIL_HOST is not set, application notifications are disabled")
	}
	if !s.Telegram.Enabled() {
		log.Println("TELEGRAM_BOT_TOKEN is not set, handle verification is disabled")
	}

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.port),
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	return server
}

// newStorageClient picks the resume storage backend: a cloud bucket when
// GCS_BUCKET_NAME is set, a local uploads directory otherwise.
func newStorageClient() storage.Client {
	if bucket := os.Getenv("GCS_BUCKET_NAME"); bucket != "" {
		client, err := storage.NewCloudClient(bucket)
		if err != nil {
			log.Fatalf("Cloud storage failed to initialize: %s", err)
		}
		return client
	}

	client, err := storage.NewDiskClient(os.Getenv("UPLOAD_DIR"))
	if err != nil {
		log.Fatalf("Local storage failed to initialize: %s", err)
	}
	return client
}
