package main

import (
	"context"
	"log"
	"os"

	"cloud.google.com/go/firestore"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"google.golang.org/api/option"

	fbapp "firebase.google.com/go/v4"

	"joblink/internal/adapter/api"
	"joblink/internal/adapter/api/handler"
	apimiddleware "joblink/internal/adapter/api/middleware"
	"joblink/internal/adapter/api/router"
	"joblink/internal/adapter/repository"
	"joblink/internal/infrastructure/firebase"
	"joblink/internal/infrastructure/storage"
	"joblink/internal/infrastructure/websocket"
	"joblink/internal/usecase"
	"joblink/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	ctx := context.Background()

	var opt option.ClientOption
	credentialsPath := ""

	// Service account from env var in production, file path locally.
	if serviceAccountJSON := os.Getenv("FIREBASE_SERVICE_ACCOUNT_JSON"); serviceAccountJSON != "" {
		opt = option.WithCredentialsJSON([]byte(serviceAccountJSON))
	} else {
		credentialsPath = os.Getenv("FIREBASE_SERVICE_ACCOUNT_PATH")
		if credentialsPath == "" {
			log.Fatalf("FIREBASE_SERVICE_ACCOUNT_JSON or FIREBASE_SERVICE_ACCOUNT_PATH must be set")
		}
		if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
			log.Fatalf("Service account file does not exist: %s", credentialsPath)
		}
		opt = option.WithCredentialsFile(credentialsPath)
	}

	firebaseApp, err := fbapp.NewApp(ctx, &fbapp.Config{ProjectID: cfg.FirebaseProject}, opt)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase: %v", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Auth: %v", err)
	}

	fcmClient, err := firebaseApp.Messaging(ctx)
	if err != nil {
		log.Fatalf("Failed to initialize Firebase Messaging: %v", err)
	}

	firestoreClient, err := firestore.NewClient(ctx, cfg.FirebaseProject, opt)
	if err != nil {
		log.Fatalf("Failed to create Firestore client: %v", err)
	}
	defer firestoreClient.Close()

	storageClient, err := storage.NewCloudStorageClient(ctx, cfg.StorageBucket, credentialsPath)
	if err != nil {
		log.Fatalf("Failed to initialize Cloud Storage: %v", err)
	}
	defer storageClient.Close()

	userRepo := repository.NewFirestoreUserRepository(firestoreClient)
	chatRepo := repository.NewFirestoreChatRepository(firestoreClient)

	wsManager := websocket.NewManager(cfg, userRepo, storageClient)
	wsManager.Start(ctx)
	go wsManager.Uploads().Run(ctx)

	pushClient := firebase.NewMessagingClient(fcmClient)

	chatUseCase := usecase.NewChatUseCase(chatRepo, userRepo, wsManager, pushClient)
	wsManager.BindChat(chatUseCase)

	e := echo.New()

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	e.Validator = api.NewValidator()

	authMiddleware := apimiddleware.NewAuthMiddleware(authClient)
	adminMiddleware := apimiddleware.NewAdminMiddleware(userRepo)

	chatHandler := handler.NewChatHandler(chatUseCase)
	adminHandler := handler.NewAdminHandler(chatUseCase)
	wsHandler := handler.NewWebSocketHandler(wsManager, authMiddleware)
	healthHandler := handler.NewHealthHandler(firestoreClient)

	router.Setup(e, authMiddleware, adminMiddleware, chatHandler, adminHandler, wsHandler, healthHandler)

	log.Printf("Starting server on port %s...", cfg.ServerPort)
	e.Logger.Fatal(e.Start(":" + cfg.ServerPort))
}
