package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Digital231/lastDance/internal/auth"
	"github.com/Digital231/lastDance/internal/config"
	"github.com/Digital231/lastDance/internal/database"
	"github.com/Digital231/lastDance/internal/handlers"
	"github.com/Digital231/lastDance/internal/presence"
	"github.com/Digital231/lastDance/internal/relay"
	"github.com/Digital231/lastDance/internal/services"
	"github.com/Digital231/lastDance/pkg/logger"

	"github.com/gorilla/mux"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.NewPostgresDB(cfg.Database.URL)
	if err != nil {
		logger.Fatal("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Initialize Redis-backed presence
	redisClient, err := presence.NewClient(cfg.Redis)
	if err != nil {
		logger.Fatal("Failed to connect to Redis: %v", err)
	}
	defer redisClient.Close()
	tracker := presence.NewTracker(redisClient, cfg.Chat.PresenceTTL)

	// Initialize services
	authService := auth.NewService(db, cfg)
	userService := services.NewUserService(db, cfg)
	chatService := services.NewChatService(db)
	conversationService := services.NewConversationService(db)
	notificationService := services.NewNotificationService(db)

	// Initialize relay hub
	hub := relay.NewHub()
	go hub.Run()

	relayDeps := relay.Deps{
		Chat:          chatService,
		Conversations: conversationService,
		Notifications: notificationService,
		Presence:      tracker,
	}

	// Initialize handlers
	middleware := handlers.NewMiddleware(authService)
	authHandlers := handlers.NewAuthHandlers(authService, hub)
	userHandlers := handlers.NewUserHandlers(userService, tracker)
	chatHandlers := handlers.NewChatHandlers(chatService)
	conversationHandlers := handlers.NewConversationHandlers(conversationService)
	notificationHandlers := handlers.NewNotificationHandlers(notificationService)
	wsHandlers := handlers.NewWebSocketHandlers(authService, hub, relayDeps)

	router := setupRoutes(middleware, authHandlers, userHandlers, chatHandlers, conversationHandlers, notificationHandlers, wsHandlers)

	// Create server
	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      corsMiddleware(router),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	logger.Info("Server started on http://localhost%s", cfg.Server.Port)
	logger.Info("WebSocket endpoint: ws://localhost%s/ws", cfg.Server.Port)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Server shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("Shutdown error: %v", err)
	}
}

func setupRoutes(
	middleware *handlers.Middleware,
	authHandlers *handlers.AuthHandlers,
	userHandlers *handlers.UserHandlers,
	chatHandlers *handlers.ChatHandlers,
	conversationHandlers *handlers.ConversationHandlers,
	notificationHandlers *handlers.NotificationHandlers,
	wsHandlers *handlers.WebSocketHandlers,
) *mux.Router {
	router := mux.NewRouter()

	// Public routes
	router.HandleFunc("/register", authHandlers.Register).Methods(http.MethodPost)
	router.HandleFunc("/login", authHandlers.Login).Methods(http.MethodPost)

	// Real-time channel; authenticates via token query parameter
	router.HandleFunc("/ws", wsHandlers.HandleWebSocket)

	// Protected routes
	api := router.NewRoute().Subrouter()
	api.Use(middleware.RequireAuth)

	api.HandleFunc("/users", userHandlers.ListUsers).Methods(http.MethodGet)
	api.HandleFunc("/users/update", userHandlers.UpdateProfile).Methods(http.MethodPut)
	api.HandleFunc("/users/{userId:[0-9]+}", userHandlers.GetUser).Methods(http.MethodGet)

	api.HandleFunc("/conversations", conversationHandlers.ListConversations).Methods(http.MethodGet)
	api.HandleFunc("/conversations", conversationHandlers.CreateConversation).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{conversationId:[0-9]+}", conversationHandlers.GetConversation).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{conversationId:[0-9]+}", conversationHandlers.DeleteConversation).Methods(http.MethodDelete)
	api.HandleFunc("/conversations/{conversationId:[0-9]+}/messages", conversationHandlers.PostMessage).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{conversationId:[0-9]+}/participants", conversationHandlers.AddParticipant).Methods(http.MethodPost)

	api.HandleFunc("/chat/{messageId:[0-9]+}/like", chatHandlers.LikeMessage).Methods(http.MethodPost)
	api.HandleFunc("/chat/{room}", chatHandlers.GetRoomMessages).Methods(http.MethodGet)

	api.HandleFunc("/notifications", notificationHandlers.ListNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/{notificationId:[0-9]+}/read", notificationHandlers.MarkRead).Methods(http.MethodPut)
	api.HandleFunc("/notifications/{notificationId:[0-9]+}", notificationHandlers.DeleteNotification).Methods(http.MethodDelete)

	return router
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
