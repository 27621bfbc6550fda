package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"

	"teambingo/internal/cache"
	"teambingo/internal/service"
	"teambingo/internal/transport/rest/handler"
	"teambingo/internal/transport/rest/middleware"
	"teambingo/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	SessionService *service.SessionService
	GameService    *service.GameService
	ReportService  *service.ReportService
	Leaderboard    cache.LeaderboardCache
	StateCache     cache.GameStateCache
	WSHub          *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	sessionHandler := handler.NewSessionHandler(c.SessionService)
	gameHandler := handler.NewGameHandler(c.GameService, c.Leaderboard)
	reportHandler := handler.NewReportHandler(c.ReportService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.StateCache)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/join/{accessCode}", sessionHandler.Join).Methods("POST", "OPTIONS")

	// WebSocket routes (public with token in query param)
	v1.HandleFunc("/ws/sessions/{sessionId}/admin", wsHandler.AdminWS).Methods("GET")
	v1.HandleFunc("/ws/sessions/{sessionId}/team", wsHandler.TeamWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Admin routes (require admin auth)
	adminRoutes := v1.NewRoute().Subrouter()
	adminRoutes.Use(authMW.RequireAdmin)

	adminRoutes.HandleFunc("/sessions", sessionHandler.Create).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/sessions", sessionHandler.List).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}", sessionHandler.Get).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}", sessionHandler.Delete).Methods("DELETE", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}/teams", sessionHandler.ResizeTeams).Methods("PUT", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}/teams/{teamId}", sessionHandler.RenameTeam).Methods("PUT", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}/cards", sessionHandler.ImportCards).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}/cards/pack", sessionHandler.ImportPack).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}/cards/replace", sessionHandler.ReplaceCard).Methods("POST", "OPTIONS")

	adminRoutes.HandleFunc("/sessions/{sessionId}/game/start", gameHandler.Start).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}/game/evaluate", gameHandler.TriggerEvaluation).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}/game/next-round", gameHandler.AdvanceRound).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}/game/pause", gameHandler.Pause).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}/game/resume", gameHandler.Resume).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}/game/end", gameHandler.End).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}/game/state", gameHandler.State).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}/game/rankings", gameHandler.Rankings).Methods("GET", "OPTIONS")
	adminRoutes.HandleFunc("/sessions/{sessionId}/game/leaderboard", gameHandler.Leaderboard).Methods("GET", "OPTIONS")

	// Report routes (admin only)
	adminRoutes.HandleFunc("/reports/{sessionId}", reportHandler.Generate).Methods("POST", "OPTIONS")
	adminRoutes.HandleFunc("/reports/{sessionId}", reportHandler.Get).Methods("GET", "OPTIONS")

	// Team routes (require team auth)
	teamRoutes := v1.NewRoute().Subrouter()
	teamRoutes.Use(authMW.RequireTeam)

	teamRoutes.HandleFunc("/play/{sessionId}/state", gameHandler.State).Methods("GET", "OPTIONS")
	teamRoutes.HandleFunc("/play/{sessionId}/select-cell", gameHandler.SelectCell).Methods("POST", "OPTIONS")
	teamRoutes.HandleFunc("/play/{sessionId}/answers", gameHandler.SubmitAnswer).Methods("POST", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
