package webserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"github.com/sirupsen/logrus"

	"github.com/breachmon/breachmon/internal/breachmon"
	"github.com/breachmon/breachmon/internal/database"
	"github.com/breachmon/breachmon/internal/database/models"
)

// WebServer holds the data needed for handling HTTP requests.
type WebServer struct {
	Monitor *breachmon.Monitor
	config  *WebserverConfig
	Logger  *logrus.Logger
}

// NewWebServer initializes a new WebServer.
func NewWebServer(monitor *breachmon.Monitor, config *WebserverConfig, logger *logrus.Logger) *WebServer {
	return &WebServer{
		Monitor: monitor,
		config:  config,
		Logger:  logger,
	}
}

// StartWebServer starts the HTTP server.
func StartWebServer(ctx context.Context, ws *WebServer) (*http.Server, error) {
	router := ws.InitRouter()

	corsOptions := cors.Options{
		AllowedOrigins:   ws.config.CorsAllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Content-Type", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		Debug:            false,
	}

	handler := cors.New(corsOptions).Handler(router)

	server := &http.Server{
		Addr:    ws.config.ListenTo,
		Handler: handler,
	}

	go func() {
		ws.Logger.Infof("Server starting on %s", ws.config.ListenTo)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			ws.Logger.Errorf("ListenAndServe(): %v", err)
		}
	}()

	return server, nil
}

// InitRouter initializes the HTTP routes.
func (ws *WebServer) InitRouter() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	if ws.config.AuthEnabled() {
		api.Use(ws.AuthMiddleware)
	}

	api.HandleFunc("/stats", ws.handleGetStats).Methods(http.MethodGet)
	api.HandleFunc("/accounts", ws.handleGetAccounts).Methods(http.MethodGet)
	api.HandleFunc("/accounts/{account}", ws.handleGetAccountDetail).Methods(http.MethodGet)
	api.HandleFunc("/accounts", ws.handleAddAccount).Methods(http.MethodPut)
	api.HandleFunc("/accounts/{account}", ws.handleDeleteAccount).Methods(http.MethodDelete)

	return r
}

// handleGetAccounts handles the GET /api/accounts endpoint.
func (ws *WebServer) handleGetAccounts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	query := r.URL.Query()
	page, err := strconv.Atoi(query.Get("page"))
	if err != nil || page < 1 {
		page = 1
	}
	perPage, err := strconv.Atoi(query.Get("per_page"))
	if err != nil || perPage < 1 {
		perPage = 50
	}

	breachedParam := strings.ToLower(query.Get("breached"))
	var filterBreached *bool
	if breachedParam == "true" {
		value := true
		filterBreached = &value
	} else if breachedParam == "false" {
		value := false
		filterBreached = &value
	}

	accounts, total, err := ws.Monitor.LoadAccountsPaginated(ctx, page, perPage, filterBreached)
	if err != nil {
		ws.Logger.WithError(err).Error("Failed to load paginated accounts")
		WriteErrorResponse(w, "Failed to retrieve accounts", http.StatusInternalServerError)
		return
	}

	totalPages := (total + perPage - 1) / perPage

	response := models.AccountsResponse{
		Accounts:   accounts,
		Page:       page,
		PerPage:    perPage,
		Total:      total,
		TotalPages: totalPages,
	}

	WriteSuccessResponse(w, "Accounts retrieved successfully", response)
}

// handleGetAccountDetail handles the GET /api/accounts/{account} endpoint.
func (ws *WebServer) handleGetAccountDetail(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	account := vars["account"]

	status, err := ws.Monitor.GetAccountStatus(ctx, account)
	if err != nil {
		if errors.Is(err, database.ErrAccountNotFound) {
			WriteErrorResponse(w, "Account not found", http.StatusNotFound)
			return
		}
		ws.Logger.Errorf("Failed to get account status for %s: %v", account, err)
		WriteErrorResponse(w, "Failed to retrieve account", http.StatusInternalServerError)
		return
	}

	response := models.AccountDetailResponse{
		Account: status,
	}

	WriteSuccessResponse(w, "Account detail retrieved successfully", response)
}

// handleAddAccount handles the PUT /api/accounts endpoint.
func (ws *WebServer) handleAddAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var newAccount models.AccountRecord

	err := json.NewDecoder(r.Body).Decode(&newAccount)
	if err != nil {
		ws.Logger.Errorf("Invalid JSON payload: %v", err)
		WriteErrorResponse(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	if err := newAccount.Validate(); err != nil {
		ws.Logger.WithError(err).Warn("Rejected account record")
		WriteErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	err = ws.Monitor.AddAccount(ctx, newAccount)
	if err != nil {
		ws.Logger.Errorf("Failed to add account: %v", err)
		WriteErrorResponse(w, "Failed to add account", http.StatusInternalServerError)
		return
	}

	WriteSuccessResponse(w, "Account added successfully", newAccount)
}

// handleDeleteAccount handles the DELETE /api/accounts/{account} endpoint.
func (ws *WebServer) handleDeleteAccount(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	vars := mux.Vars(r)
	account, exists := vars["account"]
	if !exists || account == "" {
		ws.Logger.Warn("Account parameter is required")
		WriteErrorResponse(w, "Account parameter is required", http.StatusBadRequest)
		return
	}

	err := ws.Monitor.Config.Database.DeleteAccount(ctx, account)
	if err != nil {
		ws.Logger.Errorf("Failed to delete account %s: %v", account, err)
		WriteErrorResponse(w, "Failed to delete account", http.StatusInternalServerError)
		return
	}

	WriteSuccessResponse(w, "Account deleted successfully", nil)
}

// handleGetStats handles the GET /api/stats endpoint.
func (ws *WebServer) handleGetStats(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	stats, err := ws.Monitor.GetStats(ctx)
	if err != nil {
		ws.Logger.WithError(err).Error("Failed to retrieve stats")
		WriteErrorResponse(w, "Failed to retrieve statistics", http.StatusInternalServerError)
		return
	}

	WriteSuccessResponse(w, "Statistics retrieved successfully", stats)
}
