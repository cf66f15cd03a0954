// Package api serves the OAuth callback: the ledger redirects the user's
// browser here after authorization, and the handler finishes connecting
// the account for the chat named in the signed state token.
package api

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/splitbot/splitbot/internal/auth"
	"github.com/splitbot/splitbot/internal/config"
)

// Notifier tells a chat that its account got connected.
type Notifier interface {
	SendText(chatID, text string) error
}

type API struct {
	router *mux.Router
	auth   *auth.Service
	notify Notifier
	bind   string
}

func New(cfg *config.Config, authService *auth.Service, notifier Notifier) *API {
	api := &API{
		router: mux.NewRouter(),
		auth:   authService,
		notify: notifier,
		bind:   cfg.WebBind,
	}

	api.setupRoutes()
	return api
}

func (a *API) setupRoutes() {
	a.router.HandleFunc("/auth/callback", a.handleCallback).Methods("GET")
	a.router.HandleFunc("/healthz", a.handleHealthz).Methods("GET")
}

func (a *API) Start() error {
	corsOptions := cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
	}

	handler := cors.New(corsOptions).Handler(a.router)

	log.Printf("API server listening on http://%s", a.bind)
	return http.ListenAndServe(a.bind, handler)
}
