package api

import (
	"fmt"
	"log"
	"net/http"

	"github.com/spf13/viper"

	"github.com/chainmark-io/chainmark/internal/wallet"
)

// API exposes the send orchestrator and message history over HTTP.
type API struct {
	Service *wallet.Service
}

func NewAPI(service *wallet.Service) *API {
	return &API{Service: service}
}

// StartServer blocks serving the API on the configured port.
func (a *API) StartServer() error {
	mux := http.NewServeMux()
	mux.HandleFunc("/send", a.protected(a.handleSend))
	mux.HandleFunc("/balance", a.protected(a.handleBalance))
	mux.HandleFunc("/status", a.protected(a.handleStatus))
	mux.HandleFunc("/messages", a.protected(a.handleMessages))

	addr := fmt.Sprintf("127.0.0.1:%d", viper.GetInt("api_port"))
	log.Printf("API server listening on %s", addr)
	return http.ListenAndServe(addr, mux)
}

func (a *API) protected(handler http.HandlerFunc) http.HandlerFunc {
	return LoggingMiddleware(JSONContentTypeMiddleware(AuthMiddleware(handler)))
}
