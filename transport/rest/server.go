package rest

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// NewRouter routes the health endpoints and hands /ws to the websocket gateway.
func NewRouter(ws http.Handler) *mux.Router {
	router := mux.NewRouter()

	router.HandleFunc("/", HealthHandler).Methods(http.MethodGet)
	router.HandleFunc("/ping", PingHandler).Methods(http.MethodGet)
	router.Handle("/ws", ws).Methods(http.MethodGet)

	return router
}

func NewServer(port string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  30 * time.Second,
	}
}
