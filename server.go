package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// ServerConfig holds configuration for the web server
type ServerConfig struct {
	Port     int
	DB       *DB
	AISafety *AISafetyService
	DataDir  string
}

func newRouter(config ServerConfig) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	// Web handlers (HTML responses)
	webHandler := NewWebHandler(config.DB, config.AISafety)
	r.Get("/", webHandler.SearchPage)
	r.Post("/search", webHandler.SearchResults)
	r.Get("/chemicals/{cas}", webHandler.ChemicalDetail)
	r.Post("/chemicals/{cas}/summary", webHandler.GenerateSummary)

	// API handlers (JSON responses)
	apiHandler := &APIHandler{DB: config.DB, AISafety: config.AISafety}
	r.Route("/api", func(r chi.Router) {
		r.Get("/search", apiHandler.Search)
		r.Get("/chemicals", apiHandler.ListChemicals)
		r.Get("/chemicals/{cas}", apiHandler.GetChemical)
		r.Post("/chemicals/{cas}/summary", apiHandler.GenerateSummary)
		r.Get("/count", apiHandler.Count)
	})

	return r
}

// StartServer initializes and starts the HTTP server
func StartServer(config ServerConfig) error {
	addr := fmt.Sprintf(":%d", config.Port)
	log.Printf("Starting server on http://localhost%s", addr)
	return http.ListenAndServe(addr, newRouter(config))
}
