// Package server exposes sites, their trees and section lines, and the
// computed influence surface over HTTP.
package server

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/RyanHill92/rootzone/internal/site"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// Server routes requests to the site store and the influence model.
type Server struct {
	store    site.Store
	model    *site.Model
	defaults site.Params
	log      *zap.Logger
}

// New returns a server. New sites start from defaults.
func New(store site.Store, model *site.Model, defaults site.Params, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	return &Server{store: store, model: model, defaults: defaults, log: log}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	router := mux.NewRouter()
	router.Use(s.logRequests)

	router.HandleFunc("/", s.ReportHealth).Methods("GET")
	router.HandleFunc("/species", s.ListSpecies).Methods("GET")

	router.HandleFunc("/sites", s.ListSites).Methods("GET")
	router.HandleFunc("/sites", s.CreateSite).Methods("POST")
	router.HandleFunc("/sites/{siteID}", s.GetSite).Methods("GET")
	router.HandleFunc("/sites/{siteID}", s.DeleteSite).Methods("DELETE")
	router.HandleFunc("/sites/{siteID}/params", s.UpdateParams).Methods("PUT")

	router.HandleFunc("/sites/{siteID}/trees", s.ListTrees).Methods("GET")
	router.HandleFunc("/sites/{siteID}/trees", s.AddTree).Methods("POST")
	router.HandleFunc("/sites/{siteID}/trees/{treeID}", s.RemoveTree).Methods("DELETE")

	router.HandleFunc("/sites/{siteID}/sections", s.ListSections).Methods("GET")
	router.HandleFunc("/sites/{siteID}/sections", s.AddSection).Methods("POST")
	router.HandleFunc("/sites/{siteID}/sections/{sectionID}", s.RemoveSection).Methods("DELETE")
	router.HandleFunc("/sites/{siteID}/clicks", s.AddClick).Methods("POST")

	router.HandleFunc("/sites/{siteID}/surface", s.GetSurface).Methods("GET")
	router.HandleFunc("/sites/{siteID}/surface.asc", s.GetSurfaceASCII).Methods("GET")
	router.HandleFunc("/sites/{siteID}/profiles", s.GetProfiles).Methods("GET")

	return router
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		req.Body = http.MaxBytesReader(w, req.Body, maxBodyBytes)
		next.ServeHTTP(rec, req)
		s.log.Debug("request",
			zap.String("method", req.Method),
			zap.String("path", req.URL.Path),
			zap.Int("status", rec.status),
			zap.Duration("took", time.Since(start)))
	})
}
