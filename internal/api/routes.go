package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func NewRouter(h *Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(h.log))
	r.Use(middleware.Recoverer)

	origins := h.opts.CORSAllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders: []string{"X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", h.Healthz)
	r.Get("/readyz", h.Readyz)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/catalog", h.Catalog)
		r.Post("/projects", h.CreateProject)
		r.Route("/projects/{projectId}", func(r chi.Router) {
			r.Use(requireProjectID)
			r.Get("/", func(w http.ResponseWriter, r *http.Request) {
				h.GetProject(w, r, chi.URLParam(r, "projectId"))
			})
			r.Patch("/", func(w http.ResponseWriter, r *http.Request) {
				h.RenameProject(w, r, chi.URLParam(r, "projectId"))
			})
			r.Post("/documents", func(w http.ResponseWriter, r *http.Request) {
				h.UploadDocument(w, r, chi.URLParam(r, "projectId"))
			})
			r.Get("/documents", func(w http.ResponseWriter, r *http.Request) {
				h.ListDocuments(w, r, chi.URLParam(r, "projectId"))
			})
			r.Delete("/documents/{documentType}", func(w http.ResponseWriter, r *http.Request) {
				h.DeleteDocument(w, r, chi.URLParam(r, "projectId"), chi.URLParam(r, "documentType"))
			})
			r.Post("/status", func(w http.ResponseWriter, r *http.Request) {
				h.ChangeStatus(w, r, chi.URLParam(r, "projectId"))
			})
			r.Post("/reconcile", func(w http.ResponseWriter, r *http.Request) {
				h.Reconcile(w, r, chi.URLParam(r, "projectId"))
			})
			r.Get("/history", func(w http.ResponseWriter, r *http.Request) {
				h.History(w, r, chi.URLParam(r, "projectId"))
			})
		})
	})

	return r
}

func requireProjectID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !validProjectID(chi.URLParam(r, "projectId")) {
			writeBadRequest(w, "invalid project id")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func requestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				logger.Info("http request",
					"method", r.Method,
					"path", r.URL.Path,
					"status", ww.Status(),
					"bytes", ww.BytesWritten(),
					"duration_ms", time.Since(start).Milliseconds(),
					"request_id", middleware.GetReqID(r.Context()),
				)
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
