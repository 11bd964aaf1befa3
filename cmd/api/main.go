//	@title			easyimg API
//	@version		1.0
//	@description	Self-hosted image hosting with stateless per-client API keys.
//
//	@host		localhost:3000
//	@BasePath	/api
//
//	@securityDefinitions.apikey	APIKeyAuth
//	@in							header
//	@name						X-API-Key
//	@description				Personal API key: **{clientId}.{signature}**
//
//	@securityDefinitions.apikey	AdminAuth
//	@in							header
//	@name						X-Admin-Token
//	@description				Admin session token from /admin/login

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	"github.com/easyimg/service/internal/admin"
	"github.com/easyimg/service/internal/auth"
	"github.com/easyimg/service/internal/capability"
	"github.com/easyimg/service/internal/config"
	"github.com/easyimg/service/internal/images"
	appMiddleware "github.com/easyimg/service/internal/middleware"
	"github.com/easyimg/service/internal/response"
	"github.com/easyimg/service/internal/storage"

	_ "github.com/easyimg/service/docs/swagger"
)

func main() {
	cfg := config.Load()

	var (
		engine storage.Engine
		disk   *storage.Disk
		err    error
	)
	switch cfg.StorageDriver {
	case "s3":
		engine, err = storage.NewMinio(
			cfg.StorageEndpoint,
			cfg.StorageAccessKey,
			cfg.StorageSecretKey,
			cfg.StorageBucket,
			cfg.StoragePublicBase,
			cfg.StorageUseSSL,
		)
		if err != nil {
			log.Fatalf("object storage init failed: %v", err)
		}
	default:
		disk, err = storage.NewDisk(cfg.UploadDir, cfg.PublicBaseURL)
		if err != nil {
			log.Fatalf("upload dir init failed: %v", err)
		}
		engine = disk
		log.Printf("storage: serving uploads from %s", disk.Root())
	}

	caps := capability.NewService(cfg.APIPassword)

	// Wire dependencies: services → handlers
	authHandler := auth.NewHandler(caps)
	imageHandler := images.NewHandler(engine, cfg.MaxUploadFiles, cfg.MaxFileSize)
	adminHandler := admin.NewHandler(engine, cfg.AdminPassword)
	if !adminHandler.Enabled() {
		log.Println("admin: no ADMIN_PASSWORD configured, admin surface disabled")
	}

	// Router
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger)
	r.Use(chiMiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-API-Key", "X-Admin-Token", "X-Request-ID"},
		MaxAge:         300,
	}))

	// Health check
	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		response.OK(w, map[string]string{"status": "ok"})
	})

	// Swagger UI, available at http://localhost:3000/swagger/ outside
	// production.
	if !cfg.IsProduction() {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))
	}

	// Public image files (disk driver only; the s3 driver serves from the
	// bucket's public URL instead).
	if disk != nil {
		r.Handle("/images/*", http.StripPrefix("/images/", noListing(http.FileServer(http.Dir(disk.Root())))))
	}

	// API
	r.Route("/api", func(r chi.Router) {
		r.Post("/auth/api-key", authHandler.IssueAPIKey)

		// Tenant-scoped endpoints behind the API key capability.
		r.Group(func(r chi.Router) {
			r.Use(appMiddleware.RequireAPIKey(caps))
			r.Post("/upload", imageHandler.Upload)
			r.Get("/images", imageHandler.List)
			r.Delete("/images/{filename}", imageHandler.Delete)
		})

		// Admin surface.
		r.Route("/admin", func(r chi.Router) {
			r.Post("/login", adminHandler.Login)
			r.Group(func(r chi.Router) {
				r.Use(appMiddleware.RequireAdmin(adminHandler.Secret()))
				r.Get("/session", adminHandler.Session)
				r.Get("/images", adminHandler.ListImages)
				r.Delete("/images/{clientID}/{filename}", adminHandler.DeleteImage)
			})
		})
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Start server in goroutine; wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		log.Printf("server listening on :%s (env=%s, storage=%s)", cfg.Port, cfg.AppEnv, cfg.StorageDriver)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	<-quit
	log.Println("shutting down gracefully...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}

	log.Println("server stopped")
}

// noListing serves files but refuses directory indexes, so one client can
// never browse another client's namespace through the static route.
func noListing(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "" || strings.HasSuffix(r.URL.Path, "/") {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}
