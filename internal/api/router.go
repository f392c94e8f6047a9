package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/httprate"
	"github.com/google/uuid"

	"vidstream/internal/auth"
	"vidstream/internal/blob"
	"vidstream/internal/catalog"
	"vidstream/internal/config"
	"vidstream/internal/db"
	"vidstream/internal/mediaurl"
	"vidstream/internal/session"
)

type Server struct {
	router *chi.Mux
	config *config.Config
}

func NewServer(
	cfg *config.Config,
	database *db.DB,
	blobStore *blob.Service,
	userRepo *db.UserRepository,
	videoRepo *db.VideoRepository,
	commentRepo *db.CommentRepository,
	blobRepo *db.BlobRepository,
) (*Server, error) {
	tokenService := auth.NewTokenService(
		cfg.Auth.AccessTokenSecret,
		cfg.Auth.RefreshTokenSecret,
		cfg.Auth.AccessTokenTTL,
		cfg.Auth.RefreshTokenTTL,
	)

	sessionService := session.NewService(userRepo, tokenService, blobStore, blobRepo, cfg.Server.BaseURL)
	catalogService := catalog.NewService(videoRepo, blobStore, blobRepo, cfg.Server.BaseURL)

	cookies := CookieConfig{
		Secure:     !cfg.Auth.InsecureCookies,
		AccessTTL:  cfg.Auth.AccessTokenTTL,
		RefreshTTL: cfg.Auth.RefreshTokenTTL,
	}

	sessionHandler := NewSessionHandler(sessionService, cookies, cfg.Storage.UploadMaxBytes)
	userHandler := NewUserHandler(sessionService, cfg.Storage.UploadMaxBytes)
	videoHandler := NewVideoHandler(catalogService, cfg.Storage.UploadMaxBytes)
	commentHandler := NewCommentHandler(commentRepo, videoRepo)
	mediaHandler := NewMediaHandler(blobRepo, blobStore)
	healthHandler := NewHealthHandler(database)

	authMiddleware := NewAuthMiddleware(tokenService, userRepo)

	registerLimiter := rateLimit(5, time.Minute)
	loginLimiter := rateLimit(10, time.Minute)
	refreshLimiter := rateLimit(30, time.Minute)

	r := chi.NewRouter()
	r.Use(requestIDMiddleware)
	r.Use(slogRequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RealIP)
	r.Use(corsMiddleware)
	r.Use(securityHeadersMiddleware)

	r.Get("/health", healthHandler.Check)
	r.Get(mediaurl.PathPrefix+"{blobID}", mediaHandler.GetBlob)

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/users", func(r chi.Router) {
			r.With(registerLimiter).Post("/register", sessionHandler.Register)

			// JSON endpoints get a small body cap; uploads enforce
			// their own limit while parsing the multipart form.
			r.Group(func(r chi.Router) {
				r.Use(maxBodySizeMiddleware(1 << 20)) // 1 MB
				r.With(loginLimiter).Post("/login", sessionHandler.Login)
				r.With(refreshLimiter).Post("/refresh-token", sessionHandler.Refresh)

				r.Group(func(r chi.Router) {
					r.Use(authMiddleware.RequireAuth)
					r.Post("/logout", sessionHandler.Logout)
					r.Post("/change-password", sessionHandler.ChangePassword)
					r.Get("/current-user", sessionHandler.CurrentUser)
					r.Patch("/update-account", userHandler.UpdateAccount)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(authMiddleware.RequireAuth)
				r.Patch("/avatar", userHandler.UpdateAvatar)
				r.Patch("/cover-image", userHandler.UpdateCoverImage)
			})
		})

		r.Route("/videos", func(r chi.Router) {
			r.With(authMiddleware.RequireAuth).Post("/", videoHandler.Publish)

			// Reads are public; an attached user only matters for
			// owners viewing their own unpublished videos.
			r.Group(func(r chi.Router) {
				r.Use(maxBodySizeMiddleware(1 << 20))
				r.Use(authMiddleware.OptionalAuth)
				r.Get("/", videoHandler.List)
				r.Get("/{videoID}", videoHandler.Get)
				r.Get("/{videoID}/comments", commentHandler.ListByVideo)
			})

			r.Group(func(r chi.Router) {
				r.Use(maxBodySizeMiddleware(1 << 20))
				r.Use(authMiddleware.RequireAuth)
				r.Patch("/{videoID}/toggle-publish", videoHandler.TogglePublish)
				r.Post("/{videoID}/comments", commentHandler.Create)
			})
		})

		r.Route("/comments", func(r chi.Router) {
			r.Use(authMiddleware.RequireAuth)
			r.Use(maxBodySizeMiddleware(1 << 20))
			r.Patch("/{commentID}", commentHandler.Update)
			r.Delete("/{commentID}", commentHandler.Delete)
		})
	})

	return &Server{
		router: r,
		config: cfg,
	}, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(requests, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusTooManyRequests, ErrCodeRateLimitExceeded, "Too many requests, slow down")
		}),
	)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Authorization, Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func maxBodySizeMiddleware(maxBytes int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)
		})
	}
}

func securityHeadersMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")
		next.ServeHTTP(w, r)
	})
}

type requestIDKeyType struct{}

var requestIDKey requestIDKeyType

func requestIDMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

func requestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"duration", time.Since(start).String(),
			"remote", r.RemoteAddr,
			"request_id", requestIDFromContext(r.Context()),
		)
	})
}
