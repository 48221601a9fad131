package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/growwelltax/intake-api/internal/application/auth"
	"github.com/growwelltax/intake-api/internal/application/document"
	"github.com/growwelltax/intake-api/internal/application/identity"
	"github.com/growwelltax/intake-api/internal/application/otp"
	"github.com/growwelltax/intake-api/internal/application/permission"
	"github.com/growwelltax/intake-api/internal/application/taxreturn"
	"github.com/growwelltax/intake-api/internal/config"
	"github.com/growwelltax/intake-api/internal/transport/http/handler"
	appmiddleware "github.com/growwelltax/intake-api/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the application router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	userAuth := appmiddleware.Auth(deps.JWTProvider)
	adminAuth := appmiddleware.AdminAuth(deps.JWTProvider)

	// 5 requests per 15 minutes, applied to the OTP and login endpoints.
	otpRL := appmiddleware.NewRateLimiter(rate.Every(3*time.Minute), 5)

	otpSvc := otp.NewService(deps.ChallengeRepo, deps.Mailer, deps.SMSSender)
	identitySvc := identity.NewService(deps.UserRepo)
	authSvc := auth.NewService(otpSvc, identitySvc, deps.UserRepo, deps.AdminRepo, deps.JWTProvider)
	documentSvc := document.NewService(deps.DocumentRepo, deps.S3Store, deps.Logger)
	returnSvc := taxreturn.NewService(deps.ReturnRepo, deps.S3Store, deps.Sealer, deps.Logger)

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc)
	adminAuthH := handler.NewAdminAuthHandler(authSvc)
	documentH := handler.NewDocumentHandler(documentSvc)
	returnH := handler.NewReturnHandler(returnSvc)

	// ── Public routes ────────────────────────────────────────────────────
	r.Get("/health", healthH.Check)
	r.With(otpRL.Limit).Post("/auth/send-otp/{channel}", authH.SendOTP)
	r.With(otpRL.Limit).Post("/auth/verify-otp", authH.VerifyOTP)
	r.Post("/auth/refresh-token", authH.Refresh)
	r.With(otpRL.Limit).Post("/admin/auth/login", adminAuthH.Login)
	r.Post("/admin/auth/refresh", adminAuthH.Refresh)

	// ── End-user routes ──────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(userAuth)

		r.Get("/auth/me", authH.Me)
		r.Put("/profile", authH.UpdateProfile)
		r.Post("/upload/document", documentH.Upload)
		r.Get("/documents", documentH.List)
		r.Delete("/documents/{id}", documentH.Delete)
	})

	// ── Admin routes ─────────────────────────────────────────────────────
	r.Group(func(r chi.Router) {
		r.Use(adminAuth)

		r.With(appmiddleware.RequireCapability(permission.CapViewApplications)).
			Get("/admin/files/*", documentH.AdminServe)
		r.With(appmiddleware.RequireCapability(permission.CapDeleteApplications)).
			Delete("/admin/files", documentH.AdminDelete)
		r.With(appmiddleware.RequireCapability(permission.CapEditApplications)).
			Post("/admin/files/make-public", documentH.AdminMakePublic)
		r.With(appmiddleware.RequireCapability(permission.CapViewApplications)).
			Get("/admin/applications/{applicationId}/documents/download-all", documentH.AdminDownloadAll)

		r.With(appmiddleware.RequireCapability(permission.CapEditApplications)).
			Post("/admin/upload/return", returnH.Upload)
		r.With(appmiddleware.RequireCapability(permission.CapViewApplications)).
			Get("/admin/returns/{applicationId}", returnH.List)
		r.With(appmiddleware.RequireCapability(permission.CapViewApplications)).
			Get("/admin/returns/{applicationId}/{returnType}/view", returnH.View)
	})

	return r
}
