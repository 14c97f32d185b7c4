package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/shop-accounts-api/internal/application/account"
	"github.com/shop-accounts-api/internal/application/auth"
	"github.com/shop-accounts-api/internal/application/token"
	"github.com/shop-accounts-api/internal/config"
	"github.com/shop-accounts-api/internal/domain"
	"github.com/shop-accounts-api/internal/pkg/password"
	"github.com/shop-accounts-api/internal/pkg/totp"
	"github.com/shop-accounts-api/internal/transport/http/handler"
	appmiddleware "github.com/shop-accounts-api/internal/transport/http/middleware"
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
		AllowCredentials: true,
		MaxAge:           300,
	}))

	vault := password.NewVault(cfg.BcryptCost)
	otpEngine := totp.NewEngine(cfg.AppName)

	tokenSvc := token.NewService(deps.RefreshRepo, deps.UserRepo, deps.JWTProvider)
	authSvc := auth.NewService(auth.ServiceDeps{
		Users:     deps.UserRepo,
		State:     deps.AuthState,
		Tokens:    tokenSvc,
		Mailer:    deps.Mailer,
		Vault:     vault,
		OTP:       otpEngine,
		Google:    deps.Google,
		Facebook:  deps.Facebook,
		AppName:   cfg.AppName,
		ClientURL: cfg.ClientURL,
		Logger:    deps.Logger,
	})
	accountSvc := account.NewService(account.ServiceDeps{
		Users:     deps.UserRepo,
		State:     deps.AuthState,
		Tokens:    tokenSvc,
		Mailer:    deps.Mailer,
		SMS:       deps.SMSSender,
		Vault:     vault,
		TOTP:      otpEngine,
		Avatars:   deps.AvatarStore,
		AppName:   cfg.AppName,
		ClientURL: cfg.ClientURL,
		Logger:    deps.Logger,
	})

	cookies := handler.CookieConfig{
		Secure:     cfg.AppEnv == "production",
		AccessTTL:  cfg.AccessTokenTTL,
		RefreshTTL: cfg.RefreshTokenTTL,
	}

	healthH := handler.NewHealthHandler()
	authH := handler.NewAuthHandler(authSvc, cookies)
	userH := handler.NewUserHandler(accountSvc, cookies)
	addressH := handler.NewAddressHandler(accountSvc)
	avatarH := handler.NewAvatarHandler(accountSvc)
	twoFactorH := handler.NewTwoFactorHandler(accountSvc)

	authMw := appmiddleware.Auth(tokenSvc)

	// 5 requests/second, burst of 10 — applied to sensitive public endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health", healthH.Ping)

		r.Route("/auth", func(r chi.Router) {
			r.With(sensitiveRL.Limit).Post("/register", authH.Register)
			r.With(sensitiveRL.Limit).Post("/verify-email", authH.VerifyEmail)
			r.With(sensitiveRL.Limit).Post("/resend-verification", authH.ResendVerification)
			r.With(sensitiveRL.Limit).Post("/login", authH.Login)
			r.With(sensitiveRL.Limit).Post("/login/2fa", authH.Verify2FA)
			r.With(sensitiveRL.Limit).Post("/forgot-password", authH.ForgotPassword)
			r.With(sensitiveRL.Limit).Post("/reset-password", authH.ResetPassword)
			r.With(sensitiveRL.Limit).Post("/google", authH.GoogleLogin)
			r.With(sensitiveRL.Limit).Post("/facebook", authH.FacebookLogin)
			r.Post("/refresh", authH.Refresh)
			r.Post("/logout", authH.Logout)
		})

		r.With(sensitiveRL.Limit).Post("/users/restore", userH.RestoreAccount)

		r.Group(func(r chi.Router) {
			r.Use(authMw)

			r.Route("/users/me", func(r chi.Router) {
				r.Get("/", userH.Me)
				r.Put("/", userH.UpdateMe)
				r.Post("/change-password", userH.ChangePassword)
				r.Delete("/", userH.DeleteAccount)

				r.Post("/avatar", avatarH.Upload)
				r.Delete("/avatar", avatarH.Delete)

				r.Get("/addresses", addressH.List)
				r.Post("/addresses", addressH.Add)
				r.Put("/addresses/{id}", addressH.Update)
				r.Delete("/addresses/{id}", addressH.Remove)

				r.Post("/2fa", twoFactorH.Enable)
				r.Post("/2fa/confirm", twoFactorH.Confirm)
				r.Post("/2fa/disable", twoFactorH.Disable)
			})

			// Admin-only routes
			r.Group(func(r chi.Router) {
				r.Use(appmiddleware.RequireRole(domain.RoleAdmin))
				r.Get("/users", userH.List)
			})
		})
	})

	return r
}
