package handler

import (
	"maintenance-service/internal/auth"

	"github.com/labstack/echo/v4"
)

const (
	roleAdmin   = "admin"
	roleManager = "manager"
)

// Handlers groups everything the router mounts
type Handlers struct {
	Health        *HealthHandler
	Auth          *AuthHandler
	Users         *UserHandler
	Companies     *CompanyHandler
	Accounts      *AccountHandler
	Subscriptions *SubscriptionHandler
}

// RouteOptions toggles strategy-specific endpoints
type RouteOptions struct {
	// LocalAuth mounts login, register, refresh and change-password
	LocalAuth bool
	// LoginLimiter guards the login endpoint, may be nil
	LoginLimiter echo.MiddlewareFunc
}

// RegisterRoutes mounts every endpoint with its authorization guard
func RegisterRoutes(e *echo.Echo, pipeline *auth.Pipeline, h Handlers, opts RouteOptions) {
	guard := pipeline.Guard

	e.GET("/health", h.Health.HealthCheck, guard(auth.Public()))

	authGroup := e.Group("/auth")
	authGroup.POST("/verify-token", h.Auth.VerifyToken, guard(auth.Public()))
	authGroup.GET("/profile", h.Auth.Profile, guard(auth.Authenticated()))
	authGroup.GET("/session", h.Auth.Profile, guard(auth.Authenticated()))
	authGroup.POST("/logout", h.Auth.Logout, guard(auth.Authenticated()))
	authGroup.GET("/quota/:entity", h.Auth.Quota, guard(auth.Authenticated()))
	if opts.LocalAuth {
		login := []echo.MiddlewareFunc{guard(auth.Public())}
		if opts.LoginLimiter != nil {
			login = append(login, opts.LoginLimiter)
		}
		authGroup.POST("/login", h.Auth.Login, login...)
		authGroup.POST("/register", h.Auth.Register, guard(auth.Public()))
		authGroup.POST("/refresh", h.Auth.Refresh, guard(auth.Public()))
		authGroup.POST("/change-password", h.Auth.ChangePassword, guard(auth.Authenticated()))
	} else {
		authGroup.GET("/userinfo", h.Auth.UserInfo, guard(auth.Authenticated()))
	}

	api := e.Group("/api")

	users := api.Group("/users")
	users.GET("", h.Users.List, guard(auth.RequirePermissions("users:read")))
	users.POST("", h.Users.Create, guard(auth.RequirePermissions("users:create")))
	users.GET("/deleted", h.Users.Deleted, guard(auth.RequireRoles(roleAdmin)))
	users.GET("/:id", h.Users.Get, guard(auth.RequirePermissions("users:read")))
	users.PATCH("/:id", h.Users.Update, guard(auth.RequirePermissions("users:update")))
	users.PATCH("/:id/verify-email", h.Users.VerifyEmail, guard(auth.RequirePermissions("users:update")))
	users.DELETE("/:id", h.Users.Delete, guard(auth.RequireRoles(roleAdmin).WithPermissions("users:delete")))
	users.POST("/:id/restore", h.Users.Restore, guard(auth.RequireRoles(roleAdmin)))

	read := auth.RequireRoles(roleAdmin, roleManager)
	write := auth.RequireRoles(roleAdmin)

	companies := api.Group("/companies")
	companies.GET("", h.Companies.List, guard(read))
	companies.POST("", h.Companies.Create, guard(write))
	companies.GET("/deleted", h.Companies.Deleted, guard(write))
	companies.GET("/:id", h.Companies.Get, guard(read))
	companies.PATCH("/:id", h.Companies.Update, guard(write))
	companies.PATCH("/:id/branding", h.Companies.UpdateBranding, guard(write))
	companies.PATCH("/:id/settings", h.Companies.UpdateSettings, guard(write))
	companies.DELETE("/:id", h.Companies.Delete, guard(write))
	companies.POST("/:id/restore", h.Companies.Restore, guard(write))

	accounts := api.Group("/accounts")
	accounts.GET("", h.Accounts.List, guard(write))
	accounts.POST("", h.Accounts.Create, guard(write))
	accounts.GET("/deleted", h.Accounts.Deleted, guard(write))
	accounts.GET("/current", h.Accounts.Current, guard(read))
	accounts.GET("/:id", h.Accounts.Get, guard(write))
	accounts.PATCH("/:id", h.Accounts.Update, guard(write))
	accounts.DELETE("/:id", h.Accounts.Delete, guard(write))
	accounts.POST("/:id/restore", h.Accounts.Restore, guard(write))

	subscriptions := api.Group("/subscriptions")
	subscriptions.GET("", h.Subscriptions.List, guard(read))
	subscriptions.POST("", h.Subscriptions.Create, guard(write))
	subscriptions.GET("/deleted", h.Subscriptions.Deleted, guard(write))
	subscriptions.GET("/:id", h.Subscriptions.Get, guard(read))
	subscriptions.PATCH("/:id", h.Subscriptions.Update, guard(write))
	subscriptions.DELETE("/:id", h.Subscriptions.Delete, guard(write))
	subscriptions.POST("/:id/restore", h.Subscriptions.Restore, guard(write))
}
