// Package router defines how HTTP routes are registered for the API.
package router

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/iliyamo/cinema-showtimes/internal/handler"
	"github.com/iliyamo/cinema-showtimes/internal/middleware"
)

// Handlers bundles everything the routes point at.
type Handlers struct {
	Public *handler.PublicHandler
	Admin  *handler.AdminHandler
	Auth   *handler.AuthHandler
	Ready  echo.HandlerFunc
}

// Guards are the middlewares applied per group.  Nil entries are skipped.
type Guards struct {
	Cache     echo.MiddlewareFunc // public response cache
	RateLimit echo.MiddlewareFunc // applied to public and admin groups
	JWTSecret string
}

// RegisterRoutes exposes the probes without any middleware so load
// balancers are never rate limited.
func RegisterRoutes(e *echo.Echo, h Handlers) {
	e.GET("/healthz", handler.Health)
	if h.Ready != nil {
		e.GET("/readyz", h.Ready)
	}
}

// RegisterPublic registers the read-only listing API.  Responses go
// through the Redis cache, which catalog events purge.
func RegisterPublic(e *echo.Echo, h Handlers, g Guards) {
	pub := e.Group("/v1", skipNil(g.RateLimit, g.Cache)...)
	pub.GET("/home", h.Public.Home)
	pub.GET("/showtimes", h.Public.Showtimes)
	pub.GET("/showtimes/:id", h.Public.Showtime)
	pub.GET("/calendar", h.Public.Calendar)
}

// RegisterAdmin registers the login endpoint and the protected
// management API under /v1/admin.
func RegisterAdmin(e *echo.Echo, h Handlers, g Guards) {
	e.POST("/v1/admin/login", h.Auth.Login, skipNil(g.RateLimit)...)

	adm := e.Group("/v1/admin", skipNil(g.RateLimit)...)
	adm.Use(middleware.JWTAuth(g.JWTSecret))
	adm.Use(middleware.RequireRole(middleware.RoleAdmin))
	adm.Use(echomw.BodyLimit("10M"))

	adm.GET("/me", h.Auth.Me)

	adm.GET("/showtimes", h.Admin.List)
	adm.POST("/showtimes", h.Admin.Create)
	adm.DELETE("/showtimes", h.Admin.DeleteAll)
	adm.DELETE("/showtimes/past", h.Admin.DeletePast)
	adm.POST("/showtimes/import", h.Admin.Import)
	adm.POST("/showtimes/import/preview", h.Admin.ImportPreview)

	adm.PUT("/showtimes/:id", h.Admin.Replace)
	adm.PATCH("/showtimes/:id", h.Admin.Patch)
	adm.DELETE("/showtimes/:id", h.Admin.Delete)
	adm.POST("/showtimes/:id/sold-out", h.Admin.ToggleSoldOut)
	adm.PUT("/showtimes/:id/annotation", h.Admin.SetAnnotation)

	adm.GET("/featured", h.Admin.Featured)
	adm.PUT("/featured", h.Admin.PinFeatured)
	adm.DELETE("/featured", h.Admin.ClearFeatured)
}

func skipNil(mws ...echo.MiddlewareFunc) []echo.MiddlewareFunc {
	out := make([]echo.MiddlewareFunc, 0, len(mws))
	for _, m := range mws {
		if m != nil {
			out = append(out, m)
		}
	}
	return out
}
