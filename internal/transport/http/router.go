package httpserver

import (
	"github.com/labstack/echo/v4"

	"github.com/clipzipship/czs-admin/internal/auth"
	"github.com/clipzipship/czs-admin/internal/handlers"
	"github.com/clipzipship/czs-admin/internal/middleware/csrf"
	"github.com/clipzipship/czs-admin/internal/models"
)

type Deps struct {
	Auth              *auth.Service
	AuthHandler       *handlers.AuthHandler
	CollectionHandler *handlers.CollectionHandler
	UserHandler       *handlers.UserHandler
	MetadataHandler   *handlers.MetadataHandler
	SearchHandler     *handlers.SearchHandler
	WebHandler        *handlers.WebHandler
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(200) })
	e.GET("/health/ready", func(c echo.Context) error { return c.NoContent(200) })

	user := d.Auth.RequireRole(models.RoleLevelUser)
	admin := d.Auth.RequireRole(models.RoleLevelAdmin)

	api := e.Group("/api")

	api.POST("/login", d.AuthHandler.Login)
	api.POST("/refresh", d.AuthHandler.Refresh)
	api.DELETE("/logout", d.AuthHandler.Logout, user)

	api.PUT("/collections", d.CollectionHandler.Create, admin)
	api.PATCH("/collections/:name", d.CollectionHandler.Patch, admin)
	api.DELETE("/collections/:name", d.CollectionHandler.Delete, admin)
	if d.SearchHandler != nil {
		api.GET("/collections/search", d.SearchHandler.Search, admin)
	}

	api.GET("/metadata/:uuid", d.MetadataHandler.Get, admin)

	api.GET("/parents", d.CollectionHandler.GetParents, admin)
	api.PUT("/parents", d.CollectionHandler.AddParent, admin)
	api.DELETE("/parents/:uuid", d.CollectionHandler.DeleteParent, admin)

	api.GET("/extent/:schema/:table/:crs", d.CollectionHandler.GetExtent, admin)

	api.GET("/users", d.UserHandler.List, admin)
	api.POST("/user", d.UserHandler.Create, admin)
	api.PATCH("/users/:username", d.UserHandler.Patch, admin)
	api.DELETE("/user/:username", d.UserHandler.Delete, admin)

	// Cookie-based web UI variant; CSRF applies here only.
	web := e.Group("/web", csrf.Middleware(csrf.Config{SkipPaths: []string{"/web/login"}}))
	web.POST("/login", d.WebHandler.Login)
	web.POST("/logout", d.WebHandler.Logout, d.Auth.RequireRoleWeb(models.RoleLevelUser))
	web.GET("/profile", d.WebHandler.Profile)
	web.GET("/admin/users", d.WebHandler.AdminUsers, d.Auth.RequireRoleWeb(models.RoleLevelAdmin))
}
