package handler

import (
	"github.com/Baaaki/role-admin/internal/access"
	"github.com/Baaaki/role-admin/internal/middleware"
	"github.com/Baaaki/role-admin/internal/session"
	"github.com/gin-gonic/gin"
)

// Routes holds everything needed to mount the API. The limiters are optional.
type Routes struct {
	Auth   *AuthHandler
	Users  *UserHandler
	Roles  *RoleHandler
	Orders *OrderHandler
	Audit  *AuditHandler

	Sessions        *session.Manager
	LoginLimiter    *middleware.RateLimiter
	RegisterLimiter *middleware.RateLimiter
}

// Mount registers the /api routes on router. Every route resolves the
// session first; guards run in the order listed.
func (r Routes) Mount(router gin.IRouter) {
	api := router.Group("/api")
	api.Use(middleware.Session(r.Sessions))

	authenticated := middleware.Require(access.Authenticated)
	admin := middleware.Require(access.Authenticated, access.AdminOnly)
	staff := middleware.Require(access.Authenticated, access.StaffOnly)

	auth := api.Group("/auth")
	{
		auth.POST("/login", limit(r.LoginLimiter), r.Auth.Login)
		auth.POST("/register", limit(r.RegisterLimiter), r.Auth.Register)
		auth.POST("/logout", r.Auth.Logout)
		auth.GET("/me", authenticated, r.Auth.Me)
	}

	api.GET("/roles", admin, r.Roles.List)
	api.POST("/roles", admin, r.Roles.Create)

	users := api.Group("/users")
	{
		users.GET("", authenticated, r.Users.List)
		users.POST("", admin, r.Users.Create)
		users.GET("/:id", admin, r.Users.Get)
		users.PUT("/:id", admin, r.Users.Update)
		users.POST("/:id/ban", admin, r.Users.Ban)
		users.POST("/:id/unban", admin, r.Users.Unban)
		users.POST("/:id/vip", admin, r.Users.SetVIP)
		users.DELETE("/:id/vip", admin, r.Users.ClearVIP)
	}

	api.GET("/profile", authenticated, r.Users.GetProfile)
	api.PUT("/profile", authenticated, r.Users.UpdateProfile)

	orders := api.Group("/orders")
	{
		orders.GET("", authenticated, r.Orders.List)
		orders.POST("", authenticated, r.Orders.Create)
		orders.PUT("/:id/status", staff, r.Orders.SetStatus)
	}
	api.GET("/order-statuses", authenticated, r.Orders.ListStatuses)

	api.GET("/audit", admin, r.Audit.List)
}

func limit(rl *middleware.RateLimiter) gin.HandlerFunc {
	if rl == nil {
		return func(c *gin.Context) { c.Next() }
	}
	return rl.Middleware()
}
