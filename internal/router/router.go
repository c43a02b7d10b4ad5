// Package router wires handlers and middleware onto the Echo instance.
package router

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pekoMaster/ticketticket/internal/handler"
	"github.com/pekoMaster/ticketticket/internal/lifecycle"
	"github.com/pekoMaster/ticketticket/internal/middleware"
)

// RegisterRoutes registers routes that carry no authentication at all:
// the health check and the Prometheus scrape endpoint.
func RegisterRoutes(e *echo.Echo) {
	e.GET("/healthz", handler.Health)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
}

// RegisterAuth registers the /v1/auth group plus the authenticated
// account endpoints (me, verification).
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)
	g.POST("/refresh", a.Refresh)
	g.POST("/refresh-access", a.RefreshAccess)
	g.POST("/logout", a.Logout)

	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole("USER", "ADMIN"))
	auth.GET("/me", a.Me)
	auth.POST("/verify-email", a.VerifyEmail)
	auth.POST("/verify-phone", a.VerifyPhone)
}

// RegisterPublic registers the unauthenticated browse endpoints.  The
// listing feed is the hottest read path, so it gets the Redis response
// cache and the token-bucket rate limiter when those are enabled.
func RegisterPublic(e *echo.Echo, p *handler.PublicHandler, mws ...echo.MiddlewareFunc) {
	g := e.Group("/v1/listings", mws...)
	g.GET("", p.ListListings)
	g.GET("/:id", p.GetListing)
}

// RegisterListings registers the authenticated listing endpoints.
// Creation additionally requires the host verification level; the
// middleware screens on the token claim and the handler re-checks
// against the users table.
func RegisterListings(e *echo.Echo, h *handler.HostHandler, a *handler.ApplicationHandler, cv *handler.ConversationHandler, jwtSecret string) {
	g := e.Group("/v1/listings")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("USER", "ADMIN"))

	g.POST("", h.CreateListing, middleware.RequireVerification(lifecycle.LevelHost))
	g.GET("/mine", h.MyListings)
	g.PATCH("/:id", h.UpdateListing)
	g.DELETE("/:id", h.CloseListing)
	g.GET("/:id/applications", a.ListForListing)
	g.POST("/:id/inquiries", cv.CreateInquiry)
}

// RegisterApplications registers accept/reject/withdraw.
func RegisterApplications(e *echo.Echo, a *handler.ApplicationHandler, jwtSecret string) {
	g := e.Group("/v1/applications")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("USER", "ADMIN"))

	g.POST("/:id/accept", a.Accept)
	g.POST("/:id/reject", a.Reject)
	g.POST("/:id/withdraw", a.Withdraw)
}

// RegisterConversations registers the chat, application hand-in,
// cancellation negotiation and handoff confirmation endpoints.
func RegisterConversations(e *echo.Echo, cv *handler.ConversationHandler, jwtSecret string) {
	g := e.Group("/v1/conversations")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("USER", "ADMIN"))

	g.GET("", cv.List)
	g.GET("/:id", cv.Get)
	g.GET("/:id/messages", cv.ListMessages)
	g.POST("/:id/messages", cv.PostMessage)
	g.POST("/:id/apply", cv.Apply)
	g.POST("/:id/cancel", cv.RequestCancellation)
	g.PUT("/:id/cancel", cv.RespondCancellation)
	g.POST("/:id/confirm", cv.Confirm)
	g.DELETE("/:id/confirm", cv.Unconfirm)
}

// RegisterReports registers the user-facing report endpoints and the
// notification feed.
func RegisterReports(e *echo.Echo, r *handler.ReportHandler, n *handler.NotificationHandler, jwtSecret string) {
	g := e.Group("/v1")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("USER", "ADMIN"))

	g.POST("/reports", r.CreateReport)
	g.POST("/bug-reports", r.CreateBugReport)
	g.GET("/notifications", n.List)
	g.POST("/notifications/:id/read", n.MarkRead)
}

// RegisterAdmin registers the back-office.  Everything here is ADMIN
// only.
func RegisterAdmin(e *echo.Echo, a *handler.AdminHandler, jwtSecret string) {
	g := e.Group("/v1/admin")
	g.Use(middleware.JWTAuth(jwtSecret))
	g.Use(middleware.RequireRole("ADMIN"))

	g.GET("/users", a.ListUsers)
	g.PATCH("/users/:id/active", a.SetUserActive)
	g.DELETE("/listings/:id", a.ForceCloseListing)
	g.GET("/reports", a.ListReports)
	g.PATCH("/reports/:id", a.UpdateReport)
	g.GET("/bug-reports", a.ListBugReports)
	g.PATCH("/bug-reports/:id", a.UpdateBugReport)
}
