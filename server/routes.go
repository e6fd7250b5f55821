package server

import (
	"time"

	"github.com/labstack/echo/v4"

	custommiddleware "CodeMart/middleware"
)

func (s *Server) SetupRoutes(authMiddleware echo.MiddlewareFunc, adminMiddleware echo.MiddlewareFunc) {
	e := s.Echo
	api := e.Group("/api/v1")

	// Auth routes (unprotected, rate limited per IP)
	auth := api.Group("/auth")
	if s.rateLimiter != nil {
		auth.Use(custommiddleware.NewRateLimitMiddleware(s.rateLimiter, custommiddleware.RateLimitConfig{
			Limit:  20,
			Window: time.Minute,
		}))
	}
	{
		auth.POST("/register", s.AuthHandler.Register)
		auth.POST("/login", s.AuthHandler.Login)
	}

	// Storefront routes (unprotected)
	public := api.Group("/public")
	{
		public.GET("/projects", s.ProjectHandler.ListProjects)
		public.GET("/projects/:slug", s.ProjectHandler.GetProject)
		public.GET("/posts", s.BlogHandler.ListPosts)
		public.GET("/posts/:slug", s.BlogHandler.GetPost)
	}

	// The visitor chat widget is anonymous; identity is established over the
	// socket itself with a user:connect frame.
	e.GET("/ws/chat", s.ChatWebSocketHandler.HandleVisitorSocket)

	// Authenticated routes
	protected := api.Group("")
	protected.Use(authMiddleware)
	{
		protected.GET("/user", s.AuthHandler.GetCurrentUser)

		orders := protected.Group("/orders")
		{
			orders.POST("", s.OrderHandler.CreateOrder)
			orders.GET("", s.OrderHandler.ListOrders)
			orders.GET("/:id", s.OrderHandler.GetOrder)
		}

		// Operator-only routes
		admin := protected.Group("/admin")
		admin.Use(adminMiddleware)
		{
			admin.POST("/projects", s.ProjectHandler.CreateProject)
			admin.PUT("/projects/:id", s.ProjectHandler.UpdateProject)
			admin.DELETE("/projects/:id", s.ProjectHandler.DeleteProject)

			admin.POST("/posts", s.BlogHandler.CreatePost)
			admin.PUT("/posts/:id", s.BlogHandler.UpdatePost)
			admin.DELETE("/posts/:id", s.BlogHandler.DeletePost)

			// Persisted chat log. Back-office tooling only; the live
			// coordinator never goes through these.
			chatlog := admin.Group("/chat")
			{
				chatlog.POST("/messages", s.ChatLogHandler.CreateMessage)
				chatlog.GET("/sessions", s.ChatLogHandler.ListActiveSessions)
				chatlog.GET("/sessions/:sessionKey/messages", s.ChatLogHandler.ListMessages)
				chatlog.PUT("/sessions/:sessionKey/read", s.ChatLogHandler.MarkRead)
				chatlog.PUT("/sessions/:sessionKey/close", s.ChatLogHandler.CloseSession)
				chatlog.GET("/auto-responses/match", s.ChatLogHandler.FindAutoResponse)
			}

			admin.GET("/chat/operators", s.ChatWebSocketHandler.GetOnlineOperators)
		}

		// Operator chat console socket; the token rides in the query string.
		protected.GET("/ws/admin/chat", s.ChatWebSocketHandler.HandleAdminSocket, adminMiddleware)
	}
}
