package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/gigachat/gigachat-server/internal/auth"
	"github.com/gigachat/gigachat-server/internal/config"
	"github.com/gigachat/gigachat-server/internal/core"
	"github.com/gigachat/gigachat-server/internal/service/groups"
	"github.com/gigachat/gigachat-server/internal/service/history"
	"github.com/gigachat/gigachat-server/internal/store"
)

// Deps bundles everything the HTTP layer needs.
type Deps struct {
	Store       store.Store
	AuthService *auth.Service
	History     *history.Service
	Groups      *groups.Service
	Registry    *core.Registry
	Coordinator *core.Coordinator
}

// NewServer builds the HTTP server: REST routes plus the WebSocket
// relay endpoint.
func NewServer(cfg config.Config, deps Deps, logger *zerolog.Logger) *stdhttp.Server {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware(cfg.BaseURL))

	authHandlers := NewAuthHandlers(deps.AuthService, logger)
	userHandlers := NewUserHandlers(deps.Store, logger)
	chatHandlers := NewChatHandlers(deps.History, logger)
	groupHandlers := NewGroupHandlers(deps.Groups, logger)
	adminHandlers := NewAdminHandlers(deps.Store, deps.Groups, deps.History, logger)

	requireAuth := AuthMiddleware(deps.AuthService, logger)

	authGroup := router.Group("/auth")
	{
		authGroup.POST("/register", authHandlers.Register)
		authGroup.POST("/login", authHandlers.Login)
		authGroup.POST("/verify-email", authHandlers.VerifyEmail)

		protected := authGroup.Group("", requireAuth)
		protected.GET("/users/:id", userHandlers.ListUsers)
		protected.GET("/profile/:id", userHandlers.GetProfile)
		protected.PUT("/update/:id", userHandlers.UpdateProfile)
		protected.GET("/search", userHandlers.SearchUsers)
		protected.POST("/add-contact", userHandlers.AddContact)
		protected.GET("/contacts/:id", userHandlers.ListContacts)
	}

	chatGroup := router.Group("/chat", requireAuth)
	{
		chatGroup.GET("/history/:userId/:recipientId", chatHandlers.DirectHistory)
		chatGroup.GET("/group-history/:groupId", chatHandlers.GroupHistory)
	}

	groupsGroup := router.Group("/groups", requireAuth)
	{
		groupsGroup.POST("/create", groupHandlers.Create)
		groupsGroup.GET("/user/:userId", groupHandlers.ListForUser)
		groupsGroup.PUT("/:id/add-member", groupHandlers.AddMember)
		groupsGroup.PUT("/:id/update", groupHandlers.Update)
	}

	adminGroup := router.Group("/admin", requireAuth, RequireAdmin())
	{
		adminGroup.GET("/users", adminHandlers.ListUsers)
		adminGroup.GET("/user/:userId/messages", adminHandlers.UserMessages)
		adminGroup.GET("/chat/:user1/:user2", adminHandlers.Conversation)
		adminGroup.GET("/group/:groupId/messages", adminHandlers.GroupMessages)
		adminGroup.GET("/search/messages", adminHandlers.SearchMessages)
	}

	router.GET("/health", healthHandler)

	// The relay endpoint is plain net/http; gin only routes to it.
	wsHandler := NewWSHandler(deps.Registry, deps.Coordinator, cfg.MaxMessageBytes, cfg.WSMessageRateLimit, logger)
	router.GET("/ws", gin.WrapH(wsHandler))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
