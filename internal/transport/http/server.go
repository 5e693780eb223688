package http

import (
	"github.com/gin-gonic/gin"

	"mochi-server/internal/bootstrap"
	"mochi-server/internal/transport/http/handler"
	"mochi-server/internal/transport/http/middleware"
)

func NewRouter(app *bootstrap.App) *gin.Engine {
	gin.SetMode(app.Config.App.GinMode)
	router := gin.New()
	router.Use(
		middleware.Recovery(app.Logger),
		middleware.RequestLogger(app.Logger.Named("http")),
		middleware.CORS(),
	)

	healthHandler := handler.NewHealthHandler(app)
	authHandler := handler.NewAuthHandler(app.Auth)
	chatHandler := handler.NewChatHandler(app.Chat, app.Logger.Named("chat"))
	personaHandler := handler.NewPersonaHandler(app.Personas)
	moodHandler := handler.NewMoodHandler(app.Moods)
	authJWT := middleware.AuthJWT(app.Verifier)

	router.GET("/healthz", healthHandler.Check)

	v1 := router.Group("/api/v1")
	v1.GET("/healthz", healthHandler.Check)

	authGroup := v1.Group("/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)
	authGroup.GET("/me", authJWT, authHandler.Me)

	v1.GET("/personas", personaHandler.Catalog)
	personaGroup := v1.Group("/personas", authJWT)
	personaGroup.GET("/mine", personaHandler.Mine)
	personaGroup.POST("", personaHandler.Create)

	chatGroup := v1.Group("/chat", authJWT)
	chatGroup.POST("/stream", chatHandler.Stream)
	chatGroup.GET("/ws", chatHandler.StreamWS)

	chatsGroup := v1.Group("/chats", authJWT)
	chatsGroup.GET("", chatHandler.ListChats)
	chatsGroup.GET("/:id/messages", chatHandler.ListMessages)

	moodGroup := v1.Group("", authJWT)
	moodGroup.POST("/log-mood", moodHandler.Log)
	moodGroup.GET("/moods", moodHandler.List)

	return router
}
