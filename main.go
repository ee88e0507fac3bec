package main

import (
	"log"

	"github.com/gin-gonic/gin"

	"github.com/jenilmangukiya/tube-backend/internal/auth"
	"github.com/jenilmangukiya/tube-backend/internal/config"
	"github.com/jenilmangukiya/tube-backend/internal/database"
	"github.com/jenilmangukiya/tube-backend/internal/handlers"
	"github.com/jenilmangukiya/tube-backend/internal/media"
	"github.com/jenilmangukiya/tube-backend/internal/middleware"
)

func main() {
	config.Load()
	cfg := config.AppEnv

	client, err := database.Connect(cfg.MongoURI)
	if err != nil {
		log.Fatal(err)
	}

	db := client.Database(cfg.DBName)

	log.Println("MongoDB connected to:", db.Name())

	if err := database.EnsureUserIndexes(db); err != nil {
		log.Printf("user index warning: %v", err)
	}
	if err := database.EnsureLikeIndexes(db); err != nil {
		log.Printf("like index warning: %v", err)
	}
	if err := database.EnsureSubscriptionIndexes(db); err != nil {
		log.Printf("subscription index warning: %v", err)
	}
	if err := database.EnsureContentIndexes(db); err != nil {
		log.Printf("content index warning: %v", err)
	}

	tokens := auth.NewService(db, cfg.AccessTokenSecret, cfg.RefreshTokenSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	mediaHost := media.NewClient(cfg.CloudinaryCloud, cfg.CloudinaryKey, cfg.CloudinarySecret)

	r := gin.Default()
	session := middleware.Session(tokens, db)

	api := r.Group("/api/v1")

	users := api.Group("/users")
	{
		users.POST("/register", handlers.Register(db, mediaHost, cfg.UploadTempDir))
		users.POST("/login", handlers.Login(db, tokens, cfg.AccessTokenTTL, cfg.RefreshTokenTTL))
		users.POST("/refreshAccessToken", handlers.RefreshAccessToken(tokens, cfg.AccessTokenTTL, cfg.RefreshTokenTTL))

		users.POST("/logout", session, handlers.Logout(tokens))
		users.POST("/changeCurrentPassword", session, handlers.ChangeCurrentPassword(db))
		users.GET("/current-user", session, handlers.GetCurrentUser())
		users.PATCH("/updateAccountInfo", session, handlers.UpdateAccountInfo(db))
		users.POST("/updateUserAvatar", session, handlers.UpdateUserAvatar(db, mediaHost, cfg.UploadTempDir))
		users.POST("/updateCoverImage", session, handlers.UpdateCoverImage(db, mediaHost, cfg.UploadTempDir))
		users.GET("/c/:username", session, handlers.GetUserChannelProfile(db))
		users.GET("/history", session, handlers.GetWatchHistory(db))
	}

	videos := api.Group("/videos")
	videos.Use(session)
	{
		videos.GET("", handlers.GetAllVideos(db))
		videos.POST("", handlers.PublishVideo(db, mediaHost, cfg.UploadTempDir))
		videos.GET("/:videoId", handlers.GetVideoByID(db))
		videos.POST("/:videoId", handlers.TogglePublishStatus(db))
		videos.PATCH("/:videoId", handlers.UpdateVideo(db, mediaHost, cfg.UploadTempDir))
		videos.DELETE("/:videoId", handlers.DeleteVideo(db, mediaHost))
	}

	comments := api.Group("/comments")
	comments.Use(session)
	{
		comments.GET("/:videoId", handlers.GetVideoComments(db))
		comments.POST("/:videoId", handlers.AddComment(db))
		comments.PATCH("/c/:commentId", handlers.UpdateComment(db))
		comments.DELETE("/c/:commentId", handlers.DeleteComment(db))
	}

	tweets := api.Group("/tweets")
	tweets.Use(session)
	{
		tweets.POST("", handlers.CreateTweet(db))
		tweets.GET("/user/:userId", handlers.GetUserTweets(db))
		tweets.PATCH("/:tweetId", handlers.UpdateTweet(db))
		tweets.DELETE("/:tweetId", handlers.DeleteTweet(db))
	}

	likes := api.Group("/likes")
	likes.Use(session)
	{
		likes.POST("/toggle/v/:videoId", handlers.ToggleVideoLike(db))
		likes.POST("/toggle/c/:commentId", handlers.ToggleCommentLike(db))
		likes.POST("/toggle/t/:tweetId", handlers.ToggleTweetLike(db))
		likes.GET("/videos", handlers.GetLikedVideos(db))
	}

	subscriptions := api.Group("/subscriptions")
	subscriptions.Use(session)
	{
		subscriptions.POST("/c/:channelId", handlers.ToggleSubscription(db))
		subscriptions.GET("/c/:channelId", handlers.GetChannelSubscribers(db))
		subscriptions.GET("/u/:subscriberId", handlers.GetSubscribedChannels(db))
	}

	playlists := api.Group("/playlists")
	playlists.Use(session)
	{
		playlists.POST("", handlers.CreatePlaylist(db))
		playlists.GET("/user/:userId", handlers.GetUserPlaylists(db))
		playlists.GET("/:playlistId", handlers.GetPlaylistByID(db))
		playlists.PATCH("/:playlistId", handlers.UpdatePlaylist(db))
		playlists.DELETE("/:playlistId", handlers.DeletePlaylist(db))
		playlists.PATCH("/add/:videoId/:playlistId", handlers.AddVideoToPlaylist(db))
		playlists.PATCH("/remove/:videoId/:playlistId", handlers.RemoveVideoFromPlaylist(db))
	}

	r.Run(":" + cfg.Port)
}
