package routes

import (
	"net/http"
	"time"

	"neighborly/app"
	"neighborly/controllers"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, a *app.App) {
	s := controllers.GetSrv(a)
	uc := controllers.GetUserController(s.Repo, s.AppSess, a.Config.WebOrigin)
	itemCtl := controllers.NewItemController(s.Repo, s.Lending)
	reviewCtl := controllers.NewReviewController(s.Ratings)
	txCtl := controllers.NewTransactionController(s.Repo, s.Hub, a.Log)

	authMW := app.AuthRequired(a.Tokens(), a.AppSessions(), s.Repo)
	adminMW := app.AdminOnly()
	seenMW := app.TouchLastSeen(s.Repo, a.RDB, 5*time.Minute, a.Log)

	r.GET("/healthz", func(c *app.Ctx) { c.JSON(http.StatusOK, app.H{"success": true}) })

	items := r.Group("/item", authMW, seenMW)
	{
		items.POST("/create", itemCtl.CreateItem)
		items.GET("/all", itemCtl.ListItems) // ?q=&page=&size=
		items.GET("/borrowed", itemCtl.ListBorrowed)
		items.GET("/lent", itemCtl.ListLent)
		items.GET("/stats", itemCtl.Stats)
		items.POST("/borrowItem", itemCtl.Borrow)
		items.PUT("/returnItem", itemCtl.Return)
		items.GET("/:id", itemCtl.GetItem)
		items.PUT("/:id", itemCtl.UpdateItem)
		items.DELETE("/:id", itemCtl.DeleteItem)
	}

	reviews := r.Group("/ratingAndReview", authMW, seenMW)
	{
		reviews.POST("/create", reviewCtl.Create)
		reviews.GET("/user/:id", reviewCtl.ForUser)
		reviews.GET("/item/:id", reviewCtl.ForItem)
	}

	r.GET("/transaction/my", authMW, seenMW, txCtl.Mine)
	r.POST("/transaction/record", app.PaymentSecret(a.Config.PaymentSecret), txCtl.Record)

	r.GET("/user/me", authMW, seenMW, uc.Me)
	r.POST("/auth/logout", authMW, uc.Logout)

	users := r.Group("/api/users", authMW, adminMW)
	{
		users.GET("", uc.ListUsers)
		users.GET("/:id", uc.GetUser)
	}

	r.GET("/ws", authMW, controllers.Socket(s.Hub))
}
