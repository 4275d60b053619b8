// controllers/srv.go
package controllers

import (
	"strconv"

	"neighborly/app"
	"neighborly/apperr"
	"neighborly/cache"
	"neighborly/config"
	"neighborly/db"
	"neighborly/lending"
	"neighborly/notify"
	"neighborly/ratings"
	"neighborly/session"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type Srv struct {
	Repo    *db.Repo
	AppSess *session.AppSessionStore
	Lending *lending.Service
	Ratings *ratings.Service
	Hub     *notify.Hub
	Cfg     config.Config
	Log     *zap.Logger
}

func GetSrv(a *app.App) *Srv {
	reviewCache := cache.NewRedisCache(a.RDB, "nb:cache:", a.Log)
	return &Srv{
		Repo:    a.Repo,
		AppSess: a.AppSessions(),
		Lending: lending.NewService(a.Repo, a.Log.Named("lending"), a.Config.TransactionFreshness),
		Ratings: ratings.NewService(a.Repo, reviewCache, a.Config.ReviewCacheTTL, a.Log.Named("ratings")),
		Hub:     a.Hub,
		Cfg:     a.Config,
		Log:     a.Log,
	}
}

// --- helpers ---

// respond writes the {success, message, data} envelope.
func respond(c *gin.Context, status int, message string, data any) {
	body := app.H{"success": true}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

// fail hands err to the ErrorHandler middleware.
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func bindJSON(c *gin.Context, dst any) error {
	if err := c.ShouldBindJSON(dst); err != nil {
		return apperr.Validation("Invalid request body: " + err.Error())
	}
	return nil
}

func currentUserID(c *gin.Context) string { return c.GetString("userID") }

func pageParams(c *gin.Context) (int, int) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	size, _ := strconv.Atoi(c.DefaultQuery("size", "20"))
	return page, size
}
