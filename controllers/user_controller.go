package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"neighborly/app"
	"neighborly/apperr"
	"neighborly/db"
	"neighborly/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type Users interface {
	FindUserByID(ctx context.Context, id string) (*models.User, error)
	ListUsers(ctx context.Context, q string, page, size int) (db.ListUsersResult, error)
}

type SessionRevoker interface {
	Delete(ctx context.Context, id string) error
}

type UserController struct {
	users        Users
	sessions     SessionRevoker
	secureCookie bool
}

func GetUserController(users Users, sessions SessionRevoker, webOrigin string) *UserController {
	return &UserController{
		users:        users,
		sessions:     sessions,
		secureCookie: strings.HasPrefix(webOrigin, "https://"),
	}
}

// GET /user/me
func (uc *UserController) Me(c *gin.Context) {
	u, err := uc.users.FindUserByID(c.Request.Context(), currentUserID(c))
	if errors.Is(err, models.ErrNotFound) {
		err = apperr.NotFound("User not found")
	}
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", u)
}

// POST /auth/logout
func (uc *UserController) Logout(c *gin.Context) {
	if sid := c.GetString("sessionID"); sid != "" {
		if err := uc.sessions.Delete(c.Request.Context(), sid); err != nil {
			fail(c, err)
			return
		}
	}
	http.SetCookie(c.Writer, &http.Cookie{
		Name:     app.AppSessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   uc.secureCookie,
	})
	respond(c, http.StatusOK, "Logged out", nil)
}

// GET /api/users?q=alice&page=1&size=20
func (uc *UserController) ListUsers(c *gin.Context) {
	page, size := pageParams(c)
	res, err := uc.users.ListUsers(c.Request.Context(), c.Query("q"), page, size)
	if err != nil {
		fail(c, err)
		return
	}
	if res.Users == nil {
		res.Users = []models.User{}
	}
	respond(c, http.StatusOK, "", res)
}

// GET /api/users/:id
func (uc *UserController) GetUser(c *gin.Context) {
	id := c.Param("id")
	if _, err := uuid.Parse(id); err != nil {
		fail(c, apperr.Validation("invalid uuid"))
		return
	}
	u, err := uc.users.FindUserByID(c.Request.Context(), id)
	if errors.Is(err, models.ErrNotFound) {
		err = apperr.NotFound("User not found")
	}
	if err != nil {
		fail(c, err)
		return
	}
	respond(c, http.StatusOK, "", u)
}
