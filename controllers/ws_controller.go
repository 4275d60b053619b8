package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type SocketServer interface {
	Serve(w http.ResponseWriter, r *http.Request, userID string)
}

// GET /ws upgrades an authenticated request into a notification socket.
func Socket(s SocketServer) gin.HandlerFunc {
	return func(c *gin.Context) {
		s.Serve(c.Writer, c.Request, currentUserID(c))
	}
}
