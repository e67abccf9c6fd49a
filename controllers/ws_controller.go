package controllers

import (
	"net/http"

	ws "vitalwatch/websocket"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

type WSController struct {
	hub *ws.Hub
}

func NewWSController(hub *ws.Hub) *WSController {
	return &WSController{hub: hub}
}

// Connect upgrades the request and streams alert facts for the watched
// subject to the dashboard.
func (wc *WSController) Connect(c *gin.Context) {
	subjectID := c.Query("subjectId")
	if subjectID == "" {
		subjectID = c.GetString("userID")
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		logrus.Errorf("Websocket upgrade failed: %v", err)
		return
	}

	client := ws.NewClient(wc.hub, conn, subjectID)
	client.Serve()
}
