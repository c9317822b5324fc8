package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/lottoline/bingo-relay/relay"
)

// GamesController serves the stateless query surface over the hub's
// loop-consistent read accessors.
type GamesController struct {
	Hub *relay.Hub
}

// Health reports the process-wide counters.
func (gc *GamesController) Health(c *gin.Context) {
	h := gc.Hub.Health()
	c.JSON(http.StatusOK, gin.H{
		"status":                "ok",
		"activeGameCount":       h.ActiveGameCount,
		"activeConnectionCount": h.ActiveConnectionCount,
		"timestamp":             time.Now(),
	})
}

// ListGames returns a summary row per active room.
func (gc *GamesController) ListGames(c *gin.Context) {
	c.JSON(http.StatusOK, gc.Hub.ListGames())
}

// GetGame returns the full state of one room, history uncapped.
func (gc *GamesController) GetGame(c *gin.Context) {
	snap, ok := gc.Hub.GameDetail(c.Param("id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "Game not found"})
		return
	}
	c.JSON(http.StatusOK, snap)
}

type createGameRequest struct {
	Variant  string `json:"variant"`
	Capacity int    `json:"capacity"`
}

// CreateGame mints a room id. Capacity is accepted as a hint and echoed;
// the relay does not enforce it.
func (gc *GamesController) CreateGame(c *gin.Context) {
	var req createGameRequest
	if err := c.ShouldBindJSON(&req); err != nil && c.Request.ContentLength > 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, ok := gc.Hub.CreateGame(req.Variant)
	if !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "server shutting down"})
		return
	}

	resp := gin.H{
		"gameId":    summary.GameID,
		"variant":   summary.Variant,
		"status":    summary.Status,
		"createdAt": summary.CreatedAt,
	}
	if req.Capacity > 0 {
		resp["capacity"] = req.Capacity
	}
	c.JSON(http.StatusCreated, resp)
}
