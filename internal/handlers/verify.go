package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"dice-game-backend/internal/models"
	"dice-game-backend/internal/services"
)

// VerifyHandler serves the public, stateless fairness check. No auth: anyone
// holding the disclosed values can verify a past bet.
type VerifyHandler struct {
	gameService *services.GameService
}

func NewVerifyHandler(gameService *services.GameService) *VerifyHandler {
	return &VerifyHandler{gameService: gameService}
}

func (h *VerifyHandler) Verify(c *gin.Context) {
	var req models.VerificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	result := h.gameService.VerifyBet(
		req.ServerSeed,
		req.ServerSeedHash,
		req.ClientSeed,
		req.Nonce,
		req.ClaimedRoll,
	)

	c.JSON(http.StatusOK, gin.H{
		"success":      true,
		"verification": result,
	})
}
