package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dice-game-backend/internal/models"
	"dice-game-backend/internal/services"
)

type GameHandler struct {
	gameService *services.GameService
	logger      *zap.Logger
}

func NewGameHandler(gameService *services.GameService, logger *zap.Logger) *GameHandler {
	return &GameHandler{
		gameService: gameService,
		logger:      logger,
	}
}

// PlaceBet settles one dice bet. The account layer is expected to have
// checked the balance before calling and to apply the payout from the
// settlement event afterwards; no balance state is touched here.
func (h *GameHandler) PlaceBet(c *gin.Context) {
	sessionID := c.GetString("session_id")

	var req models.BetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	result, session, err := h.gameService.PlaceBet(c.Request.Context(), sessionID, &req)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":   "Failed to place bet",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"result": gin.H{
			"bet_id":                  result.ID,
			"direction":               result.Direction,
			"target_percent":          result.TargetPercent,
			"roll":                    result.Roll,
			"win_chance":              result.WinChance,
			"is_win":                  result.IsWin,
			"multiplier":              result.Multiplier,
			"win":                     result.Payout,
			"bet_amount":              result.BetAmount,
			"nonce":                   result.Nonce,
			"client_seed":             result.ClientSeed,
			"server_seed_hash":        session.Current.ServerSeedHash,
			"next_hashed_server_seed": session.Next.ServerSeedHash,
		},
	})
}

func (h *GameHandler) GetHistory(c *gin.Context) {
	sessionID := c.GetString("session_id")

	limitStr := c.DefaultQuery("limit", "50")
	limit, err := strconv.Atoi(limitStr)
	if err != nil || limit <= 0 || limit > 100 {
		limit = 50
	}

	bets, err := h.gameService.History(c.Request.Context(), sessionID, limit)
	if err != nil {
		h.logger.Error("failed to load bet history", zap.String("session_id", sessionID), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "Failed to get bet history",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"bets":    bets,
		"count":   len(bets),
	})
}

func (h *GameHandler) GetConfig(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    h.gameService.GameConfig(),
	})
}

// GetMultiplier is the pure quote the UI may call on every keystroke.
func (h *GameHandler) GetMultiplier(c *gin.Context) {
	target, err := strconv.ParseFloat(c.Query("target"), 64)
	if err != nil || target <= 0 || target >= 100 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target must be strictly between 0 and 100"})
		return
	}

	direction := models.Direction(c.DefaultQuery("direction", string(models.DirectionUnder)))
	if direction != models.DirectionUnder && direction != models.DirectionOver {
		c.JSON(http.StatusBadRequest, gin.H{"error": "direction must be under or over"})
		return
	}

	amount := 0.0
	if s := c.Query("amount"); s != "" {
		if amount, err = strconv.ParseFloat(s, 64); err != nil || amount < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "amount must be a non-negative number"})
			return
		}
	}

	winChance, multiplier, potentialWin := h.gameService.MultiplierQuote(target, direction, amount)

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"target_percent": target,
			"direction":      direction,
			"win_chance":     winChance,
			"multiplier":     multiplier,
			"potential_win":  potentialWin,
		},
	})
}
