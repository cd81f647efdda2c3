package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dice-game-backend/internal/services"
)

type SessionHandler struct {
	gameService *services.GameService
	jwtService  *services.JWTService
	logger      *zap.Logger
}

func NewSessionHandler(gameService *services.GameService, jwtService *services.JWTService, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		gameService: gameService,
		jwtService:  jwtService,
		logger:      logger,
	}
}

// CreateSession commits a fresh seed pair (and the next one) and hands the
// player the commitments plus a token bound to the session.
func (h *SessionHandler) CreateSession(c *gin.Context) {
	session, err := h.gameService.CreateSession(c.Request.Context())
	if err != nil {
		h.logger.Error("failed to create session", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	token, err := h.jwtService.GenerateToken(session.ID)
	if err != nil {
		h.logger.Error("failed to mint session token", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create session"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": gin.H{
			"session_id":            session.ID,
			"token":                 token,
			"server_seed_hash":      session.Current.ServerSeedHash,
			"next_server_seed_hash": session.Next.ServerSeedHash,
			"client_seed":           session.Current.ClientSeed,
		},
	})
}

// SetClientSeed replaces the client seed. If the current pair already served
// bets this rotates it out and the old server seed comes back revealed.
func (h *SessionHandler) SetClientSeed(c *gin.Context) {
	sessionID := c.GetString("session_id")

	var req struct {
		ClientSeed string `json:"client_seed" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "Invalid request",
			"details": err.Error(),
		})
		return
	}

	session, revealed, err := h.gameService.SetClientSeed(c.Request.Context(), sessionID, req.ClientSeed)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":   "Failed to set client seed",
			"details": err.Error(),
		})
		return
	}

	resp := gin.H{
		"client_seed":           session.Current.ClientSeed,
		"server_seed_hash":      session.Current.ServerSeedHash,
		"next_server_seed_hash": session.Next.ServerSeedHash,
	}
	if revealed != nil {
		resp["revealed"] = revealed
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"session": resp,
	})
}

// Reveal retires the current pair and discloses its server seed for audit.
func (h *SessionHandler) Reveal(c *gin.Context) {
	sessionID := c.GetString("session_id")

	session, revealed, err := h.gameService.RevealSeedPair(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(statusFor(err), gin.H{
			"error":   "Failed to reveal seed pair",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"revealed": revealed,
		"session": gin.H{
			"server_seed_hash":      session.Current.ServerSeedHash,
			"next_server_seed_hash": session.Next.ServerSeedHash,
			"client_seed":           session.Current.ClientSeed,
		},
	})
}

// Fairness returns the data a player needs before betting: the active
// commitment, the next commitment and the next nonce to be consumed.
func (h *SessionHandler) Fairness(c *gin.Context) {
	sessionID := c.GetString("session_id")

	session, err := h.gameService.Session(c.Request.Context(), sessionID)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "Session not found",
			"details": err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"client_seed":           session.Current.ClientSeed,
			"server_seed_hash":      session.Current.ServerSeedHash,
			"next_server_seed_hash": session.Next.ServerSeedHash,
			"next_nonce":            session.Current.Nonce,
			"state":                 session.Current.State,
		},
	})
}
