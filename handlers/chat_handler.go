package handlers

import (
	"context"
	"errors"
	"net/http"

	"lawchat-backend/models"
	"lawchat-backend/service"

	"github.com/gin-gonic/gin"
)

// ChatService is the pipeline surface the HTTP layer depends on.
type ChatService interface {
	HandleTurn(ctx context.Context, conversationID, userText string) (*service.TurnResult, error)
	History(ctx context.Context, conversationID string) (*models.ConversationState, error)
	Clear(ctx context.Context, conversationID string) error
}

// ChatHandler handles HTTP requests for the chat pipeline
type ChatHandler struct {
	pipeline ChatService
}

// NewChatHandler creates a new chat handler
func NewChatHandler(pipeline ChatService) *ChatHandler {
	return &ChatHandler{
		pipeline: pipeline,
	}
}

// ChatRequest represents the request body for a chat turn
type ChatRequest struct {
	ConversationID string `json:"conversation_id" binding:"required"`
	Text           string `json:"text" binding:"required"`
}

// HandleChat handles POST /api/chat
func (h *ChatHandler) HandleChat(c *gin.Context) {
	var req ChatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "INVALID_REQUEST",
				"message": err.Error(),
			},
		})
		return
	}

	result, err := h.pipeline.HandleTurn(c.Request.Context(), req.ConversationID, req.Text)
	if err != nil {
		if errors.Is(err, service.ErrTurnBudgetExceeded) {
			c.JSON(http.StatusGatewayTimeout, gin.H{
				"success": false,
				"error": gin.H{
					"code":    "TURN_TIMEOUT",
					"message": "답변 생성에 시간이 너무 오래 걸렸습니다. 잠시 후 다시 시도해 주세요.",
				},
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "TURN_FAILED",
				"message": "답변을 생성하지 못했습니다. 잠시 후 다시 시도해 주세요.",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    result,
	})
}

// GetHistory handles GET /api/conversations/:id/history
func (h *ChatHandler) GetHistory(c *gin.Context) {
	state, err := h.pipeline.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "HISTORY_FAILED",
				"message": "대화 기록을 불러오지 못했습니다.",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data":    state,
	})
}

// ClearConversation handles DELETE /api/conversations/:id
func (h *ChatHandler) ClearConversation(c *gin.Context) {
	if err := h.pipeline.Clear(c.Request.Context(), c.Param("id")); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"success": false,
			"error": gin.H{
				"code":    "CLEAR_FAILED",
				"message": "대화를 초기화하지 못했습니다.",
			},
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"conversation_id": c.Param("id"),
			"cleared":         true,
		},
	})
}
