package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	statusOK           = "ok"
	errInvalidBodyPref = "invalid body: "
)

// Request DTO for the chat endpoint.
type chatRequest struct {
	Prompt string `json:"prompt" binding:"required"`
}

// ChatRequest is an exported model for Swagger docs of the chat payload.
type ChatRequest struct {
	// Free-text question about the refrigerator's sensors
	Prompt string `json:"prompt" example:"What is the current fridge temperature?"`
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    statusOK,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}

// @Summary      Ask about the refrigerator's telemetry
// @Description  Classifies the question, aggregates sensor data, and answers in natural language.
// @Tags         chat
// @Accept       json
// @Produce      json
// @Param        body  body      ChatRequest  true  "Question payload"
// @Success      200   {object}  map[string]string  "response"
// @Failure      400   {object}  map[string]string
// @Failure      500   {object}  map[string]string  "response holds an apology"
// @Router       /chat [post]
func (h *Handler) chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": errInvalidBodyPref + err.Error()})
		return
	}

	ctx := c.Request.Context()
	requestID := uuid.NewString()

	reply, err := h.services.Assistant.Answer(ctx, req.Prompt)
	if err != nil {
		// The assistant already produced a user-presentable apology; the
		// underlying error is logged here with the request id and never
		// echoed to the client.
		if h.log != nil {
			h.log.Errorw("chat_failed", "err", err, "request_id", requestID)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"response": reply})
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}
