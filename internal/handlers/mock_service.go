package handlers

import (
	"context"

	"coldsense/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAssistant struct {
	reply string
	err   error

	calls        int
	lastQuestion string
}

func (m *mockAssistant) Answer(ctx context.Context, question string) (string, error) {
	m.calls++
	m.lastQuestion = question
	return m.reply, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}
