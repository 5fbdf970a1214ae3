package rest

import (
	"net/http"

	"github.com/KevinKickass/OpenSequenceCore/internal/types"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// GET /api/v1/languages
func (s *Server) listLanguages(c *gin.Context) {
	cat := s.lm.Catalog()
	c.JSON(http.StatusOK, gin.H{
		"languages": cat.Languages(),
		"active":    cat.Active(),
	})
}

// PUT /api/v1/languages/active
func (s *Server) setLanguage(c *gin.Context) {
	var req struct {
		Language string `json:"language" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, types.AreaLanguage, "Invalid request body", err)
		return
	}

	if err := s.lm.Catalog().SetActive(req.Language); err != nil {
		respondError(c, types.AreaLanguage, "Failed to switch language", err)
		return
	}

	s.logger.Info("Language switched", zap.String("language", req.Language))
	s.listLanguages(c)
}
