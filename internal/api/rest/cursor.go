package rest

import (
	"fmt"
	"net/http"

	"github.com/KevinKickass/OpenSequenceCore/internal/document"
	"github.com/KevinKickass/OpenSequenceCore/internal/editor"
	"github.com/KevinKickass/OpenSequenceCore/internal/types"
	"github.com/gin-gonic/gin"
)

type cursorResponse struct {
	Cursor editor.Cursor `json:"cursor"`
	// Conditions of the open step or rule in the active frame.
	Conditions []conditionView `json:"conditions,omitempty"`
}

// GET /api/v1/cursor
func (s *Server) getCursor(c *gin.Context) {
	s.renderCursor(c)
}

// PUT /api/v1/cursor
// Omitted fields mean nothing is selected at that level.
func (s *Server) putCursor(c *gin.Context) {
	req := editor.NewCursor()
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, types.AreaCursor, "Invalid request body", err)
		return
	}
	if !req.Frame.Valid() {
		badRequest(c, types.AreaCursor, "Invalid cursor", fmt.Errorf("unknown frame %q", req.Frame))
		return
	}
	if err := s.lm.Workspace().SetCursor(req); err != nil {
		respondError(c, types.AreaCursor, "Invalid cursor", err)
		return
	}
	s.renderCursor(c)
}

// POST /api/v1/cursor/back
func (s *Server) cursorBack(c *gin.Context) {
	s.lm.Workspace().Back()
	s.renderCursor(c)
}

func (s *Server) renderCursor(c *gin.Context) {
	var resp cursorResponse
	s.lm.Workspace().ViewCursor(func(doc *document.Document, cur editor.Cursor) error {
		resp.Cursor = cur
		if bindings, err := editor.SelectedConditions(doc, cur); err == nil {
			resp.Conditions = viewConditions(doc.IO, bindings)
		}
		return nil
	})
	c.JSON(http.StatusOK, resp)
}
