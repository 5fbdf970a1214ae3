package rest

import (
	"fmt"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/KevinKickass/OpenSequenceCore/internal/api/websocket"
	"github.com/KevinKickass/OpenSequenceCore/internal/export"
	"github.com/KevinKickass/OpenSequenceCore/internal/types"
	"github.com/gin-gonic/gin"
)

type exportRequest struct {
	// FileName is written next to the configured output path. Directories
	// are stripped.
	FileName string `json:"file_name"`
}

type exportResponse struct {
	Path     string                   `json:"path"`
	Shadowed []export.ShadowedBinding `json:"shadowed"`
}

// GET /api/v1/export/preview
func (s *Server) previewExport(c *gin.Context) {
	labels := export.LabelsFrom(s.lm.Catalog())
	rep := s.lm.Exporter().Preview(s.lm.Workspace().Snapshot(), labels)
	c.JSON(http.StatusOK, rep)
}

// POST /api/v1/export
func (s *Server) exportTable(c *gin.Context) {
	var req exportRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, types.AreaExport, "Invalid request body", err)
		return
	}

	path, err := s.exportPath(req.FileName)
	if err != nil {
		badRequest(c, types.AreaExport, "Invalid file name", err)
		return
	}

	labels := export.LabelsFrom(s.lm.Catalog())
	rep, err := s.lm.Exporter().Export(c.Request.Context(), s.lm.Workspace().Snapshot(), labels, path)
	if err != nil {
		s.wsHub.Broadcast(websocket.NewExportMessage(path, 0, err))
		respondError(c, types.AreaExport, "Failed to export table", err)
		return
	}

	s.wsHub.Broadcast(websocket.NewExportMessage(path, len(rep.Shadowed), nil))
	c.JSON(http.StatusOK, exportResponse{
		Path:     path,
		Shadowed: rep.Shadowed,
	})
}

func (s *Server) exportPath(name string) (string, error) {
	out := s.lm.Config().Export.OutputPath
	if name == "" {
		return out, nil
	}
	base := filepath.Base(name)
	if base == "." || base == string(filepath.Separator) || base != name {
		return "", fmt.Errorf("file name %q must not contain a directory", name)
	}
	if !strings.EqualFold(filepath.Ext(base), ".xlsx") {
		return "", fmt.Errorf("file name %q must end in .xlsx", name)
	}
	return filepath.Join(filepath.Dir(out), base), nil
}
