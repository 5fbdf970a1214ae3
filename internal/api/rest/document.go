package rest

import (
	"fmt"
	"io"
	"net/http"

	"github.com/KevinKickass/OpenSequenceCore/internal/definition"
	"github.com/KevinKickass/OpenSequenceCore/internal/types"
	"github.com/KevinKickass/OpenSequenceCore/internal/validation"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var contentTypes = map[definition.Format]string{
	definition.FormatJSON: "application/json",
	definition.FormatYAML: "application/yaml",
	definition.FormatHCL:  "text/plain; charset=utf-8",
}

func formatQuery(c *gin.Context) (definition.Format, error) {
	f := definition.Format(c.DefaultQuery("format", string(definition.FormatJSON)))
	if _, ok := contentTypes[f]; !ok {
		return "", fmt.Errorf("%w: unsupported format %q", errBadParam, f)
	}
	return f, nil
}

// GET /api/v1/document?format=json|yaml|hcl
func (s *Server) getDocument(c *gin.Context) {
	format, err := formatQuery(c)
	if err != nil {
		respondError(c, types.AreaDocument, "Invalid format", err)
		return
	}

	p := definition.FromDocument(s.currentRef().Name, s.lm.Workspace().Snapshot())
	if format == definition.FormatJSON {
		c.JSON(http.StatusOK, p)
		return
	}

	data, err := p.Marshal(format)
	if err != nil {
		respondError(c, types.AreaDocument, "Failed to encode document", err)
		return
	}
	c.Data(http.StatusOK, contentTypes[format], data)
}

// PUT /api/v1/document?format=json|yaml|hcl
// Replaces the workspace document with the request body.
func (s *Server) putDocument(c *gin.Context) {
	format, err := formatQuery(c)
	if err != nil {
		respondError(c, types.AreaDocument, "Invalid format", err)
		return
	}

	data, err := io.ReadAll(c.Request.Body)
	if err != nil {
		badRequest(c, types.AreaDocument, "Failed to read request body", err)
		return
	}

	p, err := s.lm.Loader().Parse(data, format, "request."+string(format))
	if err != nil {
		badRequest(c, types.AreaDocument, "Invalid program", err)
		return
	}
	doc, err := p.ToDocument()
	if err != nil {
		badRequest(c, types.AreaDocument, "Invalid program", err)
		return
	}

	s.lm.Workspace().Replace(doc, "api")
	s.setCurrentRef(documentRef{ID: uuid.Nil, Name: p.Name})

	s.logger.Info("Document replaced via API", zap.String("name", p.Name), zap.String("format", string(format)))
	c.JSON(http.StatusOK, validation.Validate(doc))
}

// GET /api/v1/document/validation
func (s *Server) validateDocument(c *gin.Context) {
	c.JSON(http.StatusOK, validation.Validate(s.lm.Workspace().Snapshot()))
}
