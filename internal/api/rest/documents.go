package rest

import (
	"errors"
	"net/http"

	"github.com/KevinKickass/OpenSequenceCore/internal/definition"
	"github.com/KevinKickass/OpenSequenceCore/internal/storage"
	"github.com/KevinKickass/OpenSequenceCore/internal/types"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type saveDocumentRequest struct {
	Name string `json:"name"`
	// AsNew stores a copy instead of overwriting the loaded document.
	AsNew bool `json:"as_new"`
}

func (s *Server) store(c *gin.Context) (storage.DocumentStore, bool) {
	st := s.lm.Store()
	if st == nil {
		c.JSON(http.StatusServiceUnavailable, types.NewStatusError(types.AreaDocuments, http.StatusServiceUnavailable, "Document storage is disabled", nil))
		return nil, false
	}
	return st, true
}

func documentID(c *gin.Context) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		return uuid.Nil, errors.Join(errBadParam, err)
	}
	return id, nil
}

// GET /api/v1/documents
func (s *Server) listDocuments(c *gin.Context) {
	st, ok := s.store(c)
	if !ok {
		return
	}

	docs, err := st.ListDocuments(c.Request.Context())
	if err != nil {
		respondError(c, types.AreaDocuments, "Failed to list documents", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"documents": docs,
		"count":     len(docs),
		"current":   s.currentRef(),
	})
}

// POST /api/v1/documents
// Saves the workspace document, overwriting the one it was loaded from
// unless as_new is set.
func (s *Server) saveDocument(c *gin.Context) {
	st, ok := s.store(c)
	if !ok {
		return
	}
	var req saveDocumentRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, types.AreaDocuments, "Invalid request body", err)
		return
	}

	ref := s.currentRef()
	if req.AsNew {
		ref.ID = uuid.Nil
	}
	if req.Name != "" {
		ref.Name = req.Name
	}

	rec := &storage.DocumentRecord{
		ID:      ref.ID,
		Name:    ref.Name,
		Program: definition.FromDocument(ref.Name, s.lm.Workspace().Snapshot()),
	}
	status := http.StatusOK
	if rec.ID == uuid.Nil {
		status = http.StatusCreated
	}

	if err := st.SaveDocument(c.Request.Context(), rec); err != nil {
		respondError(c, types.AreaDocuments, "Failed to save document", err)
		return
	}
	s.setCurrentRef(documentRef{ID: rec.ID, Name: rec.Name})

	s.logger.Info("Document saved", zap.String("id", rec.ID.String()), zap.String("name", rec.Name))
	c.JSON(status, storage.DocumentSummary{
		ID:        rec.ID,
		Name:      rec.Name,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	})
}

// POST /api/v1/documents/:id/load
func (s *Server) loadDocument(c *gin.Context) {
	st, ok := s.store(c)
	if !ok {
		return
	}
	id, err := documentID(c)
	if err != nil {
		respondError(c, types.AreaDocuments, "Invalid document ID", err)
		return
	}

	rec, err := st.LoadDocument(c.Request.Context(), id)
	if err != nil {
		respondError(c, types.AreaDocuments, "Failed to load document", err)
		return
	}
	doc, err := rec.Program.ToDocument()
	if err != nil {
		respondError(c, types.AreaDocuments, "Stored document is invalid", err)
		return
	}

	s.lm.Workspace().Replace(doc, "store:"+id.String())
	s.setCurrentRef(documentRef{ID: rec.ID, Name: rec.Name})
	c.JSON(http.StatusOK, rec.Program)
}

// DELETE /api/v1/documents/:id
func (s *Server) deleteDocument(c *gin.Context) {
	st, ok := s.store(c)
	if !ok {
		return
	}
	id, err := documentID(c)
	if err != nil {
		respondError(c, types.AreaDocuments, "Invalid document ID", err)
		return
	}

	if err := st.DeleteDocument(c.Request.Context(), id); err != nil {
		respondError(c, types.AreaDocuments, "Failed to delete document", err)
		return
	}

	// the workspace keeps its content but is no longer backed by a record
	s.mu.Lock()
	if s.current.ID == id {
		s.current.ID = uuid.Nil
	}
	s.mu.Unlock()

	c.Status(http.StatusNoContent)
}
