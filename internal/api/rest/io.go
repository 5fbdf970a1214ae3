package rest

import (
	"fmt"
	"net/http"

	"github.com/KevinKickass/OpenSequenceCore/internal/document"
	"github.com/KevinKickass/OpenSequenceCore/internal/types"
	"github.com/gin-gonic/gin"
)

type ioRequest struct {
	Name      *string `json:"name"`
	Frame     *string `json:"frame"`
	Signal    *string `json:"signal"`
	HWAddress *int    `json:"hw_address"`
}

func (r ioRequest) apply(el *document.IOElement) error {
	if r.Name != nil {
		el.Name = *r.Name
	}
	if r.Frame != nil {
		f, err := document.ParseFrame(*r.Frame)
		if err != nil {
			return fmt.Errorf("%w: %w", errBadParam, err)
		}
		el.Frame = f
	}
	if r.Signal != nil {
		sig, err := document.ParseSignal(*r.Signal)
		if err != nil {
			return fmt.Errorf("%w: %w", errBadParam, err)
		}
		el.Signal = sig
	}
	if r.HWAddress != nil {
		if *r.HWAddress < 0 || *r.HWAddress > 255 {
			return fmt.Errorf("%w: hw_address %d outside 0..255", errBadParam, *r.HWAddress)
		}
		el.HWAddress = uint8(*r.HWAddress)
	}
	return nil
}

// GET /api/v1/io?frame=&signal=
func (s *Server) listIO(c *gin.Context) {
	frame := document.FrameType(c.Query("frame"))
	signal := document.SignalType(c.Query("signal"))

	var out []ioView
	s.lm.Workspace().View(func(doc *document.Document) error {
		out = make([]ioView, 0, doc.IO.Len())
		for i, el := range doc.IO.All() {
			if frame != "" && el.Frame != frame {
				continue
			}
			if signal != "" && el.Signal != signal {
				continue
			}
			out = append(out, ioView{Index: i, IOElement: *el})
		}
		return nil
	})

	c.JSON(http.StatusOK, gin.H{
		"io":    out,
		"count": len(out),
	})
}

// POST /api/v1/io
func (s *Server) addIO(c *gin.Context) {
	var req ioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, types.AreaIO, "Invalid request body", err)
		return
	}

	el := document.NewIOElement()
	if err := req.apply(&el); err != nil {
		respondError(c, types.AreaIO, "Invalid IO element", err)
		return
	}

	var view ioView
	err := s.lm.Workspace().Update("io.added", "io", func(doc *document.Document) error {
		view = ioView{Index: doc.IO.Add(el), IOElement: el}
		return nil
	})
	if err != nil {
		respondError(c, types.AreaIO, "Failed to add IO element", err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// PATCH /api/v1/io/:index
// Renaming or moving an element to the other frame leaves bindings that
// referenced it unresolved.
func (s *Server) updateIO(c *gin.Context) {
	i, err := indexParam(c, "index")
	if err != nil {
		respondError(c, types.AreaIO, "Invalid index", err)
		return
	}
	var req ioRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, types.AreaIO, "Invalid request body", err)
		return
	}

	var view ioView
	err = s.lm.Workspace().Update("io.updated", fmt.Sprintf("io/%d", i), func(doc *document.Document) error {
		el, err := doc.IO.At(i)
		if err != nil {
			return err
		}
		updated := *el
		if err := req.apply(&updated); err != nil {
			return err
		}
		*el = updated
		view = ioView{Index: i, IOElement: updated}
		return nil
	})
	if err != nil {
		respondError(c, types.AreaIO, "Failed to update IO element", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DELETE /api/v1/io/:index
func (s *Server) deleteIO(c *gin.Context) {
	i, err := indexParam(c, "index")
	if err != nil {
		respondError(c, types.AreaIO, "Invalid index", err)
		return
	}

	err = s.lm.Workspace().Update("io.removed", fmt.Sprintf("io/%d", i), func(doc *document.Document) error {
		return doc.IO.RemoveAt(i)
	})
	if err != nil {
		respondError(c, types.AreaIO, "Failed to remove IO element", err)
		return
	}
	c.Status(http.StatusNoContent)
}
