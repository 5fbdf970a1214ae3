package rest

import (
	"fmt"
	"net/http"

	"github.com/KevinKickass/OpenSequenceCore/internal/document"
	"github.com/KevinKickass/OpenSequenceCore/internal/types"
	"github.com/gin-gonic/gin"
)

type subprogramRequest struct {
	Name     *string `json:"name"`
	Priority *string `json:"priority"`
}

func (r subprogramRequest) apply(sp *document.Subprogram) error {
	if r.Priority != nil {
		p, err := document.ParsePriority(*r.Priority)
		if err != nil {
			return fmt.Errorf("%w: %w", errBadParam, err)
		}
		sp.SetPriority(p)
	}
	if r.Name != nil {
		sp.SetName(*r.Name)
	}
	return nil
}

type stepRequest struct {
	Description *string `json:"description"`
	Operator    *string `json:"operator"`
}

func (r stepRequest) apply(st *document.Step) error {
	if r.Operator != nil {
		op, err := document.ParseOperator(*r.Operator)
		if err != nil {
			return fmt.Errorf("%w: %w", errBadParam, err)
		}
		st.SetOperator(op)
	}
	if r.Description != nil {
		st.SetDescription(*r.Description)
	}
	return nil
}

// GET /api/v1/subprograms
func (s *Server) listSubprograms(c *gin.Context) {
	var out []subprogramView
	var last int
	s.lm.Workspace().View(func(doc *document.Document) error {
		all := doc.Subprograms.All()
		out = make([]subprogramView, 0, len(all))
		for i, sp := range all {
			out = append(out, viewSubprogram(doc, i, sp))
		}
		last = doc.Subprograms.LastAddress()
		return nil
	})

	c.JSON(http.StatusOK, gin.H{
		"subprograms":  out,
		"count":        len(out),
		"last_address": last,
	})
}

// GET /api/v1/addresses
func (s *Server) listAddresses(c *gin.Context) {
	var valid []int
	var last int
	s.lm.Workspace().View(func(doc *document.Document) error {
		valid = doc.Subprograms.ValidAddresses()
		last = doc.Subprograms.LastAddress()
		return nil
	})
	c.JSON(http.StatusOK, gin.H{
		"addresses":    valid,
		"last_address": last,
	})
}

// POST /api/v1/subprograms
func (s *Server) addSubprogram(c *gin.Context) {
	var req subprogramRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, types.AreaSP, "Invalid request body", err)
		return
	}

	var view subprogramView
	err := s.lm.Workspace().Update("subprogram.added", "subprograms", func(doc *document.Document) error {
		sp := document.NewSubprogram()
		if err := req.apply(sp); err != nil {
			return err
		}
		doc.Subprograms.Adopt(sp)
		view = viewSubprogram(doc, doc.Subprograms.Len()-1, sp)
		return nil
	})
	if err != nil {
		respondError(c, types.AreaSP, "Failed to add subprogram", err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// PATCH /api/v1/subprograms/:sp
func (s *Server) updateSubprogram(c *gin.Context) {
	i, err := indexParam(c, "sp")
	if err != nil {
		respondError(c, types.AreaSP, "Invalid index", err)
		return
	}
	var req subprogramRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, types.AreaSP, "Invalid request body", err)
		return
	}

	var view subprogramView
	err = s.lm.Workspace().Update("subprogram.updated", fmt.Sprintf("subprograms/%d", i), func(doc *document.Document) error {
		sp, err := doc.Subprograms.SubprogramAt(i)
		if err != nil {
			return err
		}
		if err := req.apply(sp); err != nil {
			return err
		}
		view = viewSubprogram(doc, i, sp)
		return nil
	})
	if err != nil {
		respondError(c, types.AreaSP, "Failed to update subprogram", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DELETE /api/v1/subprograms/:sp
func (s *Server) deleteSubprogram(c *gin.Context) {
	i, err := indexParam(c, "sp")
	if err != nil {
		respondError(c, types.AreaSP, "Invalid index", err)
		return
	}

	err = s.lm.Workspace().Update("subprogram.removed", fmt.Sprintf("subprograms/%d", i), func(doc *document.Document) error {
		return doc.Subprograms.RemoveAt(i)
	})
	if err != nil {
		respondError(c, types.AreaSP, "Failed to remove subprogram", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/v1/subprograms/:sp/steps
func (s *Server) addStep(c *gin.Context) {
	i, err := indexParam(c, "sp")
	if err != nil {
		respondError(c, types.AreaStep, "Invalid index", err)
		return
	}
	var req stepRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, types.AreaStep, "Invalid request body", err)
		return
	}

	var view stepView
	err = s.lm.Workspace().Update("step.added", fmt.Sprintf("subprograms/%d/steps", i), func(doc *document.Document) error {
		sp, err := doc.Subprograms.SubprogramAt(i)
		if err != nil {
			return err
		}
		if req.Operator != nil {
			if _, err := document.ParseOperator(*req.Operator); err != nil {
				return fmt.Errorf("%w: %w", errBadParam, err)
			}
		}
		st := sp.AddStep()
		if err := req.apply(st); err != nil {
			return err
		}
		view = viewStep(doc, sp.Address()+st.SequenceID()-1, st)
		return nil
	})
	if err != nil {
		respondError(c, types.AreaStep, "Failed to add step", err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// PATCH /api/v1/subprograms/:sp/steps/:step
func (s *Server) updateStep(c *gin.Context) {
	spIdx, stepIdx, err := stepParams(c)
	if err != nil {
		respondError(c, types.AreaStep, "Invalid index", err)
		return
	}
	var req stepRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, types.AreaStep, "Invalid request body", err)
		return
	}

	var view stepView
	path := fmt.Sprintf("subprograms/%d/steps/%d", spIdx, stepIdx)
	err = s.lm.Workspace().Update("step.updated", path, func(doc *document.Document) error {
		st, err := doc.Subprograms.Step(spIdx, stepIdx)
		if err != nil {
			return err
		}
		if err := req.apply(st); err != nil {
			return err
		}
		sp, _ := doc.Subprograms.SubprogramAt(spIdx)
		view = viewStep(doc, sp.Address()+stepIdx, st)
		return nil
	})
	if err != nil {
		respondError(c, types.AreaStep, "Failed to update step", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DELETE /api/v1/subprograms/:sp/steps/:step
// Later steps are renumbered and every later subprogram moves down one
// address.
func (s *Server) deleteStep(c *gin.Context) {
	spIdx, stepIdx, err := stepParams(c)
	if err != nil {
		respondError(c, types.AreaStep, "Invalid index", err)
		return
	}

	path := fmt.Sprintf("subprograms/%d/steps/%d", spIdx, stepIdx)
	err = s.lm.Workspace().Update("step.removed", path, func(doc *document.Document) error {
		sp, err := doc.Subprograms.SubprogramAt(spIdx)
		if err != nil {
			return err
		}
		return sp.RemoveStepAt(stepIdx)
	})
	if err != nil {
		respondError(c, types.AreaStep, "Failed to remove step", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func stepParams(c *gin.Context) (int, int, error) {
	sp, err := indexParam(c, "sp")
	if err != nil {
		return 0, 0, err
	}
	step, err := indexParam(c, "step")
	if err != nil {
		return 0, 0, err
	}
	return sp, step, nil
}

// bindOptionalJSON accepts an empty body.
func bindOptionalJSON(c *gin.Context, v any) error {
	if c.Request.ContentLength == 0 {
		return nil
	}
	return c.ShouldBindJSON(v)
}
