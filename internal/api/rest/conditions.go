package rest

import (
	"fmt"
	"net/http"

	"github.com/KevinKickass/OpenSequenceCore/internal/document"
	"github.com/KevinKickass/OpenSequenceCore/internal/types"
	"github.com/gin-gonic/gin"
)

// conditionOwner is a step or a condition rule.
type conditionOwner interface {
	NewCondition(frame document.FrameType) *document.ConditionBinding
	Condition(frame document.FrameType, i int) (*document.ConditionBinding, error)
	RemoveConditionAt(frame document.FrameType, i int) error
}

// ownerLookup resolves the owner named by the request path.
type ownerLookup struct {
	path func(c *gin.Context) (string, error)
	find func(c *gin.Context, doc *document.Document) (conditionOwner, error)
}

var stepOwner = ownerLookup{
	path: func(c *gin.Context) (string, error) {
		sp, step, err := stepParams(c)
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("subprograms/%d/steps/%d", sp, step), nil
	},
	find: func(c *gin.Context, doc *document.Document) (conditionOwner, error) {
		sp, step, err := stepParams(c)
		if err != nil {
			return nil, err
		}
		return doc.Subprograms.Step(sp, step)
	},
}

var ruleOwner = ownerLookup{
	path: func(c *gin.Context) (string, error) {
		i, err := indexParam(c, "rule")
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("rules/%d", i), nil
	},
	find: func(c *gin.Context, doc *document.Document) (conditionOwner, error) {
		i, err := indexParam(c, "rule")
		if err != nil {
			return nil, err
		}
		return doc.Rules.RuleAt(i)
	},
}

// conditionRequest edits a binding. An empty target clears it; a target
// that names no element of the binding's frame also leaves it unresolved.
type conditionRequest struct {
	Target  *string `json:"target"`
	Require *string `json:"require"`
}

func (r conditionRequest) validate() error {
	if r.Require != nil {
		if _, err := document.ParseElementState(*r.Require); err != nil {
			return fmt.Errorf("%w: %w", errBadParam, err)
		}
	}
	return nil
}

func (r conditionRequest) apply(io *document.IORegistry, b *document.ConditionBinding) {
	if r.Require != nil {
		b.SetRequiredState(document.ElementState(*r.Require))
	}
	if r.Target != nil {
		if *r.Target == "" {
			b.ClearTarget()
		} else {
			b.SelectTarget(io, *r.Target)
		}
	}
}

func (s *Server) addCondition(c *gin.Context, owner ownerLookup) {
	base, err := owner.path(c)
	if err != nil {
		respondError(c, types.AreaCondition, "Invalid index", err)
		return
	}
	frame, err := frameParam(c)
	if err != nil {
		respondError(c, types.AreaCondition, "Invalid frame", err)
		return
	}
	var req conditionRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, types.AreaCondition, "Invalid request body", err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, types.AreaCondition, "Invalid condition", err)
		return
	}

	var view conditionView
	err = s.lm.Workspace().Update("condition.added", base+"/conditions/"+string(frame), func(doc *document.Document) error {
		o, err := owner.find(c, doc)
		if err != nil {
			return err
		}
		b := o.NewCondition(frame)
		req.apply(doc.IO, b)
		view = viewCondition(doc.IO, b)
		return nil
	})
	if err != nil {
		respondError(c, types.AreaCondition, "Failed to add condition", err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

func (s *Server) updateCondition(c *gin.Context, owner ownerLookup) {
	base, err := owner.path(c)
	if err != nil {
		respondError(c, types.AreaCondition, "Invalid index", err)
		return
	}
	frame, err := frameParam(c)
	if err != nil {
		respondError(c, types.AreaCondition, "Invalid frame", err)
		return
	}
	i, err := indexParam(c, "cond")
	if err != nil {
		respondError(c, types.AreaCondition, "Invalid index", err)
		return
	}
	var req conditionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, types.AreaCondition, "Invalid request body", err)
		return
	}
	if err := req.validate(); err != nil {
		respondError(c, types.AreaCondition, "Invalid condition", err)
		return
	}

	var view conditionView
	path := fmt.Sprintf("%s/conditions/%s/%d", base, frame, i)
	err = s.lm.Workspace().Update("condition.updated", path, func(doc *document.Document) error {
		o, err := owner.find(c, doc)
		if err != nil {
			return err
		}
		b, err := o.Condition(frame, i)
		if err != nil {
			return err
		}
		req.apply(doc.IO, b)
		view = viewCondition(doc.IO, b)
		return nil
	})
	if err != nil {
		respondError(c, types.AreaCondition, "Failed to update condition", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (s *Server) deleteCondition(c *gin.Context, owner ownerLookup) {
	base, err := owner.path(c)
	if err != nil {
		respondError(c, types.AreaCondition, "Invalid index", err)
		return
	}
	frame, err := frameParam(c)
	if err != nil {
		respondError(c, types.AreaCondition, "Invalid frame", err)
		return
	}
	i, err := indexParam(c, "cond")
	if err != nil {
		respondError(c, types.AreaCondition, "Invalid index", err)
		return
	}

	path := fmt.Sprintf("%s/conditions/%s/%d", base, frame, i)
	err = s.lm.Workspace().Update("condition.removed", path, func(doc *document.Document) error {
		o, err := owner.find(c, doc)
		if err != nil {
			return err
		}
		return o.RemoveConditionAt(frame, i)
	})
	if err != nil {
		respondError(c, types.AreaCondition, "Failed to remove condition", err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) addStepCondition(c *gin.Context)    { s.addCondition(c, stepOwner) }
func (s *Server) updateStepCondition(c *gin.Context) { s.updateCondition(c, stepOwner) }
func (s *Server) deleteStepCondition(c *gin.Context) { s.deleteCondition(c, stepOwner) }
func (s *Server) addRuleCondition(c *gin.Context)    { s.addCondition(c, ruleOwner) }
func (s *Server) updateRuleCondition(c *gin.Context) { s.updateCondition(c, ruleOwner) }
func (s *Server) deleteRuleCondition(c *gin.Context) { s.deleteCondition(c, ruleOwner) }
