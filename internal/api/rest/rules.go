package rest

import (
	"fmt"
	"net/http"

	"github.com/KevinKickass/OpenSequenceCore/internal/document"
	"github.com/KevinKickass/OpenSequenceCore/internal/types"
	"github.com/gin-gonic/gin"
)

type ruleRequest struct {
	Description   *string `json:"description"`
	Blocked       *bool   `json:"blocked"`
	Critical      *bool   `json:"critical"`
	TargetAddress *int    `json:"target_address"`
}

// apply sets the fields of rule i. The target address must be a step
// address of the current document.
func (r ruleRequest) apply(doc *document.Document, i int) error {
	rule, err := doc.Rules.RuleAt(i)
	if err != nil {
		return err
	}
	if r.TargetAddress != nil {
		if err := doc.SetRuleTarget(i, *r.TargetAddress); err != nil {
			return err
		}
	}
	if r.Description != nil {
		rule.SetDescription(*r.Description)
	}
	if r.Blocked != nil {
		rule.SetBlocked(*r.Blocked)
	}
	if r.Critical != nil {
		rule.SetCritical(*r.Critical)
	}
	return nil
}

// GET /api/v1/rules
func (s *Server) listRules(c *gin.Context) {
	var out []ruleView
	s.lm.Workspace().View(func(doc *document.Document) error {
		all := doc.Rules.All()
		out = make([]ruleView, 0, len(all))
		for i, r := range all {
			out = append(out, viewRule(doc, i, r))
		}
		return nil
	})

	c.JSON(http.StatusOK, gin.H{
		"rules": out,
		"count": len(out),
	})
}

// POST /api/v1/rules
func (s *Server) addRule(c *gin.Context) {
	var req ruleRequest
	if err := bindOptionalJSON(c, &req); err != nil {
		badRequest(c, types.AreaRule, "Invalid request body", err)
		return
	}

	var view ruleView
	err := s.lm.Workspace().Update("rule.added", "rules", func(doc *document.Document) error {
		if req.TargetAddress != nil && !doc.AddressInRange(*req.TargetAddress) {
			return fmt.Errorf("target %d (valid 1..%d): %w",
				*req.TargetAddress, doc.Subprograms.LastAddress()-1, document.ErrAddressOutOfRange)
		}
		rule := doc.Rules.AddRule()
		i := doc.Rules.Len() - 1
		if err := req.apply(doc, i); err != nil {
			return err
		}
		view = viewRule(doc, i, rule)
		return nil
	})
	if err != nil {
		respondError(c, types.AreaRule, "Failed to add rule", err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// PATCH /api/v1/rules/:rule
func (s *Server) updateRule(c *gin.Context) {
	i, err := indexParam(c, "rule")
	if err != nil {
		respondError(c, types.AreaRule, "Invalid index", err)
		return
	}
	var req ruleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, types.AreaRule, "Invalid request body", err)
		return
	}

	var view ruleView
	err = s.lm.Workspace().Update("rule.updated", fmt.Sprintf("rules/%d", i), func(doc *document.Document) error {
		if err := req.apply(doc, i); err != nil {
			return err
		}
		rule, _ := doc.Rules.RuleAt(i)
		view = viewRule(doc, i, rule)
		return nil
	})
	if err != nil {
		respondError(c, types.AreaRule, "Failed to update rule", err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DELETE /api/v1/rules/:rule
func (s *Server) deleteRule(c *gin.Context) {
	i, err := indexParam(c, "rule")
	if err != nil {
		respondError(c, types.AreaRule, "Invalid index", err)
		return
	}

	err = s.lm.Workspace().Update("rule.removed", fmt.Sprintf("rules/%d", i), func(doc *document.Document) error {
		return doc.Rules.RemoveAt(i)
	})
	if err != nil {
		respondError(c, types.AreaRule, "Failed to remove rule", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// POST /api/v1/rules/sort
func (s *Server) sortRules(c *gin.Context) {
	s.lm.Workspace().Update("rules.sorted", "rules", func(doc *document.Document) error {
		doc.Rules.SortByAddress()
		return nil
	})
	s.listRules(c)
}
