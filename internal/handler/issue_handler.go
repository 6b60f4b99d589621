package handler

import (
	"encoding/base64"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/mikael-devkh/sistema/internal/jira"
	"github.com/mikael-devkh/sistema/internal/logger"
	"github.com/mikael-devkh/sistema/internal/model"
)

type TransitionRequest struct {
	IssueKey     string `json:"issueKey" binding:"required"`
	TransitionID string `json:"transitionId"`
	State        string `json:"state"`
}

// transitionView is a Jira transition tagged with the state it leads to
type transitionView struct {
	model.JiraTransition
	WorkflowState jira.WorkflowState `json:"workflowState"`
}

type AttachRequest struct {
	IssueKey   string `json:"issueKey" binding:"required"`
	FileName   string `json:"fileName" binding:"required"`
	FileBase64 string `json:"fileBase64" binding:"required"`
}

// HandleTransitions handles GET /api/jira/transitions?issueKey=
func (h *ProxyHandler) HandleTransitions(c *gin.Context) {
	issueKey := c.Query("issueKey")
	if issueKey == "" {
		h.writeError(c, &jira.ValidationError{Message: "Missing issueKey"}, "")
		return
	}

	sess, err := h.jira.NewSession(c.Request.Context(), h.cfg.JiraSettings())
	if err != nil {
		h.writeError(c, err, "")
		return
	}
	transitions, err := sess.Transitions(c.Request.Context(), issueKey)
	if err != nil {
		h.writeError(c, err, "")
		return
	}
	views := make([]transitionView, 0, len(transitions))
	for _, t := range transitions {
		target := t.Name
		if t.To != nil && t.To.Name != "" {
			target = t.To.Name
		}
		views = append(views, transitionView{JiraTransition: t, WorkflowState: jira.MapStatusToWorkflow(target)})
	}
	c.JSON(http.StatusOK, gin.H{"transitions": views})
}

// HandleTransition handles POST /api/jira/transition. Either a transition id or a
// target workflow state must be given; the id wins when both are present.
func (h *ProxyHandler) HandleTransition(c *gin.Context) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().Debug("invalid transition body", zap.Error(err))
		h.writeError(c, &jira.ValidationError{Message: "Missing issueKey/transitionId"}, "")
		return
	}

	var (
		state  jira.WorkflowState
		target = req.TransitionID
	)
	if req.TransitionID == "" {
		var ok bool
		if state, ok = jira.ParseWorkflowState(req.State); !ok {
			h.writeError(c, &jira.ValidationError{Message: "Missing issueKey/transitionId"}, "")
			return
		}
		target = string(state)
	}

	ctx := c.Request.Context()
	sess, err := h.jira.NewSession(ctx, h.cfg.JiraSettings())
	if err != nil {
		h.writeError(c, err, "")
		return
	}

	if req.TransitionID != "" {
		err = sess.DoTransition(ctx, req.IssueKey, req.TransitionID)
	} else {
		err = sess.TransitionTo(ctx, req.IssueKey, state)
	}
	if err != nil {
		h.writeError(c, err, "")
		return
	}

	if err := h.notifier.NotifyTransition(ctx, req.IssueKey, target); err != nil {
		logger.GetLogger().Warn("transition notification failed", zap.String("issue", req.IssueKey), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// HandleAttach handles POST /api/jira/attach with a base64 encoded PDF
func (h *ProxyHandler) HandleAttach(c *gin.Context) {
	var req AttachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		logger.GetLogger().Debug("invalid attach body", zap.Error(err))
		h.writeError(c, &jira.ValidationError{Message: "Missing issueKey/fileName/fileBase64"}, "")
		return
	}

	content, err := base64.StdEncoding.DecodeString(req.FileBase64)
	if err != nil {
		h.writeError(c, &jira.ValidationError{Message: "fileBase64 is not valid base64"}, "")
		return
	}

	ctx := c.Request.Context()
	sess, err := h.jira.NewSession(ctx, h.cfg.JiraSettings())
	if err != nil {
		h.writeError(c, err, "")
		return
	}
	if err := sess.AddAttachment(ctx, req.IssueKey, req.FileName, content); err != nil {
		h.writeError(c, err, "")
		return
	}

	logger.GetLogger().Info("attachment uploaded",
		zap.String("issue", req.IssueKey),
		zap.String("file", req.FileName),
		zap.Int("bytes", len(content)))

	if err := h.notifier.NotifyAttachment(ctx, req.IssueKey, req.FileName); err != nil {
		logger.GetLogger().Warn("attachment notification failed", zap.String("issue", req.IssueKey), zap.Error(err))
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
