package jira

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"go.uber.org/zap"

	"github.com/mikael-devkh/sistema/internal/logger"
	"github.com/mikael-devkh/sistema/internal/model"
)

// WorkflowState is the simplified ticket state used by the field app
type WorkflowState string

const (
	StateOpen       WorkflowState = "open"
	StateInProgress WorkflowState = "in_progress"
	StateWaiting    WorkflowState = "waiting"
	StateDone       WorkflowState = "done"
)

// transitionNames lists the Jira transition names accepted for each target state
var transitionNames = map[WorkflowState][]string{
	StateInProgress: {"In Progress", "Em andamento"},
	StateWaiting:    {"Waiting", "Aguardando", "On Hold"},
	StateDone:       {"Done", "Concluído", "Resolved"},
}

// ParseWorkflowState accepts the wire names of the target states a transition can aim for
func ParseWorkflowState(s string) (WorkflowState, bool) {
	st := WorkflowState(strings.ToLower(strings.TrimSpace(s)))
	_, ok := transitionNames[st]
	return st, ok
}

// MapStatusToWorkflow folds a Jira status name into a WorkflowState
func MapStatusToWorkflow(statusName string) WorkflowState {
	s := strings.ToLower(statusName)
	switch {
	case strings.Contains(s, "progress") || strings.Contains(s, "andamento"):
		return StateInProgress
	case strings.Contains(s, "wait") || strings.Contains(s, "aguard"):
		return StateWaiting
	case strings.Contains(s, "done") || strings.Contains(s, "concl"):
		return StateDone
	}
	return StateOpen
}

// Transitions lists the transitions currently available on an issue
func (s *Session) Transitions(ctx context.Context, issueKey string) ([]model.JiraTransition, error) {
	if issueKey == "" {
		return nil, &ValidationError{Message: "Missing issueKey"}
	}
	var out model.JiraTransitionsResponse
	if err := s.doJSON(ctx, http.MethodGet, issuePath(issueKey, "transitions"), nil, &out); err != nil {
		return nil, err
	}
	return out.Transitions, nil
}

// DoTransition moves an issue through the given transition id
func (s *Session) DoTransition(ctx context.Context, issueKey, transitionID string) error {
	if issueKey == "" || transitionID == "" {
		return &ValidationError{Message: "Missing issueKey/transitionId"}
	}
	body := map[string]any{"transition": map[string]string{"id": transitionID}}
	return s.doJSON(ctx, http.MethodPost, issuePath(issueKey, "transitions"), body, nil)
}

// TransitionTo looks up the transition leading to state by name and applies it
func (s *Session) TransitionTo(ctx context.Context, issueKey string, state WorkflowState) error {
	names, ok := transitionNames[state]
	if !ok {
		return &ValidationError{Message: fmt.Sprintf("unknown workflow state %q", state)}
	}

	transitions, err := s.Transitions(ctx, issueKey)
	if err != nil {
		return err
	}
	for _, t := range transitions {
		for _, n := range names {
			if strings.EqualFold(t.Name, n) {
				return s.DoTransition(ctx, issueKey, t.ID)
			}
		}
	}

	logger.GetLogger().Warn("no matching transition",
		zap.String("issue", issueKey),
		zap.String("state", string(state)),
		zap.Int("available", len(transitions)))
	return ErrTransitionUnavailable
}

// AddAttachment uploads content as a file attached to the issue
func (s *Session) AddAttachment(ctx context.Context, issueKey, fileName string, content []byte) error {
	if issueKey == "" || fileName == "" || len(content) == 0 {
		return &ValidationError{Message: "Missing issueKey/fileName/fileBase64"}
	}

	resp, err := s.request(ctx).
		SetHeader("X-Atlassian-Token", "no-check").
		SetMultipartField("file", fileName, "application/pdf", bytes.NewReader(content)).
		Post(s.baseURL + issuePath(issueKey, "attachments"))
	if err != nil {
		return s.transportError(ctx, err)
	}
	return decodeResponse(resp, nil)
}

func issuePath(issueKey, sub string) string {
	return "/issue/" + url.PathEscape(issueKey) + "/" + sub
}
