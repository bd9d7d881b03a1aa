// Package oracle implements the LLM-backed judgments the answering engine
// delegates: deciding, grading, rewriting and answering.
package oracle

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"ragbot/src/core/agent"
	"ragbot/src/log"
)

// LLMProvider generates a completion for a system/prompt pair.
type LLMProvider interface {
	Reasoning(ctx context.Context, system string, prompt string) (string, error)
}

// TemplateData holds all the data needed for prompt template execution.
type TemplateData struct {
	History  string
	Question string
	Context  string
}

// Service answers the engine's oracle interfaces with a single LLM provider.
type Service struct {
	llm LLMProvider
}

// NewService creates an oracle service backed by the given provider.
func NewService(llm LLMProvider) (*Service, error) {
	if llm == nil {
		return nil, fmt.Errorf("llm provider is required")
	}
	return &Service{llm: llm}, nil
}

type decideAction struct {
	Action string `json:"action"`
	Query  string `json:"query"`
	Answer string `json:"answer"`
}

// Decide implements agent.DecisionOracle. Model output that cannot be read
// as a retrieval action is treated as a direct answer.
func (s *Service) Decide(ctx context.Context, turns []agent.Turn) (agent.Decision, error) {
	data := TemplateData{
		History:  renderHistory(turns),
		Question: agent.CurrentQuestion(turns),
	}
	system, prompt, err := executeTemplates(DecideSystemTmpl, DecidePromptTmpl, data)
	if err != nil {
		return agent.Decision{}, fmt.Errorf("failed to prepare decide prompt: %w", err)
	}

	reply, err := s.llm.Reasoning(ctx, system, prompt)
	if err != nil {
		log.Error(err, "failed to get decision")
		return agent.Decision{}, fmt.Errorf("failed to get decision: %w", err)
	}

	action, ok := parseDecideAction(reply)
	if ok && action.Action == "retrieve" {
		query := strings.TrimSpace(action.Query)
		if query == "" {
			query = data.Question
		}
		log.Debug("decision", "action", "retrieve", "query", query)
		return agent.Decision{Retrieve: true, Query: query}, nil
	}

	answer := strings.TrimSpace(reply)
	if ok && strings.TrimSpace(action.Answer) != "" {
		answer = strings.TrimSpace(action.Answer)
	}
	log.Debug("decision", "action", "answer")
	return agent.Decision{Answer: answer}, nil
}

// Grade implements agent.RelevanceOracle. The raw token is returned as is;
// normalization is the engine's job.
func (s *Service) Grade(ctx context.Context, question, passages string) (string, error) {
	system, prompt, err := executeTemplates(GradeSystemTmpl, GradePromptTmpl, TemplateData{
		Question: question,
		Context:  passages,
	})
	if err != nil {
		return "", fmt.Errorf("failed to prepare grade prompt: %w", err)
	}

	token, err := s.llm.Reasoning(ctx, system, prompt)
	if err != nil {
		log.Error(err, "failed to grade passages")
		return "", fmt.Errorf("failed to grade passages: %w", err)
	}

	log.Debug("graded passages", "token", strings.TrimSpace(token))
	return token, nil
}

// Rewrite implements agent.RewriteOracle.
func (s *Service) Rewrite(ctx context.Context, question string) (string, error) {
	system, prompt, err := executeTemplates(RewriteSystemTmpl, RewritePromptTmpl, TemplateData{
		Question: question,
	})
	if err != nil {
		return "", fmt.Errorf("failed to prepare rewrite prompt: %w", err)
	}

	reply, err := s.llm.Reasoning(ctx, system, prompt)
	if err != nil {
		log.Error(err, "failed to rewrite question")
		return "", fmt.Errorf("failed to rewrite question: %w", err)
	}

	rewritten := strings.TrimSpace(reply)
	log.Debug("rewrote question", "rewritten", rewritten)
	return rewritten, nil
}

// Answer implements agent.AnswerOracle.
func (s *Service) Answer(ctx context.Context, question, contextText string) (string, error) {
	system, prompt, err := executeTemplates(AnswerSystemTmpl, AnswerPromptTmpl, TemplateData{
		Question: question,
		Context:  contextText,
	})
	if err != nil {
		return "", fmt.Errorf("failed to prepare answer prompt: %w", err)
	}

	reply, err := s.llm.Reasoning(ctx, system, prompt)
	if err != nil {
		log.Error(err, "failed to generate answer")
		return "", fmt.Errorf("failed to generate answer: %w", err)
	}

	return strings.TrimSpace(reply), nil
}

// parseDecideAction pulls a JSON action out of a model reply. Models tend to
// wrap the object in prose or code fences, so everything outside the
// outermost braces is ignored.
func parseDecideAction(reply string) (decideAction, bool) {
	raw := strings.TrimSpace(reply)
	if start := strings.Index(raw, "{"); start >= 0 {
		if end := strings.LastIndex(raw, "}"); end > start {
			raw = raw[start : end+1]
		}
	}

	var action decideAction
	if err := json.Unmarshal([]byte(raw), &action); err != nil {
		return decideAction{}, false
	}
	if action.Action == "" {
		return decideAction{}, false
	}
	return action, true
}

func renderHistory(turns []agent.Turn) string {
	var b strings.Builder
	for i, t := range turns {
		if i > 0 {
			b.WriteString("\n")
		}
		if t.Invocation != nil {
			fmt.Fprintf(&b, "%s: called %s with query %q", t.Role, t.Invocation.Tool, t.Invocation.Query)
			continue
		}
		fmt.Fprintf(&b, "%s: %s", t.Role, t.Content)
	}
	return b.String()
}

func executeTemplates(systemTmpl, promptTmpl string, data TemplateData) (string, string, error) {
	var systemBuf, promptBuf bytes.Buffer

	sysT := template.Must(template.New("system").Parse(systemTmpl))
	if err := sysT.Execute(&systemBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute system template: %w", err)
	}

	prmptT := template.Must(template.New("prompt").Parse(promptTmpl))
	if err := prmptT.Execute(&promptBuf, data); err != nil {
		return "", "", fmt.Errorf("failed to execute prompt template: %w", err)
	}

	return systemBuf.String(), promptBuf.String(), nil
}
