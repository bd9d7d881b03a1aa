// Package agent implements the retrieval-augmented answering loop. A run
// walks a small cyclic state machine: decide whether the question needs
// retrieval, fetch passages, grade them against the original question, then
// either answer from them or rewrite the question and start over. A step
// budget bounds the loop so hopeless questions fail fast instead of cycling.
package agent

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ragbot/src/log"
)

// DefaultMaxSteps bounds how many steps one question may consume.
const DefaultMaxSteps = 5

var (
	// ErrStepLimit reports that a run exceeded its step budget without
	// producing an answer. Callers should ask for a simpler question.
	ErrStepLimit = errors.New("step limit exceeded")

	// ErrNoPassages reports that retrieval returned an empty result set.
	ErrNoPassages = errors.New("retrieval returned no passages")

	// ErrEmptyQuestion reports a blank input question.
	ErrEmptyQuestion = errors.New("question is empty")
)

type step string

const (
	stepDecide   step = "decide"
	stepRetrieve step = "retrieve"
	stepGrade    step = "grade"
	stepAnswer   step = "answer"
	stepRewrite  step = "rewrite"
)

// Engine drives one question at a time through the answering loop. An
// engine holds no per-question state, so a single instance may serve
// concurrent Run calls.
type Engine struct {
	decision  DecisionOracle
	retriever Retriever
	relevance RelevanceOracle
	rewrite   RewriteOracle
	answer    AnswerOracle
	maxSteps  int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxSteps overrides the step budget. Values below one are ignored.
func WithMaxSteps(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.maxSteps = n
		}
	}
}

// NewEngine wires the oracles into an answering engine.
func NewEngine(
	decision DecisionOracle,
	retriever Retriever,
	relevance RelevanceOracle,
	rewrite RewriteOracle,
	answer AnswerOracle,
	opts ...Option,
) (*Engine, error) {
	if decision == nil {
		return nil, fmt.Errorf("decision oracle is required")
	}
	if retriever == nil {
		return nil, fmt.Errorf("retriever is required")
	}
	if relevance == nil {
		return nil, fmt.Errorf("relevance oracle is required")
	}
	if rewrite == nil {
		return nil, fmt.Errorf("rewrite oracle is required")
	}
	if answer == nil {
		return nil, fmt.Errorf("answer oracle is required")
	}

	e := &Engine{
		decision:  decision,
		retriever: retriever,
		relevance: relevance,
		rewrite:   rewrite,
		answer:    answer,
		maxSteps:  DefaultMaxSteps,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Run answers one question. It returns the answer text, or an error wrapping
// ErrStepLimit when the step budget ran out before an answer was produced.
func (e *Engine) Run(ctx context.Context, question string) (string, error) {
	if strings.TrimSpace(question) == "" {
		return "", ErrEmptyQuestion
	}

	conv := NewConversation(question)
	current := stepDecide

	for steps := 0; ; steps++ {
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		default:
		}

		if steps >= e.maxSteps {
			log.Debug("question exhausted its step budget", "max_steps", e.maxSteps)
			return "", fmt.Errorf("stopped after %d steps: %w", e.maxSteps, ErrStepLimit)
		}

		log.Debug("executing step", "step", string(current), "turns", conv.Len())

		switch current {
		case stepDecide:
			decision, err := e.decision.Decide(ctx, conv.Turns())
			if err != nil {
				return "", fmt.Errorf("decide step failed: %w", err)
			}
			if !decision.Retrieve {
				conv.Append(Turn{Role: RoleDecision, Content: decision.Answer})
				log.Debug("answered directly", "steps", steps+1)
				return decision.Answer, nil
			}
			conv.Append(Turn{
				Role:       RoleDecision,
				Invocation: &Invocation{Tool: ToolRetrieve, Query: decision.Query},
			})
			current = stepRetrieve

		case stepRetrieve:
			inv := conv.Last().Invocation
			if inv == nil {
				return "", errors.New("retrieve step reached without an invocation")
			}
			passages, err := e.retriever.Retrieve(ctx, inv.Query)
			if err != nil {
				return "", fmt.Errorf("retrieve step failed: %w", err)
			}
			if len(passages) == 0 {
				return "", fmt.Errorf("query %q: %w", inv.Query, ErrNoPassages)
			}
			conv.Append(Turn{Role: RoleToolResult, Content: joinPassages(passages)})
			current = stepGrade

		case stepGrade:
			token, err := e.relevance.Grade(ctx, conv.Question(), conv.Last().Content)
			if err != nil {
				return "", fmt.Errorf("grade step failed: %w", err)
			}
			if relevant(token) {
				current = stepAnswer
			} else {
				current = stepRewrite
			}

		case stepAnswer:
			answer, err := e.answer.Answer(ctx, conv.Question(), conv.Last().Content)
			if err != nil {
				return "", fmt.Errorf("answer step failed: %w", err)
			}
			conv.Append(Turn{Role: RoleAnswer, Content: answer})
			log.Debug("answered from retrieved context", "steps", steps+1)
			return answer, nil

		case stepRewrite:
			rewritten, err := e.rewrite.Rewrite(ctx, conv.Question())
			if err != nil {
				return "", fmt.Errorf("rewrite step failed: %w", err)
			}
			conv.Append(Turn{Role: RoleUser, Content: rewritten})
			current = stepDecide
		}
	}
}

// relevant normalizes a grade token. Anything but an affirmative counts as
// not relevant, so malformed oracle output routes back through rewrite.
func relevant(token string) bool {
	return strings.ToLower(strings.TrimSpace(token)) == "yes"
}

func joinPassages(passages []Passage) string {
	parts := make([]string, 0, len(passages))
	for _, p := range passages {
		parts = append(parts, p.Content)
	}
	return strings.Join(parts, "\n\n")
}
