package agent_test

import (
	"context"
	"errors"
	"testing"

	"ragbot/src/core/agent"
)

type fakeDecision struct {
	decisions []agent.Decision
	err       error
	calls     [][]agent.Turn
	journal   *[]string
}

func (f *fakeDecision) Decide(ctx context.Context, turns []agent.Turn) (agent.Decision, error) {
	f.calls = append(f.calls, turns)
	if f.journal != nil {
		*f.journal = append(*f.journal, "decide")
	}
	if f.err != nil {
		return agent.Decision{}, f.err
	}
	i := len(f.calls) - 1
	if i >= len(f.decisions) {
		i = len(f.decisions) - 1
	}
	return f.decisions[i], nil
}

// currentQuestionDecision always requests retrieval with whatever question
// is currently posed.
type currentQuestionDecision struct {
	calls   [][]agent.Turn
	journal *[]string
}

func (f *currentQuestionDecision) Decide(ctx context.Context, turns []agent.Turn) (agent.Decision, error) {
	f.calls = append(f.calls, turns)
	if f.journal != nil {
		*f.journal = append(*f.journal, "decide")
	}
	return agent.Decision{Retrieve: true, Query: agent.CurrentQuestion(turns)}, nil
}

type fakeRetriever struct {
	passages []agent.Passage
	err      error
	queries  []string
	journal  *[]string
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string) ([]agent.Passage, error) {
	f.queries = append(f.queries, query)
	if f.journal != nil {
		*f.journal = append(*f.journal, "retrieve")
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.passages, nil
}

type fakeRelevance struct {
	tokens    []string
	err       error
	questions []string
	passages  []string
	journal   *[]string
}

func (f *fakeRelevance) Grade(ctx context.Context, question, passages string) (string, error) {
	f.questions = append(f.questions, question)
	f.passages = append(f.passages, passages)
	if f.journal != nil {
		*f.journal = append(*f.journal, "grade")
	}
	if f.err != nil {
		return "", f.err
	}
	i := len(f.questions) - 1
	if i >= len(f.tokens) {
		i = len(f.tokens) - 1
	}
	return f.tokens[i], nil
}

type fakeRewrite struct {
	rewrites  []string
	err       error
	questions []string
	journal   *[]string
}

func (f *fakeRewrite) Rewrite(ctx context.Context, question string) (string, error) {
	f.questions = append(f.questions, question)
	if f.journal != nil {
		*f.journal = append(*f.journal, "rewrite")
	}
	if f.err != nil {
		return "", f.err
	}
	i := len(f.questions) - 1
	if i >= len(f.rewrites) {
		i = len(f.rewrites) - 1
	}
	return f.rewrites[i], nil
}

type fakeAnswer struct {
	answer    string
	err       error
	questions []string
	contexts  []string
	journal   *[]string
}

func (f *fakeAnswer) Answer(ctx context.Context, question, contextText string) (string, error) {
	f.questions = append(f.questions, question)
	f.contexts = append(f.contexts, contextText)
	if f.journal != nil {
		*f.journal = append(*f.journal, "answer")
	}
	if f.err != nil {
		return "", f.err
	}
	return f.answer, nil
}

func newEngine(t *testing.T, d agent.DecisionOracle, r *fakeRetriever, g *fakeRelevance, w *fakeRewrite, a *fakeAnswer, opts ...agent.Option) *agent.Engine {
	t.Helper()
	e, err := agent.NewEngine(d, r, g, w, a, opts...)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	return e
}

func TestRunDirectAnswer(t *testing.T) {
	decision := &fakeDecision{decisions: []agent.Decision{{Answer: "Paris is the capital of France."}}}
	retriever := &fakeRetriever{}
	relevance := &fakeRelevance{tokens: []string{"yes"}}
	rewrite := &fakeRewrite{rewrites: []string{"unused"}}
	answer := &fakeAnswer{answer: "unused"}

	engine := newEngine(t, decision, retriever, relevance, rewrite, answer)

	got, err := engine.Run(context.Background(), "What is the capital of France?")
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "Paris is the capital of France." {
		t.Errorf("Run() = %q, want the direct answer unchanged", got)
	}
	if len(decision.calls) != 1 {
		t.Errorf("decision calls = %d, want 1", len(decision.calls))
	}
	if len(retriever.queries) != 0 {
		t.Errorf("retriever calls = %d, want 0", len(retriever.queries))
	}
	if len(relevance.questions) != 0 {
		t.Errorf("relevance calls = %d, want 0", len(relevance.questions))
	}
	if len(answer.questions) != 0 {
		t.Errorf("answer calls = %d, want 0", len(answer.questions))
	}
}

func TestRunAnswersOnRelevantRetrieval(t *testing.T) {
	question := "What was the 2023 revenue?"
	var journal []string

	decision := &fakeDecision{
		decisions: []agent.Decision{{Retrieve: true, Query: question}},
		journal:   &journal,
	}
	retriever := &fakeRetriever{
		passages: []agent.Passage{{Content: "Revenue reached 3 trillion in 2023.", Source: "report.pdf"}},
		journal:  &journal,
	}
	relevance := &fakeRelevance{tokens: []string{"yes"}, journal: &journal}
	rewrite := &fakeRewrite{rewrites: []string{"unused"}, journal: &journal}
	answer := &fakeAnswer{answer: "Revenue was 3 trillion.", journal: &journal}

	engine := newEngine(t, decision, retriever, relevance, rewrite, answer)

	got, err := engine.Run(context.Background(), question)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "Revenue was 3 trillion." {
		t.Errorf("Run() = %q, want the answer oracle output", got)
	}

	wantOrder := []string{"decide", "retrieve", "grade", "answer"}
	if len(journal) != len(wantOrder) {
		t.Fatalf("executed steps = %v, want %v", journal, wantOrder)
	}
	for i, step := range wantOrder {
		if journal[i] != step {
			t.Errorf("step %d = %q, want %q", i, journal[i], step)
		}
	}

	if retriever.queries[0] != question {
		t.Errorf("retrieval query = %q, want %q", retriever.queries[0], question)
	}
	if relevance.questions[0] != question {
		t.Errorf("grade question = %q, want the original question", relevance.questions[0])
	}
	if relevance.passages[0] != "Revenue reached 3 trillion in 2023." {
		t.Errorf("grade passages = %q, want the retrieved text", relevance.passages[0])
	}
	if answer.questions[0] != question {
		t.Errorf("answer question = %q, want the original question", answer.questions[0])
	}
	if answer.contexts[0] != "Revenue reached 3 trillion in 2023." {
		t.Errorf("answer context = %q, want the retrieved text", answer.contexts[0])
	}
}

func TestRunStepLimit(t *testing.T) {
	decision := &fakeDecision{decisions: []agent.Decision{{Retrieve: true, Query: "hopeless question"}}}
	retriever := &fakeRetriever{passages: []agent.Passage{{Content: "irrelevant", Source: "a.pdf"}}}
	relevance := &fakeRelevance{tokens: []string{"no"}}
	rewrite := &fakeRewrite{rewrites: []string{"still hopeless"}}
	answer := &fakeAnswer{answer: "never produced"}

	engine := newEngine(t, decision, retriever, relevance, rewrite, answer)

	_, err := engine.Run(context.Background(), "hopeless question")
	if !errors.Is(err, agent.ErrStepLimit) {
		t.Fatalf("Run() error = %v, want ErrStepLimit", err)
	}

	// With the default budget of five the run executes decide, retrieve,
	// grade, rewrite and a second decide before stopping.
	if len(decision.calls) != 2 {
		t.Errorf("decision calls = %d, want 2", len(decision.calls))
	}
	if len(retriever.queries) != 1 {
		t.Errorf("retriever calls = %d, want 1", len(retriever.queries))
	}
	if len(relevance.questions) != 1 {
		t.Errorf("relevance calls = %d, want 1", len(relevance.questions))
	}
	if len(rewrite.questions) != 1 {
		t.Errorf("rewrite calls = %d, want 1", len(rewrite.questions))
	}
	if len(answer.questions) != 0 {
		t.Errorf("answer calls = %d, want 0", len(answer.questions))
	}
}

func TestGradeAndAnswerUseOriginalQuestion(t *testing.T) {
	original := "What was the 2023 revenue?"

	decision := &currentQuestionDecision{}
	retriever := &fakeRetriever{passages: []agent.Passage{{Content: "passage", Source: "report.pdf"}}}
	relevance := &fakeRelevance{tokens: []string{"no", "no", "yes"}}
	rewrite := &fakeRewrite{rewrites: []string{"rewrite one", "rewrite two"}}
	answer := &fakeAnswer{answer: "final answer"}

	engine := newEngine(t, decision, retriever, relevance, rewrite, answer, agent.WithMaxSteps(20))

	got, err := engine.Run(context.Background(), original)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if got != "final answer" {
		t.Errorf("Run() = %q, want %q", got, "final answer")
	}

	if len(relevance.questions) != 3 {
		t.Fatalf("relevance calls = %d, want 3", len(relevance.questions))
	}
	for i, q := range relevance.questions {
		if q != original {
			t.Errorf("grade call %d question = %q, want the original question", i, q)
		}
	}
	for i, q := range rewrite.questions {
		if q != original {
			t.Errorf("rewrite call %d question = %q, want the original question", i, q)
		}
	}
	if answer.questions[0] != original {
		t.Errorf("answer question = %q, want the original question", answer.questions[0])
	}
}

func TestRewrittenQueryDrivesNextRetrieval(t *testing.T) {
	decision := &currentQuestionDecision{}
	retriever := &fakeRetriever{passages: []agent.Passage{{Content: "passage", Source: "report.pdf"}}}
	relevance := &fakeRelevance{tokens: []string{"no", "yes"}}
	rewrite := &fakeRewrite{rewrites: []string{"total revenue for fiscal year 2023"}}
	answer := &fakeAnswer{answer: "answer"}

	engine := newEngine(t, decision, retriever, relevance, rewrite, answer, agent.WithMaxSteps(10))

	if _, err := engine.Run(context.Background(), "revenue?"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	if len(retriever.queries) != 2 {
		t.Fatalf("retriever calls = %d, want 2", len(retriever.queries))
	}
	if retriever.queries[0] != "revenue?" {
		t.Errorf("first retrieval query = %q, want the original question", retriever.queries[0])
	}
	if retriever.queries[1] != "total revenue for fiscal year 2023" {
		t.Errorf("second retrieval query = %q, want the rewritten question", retriever.queries[1])
	}
}

func TestGradeFailsClosed(t *testing.T) {
	tests := []struct {
		name        string
		token       string
		wantRewrite bool
	}{
		{name: "affirmative", token: "yes", wantRewrite: false},
		{name: "uppercase", token: "YES", wantRewrite: false},
		{name: "padded", token: "  Yes\n", wantRewrite: false},
		{name: "negative", token: "no", wantRewrite: true},
		{name: "empty token", token: "", wantRewrite: true},
		{name: "unrecognized token", token: "maybe", wantRewrite: true},
		{name: "verbose affirmative", token: "yes, it is relevant", wantRewrite: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := &fakeDecision{decisions: []agent.Decision{{Retrieve: true, Query: "q"}}}
			retriever := &fakeRetriever{passages: []agent.Passage{{Content: "passage"}}}
			relevance := &fakeRelevance{tokens: []string{tt.token, "yes"}}
			rewrite := &fakeRewrite{rewrites: []string{"rewritten"}}
			answer := &fakeAnswer{answer: "answer"}

			engine := newEngine(t, decision, retriever, relevance, rewrite, answer, agent.WithMaxSteps(10))

			if _, err := engine.Run(context.Background(), "q"); err != nil {
				t.Fatalf("Run() error = %v", err)
			}

			gotRewrite := len(rewrite.questions) > 0
			if gotRewrite != tt.wantRewrite {
				t.Errorf("rewrite invoked = %v, want %v", gotRewrite, tt.wantRewrite)
			}
			if len(answer.questions) != 1 {
				t.Errorf("answer calls = %d, want 1", len(answer.questions))
			}
		})
	}
}

func TestRunJoinsPassagesForGrading(t *testing.T) {
	decision := &fakeDecision{decisions: []agent.Decision{{Retrieve: true, Query: "q"}}}
	retriever := &fakeRetriever{passages: []agent.Passage{
		{Content: "first passage", Source: "a.pdf"},
		{Content: "second passage", Source: "b.pdf"},
	}}
	relevance := &fakeRelevance{tokens: []string{"yes"}}
	rewrite := &fakeRewrite{rewrites: []string{"unused"}}
	answer := &fakeAnswer{answer: "answer"}

	engine := newEngine(t, decision, retriever, relevance, rewrite, answer)

	if _, err := engine.Run(context.Background(), "q"); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := "first passage\n\nsecond passage"
	if relevance.passages[0] != want {
		t.Errorf("grade passages = %q, want %q", relevance.passages[0], want)
	}
	if answer.contexts[0] != want {
		t.Errorf("answer context = %q, want %q", answer.contexts[0], want)
	}
}

func TestRunEmptyRetrievalFails(t *testing.T) {
	decision := &fakeDecision{decisions: []agent.Decision{{Retrieve: true, Query: "q"}}}
	retriever := &fakeRetriever{passages: nil}
	relevance := &fakeRelevance{tokens: []string{"yes"}}
	rewrite := &fakeRewrite{rewrites: []string{"unused"}}
	answer := &fakeAnswer{answer: "unused"}

	engine := newEngine(t, decision, retriever, relevance, rewrite, answer)

	_, err := engine.Run(context.Background(), "q")
	if !errors.Is(err, agent.ErrNoPassages) {
		t.Fatalf("Run() error = %v, want ErrNoPassages", err)
	}
	if len(relevance.questions) != 0 {
		t.Errorf("relevance calls = %d, want 0", len(relevance.questions))
	}
}

func TestRunOracleErrorsPropagate(t *testing.T) {
	oracleErr := errors.New("model unavailable")

	tests := []struct {
		name  string
		build func() (*agent.Engine, error)
	}{
		{
			name: "decision error",
			build: func() (*agent.Engine, error) {
				return agent.NewEngine(
					&fakeDecision{err: oracleErr},
					&fakeRetriever{passages: []agent.Passage{{Content: "p"}}},
					&fakeRelevance{tokens: []string{"yes"}},
					&fakeRewrite{rewrites: []string{"r"}},
					&fakeAnswer{answer: "a"},
				)
			},
		},
		{
			name: "retriever error",
			build: func() (*agent.Engine, error) {
				return agent.NewEngine(
					&fakeDecision{decisions: []agent.Decision{{Retrieve: true, Query: "q"}}},
					&fakeRetriever{err: oracleErr},
					&fakeRelevance{tokens: []string{"yes"}},
					&fakeRewrite{rewrites: []string{"r"}},
					&fakeAnswer{answer: "a"},
				)
			},
		},
		{
			name: "relevance error",
			build: func() (*agent.Engine, error) {
				return agent.NewEngine(
					&fakeDecision{decisions: []agent.Decision{{Retrieve: true, Query: "q"}}},
					&fakeRetriever{passages: []agent.Passage{{Content: "p"}}},
					&fakeRelevance{err: oracleErr},
					&fakeRewrite{rewrites: []string{"r"}},
					&fakeAnswer{answer: "a"},
				)
			},
		},
		{
			name: "rewrite error",
			build: func() (*agent.Engine, error) {
				return agent.NewEngine(
					&fakeDecision{decisions: []agent.Decision{{Retrieve: true, Query: "q"}}},
					&fakeRetriever{passages: []agent.Passage{{Content: "p"}}},
					&fakeRelevance{tokens: []string{"no"}},
					&fakeRewrite{err: oracleErr},
					&fakeAnswer{answer: "a"},
				)
			},
		},
		{
			name: "answer error",
			build: func() (*agent.Engine, error) {
				return agent.NewEngine(
					&fakeDecision{decisions: []agent.Decision{{Retrieve: true, Query: "q"}}},
					&fakeRetriever{passages: []agent.Passage{{Content: "p"}}},
					&fakeRelevance{tokens: []string{"yes"}},
					&fakeRewrite{rewrites: []string{"r"}},
					&fakeAnswer{err: oracleErr},
				)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine, err := tt.build()
			if err != nil {
				t.Fatalf("NewEngine() error = %v", err)
			}
			_, err = engine.Run(context.Background(), "q")
			if !errors.Is(err, oracleErr) {
				t.Errorf("Run() error = %v, want wrapped oracle error", err)
			}
			if errors.Is(err, agent.ErrStepLimit) {
				t.Errorf("Run() error = %v, must not be the step limit error", err)
			}
		})
	}
}

func TestRunEmptyQuestion(t *testing.T) {
	engine := newEngine(t,
		&fakeDecision{decisions: []agent.Decision{{Answer: "a"}}},
		&fakeRetriever{},
		&fakeRelevance{tokens: []string{"yes"}},
		&fakeRewrite{rewrites: []string{"r"}},
		&fakeAnswer{answer: "a"},
	)

	_, err := engine.Run(context.Background(), "   ")
	if !errors.Is(err, agent.ErrEmptyQuestion) {
		t.Errorf("Run() error = %v, want ErrEmptyQuestion", err)
	}
}

func TestRunContextCancelled(t *testing.T) {
	engine := newEngine(t,
		&fakeDecision{decisions: []agent.Decision{{Retrieve: true, Query: "q"}}},
		&fakeRetriever{passages: []agent.Passage{{Content: "p"}}},
		&fakeRelevance{tokens: []string{"yes"}},
		&fakeRewrite{rewrites: []string{"r"}},
		&fakeAnswer{answer: "a"},
	)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := engine.Run(ctx, "q")
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestNewEngineValidation(t *testing.T) {
	decision := &fakeDecision{decisions: []agent.Decision{{Answer: "a"}}}
	retriever := &fakeRetriever{}
	relevance := &fakeRelevance{tokens: []string{"yes"}}
	rewrite := &fakeRewrite{rewrites: []string{"r"}}
	answer := &fakeAnswer{answer: "a"}

	tests := []struct {
		name string
		fn   func() (*agent.Engine, error)
	}{
		{"nil decision", func() (*agent.Engine, error) {
			return agent.NewEngine(nil, retriever, relevance, rewrite, answer)
		}},
		{"nil retriever", func() (*agent.Engine, error) {
			return agent.NewEngine(decision, nil, relevance, rewrite, answer)
		}},
		{"nil relevance", func() (*agent.Engine, error) {
			return agent.NewEngine(decision, retriever, nil, rewrite, answer)
		}},
		{"nil rewrite", func() (*agent.Engine, error) {
			return agent.NewEngine(decision, retriever, relevance, nil, answer)
		}},
		{"nil answer", func() (*agent.Engine, error) {
			return agent.NewEngine(decision, retriever, relevance, rewrite, nil)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.fn(); err == nil {
				t.Error("NewEngine() error = nil, want an error")
			}
		})
	}
}
