package agent

import "context"

// Passage is one retrieved unit of corpus text with its source identifier.
type Passage struct {
	Content string
	Source  string
}

// Decision is the outcome of the decide step: either a direct answer or a
// request to run retrieval with the given query.
type Decision struct {
	Retrieve bool
	Query    string
	Answer   string
}

// DecisionOracle judges, over the full turn history, whether the current
// question needs corpus passages or can be answered directly.
type DecisionOracle interface {
	Decide(ctx context.Context, turns []Turn) (Decision, error)
}

// Retriever returns passages for a query, most relevant first.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]Passage, error)
}

// RelevanceOracle returns a raw yes/no token judging whether the retrieved
// text answers the question. The engine normalizes the token and fails
// closed on anything that is not an affirmative.
type RelevanceOracle interface {
	Grade(ctx context.Context, question, passages string) (string, error)
}

// RewriteOracle reformulates a question for a better retrieval attempt.
type RewriteOracle interface {
	Rewrite(ctx context.Context, question string) (string, error)
}

// AnswerOracle generates the final answer grounded on retrieved context.
type AnswerOracle interface {
	Answer(ctx context.Context, question, contextText string) (string, error)
}
