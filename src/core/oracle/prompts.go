package oracle

// Prompt templates for the four judgments. Each oracle call renders a
// system/prompt pair from TemplateData.
const (
	DecideSystemTmpl = `You route questions for a retrieval-augmented assistant backed by a document corpus.
Decide whether the current question needs corpus passages before it can be answered.`

	DecidePromptTmpl = `The conversation so far:

{{.History}}

Current question:
{{.Question}}

Reply with exactly one line of JSON and nothing else:
- to search the corpus: {"action": "retrieve", "query": "<search query>"}
- to answer directly without searching: {"action": "answer", "answer": "<your answer>"}`

	GradeSystemTmpl = `You are a grader. Decide if the retrieved content is relevant to the user's question.`

	GradePromptTmpl = `Document:
{{.Context}}

Question:
{{.Question}}

Answer with a single word: 'yes' or 'no'.`

	RewriteSystemTmpl = `You reformulate questions so a document search returns better passages.`

	RewritePromptTmpl = `Rewrite the question for clarity:

Original Question:
{{.Question}}

Reply with the rewritten question only.`

	AnswerSystemTmpl = `You are an assistant for question-answering tasks.`

	AnswerPromptTmpl = `Use the following pieces of retrieved context to answer the question. If you don't know the answer, just say that you don't know. Use three sentences maximum and keep the answer concise.

Question: {{.Question}}

Context: {{.Context}}

Answer:`
)
