package agent

// Role tags one turn of conversation state.
type Role string

const (
	RoleUser       Role = "user"
	RoleDecision   Role = "assistant-decision"
	RoleToolResult Role = "tool-result"
	RoleAnswer     Role = "assistant-answer"
)

// ToolRetrieve names the retrieval invocation recorded on decision turns.
const ToolRetrieve = "retrieve"

// Invocation records a retrieval request made by the decide step.
type Invocation struct {
	Tool  string
	Query string
}

// Turn is one unit of conversation content. Turns are never modified after
// they are appended.
type Turn struct {
	Role       Role
	Content    string
	Invocation *Invocation
}

// Conversation is the append-only turn sequence owned by a single engine run.
// The first turn always holds the original question; grading and answering
// keep using it even after rewrites.
type Conversation struct {
	turns []Turn
}

// NewConversation starts a conversation with the user's question as the
// first turn.
func NewConversation(question string) *Conversation {
	return &Conversation{turns: []Turn{{Role: RoleUser, Content: question}}}
}

// Append adds a turn to the end of the conversation.
func (c *Conversation) Append(t Turn) {
	c.turns = append(c.turns, t)
}

// Question returns the canonical original question from the first turn.
func (c *Conversation) Question() string {
	return c.turns[0].Content
}

// CurrentQuestion returns the question as currently posed, original or
// rewritten.
func (c *Conversation) CurrentQuestion() string {
	return CurrentQuestion(c.turns)
}

// Last returns the most recently appended turn.
func (c *Conversation) Last() Turn {
	return c.turns[len(c.turns)-1]
}

// Len returns the number of turns.
func (c *Conversation) Len() int {
	return len(c.turns)
}

// Turns returns a copy of the turn history.
func (c *Conversation) Turns() []Turn {
	out := make([]Turn, len(c.turns))
	copy(out, c.turns)
	return out
}

// CurrentQuestion returns the content of the most recent user turn.
func CurrentQuestion(turns []Turn) string {
	for i := len(turns) - 1; i >= 0; i-- {
		if turns[i].Role == RoleUser {
			return turns[i].Content
		}
	}
	return ""
}
