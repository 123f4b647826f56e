// Package transcript holds the ordered conversation history for one relay session.
package transcript

// Role identifies who produced a turn
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn is one exchange unit in the conversation
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Store is the ordered conversation history owned by one session.
// The system turn is inserted at construction and is always first.
// Mutation happens only on the owning session's turn-runner goroutine,
// so the store itself carries no locking.
type Store struct {
	turns []Turn
}

// New creates a store seeded with the system prompt
func New(systemPrompt string) *Store {
	return &Store{
		turns: []Turn{{Role: RoleSystem, Content: systemPrompt}},
	}
}

// AppendUser appends a caller utterance
func (s *Store) AppendUser(content string) {
	s.turns = append(s.turns, Turn{Role: RoleUser, Content: content})
}

// AppendAssistant appends a completed agent reply
func (s *Store) AppendAssistant(content string) {
	s.turns = append(s.turns, Turn{Role: RoleAssistant, Content: content})
}

// Turns returns a copy of the history in insertion order
func (s *Store) Turns() []Turn {
	out := make([]Turn, len(s.turns))
	copy(out, s.turns)
	return out
}

// Len returns the number of turns, including the system turn
func (s *Store) Len() int {
	return len(s.turns)
}

// Last returns the most recent turn
func (s *Store) Last() Turn {
	return s.turns[len(s.turns)-1]
}
