package ai

import "context"

// Role is the conversational role of a turn, in the managed protocol's
// naming. The OpenAI-compatible path maps RoleModel to "assistant" on the
// wire.
type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

// Turn is one prior exchange in the conversation
type Turn struct {
	Role Role
	Text string
}

// Request carries everything one completion call needs. Credentials and
// endpoint travel with the request because they are user-editable settings,
// not process configuration.
type Request struct {
	System      string
	Turns       []Turn
	Model       string
	Temperature float64
	APIKey      string
	BaseURL     string
}

// Completer produces one completion per request. The production
// implementation is Gateway; tests substitute fakes.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}
