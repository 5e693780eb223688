package ai

import "mochi-server/internal/model"

type Role string

const (
	RoleSystem Role = "system"
	RoleUser   Role = "user"
	RoleModel  Role = "model"
)

type ContextMessage struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ModelRequest is the ordered context handed to a model provider. The persona
// framing, when present, is the first message with RoleSystem.
type ModelRequest struct {
	Messages []ContextMessage `json:"messages"`
}

// System returns the persona framing and the conversational turns after it.
func (r ModelRequest) System() (string, []ContextMessage) {
	if len(r.Messages) > 0 && r.Messages[0].Role == RoleSystem {
		return r.Messages[0].Content, r.Messages[1:]
	}
	return "", r.Messages
}

func roleFor(role model.Role) Role {
	if role == model.RoleModel {
		return RoleModel
	}
	return RoleUser
}
