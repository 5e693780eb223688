package ai

import (
	"fmt"
	"strings"

	"mochi-server/internal/model"
)

// Assemble builds the model context: persona framing, then history in the
// given order, then the new user message. It does not modify its inputs.
func Assemble(persona *model.Persona, history []model.Message, newUserText string) ModelRequest {
	messages := make([]ContextMessage, 0, len(history)+2)
	messages = append(messages, ContextMessage{Role: RoleSystem, Content: BuildPersonaPrompt(persona)})
	for _, msg := range history {
		messages = append(messages, ContextMessage{Role: roleFor(msg.Role), Content: msg.Content})
	}
	messages = append(messages, ContextMessage{Role: RoleUser, Content: newUserText})
	return ModelRequest{Messages: messages}
}

// BuildPersonaPrompt renders the system framing for a persona.
func BuildPersonaPrompt(persona *model.Persona) string {
	var b strings.Builder

	title := persona.Name
	if persona.Tag != "" {
		title = fmt.Sprintf("%s, %s", persona.Name, persona.Tag)
	}
	fmt.Fprintf(&b, "You are %s.\n", title)
	fmt.Fprintf(&b, "\nCharacter:\n- Name: %s\n", persona.Name)
	if persona.Description != "" {
		fmt.Fprintf(&b, "- Description: %s\n", persona.Description)
	}
	if persona.Tone != "" {
		fmt.Fprintf(&b, "- Tone: %s\n", persona.Tone)
	}
	if persona.Relationship != "" {
		fmt.Fprintf(&b, "- Relationship to the user: %s\n", persona.Relationship)
	}
	if persona.Greeting != "" {
		fmt.Fprintf(&b, "- Greeting: %s\n", persona.Greeting)
	}
	if len(persona.ForbiddenTopics) > 0 {
		fmt.Fprintf(&b, "\nNever discuss these topics, and gently steer away if the user raises them: %s.\n",
			strings.Join(persona.ForbiddenTopics, ", "))
	}
	fmt.Fprintf(&b, "\nStay in character as %s for the whole conversation and answer in a %s way.",
		persona.Name, strings.ToLower(fallback(persona.Tone, "warm")))
	return b.String()
}

func fallback(value, def string) string {
	if strings.TrimSpace(value) == "" {
		return def
	}
	return value
}
