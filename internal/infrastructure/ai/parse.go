package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/doeshing/ergo/internal/domain"
)

type anthropicResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
}

func (a anthropicResponse) FirstText() (string, bool) {
	if len(a.Content) == 0 {
		return "", false
	}
	return a.Content[0].Text, true
}

// generatedCommand is the schema the service must answer with.
type generatedCommand struct {
	Name        string                     `json:"name"`
	Description string                     `json:"description"`
	Script      string                     `json:"script"`
	Permissions []domain.PermissionRequest `json:"permissions"`
}

// ParseEnvelope extracts the generated text block from a provider envelope
// and parses it against the command schema.
func ParseEnvelope(raw []byte) (domain.GenerationResult, error) {
	var envelope anthropicResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return domain.GenerationResult{}, &domain.GenerationError{Reason: "response is not JSON: " + err.Error(), Raw: string(raw)}
	}
	text, ok := envelope.FirstText()
	if !ok {
		return domain.GenerationResult{}, &domain.GenerationError{Reason: "response has no content block", Raw: string(raw)}
	}
	result, reason := parseCommand(text)
	if reason != "" {
		return domain.GenerationResult{}, &domain.GenerationError{Reason: reason, Raw: string(raw)}
	}
	return result, nil
}

func parseCommand(text string) (domain.GenerationResult, string) {
	var payload generatedCommand
	if err := json.Unmarshal([]byte(StripFences(text)), &payload); err != nil {
		return domain.GenerationResult{}, "generated text is not the expected JSON object: " + err.Error()
	}
	if strings.TrimSpace(payload.Name) == "" {
		return domain.GenerationResult{}, "generated command has no name"
	}
	if strings.TrimSpace(payload.Script) == "" {
		return domain.GenerationResult{}, "generated command has no script"
	}
	for i, perm := range payload.Permissions {
		if strings.TrimSpace(perm.Permission) == "" {
			return domain.GenerationResult{}, fmt.Sprintf("generated permission %d is empty", i+1)
		}
	}
	if payload.Permissions == nil {
		payload.Permissions = []domain.PermissionRequest{}
	}
	return domain.GenerationResult{
		Command: domain.CommandRecord{
			Name:        strings.TrimSpace(payload.Name),
			Description: payload.Description,
			Permissions: payload.Permissions,
		},
		ScriptContent: payload.Script,
	}, ""
}

// StripThinkBlocks removes <think>...</think> reasoning blocks.
func StripThinkBlocks(s string) string {
	for {
		start := strings.Index(s, "<think>")
		if start == -1 {
			break
		}
		end := strings.Index(s[start:], "</think>")
		if end == -1 {
			s = s[:start]
			break
		}
		s = s[:start] + s[start+end+len("</think>"):]
	}
	return strings.TrimSpace(s)
}

// StripFences removes a surrounding markdown code fence.
func StripFences(s string) string {
	s = StripThinkBlocks(strings.TrimSpace(s))
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		}
		if i := strings.LastIndex(s, "```"); i != -1 {
			s = s[:i]
		}
	}
	return strings.TrimSpace(s)
}
