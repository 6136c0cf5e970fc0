package domain

import (
	"strings"
	"unicode"
)

// IntentKind distinguishes a named command from a natural-language request.
type IntentKind string

const (
	IntentCommand        IntentKind = "command"
	IntentConversational IntentKind = "conversational"
)

// Intent is the classified form of the user's positional arguments.
type Intent struct {
	Kind        IntentKind
	Name        string
	Args        []string
	Description string
}

// ClassifyIntent applies the routing rule: exactly one token that contains a
// whitespace character is a description, anything else is a command name
// followed by its arguments. It returns false for an empty intent.
func ClassifyIntent(tokens []string) (Intent, bool) {
	if len(tokens) == 0 {
		return Intent{}, false
	}
	if len(tokens) == 1 && strings.IndexFunc(tokens[0], unicode.IsSpace) >= 0 {
		return Intent{Kind: IntentConversational, Description: tokens[0]}, true
	}
	args := make([]string, len(tokens)-1)
	copy(args, tokens[1:])
	return Intent{Kind: IntentCommand, Name: tokens[0], Args: args}, true
}
