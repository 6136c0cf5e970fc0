package ai

import (
	"context"
	"testing"
)

func TestMockGenerator_Patterns(t *testing.T) {
	tests := []struct {
		name      string
		wantPerms []string
	}{
		{name: "hello"},
		{name: "uuid"},
		{name: "timestamp"},
		{name: "weather", wantPerms: []string{"--allow-net=wttr.in"}},
		{name: "project-info", wantPerms: []string{"--allow-read", "--allow-run=git"}},
		{name: "git-log", wantPerms: []string{"--allow-run=git"}},
		{name: "anything"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := MockGenerator{}.Generate(context.Background(), tt.name, nil)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			got := result.Command.PermissionFlags()
			if len(got) != len(tt.wantPerms) {
				t.Fatalf("permissions = %v, want %v", got, tt.wantPerms)
			}
			for i := range got {
				if got[i] != tt.wantPerms[i] {
					t.Fatalf("permissions = %v, want %v", got, tt.wantPerms)
				}
			}
			if result.ScriptContent == "" || result.Command.Name != tt.name {
				t.Fatalf("unexpected result %+v", result)
			}
		})
	}
}

func TestSuggestName(t *testing.T) {
	tests := map[string]string{
		"Show me the current date": "show-me-the",
		"   ":                      "generated-command",
		"count files!":             "count-files",
	}
	for in, want := range tests {
		if got := SuggestName(in); got != want {
			t.Fatalf("SuggestName(%q) = %q, want %q", in, got, want)
		}
	}
}
