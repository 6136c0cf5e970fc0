package cli

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/google/go-cmp/cmp"

	"github.com/doeshing/ergo/internal/domain"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

func sampleRecord() domain.CommandRecord {
	return domain.CommandRecord{
		Name:        "weather",
		Description: "Show the weather",
		Permissions: []domain.PermissionRequest{
			{Permission: "--allow-net=wttr.in", Reason: "fetch the forecast"},
			{Permission: "--allow-env=HOME", Reason: "read the home directory"},
		},
	}
}

func TestPrompter_RequestConsent(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    domain.Consent
		invalid int
	}{
		{name: "once", input: "1\n", want: domain.ConsentAcceptOnce},
		{name: "forever", input: "2\n", want: domain.ConsentAcceptForever},
		{name: "deny", input: "3\n", want: domain.ConsentDenied},
		{name: "trimmed", input: "  2  \n", want: domain.ConsentAcceptForever},
		{name: "retries until valid", input: "yes\n4\n\n1\n", want: domain.ConsentAcceptOnce, invalid: 3},
		{name: "last line without newline", input: "3", want: domain.ConsentDenied},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			p := NewPrompter(strings.NewReader(tt.input), &out)
			got, err := p.RequestConsent(sampleRecord())
			if err != nil {
				t.Fatalf("RequestConsent: %v", err)
			}
			if got != tt.want {
				t.Fatalf("consent = %s, want %s", got, tt.want)
			}
			if n := strings.Count(out.String(), "Invalid choice. Please enter 1, 2, or 3."); n != tt.invalid {
				t.Fatalf("invalid notices = %d, want %d", n, tt.invalid)
			}
		})
	}
}

func TestPrompter_ShowsPermissions(t *testing.T) {
	var out bytes.Buffer
	p := NewPrompter(strings.NewReader("3\n"), &out)
	if _, err := p.RequestConsent(sampleRecord()); err != nil {
		t.Fatalf("RequestConsent: %v", err)
	}
	text := out.String()
	for _, want := range []string{
		"PERMISSION REQUEST",
		"Command: weather",
		"Description: Show the weather",
		"1. --allow-net=wttr.in",
		"Why: fetch the forecast",
		"2. --allow-env=HOME",
		"Accept Once",
		"Accept Forever",
		"Deny",
		"Choose an option (1/2/3): ",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("prompt missing %q:\n%s", want, text)
		}
	}
}

func TestPrompter_EOFIsAnError(t *testing.T) {
	for _, input := range []string{"", "maybe\n"} {
		p := NewPrompter(strings.NewReader(input), &bytes.Buffer{})
		if _, err := p.RequestConsent(sampleRecord()); err == nil {
			t.Fatalf("input %q: expected error at end of input", input)
		}
	}
}

func TestPrompter_LeavesRemainingInputUnread(t *testing.T) {
	in := strings.NewReader("1\ndata for the script\n")
	p := NewPrompter(in, &bytes.Buffer{})
	if _, err := p.RequestConsent(sampleRecord()); err != nil {
		t.Fatalf("RequestConsent: %v", err)
	}
	rest, err := io.ReadAll(in)
	if err != nil {
		t.Fatalf("ReadAll: %v", err)
	}
	if string(rest) != "data for the script\n" {
		t.Fatalf("remaining input = %q", rest)
	}
}

func TestRenderer(t *testing.T) {
	perms := sampleRecord().Permissions
	tests := []struct {
		name    string
		verbose bool
		render  func(r *Renderer)
		want    string
	}{
		{
			name:   "info always shown",
			render: func(r *Renderer) { r.Info("hello") },
			want:   "hello\n",
		},
		{
			name:   "narrate hidden when quiet",
			render: func(r *Renderer) { r.Narrate("generating") },
			want:   "",
		},
		{
			name:    "narrate shown when verbose",
			verbose: true,
			render:  func(r *Renderer) { r.Narrate("generating") },
			want:    "generating\n",
		},
		{
			name:   "running lists permissions",
			render: func(r *Renderer) { r.Running("weather", perms) },
			want:   "Running 'weather' with permissions:\n  --allow-net=wttr.in\n  --allow-env=HOME\n",
		},
		{
			name:   "running without permissions is quiet",
			render: func(r *Renderer) { r.Running("hello", nil) },
			want:   "",
		},
		{
			name:    "running without permissions when verbose",
			verbose: true,
			render:  func(r *Renderer) { r.Running("hello", nil) },
			want:    "Running 'hello' (no special permissions needed)\n",
		},
		{
			name:   "denied",
			render: func(r *Renderer) { r.Denied("weather") },
			want:   "Permission denied for command 'weather'\nThe command will not be executed.\n",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			tt.render(NewRenderer(&out, tt.verbose))
			if diff := cmp.Diff(tt.want, out.String()); diff != "" {
				t.Fatalf("output mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

type recordingGenerator struct {
	calls []string
	err   error
}

func (g *recordingGenerator) Generate(_ context.Context, name string, _ []string) (domain.GenerationResult, error) {
	g.calls = append(g.calls, "generate:"+name)
	return domain.GenerationResult{Command: domain.CommandRecord{Name: name}}, g.err
}

func (g *recordingGenerator) GenerateFromDescription(_ context.Context, description string) (domain.GenerationResult, error) {
	g.calls = append(g.calls, "describe:"+description)
	return domain.GenerationResult{}, g.err
}

func (g *recordingGenerator) Regenerate(_ context.Context, req domain.FeedbackRequest) (domain.GenerationResult, error) {
	g.calls = append(g.calls, "regenerate:"+req.CommandName)
	return domain.GenerationResult{}, g.err
}

func TestSpinningGenerator_Delegates(t *testing.T) {
	inner := &recordingGenerator{}
	var out bytes.Buffer
	gen := NewSpinningGenerator(inner, &out)

	res, err := gen.Generate(context.Background(), "hello", nil)
	if err != nil || res.Command.Name != "hello" {
		t.Fatalf("Generate = %+v, %v", res, err)
	}
	if _, err := gen.GenerateFromDescription(context.Background(), "list files"); err != nil {
		t.Fatalf("GenerateFromDescription: %v", err)
	}
	if _, err := gen.Regenerate(context.Background(), domain.FeedbackRequest{CommandName: "hello"}); err != nil {
		t.Fatalf("Regenerate: %v", err)
	}

	want := []string{"generate:hello", "describe:list files", "regenerate:hello"}
	if diff := cmp.Diff(want, inner.calls); diff != "" {
		t.Fatalf("calls mismatch (-want +got):\n%s", diff)
	}
	if !strings.HasSuffix(out.String(), "\r\033[K") {
		t.Fatalf("spinner line was not cleared: %q", out.String())
	}
}

func TestSpinningGenerator_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	gen := NewSpinningGenerator(&recordingGenerator{err: boom}, &bytes.Buffer{})
	if _, err := gen.Generate(context.Background(), "x", nil); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
}

func TestIsTerminal_NonFile(t *testing.T) {
	if IsTerminal(&bytes.Buffer{}) {
		t.Fatalf("a buffer is not a terminal")
	}
}

func TestRootFlags_StopAtFirstIntentToken(t *testing.T) {
	tests := []struct {
		name     string
		argv     []string
		wantArgs []string
	}{
		{
			name:     "intent flags belong to the intent",
			argv:     []string{"-v", "ls", "-la", "--nope"},
			wantArgs: []string{"ls", "-la", "--nope"},
		},
		{
			name:     "nope feedback words",
			argv:     []string{"--nope", "make", "it", "faster"},
			wantArgs: []string{"make", "it", "faster"},
		},
		{
			name:     "description stays one token",
			argv:     []string{"list all markdown files"},
			wantArgs: []string{"list all markdown files"},
		},
		{
			name:     "history with attached value",
			argv:     []string{"--history=5"},
			wantArgs: []string{},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			root := NewRootCmd(Options{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}, Stdin: strings.NewReader("")})
			if err := root.Flags().Parse(tt.argv); err != nil {
				t.Fatalf("Parse: %v", err)
			}
			got := root.Flags().Args()
			if got == nil {
				got = []string{}
			}
			if diff := cmp.Diff(tt.wantArgs, got); diff != "" {
				t.Fatalf("args mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestRootFlags_HistoryDefault(t *testing.T) {
	root := NewRootCmd(Options{Stdout: &bytes.Buffer{}, Stderr: &bytes.Buffer{}})
	if err := root.Flags().Parse([]string{"--history"}); err != nil {
		t.Fatalf("Parse: %v", err)
	}
	got, err := root.Flags().GetInt("history")
	if err != nil {
		t.Fatalf("GetInt: %v", err)
	}
	if got != domain.DefaultHistoryLimit {
		t.Fatalf("history = %d, want %d", got, domain.DefaultHistoryLimit)
	}
}

func TestFeedbackText(t *testing.T) {
	tests := []struct {
		args []string
		want string
	}{
		{args: nil, want: ""},
		{args: []string{"use celsius"}, want: "use celsius"},
		{args: []string{"use", "celsius"}, want: "use celsius"},
		{args: []string{"  "}, want: ""},
	}
	for _, tt := range tests {
		if got := feedbackText(tt.args); got != tt.want {
			t.Errorf("feedbackText(%q) = %q, want %q", tt.args, got, tt.want)
		}
	}
}

func TestHistoryLimit(t *testing.T) {
	tests := []struct {
		value int
		args  []string
		want  int
	}{
		{value: 20, want: 20},
		{value: 5, want: 5},
		{value: 20, args: []string{"3"}, want: 3},
		{value: 0, want: domain.DefaultHistoryLimit},
		{value: 7, args: []string{"abc"}, want: 7},
	}
	for _, tt := range tests {
		if got := historyLimit(tt.value, tt.args); got != tt.want {
			t.Errorf("historyLimit(%d, %q) = %d, want %d", tt.value, tt.args, got, tt.want)
		}
	}
}
