package config

import "fmt"

// DiagnosticStage names which phase of config compilation produced a
// Diagnostic, mirroring the teacher's staged compiler diagnostics.
type DiagnosticStage string

const (
	StageLexer    DiagnosticStage = "lexer"
	StageParser   DiagnosticStage = "parser"
	StageEval     DiagnosticStage = "eval"
)

// DiagnosticCategory further classifies a Diagnostic within its stage.
type DiagnosticCategory string

const (
	CategoryLexError    DiagnosticCategory = "LexError"
	CategorySyntaxError DiagnosticCategory = "SyntaxError"
	CategoryNameError   DiagnosticCategory = "NameError"
	CategoryTypeError   DiagnosticCategory = "TypeError"
	CategoryArityError  DiagnosticCategory = "ArityError"
	CategoryScopeError  DiagnosticCategory = "ScopeError"
)

// Diagnostic is one error produced while compiling a pipeline configuration
// script, carrying enough source position to print a caret under the
// offending span.
type Diagnostic struct {
	Stage    DiagnosticStage
	Category DiagnosticCategory
	Message  string
	Span     Span
}

func (d Diagnostic) Error() string {
	if d.Span.Start.Line > 0 {
		return fmt.Sprintf("%d:%d: %s", d.Span.Start.Line, d.Span.Start.Column, d.Message)
	}
	return d.Message
}

// DiagnosticsError wraps the full set of diagnostics produced by a failed
// compile so callers can report every error at once.
type DiagnosticsError struct {
	Diagnostics []Diagnostic
}

func (e *DiagnosticsError) Error() string {
	if e == nil || len(e.Diagnostics) == 0 {
		return ""
	}
	return e.Diagnostics[0].Error()
}

// ShowInSource renders the offending line(s) with a caret underline, the
// same presentation the original mapper's span-aware errors used.
func (d Diagnostic) ShowInSource(source string) string {
	lines := splitLines(source)
	s, e := d.Span.Start, d.Span.End
	if s.Line < 1 || s.Line > len(lines) {
		return d.Message
	}
	line := lines[s.Line-1]
	width := e.Column - s.Column
	if width < 1 {
		width = 1
	}
	if s.Column-1 > len(line) {
		return fmt.Sprintf("%4d | %s\n     | %s", s.Line, line, d.Message)
	}
	pad := s.Column - 1
	if pad < 0 {
		pad = 0
	}
	caretLine := repeat(" ", pad) + repeat("^", width)
	return fmt.Sprintf("%4d | %s\n     | %s\n%s", s.Line, line, caretLine, d.Message)
}

func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			lines = append(lines, s[start:i])
			start = i + 1
		}
	}
	lines = append(lines, s[start:])
	return lines
}

func repeat(s string, n int) string {
	out := make([]byte, 0, n*len(s))
	for i := 0; i < n; i++ {
		out = append(out, s...)
	}
	return string(out)
}
