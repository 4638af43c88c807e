// Package errors provides the single structured error kind every
// Quack compiler pass raises (spec.md §7): all semantic failures
// collapse to a *Report carrying a code, phase, message and optional
// source position, distinguishing cause but not Go type.
package errors

import (
	"encoding/json"
	"errors"
	"fmt"
	"runtime"

	"github.com/quacklang/quackc/internal/ast"
)

// Report is the canonical structured error type for Quack.
type Report struct {
	Code    string         `json:"code"`
	Phase   string         `json:"phase"`
	Message string         `json:"message"`
	Pos     *ast.Pos       `json:"pos,omitempty"`
	Data    map[string]any `json:"data,omitempty"`

	stack []uintptr // captured at construction, rendered only by -v
}

// ReportError wraps a Report as an error so that it survives
// errors.As() unwrapping through any number of fmt.Errorf("...: %w",
// err) layers a pass adds while propagating it up the pipeline
// (spec.md §7: "a structural error inside a tree-walking visitor is
// unwrapped from any wrapper to expose the underlying cause").
type ReportError struct {
	Rep *Report
}

func (e *ReportError) Error() string {
	if e.Rep == nil {
		return "unknown compile error"
	}
	return e.Rep.Code + ": " + e.Rep.Message
}

// AsReport extracts a *Report from an error chain, if any link in the
// chain is a *ReportError.
func AsReport(err error) (*Report, bool) {
	var re *ReportError
	if errors.As(err, &re) {
		return re.Rep, true
	}
	return nil, false
}

// New constructs a Report for the given phase/code/message, capturing
// the current call stack for later -v rendering (spec.md §6).
func New(phase, code, message string, pos *ast.Pos) *Report {
	r := &Report{Phase: phase, Code: code, Message: message, Pos: pos}
	r.stack = captureStack()
	return r
}

// Newf is New with a formatted message.
func Newf(phase, code string, pos *ast.Pos, format string, args ...any) *Report {
	return New(phase, code, fmt.Sprintf(format, args...), pos)
}

// Wrap turns a Report into an error.
func (r *Report) Wrap() error {
	if r == nil {
		return nil
	}
	return &ReportError{Rep: r}
}

// WithData attaches structured key/value context to a Report and
// returns it (for chaining at the error's construction site).
func (r *Report) WithData(key string, value any) *Report {
	if r.Data == nil {
		r.Data = map[string]any{}
	}
	r.Data[key] = value
	return r
}

// Format renders the error following spec.md §6's source-position
// surface: "<source> (<line>:<col>): <message>" when the node carries
// position info, else "<source>: <message>".
func (r *Report) Format(sourceName string) string {
	if r.Pos != nil && r.Pos.IsValid() {
		return fmt.Sprintf("%s (%d:%d): %s", sourceName, r.Pos.Line, r.Pos.Column, r.Message)
	}
	return fmt.Sprintf("%s: %s", sourceName, r.Message)
}

// StackTrace renders the captured call stack, for -v/--verbose mode.
func (r *Report) StackTrace() string {
	frames := runtime.CallersFrames(r.stack)
	out := ""
	for {
		frame, more := frames.Next()
		out += fmt.Sprintf("\t%s\n\t\t%s:%d\n", frame.Function, frame.File, frame.Line)
		if !more {
			break
		}
	}
	return out
}

func captureStack() []uintptr {
	pcs := make([]uintptr, 32)
	// skip runtime.Callers, captureStack, and New/Newf themselves
	n := runtime.Callers(3, pcs)
	return pcs[:n]
}

// ToJSON serialises a Report to indented JSON, useful for tooling
// that wants to consume compiler diagnostics programmatically.
func (r *Report) ToJSON() (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
