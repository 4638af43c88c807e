package errors

import (
	"fmt"
	"strings"
	"testing"

	"github.com/quacklang/quackc/internal/ast"
)

func TestFormatWithPosition(t *testing.T) {
	rep := New("typecheck", TC001UnknownType, "unknown class \"Ghost\"", &ast.Pos{File: "a.qk", Line: 3, Column: 5})
	got := rep.Format("a.qk")
	want := "a.qk (3:5): unknown class \"Ghost\""
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

func TestFormatWithoutPosition(t *testing.T) {
	rep := New("typecheck", TC001UnknownType, "unknown class \"Ghost\"", nil)
	got := rep.Format("a.qk")
	want := "a.qk: unknown class \"Ghost\""
	if got != want {
		t.Errorf("Format = %q, want %q", got, want)
	}
}

func TestAsReportUnwrapsThroughFmtErrorf(t *testing.T) {
	rep := New("classload", CLS001UnknownType, "unknown supertype", nil)
	err := fmt.Errorf("loading class: %w", rep.Wrap())
	err = fmt.Errorf("pipeline: %w", err)

	got, ok := AsReport(err)
	if !ok {
		t.Fatal("expected AsReport to find the wrapped *Report")
	}
	if got != rep {
		t.Error("expected AsReport to return the original *Report")
	}
}

func TestAsReportFalseForPlainError(t *testing.T) {
	_, ok := AsReport(fmt.Errorf("boom"))
	if ok {
		t.Error("expected AsReport to fail for a non-Report error")
	}
}

func TestWrapOfNilReportIsNilError(t *testing.T) {
	var rep *Report
	if err := rep.Wrap(); err != nil {
		t.Errorf("expected a nil *Report to wrap to a nil error, got %v", err)
	}
}

func TestWithDataAttachesContext(t *testing.T) {
	rep := New("typecheck", TC005NotASubtype, "not a subtype", nil).WithData("got", "Dog").WithData("want", "Cat")
	if rep.Data["got"] != "Dog" || rep.Data["want"] != "Cat" {
		t.Errorf("unexpected Data: %#v", rep.Data)
	}
}

func TestToJSONRoundTripsCoreFields(t *testing.T) {
	rep := New("varcheck", VAR001VarUndefined, "undefined variable \"y\"", &ast.Pos{File: "a.qk", Line: 1, Column: 1})
	js, err := rep.ToJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, want := range []string{`"code"`, VAR001VarUndefined, `"phase": "varcheck"`, "undefined variable"} {
		if !strings.Contains(js, want) {
			t.Errorf("expected ToJSON output to contain %q, got %s", want, js)
		}
	}
}

func TestReportErrorMessageFallsBackWhenNil(t *testing.T) {
	e := &ReportError{}
	if e.Error() != "unknown compile error" {
		t.Errorf("Error() = %q, want fallback message", e.Error())
	}
}
