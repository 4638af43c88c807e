// Package emit implements the Emitter (spec.md §4.8): it writes one
// `.asm` file per class, using the `.class`/`.field`/`.method` text
// directive grammar the Generator's instructions feed into.
package emit

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/quacklang/quackc/internal/ast"
	"github.com/quacklang/quackc/internal/codegen"
)

// File renders one ClassObject as the contents of its `<Name>.asm`
// file. Field declarations are only emitted for fields the class
// introduces itself; a subclass's inherited fields are assumed
// already declared in the ancestor's own file, matching the source
// compiler's per-class field-directive convention.
func File(c *codegen.ClassObject) string {
	var b strings.Builder

	fmt.Fprintf(&b, ".class %s:%s\n", c.Name, c.Super)

	fields := append([]string(nil), c.Fields...)
	sort.Strings(fields)
	for _, f := range fields {
		fmt.Fprintf(&b, ".field %s\n", f)
	}

	for _, m := range c.Methods {
		if m.Name == ast.ConstructorName {
			continue
		}
		fmt.Fprintf(&b, ".method %s forward\n", m.Name)
	}
	b.WriteString("\n")

	for _, m := range c.Methods {
		writeMethod(&b, m)
	}

	return b.String()
}

func writeMethod(b *strings.Builder, m *codegen.MethodObject) {
	fmt.Fprintf(b, ".method %s\n", m.Name)
	if len(m.Args) > 0 {
		fmt.Fprintf(b, ".args %s\n", strings.Join(m.Args, ","))
	}
	if len(m.LocalOrder) > 0 {
		fmt.Fprintf(b, ".local %s\n", strings.Join(m.LocalOrder, ","))
	}
	for _, line := range m.Code {
		b.WriteString(line)
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

// WriteTo writes c's assembly to w, returning the byte count written.
// Callers that write to disk go through this so a future non-file sink
// (an in-memory archive for the test suite, say) can reuse the same
// rendering without duplicating it.
func WriteTo(w io.Writer, c *codegen.ClassObject) (int, error) {
	return io.WriteString(w, File(c))
}

// FileName returns the conventional output file name for a class.
func FileName(c *codegen.ClassObject) string {
	return c.Name + ".asm"
}
