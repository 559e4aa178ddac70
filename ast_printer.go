package idlc

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
)

// indentWriter accumulates indented text, trimmed from the teacher's
// generic treePrinter[T] (tree_printer.go) down to the handful of
// methods AstPrinter actually calls: neither the type parameter nor
// its format callback were ever exercised once specialized to
// TypeDescriptor nodes.
type indentWriter struct {
	padStr []string
	output strings.Builder
}

func (w *indentWriter) indent(s string) { w.padStr = append(w.padStr, s) }
func (w *indentWriter) unindent()       { w.padStr = w.padStr[:len(w.padStr)-1] }
func (w *indentWriter) write(s string)  { w.output.WriteString(s) }

func (w *indentWriter) pwrite(s string) {
	for _, item := range w.padStr {
		w.write(item)
	}
	w.write(s)
}
func (w *indentWriter) pwritel(s string) {
	w.pwrite(s)
	w.output.WriteRune('\n')
}

var literalSanitizer = strings.NewReplacer(
	`"`, `\"`,
	`\`, `\\`,
	string('\n'), `\n`,
	string('\r'), `\r`,
	string('\t'), `\t`,
)

func escapeLiteral(s string) string {
	return literalSanitizer.Replace(s)
}

// AstPrinter renders a Module's registered declarations as an indented
// tree. Call sites are cmd/idlc's `parse`, `ast` and `repl` subcommands.
type AstPrinter struct {
	tp       *indentWriter
	colorize bool
}

func NewAstPrinter(colorize bool) *AstPrinter {
	return &AstPrinter{tp: &indentWriter{}, colorize: colorize}
}

func (a *AstPrinter) paint(c *color.Color, s string) string {
	if !a.colorize {
		return s
	}
	return c.Sprint(s)
}

// Print renders mod and every nested submodule, struct, union, enum,
// alias, bitset, and bitmask it owns.
func (a *AstPrinter) Print(mod *Module) string {
	a.printModule(mod)
	return a.tp.output.String()
}

func (a *AstPrinter) printModule(mod *Module) {
	label := mod.Name()
	if label == "" {
		label = "<root>"
	}
	a.tp.pwritel(a.paint(color.New(color.FgCyan, color.Bold), "module "+label))
	a.tp.indent("  ")

	for name, td := range mod.structs {
		a.printStruct(name, td)
	}
	for name, td := range mod.unions {
		a.printUnion(name, td)
	}
	for name, td := range mod.enums {
		a.printEnum(name, td)
	}
	for name, td := range mod.aliases {
		a.printAlias(name, td)
	}
	for name, td := range mod.bitsets {
		a.printBitset(name, td)
	}
	for name, td := range mod.bitmasks {
		a.printBitmask(name, td)
	}
	for _, child := range mod.inner {
		a.printModule(child)
	}

	a.tp.unindent()
}

func (a *AstPrinter) printStruct(name string, td *TypeDescriptor) {
	a.tp.pwritel(a.paint(color.New(color.FgGreen), fmt.Sprintf("struct %s", name)))
	a.tp.indent("  ")
	if td.BaseType != nil {
		a.tp.pwritel(": " + td.BaseType.Name)
	}
	for _, m := range td.Members {
		a.printMember(m)
	}
	a.tp.unindent()
}

func (a *AstPrinter) printUnion(name string, td *TypeDescriptor) {
	a.tp.pwritel(a.paint(color.New(color.FgGreen), fmt.Sprintf("union %s switch(%s)", name, typeName(td.Discriminant))))
	a.tp.indent("  ")
	for _, c := range td.Cases {
		label := "default"
		if !c.IsDefault {
			label = fmt.Sprintf("case %v", c.Labels)
		}
		a.tp.pwrite(label + " ")
		a.printMember(c.Member)
	}
	a.tp.unindent()
}

func (a *AstPrinter) printEnum(name string, td *TypeDescriptor) {
	a.tp.pwritel(a.paint(color.New(color.FgYellow), fmt.Sprintf("enum %s", name)))
	a.tp.indent("  ")
	for _, lit := range td.EnumLiterals {
		a.tp.pwritel(fmt.Sprintf("%s = %d", lit.Name, lit.Value))
	}
	a.tp.unindent()
}

func (a *AstPrinter) printAlias(name string, td *TypeDescriptor) {
	a.tp.pwritel(fmt.Sprintf("typedef %s = %s", name, typeName(td.AliasOf)))
}

func (a *AstPrinter) printBitset(name string, td *TypeDescriptor) {
	a.tp.pwritel(a.paint(color.New(color.FgMagenta), fmt.Sprintf("bitset %s", name)))
	a.tp.indent("  ")
	for _, f := range td.Bitfields {
		a.tp.pwritel(fmt.Sprintf("bitfield<%d> %s", f.Width, f.Name))
	}
	a.tp.unindent()
}

func (a *AstPrinter) printBitmask(name string, td *TypeDescriptor) {
	a.tp.pwritel(a.paint(color.New(color.FgMagenta), fmt.Sprintf("bitmask %s", name)))
	a.tp.indent("  ")
	for _, f := range td.Flags {
		a.tp.pwritel(f.Name)
	}
	a.tp.unindent()
}

func (a *AstPrinter) printMember(m *MemberDescriptor) {
	a.tp.pwritel(fmt.Sprintf("%s %s", typeName(m.Type), escapeLiteral(m.Name)))
}

func typeName(td *TypeDescriptor) string {
	if td == nil {
		return "<unknown>"
	}
	return td.Name
}
