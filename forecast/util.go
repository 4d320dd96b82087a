package forecast

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// IndentExpand repeats the indent growth times
func IndentExpand(indent string, growth int) string {
	if growth <= 0 {
		return ""
	}
	return strings.Repeat(indent, growth)
}

// linePrinter writes indented lines and keeps the first write error so a summary can be printed
// without checking every line
type linePrinter struct {
	w      io.Writer
	prefix string
	indent string
	err    error
}

func newLinePrinter(w io.Writer, prefix, indent string) *linePrinter {
	return &linePrinter{w: w, prefix: prefix, indent: indent}
}

func (p *linePrinter) printf(depth int, format string, args ...any) {
	if p.err != nil {
		return
	}
	if _, p.err = io.WriteString(p.w, p.prefix+IndentExpand(p.indent, depth)); p.err != nil {
		return
	}
	_, p.err = fmt.Fprintf(p.w, format, args...)
}

// table writes right aligned rows of cells under a header
func (p *linePrinter) table(depth int, header []string, rows [][]string) {
	if p.err != nil {
		return
	}
	tbl := tabwriter.NewWriter(p.w, 0, 0, 1, ' ', tabwriter.AlignRight)
	cells := newLinePrinter(tbl, p.prefix, p.indent)
	cells.printf(depth, "%s\t\n", strings.Join(header, "\t"))
	for _, row := range rows {
		cells.printf(depth, "%s\t\n", strings.Join(row, "\t"))
	}
	if cells.err != nil {
		p.err = cells.err
		return
	}
	p.err = tbl.Flush()
}

// section writes a titled table or marks the title with None when there are no rows
func (p *linePrinter) section(depth int, title string, header []string, rows [][]string) {
	if len(rows) == 0 {
		p.printf(depth, "%s: None\n", title)
		return
	}
	p.printf(depth, "%s:\n", title)
	p.table(depth+1, header, rows)
}
