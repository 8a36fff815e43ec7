// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Lister layout constants.
const (
	// IndentWidth is the number of spaces per Aggregate depth.
	IndentWidth = 4

	// ArrayWrapCount is the number of array entries emitted per line
	// when continuation indenting is enabled.
	ArrayWrapCount = 5
)

// A Lister emits the canonical textual representation of a parameter
// tree. For any tree produced by the parser with default modes, the
// emitted text re-parses to an equal tree.
type Lister struct {
	// Strict emits the BEGIN_GROUP/BEGIN_OBJECT strict PVL aggregate
	// keywords instead of the Group/Object variants.
	Strict bool

	// AlignAssignments pads assignment names to the widest sibling so
	// the value columns align within an Aggregate.
	AlignAssignments bool

	// IndentArrays breaks long arrays across indented continuation
	// lines.
	IndentArrays bool

	// SingleLineComments closes each comment line on the line it
	// starts; otherwise the comment end is emitted on its own line.
	SingleLineComments bool

	// StatementEnds emits a statement end delimiter after each
	// parameter.
	StatementEnds bool

	w   io.Writer
	err error
}

// NewLister returns a Lister on w with the default settings:
// assignments aligned, arrays indented, single-line comments, no
// statement ends, not strict.
func NewLister(w io.Writer) *Lister {
	return &Lister{
		AlignAssignments:   true,
		IndentArrays:       true,
		SingleLineComments: true,
		w:                  w,
	}
}

// Write lists the parameter. A Container lists its children followed
// by a bare END line; any other parameter lists itself.
func (l *Lister) Write(parameter *Parameter) error {
	l.err = nil
	if parameter.Type == Container {
		l.writeChildren(parameter, 0)
		l.print("END\n")
	} else {
		l.writeParameter(parameter, 0, 0)
	}
	return l.err
}

func (l *Lister) print(format string, args ...any) {
	if l.err == nil {
		_, l.err = fmt.Fprintf(l.w, format, args...)
	}
}

func (l *Lister) indent(depth int) string {
	return strings.Repeat(" ", depth*IndentWidth)
}

// writeChildren lists an Aggregate's children, aligning assignment
// names when enabled.
func (l *Lister) writeChildren(aggregate *Parameter, depth int) {
	width := 0
	if l.AlignAssignments {
		for _, child := range aggregate.Children() {
			if child.IsAssignment() && len(child.Name) > width {
				width = len(child.Name)
			}
		}
	}
	for _, child := range aggregate.Children() {
		l.writeParameter(child, depth, width)
	}
}

func (l *Lister) writeParameter(parameter *Parameter, depth, width int) {
	l.writeComment(parameter.Comment, depth)
	prefix := l.indent(depth)

	if parameter.IsAggregate() {
		begin, end := "Group", "End_Group"
		if l.Strict {
			begin, end = "BEGIN_GROUP", "END_GROUP"
		}
		if parameter.Type == Object {
			begin, end = "Object", "End_Object"
			if l.Strict {
				begin, end = "BEGIN_OBJECT", "END_OBJECT"
			}
		}
		l.print("%s%s = %s%s\n", prefix, begin, parameter.Name, l.statementEnd())
		l.writeChildren(parameter, depth+1)
		if l.Strict {
			l.print("%s%s = %s%s\n", prefix, end, parameter.Name, l.statementEnd())
		} else {
			l.print("%s%s%s\n", prefix, end, l.statementEnd())
		}
		return
	}

	name := parameter.Name
	if width > len(name) {
		name += strings.Repeat(" ", width-len(name))
	}
	if parameter.Value == nil {
		l.print("%s%s%s\n", prefix, parameter.Name, l.statementEnd())
		return
	}
	l.print("%s%s = %s%s\n", prefix, name,
		l.formatValue(parameter.Value, depth), l.statementEnd())
}

func (l *Lister) statementEnd() string {
	if l.StatementEnds {
		return ";"
	}
	return ""
}

func (l *Lister) writeComment(comment string, depth int) {
	if comment == "" {
		return
	}
	prefix := l.indent(depth)
	for _, line := range strings.Split(comment, "\n") {
		line = strings.Trim(line, " \t")
		if l.SingleLineComments {
			l.print("%s/* %s */\n", prefix, line)
		} else {
			l.print("%s/* %s\n%s*/\n", prefix, line, prefix)
		}
	}
}

// formatValue renders a value, with units, in PVL notation.
func (l *Lister) formatValue(value *Value, depth int) string {
	var b strings.Builder
	l.buildValue(&b, value, depth)
	if value.Units != "" {
		b.WriteString(" <")
		b.WriteString(value.Units)
		b.WriteByte('>')
	}
	return b.String()
}

func (l *Lister) buildValue(b *strings.Builder, value *Value, depth int) {
	switch {
	case value.IsArray():
		opener, closer := byte(SetStartDelimiter), byte(SetEndDelimiter)
		if value.Type == Sequence {
			opener, closer = SequenceStartDelimiter, SequenceEndDelimiter
		}
		b.WriteByte(opener)
		wrap := l.IndentArrays && len(value.Array) > ArrayWrapCount
		for i, element := range value.Array {
			if i > 0 {
				b.WriteByte(',')
				if wrap && i%ArrayWrapCount == 0 {
					b.WriteByte('\n')
					b.WriteString(l.indent(depth + 1))
				} else {
					b.WriteByte(' ')
				}
			}
			b.WriteString(l.formatValue(element, depth+1))
		}
		b.WriteByte(closer)

	case value.Type == Integer:
		b.WriteString(formatInteger(value))

	case value.Type == Real:
		b.WriteString(formatReal(value))

	case value.Type == Text:
		b.WriteByte(TextDelimiter)
		b.WriteString(quoteString(value.Text, TextDelimiter))
		b.WriteByte(TextDelimiter)

	case value.Type == Symbol:
		b.WriteByte(SymbolDelimiter)
		b.WriteString(quoteString(value.Text, SymbolDelimiter))
		b.WriteByte(SymbolDelimiter)

	default:
		// Identifier and DateTime barewords.
		b.WriteString(value.Text)
	}
}

// quoteString prepares string content for quoted emission: special
// characters become escape sequences and the active quote delimiter is
// escaped, outside any verbatim fences.
func quoteString(text string, quote byte) string {
	mark := string([]byte{quote})
	var b strings.Builder
	first := true
	forEachSection(text,
		func(section string) {
			if !first {
				b.WriteString(VerbatimStringDelimiters)
			}
			first = false
			section = specialToEscape(section)
			section = strings.ReplaceAll(section, mark, `\`+mark)
			b.WriteString(section)
		},
		func(section string) {
			b.WriteString(VerbatimStringDelimiters)
			b.WriteString(section)
		})
	return b.String()
}

// formatInteger renders an integer value, reproducing base notation
// with the recorded digit count and zero padding.
func formatInteger(value *Value) string {
	if value.Base == 10 || value.Base < MinBase || value.Base > MaxBase {
		return strconv.FormatInt(value.Integer, 10)
	}
	magnitude := value.Integer
	sign := ""
	if magnitude < 0 {
		sign = "-"
		magnitude = -magnitude
	}
	digits := strings.ToUpper(strconv.FormatInt(magnitude, value.Base))
	if pad := value.Digits - len(digits); pad > 0 {
		digits = strings.Repeat("0", pad) + digits
	}
	return fmt.Sprintf("%s%d#%s#", sign, value.Base, digits)
}

// formatReal renders a real value with its recorded precision and
// format, always with a decimal point.
func formatReal(value *Value) string {
	if value.Scientific {
		s := strconv.FormatFloat(value.Real, 'e', value.Precision, 64)
		if e := strings.IndexByte(s, 'e'); e >= 0 && !strings.ContainsRune(s, '.') {
			s = s[:e] + "." + s[e:]
		}
		return s
	}
	s := strconv.FormatFloat(value.Real, 'f', value.Precision, 64)
	if !strings.ContainsRune(s, '.') {
		s += "."
	}
	return s
}
