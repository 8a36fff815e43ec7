// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

import (
	"fmt"
	"strings"
)

// A DiagnosticCode identifies a parser finding. Consumers dispatch on
// the code; the message text is informational.
type DiagnosticCode int

const (
	// InvalidSyntax is reported where value syntax was expected but not
	// found, or for a non-standard construct such as a quoted parameter
	// name.
	InvalidSyntax DiagnosticCode = iota + 1

	// InvalidValue is reported for a numeric literal that cannot be
	// converted, including conversion overflow.
	InvalidValue

	// ReservedCharacter is reported for a reserved or unprintable
	// character in a name or bareword.
	ReservedCharacter

	// AggregateClosureMismatch is reported when the END parameter
	// closing an Aggregate does not match its opening type.
	AggregateClosureMismatch

	// ArrayClosureMismatch is reported when an array closes with the
	// other bracket kind.
	ArrayClosureMismatch

	// InvalidAggregateValue is reported when an Aggregate parameter is
	// assigned a non-string value.
	InvalidAggregateValue

	// MultilineComment is reported for a comment spanning lines.
	MultilineComment

	// MissingCommentEnd is reported for an unterminated comment.
	MissingCommentEnd

	// MissingQuoteEnd is reported for an unterminated quoted string.
	MissingQuoteEnd

	// MissingUnitsEnd is reported for an unterminated units annotation.
	MissingUnitsEnd

	// IngestError is reported when the underlying reader failed.
	IngestError
)

// String returns the diagnostic description.
func (c DiagnosticCode) String() string {
	switch c {
	case InvalidSyntax:
		return "Invalid PVL Syntax"
	case InvalidValue:
		return "Invalid PVL Value"
	case ReservedCharacter:
		return "PVL Reserved Character"
	case AggregateClosureMismatch:
		return "PVL Aggregate Closure Mismatch"
	case ArrayClosureMismatch:
		return "PVL Array Closure Mismatch"
	case InvalidAggregateValue:
		return "Invalid PVL Aggregate Value"
	case MultilineComment:
		return "Multi-line PVL Comment"
	case MissingCommentEnd:
		return "Missing PVL Comment End"
	case MissingQuoteEnd:
		return "Missing PVL Quote End"
	case MissingUnitsEnd:
		return "Missing PVL Units End"
	case IngestError:
		return "PVL Ingest Error"
	}
	return "PVL Exception"
}

// A Diagnostic records one parser finding: its code, the Location in
// the filtered character stream, the line-column position when the
// line-count filter could supply one, and a detail message. In strict
// mode the first Diagnostic is raised as the parse error; otherwise
// diagnostics accumulate on the parser's warning list.
type Diagnostic struct {
	Code     DiagnosticCode
	Location Location
	Position Position
	Detail   string

	// Before marks a finding reported just before its Location, as for
	// a closure mismatch noticed at the terminator.
	Before bool

	// Err is the underlying failure for an IngestError.
	Err error
}

// Error implements the error interface.
func (d *Diagnostic) Error() string {
	var b strings.Builder
	b.WriteString(d.Code.String())
	if d.Location != NoLimit {
		fmt.Fprintf(&b, " at location %d", d.Location)
	}
	if d.Position.Valid() && d.Position.Line > 0 {
		relation := "at"
		if d.Before {
			relation = "before"
		}
		fmt.Fprintf(&b, "\n %s character %d of line %d",
			relation, d.Position.Character, d.Position.Line)
	}
	if d.Detail != "" {
		b.WriteByte('\n')
		b.WriteString(d.Detail)
	}
	return b.String()
}

// Unwrap exposes the underlying reader failure of an IngestError.
func (d *Diagnostic) Unwrap() error { return d.Err }
