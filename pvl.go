// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// Package pvl implements a processor for the Parameter Value Language,
// the plain-text label dialect used by NASA PDS and VICAR image products.
// It provides a sliding character window over an input octet stream with
// pluggable byte filters, a forgiving recursive-descent parser producing
// a typed parameter tree, a lister that reproduces the language, and a
// pathname selector for pulling structural parameters out of a label.
package pvl

import "errors"

// PVL syntax elements.
const (
	// ReservedCharacters may not appear bare in a parameter name or an
	// unquoted datum.
	ReservedCharacters = "{}()[]<>&\"',=;#%~|+! \t\r\n\f\v"

	// Whitespace characters.
	Whitespace = " \t\r\n\f\v"

	// LineBreak is the canonical record terminator.
	LineBreak = "\r\n"

	// CommentStartDelimiters and CommentEndDelimiters bracket a comment.
	CommentStartDelimiters = "/*"
	CommentEndDelimiters   = "*/"

	// DateTimeDelimiters distinguish a date-time bareword from an
	// identifier.
	DateTimeDelimiters = "-:"

	// VerbatimStringDelimiters fence regions of a quoted string that are
	// exempt from escape translation and line-wrap folding.
	VerbatimStringDelimiters = "\\v"

	// ContainerName is the name of the synthetic root Aggregate holding
	// all parameters read from an input source.
	ContainerName = "The Container"
)

// Delimiter characters.
const (
	ParameterNameDelimiter         = '='
	ParameterValueDelimiter        = ','
	TextDelimiter                  = '"'
	SymbolDelimiter                = '\''
	SetStartDelimiter              = '{'
	SetEndDelimiter                = '}'
	SequenceStartDelimiter         = '('
	SequenceEndDelimiter           = ')'
	UnitsStartDelimiter            = '<'
	UnitsEndDelimiter              = '>'
	NumberBaseDelimiter            = '#'
	StatementEndDelimiter          = ';'
	StatementContinuationDelimiter = '&'
	StringContinuationDelimiter    = '-'

	// CommentLineDelimiter starts a to-end-of-line comment when
	// commented-lines mode is enabled. It must not be the same as the
	// first character of CommentStartDelimiters.
	CommentLineDelimiter = '#'
)

// Character sets used by the scanner.
const (
	lineDelimiters           = "\r\n\f\v"
	parameterNameDelimiters  = " \t\r\n\f\v=;"
	parameterValueDelimiters = " \t\r\n\f\v,{}()<;"
)

// Errors.
var (
	// ErrNoLabel is returned when a file contains no recognizable PVL
	// parameters.
	ErrNoLabel = errors.New("no PVL label found")

	// ErrNotParsed is returned when label metadata is requested before a
	// successful Parse.
	ErrNotParsed = errors.New("file has not been parsed")

	// ErrStdinRepeated is reported by the driver when more than one
	// argument names the standard input stream.
	ErrStdinRepeated = errors.New("only one stdin source is allowed")
)

// ParameterType classifies a Parameter. Group, Object and Container are
// Aggregate types; the End types are statement terminators that never
// appear in a parsed tree.
type ParameterType uint8

const (
	// Token is a plain Assignment parameter.
	Token ParameterType = 1 << iota

	// Group is an Aggregate opened by GROUP/BEGIN_GROUP.
	Group

	// Object is an Aggregate opened by OBJECT/BEGIN_OBJECT.
	Object

	// Container is the synthetic Aggregate type used at the root of a
	// parsed tree. It only occurs at the root.
	Container

	// End terminates a label (END), or combines with Group/Object for
	// the END_GROUP and END_OBJECT terminators.
	End
)

// Composite type classes.
const (
	Assignment = Token
	Aggregate  = Group | Object | Container
	EndGroup   = End | Group
	EndObject  = End | Object
)

// String returns the printable name of the parameter type.
func (t ParameterType) String() string {
	switch t {
	case Token:
		return "Assignment"
	case Group:
		return "Group"
	case Object:
		return "Object"
	case Container:
		return "Container"
	case End:
		return "End"
	case EndGroup:
		return "End_Group"
	case EndObject:
		return "End_Object"
	}
	return "Invalid"
}

// specialTypes maps the reserved, case-folded parameter names to the
// types they introduce. Both the BEGIN_XXX and XXX forms must be present
// so either can be identified during parsing.
var specialTypes = map[string]ParameterType{
	"BEGIN_GROUP":  Group,
	"BEGINGROUP":   Group,
	"GROUP":        Group,
	"BEGIN_OBJECT": Object,
	"BEGINOBJECT":  Object,
	"OBJECT":       Object,
	"END_GROUP":    EndGroup,
	"ENDGROUP":     EndGroup,
	"END_OBJECT":   EndObject,
	"ENDOBJECT":    EndObject,
	"END":          End,
}

// SpecialType identifies a reserved parameter name. The name is matched
// case-insensitively. Zero is returned for an ordinary name.
func SpecialType(name string) ParameterType {
	return specialTypes[upper(name)]
}
