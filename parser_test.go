// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func parseString(t *testing.T, source string) (*Parameter, *Parser) {
	t.Helper()
	parser := NewParserFrom(source)
	parameter, err := parser.GetParameters()
	require.NoError(t, err)
	return parameter, parser
}

func assignmentValue(t *testing.T, source string) (*Value, *Parser) {
	t.Helper()
	parameter, parser := parseString(t, source)
	require.NotNil(t, parameter)
	require.True(t, parameter.IsAssignment())
	require.NotNil(t, parameter.Value)
	return parameter.Value, parser
}

func TestParseAssignment(t *testing.T) {
	parameter, parser := parseString(t, "Name = Value")
	require.NotNil(t, parameter)
	require.True(t, parameter.IsAssignment())
	require.Equal(t, "Name", parameter.Name)
	require.Equal(t, Identifier, parameter.Value.Type)
	require.Equal(t, "Value", parameter.Value.Text)
	require.Empty(t, parser.Warnings())
}

func TestParseEmptySource(t *testing.T) {
	parameter, _ := parseString(t, "")
	require.Nil(t, parameter)

	parameter, _ = parseString(t, "   \n\t  ")
	require.Nil(t, parameter)
}

func TestParseMultipleParametersWrapped(t *testing.T) {
	parameter, _ := parseString(t, "A = 1\nB = 2")
	require.NotNil(t, parameter)
	require.True(t, parameter.IsAggregate())
	require.Equal(t, Container, parameter.Type)
	require.Equal(t, ContainerName, parameter.Name)
	require.Len(t, parameter.Children(), 2)
	require.Equal(t, "A", parameter.Children()[0].Name)
	require.Equal(t, "B", parameter.Children()[1].Name)
}

func TestParseNumbers(t *testing.T) {
	tests := []struct {
		in   string
		want Value
	}{
		{"3", Value{Type: Integer, Integer: 3, Base: 10}},
		{"-42", Value{Type: Integer, Integer: -42, Base: 10}},
		{"0x2A", Value{Type: Integer, Integer: 42, Base: 16, Digits: 2}},
		{"-16#FF#", Value{Type: Integer, Integer: -255, Base: 16, Digits: 2}},
		{"2#11010010#", Value{Type: Integer, Integer: 0xD2, Base: 2, Digits: 8}},
		{"8#0017#", Value{Type: Integer, Integer: 15, Base: 8, Digits: 4}},
		{"1.2500", Value{Type: Real, Real: 1.25, Precision: 4}},
		{"1.5e2", Value{Type: Real, Real: 150, Precision: 1, Scientific: true}},
		{"-0.5", Value{Type: Real, Real: -0.5, Precision: 1}},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			value, parser := assignmentValue(t, "Datum = "+tt.in)
			require.Empty(t, parser.Warnings())
			require.Equal(t, &tt.want, value)
		})
	}
}

func TestParseNumericOverflow(t *testing.T) {
	parser := NewParserFrom("A = 99999999999999999999")
	_, err := parser.GetParameters()
	require.Error(t, err)
	var diagnostic *Diagnostic
	require.ErrorAs(t, err, &diagnostic)
	require.Equal(t, InvalidValue, diagnostic.Code)
}

func TestParseStrings(t *testing.T) {
	tests := []struct {
		name     string
		in       string
		wantType ValueType
		wantText string
	}{
		{"text", `"A string of text"`, Text, "A string of text"},
		{"symbol", `'A Symbol'`, Symbol, "A Symbol"},
		{"identifier", "IDENTIFIER", Identifier, "IDENTIFIER"},
		{"date", "Aug-10-2002", DateTime, "Aug-10-2002"},
		{"time", "12:30:45", DateTime, "12:30:45"},
		{"escapes", `"tab\there"`, Text, "tab\there"},
		{"octal", `"bell\007"`, Text, "bell\007"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			value, _ := assignmentValue(t, "Datum = "+tt.in)
			require.Equal(t, tt.wantType, value.Type)
			require.Equal(t, tt.wantText, value.Text)
		})
	}
}

// Quoted string line wraps fold to a single space; a trailing hyphen
// joins with no space.
func TestParseQuotedStringFolding(t *testing.T) {
	value, _ := assignmentValue(t,
		"Wrapped = \"First line.\n        Second line.\"")
	require.Equal(t, "First line. Second line.", value.Text)

	value, _ = assignmentValue(t, "Joined = \"hyphen-\n        ated\"")
	require.Equal(t, "hyphenated", value.Text)

	// A hyphen alone between spaces keeps the space.
	value, _ = assignmentValue(t, "Dash = \"one - \ntwo\"")
	require.Equal(t, "one - two", value.Text)
}

func TestParseQuotedStringContinuationDisabled(t *testing.T) {
	parser := NewParserFrom("Joined = \"hyphen-\n        ated\"")
	parser.SetStringContinuation(false)
	parameter, err := parser.GetParameters()
	require.NoError(t, err)
	require.Equal(t, "hyphen-ated", parameter.Value.Text)
}

func TestParseVerbatimStrings(t *testing.T) {
	parser := NewParserFrom("Wrapped = \"First.\n  Second.\"")
	parser.SetVerbatimStrings(true)
	parameter, err := parser.GetParameters()
	require.NoError(t, err)
	require.Equal(t, "First.\n  Second.", parameter.Value.Text)
}

func TestParseMissingQuoteEnd(t *testing.T) {
	_, parser := parseString(t, "A = \"runs off the end")
	require.Len(t, parser.Warnings(), 1)
	require.Equal(t, MissingQuoteEnd, parser.Warnings()[0].Code)
}

func TestParseArrays(t *testing.T) {
	value, _ := assignmentValue(t, "A = {1, 2, 3}")
	require.Equal(t, Set, value.Type)
	require.Len(t, value.Array, 3)
	require.Equal(t, int64(2), value.Array[1].Integer)

	value, _ = assignmentValue(t, "A = (one, two)")
	require.Equal(t, Sequence, value.Type)
	require.Len(t, value.Array, 2)

	// Empty arrays are legal.
	value, _ = assignmentValue(t, "A = {}")
	require.Equal(t, Set, value.Type)
	require.Empty(t, value.Array)

	value, _ = assignmentValue(t, "A = ()")
	require.Equal(t, Sequence, value.Type)
	require.Empty(t, value.Array)

	// Arrays nest.
	value, _ = assignmentValue(t, "A = {1, (2, 3), 4}")
	require.Equal(t, Set, value.Type)
	require.Len(t, value.Array, 3)
	require.Equal(t, Sequence, value.Array[1].Type)
	require.Len(t, value.Array[1].Array, 2)
}

func TestParseArrayClosureMismatch(t *testing.T) {
	value, parser := assignmentValue(t, "A = {1, 2)")
	require.Equal(t, Set, value.Type)
	require.Len(t, value.Array, 2)
	require.Len(t, parser.Warnings(), 1)
	require.Equal(t, ArrayClosureMismatch, parser.Warnings()[0].Code)
}

func TestParseUnits(t *testing.T) {
	value, _ := assignmentValue(t, "A = 3 <m>")
	require.Equal(t, int64(3), value.Integer)
	require.Equal(t, "m", value.Units)

	// Units attach to the immediately preceding value.
	value, _ = assignmentValue(t, "A = (1 <cm>, 2) <totals>")
	require.Equal(t, "totals", value.Units)
	require.Equal(t, "cm", value.Array[0].Units)
	require.Equal(t, "", value.Array[1].Units)

	// Whitespace runs collapse inside units.
	value, _ = assignmentValue(t, "A = 3 <meters   per\tsecond>")
	require.Equal(t, "meters per second", value.Units)
}

func TestParseComments(t *testing.T) {
	parameter, parser := parseString(t,
		"/* About A */\n/* and more */\nA = 1 /* trailing */\nB = 2")
	require.Empty(t, parser.Warnings())
	children := parameter.Children()
	require.Len(t, children, 2)
	require.Equal(t, " About A \n and more ", children[0].Comment)
}

func TestParseCommentedLines(t *testing.T) {
	// Lenient mode takes a crosshatch line as a comment.
	parameter, parser := parseString(t, "# a comment\nA = 1")
	require.Empty(t, parser.Warnings())
	require.Equal(t, "A", parameter.Name)

	// Strict mode reports the crosshatch as a reserved character.
	strict := NewParserFrom("# a comment\nA = 1")
	strict.SetStrict(true)
	_, err := strict.GetParameters()
	require.Error(t, err)
	var diagnostic *Diagnostic
	require.ErrorAs(t, err, &diagnostic)
	require.Equal(t, ReservedCharacter, diagnostic.Code)
}

func TestParseQuotedParameterName(t *testing.T) {
	parameter, parser := parseString(t, `"Text" = "Another string"`)
	require.Equal(t, "Text", parameter.Name)
	require.Len(t, parser.Warnings(), 1)
	require.Equal(t, InvalidSyntax, parser.Warnings()[0].Code)
}

func TestParseAggregates(t *testing.T) {
	parameter, parser := parseString(t,
		"Group = Outer\n  A = 1\n  Object = Inner\n    B = 2\n  End_Object\nEnd_Group")
	require.Empty(t, parser.Warnings())
	require.True(t, parameter.IsAggregate())
	require.Equal(t, Group, parameter.Type)
	require.Equal(t, "Outer", parameter.Name)
	require.Len(t, parameter.Children(), 2)
	inner := parameter.Children()[1]
	require.Equal(t, Object, inner.Type)
	require.Equal(t, "Inner", inner.Name)
	require.Len(t, inner.Children(), 1)
	require.Equal(t, parameter, inner.Parent())
}

// The scenario from the specification: nested aggregates with an
// integer aggregate value and a mismatched closer accumulate warnings
// while the tree is still built.
func TestParseMismatchedClosers(t *testing.T) {
	source := strings.Join([]string{
		"Group = First_Group",
		"  Integer_Number = 3 <integer>",
		"  Object = Second_Group",
		"    Text = \"Another string\"",
		"    Begin_Group = 3",
		"      Date = Aug-10-2002",
		"    End_Object",
		"  End_Object",
		"End_Group",
	}, "\n")
	parameter, parser := parseString(t, source)
	require.NotNil(t, parameter)

	codes := make([]DiagnosticCode, 0, 2)
	for _, warning := range parser.Warnings() {
		codes = append(codes, warning.Code)
	}
	require.Equal(t,
		[]DiagnosticCode{InvalidAggregateValue, AggregateClosureMismatch},
		codes)

	require.Equal(t, Group, parameter.Type)
	second := parameter.Children()[1]
	require.Equal(t, "Second_Group", second.Name)
	inner := second.Children()[1]
	// The Aggregate took its name from the assigned value.
	require.Equal(t, "3", inner.Name)
	require.Equal(t, Group, inner.Type)
	require.Equal(t, "Date", inner.Children()[0].Name)
	require.Equal(t, DateTime, inner.Children()[0].Value.Type)
}

func TestParseStrictAbortsOnFirstWarning(t *testing.T) {
	parser := NewParserFrom("Begin_Group = 3\nEnd_Group")
	parser.SetStrict(true)
	parameter, err := parser.GetParameters()
	require.Nil(t, parameter)
	var diagnostic *Diagnostic
	require.ErrorAs(t, err, &diagnostic)
	require.Equal(t, InvalidAggregateValue, diagnostic.Code)
}

func TestParseValueSyntaxError(t *testing.T) {
	parser := NewParserFrom("A = = 3")
	_, err := parser.GetParameters()
	require.Error(t, err)
	var diagnostic *Diagnostic
	require.ErrorAs(t, err, &diagnostic)
	require.Equal(t, InvalidSyntax, diagnostic.Code)
}

func TestParseStatementDecorations(t *testing.T) {
	// Statement ends are optional, continuation swallows the ampersand.
	parameter, parser := parseString(t, "A = 1;\n&B = 2;")
	require.Empty(t, parser.Warnings())
	require.Len(t, parameter.Children(), 2)
	require.Equal(t, "B", parameter.Children()[1].Name)
}

func TestParseEndTerminatesLabel(t *testing.T) {
	parameter, _ := parseString(t, "A = 1\nEND\nB = 2")
	// The container holds only the parameters before END.
	require.Equal(t, "A", parameter.Name)
}

func TestParseDiagnosticPositions(t *testing.T) {
	source := "A = 1\nB = {1, 2)\n"
	parser := NewParserFrom(source)
	_, err := parser.GetParameters()
	require.NoError(t, err)
	require.Len(t, parser.Warnings(), 1)
	warning := parser.Warnings()[0]
	require.Equal(t, ArrayClosureMismatch, warning.Code)
	// The mismatched closer is on line 2.
	require.True(t, warning.Position.Valid())
	require.Equal(t, 2, warning.Position.Line)
	require.Equal(t, int(warning.Location)-len("A = 1\n"),
		warning.Position.Character)
}

func TestParseStreamSource(t *testing.T) {
	source := "Group = G\n  A = 1\nEnd_Group\nEND\n"
	parser := NewParser(strings.NewReader(source), 0)
	parameter, err := parser.GetParameters()
	require.NoError(t, err)
	// A stream source is always wrapped in the container.
	require.Equal(t, Container, parameter.Type)
	require.Len(t, parameter.Children(), 1)
	require.Equal(t, "G", parameter.Children()[0].Name)
	require.False(t, parser.VMSRecords())
}

func TestParseHexNotationStrictIsIdentifier(t *testing.T) {
	parser := NewParserFrom("A = 0x2A")
	parser.SetStrict(true)
	parameter, err := parser.GetParameters()
	require.NoError(t, err)
	require.Equal(t, Identifier, parameter.Value.Type)
	require.Equal(t, "0x2A", parameter.Value.Text)
}
