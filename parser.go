// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-kratos/kratos/v2/log"
)

// Parse mode defaults.
const (
	ParseStrict             = false
	ParseVerbatimStrings    = false
	ParseCommentedLines     = true
	ParseStringContinuation = true
)

// Scanner character sets.
const (
	whitespaceStatementEnds = " \t\r\n\f\v;"
	whitespaceContinuation  = " \t\r\n\f\v&"
	lineStatementEnds       = "\r\n\f\v;"
)

// A Parser transforms a filtered character stream into a parameter
// tree. Recoverable findings accumulate on the warning list; in strict
// mode the first finding aborts the parse instead. A Parser drives its
// window synchronously and is not safe to share.
type Parser struct {
	*SlidingString

	strict             bool
	verbatimStrings    bool
	commentedLines     bool
	stringContinuation bool

	warnings   []*Diagnostic
	vmsFilter  *VMSRecordsFilter
	lineFilter *LineCountFilter
	vmsRecords bool

	logger *log.Helper
}

func defaultLogger() *log.Helper {
	return log.NewHelper(log.NewFilter(log.NewStdLogger(os.Stdout),
		log.FilterLevel(log.LevelError)))
}

// NewParser creates a Parser over a stream reader, ingesting at most
// limit bytes (zero selects the default limit, NoLimit removes it).
//
// The first bytes of the stream are probed for VMS variable-length
// record framing; when detected, the unframing filter stays installed
// for the life of the stream. A line-count filter is always installed
// so diagnostics carry line-column positions.
func NewParser(reader io.Reader, limit Location) *Parser {
	p := &Parser{
		SlidingString:      NewSlidingString(reader, limit),
		commentedLines:     ParseCommentedLines,
		stringContinuation: ParseStringContinuation,
		logger:             defaultLogger(),
	}

	// VMS binary record size filtering: probe the first bytes.
	p.vmsFilter = NewVMSRecordsFilter()
	p.InsertFilter(p.vmsFilter)
	p.SetNonTextLimit(4)
	increment := p.SetSizeIncrement(4)
	p.slide()
	if p.vmsFilter.Enabled() {
		p.vmsRecords = true
		p.logger.Debugf("VMS binary records detected")
	} else {
		p.SetNonTextLimit(1)
		p.RemoveFilter(p.vmsFilter)
		p.vmsFilter = nil
	}
	p.SetSizeIncrement(increment)

	// Line counting over whatever the probe already ingested.
	p.lineFilter = NewLineCountFilter(Position{Line: 1})
	p.InsertFilter(p.lineFilter)
	p.lineFilter.Apply(p.buf, 0, len(p.buf), p.start)
	return p
}

// NewParserFrom creates a Parser over a pre-supplied string. Nothing is
// read and no record unframing applies.
func NewParserFrom(source string) *Parser {
	p := &Parser{
		SlidingString:      NewSlidingStringFrom(source),
		commentedLines:     ParseCommentedLines,
		stringContinuation: ParseStringContinuation,
		logger:             defaultLogger(),
	}
	p.lineFilter = NewLineCountFilter(Position{Line: 1})
	p.InsertFilter(p.lineFilter)
	p.lineFilter.Apply(p.buf, 0, len(p.buf), p.start)
	return p
}

// SetLogger replaces the parser's logger.
func (p *Parser) SetLogger(logger log.Logger) {
	if logger != nil {
		p.logger = log.NewHelper(logger)
	}
}

// Strict reports whether the first finding aborts the parse.
func (p *Parser) Strict() bool { return p.strict }

// SetStrict sets strict mode and returns the previous setting.
func (p *Parser) SetStrict(enable bool) bool {
	previous := p.strict
	p.strict = enable
	return previous
}

// VerbatimStrings reports whether escape translation and line-wrap
// folding are disabled.
func (p *Parser) VerbatimStrings() bool { return p.verbatimStrings }

// SetVerbatimStrings sets verbatim mode and returns the previous
// setting.
func (p *Parser) SetVerbatimStrings(enable bool) bool {
	previous := p.verbatimStrings
	p.verbatimStrings = enable
	return previous
}

// CommentedLines reports whether a crosshatch at a line start comments
// out the line.
func (p *Parser) CommentedLines() bool { return p.commentedLines }

// SetCommentedLines sets crosshatch comment recognition and returns
// the previous setting.
func (p *Parser) SetCommentedLines(enable bool) bool {
	previous := p.commentedLines
	p.commentedLines = enable
	return previous
}

// StringContinuation reports whether a trailing hyphen joins wrapped
// quoted-string lines without a space.
func (p *Parser) StringContinuation() bool { return p.stringContinuation }

// SetStringContinuation sets hyphen continuation handling and returns
// the previous setting.
func (p *Parser) SetStringContinuation(enable bool) bool {
	previous := p.stringContinuation
	p.stringContinuation = enable
	return previous
}

// VMSRecords reports whether VMS record framing was detected on the
// input stream.
func (p *Parser) VMSRecords() bool { return p.vmsRecords }

// Warnings returns the accumulated diagnostics in the order found.
func (p *Parser) Warnings() []*Diagnostic { return p.warnings }

// ClearWarnings empties the warning list.
func (p *Parser) ClearWarnings() { p.warnings = nil }

// PositionOf returns the line-column position of a stream Location.
func (p *Parser) PositionOf(location Location) Position {
	if p.lineFilter != nil && p.lineFilter.Enabled() {
		return p.lineFilter.PositionOf(location)
	}
	return Position{Character: -1}
}

// warn records a diagnostic. In strict mode the diagnostic is returned
// as the error that aborts the parse.
func (p *Parser) warn(code DiagnosticCode, detail string, location Location, before bool) error {
	d := &Diagnostic{
		Code:     code,
		Location: location,
		Position: p.PositionOf(location),
		Before:   before,
		Detail:   detail,
	}
	p.warnings = append(p.warnings, d)
	if p.strict {
		return d
	}
	return nil
}

// fail builds a hard error: a finding that aborts the parse regardless
// of strict mode.
func (p *Parser) fail(code DiagnosticCode, detail string, location Location) error {
	return &Diagnostic{
		Code:     code,
		Location: location,
		Position: p.PositionOf(location),
		Detail:   detail,
	}
}

func (p *Parser) ingestErr() error {
	if err := p.Err(); err != nil {
		return &Diagnostic{
			Code:     IngestError,
			Location: p.TotalRead(),
			Position: Position{Character: -1},
			Detail:   err.Error(),
			Err:      err,
		}
	}
	return nil
}

// preview quotes up to 20 characters of upcoming input for a
// diagnostic detail.
func (p *Parser) preview(location Location) string {
	return p.Substring(location, minLocation(location+20, p.EndLocation()))
}

/*------------------------------------------------------------------------------
	Parameters
*/

// GetParameters reads all parameters from the input source.
//
// For a stream source the parameters are returned in a synthetic
// Container Aggregate named ContainerName. For a string source holding
// exactly one parameter that parameter itself is returned, and an
// empty string yields nil.
//
// Recoverable findings accumulate on Warnings; the error is non-nil
// only for a hard finding, the first finding in strict mode, or an
// ingest failure.
func (p *Parser) GetParameters() (*Parameter, error) {
	container := NewAggregate(ContainerName, Container)
	if _, err := p.ingestParameters(container); err != nil {
		return nil, err
	}
	if err := p.ingestErr(); err != nil {
		p.logger.Errorf("label ingest failed: %v", err)
		return nil, err
	}
	p.logger.Debugf("parsed %d parameters, %d warnings",
		len(container.Children()), len(p.warnings))

	if p.StringSource() {
		switch len(container.Children()) {
		case 0:
			return nil, nil
		case 1:
			return container.pullBack(), nil
		}
	}
	return container, nil
}

// AddParameters appends all parameters read from the input to the
// Aggregate.
func (p *Parser) AddParameters(aggregate *Parameter) error {
	_, err := p.ingestParameters(aggregate)
	if err == nil {
		err = p.ingestErr()
	}
	return err
}

// ingestParameters collects parameters into the Aggregate until an END
// parameter or the end of input, recursing for each nested Aggregate.
// The terminator kind seen is returned.
func (p *Parser) ingestParameters(aggregate *Parameter) (ParameterType, error) {
	terminator := End
	for !p.IsEmpty() {
		parameter, err := p.getParameter(false)
		if err != nil {
			return terminator, err
		}
		if parameter == nil {
			// Failed to get a parameter; mark end of input.
			terminator = End
			break
		}

		if t := SpecialType(parameter.Name); t&End != 0 {
			// Drop the END parameter.
			terminator = t
			closer := t ^ End
			if closer != 0 && aggregate.parent != nil && closer != aggregate.Type {
				err = p.warn(AggregateClosureMismatch,
					fmt.Sprintf("%v Parameter %s\n  ends with an %v Parameter.",
						aggregate.Type, aggregate.Name, t),
					p.NextLocation(), true)
				if err != nil {
					return terminator, err
				}
			}
			break
		}

		aggregate.Append(parameter)

		if parameter.IsAggregate() {
			// Recursively ingest the parameters of this Aggregate.
			terminator, err = p.ingestParameters(parameter)
			if err != nil {
				return terminator, err
			}
			if terminator == End {
				break
			}
		}
	}
	return terminator, nil
}

// getParameter reads the next parameter: leading comments, the name,
// and any value with its units. nil is returned (without error) at the
// end of input.
func (p *Parser) getParameter(assignmentOnly bool) (*Parameter, error) {
	if p.IsEmpty() {
		return nil, nil
	}

	// Collect any leading comment before the parameter name.
	comment, err := p.getComment()
	if err != nil {
		return nil, err
	}

	// Ignore any statement end delimiters.
	location := p.SetNextLocation(
		p.SkipOver(whitespaceStatementEnds, p.NextLocation()))
	if p.IsEnd(location) {
		return nil, nil
	}

	var name string
	if c := p.At(location); c == TextDelimiter || c == SymbolDelimiter {
		// A quoted parameter name is non-standard.
		name, err = p.getQuotedString()
		if err != nil {
			return nil, err
		}
		err = p.warn(InvalidSyntax,
			fmt.Sprintf("Quoted Parameter name - %c%s%c", c, name, c),
			location, false)
		if err != nil {
			return nil, err
		}
	} else {
		delimiter := p.SkipUntil(parameterNameDelimiters, location)
		if delimiter == NoLimit {
			delimiter = p.EndLocation()
		}
		name = p.Substring(location, delimiter)
		if i := strings.Index(name, CommentStartDelimiters); i >= 0 {
			// Only take the part up to the trailing comment.
			name = name[:i]
			delimiter = location + Location(i)
		}
		if i := reservedCharacterIndex(name); i >= 0 {
			err = p.warn(ReservedCharacter,
				fmt.Sprintf("At character %d of the parameter named \"%s\"",
					i, specialToEscape(name)),
				location+Location(i), false)
			if err != nil {
				return nil, err
			}
		}
		if !p.verbatimStrings {
			name = translateFromEscapeSequences(name)
		}
		p.SetNextLocation(delimiter)
	}

	parameterType := SpecialType(name)
	var parameter *Parameter
	if !assignmentOnly && parameterType&Aggregate != 0 {
		parameter = NewAggregate(name, parameterType)
	} else {
		parameter = NewAssignment(name)
	}
	parameter.Comment = comment

	// Find the delimiter separating the name from the values list.
	delimiter, err := p.skipWhitespaceAndComments(p.NextLocation())
	if err != nil {
		return nil, err
	}
	delimiter = p.SetNextLocation(delimiter)
	if p.IsEnd(delimiter) {
		return parameter, nil
	}

	if parameterType != End && p.At(delimiter) == ParameterNameDelimiter {
		// The values string starts.
		p.SetNextLocation(delimiter + 1)
		value, err := p.getValue()
		if err != nil {
			return nil, err
		}
		if value != nil {
			if parameter.IsAggregate() {
				// The value string becomes the Aggregate's name.
				if text, ok := value.AsText(); ok {
					parameter.Name = text
				}
				if !value.IsString() {
					err = p.warn(InvalidAggregateValue,
						fmt.Sprintf("%v Parameter \"%s\" = %v Value.",
							parameter.Type, name, value.Type),
						delimiter, false)
					if err != nil {
						return nil, err
					}
				}
			} else {
				parameter.Value = value
			}
		}
	}

	// Swallow trailing whitespace and statement end delimiters.
	p.SetNextLocation(p.SkipOver(whitespaceStatementEnds, p.NextLocation()))
	return parameter, nil
}

/*------------------------------------------------------------------------------
	Comments
*/

// getComment accumulates all sequential comments before the coming
// parameter, joined with newlines, and advances the watermark past
// them.
func (p *Parser) getComment() (string, error) {
	if p.IsEmpty() {
		return "", nil
	}
	var comments strings.Builder
	location := p.NextLocation()

	for {
		location = p.skipCommentedLine(location)
		if p.IsEnd(location) ||
			!p.BeginsWith(CommentStartDelimiters, location, true) {
			break
		}
		commentStart := location + Location(len(CommentStartDelimiters))

		commentEnd := p.LocationOf(CommentEndDelimiters, location)
		if commentEnd == NoLimit {
			err := p.warn(MissingCommentEnd,
				fmt.Sprintf("For comment starting with \"%s\" ...",
					p.preview(commentStart)),
				location, false)
			if err != nil {
				return "", err
			}
			// Assume it ends at the end of the line.
			commentEnd = p.SkipUntil(lineStatementEnds, location)
			location = p.SkipOver(lineStatementEnds, commentEnd)
			if commentEnd == NoLimit {
				commentEnd = p.EndLocation()
			}
		} else {
			location = commentEnd + Location(len(CommentEndDelimiters))
		}

		comment := p.Substring(commentStart, commentEnd)
		if strings.ContainsAny(comment, LineBreak) {
			err := p.warn(MultilineComment,
				fmt.Sprintf("For comment starting with \"%s\" ...",
					p.preview(commentStart)),
				commentStart-Location(len(CommentStartDelimiters)), false)
			if err != nil {
				return "", err
			}
		}
		if !p.verbatimStrings {
			comment = translateFromEscapeSequences(comment)
		}

		if comments.Len() > 0 {
			comments.WriteByte('\n')
		}
		comments.WriteString(comment)
	}
	p.SetNextLocation(location)
	return comments.String(), nil
}

// skipWhitespaceAndComments advances past whitespace, commented lines
// and block comments, reporting unterminated comments.
func (p *Parser) skipWhitespaceAndComments(location Location) (Location, error) {
	for {
		location = p.skipCommentedLine(location)
		if p.IsEnd(location) ||
			!p.BeginsWith(CommentStartDelimiters, location, true) {
			return location, nil
		}
		location += Location(len(CommentStartDelimiters))
		commentEnd := p.LocationOf(CommentEndDelimiters, location)
		if commentEnd == NoLimit {
			err := p.warn(MissingCommentEnd,
				fmt.Sprintf("For comment starting with \"%s\" ...",
					p.preview(location)),
				location-Location(len(CommentStartDelimiters)), false)
			if err != nil {
				return NoLimit, err
			}
			// Assume it ends at the end of the line.
			commentEnd = p.SkipUntil(lineStatementEnds, location)
			location = p.SkipOver(lineStatementEnds, commentEnd)
		} else {
			location = commentEnd + Location(len(CommentEndDelimiters))
		}
	}
}

// skipCommentedLine advances past whitespace, statement continuation
// delimiters and, when enabled and not strict, crosshatch-commented
// lines.
func (p *Parser) skipCommentedLine(location Location) Location {
	if p.strict || !p.commentedLines {
		return p.SkipOver(whitespaceContinuation, location)
	}
	for {
		location = p.SkipOver(whitespaceContinuation, location)
		if p.IsEnd(location) || p.At(location) != CommentLineDelimiter {
			break
		}
		// A crosshatch comment extends to the end of the line.
		location = p.SkipUntil(LineBreak, location)
		if location == NoLimit {
			location = p.EndLocation()
		}
	}
	return location
}

/*------------------------------------------------------------------------------
	Values
*/

// getValue reads a value expression: a bracketed array of values, or a
// single datum with optional units. nil is returned (without error)
// when no value is present.
func (p *Parser) getValue() (*Value, error) {
	if p.IsEmpty() {
		return nil, nil
	}

	location, err := p.skipWhitespaceAndComments(p.NextLocation())
	if err != nil {
		return nil, err
	}
	delimiter := p.SetNextLocation(location)
	if p.IsEnd(delimiter) {
		return nil, nil
	}

	// Accumulate an Array of values.
	array := &Value{}
	var startType, endType ValueType
	arrayStart := delimiter
	var arrayPreview string

	switch p.At(delimiter) {
	case SetStartDelimiter:
		startType = Set
	case SequenceStartDelimiter:
		startType = Sequence
	}
	if startType != 0 {
		array.Type = startType
		// Taken now: the window may have dropped the array start by the
		// time the closer is found.
		arrayPreview = p.preview(arrayStart)
		delimiter++
		p.SetNextLocation(delimiter)
	}

	closeArray := func(location Location, closer ValueType) error {
		endType = closer
		if startType != 0 && startType != endType {
			err := p.warn(ArrayClosureMismatch,
				fmt.Sprintf(
					"For Value array starting at location %d\n  with \"%s\" ...",
					arrayStart, arrayPreview),
				location, false)
			if err != nil {
				return err
			}
		}
		p.SetNextLocation(location + 1)
		units, err := p.getUnits()
		if err != nil {
			return err
		}
		array.Units = units
		return nil
	}

values:
	for {
		// Find the values string.
		delimiter, err = p.skipWhitespaceAndComments(p.NextLocation())
		if err != nil {
			return nil, err
		}
		if p.IsEnd(delimiter) {
			break
		}

		switch c := p.At(delimiter); c {
		case SetEndDelimiter, SequenceEndDelimiter:
			// An empty array is valid.
			closer := ValueType(Set)
			if c == SequenceEndDelimiter {
				closer = Sequence
			}
			if err = closeArray(delimiter, closer); err != nil {
				return nil, err
			}
			break values

		case StatementEndDelimiter:
			break values

		case ParameterNameDelimiter, ParameterValueDelimiter,
			UnitsStartDelimiter, UnitsEndDelimiter, NumberBaseDelimiter:
			return nil, p.fail(InvalidSyntax,
				fmt.Sprintf("Expected a value, but found '%c'.", c),
				delimiter)

		default:
			// Possible value.
			p.SetNextLocation(delimiter)
		}

		var value *Value
		if c := p.At(delimiter); c == SetStartDelimiter ||
			c == SequenceStartDelimiter {
			// The value is an array of values.
			value, err = p.getValue()
		} else {
			value, err = p.getDatum()
			if err == nil && value != nil {
				var units string
				units, err = p.getUnits()
				value.Units = units
			}
		}
		if err != nil {
			return nil, err
		}
		if value == nil {
			break
		}
		array.Array = append(array.Array, value)

		// Find the next word. The watermark is left before any comment
		// in case it leads the next statement; it is updated when the
		// new location is recognized as value syntax.
		location, err = p.skipWhitespaceAndComments(p.NextLocation())
		if err != nil {
			return nil, err
		}
		if p.IsEnd(location) {
			break
		}

		switch c := p.At(location); c {
		case ParameterValueDelimiter:
			// Another datum is expected.
			p.SetNextLocation(location + 1)

		case SetStartDelimiter, SequenceStartDelimiter:
			err = p.warn(InvalidSyntax,
				fmt.Sprintf(
					"Expected another datum, but found character '%c'.", c),
				location, false)
			if err != nil {
				return nil, err
			}
			p.SetNextLocation(location)

		case SetEndDelimiter, SequenceEndDelimiter:
			closer := ValueType(Set)
			if c == SequenceEndDelimiter {
				closer = Sequence
			}
			if err = closeArray(location, closer); err != nil {
				return nil, err
			}
			break values

		case ParameterNameDelimiter, UnitsStartDelimiter,
			UnitsEndDelimiter, NumberBaseDelimiter:
			return nil, p.fail(InvalidSyntax,
				fmt.Sprintf("Expected another datum, but found '%c'.", c),
				location)

		default:
			// Not a recognized value syntax.
			break values
		}
	}

	if startType == 0 && endType == 0 && len(array.Array) <= 1 {
		if len(array.Array) == 0 {
			// Didn't get anything.
			return nil, nil
		}
		// A single undecorated value; return the datum alone.
		return array.Array[0], nil
	}
	if array.Type == 0 {
		array.Type = endType
		if array.Type == 0 {
			array.Type = Sequence
		}
	}
	return array, nil
}

// getDatum reads a single datum: a quoted string, a number, or a
// bareword classified as Identifier or DateTime.
func (p *Parser) getDatum() (*Value, error) {
	if p.IsEmpty() {
		return nil, nil
	}
	location, err := p.skipWhitespaceAndComments(p.NextLocation())
	if err != nil {
		return nil, err
	}
	delimiter := p.SetNextLocation(location)
	if p.IsEnd(delimiter) {
		return nil, nil
	}

	switch c := p.At(delimiter); c {
	case StatementEndDelimiter:
		// Nothing to get.
		return nil, nil

	case ParameterNameDelimiter, ParameterValueDelimiter,
		SetStartDelimiter, SetEndDelimiter,
		SequenceStartDelimiter, SequenceEndDelimiter,
		UnitsStartDelimiter, UnitsEndDelimiter, NumberBaseDelimiter:
		return nil, p.fail(InvalidSyntax,
			fmt.Sprintf("Expected a datum, but found '%c'.", c),
			delimiter)

	case TextDelimiter, SymbolDelimiter:
		kind := ValueType(Text)
		if c == SymbolDelimiter {
			kind = Symbol
		}
		content, err := p.getQuotedString()
		if err != nil {
			return nil, err
		}
		return NewString(content, kind), nil
	}

	// Numeric value or bareword: find the datum string delimiter.
	delimiter = p.SkipUntil(parameterValueDelimiters, p.NextLocation())
	if delimiter == NoLimit {
		delimiter = p.EndLocation()
	}
	datum := p.Substring(p.NextLocation(), delimiter)
	if i := strings.Index(datum, CommentStartDelimiters); i >= 0 {
		// Only take the part up to the comment.
		delimiter = p.NextLocation() + Location(i)
		datum = datum[:i]
	}
	if !p.verbatimStrings {
		datum = translateFromEscapeSequences(datum)
	}

	value, err := p.classifyDatum(datum, p.NextLocation())
	if err != nil {
		return nil, err
	}
	p.SetNextLocation(delimiter)
	return value, nil
}

// classifyDatum converts a datum token to its Value: integer (with
// optional hex or base notation), real, or string bareword.
func (p *Parser) classifyDatum(datum string, location Location) (*Value, error) {
	base := 10
	digitsOffset := 0
	if !p.strict &&
		(strings.HasPrefix(datum, "0x") || strings.HasPrefix(datum, "0X")) {
		// Allow 0x hex notation.
		base = 16
		digitsOffset = 2
	}

	integer, consumed, digits, overflow := scanInteger(datum, base)
	switch {
	case consumed == len(datum) && consumed > 0:
		if overflow {
			return nil, p.fail(InvalidValue,
				fmt.Sprintf("For datum \"%s\": numeric value out of range.",
					datum),
				location)
		}
		if digitsOffset != 0 {
			return NewIntegerBase(integer, base, digits), nil
		}
		return NewInteger(integer), nil

	case consumed > 0 && datum[consumed] == NumberBaseDelimiter:
		// Probable base notation datum: [sign]base#digits#.
		sign := int64(1)
		noted := integer
		if noted < 0 {
			sign = -1
			noted = -noted
		}
		if noted < MinBase || noted > MaxBase {
			return nil, p.fail(InvalidValue,
				fmt.Sprintf(
					"For datum \"%s\": the base must be in the range %d - %d.",
					datum, MinBase, MaxBase),
				location)
		}
		body := datum[consumed+1:]
		radix, bodyConsumed, bodyDigits, overflow := scanInteger(body, int(noted))
		if bodyConsumed > 0 &&
			bodyConsumed+1 == len(body) &&
			body[bodyConsumed] == NumberBaseDelimiter {
			if overflow {
				return nil, p.fail(InvalidValue,
					fmt.Sprintf(
						"For datum \"%s\": numeric value out of range.", datum),
					location)
			}
			return NewIntegerBase(sign*radix, int(noted), bodyDigits), nil
		}
	}

	// Try for a real number.
	if real, ok := scanReal(datum); ok {
		precision := 0
		scientific := false
		end := strings.IndexAny(datum, "eE")
		if end >= 0 {
			scientific = true
		} else {
			end = len(datum)
		}
		if point := strings.IndexByte(datum, '.'); point >= 0 {
			// Digits after the decimal point.
			precision = end - point - 1
		}
		return &Value{
			Type:       Real,
			Real:       real,
			Precision:  precision,
			Scientific: scientific,
		}, nil
	}

	// Couldn't make a number; it's a string. The date-time check is
	// cursory, not determinate.
	value := NewString(datum, Identifier)
	if strings.ContainsAny(datum, DateTimeDelimiters) {
		value.Type = DateTime
	}
	if i := reservedCharacterIndex(datum); i >= 0 {
		err := p.warn(ReservedCharacter,
			fmt.Sprintf("At character %d of datum \"%s\"",
				i, specialToEscape(datum)),
			location, false)
		if err != nil {
			return nil, err
		}
	}
	return value, nil
}

/*------------------------------------------------------------------------------
	Units
*/

// getUnits reads a units annotation when one follows, normalizing
// whitespace and embedded comments unless verbatim.
func (p *Parser) getUnits() (string, error) {
	if p.IsEmpty() {
		return "", nil
	}
	delimiter, err := p.skipWhitespaceAndComments(p.NextLocation())
	if err != nil {
		return "", err
	}
	if p.IsEnd(delimiter) || p.At(delimiter) != UnitsStartDelimiter {
		return "", nil
	}
	delimiter++

	var units string
	end := p.LocationOfChar(UnitsEndDelimiter, delimiter)
	if end == NoLimit {
		err := p.warn(MissingUnitsEnd,
			fmt.Sprintf("For value units starting with \"%s\" ...",
				p.Substring(delimiter-1,
					minLocation(delimiter+19, p.EndLocation()))),
			delimiter-1, false)
		if err != nil {
			return "", err
		}
		// Lacking the formal end marker, find the next non-whitespace
		// value delimiter.
		for end = delimiter; ; {
			end = p.SkipUntil(parameterValueDelimiters, end)
			if end == NoLimit {
				break
			}
			if end != p.SkipUntil(Whitespace, end) {
				break
			}
			end = p.SkipOver(Whitespace, end)
			if end == NoLimit {
				break
			}
		}
		if end == NoLimit {
			end = p.EndLocation()
		}
		units = p.Substring(delimiter, end)
	} else {
		units = p.Substring(delimiter, end)
		end++
	}
	p.SetNextLocation(end)

	units = strings.Trim(units, Whitespace)
	if p.verbatimStrings {
		return units, nil
	}

	// Collapse each comment to a single space.
	for {
		first := strings.Index(units, CommentStartDelimiters)
		if first < 0 {
			break
		}
		last := strings.Index(units[first:], CommentEndDelimiters)
		if last < 0 {
			units = units[:first] + " "
			break
		}
		units = units[:first] + " " +
			units[first+last+len(CommentEndDelimiters):]
	}

	// Replace whitespace runs with a single space.
	var b strings.Builder
	inRun := false
	for i := 0; i < len(units); i++ {
		if memberOf(Whitespace, units[i]) {
			if !inRun {
				b.WriteByte(' ')
				inRun = true
			}
			continue
		}
		inRun = false
		b.WriteByte(units[i])
	}
	units = strings.Trim(b.String(), Whitespace)

	// Escape sequences are converted last so any resulting whitespace
	// is not collapsed away.
	return translateFromEscapeSequences(units), nil
}

/*------------------------------------------------------------------------------
	Quoted strings
*/

// getQuotedString reads a quoted string. The first non-whitespace
// character is the quotation mark; a backslash escapes a same-kind
// quote. Unless verbatim, line-wrap effects are folded out and escape
// sequences translated.
func (p *Parser) getQuotedString() (string, error) {
	if p.IsEmpty() {
		return "", nil
	}
	start := p.SetNextLocation(p.SkipOver(Whitespace, p.NextLocation()))
	if p.IsEnd(start) {
		return "", nil
	}
	quote := p.At(start)

	// Find the matching closing quote, allowing for escapes.
	location := start
	for {
		location = p.LocationOfChar(quote, location+1)
		if location == NoLimit || p.At(location-1) != '\\' {
			break
		}
	}
	if location == NoLimit {
		err := p.warn(MissingQuoteEnd,
			fmt.Sprintf("For the quoted string starting with \"%s\" ...",
				p.preview(start)),
			start, false)
		if err != nil {
			return "", err
		}
		location = p.EndLocation()
	}

	content := p.Substring(start+1, location)
	p.SetNextLocation(location + 1)

	if p.verbatimStrings {
		return content, nil
	}
	return p.foldQuotedString(content), nil
}

// foldQuotedString compresses out line wrap effects and translates
// escape sequences, preserving \v-fenced regions verbatim and removing
// the fences.
func (p *Parser) foldQuotedString(content string) string {
	var b strings.Builder
	b.Grow(len(content))
	forEachSection(content,
		func(section string) {
			b.WriteString(escapeToSpecial(p.foldSection(section)))
		},
		func(section string) { b.WriteString(section) })
	return b.String()
}

// foldSection joins wrapped lines in one non-verbatim section of a
// quoted string.
func (p *Parser) foldSection(section string) string {
	buf := []byte(section)
	begin := 0
	for {
		index := indexAnyFrom(buf, lineDelimiters, begin)
		if index < 0 {
			break
		}
		// Back up over any trailing whitespace.
		if back := lastIndexNotAny(buf, Whitespace, index); back >= 0 {
			if !p.stringContinuation || buf[back] != '-' ||
				back == 0 || buf[back-1] == ' ' {
				if buf[back] != StringContinuationDelimiter ||
					back == 0 || buf[back-1] == ' ' {
					// Allow one space.
					back++
					buf[back] = ' '
				}
				back++
			}
			begin = back
		} else {
			begin = 0
		}
		// Skip whitespace leading the next line; this also swallows
		// redundant line breaks.
		next := skipOverFrom(buf, Whitespace, index)
		buf = append(buf[:begin], buf[next:]...)
	}
	return string(buf)
}

/*------------------------------------------------------------------------------
	Byte scanning helpers
*/

// indexAnyFrom returns the first index >= from of a byte in set, or -1.
func indexAnyFrom(buf []byte, set string, from int) int {
	for i := from; i < len(buf); i++ {
		if memberOf(set, buf[i]) {
			return i
		}
	}
	return -1
}

// lastIndexNotAny returns the last index <= from of a byte not in set,
// or -1.
func lastIndexNotAny(buf []byte, set string, from int) int {
	if from >= len(buf) {
		from = len(buf) - 1
	}
	for i := from; i >= 0; i-- {
		if !memberOf(set, buf[i]) {
			return i
		}
	}
	return -1
}

// skipOverFrom returns the first index >= from of a byte not in set,
// or len(buf).
func skipOverFrom(buf []byte, set string, from int) int {
	i := from
	for i < len(buf) && memberOf(set, buf[i]) {
		i++
	}
	return i
}

// scanInteger scans an optionally signed integer prefix of s in the
// given base, mimicking strtol: scanning stops at the first invalid
// character. When base is 16 a 0x prefix is accepted. digits counts
// the digit characters alone; overflow reports whether the value
// exceeded the 64-bit range (the result is then clamped).
func scanInteger(s string, base int) (value int64, consumed, digits int, overflow bool) {
	i := 0
	negative := false
	if i < len(s) && (s[i] == '+' || s[i] == '-') {
		negative = s[i] == '-'
		i++
	}
	if base == 16 && i+1 < len(s) && s[i] == '0' &&
		(s[i+1] == 'x' || s[i+1] == 'X') {
		i += 2
	}
	var magnitude uint64
	start := i
	for ; i < len(s); i++ {
		var d int
		switch c := s[i]; {
		case c >= '0' && c <= '9':
			d = int(c - '0')
		case c >= 'a' && c <= 'z':
			d = int(c-'a') + 10
		case c >= 'A' && c <= 'Z':
			d = int(c-'A') + 10
		default:
			d = -1
		}
		if d < 0 || d >= base {
			break
		}
		if magnitude > (^uint64(0)-uint64(d))/uint64(base) {
			overflow = true
		} else {
			magnitude = magnitude*uint64(base) + uint64(d)
		}
	}
	digits = i - start
	if digits == 0 {
		return 0, 0, 0, false
	}
	limit := uint64(1) << 63
	if !negative {
		limit--
	}
	if magnitude > limit {
		overflow = true
		magnitude = limit
	}
	value = int64(magnitude)
	if negative {
		value = -int64(magnitude)
	}
	return value, i, digits, overflow
}

// scanReal converts a complete datum to a floating point value.
func scanReal(s string) (float64, bool) {
	if s == "" {
		return 0, false
	}
	value, err := strconv.ParseFloat(s, 64)
	return value, err == nil
}
