// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

import "strings"

// A ParameterClass selects which parameter variants a pathname search
// will match.
type ParameterClass int

const (
	// AggregateParameter matches only Aggregate parameters.
	AggregateParameter ParameterClass = -1

	// AnyParameter matches either variant.
	AnyParameter ParameterClass = 0

	// AssignmentParameter matches only Assignment parameters.
	AssignmentParameter ParameterClass = 1
)

func (c ParameterClass) matches(p *Parameter) bool {
	switch c {
	case AggregateParameter:
		return p.IsAggregate()
	case AssignmentParameter:
		return p.IsAssignment()
	}
	return true
}

// AtPathname reports whether the Parameter matches a pathname. An
// absolute pathname (leading slash) must equal the Parameter's full
// pathname; a relative pathname matches any trailing run of complete
// pathname segments. Matching is case-insensitive unless caseSensitive.
func (p *Parameter) AtPathname(pathname string, caseSensitive bool) bool {
	if pathname == "" {
		return false
	}
	full := p.Pathname()
	absolute := pathname[0] == '/'
	if !absolute {
		pathname = "/" + pathname
	}
	if !caseSensitive {
		full = upper(full)
		pathname = upper(pathname)
	}
	if absolute {
		return full == pathname
	}
	return strings.HasSuffix(full, pathname)
}

// Find searches the Aggregate's descendants in depth order for a
// parameter matching the pathname, skipping the first skip matches and
// filtering by parameter class. nil is returned when no match remains.
func (p *Parameter) Find(pathname string, caseSensitive bool, skip int,
	class ParameterClass) *Parameter {

	var found *Parameter
	p.Walk(func(candidate *Parameter) bool {
		if !class.matches(candidate) ||
			!candidate.AtPathname(pathname, caseSensitive) {
			return true
		}
		if skip > 0 {
			skip--
			return true
		}
		found = candidate
		return false
	})
	return found
}

// FindParameter is the common selector form: the first case-insensitive
// match of any class.
func (p *Parameter) FindParameter(pathname string) *Parameter {
	return p.Find(pathname, false, 0, AnyParameter)
}
