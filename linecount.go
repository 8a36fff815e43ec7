// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

// A Position is a line and character location in the filtered character
// stream. Lines count from 1, characters from 0.
type Position struct {
	Line      int
	Character int
}

// Valid reports whether the position identifies a character within the
// cumulative filtered text.
func (p Position) Valid() bool { return p.Character >= 0 }

const (
	lcInitialize = -1
	lcDisabled   = 0
	lcEnabled    = 1
)

// A LineCountFilter records the Location of the character after each
// newline as the window slides, and answers line-column queries for
// arbitrary Locations.
type LineCountFilter struct {
	state         int
	startPosition Position
	lineLocations []Location
	lastLocation  Location
}

// NewLineCountFilter returns a filter counting lines from the given
// start position. The zero Position is corrected to line 1.
func NewLineCountFilter(start Position) *LineCountFilter {
	if start.Line < 1 {
		start.Line = 1
	}
	return &LineCountFilter{state: lcInitialize, startPosition: start}
}

// Identification implements Filter.
func (f *LineCountFilter) Identification() string {
	return "pvl.LineCountFilter"
}

// Enabled implements Filter.
func (f *LineCountFilter) Enabled() bool {
	return f.state != lcDisabled
}

// SetEnabled enables or disables the filter, returning the previous
// state. Re-enabling clears the recorded newline locations.
func (f *LineCountFilter) SetEnabled(enable bool) bool {
	enabled := f.state != lcDisabled
	if !enable {
		f.state = lcDisabled
	} else if !enabled {
		f.state = lcInitialize
	}
	return enabled
}

// Apply implements Filter.
func (f *LineCountFilter) Apply(window []byte, start, end int, base Location) {
	if f.state == lcDisabled {
		return
	}
	if f.state == lcInitialize {
		f.state = lcEnabled
		f.lineLocations = f.lineLocations[:0]
		f.lastLocation = base + Location(start)
	}
	if end > len(window) {
		end = len(window)
	}
	for index := start; index < end; index++ {
		if window[index] == '\n' {
			// Record the Location of the beginning of the next line.
			f.lineLocations = append(f.lineLocations,
				f.lastLocation+Location(index+1-start))
		}
	}
	f.lastLocation += Location(end - start)
}

// PositionOf returns the line-column position of a stream Location. A
// Location beyond the cumulative filtered text yields an invalid
// Position (negative character).
func (f *LineCountFilter) PositionOf(location Location) Position {
	position := f.startPosition
	if len(f.lineLocations) == 0 {
		// No lines recorded.
		position.Character += int(location)
		return position
	}
	index := 0
	for index < len(f.lineLocations) && location > f.lineLocations[index] {
		index++
	}
	if index == len(f.lineLocations) {
		// Beyond the last newline.
		position.Line += len(f.lineLocations)
		if location > f.lastLocation {
			// Beyond the end of the cumulative text.
			position.Character = -1
		} else {
			// Within the last line.
			position.Character = int(location - f.lineLocations[index-1])
		}
		return position
	}
	line := index
	if location == f.lineLocations[index] {
		// Beginning of the next line.
		line++
	}
	if line == 0 {
		// Within the first line.
		position.Character += int(location)
	} else {
		position.Character = int(location - f.lineLocations[line-1])
	}
	position.Line += line
	return position
}
