// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

import (
	"fmt"
	"io"
	"strings"
)

// Location is a virtual offset into the cumulative filtered character
// stream. The first character of the stream is at Location 0. Locations
// are stable across window slides.
type Location int64

// NoLimit is the Location value when no limit is to be applied, or no
// location was found.
const NoLimit Location = -1

// Window defaults.
const (
	// DefaultSizeIncrement is the window extension chunk size.
	DefaultSizeIncrement = 8096

	// DefaultReadLimit caps the number of bytes ingested from a stream
	// reader unless the caller overrides it.
	DefaultReadLimit = Location(16 * DefaultSizeIncrement)

	// DefaultNonTextLimit is the length of the consecutive non-text byte
	// run that stops ingestion.
	DefaultNonTextLimit = 1

	// InvalidCharacter is returned by At for locations outside the
	// available stream. It does not occur in any valid label text.
	InvalidCharacter = byte(0)
)

// A SlidingString presents an octet stream as an ever-extending logical
// string. The window buffer holds the slice of the stream between the
// consumer's watermark and the furthest location referenced; content
// before the watermark is dropped when the window slides forward, so
// streams of indefinite length are processed in bounded memory.
//
// Filters installed on the window observe, and may rewrite in place,
// each slice of newly ingested bytes.
//
// A SlidingString is not safe for concurrent use.
type SlidingString struct {
	reader io.Reader

	buf   []byte   // current window contents
	start Location // location of buf[0]
	next  Location // consumer watermark; >= start

	readLimit     Location // hard cap on ingested bytes, or NoLimit
	totalRead     Location
	sizeIncrement int

	nonTextLimit int // consecutive non-text run that ends ingestion; NoLimit disables
	nonTextCount int
	staging      []byte // pending non-text run carried between slides
	pushback     []byte // unprocessed chunk tail from a non-seekable reader

	filters []Filter

	err error // sticky ingest error
}

// NewSlidingString creates a window over reader, ingesting at most limit
// bytes. A zero limit selects DefaultReadLimit; NoLimit removes the cap.
func NewSlidingString(reader io.Reader, limit Location) *SlidingString {
	s := &SlidingString{
		reader:        reader,
		readLimit:     limit,
		sizeIncrement: DefaultSizeIncrement,
		nonTextLimit:  DefaultNonTextLimit,
	}
	if limit == 0 {
		s.readLimit = DefaultReadLimit
	}
	return s
}

// NewSlidingStringFrom creates a fully-read window over a pre-supplied
// string. Nothing is ever read and no filtering is applied.
func NewSlidingStringFrom(source string) *SlidingString {
	return &SlidingString{
		buf:           []byte(source),
		readLimit:     NoLimit,
		totalRead:     Location(len(source)),
		sizeIncrement: DefaultSizeIncrement,
		nonTextLimit:  int(NoLimit),
	}
}

// StringSource reports whether the window was constructed over a
// pre-supplied string rather than a stream reader.
func (s *SlidingString) StringSource() bool { return s.reader == nil }

// Err returns the sticky error from a failed underlying read, if any.
func (s *SlidingString) Err() error { return s.err }

// NextLocation returns the consumer's watermark.
func (s *SlidingString) NextLocation() Location { return s.next }

// SetNextLocation advances the watermark, sliding the window forward as
// needed, and returns the effective new watermark (clamped to the end of
// input).
func (s *SlidingString) SetNextLocation(location Location) Location {
	s.next = s.getLocation(location)
	return s.next
}

// ReadLimit returns the current limit on the number of bytes ingested.
func (s *SlidingString) ReadLimit() Location { return s.readLimit }

// SetReadLimit changes the ingest cap and returns the previous value.
// A zero limit selects DefaultReadLimit. The limit is not changed for a
// string source, nor after the non-text threshold has tripped on a
// reader that could not be repositioned before the run.
func (s *SlidingString) SetReadLimit(limit Location) Location {
	previous := s.readLimit
	if s.reader != nil &&
		(s.nonTextLimit == int(NoLimit) || s.nonTextCount < s.nonTextLimit) {
		if limit == 0 {
			limit = DefaultReadLimit
		}
		s.readLimit = limit
	}
	return previous
}

// SizeIncrement returns the window extension chunk size.
func (s *SlidingString) SizeIncrement() int { return s.sizeIncrement }

// SetSizeIncrement changes the extension chunk size and returns the
// previous value. A zero amount selects the default.
func (s *SlidingString) SetSizeIncrement(amount int) int {
	previous := s.sizeIncrement
	if amount == 0 {
		amount = DefaultSizeIncrement
	}
	s.sizeIncrement = amount
	return previous
}

// NonTextLimit returns the non-text run threshold.
func (s *SlidingString) NonTextLimit() int { return s.nonTextLimit }

// SetNonTextLimit changes the non-text run threshold and returns the
// previous value. A zero limit selects DefaultNonTextLimit.
func (s *SlidingString) SetNonTextLimit(limit int) int {
	previous := s.nonTextLimit
	if limit == 0 {
		limit = DefaultNonTextLimit
	}
	s.nonTextLimit = limit
	return previous
}

// TotalRead returns the number of bytes ingested from the reader.
func (s *SlidingString) TotalRead() Location { return s.totalRead }

// StartLocation returns the location of the first character held in the
// window buffer.
func (s *SlidingString) StartLocation() Location { return s.start }

// EndLocation returns the location immediately after the last character
// held in the window buffer.
func (s *SlidingString) EndLocation() Location {
	return s.start + Location(len(s.buf))
}

// IsEnd reports whether the location is at or beyond the end of the
// current window contents, or is NoLimit.
func (s *SlidingString) IsEnd(location Location) bool {
	return location == NoLimit || location >= s.EndLocation()
}

// ended reports whether no more input can be ingested.
func (s *SlidingString) ended() bool {
	return s.reader == nil ||
		s.err != nil ||
		(s.readLimit != NoLimit && s.totalRead >= s.readLimit)
}

// IsEmpty reports whether the input has ended and the watermark has
// consumed the entire window.
func (s *SlidingString) IsEmpty() bool {
	for !s.ended() && s.next >= s.EndLocation() {
		if !s.slide() {
			break
		}
	}
	return s.ended() && s.next >= s.EndLocation()
}

// At returns the character at the location, extending the window as
// needed. InvalidCharacter is returned for a location before the window
// start or beyond the end of input.
func (s *SlidingString) At(location Location) byte {
	if location < s.start {
		return InvalidCharacter
	}
	location = s.getLocation(location)
	if location >= s.EndLocation() {
		return InvalidCharacter
	}
	return s.buf[location-s.start]
}

// Substring extracts the filtered text in the location range
// [start, end), sliding the window forward to cover the range.
func (s *SlidingString) Substring(start, end Location) string {
	if start > end && end != NoLimit {
		start, end = end, start
	}
	if end == NoLimit {
		for !s.ended() && s.slide() {
		}
		end = s.EndLocation()
	}
	if start >= end {
		return ""
	}
	// Bring the character before the end location into the window first,
	// in case this slides the start index forward.
	last := s.getLocation(end-1) + 1
	if last > s.EndLocation() {
		last = s.EndLocation()
	}
	first := s.getLocation(start)
	if first >= last {
		return ""
	}
	return string(s.buf[first-s.start : last-s.start])
}

// Substr extracts length characters of filtered text beginning at start.
func (s *SlidingString) Substr(start, length Location) string {
	end := start + length
	if end < start {
		end = NoLimit
	}
	return s.Substring(start, end)
}

// SkipOver advances past a run of characters belonging to the skip set,
// extending the window as it searches. NoLimit is returned iff the
// search exhausts the input.
func (s *SlidingString) SkipOver(skip string, location Location) Location {
	location = s.getLocation(location)
	for {
		i := int(location - s.start)
		for i < len(s.buf) && memberOf(skip, s.buf[i]) {
			i++
		}
		location = s.start + Location(i)
		if i < len(s.buf) {
			return location
		}
		if !s.slide() {
			return NoLimit
		}
	}
}

// SkipUntil advances to the first character belonging to the find set,
// extending the window as it searches. NoLimit is returned iff the
// search exhausts the input.
func (s *SlidingString) SkipUntil(find string, location Location) Location {
	location = s.getLocation(location)
	for {
		i := int(location - s.start)
		if j := strings.IndexAny(string(s.buf[i:]), find); j >= 0 {
			return location + Location(j)
		}
		location = s.EndLocation()
		if !s.slide() {
			return NoLimit
		}
	}
}

// LocationOf returns the location of the first occurrence of the
// pattern at or after the location, extending the window on a miss.
// NoLimit is returned iff the search exhausts the input.
func (s *SlidingString) LocationOf(pattern string, location Location) Location {
	location = s.getLocation(location)
	for {
		i := int(location - s.start)
		if j := strings.Index(string(s.buf[i:]), pattern); j >= 0 {
			return location + Location(j)
		}
		// Move back to allow a pattern match across the window end.
		if Location(len(pattern)) <= s.EndLocation() {
			back := s.EndLocation() - Location(len(pattern)) + 1
			if back > location {
				location = back
			}
		}
		if !s.slide() {
			return NoLimit
		}
	}
}

// LocationOfChar returns the location of the first occurrence of the
// character at or after the location. NoLimit is returned iff the
// search exhausts the input.
func (s *SlidingString) LocationOfChar(character byte, location Location) Location {
	location = s.getLocation(location)
	for {
		i := int(location - s.start)
		if j := strings.IndexByte(string(s.buf[i:]), character); j >= 0 {
			return location + Location(j)
		}
		location = s.EndLocation()
		if !s.slide() {
			return NoLimit
		}
	}
}

// BeginsWith tests for the pattern at the location, extending the
// window to cover the pattern length.
func (s *SlidingString) BeginsWith(pattern string, location Location, caseSensitive bool) bool {
	if len(pattern) == 0 {
		return true
	}
	location = s.getLocation(location)
	endOfPattern := s.getLocation(location + Location(len(pattern)) - 1)
	if endOfPattern >= s.EndLocation() {
		return false
	}
	have := string(s.buf[location-s.start : endOfPattern+1-s.start])
	if caseSensitive {
		return have == pattern
	}
	return strings.EqualFold(have, pattern)
}

// Remains copies any bytes held back from the window (the non-text run
// that tripped the ingest threshold on a non-seekable reader) into
// buffer, returning the count.
func (s *SlidingString) Remains(buffer []byte) int {
	return copy(buffer, s.staging)
}

// InsertFilter appends a filter to the chain. Filters are applied to
// each slice of newly ingested characters in installation order.
func (s *SlidingString) InsertFilter(filter Filter) {
	s.filters = append(s.filters, filter)
}

// RemoveFilter removes a filter from the chain, reporting whether it
// was present. A nil filter removes every filter.
func (s *SlidingString) RemoveFilter(filter Filter) bool {
	if filter == nil {
		removed := len(s.filters) != 0
		s.filters = nil
		return removed
	}
	for i, f := range s.filters {
		if f == filter {
			s.filters = append(s.filters[:i], s.filters[i+1:]...)
			return true
		}
	}
	return false
}

// getLocation ensures the location has been read into the window. A
// location at or beyond the end of input is clamped to the end
// location; NoLimit means the end location. A location before the
// window start is a programmer error and panics.
func (s *SlidingString) getLocation(location Location) Location {
	if location == NoLimit {
		return s.EndLocation()
	}
	if location < s.start {
		panic(fmt.Sprintf(
			"pvl: can't get to location %d with the window located at %d",
			location, s.start))
	}
	for location >= s.EndLocation() && s.slide() {
	}
	if location >= s.EndLocation() {
		return s.EndLocation()
	}
	return location
}

// slide drops the consumed portion of the window and ingests the next
// chunk of input, applying the filter chain to the appended bytes. It
// reports whether any input was ingested.
func (s *SlidingString) slide() bool {
	// Free the consumed data.
	if index := Min(int(s.next-s.start), len(s.buf)); index > 0 {
		n := copy(s.buf, s.buf[index:])
		s.buf = s.buf[:n]
		s.start += Location(index)
	}

	if s.ended() ||
		(s.nonTextLimit != int(NoLimit) && s.nonTextCount >= s.nonTextLimit) {
		return false
	}

	readAmount := Location(s.sizeIncrement)
	if s.readLimit != NoLimit {
		readAmount = minLocation(readAmount, s.readLimit-s.totalRead)
	}
	chunk := make([]byte, readAmount)
	n := copy(chunk, s.pushback)
	s.pushback = s.pushback[n:]
	for Location(n) < readAmount {
		m, err := s.reader.Read(chunk[n:])
		n += m
		if err == io.EOF {
			s.readLimit = s.totalRead + Location(n)
			break
		}
		if err != nil {
			s.err = fmt.Errorf("pvl: reading the input stream failed: %w", err)
			s.readLimit = s.totalRead + Location(n)
			break
		}
		if m == 0 {
			// A reader that makes no progress is treated as ended.
			s.readLimit = s.totalRead + Location(n)
			break
		}
	}

	index := len(s.buf)
	s.ingest(chunk[:n])

	if index < len(s.buf) {
		// Apply any post-slide filtering to the new data.
		for _, f := range s.filters {
			if f.Enabled() {
				f.Apply(s.buf, index, len(s.buf), s.start)
			}
		}
	}
	return n > 0
}

// ingest screens a chunk of raw input for non-text data. Text bytes,
// and completed non-text runs shorter than the threshold, move into the
// window; a run reaching the threshold rewinds the reader to the run
// start and pins the read limit at the boundary so ingestion stops
// cleanly where binary data begins.
func (s *SlidingString) ingest(chunk []byte) {
	if s.nonTextLimit == int(NoLimit) {
		s.buf = append(s.buf, chunk...)
		s.totalRead += Location(len(chunk))
		s.nonTextCount = 0
		return
	}
	for i := 0; i < len(chunk); i++ {
		b := chunk[i]
		s.totalRead++
		if isText(b) {
			if s.nonTextCount > 0 {
				// A completed short non-text run is allowed through for
				// the benefit of input filters.
				s.buf = append(s.buf, s.staging...)
				s.staging = s.staging[:0]
				s.nonTextCount = 0
			}
			s.buf = append(s.buf, b)
			continue
		}
		s.staging = append(s.staging, b)
		s.nonTextCount++
		if s.nonTextCount < s.nonTextLimit {
			continue
		}
		// Threshold reached. Reposition the reader at the beginning of
		// the run when possible and stop ingestion at the last text
		// byte.
		unprocessed := len(chunk) - i - 1
		if seeker, ok := s.reader.(io.Seeker); ok {
			if _, err := seeker.Seek(
				-int64(unprocessed+s.nonTextCount), io.SeekCurrent); err == nil {
				s.totalRead -= Location(s.nonTextCount)
				s.staging = s.staging[:0]
				s.nonTextCount = 0
			}
		} else if unprocessed > 0 {
			// The run stays in staging for Remains; the unread tail of
			// the chunk is kept in pushback.
			s.pushback = append(s.pushback, chunk[i+1:]...)
		}
		s.readLimit = s.totalRead - Location(s.nonTextCount)
		return
	}
}
