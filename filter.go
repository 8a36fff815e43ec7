// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

// A Filter observes each window slide and may rewrite the newly
// ingested bytes in place. A filter must not change the byte count of
// the window.
type Filter interface {
	// Identification returns a description of the filter.
	Identification() string

	// Enabled reports whether the filter is active. A disabled filter
	// is skipped by the window's filter chain.
	Enabled() bool

	// Apply processes window[start:end], the bytes appended by the
	// latest slide. base is the Location of window[0]; content before
	// start is earlier window data that has not yet been consumed.
	Apply(window []byte, start, end int, base Location)
}
