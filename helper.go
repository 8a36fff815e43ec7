// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

import "strings"

// isText reports whether a byte is valid PVL label text: the printable
// ASCII range plus the horizontal and vertical whitespace controls.
func isText(b byte) bool {
	if b >= 0x20 && b <= 0x7E {
		return true
	}
	switch b {
	case '\t', '\n', '\v', '\f', '\r':
		return true
	}
	return false
}

// isPrintable reports whether a byte may appear in a listed name or
// bareword without an escape sequence.
func isPrintable(b byte) bool {
	return b >= 0x20 && b <= 0x7E
}

func isOctalDigit(b byte) bool {
	return b >= '0' && b <= '7'
}

func upper(s string) string {
	return strings.ToUpper(s)
}

// memberOf reports whether b is a member of the character set.
func memberOf(set string, b byte) bool {
	return strings.IndexByte(set, b) >= 0
}

// Max returns the larger of x or y.
func Max(x, y int) int {
	if x < y {
		return y
	}
	return x
}

// Min returns the smaller of x or y.
func Min(x, y int) int {
	if x > y {
		return y
	}
	return x
}

func minLocation(x, y Location) Location {
	if x > y {
		return y
	}
	return x
}
