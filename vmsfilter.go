// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

// VMS variable-length record files prepend each record with a
// little-endian 16-bit size value and pad each record to an even
// length. The size bytes are replaced with a CR-LF pair and the pad
// byte with a space so the label appears as ordinary line-broken text.

// RecordSizeLimit is the size value at which a stream stops being
// plausibly VMS-framed.
const RecordSizeLimit = 8192

// Interpretation of the recordSize state:
//
//	vmsDisabled   - filtering off.
//	vmsInitialize - the next slide decides whether the stream is framed.
//	vmsSplit      - a size word straddles a slide boundary; the low byte
//	                has been seen.
//	non-negative  - offset from the next byte to the next size word, or
//	                to the pad byte when padded is set.
//
// A pad byte, when present, is always followed by a size word.
const (
	vmsDisabled   = -3
	vmsInitialize = -2
	vmsSplit      = -1
)

// A VMSRecordsFilter unframes VMS variable-length records as the window
// slides.
type VMSRecordsFilter struct {
	recordSize int
	padded     bool
	lsb        byte
}

// NewVMSRecordsFilter returns a filter that will decide from the first
// slide whether the stream looks VMS-framed.
func NewVMSRecordsFilter() *VMSRecordsFilter {
	return &VMSRecordsFilter{recordSize: vmsInitialize}
}

// Identification implements Filter.
func (f *VMSRecordsFilter) Identification() string {
	return "pvl.VMSRecordsFilter"
}

// Enabled implements Filter.
func (f *VMSRecordsFilter) Enabled() bool {
	return f.recordSize != vmsDisabled
}

// SetEnabled enables or disables the filter, returning the previous
// state. Re-enabling a disabled filter restarts framing detection.
func (f *VMSRecordsFilter) SetEnabled(enable bool) bool {
	enabled := f.recordSize != vmsDisabled
	if !enable {
		f.recordSize = vmsDisabled
	} else if f.recordSize == vmsDisabled {
		f.recordSize = vmsInitialize
	}
	return enabled
}

func recordSize(lsb, msb byte) int {
	return int(msb)<<8 | int(lsb)
}

// Apply implements Filter. The size value of each record in the new
// bytes is replaced with CR LF and each odd-length record's pad byte
// with a space. A size value of RecordSizeLimit or more disables the
// filter: the stream is no longer plausibly VMS-framed.
func (f *VMSRecordsFilter) Apply(window []byte, index, end int, _ Location) {
	if f.recordSize == vmsDisabled {
		return
	}
	if end > len(window) {
		end = len(window)
	}
	if index >= end {
		return
	}

	// Pick up where the last slide left off.
	size := f.recordSize
	switch size {
	case vmsInitialize:
		if (end-index) < 2 ||
			recordSize(window[index], window[index+1]) >= RecordSizeLimit {
			// No record size bytes detected.
			f.recordSize = vmsDisabled
			return
		}
		size = 0
		f.padded = false
	case vmsSplit:
		// Split record size value; reassemble it.
		size = recordSize(f.lsb, window[index])
		if size >= RecordSizeLimit {
			if index > 0 {
				// Restore the low byte.
				window[index-1] = f.lsb
			}
			f.recordSize = vmsDisabled
			return
		}
		// Fill the high byte hole and step over the record data.
		window[index] = '\n'
		index++
		index += size
		f.padded = size%2 != 0
		size = 0
	}

	// Plug the holes in the sized records.
	pad := 0
	if f.padded {
		pad = 1
	}
	for index += size; index+pad+1 < end; {
		if f.padded {
			// Patch the null pad byte with a space character.
			window[index] = ' '
			index++
		}
		size = recordSize(window[index], window[index+1])
		if size >= RecordSizeLimit {
			f.recordSize = vmsDisabled
			return
		}
		// Replace the two record size bytes with a line break.
		window[index] = '\r'
		index++
		window[index] = '\n'
		index++
		f.padded = size%2 != 0
		pad = 0
		if f.padded {
			pad = 1
		}
		index += size
	}

	if index < end && f.padded {
		// Trailing pad byte.
		window[index] = ' '
		index++
		f.padded = false
	}

	if index+1 == end {
		// Split size value.
		f.recordSize = vmsSplit
		f.lsb = window[index]
		window[index] = '\r'
	} else {
		// Offset from the end index to where filtering picks up again
		// after the window is extended.
		f.recordSize = index - end
	}
}
