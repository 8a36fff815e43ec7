// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

// frameVMS wraps each record with a little-endian size value and an
// even-length pad, the way VMS variable-length record files are laid
// out.
func frameVMS(records ...string) []byte {
	var framed bytes.Buffer
	for _, record := range records {
		framed.WriteByte(byte(len(record)))
		framed.WriteByte(byte(len(record) >> 8))
		framed.WriteString(record)
		if len(record)%2 != 0 {
			framed.WriteByte(0)
		}
	}
	return framed.Bytes()
}

func applyVMS(t *testing.T, framed []byte, sliceSizes ...int) (string, *VMSRecordsFilter) {
	t.Helper()
	filter := NewVMSRecordsFilter()
	window := make([]byte, 0, len(framed))
	if len(sliceSizes) == 0 {
		sliceSizes = []int{len(framed)}
	}
	offset := 0
	for _, size := range sliceSizes {
		start := len(window)
		window = append(window, framed[offset:offset+size]...)
		offset += size
		filter.Apply(window, start, len(window), 0)
	}
	return string(window), filter
}

func TestVMSRecordsFilterUnframes(t *testing.T) {
	unframed, filter := applyVMS(t, frameVMS("A = 1", "END"))
	require.True(t, filter.Enabled())
	require.Equal(t, "\r\nA = 1 \r\nEND ", unframed)
}

func TestVMSRecordsFilterEvenRecords(t *testing.T) {
	unframed, filter := applyVMS(t, frameVMS("NAME = VALUE", "ITEM = 42"))
	require.True(t, filter.Enabled())
	require.Equal(t, "\r\nNAME = VALUE\r\nITEM = 42 ", unframed)
}

// A size word split across a slide boundary is reassembled.
func TestVMSRecordsFilterSplitSizeWord(t *testing.T) {
	framed := frameVMS("AB = CD", "XY = Z")
	// First record is 2 size bytes + 7 data + 1 pad = 10 bytes; cut one
	// byte into the second size word.
	unframed, filter := applyVMS(t, framed, 11, len(framed)-11)
	require.True(t, filter.Enabled())
	require.Equal(t, "\r\nAB = CD \r\nXY = Z", unframed)
}

func TestVMSRecordsFilterDisablesOnText(t *testing.T) {
	plain := []byte("GROUP = PLAIN\r\nEND\r\n")
	window := append([]byte(nil), plain...)
	filter := NewVMSRecordsFilter()
	filter.Apply(window, 0, len(window), 0)
	require.False(t, filter.Enabled())
	// The content is untouched.
	require.Equal(t, string(plain), string(window))
}

func TestVMSRecordsFilterDisablesOnOversizedRecord(t *testing.T) {
	framed := frameVMS("A = 1")
	// A second "record" whose size value is implausibly large.
	framed = append(framed, 0xFF, 0xFF, 'j', 'u', 'n', 'k')
	_, filter := applyVMS(t, framed)
	require.False(t, filter.Enabled())
}

func TestVMSRecordsFilterReEnable(t *testing.T) {
	filter := NewVMSRecordsFilter()
	require.True(t, filter.SetEnabled(false))
	require.False(t, filter.Enabled())
	require.False(t, filter.SetEnabled(true))
	require.True(t, filter.Enabled())
}

// A VMS-framed stream parses to the same tree as the unframed text.
func TestParseVMSFramedStream(t *testing.T) {
	framed := frameVMS("PRODUCT_ID = X42", "LINES = 1024", "END")
	parser := NewParser(bytes.NewReader(framed), 0)
	require.True(t, parser.VMSRecords())
	parameters, err := parser.GetParameters()
	require.NoError(t, err)
	require.Len(t, parameters.Children(), 2)
	require.Equal(t, "PRODUCT_ID", parameters.Children()[0].Name)
	require.Equal(t, "X42", parameters.Children()[0].Value.Text)
	require.Equal(t, int64(1024), parameters.Children()[1].Value.Integer)
}
