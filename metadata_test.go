// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func bindLabel(t *testing.T, source string) Metadata {
	t.Helper()
	parser := NewParserFrom(source)
	tree, err := parser.GetParameters()
	require.NoError(t, err)
	require.NotNil(t, tree)
	var metadata Metadata
	metadata.Bind(tree, false)
	return metadata
}

func TestMetadataBindPDSLabel(t *testing.T) {
	metadata := bindLabel(t, `
PDS_VERSION_ID = PDS3
RECORD_BYTES = 2048
LABEL_RECORDS = 2
^IMAGE = 3
OBJECT = IMAGE
  LINES = 1024
  LINE_SAMPLES = 512
  SAMPLE_BITS = 16
  SAMPLE_TYPE = MSB_INTEGER
END_OBJECT = IMAGE
END
`)
	require.Equal(t, int64(2048), metadata.RecordBytes)
	require.Equal(t, int64(2), metadata.LabelRecords)
	require.Equal(t, int64(3), metadata.ImageRecord)
	require.Equal(t, int64(1024), metadata.Lines)
	require.Equal(t, int64(512), metadata.LineSamples)
	require.Equal(t, int64(16), metadata.SampleBits)
	require.Equal(t, int64(2), metadata.SampleBytes)
	require.Equal(t, int64(1), metadata.Bands)
	require.Equal(t, "MSB_INTEGER", metadata.SampleType)
	// ^IMAGE is a record pointer: offset = (record - 1) * record size.
	require.Equal(t, int64(4096), metadata.ImageOffsetBytes)
}

// Without a record size, a large ^IMAGE value is heuristically a byte
// count.
func TestMetadataImagePointerByteCount(t *testing.T) {
	metadata := bindLabel(t, "^IMAGE = 65537\nLINES = 2\nLINE_SAMPLES = 2\nEND")
	require.Equal(t, int64(65536), metadata.ImageOffsetBytes)

	// A small value without a record size stays unresolved.
	metadata = bindLabel(t, "^IMAGE = 3\nLINES = 2\nLINE_SAMPLES = 2\nEND")
	require.Equal(t, int64(0), metadata.ImageOffsetBytes)
}

func TestMetadataLabelRecordsFallback(t *testing.T) {
	metadata := bindLabel(t,
		"RECORD_BYTES = 512\nLABEL_RECORDS = 4\nLINES = 1\nLINE_SAMPLES = 1\nEND")
	require.Equal(t, int64(2048), metadata.ImageOffsetBytes)
}

func TestMetadataQubeCoreItems(t *testing.T) {
	metadata := bindLabel(t, `
OBJECT = QUBE
  CORE_ITEMS = (320, 272, 94)
  CORE_ITEM_BYTES = 2
END_OBJECT = QUBE
END
`)
	require.Equal(t, []int64{320, 272, 94}, metadata.CoreItems)
	require.Equal(t, int64(320), metadata.LineSamples)
	require.Equal(t, int64(272), metadata.Lines)
	require.Equal(t, int64(94), metadata.Bands)
	require.Equal(t, int64(2), metadata.SampleBytes)
	require.Equal(t, int64(16), metadata.SampleBits)
}

func TestMetadataEOLOffset(t *testing.T) {
	metadata := bindLabel(t, `
RECORD_BYTES = 64
LABEL_RECORDS = 1
EOL = 1
OBJECT = IMAGE
  LINES = 2
  LINE_SAMPLES = 4
  SAMPLE_BITS = 8
END_OBJECT = IMAGE
END
`)
	require.Equal(t, int64(1), metadata.EOL)
	require.Equal(t, int64(64), metadata.ImageOffsetBytes)
	require.Equal(t, int64(64+2*4), metadata.EOLOffset())

	// No EOL parameter, no offset.
	metadata = bindLabel(t, "RECORD_BYTES = 64\nLINES = 2\nLINE_SAMPLES = 4\nEND")
	require.Equal(t, int64(0), metadata.EOLOffset())
}

func TestSelectFirstMatchWins(t *testing.T) {
	parser := NewParserFrom("NS = 100\nLINE_SAMPLES = 200\nEND")
	tree, err := parser.GetParameters()
	require.NoError(t, err)

	var samples int64
	resolved := Select(tree, []Selection{
		{Pathname: "LINE_SAMPLES", Slot: &samples},
		{Pathname: "NS", Slot: &samples},
	}, false)
	require.Equal(t, 1, resolved)
	// The first selection resolved the slot; the later one is skipped.
	require.Equal(t, int64(200), samples)
}

func TestSelectSlotKinds(t *testing.T) {
	parser := NewParserFrom(`
COUNT = 42
SCALE = 1.25
NAME = "Phobos"
DIMS = (4, 5, 6)
END
`)
	tree, err := parser.GetParameters()
	require.NoError(t, err)

	var (
		count int64
		scale float64
		name  string
		dims  []int64
	)
	resolved := Select(tree, []Selection{
		{Pathname: "COUNT", Slot: &count},
		{Pathname: "SCALE", Slot: &scale},
		{Pathname: "NAME", Slot: &name},
		{Pathname: "DIMS", Slot: &dims, Count: 3},
		{Pathname: "MISSING", Slot: new(int64)},
	}, false)
	require.Equal(t, 4, resolved)
	require.Equal(t, int64(42), count)
	require.Equal(t, 1.25, scale)
	require.Equal(t, "Phobos", name)
	require.Equal(t, []int64{4, 5, 6}, dims)
}
