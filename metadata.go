// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

// A Selection binds a label parameter pathname to a typed slot. The
// resolver sets the slot from the first matching Assignment's value;
// an unresolved binding retains its initialized value so absence can
// be detected.
//
// Slot must be a *int64, *float64, *string, or *[]int64. Count limits
// how many array elements fill a slice slot; the zero value means one.
type Selection struct {
	Pathname string
	Slot     any
	Count    int
}

// Select resolves the selections, in order, against the tree rooted at
// root. The first Assignment at each pathname wins; later selections
// sharing an already-resolved slot are skipped. The number of resolved
// slots is returned.
func Select(root *Parameter, selections []Selection, caseSensitive bool) int {
	resolved := make(map[any]bool, len(selections))
	count := 0
	for _, selection := range selections {
		if resolved[selection.Slot] {
			continue
		}
		parameter := root.Find(
			selection.Pathname, caseSensitive, 0, AssignmentParameter)
		if parameter == nil || parameter.Value == nil {
			continue
		}
		if bindSlot(selection, parameter.Value) {
			resolved[selection.Slot] = true
			count++
		}
	}
	return count
}

func bindSlot(selection Selection, value *Value) bool {
	// A scalar slot takes the first element of an array value.
	scalar := value
	if value.IsArray() {
		if len(value.Array) == 0 {
			return false
		}
		scalar = value.Array[0]
	}
	switch slot := selection.Slot.(type) {
	case *int64:
		i, ok := scalar.AsInteger()
		if ok {
			*slot = i
		}
		return ok
	case *float64:
		r, ok := scalar.AsReal()
		if ok {
			*slot = r
		}
		return ok
	case *string:
		s, ok := scalar.AsText()
		if ok {
			*slot = s
		}
		return ok
	case *[]int64:
		count := selection.Count
		if count == 0 {
			count = 1
		}
		elements := value.Array
		if !value.IsArray() {
			elements = []*Value{value}
		}
		var out []int64
		for _, element := range elements {
			if len(out) == count {
				break
			}
			if i, ok := element.AsInteger(); ok {
				out = append(out, i)
			}
		}
		if len(out) == 0 {
			return false
		}
		*slot = out
		return true
	}
	return false
}

// Metadata holds the structural label parameters an image consumer
// binds from a parsed PDS/VICAR label. Zero values mark parameters
// absent from the label, except where Bind derives a value: Bands
// defaults to 1, SampleBits and SampleBytes are derived from each
// other, and ImageOffsetBytes is computed from the record pointers.
type Metadata struct {
	RecordBytes   int64
	HeaderRecords int64
	LabelRecords  int64

	// ImageRecord is the ^IMAGE (or ^QUBE) pointer value as written:
	// a record number, or for some products a byte count.
	ImageRecord int64

	// ImageOffsetBytes is the resolved byte offset where image data
	// begins.
	ImageOffsetBytes int64

	LineSamples     int64
	Lines           int64
	Bands           int64
	CoreItems       []int64
	SampleBits      int64
	SampleBytes     int64
	LinePrefixBytes int64
	LineSuffixBytes int64
	SampleType      string
	EOL             int64
}

// byteCountThreshold is the ^IMAGE value above which, absent a record
// size, the pointer is taken as a byte count rather than a record
// count. Clementine-1 and MRO/HiRISE products write the pointer this
// way.
const byteCountThreshold = 300

// selections returns the ordered pathname bindings for a PDS/VICAR
// label. Order matters: the first Assignment found for a slot wins.
func (m *Metadata) selections() []Selection {
	return []Selection{
		{Pathname: "RECORD_BYTES", Slot: &m.RecordBytes},
		{Pathname: "/RECSIZE", Slot: &m.RecordBytes},
		{Pathname: "HEADER_RECORD_BYTES", Slot: &m.RecordBytes},
		{Pathname: "HEADER_RECORDS", Slot: &m.HeaderRecords},
		{Pathname: "LABEL_RECORDS", Slot: &m.LabelRecords},
		{Pathname: "/NLB", Slot: &m.LabelRecords},
		{Pathname: "LBLSIZE", Slot: &m.ImageOffsetBytes},
		{Pathname: "^IMAGE", Slot: &m.ImageRecord},
		{Pathname: "/^QUBE", Slot: &m.ImageRecord},
		{Pathname: "/^SPECTRAL_QUBE", Slot: &m.ImageRecord},
		{Pathname: "LINE_SAMPLES", Slot: &m.LineSamples},
		{Pathname: "NS", Slot: &m.LineSamples},
		{Pathname: "IMAGE/LINE_SAMPLES", Slot: &m.LineSamples},
		{Pathname: "NL", Slot: &m.Lines},
		{Pathname: "IMAGE_LINES", Slot: &m.Lines},
		{Pathname: "LINES", Slot: &m.Lines},
		{Pathname: "IMAGE/LINES", Slot: &m.Lines},
		{Pathname: "NB", Slot: &m.Bands},
		{Pathname: "IMAGE/BANDS", Slot: &m.Bands},
		{Pathname: "/QUBE/CORE_ITEMS", Slot: &m.CoreItems, Count: 3},
		{Pathname: "/SPECTRAL_QUBE/CORE_ITEMS", Slot: &m.CoreItems, Count: 3},
		{Pathname: "IMAGE/LINE_PREFIX_BYTES", Slot: &m.LinePrefixBytes},
		{Pathname: "NBB", Slot: &m.LinePrefixBytes},
		{Pathname: "LINE_SUFFIX_BYTES", Slot: &m.LineSuffixBytes},
		{Pathname: "IMAGE/SAMPLE_BITS", Slot: &m.SampleBits},
		{Pathname: "/QUBE/CORE_ITEM_BYTES", Slot: &m.SampleBytes},
		{Pathname: "/SPECTRAL_QUBE/CORE_ITEM_BYTES", Slot: &m.SampleBytes},
		{Pathname: "DATA_TYPE", Slot: &m.SampleType},
		{Pathname: "ITEM_TYPE", Slot: &m.SampleType},
		{Pathname: "INTFMT", Slot: &m.SampleType},
		{Pathname: "IMAGE/SAMPLE_TYPE", Slot: &m.SampleType},
		{Pathname: "/EOL", Slot: &m.EOL},
	}
}

// Bind resolves the metadata bindings against a parsed label and
// derives the image data location and sample geometry.
func (m *Metadata) Bind(label *Parameter, caseSensitive bool) {
	Select(label, m.selections(), caseSensitive)

	// Qube labels carry the dimensions as a core items triplet.
	if len(m.CoreItems) == 3 {
		if m.LineSamples == 0 {
			m.LineSamples = m.CoreItems[0]
		}
		if m.Lines == 0 {
			m.Lines = m.CoreItems[1]
		}
		if m.Bands == 0 {
			m.Bands = m.CoreItems[2]
		}
	}
	if m.Bands == 0 {
		m.Bands = 1
	}

	// Pixel size in bits and bytes.
	if m.SampleBits == 0 && m.SampleBytes != 0 {
		m.SampleBits = m.SampleBytes * 8
	} else if m.SampleBytes == 0 {
		m.SampleBytes = m.SampleBits / 8
		if m.SampleBits%8 != 0 {
			m.SampleBytes++
		}
	}

	// A detached image data file has an offset of 0.
	if m.ImageOffsetBytes == 0 && m.ImageRecord != 0 {
		switch {
		case m.RecordBytes != 0:
			m.ImageOffsetBytes = m.RecordBytes * (m.ImageRecord - 1)
		case m.ImageRecord > byteCountThreshold:
			// The pointer is a byte count, not an offset.
			m.ImageOffsetBytes = m.ImageRecord - 1
		}
	} else if m.ImageOffsetBytes == 0 &&
		m.LabelRecords != 0 && m.RecordBytes != 0 {
		m.ImageOffsetBytes = m.RecordBytes * m.LabelRecords
	}
	m.ImageOffsetBytes += m.HeaderRecords * m.RecordBytes
}

// EOLOffset returns the byte offset of the end-of-label parameters
// located immediately after the image data, or 0 when the label has no
// EOL parameter or the geometry is unresolved.
func (m *Metadata) EOLOffset() int64 {
	if m.EOL == 0 || m.Lines == 0 || m.LineSamples == 0 {
		return 0
	}
	lineBytes := m.LineSamples*m.SampleBytes +
		m.LinePrefixBytes + m.LineSuffixBytes
	return m.ImageOffsetBytes + m.Bands*m.Lines*lineBytes
}
