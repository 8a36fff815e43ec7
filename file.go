// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

package pvl

import (
	"bytes"
	"fmt"
	"io"
	"os"

	mmap "github.com/edsrzf/mmap-go"
	"github.com/go-kratos/kratos/v2/log"
)

// A File represents an open label-bearing product file: a PVL label
// (attached or detached) optionally followed by binary image data.
type File struct {
	// Label is the parsed parameter tree, rooted at a Container.
	Label *Parameter

	// Metadata is the structural image geometry bound from the label.
	Metadata Metadata

	// Warnings are the parser diagnostics accumulated while reading
	// the label.
	Warnings []*Diagnostic

	// OverlayOffset is the byte offset of the first byte past the
	// label text, where binary image data begins.
	OverlayOffset int64

	// VMSRecords reports whether VMS record framing was detected.
	VMSRecords bool

	data      mmap.MMap
	size      int64
	f         *os.File
	opts      *Options
	logger    *log.Helper
	rawLogger log.Logger
}

// Options configure label parsing. The zero value selects the
// defaults: lenient parsing, escape folding, crosshatch comments and
// string continuation on.
type Options struct {
	// Strict converts the first parser finding into an error.
	Strict bool

	// VerbatimStrings keeps escape sequences literal and disables
	// line-wrap folding.
	VerbatimStrings bool

	// NoCommentedLines disables crosshatch line comments.
	NoCommentedLines bool

	// NoStringContinuation disables hyphen continuation in wrapped
	// quoted strings.
	NoStringContinuation bool

	// CaseSensitive makes metadata pathname lookups case-sensitive.
	CaseSensitive bool

	// ReadLimit caps the bytes ingested for the label, by default
	// DefaultReadLimit. NoLimit removes the cap.
	ReadLimit Location

	// A custom logger.
	Logger log.Logger
}

// New instantiates a file instance with options given a file name.
// The file is memory mapped instead of read through a buffer.
func New(name string, opts *Options) (*File, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, err
	}
	data, err := mmap.Map(f, mmap.RDONLY, 0)
	if err != nil {
		f.Close()
		return nil, err
	}
	file := newFile(data, opts)
	file.f = f
	return file, nil
}

// NewBytes instantiates a file instance with options given a memory
// buffer.
func NewBytes(data []byte, opts *Options) (*File, error) {
	return newFile(data, opts), nil
}

func newFile(data []byte, opts *Options) *File {
	file := &File{data: data, size: int64(len(data))}
	if opts != nil {
		file.opts = opts
	} else {
		file.opts = &Options{}
	}
	if file.opts.Logger == nil {
		file.rawLogger = log.NewFilter(log.NewStdLogger(os.Stdout),
			log.FilterLevel(log.LevelError))
	} else {
		file.rawLogger = file.opts.Logger
	}
	file.logger = log.NewHelper(file.rawLogger)
	return file
}

// Close closes the File.
func (file *File) Close() error {
	if file.f != nil {
		_ = file.data.Unmap()
		return file.f.Close()
	}
	return nil
}

// Parse reads the label from the head of the file, binds the image
// metadata, and, when an EOL parameter points past the image data,
// parses and attaches the end-of-label parameters.
func (file *File) Parse() (err error) {
	// An out-of-window access is a programmer error; keep it from
	// taking down the caller.
	defer func() {
		if e := recover(); e != nil {
			file.logger.Errorf("unhandled failure while parsing label: %v", e)
			err = fmt.Errorf("pvl: parsing failed: %v", e)
		}
	}()

	label, parser, err := file.parseAt(0)
	if err != nil {
		return err
	}
	if label == nil || len(label.Children()) == 0 {
		return ErrNoLabel
	}
	file.Label = label
	file.Warnings = parser.Warnings()
	file.VMSRecords = parser.VMSRecords()
	file.OverlayOffset = int64(parser.NextLocation())
	for _, warning := range file.Warnings {
		file.logger.Warnf("label warning: %v", warning)
	}

	file.Metadata = Metadata{}
	file.Metadata.Bind(file.Label, file.opts.CaseSensitive)

	if offset := file.Metadata.EOLOffset(); offset > 0 && offset < file.size {
		eol, _, err := file.parseAt(offset)
		if err != nil {
			file.logger.Warnf("EOL label parsing failed: %v", err)
		} else if eol != nil && len(eol.Children()) > 0 {
			eol.Name = "EOL"
			eol.Type = Group
			file.Label.Append(eol)
		}
	}
	return nil
}

// parseAt runs a label parser over the file content from the byte
// offset.
func (file *File) parseAt(offset int64) (*Parameter, *Parser, error) {
	if offset < 0 || offset > file.size {
		return nil, nil, fmt.Errorf("pvl: offset %d outside file of %d bytes",
			offset, file.size)
	}
	parser := NewParser(bytes.NewReader(file.data[offset:]), file.opts.ReadLimit)
	parser.SetLogger(file.rawLogger)
	parser.SetStrict(file.opts.Strict)
	parser.SetVerbatimStrings(file.opts.VerbatimStrings)
	parser.SetCommentedLines(!file.opts.NoCommentedLines)
	parser.SetStringContinuation(!file.opts.NoStringContinuation)
	label, err := parser.GetParameters()
	return label, parser, err
}

// Find looks up a label parameter by pathname.
func (file *File) Find(pathname string, skip int, class ParameterClass) (*Parameter, error) {
	if file.Label == nil {
		return nil, ErrNotParsed
	}
	return file.Label.Find(pathname, file.opts.CaseSensitive, skip, class), nil
}

// NewOverlayReader returns a reader over the binary image data
// following the label text.
func (file *File) NewOverlayReader() (*io.SectionReader, error) {
	if file.Label == nil {
		return nil, ErrNotParsed
	}
	return io.NewSectionReader(bytes.NewReader(file.data),
		file.OverlayOffset, file.size-file.OverlayOffset), nil
}

// OverlayLength returns the byte count of the content past the label.
func (file *File) OverlayLength() int64 {
	return file.size - file.OverlayOffset
}
