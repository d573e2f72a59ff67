package document

import (
	"fmt"
	"os"
	"sort"
	"strings"
	"unicode/utf16"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
)

// DefaultEncoding is used when no encoding is configured.
const DefaultEncoding = "utf-8"

// Encoding looks up an on-disk text encoding by its IANA name.
func Encoding(name string) (enc encoding.Encoding, err error) {
	if strings.TrimSpace(name) == "" {
		return unicode.UTF8, nil
	}
	enc, err = ianaindex.IANA.Encoding(name)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", name, err)
	}
	if enc == nil {
		return nil, fmt.Errorf("unsupported encoding %q", name)
	}
	return enc, nil
}

// Position is a 0-based line and UTF-16 character position, the same
// coordinate system that LSP clients use.
type Position struct {
	Line      int
	Character int
}

// Document is a snapshot of a text buffer. Character offsets count UTF-16
// code units, byte offsets count bytes of the text encoded as it is on disk.
type Document struct {
	text  string
	units []uint16
	// lineStarts holds the character offset of the start of each line.
	lineStarts []int
	enc        encoding.Encoding
	encoded    []byte
}

// New creates a Document. A nil encoding means UTF-8.
func New(text string, enc encoding.Encoding) *Document {
	if enc == nil {
		enc = unicode.UTF8
	}
	d := &Document{
		text:       text,
		units:      utf16.Encode([]rune(text)),
		lineStarts: []int{0},
		enc:        enc,
	}
	for i, u := range d.units {
		if u == '\n' {
			d.lineStarts = append(d.lineStarts, i+1)
		}
	}
	return d
}

// Load reads a file stored in enc. A nil encoding means UTF-8.
func Load(fileName string, enc encoding.Encoding) (*Document, error) {
	b, err := os.ReadFile(fileName)
	if err != nil {
		return nil, err
	}
	d := New("", enc)
	return New(d.Decode(b), d.enc), nil
}

// WriteFile stores the document in its encoding, keeping the permissions of
// any existing file.
func (d *Document) WriteFile(fileName string) error {
	perm := os.FileMode(0644)
	if fi, err := os.Stat(fileName); err == nil {
		perm = fi.Mode().Perm()
	}
	return os.WriteFile(fileName, d.Bytes(), perm)
}

// Text returns the document text.
func (d *Document) Text() string {
	return d.text
}

// Len returns the length of the document in characters.
func (d *Document) Len() int {
	return len(d.units)
}

// LineCount returns the number of lines in the document.
func (d *Document) LineCount() int {
	return len(d.lineStarts)
}

// Bytes returns the document text re-encoded as it would be stored on disk.
// Characters the encoding can't represent are replaced.
func (d *Document) Bytes() []byte {
	if d.encoded == nil {
		d.encoded = d.Encode(d.text)
	}
	return d.encoded
}

// Encode converts text to the document encoding.
func (d *Document) Encode(text string) []byte {
	b, err := encoding.ReplaceUnsupported(d.enc.NewEncoder()).Bytes([]byte(text))
	if err != nil {
		return []byte(text)
	}
	return b
}

// Decode converts bytes in the document encoding back to text. Ill-formed
// sequences become U+FFFD.
func (d *Document) Decode(b []byte) string {
	s, err := d.enc.NewDecoder().Bytes(b)
	if err != nil {
		return strings.ToValidUTF8(string(b), "\uFFFD")
	}
	return string(s)
}

// CharLen decodes b and returns its length in characters.
func (d *Document) CharLen(b []byte) int {
	return utf16Len(d.Decode(b))
}

// CharOffset converts a byte offset into a character offset by decoding the
// bytes that precede it.
func (d *Document) CharOffset(byteOffset int) int {
	b := d.Bytes()
	return d.CharLen(b[:clamp(byteOffset, len(b))])
}

// CharSpan converts a byte range into a character offset and length. The
// length is measured over the decoded slice, so multi-byte characters inside
// the range count once.
func (d *Document) CharSpan(byteOffset, byteLength int) (offset, length int) {
	b := d.Bytes()
	start := clamp(byteOffset, len(b))
	end := clamp(byteOffset+byteLength, len(b))
	if end < start {
		end = start
	}
	return d.CharLen(b[:start]), d.CharLen(b[start:end])
}

// Slice returns the text between two character offsets.
func (d *Document) Slice(start, end int) string {
	start = clamp(start, len(d.units))
	end = clamp(end, len(d.units))
	if end < start {
		end = start
	}
	return string(utf16.Decode(d.units[start:end]))
}

// ByteOffset converts a character offset into a byte offset.
func (d *Document) ByteOffset(charOffset int) int {
	prefix := string(utf16.Decode(d.units[:clamp(charOffset, len(d.units))]))
	return len(d.Encode(prefix))
}

// PositionAt converts a character offset into a position. Out of range
// offsets are clamped to the document. An offset between the \r and \n of a
// line break maps to the end of the line.
func (d *Document) PositionAt(offset int) Position {
	offset = clamp(offset, len(d.units))
	if offset > 0 && offset < len(d.units) && d.units[offset] == '\n' && d.units[offset-1] == '\r' {
		offset--
	}
	line := sort.Search(len(d.lineStarts), func(i int) bool {
		return d.lineStarts[i] > offset
	}) - 1
	return Position{
		Line:      line,
		Character: offset - d.lineStarts[line],
	}
}

// OffsetAt converts a position into a character offset. Positions past the end
// of a line are clamped to the end of that line.
func (d *Document) OffsetAt(pos Position) int {
	if pos.Line < 0 {
		return 0
	}
	if pos.Line >= len(d.lineStarts) {
		return len(d.units)
	}
	start := d.lineStarts[pos.Line]
	return start + clamp(pos.Character, d.LineLength(pos.Line))
}

// LineLength returns the number of characters in the line, excluding the line
// break.
func (d *Document) LineLength(line int) int {
	if line < 0 || line >= len(d.lineStarts) {
		return 0
	}
	start := d.lineStarts[line]
	end := len(d.units)
	if line+1 < len(d.lineStarts) {
		end = d.lineStarts[line+1] - 1
	}
	if end > start && d.units[end-1] == '\r' {
		end--
	}
	return end - start
}

func clamp(n, limit int) int {
	if n < 0 {
		return 0
	}
	if n > limit {
		return limit
	}
	return n
}

func utf16Len(s string) (n int) {
	for _, r := range s {
		if r >= 0x10000 {
			n += 2
			continue
		}
		n++
	}
	return n
}
