package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCharSpan(t *testing.T) {
	tests := []struct {
		name           string
		text           string
		encoding       string
		byteOffset     int
		byteLength     int
		expectedOffset int
		expectedLength int
	}{
		{
			name:           "ascii offsets are unchanged",
			text:           "int main() {}",
			byteOffset:     4,
			byteLength:     4,
			expectedOffset: 4,
			expectedLength: 4,
		},
		{
			name:           "two byte characters before the span shift the offset",
			text:           "héllo wörld",
			byteOffset:     7,
			byteLength:     6,
			expectedOffset: 6,
			expectedLength: 5,
		},
		{
			name:           "a three byte character inside the span counts once",
			text:           "x = \"€\";",
			byteOffset:     5,
			byteLength:     3,
			expectedOffset: 5,
			expectedLength: 1,
		},
		{
			name:           "characters outside the basic plane count as two units",
			text:           "a😀b",
			byteOffset:     1,
			byteLength:     4,
			expectedOffset: 1,
			expectedLength: 2,
		},
		{
			name:           "a span cut through a character decodes as a replacement character",
			text:           "hé",
			byteOffset:     0,
			byteLength:     2,
			expectedOffset: 0,
			expectedLength: 2,
		},
		{
			name:           "offsets past the end are clamped",
			text:           "abc",
			byteOffset:     10,
			byteLength:     5,
			expectedOffset: 3,
			expectedLength: 0,
		},
		{
			name:           "single byte encodings need no correction",
			text:           "héllo",
			encoding:       "ISO-8859-1",
			byteOffset:     2,
			byteLength:     3,
			expectedOffset: 2,
			expectedLength: 3,
		},
	}
	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			enc, err := Encoding(test.encoding)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			doc := New(test.text, enc)
			offset, length := doc.CharSpan(test.byteOffset, test.byteLength)
			if offset != test.expectedOffset {
				t.Errorf("expected offset %d, got %d", test.expectedOffset, offset)
			}
			if length != test.expectedLength {
				t.Errorf("expected length %d, got %d", test.expectedLength, length)
			}
		})
	}
}

func TestByteOffset(t *testing.T) {
	doc := New("héllo\nwörld", nil)
	for charOffset := 0; charOffset <= doc.Len(); charOffset++ {
		byteOffset := doc.ByteOffset(charOffset)
		if actual := doc.CharOffset(byteOffset); actual != charOffset {
			t.Errorf("char offset %d: byte offset %d maps back to %d", charOffset, byteOffset, actual)
		}
	}
}

func TestPositionAt(t *testing.T) {
	doc := New("first\r\nsecond\n\nlast", nil)
	tests := []struct {
		offset   int
		expected Position
	}{
		{offset: 0, expected: Position{Line: 0, Character: 0}},
		{offset: 5, expected: Position{Line: 0, Character: 5}},
		{offset: 6, expected: Position{Line: 0, Character: 5}},
		{offset: 7, expected: Position{Line: 1, Character: 0}},
		{offset: 13, expected: Position{Line: 1, Character: 6}},
		{offset: 14, expected: Position{Line: 2, Character: 0}},
		{offset: 15, expected: Position{Line: 3, Character: 0}},
		{offset: 19, expected: Position{Line: 3, Character: 4}},
		{offset: 100, expected: Position{Line: 3, Character: 4}},
		{offset: -1, expected: Position{Line: 0, Character: 0}},
	}
	for _, test := range tests {
		actual := doc.PositionAt(test.offset)
		if diff := cmp.Diff(test.expected, actual); diff != "" {
			t.Errorf("offset %d: %s", test.offset, diff)
		}
	}
}

func TestOffsetAtRoundTrip(t *testing.T) {
	doc := New("#include <QString>\n\nvoid f(QString s) { s = \"ü\"; }\n", nil)
	for offset := 0; offset <= doc.Len(); offset++ {
		pos := doc.PositionAt(offset)
		if actual := doc.OffsetAt(pos); actual != offset {
			t.Errorf("offset %d -> %+v -> %d", offset, pos, actual)
		}
	}
	// Positions are stable with CRLF line breaks.
	doc = New("int a;\r\nint b;\r\n", nil)
	for offset := 0; offset <= doc.Len(); offset++ {
		pos := doc.PositionAt(offset)
		if actual := doc.PositionAt(doc.OffsetAt(pos)); actual != pos {
			t.Errorf("offset %d -> %+v -> %+v", offset, pos, actual)
		}
	}
}

func TestOffsetAtClampsToLineEnd(t *testing.T) {
	doc := New("ab\r\ncd", nil)
	if actual := doc.OffsetAt(Position{Line: 0, Character: 10}); actual != 2 {
		t.Errorf("expected 2, got %d", actual)
	}
	if actual := doc.OffsetAt(Position{Line: 5, Character: 0}); actual != doc.Len() {
		t.Errorf("expected %d, got %d", doc.Len(), actual)
	}
}

func TestUnknownEncoding(t *testing.T) {
	if _, err := Encoding("not-a-charset"); err == nil {
		t.Error("expected an error")
	}
}

func TestLoadAndWriteFile(t *testing.T) {
	enc, err := Encoding("ISO-8859-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fileName := filepath.Join(t.TempDir(), "main.cpp")
	if err = os.WriteFile(fileName, []byte("// gr\xfc\xdfe\n"), 0600); err != nil {
		t.Fatalf("failed to write file: %v", err)
	}

	doc, err := Load(fileName, enc)
	if err != nil {
		t.Fatalf("failed to load: %v", err)
	}
	if doc.Text() != "// grüße\n" {
		t.Errorf("unexpected text %q", doc.Text())
	}

	if err = New("// süß\n", enc).WriteFile(fileName); err != nil {
		t.Fatalf("failed to write: %v", err)
	}
	b, err := os.ReadFile(fileName)
	if err != nil {
		t.Fatalf("failed to read: %v", err)
	}
	if string(b) != "// s\xfc\xdf\n" {
		t.Errorf("unexpected bytes %q", b)
	}
	fi, err := os.Stat(fileName)
	if err != nil {
		t.Fatalf("failed to stat: %v", err)
	}
	if fi.Mode().Perm() != 0600 {
		t.Errorf("expected permissions to be kept, got %v", fi.Mode().Perm())
	}
}
