package gtfs

import (
	"bufio"
	"bytes"
	"io"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	encodingSampleSize = 8192
)

// Encoding is a candidate text encoding for a feed table.
type Encoding struct {
	Name string

	enc  encoding.Encoding
	utf8 bool
}

var (
	// EncodingUTF8BOM is UTF-8 with an optional leading byte order mark, which is stripped.
	EncodingUTF8BOM = Encoding{Name: "utf-8-sig", enc: unicode.UTF8BOM, utf8: true}
	// EncodingUTF8 is plain UTF-8.
	EncodingUTF8 = Encoding{Name: "utf-8", enc: unicode.UTF8, utf8: true}
	// EncodingWindows1250 is the Central European Windows code page.
	EncodingWindows1250 = Encoding{Name: "cp1250", enc: charmap.Windows1250}
	// EncodingISO88592 is Latin-2. Every byte decodes, the C1 range passing through as control characters.
	EncodingISO88592 = Encoding{Name: "iso-8859-2", enc: latin2{}}

	candidateEncodings = []Encoding{
		EncodingUTF8BOM,
		EncodingUTF8,
		EncodingWindows1250,
		EncodingISO88592,
	}
)

// DetectEncoding returns the first candidate encoding able to decode the sample.
// If truncated is set the sample was cut from a longer stream, so a partial trailing rune is ignored.
// UTF-8 with an optional BOM is returned if no candidate fits.
func DetectEncoding(sample []byte, truncated bool) Encoding {
	for _, candidate := range candidateEncodings {
		if candidate.decodes(sample, truncated) {
			return candidate
		}
	}
	return EncodingUTF8BOM
}

func (e Encoding) decodes(sample []byte, truncated bool) bool {
	if e.utf8 {
		if truncated {
			sample = trimPartialRune(sample)
		}
		return utf8.Valid(sample)
	}

	// Single byte code pages decode unassigned bytes to the replacement character.
	out, err := e.enc.NewDecoder().Bytes(sample)
	if err != nil {
		return false
	}
	return !bytes.ContainsRune(out, utf8.RuneError)
}

// NewReader returns a reader producing UTF-8 text from in.
func (e Encoding) NewReader(in io.Reader) io.Reader {
	if e.utf8 {
		// Strip a BOM whichever UTF-8 flavour was chosen.
		return transform.NewReader(in, unicode.UTF8BOM.NewDecoder())
	}
	return transform.NewReader(in, e.enc.NewDecoder())
}

// newDecodingReader detects the encoding of in from its first bytes and returns a UTF-8 reader over all of it.
// empty is set if in holds nothing but whitespace.
func newDecodingReader(in io.Reader) (r io.Reader, enc Encoding, empty bool, err error) {
	br := bufio.NewReaderSize(in, encodingSampleSize)
	sample, err := br.Peek(encodingSampleSize)
	truncated := true
	if err == io.EOF {
		truncated = false
	} else if err != nil {
		return nil, Encoding{}, false, err
	}

	enc = DetectEncoding(sample, truncated)
	return enc.NewReader(br), enc, len(bytes.TrimSpace(bytes.TrimPrefix(sample, utf8BOM))) == 0, nil
}

// latin2 is ISO-8859-2 with 0x80-0x9F decoded to U+0080-U+009F instead of U+FFFD,
// so it accepts any input as the last candidate.
type latin2 struct{}

func (latin2) NewDecoder() *encoding.Decoder {
	return &encoding.Decoder{Transformer: &latin2Decoder{}}
}

func (latin2) NewEncoder() *encoding.Encoder {
	return charmap.ISO8859_2.NewEncoder()
}

type latin2Decoder struct {
	transform.NopResetter
}

func (d *latin2Decoder) Transform(dst, src []byte, atEOF bool) (nDst, nSrc int, err error) {
	for nSrc < len(src) {
		b := src[nSrc]
		r := rune(b)
		if b >= 0xA0 {
			r = charmap.ISO8859_2.DecodeByte(b)
		}

		if nDst+utf8.RuneLen(r) > len(dst) {
			return nDst, nSrc, transform.ErrShortDst
		}
		nDst += utf8.EncodeRune(dst[nDst:], r)
		nSrc++
	}
	return nDst, nSrc, nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// trimPartialRune drops an incomplete multi-byte sequence at the end of b.
func trimPartialRune(b []byte) []byte {
	for i := 1; i < utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			return b
		}
	}
	return b
}
