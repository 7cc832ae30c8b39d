package clean

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"github.com/saintfish/chardet"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/htmlindex"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// mojibakeMarkers show up when UTF-8 text was decoded as Windows-1252.
var mojibakeMarkers = []string{"Ã", "Â", "â€"}

// Decode turns raw file bytes into UTF-8 text and reports the charset used.
// Valid UTF-8 is taken as is. Otherwise the charset is guessed and bytes that
// do not decode are replaced. Unknown charsets fall back to ISO-8859-1, which
// accepts every byte.
func Decode(data []byte) (string, string) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if utf8.Valid(data) {
		return string(data), "UTF-8"
	}

	charset := "ISO-8859-1"
	var enc encoding.Encoding = charmap.ISO8859_1
	if result, err := chardet.NewTextDetector().DetectBest(data); err == nil {
		if e, err := htmlindex.Get(result.Charset); err == nil {
			enc = e
			charset = result.Charset
		}
	}

	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		out, _ = charmap.ISO8859_1.NewDecoder().Bytes(data)
		charset = "ISO-8859-1"
	}
	return string(out), charset
}

// RepairMojibake undoes double-encoding line by line. A line is rewritten only
// when it carries a marker and round-trips through Windows-1252 into valid
// UTF-8. It returns the text and the number of repaired lines.
func RepairMojibake(text string) (string, int) {
	lines := strings.Split(text, "\n")
	repaired := 0
	for i, line := range lines {
		if !hasMarker(line) {
			continue
		}
		raw, err := charmap.Windows1252.NewEncoder().String(line)
		if err != nil || !utf8.ValidString(raw) {
			continue
		}
		if raw != line {
			lines[i] = raw
			repaired++
		}
	}
	return strings.Join(lines, "\n"), repaired
}

func hasMarker(line string) bool {
	for _, m := range mojibakeMarkers {
		if strings.Contains(line, m) {
			return true
		}
	}
	return false
}
