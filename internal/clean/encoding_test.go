package clean

import (
	"testing"
	"unicode/utf8"
)

func TestDecodeUTF8(t *testing.T) {
	text, charset := Decode([]byte("\xEF\xBB\xBFTrack,Artist\nBeyoncé,Queen\n"))
	if charset != "UTF-8" {
		t.Errorf("charset = %q, want UTF-8", charset)
	}
	if text != "Track,Artist\nBeyoncé,Queen\n" {
		t.Errorf("Decode() = %q", text)
	}
}

func TestDecodeInvalidBytes(t *testing.T) {
	data := []byte("Track,Artist\nCaf\xe9 del Mar,Jos\xe9 Padilla\nNi\xf1o,Se\xf1or\n")
	text, _ := Decode(data)
	if !utf8.ValidString(text) {
		t.Errorf("Decode() returned invalid UTF-8: %q", text)
	}
}

func TestRepairMojibake(t *testing.T) {
	in := "Track,Artist\nCafÃ© del Mar,JosÃ© Padilla\nPlain,Line\n"
	got, n := RepairMojibake(in)
	want := "Track,Artist\nCafé del Mar,José Padilla\nPlain,Line\n"
	if got != want {
		t.Errorf("RepairMojibake() = %q, want %q", got, want)
	}
	if n != 1 {
		t.Errorf("repaired = %d, want 1", n)
	}
}

func TestRepairMojibakeLeavesUnencodable(t *testing.T) {
	in := "Ã and 日本"
	if got, n := RepairMojibake(in); got != in || n != 0 {
		t.Errorf("RepairMojibake(%q) = %q, %d; want unchanged", in, got, n)
	}
}
