package fletcher_test

import (
	"strings"
	"testing"

	"github.com/torosent/stampede/internal/fletcher"
)

func TestChecksumKnownVectors(t *testing.T) {
	tests := []struct {
		input string
		want  uint16
	}{
		{"abcde", 0xc8f0},
		{"abcdef", 0x2057},
		{"abcdefgh", 0x0627},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			var f fletcher.Fletcher
			if got := f.Checksum([]byte(tt.input)); got != tt.want {
				t.Errorf("Checksum(%q) = 0x%04x, want 0x%04x", tt.input, got, tt.want)
			}
		})
	}
}

func TestChecksumIsRunning(t *testing.T) {
	var whole, split fletcher.Fletcher
	want := whole.Checksum([]byte("abcdefgh"))

	split.Checksum([]byte("abc"))
	split.Checksum([]byte("defg"))
	got := split.Checksum([]byte("h"))

	if got != want {
		t.Fatalf("split checksum 0x%04x, whole 0x%04x", got, want)
	}
	if split.Sum() != want {
		t.Fatalf("Sum() = 0x%04x, want 0x%04x", split.Sum(), want)
	}
}

func TestResetAndInit(t *testing.T) {
	var f fletcher.Fletcher
	f.Checksum([]byte("anything at all"))
	f.Reset()
	if f.Sum() != 0 {
		t.Fatalf("Sum() after Reset = 0x%04x, want 0", f.Sum())
	}

	f.Init(0xf0, 0xc8)
	if f.Sum() != 0xc8f0 {
		t.Fatalf("Sum() after Init = 0x%04x, want 0xc8f0", f.Sum())
	}
}

func TestEmptyBufferLeavesSumUnchanged(t *testing.T) {
	var f fletcher.Fletcher
	before := f.Checksum([]byte("abcde"))
	if got := f.Checksum(nil); got != before {
		t.Fatalf("Checksum(nil) = 0x%04x, want 0x%04x", got, before)
	}
}

func TestStringFormat(t *testing.T) {
	var f fletcher.Fletcher
	f.Checksum([]byte("abcde"))
	if s := f.String(); !strings.Contains(s, "0xc8f0") {
		t.Errorf("String() = %q, missing checksum", s)
	}
}
