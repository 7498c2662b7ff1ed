package crypto

import (
	"bytes"
	"testing"

	"github.com/surety-network/surety/common"
)

func TestKeccak256KnownVectors(t *testing.T) {
	tests := []struct {
		in   []byte
		want string
	}{
		{nil, "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"},
		{[]byte("abc"), "0x4e03657aea45a94fc7d47ba826c8d667c0d1e6e33a64a036ec44f58fa12d6c45"},
	}
	for _, tt := range tests {
		if got := Keccak256(tt.in); !bytes.Equal(got, common.FromHex(tt.want)) {
			t.Errorf("Keccak256(%q): got %x, want %s", tt.in, got, tt.want)
		}
	}
}

func TestKeccak256HashMatchesBytes(t *testing.T) {
	a := common.HexToAddress("0x01")
	h := Keccak256Hash(a.Bytes(), []byte("SR1234"))
	if !bytes.Equal(h.Bytes(), Keccak256(a.Bytes(), []byte("SR1234"))) {
		t.Errorf("hash form diverges from byte form")
	}
}

func TestKeccak256ConcatenationSensitive(t *testing.T) {
	// Multi-argument hashing is over the concatenation; the split point
	// must not matter, but the content must.
	one := Keccak256([]byte("ab"), []byte("c"))
	two := Keccak256([]byte("abc"))
	if !bytes.Equal(one, two) {
		t.Errorf("split point changed digest")
	}
	if bytes.Equal(two, Keccak256([]byte("abd"))) {
		t.Errorf("different content produced same digest")
	}
}
