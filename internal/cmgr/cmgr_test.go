package cmgr

import "testing"

func TestUTF8RoundTrip(t *testing.T) {
	cases := []rune{'a', 'é', '世', 0x1F600}
	for _, r := range cases {
		buf := make([]byte, 4)
		n := UTF8.CharToBytes(r, buf)
		if n == 0 {
			t.Fatalf("CharToBytes(%q) failed", r)
		}
		got, consumed := UTF8.BytesToChar(buf[:n])
		if got != r || consumed != n {
			t.Errorf("round trip %q: got %q consumed %d, want %q consumed %d", r, got, consumed, r, n)
		}
	}
}

func TestUTF8Incomplete(t *testing.T) {
	// Lead byte of a 3-byte sequence with nothing following.
	_, n := UTF8.BytesToChar([]byte{0xE4})
	if n != int(Incomplete) {
		t.Errorf("expected Incomplete, got %d", n)
	}
}

func TestUTF8Invalid(t *testing.T) {
	_, n := UTF8.BytesToChar([]byte{0x80})
	if n != int(Invalid) {
		t.Errorf("expected Invalid, got %d", n)
	}
}

func TestMB8Identity(t *testing.T) {
	buf := make([]byte, 1)
	n := MB8.CharToBytes(0xFE, buf)
	if n != 1 || buf[0] != 0xFE {
		t.Fatalf("MB8 encode failed")
	}
	r, consumed := MB8.BytesToChar(buf)
	if r != 0xFE || consumed != 1 {
		t.Errorf("MB8 decode failed: %v %v", r, consumed)
	}
}

func TestUTF16Surrogates(t *testing.T) {
	r := rune(0x1F600)
	buf := make([]byte, 4)
	n := UTF16.CharToBytes(r, buf)
	if n != 4 {
		t.Fatalf("expected surrogate pair encoding, got %d bytes", n)
	}
	got, consumed := UTF16.BytesToChar(buf)
	if got != r || consumed != 4 {
		t.Errorf("got %q/%d, want %q/4", got, consumed, r)
	}
}

func TestLookup(t *testing.T) {
	if Lookup("utf-8") != UTF8 {
		t.Errorf("Lookup(utf-8) mismatch")
	}
	if Lookup("bogus") != nil {
		t.Errorf("expected nil for unknown name")
	}
}
