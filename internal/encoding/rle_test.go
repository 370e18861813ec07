package encoding

import "testing"

func TestAlphaRLE_RoundTrip(t *testing.T) {
	in := make([]byte, 0, 80)
	for i := 0; i < 20; i++ {
		in = append(in, 0)
	}
	in = append(in, 12, 40, 200, 200, 200)
	for i := 0; i < 30; i++ {
		in = append(in, 255)
	}

	enc := EncodeAlphaRLE(in)
	out, err := DecodeAlphaRLE(enc)
	if err != nil {
		t.Fatalf("DecodeAlphaRLE: %v", err)
	}
	if len(out) != len(in) {
		t.Fatalf("len mismatch: got %d want %d", len(out), len(in))
	}
	for i := range in {
		if out[i] != in[i] {
			t.Fatalf("mismatch at %d: got %d want %d", i, out[i], in[i])
		}
	}
}

func TestAlphaRLE_Empty(t *testing.T) {
	enc := EncodeAlphaRLE(nil)
	out, err := DecodeAlphaRLE(enc)
	if err != nil {
		t.Fatalf("DecodeAlphaRLE: %v", err)
	}
	if len(out) != 0 {
		t.Fatalf("want empty, got %d samples", len(out))
	}
}

func TestAlphaRLE_BadInput(t *testing.T) {
	if _, err := DecodeAlphaRLE("not base64!!"); err == nil {
		t.Fatalf("want error for bad base64")
	}
}
