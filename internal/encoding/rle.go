package encoding

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"fmt"
)

// EncodeAlphaRLE encodes a border alpha strip into base64(varint pairs).
// The pairs are (sample, run_len) repeated. Border strips are mostly long
// runs of 0 or 255, so this stays well under the raw strip size.
func EncodeAlphaRLE(samples []byte) string {
	var buf bytes.Buffer
	var tmp [binary.MaxVarintLen64]byte

	i := 0
	for i < len(samples) {
		s := samples[i]
		run := 1
		for j := i + 1; j < len(samples) && samples[j] == s; j++ {
			run++
		}

		n := binary.PutUvarint(tmp[:], uint64(s))
		buf.Write(tmp[:n])
		n = binary.PutUvarint(tmp[:], uint64(run))
		buf.Write(tmp[:n])

		i += run
	}

	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func DecodeAlphaRLE(b64 string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(b64)
	if err != nil {
		return nil, err
	}
	var out []byte
	for i := 0; i < len(raw); {
		s, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		run, n := binary.Uvarint(raw[i:])
		if n <= 0 {
			return nil, fmt.Errorf("bad varint at %d", i)
		}
		i += n
		if s > 0xFF {
			return nil, fmt.Errorf("alpha sample too large: %d", s)
		}
		for k := 0; k < int(run); k++ {
			out = append(out, byte(s))
		}
	}
	return out, nil
}
