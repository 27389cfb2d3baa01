package cryptox

import (
	"encoding/hex"
	"strings"
)

// hexJoin encodes each segment as hex and joins them with the delimiter.
func hexJoin(delim string, segments ...[]byte) string {
	parts := make([]string, len(segments))
	for i, seg := range segments {
		parts[i] = hex.EncodeToString(seg)
	}
	return strings.Join(parts, delim)
}

// hexSplit splits an envelope into exactly want hex segments and decodes
// them. The third return value is nil when want < 3.
func hexSplit(envelope, delim string, want int) (iv, ct, tag []byte, err error) {
	parts := strings.Split(envelope, delim)
	if len(parts) != want {
		return nil, nil, nil, ErrMalformedEnvelope
	}

	decoded := make([][]byte, want)
	for i, part := range parts {
		b, err := hex.DecodeString(part)
		if err != nil {
			return nil, nil, nil, ErrMalformedEnvelope
		}
		decoded[i] = b
	}

	iv, ct = decoded[0], decoded[1]
	if want == 3 {
		tag = decoded[2]
	}
	return iv, ct, tag, nil
}
