package ledger

import (
	"encoding/json"
	"fmt"

	"github.com/rxguard/rxguard/internal/domain/prescription"
)

// Fingerprint folds the bytes of a serialized result into a 32-bit signed
// accumulator (acc = acc*31 + b, wrapping on overflow) and renders the
// absolute value as zero-padded lowercase hex. It is a lookup key, not a
// cryptographic digest; distinct inputs can collide.
func Fingerprint(data []byte) string {
	var acc int32
	for _, b := range data {
		acc = acc*31 + int32(b)
	}
	v := int64(acc)
	if v < 0 {
		v = -v
	}
	return fmt.Sprintf("%08x", v)
}

func fingerprintOf(r *prescription.PrescriptionResult) (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("serialize result: %w", err)
	}
	return Fingerprint(data), nil
}
