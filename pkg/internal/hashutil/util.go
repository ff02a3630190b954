// Package hashutil derives stable hashes from values.
package hashutil

import (
	"crypto/sha1"
	"encoding/binary"
	"encoding/json"
)

// JsonHash returns the sha1 hash of the JSON representation of v.
// Map keys are sorted by encoding/json, so equal maps hash equally.
func JsonHash(v any) ([]byte, error) {
	j, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	h := sha1.Sum(j)
	return h[:], nil
}

// Signature folds the JsonHash of v into an int.
func Signature(v any) (int, error) {
	h, err := JsonHash(v)
	if err != nil {
		return 0, err
	}
	return int(int32(binary.BigEndian.Uint32(h[:4]))), nil
}
