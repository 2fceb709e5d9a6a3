package utils

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/gowebpki/jcs"
	"github.com/modern-go/reflect2"
)

// OptionalDefaulted returns the first non-zero argument or the given default.
func OptionalDefaulted[T any](def T, args ...T) T {
	var _nil T
	for _, e := range args {
		if !reflect.DeepEqual(e, _nil) {
			return e
		}
	}
	return def
}

// CanonicalJSON marshals d and transforms the result into the RFC 8785
// canonical form, so that equal content always yields equal bytes.
func CanonicalJSON(d interface{}) ([]byte, error) {
	data, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return jcs.Transform(data)
}

// HashData returns the hex encoded sha256 of the canonical json
// representation of d. Raw byte slices and strings are hashed as they are.
func HashData(d interface{}) (string, error) {
	if reflect2.IsNil(d) {
		return "", nil
	}
	var data []byte
	switch b := d.(type) {
	case []byte:
		data = b
	case string:
		data = []byte(b)
	default:
		var err error
		data, err = CanonicalJSON(d)
		if err != nil {
			return "", fmt.Errorf("canonical form of %T: %w", d, err)
		}
	}
	h := sha256.Sum256(data)
	return hex.EncodeToString(h[:]), nil
}
