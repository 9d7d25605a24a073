package trace

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// Canonical CBOR keeps recordings byte-identical across hosts for the same
// run, so they can be content-addressed and diffed.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("trace: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Marshal serializes a Recording to CBOR bytes.
func Marshal(r *Recording) ([]byte, error) {
	return cborEncMode.Marshal(r)
}

// Unmarshal deserializes a Recording from CBOR bytes.
func Unmarshal(data []byte) (*Recording, error) {
	var r Recording
	if err := cbor.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("trace: unmarshal recording: %w", err)
	}
	return &r, nil
}
