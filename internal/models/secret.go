package models

import "encoding/json"

const redacted = "[REDACTED]"

// Secret is a plaintext credential. It formats and encodes as a placeholder;
// use string(s) where the real value is needed.
type Secret string

func (s Secret) String() string { return redacted }

func (s Secret) GoString() string { return redacted }

// MarshalJSON never writes the plaintext. Decoding is left to the default
// string behaviour so incoming requests still carry the value.
func (s Secret) MarshalJSON() ([]byte, error) {
	return json.Marshal(redacted)
}
