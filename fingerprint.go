package avro

import "crypto/sha256"

// Fingerprint returns a stable hash of schema's canonical JSON form (its
// String() output), suitable for identity comparison across peers that
// parsed the same schema independently. Per §4.2, the core only guarantees
// the canonical JSON is deterministic; the hash algorithm itself is not part
// of the wire contract.
func Fingerprint(schema Schema) [32]byte {
	return sha256.Sum256([]byte(schema.String()))
}
