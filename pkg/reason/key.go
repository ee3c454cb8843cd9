package reason

import "encoding/binary"

// KeySize is the fixed width, in bytes, of a triple-index key: three
// unsigned 64-bit big-endian dictionary IDs.
const KeySize = 24

// TripleKey is the 24-byte (s, p, o) key used by both the derived-fact
// store and, normatively, any persistent triple index.
// Lexicographic ordering of TripleKey bytes equals SPO ordering of the
// underlying ID triples.
type TripleKey [KeySize]byte

// EncodeKey packs three dictionary IDs into their big-endian key form.
func EncodeKey(s, p, o uint64) TripleKey {
	var k TripleKey
	binary.BigEndian.PutUint64(k[0:8], s)
	binary.BigEndian.PutUint64(k[8:16], p)
	binary.BigEndian.PutUint64(k[16:24], o)
	return k
}

// DecodeKey unpacks a 24-byte key back into its three dictionary IDs.
func DecodeKey(k TripleKey) (s, p, o uint64) {
	s = binary.BigEndian.Uint64(k[0:8])
	p = binary.BigEndian.Uint64(k[8:16])
	o = binary.BigEndian.Uint64(k[16:24])
	return
}

// SubjectPrefix returns the 8-byte prefix selecting all keys with
// subject s.
func SubjectPrefix(s uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, s)
	return b
}

// SubjectPredicatePrefix returns the 16-byte prefix selecting all keys
// with subject s and predicate p.
func SubjectPredicatePrefix(s, p uint64) []byte {
	b := make([]byte, 16)
	binary.BigEndian.PutUint64(b[0:8], s)
	binary.BigEndian.PutUint64(b[8:16], p)
	return b
}

// Bytes returns the key's bytes as a slice (for use with the
// StorageBackend put/get/delete/prefix_stream interface, which deals in
// []byte).
func (k TripleKey) Bytes() []byte {
	out := make([]byte, KeySize)
	copy(out, k[:])
	return out
}

// KeyFromBytes reconstructs a TripleKey from a 24-byte slice. Returns an
// error if b is not exactly KeySize bytes.
func KeyFromBytes(b []byte) (TripleKey, error) {
	var k TripleKey
	if len(b) != KeySize {
		return k, newError(ErrBackendError, "key: expected %d bytes, got %d", KeySize, len(b))
	}
	copy(k[:], b)
	return k, nil
}
