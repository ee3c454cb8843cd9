package reason

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeKeyRoundtrip(t *testing.T) {
	tests := []struct {
		name    string
		s, p, o uint64
	}{
		{"all zero", 0, 0, 0},
		{"small ids", 1, 2, 3},
		{"max values", ^uint64(0), ^uint64(0), ^uint64(0)},
		{"mixed", 42, 0, 9999999999},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := EncodeKey(tt.s, tt.p, tt.o)
			s, p, o := DecodeKey(k)
			assert.Equal(t, tt.s, s)
			assert.Equal(t, tt.p, p)
			assert.Equal(t, tt.o, o)
		})
	}
}

func TestKeyLexicographicOrderMatchesSPOOrder(t *testing.T) {
	lower := EncodeKey(1, 5, 9)
	higher := EncodeKey(1, 5, 10)
	assert.Less(t, string(lower.Bytes()), string(higher.Bytes()))

	lowerSubject := EncodeKey(1, 999, 999)
	higherSubject := EncodeKey(2, 0, 0)
	assert.Less(t, string(lowerSubject.Bytes()), string(higherSubject.Bytes()))
}

func TestSubjectPrefixAndSubjectPredicatePrefix(t *testing.T) {
	k := EncodeKey(7, 11, 13)
	b := k.Bytes()

	sp := SubjectPrefix(7)
	assert.Equal(t, b[:8], sp)

	spp := SubjectPredicatePrefix(7, 11)
	assert.Equal(t, b[:16], spp)
}

func TestKeyFromBytes(t *testing.T) {
	k := EncodeKey(1, 2, 3)
	roundtripped, err := KeyFromBytes(k.Bytes())
	require.NoError(t, err)
	assert.Equal(t, k, roundtripped)

	_, err = KeyFromBytes([]byte{1, 2, 3})
	require.Error(t, err)
	kind, ok := KindOf(err)
	require.True(t, ok)
	assert.Equal(t, ErrBackendError, kind)
}
