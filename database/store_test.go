package database

import (
	"bytes"
	"testing"

	"btreestore/crypto"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStore(t *testing.T, branching uint16) *Store {
	t.Helper()
	s, err := NewStore(branching, 1)
	require.NoError(t, err)
	t.Cleanup(s.Close)
	return s
}

func TestNewStore(t *testing.T) {
	s, err := NewStore(4, 4)
	require.NoError(t, err)
	defer s.Close()

	assert.Equal(t, uint16(4), s.Branching())
	assert.Equal(t, uint8(4), s.Workers())
	assert.Equal(t, 1, s.NodeCount())
	assert.Equal(t, 0, s.Len())

	for _, b := range []uint16{0, 1, 2} {
		_, err := NewStore(b, 1)
		assert.True(t, errors.Is(err, ErrInvalidConfiguration), "branching %d", b)
	}
}

func TestInsertRetrieveDecrypt(t *testing.T) {
	tests := []struct {
		key     uint32
		message string
		size    int
	}{
		{512, "Don", 3},
		{320, "Hello", 5},
		{59, "Smaller ", 8},
		{934, "A shorter one", 13},
		{251, "Prince Gerard ate a horse", 25},
		{35, "Geoffry was a quick brown fox", 29},
		{7, "", 0},
	}

	s := newStore(t, 3)
	cryptoKey := [4]uint32{0, 1, 4, 5}
	nonce := uint64(5399)

	for _, tc := range tests {
		require.NoError(t, s.Insert(tc.key, []byte(tc.message), cryptoKey, nonce))

		info, err := s.Retrieve(tc.key)
		require.NoError(t, err)
		assert.Equal(t, uint32(tc.size), info.Size)
		assert.Equal(t, cryptoKey, info.CryptoKey)
		assert.Equal(t, nonce, info.Nonce)
		assert.Equal(t, (tc.size+7)/8*8, len(info.Data))
		if tc.size > 0 {
			assert.False(t, bytes.Contains(info.Data, []byte(tc.message)))
		}

		out := make([]byte, 1000)
		n, err := s.Decrypt(tc.key, out)
		require.NoError(t, err)
		assert.Equal(t, tc.size, n)
		assert.Equal(t, tc.message, string(out[:n]))
		require.NoError(t, s.tree.Check())
	}

	// earlier entries survive later splits
	for _, tc := range tests {
		plain, err := s.Plaintext(tc.key)
		require.NoError(t, err)
		assert.Equal(t, tc.message, string(plain))
	}
}

func TestRoundTripAllLengths(t *testing.T) {
	s := newStore(t, 5)
	payload := bytes.Repeat([]byte("0123456789abcdef"), 8)

	for n := 0; n <= len(payload); n++ {
		key := [4]uint32{uint32(n), 0xFFFFFFFF, uint32(n * 31), 7}
		require.NoError(t, s.Insert(uint32(n), payload[:n], key, uint64(n)<<40|uint64(n)))
	}
	require.NoError(t, s.tree.Check())

	for n := 0; n <= len(payload); n++ {
		plain, err := s.Plaintext(uint32(n))
		require.NoError(t, err)
		assert.Equal(t, payload[:n], plain, "length %d", n)
	}
}

func TestInsertDuplicateKeepsOriginal(t *testing.T) {
	s := newStore(t, 4)
	key := [4]uint32{1, 2, 3, 4}
	for _, k := range []uint32{3, 7, 13, 2, 5, 11, 17, 19, 20, 21} {
		require.NoError(t, s.Insert(k, []byte("original"), key, 123))
	}

	before, err := s.Export()
	require.NoError(t, err)
	info, err := s.Retrieve(13)
	require.NoError(t, err)
	cipherText := append([]byte{}, info.Data...)

	err = s.Insert(13, []byte("replacement"), [4]uint32{9, 9, 9, 9}, 1)
	assert.True(t, errors.Is(err, ErrDuplicateKey))

	after, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, before, after)

	info, err = s.Retrieve(13)
	require.NoError(t, err)
	assert.Equal(t, cipherText, info.Data)
	assert.Equal(t, uint64(123), info.Nonce)

	plain, err := s.Plaintext(13)
	require.NoError(t, err)
	assert.Equal(t, "original", string(plain))
}

func TestMissingKeys(t *testing.T) {
	s := newStore(t, 4)
	require.NoError(t, s.Insert(1, []byte("one"), [4]uint32{}, 0))
	before, err := s.Export()
	require.NoError(t, err)

	_, err = s.Retrieve(2)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = s.Decrypt(2, make([]byte, 8))
	assert.True(t, errors.Is(err, ErrNotFound))

	assert.True(t, errors.Is(s.Delete(2), ErrNotFound))

	after, err := s.Export()
	require.NoError(t, err)
	assert.Equal(t, before, after)
	assert.Equal(t, 1, s.Len())
}

func TestDecryptBufferTooSmall(t *testing.T) {
	s := newStore(t, 4)
	require.NoError(t, s.Insert(1, []byte("hello world"), [4]uint32{12, 34, 56, 78}, 111))

	_, err := s.Decrypt(1, make([]byte, 5))
	assert.True(t, errors.Is(err, ErrBufferTooSmall))

	out := make([]byte, 11)
	n, err := s.Decrypt(1, out)
	require.NoError(t, err)
	assert.Equal(t, "hello world", string(out[:n]))
}

func TestDeleteWipesCiphertext(t *testing.T) {
	s := newStore(t, 4)
	for _, k := range []uint32{3, 7, 13, 2, 5, 11, 17, 19, 20, 21} {
		require.NoError(t, s.Insert(k, []byte("payload!"), [4]uint32{1, 2, 3, 4}, uint64(k)))
	}

	info, err := s.Retrieve(3)
	require.NoError(t, err)
	held := info.Data

	require.NoError(t, s.Delete(3))
	assert.Equal(t, make([]byte, 8), held)
	assert.Equal(t, 9, s.Len())

	for _, k := range []uint32{7, 13, 2, 5, 11, 17, 19, 20, 21} {
		plain, err := s.Plaintext(k)
		require.NoError(t, err)
		assert.Equal(t, "payload!", string(plain))
	}
}

func TestExportMatchesNodeCount(t *testing.T) {
	s := newStore(t, 4)
	for _, k := range []uint32{3, 7, 13, 2, 5, 11, 17, 19, 20, 21} {
		require.NoError(t, s.Insert(k, nil, [4]uint32{}, 0))
	}

	list, err := s.Export()
	require.NoError(t, err)
	assert.Len(t, list, s.NodeCount())
	assert.Equal(t, []uint32{7}, list[0].Keys)

	var out bytes.Buffer
	require.NoError(t, s.Display(&out))
	assert.Contains(t, out.String(), " └─ (7)\n")
}

func TestPayloadLimit(t *testing.T) {
	assert.NoError(t, checkPayload(0))
	assert.NoError(t, checkPayload(MaxPayload))
	assert.True(t, errors.Is(checkPayload(MaxPayload+1), ErrOutOfMemory))
}

func TestClosedStore(t *testing.T) {
	s, err := NewStore(3, 1)
	require.NoError(t, err)
	require.NoError(t, s.Insert(1, []byte("x"), [4]uint32{}, 0))

	s.Close()
	s.Close()

	assert.ErrorIs(t, s.Insert(2, nil, [4]uint32{}, 0), ErrClosed)
	_, err = s.Retrieve(1)
	assert.ErrorIs(t, err, ErrClosed)
	_, err = s.Decrypt(1, make([]byte, 8))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Delete(1), ErrClosed)
	_, err = s.Export()
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, s.Display(&bytes.Buffer{}), ErrClosed)
	assert.Equal(t, 0, s.Len())
	assert.Equal(t, 0, s.NodeCount())
}

func TestCipherBlocksAreCachedPerKey(t *testing.T) {
	s := newStore(t, 4)
	keyA := [4]uint32{1, 2, 3, 4}
	keyB := [4]uint32{5, 6, 7, 8}

	require.NoError(t, s.Insert(1, []byte("first"), keyA, 10))
	require.NoError(t, s.Insert(2, []byte("second"), keyA, 11))
	require.NoError(t, s.Insert(3, []byte("third"), keyB, 12))
	assert.Equal(t, 2, s.ciphers.GetSize())

	info, err := s.Retrieve(2)
	require.NoError(t, err)
	fresh, err := crypto.Seal([]byte("second"), keyA, 11)
	require.NoError(t, err)
	assert.Equal(t, fresh, info.Data)
}
