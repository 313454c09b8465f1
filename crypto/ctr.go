package crypto

import (
	"crypto/cipher"
	"encoding/binary"

	"github.com/pkg/errors"
)

var ErrShortBuffer = errors.New("crypto: output buffer smaller than input")

// PaddedLen rounds n up to a whole number of blocks.
func PaddedLen(n int) int {
	if rem := n % BlockSize; rem != 0 {
		return n + BlockSize - rem
	}
	return n
}

// EncryptCTR enciphers plain into out block by block, forwards.
func EncryptCTR(plain []uint64, key Key, nonce uint64, out []uint64) error {
	if len(out) < len(plain) {
		return ErrShortBuffer
	}
	b, err := NewBlock(key)
	if err != nil {
		return err
	}

	for i := range plain {
		out[i] = plain[i] ^ b.encryptCounter(uint64(i)^nonce)
	}
	return nil
}

// DecryptCTR deciphers cipherText into out. Blocks are processed from last to
// first; every keystream block is independent so the order does not matter.
func DecryptCTR(cipherText []uint64, key Key, nonce uint64, out []uint64) error {
	if len(out) < len(cipherText) {
		return ErrShortBuffer
	}
	b, err := NewBlock(key)
	if err != nil {
		return err
	}

	decryptBlocks(b, cipherText, nonce, out)
	return nil
}

func decryptBlocks(b *Block, cipherText []uint64, nonce uint64, out []uint64) {
	for i := len(cipherText) - 1; i >= 0; i-- {
		out[i] = cipherText[i] ^ b.encryptCounter(uint64(i)^nonce)
	}
}

type ctr struct {
	block   *Block
	nonce   uint64
	counter uint64
	stream  [BlockSize]byte
	used    int
}

// NewCTR returns a byte stream over the same keystream as EncryptCTR.
func NewCTR(key Key, nonce uint64) (cipher.Stream, error) {
	b, err := NewBlock(key)
	if err != nil {
		return nil, err
	}
	return newCTR(b, nonce), nil
}

func newCTR(b *Block, nonce uint64) *ctr {
	return &ctr{block: b, nonce: nonce, used: BlockSize}
}

func (s *ctr) XORKeyStream(dst, src []byte) {
	if len(dst) < len(src) {
		panic(ErrShortBuffer)
	}

	for i := range src {
		if s.used == BlockSize {
			binary.LittleEndian.PutUint64(s.stream[:], s.block.encryptCounter(s.counter^s.nonce))
			s.counter++
			s.used = 0
		}
		dst[i] = src[i] ^ s.stream[s.used]
		s.used++
	}
}

// Seal zero-pads plaintext to whole blocks and enciphers it. An empty
// plaintext yields a nil ciphertext.
func Seal(plaintext []byte, key Key, nonce uint64) ([]byte, error) {
	b, err := NewBlock(key)
	if err != nil {
		return nil, err
	}
	return SealWith(b, plaintext, nonce), nil
}

// SealWith is Seal with an already keyed block.
func SealWith(b *Block, plaintext []byte, nonce uint64) []byte {
	if len(plaintext) == 0 {
		return nil
	}

	out := make([]byte, PaddedLen(len(plaintext)))
	copy(out, plaintext)
	newCTR(b, nonce).XORKeyStream(out, out)

	return out
}

// Open deciphers a Seal output and writes the first size plaintext bytes
// into out.
func Open(out, ciphertext []byte, size int, key Key, nonce uint64) error {
	b, err := NewBlock(key)
	if err != nil {
		return err
	}
	return OpenWith(b, out, ciphertext, size, nonce)
}

// OpenWith is Open with an already keyed block.
func OpenWith(b *Block, out, ciphertext []byte, size int, nonce uint64) error {
	if len(out) < size {
		return ErrShortBuffer
	}
	if len(ciphertext) < size || len(ciphertext)%BlockSize != 0 {
		return errors.Errorf("crypto: ciphertext of %d bytes cannot hold %d plaintext bytes", len(ciphertext), size)
	}
	if size == 0 {
		return nil
	}

	blocks := toBlocks(ciphertext)
	decryptBlocks(b, blocks, nonce, blocks)

	plain := fromBlocks(blocks)
	copy(out, plain[:size])
	clear(plain)
	clear(blocks)

	return nil
}

func toBlocks(buf []byte) []uint64 {
	blocks := make([]uint64, len(buf)/BlockSize)
	for i := range blocks {
		blocks[i] = binary.LittleEndian.Uint64(buf[i*BlockSize:])
	}
	return blocks
}

func fromBlocks(blocks []uint64) []byte {
	buf := make([]byte, len(blocks)*BlockSize)
	for i, b := range blocks {
		binary.LittleEndian.PutUint64(buf[i*BlockSize:], b)
	}
	return buf
}
