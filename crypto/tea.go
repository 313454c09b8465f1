// Package crypto implements the value cipher of the store: a TEA block cipher
// run for 1024 cycles and a counter mode whose keystream block i is the
// encryption of i XOR nonce.
//
// Blocks are handled as two 32-bit words laid out little-endian in memory, so
// the ciphertext of a payload is the byte image of its []uint64 blocks.
package crypto

import (
	"crypto/cipher"
	"encoding/binary"

	"github.com/pkg/errors"
	"golang.org/x/crypto/tea"
)

const (
	BlockSize = 8

	// Cycles is the number of Feistel cycles; each cycle is two TEA rounds.
	Cycles = 1024

	Delta      = 0x9E3779B9
	DecryptSum = 0xDDE6E400 // Delta * Cycles mod 2^32
)

// Key is a 128-bit cipher key as four 32-bit words.
type Key [4]uint32

// Block is the 64-bit block cipher keyed with a Key. It satisfies
// cipher.Block over 8-byte blocks made of two little-endian words.
type Block struct {
	c   cipher.Block
	buf [BlockSize]byte
}

var _ cipher.Block = (*Block)(nil)

// NewBlock returns the block cipher for key.
func NewBlock(key Key) (*Block, error) {
	var raw [tea.KeySize]byte
	for i, w := range key {
		binary.BigEndian.PutUint32(raw[i*4:], w)
	}

	c, err := tea.NewCipherWithRounds(raw[:], 2*Cycles)
	if err != nil {
		return nil, errors.Wrap(err, "failed to create block cipher")
	}

	return &Block{c: c}, nil
}

func (b *Block) BlockSize() int { return BlockSize }

// EncryptWords enciphers a single block given as words.
func (b *Block) EncryptWords(v [2]uint32) [2]uint32 {
	binary.BigEndian.PutUint32(b.buf[0:], v[0])
	binary.BigEndian.PutUint32(b.buf[4:], v[1])
	b.c.Encrypt(b.buf[:], b.buf[:])
	return [2]uint32{binary.BigEndian.Uint32(b.buf[0:]), binary.BigEndian.Uint32(b.buf[4:])}
}

// DecryptWords reverses EncryptWords.
func (b *Block) DecryptWords(v [2]uint32) [2]uint32 {
	binary.BigEndian.PutUint32(b.buf[0:], v[0])
	binary.BigEndian.PutUint32(b.buf[4:], v[1])
	b.c.Decrypt(b.buf[:], b.buf[:])
	return [2]uint32{binary.BigEndian.Uint32(b.buf[0:]), binary.BigEndian.Uint32(b.buf[4:])}
}

// Encrypt enciphers the first block of src into dst.
func (b *Block) Encrypt(dst, src []byte) {
	out := b.EncryptWords(loadWords(src))
	storeWords(dst, out)
}

// Decrypt deciphers the first block of src into dst.
func (b *Block) Decrypt(dst, src []byte) {
	out := b.DecryptWords(loadWords(src))
	storeWords(dst, out)
}

// encryptCounter returns the keystream block for counter value c.
func (b *Block) encryptCounter(c uint64) uint64 {
	out := b.EncryptWords([2]uint32{uint32(c), uint32(c >> 32)})
	return uint64(out[0]) | uint64(out[1])<<32
}

// EncryptBlock enciphers one block with key.
func EncryptBlock(plain [2]uint32, key Key) ([2]uint32, error) {
	b, err := NewBlock(key)
	if err != nil {
		return [2]uint32{}, err
	}
	return b.EncryptWords(plain), nil
}

// DecryptBlock deciphers one block with key.
func DecryptBlock(cipherText [2]uint32, key Key) ([2]uint32, error) {
	b, err := NewBlock(key)
	if err != nil {
		return [2]uint32{}, err
	}
	return b.DecryptWords(cipherText), nil
}

func loadWords(src []byte) [2]uint32 {
	return [2]uint32{binary.LittleEndian.Uint32(src[0:]), binary.LittleEndian.Uint32(src[4:])}
}

func storeWords(dst []byte, v [2]uint32) {
	binary.LittleEndian.PutUint32(dst[0:], v[0])
	binary.LittleEndian.PutUint32(dst[4:], v[1])
}
