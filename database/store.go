package database

import (
	"io"
	"math"

	"btreestore/btree"
	"btreestore/cache"
	"btreestore/crypto"
	"btreestore/logger"

	"github.com/pkg/errors"
)

// MaxPayload is the largest plaintext one entry can hold; sizes are stored
// as 32-bit values.
const MaxPayload = math.MaxUint32

// EntryInfo is the stored record of a key. Data is the ciphertext and stays
// owned by the store.
type EntryInfo = btree.Info

// NodeSnapshot lists the keys of one node.
type NodeSnapshot = btree.NodeSnapshot

// Store is an encrypted key-value store over a single B-tree. A Store is not
// safe for concurrent use; Database serializes access to the stores it holds.
type Store struct {
	tree      *btree.BTree
	branching uint16
	workers   uint8
	ciphers   *cache.Cache
	log       logger.Logger
}

// NewStore creates an empty store. workers is recorded for callers that want
// it back but has no effect on execution.
func NewStore(branching uint16, workers uint8) (*Store, error) {
	tree, err := btree.NewBTree(int(branching))
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidConfiguration, "%v", err)
	}

	s := &Store{
		tree:      tree,
		branching: branching,
		workers:   workers,
		ciphers:   cache.NewCache(cache.DefaultSize),
		log:       logger.Sugar.WithServiceName("store"),
	}
	s.log.Infow("store created", "branching", branching, "workers", workers)

	return s, nil
}

func (s *Store) Branching() uint16 { return s.branching }

func (s *Store) Workers() uint8 { return s.workers }

// Len returns the number of stored entries.
func (s *Store) Len() int {
	if s.tree == nil {
		return 0
	}
	return s.tree.Len()
}

// NodeCount returns the number of live tree nodes.
func (s *Store) NodeCount() int {
	if s.tree == nil {
		return 0
	}
	return s.tree.NodeCount()
}

// Insert encrypts data under cryptoKey and nonce and stores it under key.
// An existing key is left untouched and ErrDuplicateKey is returned.
func (s *Store) Insert(key uint32, data []byte, cryptoKey [4]uint32, nonce uint64) error {
	if s.tree == nil {
		return ErrClosed
	}
	if s.tree.Contains(key) {
		s.log.Debugw("insert rejected", "key", key, "reason", "duplicate")
		return errors.Wrapf(ErrDuplicateKey, "key %d", key)
	}
	if err := checkPayload(uint64(len(data))); err != nil {
		return err
	}

	cipherText, err := s.seal(data, cryptoKey, nonce)
	if err != nil {
		return err
	}

	err = s.tree.Insert(btree.Entry{
		Key: key,
		Info: btree.Info{
			Size:      uint32(len(data)),
			CryptoKey: cryptoKey,
			Nonce:     nonce,
			Data:      cipherText,
		},
	})
	if errors.Is(err, btree.ErrDuplicate) {
		return errors.Wrapf(ErrDuplicateKey, "key %d", key)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to insert key %d", key)
	}

	s.log.Debugw("inserted", "key", key, "size", len(data))
	return nil
}

// Retrieve returns the stored record of key. The record and its ciphertext
// belong to the store and are only valid until the next mutation.
func (s *Store) Retrieve(key uint32) (*EntryInfo, error) {
	if s.tree == nil {
		return nil, ErrClosed
	}

	e, found := s.tree.Find(key)
	if !found {
		return nil, errors.Wrapf(ErrNotFound, "key %d", key)
	}
	return &e.Info, nil
}

// Decrypt writes the plaintext of key into out, which must hold at least the
// original length. It returns the number of bytes written.
func (s *Store) Decrypt(key uint32, out []byte) (int, error) {
	info, err := s.Retrieve(key)
	if err != nil {
		return 0, err
	}
	if len(out) < int(info.Size) {
		return 0, errors.Wrapf(ErrBufferTooSmall, "key %d needs %d bytes, got %d", key, info.Size, len(out))
	}

	block, err := s.ciphers.Block(info.CryptoKey)
	if err != nil {
		return 0, errors.Wrapf(err, "failed to decrypt key %d", key)
	}
	if err := crypto.OpenWith(block, out, info.Data, int(info.Size), info.Nonce); err != nil {
		return 0, errors.Wrapf(err, "failed to decrypt key %d", key)
	}
	return int(info.Size), nil
}

// Plaintext is Decrypt into a freshly allocated buffer.
func (s *Store) Plaintext(key uint32) ([]byte, error) {
	info, err := s.Retrieve(key)
	if err != nil {
		return nil, err
	}

	out := make([]byte, info.Size)
	if _, err := s.Decrypt(key, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes key and wipes its ciphertext.
func (s *Store) Delete(key uint32) error {
	if s.tree == nil {
		return ErrClosed
	}

	if err := s.tree.Delete(key); err != nil {
		if errors.Is(err, btree.ErrNotFound) {
			return errors.Wrapf(ErrNotFound, "key %d", key)
		}
		return errors.Wrapf(err, "failed to delete key %d", key)
	}

	s.log.Debugw("deleted", "key", key)
	return nil
}

// Export lists the keys of every node in pre-order.
func (s *Store) Export() ([]NodeSnapshot, error) {
	if s.tree == nil {
		return nil, ErrClosed
	}
	return s.tree.Export(), nil
}

// Display writes the tree outline to w.
func (s *Store) Display(w io.Writer) error {
	if s.tree == nil {
		return ErrClosed
	}
	return s.tree.Fprint(w)
}

// Close releases the tree and every payload. Closing twice is a no-op.
func (s *Store) Close() {
	if s.tree == nil {
		return
	}

	s.tree.Close()
	s.tree = nil
	s.ciphers.Clear()
	s.log.Infow("store closed")
}

func checkPayload(n uint64) error {
	if n > MaxPayload {
		return errors.Wrapf(ErrOutOfMemory, "payload of %d bytes exceeds %d", n, uint64(MaxPayload))
	}
	return nil
}

// seal reports an allocation failure as ErrOutOfMemory instead of crashing.
func (s *Store) seal(data []byte, key crypto.Key, nonce uint64) (out []byte, err error) {
	block, err := s.ciphers.Block(key)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encrypt payload")
	}

	defer func() {
		if r := recover(); r != nil {
			out, err = nil, errors.Wrapf(ErrOutOfMemory, "sealing %d bytes: %v", len(data), r)
		}
	}()

	return crypto.SealWith(block, data, nonce), nil
}
