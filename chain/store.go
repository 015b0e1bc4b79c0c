package chain

import (
	"fmt"

	"github.com/holiman/uint256"
	"github.com/syndtr/goleveldb/leveldb"
	leveldbstorage "github.com/syndtr/goleveldb/leveldb/storage"

	"github.com/cinderchain/cinder/common"
	"github.com/cinderchain/cinder/types"
)

// Key prefixes. Values are fixed-width wire encodings.
var (
	prefixHeader    = []byte("h") // + block hash -> header bytes
	prefixCanonical = []byte("n") // + le64 number -> block hash
	prefixTD        = []byte("t") // + block hash -> total difficulty, 32B BE
	prefixBalance   = []byte("b") // + author key -> balance, 32B BE
	keyBest         = []byte("best")
	keyFinalized    = []byte("final")
	keyIssuance     = []byte("iss")
)

// Store wraps LevelDB for the minimal per-block bookkeeping the consensus
// core needs: headers, canonical index, cumulative work, reward balances.
// Thread-safe: LevelDB handles its own synchronization.
type Store struct {
	db *leveldb.DB
}

// NewStore opens or creates a LevelDB database at the given path. If path
// is empty, uses in-memory storage.
func NewStore(path string) (*Store, error) {
	var db *leveldb.DB
	var err error

	if path == "" {
		memStorage := leveldbstorage.NewMemStorage()
		db, err = leveldb.Open(memStorage, nil)
	} else {
		db, err = leveldb.OpenFile(path, nil)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to open database at %s: %w", path, err)
	}

	return &Store{db: db}, nil
}

// NewMemoryStore creates an in-memory Store for testing.
func NewMemoryStore() (*Store, error) {
	return NewStore("")
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) get(key []byte) ([]byte, bool, error) {
	data, err := s.db.Get(key, nil)
	if err == leveldb.ErrNotFound {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("get %x: %w", key, err)
	}
	return data, true, nil
}

func (s *Store) put(key []byte, value []byte) error {
	return s.db.Put(key, value, nil)
}

// PutHeader persists a header under its block hash.
func (s *Store) PutHeader(h *types.Header) error {
	return s.put(append(prefixHeader, h.Hash().Bytes()...), h.Encode())
}

// HeaderByHash loads a header. found is false for unknown hashes.
func (s *Store) HeaderByHash(hash common.Hash) (*types.Header, bool, error) {
	data, found, err := s.get(append(prefixHeader, hash.Bytes()...))
	if err != nil || !found {
		return nil, found, err
	}
	h, err := types.DecodeHeader(data)
	if err != nil {
		return nil, false, fmt.Errorf("stored header %s corrupt: %w", hash.StringShort(), err)
	}
	return h, true, nil
}

// SetCanonical records the canonical block hash at a height.
func (s *Store) SetCanonical(number uint64, hash common.Hash) error {
	return s.put(append(prefixCanonical, common.Uint64ToBytes(number)...), hash.Bytes())
}

// HashByNumber returns the canonical block hash at the given height.
func (s *Store) HashByNumber(number uint64) (common.Hash, bool, error) {
	data, found, err := s.get(append(prefixCanonical, common.Uint64ToBytes(number)...))
	if err != nil || !found {
		return common.Hash{}, found, err
	}
	return common.BytesToHash(data), true, nil
}

// SetTotalDifficulty records a block's cumulative chain work.
func (s *Store) SetTotalDifficulty(hash common.Hash, td *uint256.Int) error {
	buf := td.Bytes32()
	return s.put(append(prefixTD, hash.Bytes()...), buf[:])
}

// TotalDifficulty returns a block's cumulative chain work.
func (s *Store) TotalDifficulty(hash common.Hash) (*uint256.Int, bool, error) {
	data, found, err := s.get(append(prefixTD, hash.Bytes()...))
	if err != nil || !found {
		return nil, found, err
	}
	return new(uint256.Int).SetBytes(data), true, nil
}

// SetBestHash records the current best head.
func (s *Store) SetBestHash(hash common.Hash) error {
	return s.put(keyBest, hash.Bytes())
}

// BestHash returns the current best head, if any.
func (s *Store) BestHash() (common.Hash, bool, error) {
	data, found, err := s.get(keyBest)
	if err != nil || !found {
		return common.Hash{}, found, err
	}
	return common.BytesToHash(data), true, nil
}

// SetFinalizedNumber records the highest finalized height.
func (s *Store) SetFinalizedNumber(number uint64) error {
	return s.put(keyFinalized, common.Uint64ToBytes(number))
}

// FinalizedNumber returns the highest finalized height (0 if none).
func (s *Store) FinalizedNumber() (uint64, error) {
	data, found, err := s.get(keyFinalized)
	if err != nil || !found {
		return 0, err
	}
	return common.BytesToUint64(data), nil
}

// AddBalance credits amount to the author's balance. Part of the
// rewards.Ledger surface.
func (s *Store) AddBalance(author types.Ed25519Key, amount *uint256.Int) (*uint256.Int, error) {
	key := append(prefixBalance, author.Bytes()...)
	balance := new(uint256.Int)
	data, found, err := s.get(key)
	if err != nil {
		return nil, err
	}
	if found {
		balance.SetBytes(data)
	}
	balance.Add(balance, amount)
	buf := balance.Bytes32()
	if err := s.put(key, buf[:]); err != nil {
		return nil, err
	}
	return balance, nil
}

// Balance returns an author's accumulated reward balance.
func (s *Store) Balance(author types.Ed25519Key) (*uint256.Int, error) {
	data, found, err := s.get(append(prefixBalance, author.Bytes()...))
	if err != nil || !found {
		return new(uint256.Int), err
	}
	return new(uint256.Int).SetBytes(data), nil
}

// Issuance returns the cumulative issued amount.
func (s *Store) Issuance() (*uint256.Int, error) {
	data, found, err := s.get(keyIssuance)
	if err != nil || !found {
		return new(uint256.Int), err
	}
	return new(uint256.Int).SetBytes(data), nil
}

// SetIssuance stores the cumulative issued amount.
func (s *Store) SetIssuance(total *uint256.Int) error {
	buf := total.Bytes32()
	return s.put(keyIssuance, buf[:])
}
