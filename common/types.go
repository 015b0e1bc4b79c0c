package common

import (
	"encoding/json"
	"fmt"

	ethereumCommon "github.com/ethereum/go-ethereum/common"
)

const HashSize = 32

// Hash is a custom type based on Ethereum's common.Hash
type Hash ethereumCommon.Hash

// Bytes returns the byte representation of the Hash
func (h Hash) Bytes() []byte {
	return ethereumCommon.Hash(h).Bytes()
}

func (h Hash) String() string {
	return ethereumCommon.Hash(h).String()
}

// StringShort returns an abbreviated hex form for log output.
func (h Hash) StringShort() string {
	s := ethereumCommon.Hash(h).Hex()
	if len(s) > 10 {
		return s[:10] + ".."
	}
	return s
}

func (h Hash) Hex() string {
	return ethereumCommon.Hash(h).Hex()
}

func BytesToHash(b []byte) Hash {
	return Hash(ethereumCommon.BytesToHash(b))
}

func Bytes2Hex(d []byte) string {
	return ethereumCommon.Bytes2Hex(d)
}

func Hex2Bytes(b string) []byte {
	return ethereumCommon.Hex2Bytes(b)
}

func FromHex(b string) []byte {
	return ethereumCommon.FromHex(b)
}

func HexToHash(s string) Hash {
	return Hash(ethereumCommon.HexToHash(s))
}

func (h Hash) MarshalJSON() ([]byte, error) {
	return json.Marshal(h.Hex())
}

func (h *Hash) UnmarshalJSON(data []byte) error {
	var hexStr string
	if err := json.Unmarshal(data, &hexStr); err != nil {
		return fmt.Errorf("hash must be a hex string: %w", err)
	}
	*h = HexToHash(hexStr)
	return nil
}
