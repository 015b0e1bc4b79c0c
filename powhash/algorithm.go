package powhash

// Algorithm identifies a work-hash algorithm version. The set is closed and
// consensus-critical: adding a member is a hard fork, and verification
// rejects any block claiming a version outside the set.
type Algorithm uint8

const (
	// AlgorithmV1 is the memory-hard dataset hash in force since genesis.
	AlgorithmV1 Algorithm = 1
)

// AlgorithmAt returns the algorithm version in force at the given block
// height.
func AlgorithmAt(height uint64) Algorithm {
	return AlgorithmV1
}
