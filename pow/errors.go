package pow

import "errors"

// Verification rejections are terminal for the candidate block and are
// never retried; they carry the reason back to the import pipeline.
var (
	// ErrSealMissing means the header carries no seal at all.
	ErrSealMissing = errors.New("seal missing")

	// ErrWorkMismatch means the seal's work hash does not match a
	// recomputation over the presented nonce.
	ErrWorkMismatch = errors.New("work mismatch")

	// ErrSignatureInvalid means the author's signature over the
	// (pre-seal, nonce) binding does not verify.
	ErrSignatureInvalid = errors.New("seal signature invalid")

	// ErrDifficultyMismatch means the difficulty asserted on the header
	// differs from what the adjuster requires at this height.
	ErrDifficultyMismatch = errors.New("difficulty mismatch")

	// ErrWorkTooEasy means the recomputed work does not meet the
	// difficulty threshold.
	ErrWorkTooEasy = errors.New("work does not meet difficulty")
)
