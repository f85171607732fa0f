package slowcipher

import "time"

// Progress is a sample of derivation progress. KeyHex, IVHex, SaltHex and
// StartIndex echo the call parameters; IVHex is empty for ComputeKey.
type Progress struct {
	Index          int
	StepCount      int
	ComputedKeyHex string

	IterationsPerSecond float64
	RemainingTime       time.Duration

	// Final marks the last sample of a call. It is always delivered.
	Final bool
	// Checkpoint marks samples on a checkpoint boundary. With a checkpoint
	// store configured these, and the final sample, are persisted.
	Checkpoint bool

	KeyHex     string
	IVHex      string
	SaltHex    string
	StartIndex int
}

// ProgressFunc receives progress samples.
type ProgressFunc func(Progress)

// Fraction returns completed rounds as a fraction of StepCount.
func (p Progress) Fraction() float64 {
	if p.StepCount <= 0 {
		return 1
	}
	return float64(p.Index) / float64(p.StepCount)
}
