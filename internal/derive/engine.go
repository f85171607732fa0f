package derive

import (
	"context"
	"runtime"
	"time"
)

// DefaultCheckpointEvery is the round interval at which samples are marked
// as checkpoints.
const DefaultCheckpointEvery = 1000

// StepFunc computes the next value of the chain from the current one.
type StepFunc func(value []byte) ([]byte, error)

// State is a point in the chain: Value is the output after Index rounds.
type State struct {
	Value     []byte
	Index     int
	StepCount int
}

// Done reports whether no rounds remain.
func (s State) Done() bool {
	return s.Index >= s.StepCount
}

// Sample is a progress report emitted after a round completes.
type Sample struct {
	Index               int
	StepCount           int
	Value               []byte
	IterationsPerSecond float64
	RemainingTime       time.Duration
	Final               bool
	Checkpoint          bool
}

// Config controls a single Run.
type Config struct {
	// Step computes one round. Required.
	Step StepFunc

	// OnSample receives progress samples. Optional.
	OnSample func(Sample)

	// Throttle is the minimum spacing between delivered samples. Zero
	// delivers every sample.
	Throttle time.Duration

	// CheckpointEvery marks samples whose index is a multiple of it as
	// checkpoints. Checkpoint samples bypass the throttle. Zero disables.
	CheckpointEvery int

	// Yield is called at each suspension point. Defaults to runtime.Gosched.
	Yield func()

	// Now is the clock used for throttling and metrics. Defaults to time.Now.
	Now func() time.Time
}

// Run advances start until start.StepCount rounds have been applied.
//
// If start is already complete it is returned unchanged and OnSample is
// never called. Otherwise the final sample (Index == StepCount) is always
// delivered and is the last sample delivered. When ctx is done between
// rounds, Run returns an *InterruptedError carrying the last completed
// state; when Step fails, a *StepError.
func Run(ctx context.Context, cfg Config, start State) (State, error) {
	if start.Done() {
		return start, nil
	}

	yield := cfg.Yield
	if yield == nil {
		yield = runtime.Gosched
	}
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	emit := cfg.OnSample
	if emit == nil {
		emit = func(Sample) {}
	}

	throttle := NewThrottler(cfg.Throttle, now)
	begin := now()
	state := start

	for !state.Done() {
		if err := ctx.Err(); err != nil {
			throttle.Flush()
			return state, &InterruptedError{State: state, Err: err}
		}

		next, err := cfg.Step(state.Value)
		if err != nil {
			throttle.Flush()
			return state, &StepError{State: state, Err: err}
		}
		state = State{Value: next, Index: state.Index + 1, StepCount: state.StepCount}

		sample := newSample(state, state.Index-start.Index, now().Sub(begin))
		sample.Checkpoint = cfg.CheckpointEvery > 0 && state.Index%cfg.CheckpointEvery == 0
		deliver := func() { emit(sample) }

		switch {
		case sample.Final, sample.Checkpoint:
			throttle.Force(deliver)
		default:
			throttle.Do(deliver)
		}

		if !sample.Final {
			yield()
		}
	}

	return state, nil
}

func newSample(state State, completed int, elapsed time.Duration) Sample {
	seconds := elapsed.Seconds()
	if seconds <= 0 {
		seconds = 1
	}
	ips := float64(completed) / seconds

	var remaining time.Duration
	if left := state.StepCount - state.Index; left > 0 && ips > 0 {
		remaining = time.Duration(float64(left) / ips * float64(time.Second))
	}

	return Sample{
		Index:               state.Index,
		StepCount:           state.StepCount,
		Value:               state.Value,
		IterationsPerSecond: ips,
		RemainingTime:       remaining,
		Final:               state.Index == state.StepCount,
	}
}
