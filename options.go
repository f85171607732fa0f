package slowcipher

import (
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/slowcipher/slowcipher-go/checkpoint"
	"github.com/slowcipher/slowcipher-go/internal/crypto"
	"github.com/slowcipher/slowcipher-go/internal/derive"
)

const (
	// DefaultRounds is the number of primitive iterations per round.
	DefaultRounds = crypto.DefaultRounds

	// DefaultOutputBits is the derived key length in bits.
	DefaultOutputBits = crypto.DefaultKeyBits

	// DefaultThrottleInterval is the minimum spacing between progress
	// callbacks.
	DefaultThrottleInterval = derive.DefaultThrottleInterval

	// DefaultCheckpointInterval is the number of rounds between checkpoint
	// samples.
	DefaultCheckpointInterval = derive.DefaultCheckpointEvery
)

// config holds configuration for a derivation call.
type config struct {
	rounds          int
	outputBits      int
	primitive       Primitive
	progress        ProgressFunc
	throttle        time.Duration
	checkpointEvery int
	yield           func()
	now             func() time.Time
	logger          *logrus.Logger

	// Checkpoint configuration
	store           checkpoint.Store
	sessionID       string
	onCheckpointErr func(*CheckpointError)
}

// Option configures a derivation call.
type Option func(*config)

func newConfig(opts []Option) *config {
	cfg := &config{
		rounds:          DefaultRounds,
		outputBits:      DefaultOutputBits,
		primitive:       PBKDF2SHA256,
		throttle:        DefaultThrottleInterval,
		checkpointEvery: DefaultCheckpointInterval,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.logger == nil {
		cfg.logger = logrus.New()
		cfg.logger.SetOutput(io.Discard)
	}
	if cfg.now == nil {
		cfg.now = time.Now
	}
	return cfg
}

func (c *config) validate() []string {
	var errs []string
	if c.rounds < 1 {
		errs = append(errs, fmt.Sprintf("rounds must be at least 1, got %d", c.rounds))
	}
	if c.outputBits < 8 || c.outputBits%8 != 0 {
		errs = append(errs, fmt.Sprintf("output bits must be a positive multiple of 8, got %d", c.outputBits))
	}
	if c.primitive == nil {
		errs = append(errs, "primitive is required")
	}
	if c.checkpointEvery < 0 {
		errs = append(errs, fmt.Sprintf("checkpoint interval must be non-negative, got %d", c.checkpointEvery))
	}
	if c.store != nil && c.sessionID == "" {
		errs = append(errs, "checkpoint store requires a session ID")
	}
	return errs
}

// WithRounds sets the number of primitive iterations applied per round.
// Default: 1000
func WithRounds(rounds int) Option {
	return func(c *config) {
		c.rounds = rounds
	}
}

// WithOutputBits sets the derived key length in bits. The cipher needs at
// least 128 bits, and lengths other than 128, 192 and 256 must be a
// multiple of 32.
// Default: 512
func WithOutputBits(bits int) Option {
	return func(c *config) {
		c.outputBits = bits
	}
}

// WithPrimitive sets the key derivation function applied each round.
// Default: PBKDF2SHA256
func WithPrimitive(p Primitive) Option {
	return func(c *config) {
		c.primitive = p
	}
}

// WithProgress sets a callback for progress samples. It is called
// synchronously on the deriving goroutine; the final sample is always
// delivered last.
func WithProgress(fn ProgressFunc) Option {
	return func(c *config) {
		c.progress = fn
	}
}

// WithThrottleInterval sets the minimum spacing between progress
// callbacks. Zero delivers every round. Final and checkpoint samples are
// never throttled.
// Default: 100ms
func WithThrottleInterval(interval time.Duration) Option {
	return func(c *config) {
		c.throttle = interval
	}
}

// WithCheckpointInterval sets the number of rounds between checkpoint
// samples. Zero disables intermediate checkpoints; the final round is
// still recorded.
// Default: 1000
func WithCheckpointInterval(rounds int) Option {
	return func(c *config) {
		c.checkpointEvery = rounds
	}
}

// WithYield sets the function called between rounds. The default,
// runtime.Gosched, lets other goroutines run during long derivations.
func WithYield(fn func()) Option {
	return func(c *config) {
		c.yield = fn
	}
}

// WithCheckpointStore persists progress to store under sessionID and
// resumes from a stored record whose parameters match the call.
func WithCheckpointStore(store checkpoint.Store, sessionID string) Option {
	return func(c *config) {
		c.store = store
		c.sessionID = sessionID
	}
}

// WithCheckpointErrorHandler sets a callback for checkpoint store failures.
// Failures are always logged and never abort the derivation.
func WithCheckpointErrorHandler(fn func(*CheckpointError)) Option {
	return func(c *config) {
		c.onCheckpointErr = fn
	}
}

// WithLogger sets the logger. By default nothing is logged.
func WithLogger(logger *logrus.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithClock sets the clock used for progress metrics and throttling.
func WithClock(now func() time.Time) Option {
	return func(c *config) {
		c.now = now
	}
}
