package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/slowcipher/slowcipher-go"
	"github.com/slowcipher/slowcipher-go/checkpoint"
)

// globalFlags are persistent flags shared by every command.
type globalFlags struct {
	ConfigFile    string
	EnvFile       string
	CheckpointDir string
	Quiet         bool
}

func (g *globalFlags) register(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(&g.ConfigFile, "config", "", "YAML settings file (default: $SLOWCIPHER_CONFIG)")
	cmd.PersistentFlags().StringVar(&g.EnvFile, "env-file", ".env", "dotenv file with SLOWCIPHER_* variables")
	cmd.PersistentFlags().StringVar(&g.CheckpointDir, "checkpoint-dir", "", "badger directory for checkpoints")
	cmd.PersistentFlags().BoolVarP(&g.Quiet, "quiet", "q", false, "Do not report progress")
}

// derivationFlags are the per-command derivation parameters.
type derivationFlags struct {
	KeyHex      string
	IVHex       string
	SaltHex     string
	ComputedKey string
	Steps       int
	Start       int
	SessionID   string
	Rounds      int
	Bits        int
	Primitive   string
}

func (f *derivationFlags) register(cmd *cobra.Command, withIV bool) {
	flags := cmd.Flags()
	flags.StringVar(&f.KeyHex, "key", "", "Initial key (hex)")
	flags.StringVar(&f.SaltHex, "salt", "", "Salt (hex)")
	if withIV {
		flags.StringVar(&f.IVHex, "iv", "", "IV material (hex)")
		flags.StringVar(&f.ComputedKey, "computed-key", "", "Use an already derived key (hex) and skip the derivation")
	}
	flags.IntVar(&f.Steps, "steps", 0, "Number of derivation rounds (default from settings)")
	flags.IntVar(&f.Start, "start", 0, "Rounds already applied to --key")
	flags.StringVar(&f.SessionID, "session", "", "Checkpoint session id (generated when empty)")
	flags.IntVar(&f.Rounds, "rounds", 0, "Primitive iterations per round (default from settings)")
	flags.IntVar(&f.Bits, "bits", 0, "Derived key size in bits (default from settings)")
	flags.StringVar(&f.Primitive, "primitive", "", "pbkdf2-sha256, pbkdf2-sha512, argon2id or scrypt")
}

// loadSettings reads file and environment settings and applies the flags
// that were given explicitly.
func loadSettings(cmd *cobra.Command, cfg *Config, g *globalFlags, f *derivationFlags) (Settings, error) {
	path := g.ConfigFile
	if path == "" {
		path = cfg.getenv("SLOWCIPHER_CONFIG")
	}
	s, err := LoadSettings(path, g.EnvFile, cfg.getenv)
	if err != nil {
		return s, err
	}

	changed := func(name string) bool {
		fl := cmd.Flags().Lookup(name)
		return fl != nil && fl.Changed
	}
	if changed("checkpoint-dir") {
		s.CheckpointDir = g.CheckpointDir
	}
	if f == nil {
		return s, nil
	}
	if changed("rounds") {
		s.Rounds = f.Rounds
	}
	if changed("bits") {
		s.OutputBits = f.Bits
	}
	if changed("primitive") {
		s.Primitive = f.Primitive
	}
	if changed("steps") {
		s.Steps = f.Steps
	}
	return s, s.Validate()
}

// derivation carries what a command needs to run the chain.
type derivation struct {
	opts      []slowcipher.Option
	sessionID string
	store     *checkpoint.BadgerStore
	printer   *progressPrinter
	log       *logrus.Logger
}

func newDerivation(s Settings, sessionID string, quiet bool, stderr io.Writer) (*derivation, error) {
	primitive, err := primitiveByName(s.Primitive)
	if err != nil {
		return nil, err
	}
	d := &derivation{
		printer: newProgressPrinter(stderr, quiet),
		log:     s.Logger(stderr),
	}
	d.opts = []slowcipher.Option{
		slowcipher.WithRounds(s.Rounds),
		slowcipher.WithOutputBits(s.OutputBits),
		slowcipher.WithPrimitive(primitive),
		slowcipher.WithThrottleInterval(s.ThrottleInterval()),
		slowcipher.WithCheckpointInterval(s.CheckpointInterval),
		slowcipher.WithLogger(d.log),
		slowcipher.WithProgress(d.printer.print),
	}

	if s.CheckpointDir == "" {
		return d, nil
	}
	d.store, err = openStore(s, stderr)
	if err != nil {
		return nil, err
	}
	d.sessionID = sessionID
	if d.sessionID == "" {
		d.sessionID = slowcipher.NewSessionID()
	}
	d.opts = append(d.opts,
		slowcipher.WithCheckpointStore(d.store, d.sessionID),
		slowcipher.WithCheckpointErrorHandler(func(err *slowcipher.CheckpointError) {
			d.log.WithError(err).Warn("checkpoint not persisted")
		}),
	)
	return d, nil
}

// completedKey returns the computed key of a derivation that ran no rounds:
// either keyHex was already final or the session's checkpoint was complete.
func (d *derivation) completedKey(ctx context.Context, keyHex string, steps, start int) (string, error) {
	if start >= steps || d.store == nil {
		return keyHex, nil
	}
	record, err := d.store.Get(ctx, d.sessionID)
	if err != nil {
		return "", fmt.Errorf("read completed checkpoint: %w", err)
	}
	return record.ComputedKeyHex, nil
}

func openStore(s Settings, stderr io.Writer) (*checkpoint.BadgerStore, error) {
	if s.CheckpointDir == "" {
		return nil, errors.New("no checkpoint directory configured")
	}
	store, err := checkpoint.OpenBadgerStore(checkpoint.BadgerConfig{
		Path:   s.CheckpointDir,
		Logger: s.Logger(stderr),
	})
	if err != nil {
		return nil, fmt.Errorf("open checkpoint store: %w", err)
	}
	return store, nil
}

func (d *derivation) close() {
	d.printer.finish()
	if d.store != nil {
		if err := d.store.Close(); err != nil {
			d.log.WithError(err).Warn("failed to close checkpoint store")
		}
	}
}

// InterruptedOutput is written to stdout when a derivation is interrupted.
// Pass ValueHex and Index back as --key and --start to continue.
type InterruptedOutput struct {
	Interrupted bool   `json:"interrupted"`
	ValueHex    string `json:"valueHex"`
	Index       int    `json:"index"`
	StepCount   int    `json:"stepCount"`
	SessionID   string `json:"sessionId,omitempty"`
}

func (d *derivation) reportInterrupted(w io.Writer, err error) {
	var interrupted *slowcipher.InterruptedError
	if !errors.As(err, &interrupted) {
		return
	}
	d.printer.finish()
	_ = writeJSON(w, InterruptedOutput{
		Interrupted: true,
		ValueHex:    interrupted.State.ValueHex,
		Index:       interrupted.State.Index,
		StepCount:   interrupted.State.StepCount,
		SessionID:   d.sessionID,
	})
}
