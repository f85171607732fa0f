package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
)

// Config holds the I/O streams and environment used by the CLI.
type Config struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer
	Getenv func(string) string
}

// DefaultConfig returns a Config bound to the process streams.
func DefaultConfig() *Config {
	return &Config{
		Stdin:  os.Stdin,
		Stdout: os.Stdout,
		Stderr: os.Stderr,
		Getenv: os.Getenv,
	}
}

func (c *Config) getenv(name string) string {
	if c.Getenv == nil {
		return ""
	}
	return c.Getenv(name)
}

func run(args []string, cfg *Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	root := newRootCmd(cfg)
	if len(args) > 0 {
		root.SetArgs(args[1:])
	}
	return root.ExecuteContext(ctx)
}

func newRootCmd(cfg *Config) *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "slowcipher",
		Short: "Encrypt with a deliberately slow, resumable key derivation",
		Long: `slowcipher derives a key by chaining PBKDF2 rounds and uses it to
encrypt or decrypt messages with Rijndael in CFB mode.

Long derivations report progress on stderr and can be checkpointed to a
badger directory so that an interrupted run continues where it stopped.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New("missing command")
		},
	}
	root.SetIn(cfg.Stdin)
	root.SetOut(cfg.Stdout)
	root.SetErr(cfg.Stderr)
	g.register(root)

	root.AddCommand(
		newRandomHexCmd(),
		newComputeKeyCmd(cfg, g),
		newEncryptCmd(cfg, g),
		newDecryptCmd(cfg, g),
		newCheckpointCmd(cfg, g),
	)
	return root
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	return nil
}

func readInput(r io.Reader) (string, error) {
	if r == nil {
		return "", errors.New("no input")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}
