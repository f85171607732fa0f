package main

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/slowcipher/slowcipher-go"
	"github.com/slowcipher/slowcipher-go/checkpoint"
)

func newRandomHexCmd() *cobra.Command {
	var bits int
	cmd := &cobra.Command{
		Use:   "random-hex",
		Short: "Print random hex material",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if bits <= 0 {
				return fmt.Errorf("random-hex: bits must be positive, got %d", bits)
			}
			value, err := slowcipher.RandomHex(bits)
			if err != nil {
				return fmt.Errorf("random-hex: %w", err)
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), value)
			return err
		},
	}
	cmd.Flags().IntVar(&bits, "bits", slowcipher.DefaultOutputBits, "Number of random bits, a multiple of 8")
	return cmd
}

// KeyOutput is the result of compute-key.
type KeyOutput struct {
	ComputedKeyHex string `json:"computedKeyHex"`
	StepCount      int    `json:"stepCount"`
	SessionID      string `json:"sessionId,omitempty"`
}

func newComputeKeyCmd(cfg *Config, g *globalFlags) *cobra.Command {
	f := &derivationFlags{}
	cmd := &cobra.Command{
		Use:   "compute-key",
		Short: "Run the derivation chain and print the key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, cfg, g, f)
			if err != nil {
				return fmt.Errorf("compute-key: %w", err)
			}
			d, err := newDerivation(s, f.SessionID, g.Quiet, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("compute-key: %w", err)
			}
			defer d.close()

			key, err := slowcipher.ComputeKey(cmd.Context(), f.KeyHex, f.SaltHex, s.Steps, f.Start, d.opts...)
			if err != nil {
				d.reportInterrupted(cmd.OutOrStdout(), err)
				return fmt.Errorf("compute-key: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), KeyOutput{
				ComputedKeyHex: key,
				StepCount:      s.Steps,
				SessionID:      d.sessionID,
			})
		},
	}
	f.register(cmd, false)
	_ = cmd.MarkFlagRequired("key")
	_ = cmd.MarkFlagRequired("salt")
	return cmd
}

// EncryptOutput is the result of encrypt. It carries everything decrypt
// needs.
type EncryptOutput struct {
	KeyHex         string `json:"keyHex"`
	IVHex          string `json:"ivHex"`
	SaltHex        string `json:"saltHex"`
	StepCount      int    `json:"stepCount"`
	ComputedKeyHex string `json:"computedKeyHex"`
	CipherText     string `json:"cipherText"`
	SessionID      string `json:"sessionId,omitempty"`
}

func newEncryptCmd(cfg *Config, g *globalFlags) *cobra.Command {
	f := &derivationFlags{}
	var message string
	cmd := &cobra.Command{
		Use:   "encrypt",
		Short: "Derive a key and encrypt a message",
		Long: `Derive a key and encrypt a message read from --message or stdin.

Missing key, iv and salt material is generated with the length of the
given key, so the JSON output holds everything needed to decrypt.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, cfg, g, f)
			if err != nil {
				return fmt.Errorf("encrypt: %w", err)
			}

			msg := message
			if msg == "" {
				if msg, err = readInput(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("encrypt: %w", err)
				}
			}

			// Generated material matches the length of any given key.
			bits := slowcipher.DefaultOutputBits
			if f.KeyHex != "" {
				bits = len(f.KeyHex) / 2 * 8
			}
			for _, value := range []*string{&f.KeyHex, &f.IVHex, &f.SaltHex} {
				if *value != "" {
					continue
				}
				if *value, err = slowcipher.RandomHex(bits); err != nil {
					return fmt.Errorf("encrypt: %w", err)
				}
			}

			out := EncryptOutput{
				KeyHex:    f.KeyHex,
				IVHex:     f.IVHex,
				SaltHex:   f.SaltHex,
				StepCount: s.Steps,
			}

			if f.ComputedKey != "" {
				out.ComputedKeyHex = f.ComputedKey
				out.CipherText, err = slowcipher.EncryptWithComputedKey(msg, f.ComputedKey, f.IVHex, f.SaltHex)
				if err != nil {
					return fmt.Errorf("encrypt: %w", err)
				}
				return writeJSON(cmd.OutOrStdout(), out)
			}

			d, err := newDerivation(s, f.SessionID, g.Quiet, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("encrypt: %w", err)
			}
			defer d.close()

			result, err := slowcipher.Encrypt(cmd.Context(), msg, f.KeyHex, f.IVHex, f.SaltHex, s.Steps, f.Start, d.opts...)
			if err != nil {
				d.reportInterrupted(cmd.OutOrStdout(), err)
				return fmt.Errorf("encrypt: %w", err)
			}
			out.ComputedKeyHex = result.ComputedKeyHex
			out.CipherText = result.CipherText
			out.SessionID = d.sessionID
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	f.register(cmd, true)
	cmd.Flags().StringVar(&message, "message", "", "Message to encrypt (default: read stdin)")
	return cmd
}

// DecryptOutput is the result of decrypt.
type DecryptOutput struct {
	Message        string `json:"message"`
	ComputedKeyHex string `json:"computedKeyHex"`
	SessionID      string `json:"sessionId,omitempty"`
}

func newDecryptCmd(cfg *Config, g *globalFlags) *cobra.Command {
	f := &derivationFlags{}
	var cipherText string
	cmd := &cobra.Command{
		Use:   "decrypt",
		Short: "Derive a key and decrypt a ciphertext",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings(cmd, cfg, g, f)
			if err != nil {
				return fmt.Errorf("decrypt: %w", err)
			}

			ct := cipherText
			if ct == "" {
				if ct, err = readInput(cmd.InOrStdin()); err != nil {
					return fmt.Errorf("decrypt: %w", err)
				}
			}
			ct = strings.TrimSpace(ct)

			if f.ComputedKey != "" {
				msg, err := slowcipher.DecryptWithComputedKey(ct, f.ComputedKey, f.IVHex, f.SaltHex)
				if err != nil {
					return fmt.Errorf("decrypt: %w", err)
				}
				return writeJSON(cmd.OutOrStdout(), DecryptOutput{Message: msg, ComputedKeyHex: f.ComputedKey})
			}

			d, err := newDerivation(s, f.SessionID, g.Quiet, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("decrypt: %w", err)
			}
			defer d.close()

			var computed string
			opts := append(append([]slowcipher.Option(nil), d.opts...),
				slowcipher.WithProgress(func(p slowcipher.Progress) {
					if p.Final {
						computed = p.ComputedKeyHex
					}
					d.printer.print(p)
				}))
			msg, err := slowcipher.Decrypt(cmd.Context(), ct, f.KeyHex, f.IVHex, f.SaltHex, s.Steps, f.Start, opts...)
			if err != nil {
				d.reportInterrupted(cmd.OutOrStdout(), err)
				return fmt.Errorf("decrypt: %w", err)
			}
			if computed == "" {
				if computed, err = d.completedKey(cmd.Context(), f.KeyHex, s.Steps, f.Start); err != nil {
					return fmt.Errorf("decrypt: %w", err)
				}
			}
			return writeJSON(cmd.OutOrStdout(), DecryptOutput{
				Message:        msg,
				ComputedKeyHex: computed,
				SessionID:      d.sessionID,
			})
		},
	}
	f.register(cmd, true)
	cmd.Flags().StringVar(&cipherText, "ciphertext", "", "Base64 ciphertext (default: read stdin)")
	_ = cmd.MarkFlagRequired("iv")
	_ = cmd.MarkFlagRequired("salt")
	cmd.MarkFlagsOneRequired("key", "computed-key")
	return cmd
}

func newCheckpointCmd(cfg *Config, g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "checkpoint",
		Short: "Inspect and clear stored checkpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Help()
			return errors.New("checkpoint: missing subcommand")
		},
	}

	open := func(cmd *cobra.Command) (*checkpoint.BadgerStore, error) {
		s, err := loadSettings(cmd, cfg, g, nil)
		if err != nil {
			return nil, err
		}
		return openStore(s, cmd.ErrOrStderr())
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List stored checkpoints",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open(cmd)
			if err != nil {
				return fmt.Errorf("checkpoint list: %w", err)
			}
			defer store.Close()

			records, err := store.List(cmd.Context())
			if err != nil {
				return fmt.Errorf("checkpoint list: %w", err)
			}
			return printRecords(cmd, records)
		},
	}

	var sessionID string
	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Print one checkpoint record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open(cmd)
			if err != nil {
				return fmt.Errorf("checkpoint show: %w", err)
			}
			defer store.Close()

			record, err := store.Get(cmd.Context(), sessionID)
			if err != nil {
				return fmt.Errorf("checkpoint show: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), record)
		},
	}
	showCmd.Flags().StringVar(&sessionID, "session", "", "Checkpoint session id")
	_ = showCmd.MarkFlagRequired("session")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete one checkpoint record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := open(cmd)
			if err != nil {
				return fmt.Errorf("checkpoint clear: %w", err)
			}
			defer store.Close()

			if err := store.Delete(cmd.Context(), sessionID); err != nil {
				return fmt.Errorf("checkpoint clear: %w", err)
			}
			return writeJSON(cmd.OutOrStdout(), map[string]bool{"success": true})
		},
	}
	clearCmd.Flags().StringVar(&sessionID, "session", "", "Checkpoint session id")
	_ = clearCmd.MarkFlagRequired("session")

	cmd.AddCommand(listCmd, showCmd, clearCmd)
	return cmd
}

func printRecords(cmd *cobra.Command, records []*checkpoint.Record) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SESSION\tROUND\tSTEPS\tSTATUS\tUPDATED")
	for _, r := range records {
		status := "in progress"
		if r.Complete() {
			status = "complete"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n",
			r.SessionID,
			humanize.Comma(int64(r.Index)),
			humanize.Comma(int64(r.StepCount)),
			status,
			humanize.Time(r.UpdatedAt),
		)
	}
	return tw.Flush()
}
