package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/slowcipher/slowcipher-go"
	"github.com/slowcipher/slowcipher-go/checkpoint"
)

const (
	testKeyHex  = "000102030405060708090a0b0c0d0e0f"
	testIVHex   = "101112131415161718191a1b1c1d1e1f"
	testSaltHex = "a0a1a2a3a4a5a6a7a8a9aaabacadaeaf"
)

// fastFlags keep the chain short so tests run quickly.
var fastFlags = []string{"--rounds", "1", "--steps", "3", "--env-file", ""}

type errorReader struct{}

func (errorReader) Read([]byte) (int, error) { return 0, errors.New("read failed") }

type errorWriter struct{}

func (errorWriter) Write([]byte) (int, error) { return 0, errors.New("write failed") }

func newTestConfig(stdin string) (*Config, *bytes.Buffer, *bytes.Buffer) {
	stdout := &bytes.Buffer{}
	stderr := &bytes.Buffer{}
	return &Config{
		Stdin:  strings.NewReader(stdin),
		Stdout: stdout,
		Stderr: stderr,
		Getenv: func(string) string { return "" },
	}, stdout, stderr
}

func cmdArgs(command string, args ...string) []string {
	return append([]string{"slowcipher", command}, args...)
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Stdin != os.Stdin {
		t.Error("DefaultConfig().Stdin should be os.Stdin")
	}
	if cfg.Stdout != os.Stdout {
		t.Error("DefaultConfig().Stdout should be os.Stdout")
	}
	if cfg.Stderr != os.Stderr {
		t.Error("DefaultConfig().Stderr should be os.Stderr")
	}
	if cfg.Getenv == nil {
		t.Error("DefaultConfig().Getenv should be set")
	}
}

func TestRun_MissingCommand(t *testing.T) {
	cfg, stdout, _ := newTestConfig("")
	err := run([]string{"slowcipher"}, cfg)
	if err == nil || !strings.Contains(err.Error(), "missing command") {
		t.Fatalf("run() error = %v, want missing command", err)
	}
	if !strings.Contains(stdout.String(), "Usage:") {
		t.Errorf("stdout = %q, want usage", stdout.String())
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	cfg, _, _ := newTestConfig("")
	err := run(cmdArgs("frobnicate"), cfg)
	if err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Errorf("run() error = %v, want unknown command", err)
	}
}

func TestRun_Help(t *testing.T) {
	cfg, stdout, _ := newTestConfig("")
	if err := run(cmdArgs("help"), cfg); err != nil {
		t.Fatalf("run(help) error = %v", err)
	}
	if !strings.Contains(stdout.String(), "compute-key") {
		t.Errorf("help output = %q", stdout.String())
	}

	cfg, _, _ = newTestConfig("")
	if err := run(cmdArgs("compute-key", "-h"), cfg); err != nil {
		t.Errorf("run(compute-key -h) error = %v, want nil", err)
	}
}

func TestRunRandomHex(t *testing.T) {
	tests := []struct {
		args    []string
		wantLen int
	}{
		{nil, 128},
		{[]string{"--bits", "128"}, 32},
		{[]string{"--bits", "8"}, 2},
	}
	for _, tt := range tests {
		cfg, stdout, _ := newTestConfig("")
		if err := run(cmdArgs("random-hex", tt.args...), cfg); err != nil {
			t.Fatalf("random-hex %v error = %v", tt.args, err)
		}
		got := strings.TrimSpace(stdout.String())
		if len(got) != tt.wantLen {
			t.Errorf("random-hex %v = %q, want %d hex chars", tt.args, got, tt.wantLen)
		}
	}
}

func TestRunRandomHex_Errors(t *testing.T) {
	for _, args := range [][]string{
		{"--bits", "12"},
		{"--bits", "0"},
		{"extra"},
	} {
		cfg, _, _ := newTestConfig("")
		if err := run(cmdArgs("random-hex", args...), cfg); err == nil {
			t.Errorf("random-hex %v should fail", args)
		}
	}

	cfg, _, _ := newTestConfig("")
	cfg.Stdout = errorWriter{}
	if err := run(cmdArgs("random-hex"), cfg); err == nil {
		t.Error("random-hex should fail when stdout fails")
	}
}

func TestRunComputeKey(t *testing.T) {
	cfg, stdout, stderr := newTestConfig("")
	args := append([]string{"--key", testKeyHex, "--salt", testSaltHex}, fastFlags...)
	if err := run(cmdArgs("compute-key", args...), cfg); err != nil {
		t.Fatalf("compute-key error = %v", err)
	}

	var out KeyOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}

	want, err := slowcipher.ComputeKey(context.Background(), testKeyHex, testSaltHex, 3, 0, slowcipher.WithRounds(1))
	if err != nil {
		t.Fatalf("ComputeKey() error = %v", err)
	}
	if out.ComputedKeyHex != want {
		t.Errorf("computedKeyHex = %s, want %s", out.ComputedKeyHex, want)
	}
	if out.StepCount != 3 {
		t.Errorf("stepCount = %d, want 3", out.StepCount)
	}
	if out.SessionID != "" {
		t.Errorf("sessionId = %q, want empty without a checkpoint dir", out.SessionID)
	}
	if !strings.Contains(stderr.String(), "round 3/3") {
		t.Errorf("stderr = %q, want final progress line", stderr.String())
	}
}

func TestRunComputeKey_Quiet(t *testing.T) {
	cfg, _, stderr := newTestConfig("")
	args := append([]string{"--key", testKeyHex, "--salt", testSaltHex, "--quiet"}, fastFlags...)
	if err := run(cmdArgs("compute-key", args...), cfg); err != nil {
		t.Fatalf("compute-key error = %v", err)
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr = %q, want nothing with -quiet", stderr.String())
	}
}

func TestRunComputeKey_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing key", []string{"--salt", testSaltHex}, `required flag(s) "key" not set`},
		{"missing salt", []string{"--key", testKeyHex}, `required flag(s) "salt" not set`},
		{"bad primitive", []string{"--key", testKeyHex, "--salt", testSaltHex, "--primitive", "md5"}, "unknown primitive"},
		{"bad key", []string{"--key", "zz", "--salt", testSaltHex}, "validation failed"},
		{"bad flag", []string{"--nope"}, "unknown flag: --nope"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _, _ := newTestConfig("")
			err := run(cmdArgs("compute-key", append(tt.args, fastFlags...)...), cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("compute-key error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestRunComputeKey_Interrupted(t *testing.T) {
	cfg, stdout, _ := newTestConfig("")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	root := newRootCmd(cfg)
	root.SetArgs(append([]string{"compute-key", "--key", testKeyHex, "--salt", testSaltHex, "--start", "1"}, fastFlags...))
	err := root.ExecuteContext(ctx)
	if !errors.Is(err, slowcipher.ErrInterrupted) {
		t.Fatalf("compute-key error = %v, want ErrInterrupted", err)
	}

	var out InterruptedOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if !out.Interrupted || out.Index != 1 || out.StepCount != 3 || out.ValueHex != testKeyHex {
		t.Errorf("interrupted output = %+v", out)
	}
}

func TestRunEncryptDecrypt(t *testing.T) {
	cfg, stdout, _ := newTestConfig("")
	args := append([]string{
		"--key", testKeyHex, "--iv", testIVHex, "--salt", testSaltHex,
		"--message", "attack at dawn",
	}, fastFlags...)
	if err := run(cmdArgs("encrypt", args...), cfg); err != nil {
		t.Fatalf("encrypt error = %v", err)
	}

	var enc EncryptOutput
	if err := json.Unmarshal(stdout.Bytes(), &enc); err != nil {
		t.Fatalf("unmarshal encrypt output: %v", err)
	}
	if enc.KeyHex != testKeyHex || enc.IVHex != testIVHex || enc.SaltHex != testSaltHex {
		t.Errorf("encrypt output material = %+v", enc)
	}
	if enc.CipherText == "" || enc.ComputedKeyHex == "" {
		t.Fatalf("encrypt output = %+v", enc)
	}

	cfg, stdout, _ = newTestConfig(enc.CipherText + "\n")
	args = append([]string{"--key", testKeyHex, "--iv", testIVHex, "--salt", testSaltHex}, fastFlags...)
	if err := run(cmdArgs("decrypt", args...), cfg); err != nil {
		t.Fatalf("decrypt error = %v", err)
	}

	var dec DecryptOutput
	if err := json.Unmarshal(stdout.Bytes(), &dec); err != nil {
		t.Fatalf("unmarshal decrypt output: %v", err)
	}
	if dec.Message != "attack at dawn" {
		t.Errorf("message = %q, want %q", dec.Message, "attack at dawn")
	}
	if dec.ComputedKeyHex != enc.ComputedKeyHex {
		t.Errorf("computedKeyHex = %s, want %s", dec.ComputedKeyHex, enc.ComputedKeyHex)
	}
}

func TestRunDecrypt_CheckpointHoldsIV(t *testing.T) {
	dir := t.TempDir()

	cfg, stdout, _ := newTestConfig("")
	args := append([]string{
		"--key", testKeyHex, "--iv", testIVHex, "--salt", testSaltHex, "--message", "hi",
	}, fastFlags...)
	if err := run(cmdArgs("encrypt", args...), cfg); err != nil {
		t.Fatalf("encrypt error = %v", err)
	}
	var enc EncryptOutput
	if err := json.Unmarshal(stdout.Bytes(), &enc); err != nil {
		t.Fatalf("unmarshal encrypt output: %v", err)
	}

	for _, pass := range []string{"derive", "from checkpoint"} {
		cfg, stdout, _ = newTestConfig("")
		args = append([]string{
			"--key", testKeyHex, "--iv", testIVHex, "--salt", testSaltHex,
			"--ciphertext", enc.CipherText, "--checkpoint-dir", dir, "--session", "d1",
		}, fastFlags...)
		if err := run(cmdArgs("decrypt", args...), cfg); err != nil {
			t.Fatalf("%s: decrypt error = %v", pass, err)
		}
		var dec DecryptOutput
		if err := json.Unmarshal(stdout.Bytes(), &dec); err != nil {
			t.Fatalf("%s: unmarshal decrypt output: %v", pass, err)
		}
		if dec.Message != "hi" || dec.ComputedKeyHex != enc.ComputedKeyHex {
			t.Errorf("%s: decrypt output = %+v", pass, dec)
		}
	}

	cfg, stdout, _ = newTestConfig("")
	if err := run(cmdArgs("checkpoint", "show", "--checkpoint-dir", dir, "--session", "d1", "--env-file", ""), cfg); err != nil {
		t.Fatalf("checkpoint show error = %v", err)
	}
	var record checkpoint.Record
	if err := json.Unmarshal(stdout.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if record.IVHex != testIVHex || !record.Complete() {
		t.Errorf("record = %+v, want complete with the iv", record)
	}
}

func TestRunEncrypt_GeneratesMaterial(t *testing.T) {
	cfg, stdout, _ := newTestConfig("from stdin\n")
	if err := run(cmdArgs("encrypt", fastFlags...), cfg); err != nil {
		t.Fatalf("encrypt error = %v", err)
	}

	var enc EncryptOutput
	if err := json.Unmarshal(stdout.Bytes(), &enc); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if len(enc.KeyHex) != 128 || len(enc.SaltHex) != 128 || len(enc.IVHex) != 128 {
		t.Errorf("generated material = key %d, iv %d, salt %d hex chars", len(enc.KeyHex), len(enc.IVHex), len(enc.SaltHex))
	}

	msg, err := slowcipher.DecryptWithComputedKey(enc.CipherText, enc.ComputedKeyHex, enc.IVHex, enc.SaltHex)
	if err != nil {
		t.Fatalf("DecryptWithComputedKey() error = %v", err)
	}
	if msg != "from stdin" {
		t.Errorf("message = %q, want %q", msg, "from stdin")
	}
}

func TestRunEncrypt_GeneratesMaterialForKeyLength(t *testing.T) {
	cfg, stdout, _ := newTestConfig("")
	args := append([]string{"--key", testKeyHex, "--message", "short key"}, fastFlags...)
	if err := run(cmdArgs("encrypt", args...), cfg); err != nil {
		t.Fatalf("encrypt error = %v", err)
	}

	var enc EncryptOutput
	if err := json.Unmarshal(stdout.Bytes(), &enc); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if len(enc.IVHex) != len(testKeyHex) || len(enc.SaltHex) != len(testKeyHex) {
		t.Errorf("generated iv %d and salt %d hex chars, want %d", len(enc.IVHex), len(enc.SaltHex), len(testKeyHex))
	}
}

func TestRunEncryptDecrypt_ComputedKey(t *testing.T) {
	computed, err := slowcipher.ComputeKey(context.Background(), testKeyHex, testSaltHex, 3, 0, slowcipher.WithRounds(1))
	if err != nil {
		t.Fatalf("ComputeKey() error = %v", err)
	}

	cfg, stdout, stderr := newTestConfig("")
	err = run(cmdArgs("encrypt", "--computed-key", computed, "--iv", testIVHex, "--salt", testSaltHex, "--message", "hi", "--env-file", ""), cfg)
	if err != nil {
		t.Fatalf("encrypt error = %v", err)
	}
	if stderr.Len() != 0 {
		t.Errorf("stderr = %q, want no progress without a derivation", stderr.String())
	}
	var enc EncryptOutput
	if err := json.Unmarshal(stdout.Bytes(), &enc); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}

	cfg, stdout, _ = newTestConfig("")
	err = run(cmdArgs("decrypt", "--computed-key", computed, "--iv", testIVHex, "--salt", testSaltHex, "--ciphertext", enc.CipherText, "--env-file", ""), cfg)
	if err != nil {
		t.Fatalf("decrypt error = %v", err)
	}
	var dec DecryptOutput
	if err := json.Unmarshal(stdout.Bytes(), &dec); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if dec.Message != "hi" {
		t.Errorf("message = %q, want %q", dec.Message, "hi")
	}
}

func TestRunDecrypt_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing iv", []string{"--key", testKeyHex, "--salt", testSaltHex}, `required flag(s) "iv" not set`},
		{"missing key", []string{"--iv", testIVHex, "--salt", testSaltHex}, "[key computed-key]"},
		{"mismatched lengths", []string{"--key", testKeyHex, "--iv", testIVHex + testIVHex, "--salt", testSaltHex, "--ciphertext", "AAAA"}, "same length"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _, _ := newTestConfig("")
			err := run(cmdArgs("decrypt", append(tt.args, fastFlags...)...), cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("decrypt error = %v, want %q", err, tt.want)
			}
		})
	}

	cfg, _, _ := newTestConfig("")
	cfg.Stdin = errorReader{}
	args := append([]string{"--key", testKeyHex, "--iv", testIVHex, "--salt", testSaltHex}, fastFlags...)
	err := run(cmdArgs("decrypt", args...), cfg)
	if err == nil || !strings.Contains(err.Error(), "read stdin") {
		t.Errorf("decrypt error = %v, want read stdin failure", err)
	}
}

func TestRunCheckpoint(t *testing.T) {
	dir := t.TempDir()

	cfg, stdout, _ := newTestConfig("")
	args := append([]string{"--key", testKeyHex, "--salt", testSaltHex, "--checkpoint-dir", dir, "--session", "s1"}, fastFlags...)
	if err := run(cmdArgs("compute-key", args...), cfg); err != nil {
		t.Fatalf("compute-key error = %v", err)
	}
	var key KeyOutput
	if err := json.Unmarshal(stdout.Bytes(), &key); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if key.SessionID != "s1" {
		t.Errorf("sessionId = %q, want s1", key.SessionID)
	}

	cfg, stdout, _ = newTestConfig("")
	if err := run(cmdArgs("checkpoint", "show", "--checkpoint-dir", dir, "--session", "s1", "--env-file", ""), cfg); err != nil {
		t.Fatalf("checkpoint show error = %v", err)
	}
	var record checkpoint.Record
	if err := json.Unmarshal(stdout.Bytes(), &record); err != nil {
		t.Fatalf("unmarshal record: %v", err)
	}
	if !record.Complete() || record.ComputedKeyHex != key.ComputedKeyHex {
		t.Errorf("record = %+v, want complete with the computed key", record)
	}

	cfg, stdout, _ = newTestConfig("")
	if err := run(cmdArgs("checkpoint", "list", "--checkpoint-dir", dir, "--env-file", ""), cfg); err != nil {
		t.Fatalf("checkpoint list error = %v", err)
	}
	if !strings.Contains(stdout.String(), "s1") || !strings.Contains(stdout.String(), "complete") {
		t.Errorf("list output = %q", stdout.String())
	}

	cfg, _, _ = newTestConfig("")
	if err := run(cmdArgs("checkpoint", "clear", "--checkpoint-dir", dir, "--session", "s1", "--env-file", ""), cfg); err != nil {
		t.Fatalf("checkpoint clear error = %v", err)
	}

	cfg, _, _ = newTestConfig("")
	err := run(cmdArgs("checkpoint", "show", "--checkpoint-dir", dir, "--session", "s1", "--env-file", ""), cfg)
	if !errors.Is(err, checkpoint.ErrNotFound) {
		t.Errorf("checkpoint show after clear error = %v, want ErrNotFound", err)
	}
}

func TestRunCheckpoint_GeneratesSessionID(t *testing.T) {
	cfg, stdout, _ := newTestConfig("")
	args := append([]string{"--key", testKeyHex, "--salt", testSaltHex, "--checkpoint-dir", t.TempDir()}, fastFlags...)
	if err := run(cmdArgs("compute-key", args...), cfg); err != nil {
		t.Fatalf("compute-key error = %v", err)
	}
	var out KeyOutput
	if err := json.Unmarshal(stdout.Bytes(), &out); err != nil {
		t.Fatalf("unmarshal output: %v", err)
	}
	if out.SessionID == "" {
		t.Error("sessionId should be generated when a checkpoint dir is set")
	}
}

func TestRunCheckpoint_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"no subcommand", nil, "missing subcommand"},
		{"unknown subcommand", []string{"purge"}, "unknown command"},
		{"show without session", []string{"show", "--checkpoint-dir", "x"}, `required flag(s) "session" not set`},
		{"no directory", []string{"list", "--env-file", ""}, "no checkpoint directory"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, _, _ := newTestConfig("")
			err := run(cmdArgs("checkpoint", tt.args...), cfg)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("checkpoint error = %v, want %q", err, tt.want)
			}
		})
	}
}

func TestReadInput(t *testing.T) {
	got, err := readInput(strings.NewReader("line\n"))
	if err != nil || got != "line" {
		t.Errorf("readInput() = %q, %v", got, err)
	}
	if _, err := readInput(nil); err == nil {
		t.Error("readInput(nil) should fail")
	}
}

func TestWriteJSON_Error(t *testing.T) {
	if err := writeJSON(errorWriter{}, KeyOutput{}); err == nil {
		t.Error("writeJSON() should fail on a failing writer")
	}
}
