package checkpoint

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Record is a snapshot of derivation progress for one session.
type Record struct {
	SessionID string `json:"sessionId"`

	// KeyHex, SaltHex and IVHex are the original call parameters.
	KeyHex  string `json:"keyHex"`
	SaltHex string `json:"saltHex"`
	IVHex   string `json:"ivHex,omitempty"`

	StepCount  int `json:"stepCount"`
	StartIndex int `json:"startIndex"`

	// Index is the latest completed round and ComputedKeyHex the derived
	// key after it.
	Index          int    `json:"index"`
	ComputedKeyHex string `json:"computedKeyHex"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// Validate checks the record is internally consistent.
func (r *Record) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil record", ErrInvalidRecord)
	}
	var errs []string
	if r.SessionID == "" {
		errs = append(errs, "sessionId is required")
	}
	if r.KeyHex == "" || !isHex(r.KeyHex) {
		errs = append(errs, "keyHex must be non-empty hex")
	}
	if !isHex(r.SaltHex) {
		errs = append(errs, "saltHex must be hex")
	}
	if !isHex(r.IVHex) {
		errs = append(errs, "ivHex must be hex")
	}
	if r.ComputedKeyHex == "" || !isHex(r.ComputedKeyHex) {
		errs = append(errs, "computedKeyHex must be non-empty hex")
	}
	if r.StartIndex < 0 || r.StepCount < 0 {
		errs = append(errs, "stepCount and startIndex must be non-negative")
	}
	if r.Index < r.StartIndex || r.Index > r.StepCount {
		errs = append(errs, fmt.Sprintf("index %d outside [%d, %d]", r.Index, r.StartIndex, r.StepCount))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %v", ErrInvalidRecord, errs)
	}
	return nil
}

// Matches reports whether r was written by a derivation with the given
// parameters.
func (r *Record) Matches(keyHex, saltHex, ivHex string, stepCount, startIndex int) bool {
	return r.KeyHex == keyHex &&
		r.SaltHex == saltHex &&
		r.IVHex == ivHex &&
		r.StepCount == stepCount &&
		r.StartIndex == startIndex
}

// Resumable reports whether r holds progress beyond its start index.
func (r *Record) Resumable() bool {
	return r.Index > r.StartIndex && r.Index <= r.StepCount
}

// Complete reports whether the derivation recorded in r has finished.
func (r *Record) Complete() bool {
	return r.Index == r.StepCount
}

// Marshal encodes r as JSON.
func (r *Record) Marshal() ([]byte, error) {
	return json.Marshal(r)
}

// Unmarshal decodes and validates a JSON record.
func Unmarshal(data []byte) (*Record, error) {
	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func (r *Record) clone() *Record {
	c := *r
	return &c
}

func isHex(s string) bool {
	if len(s)%2 != 0 {
		return false
	}
	_, err := hex.DecodeString(s)
	return err == nil
}
