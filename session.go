package slowcipher

import (
	"context"
	"errors"

	"github.com/sirupsen/logrus"

	"github.com/slowcipher/slowcipher-go/checkpoint"
	"github.com/slowcipher/slowcipher-go/internal/crypto"
	"github.com/slowcipher/slowcipher-go/internal/derive"
)

// params are the caller-visible parameters of a derivation.
type params struct {
	keyHex     string
	saltHex    string
	ivHex      string
	stepCount  int
	startIndex int
}

// session binds a derivation to its checkpoint record.
type session struct {
	store  checkpoint.Store
	id     string
	params params
	cfg    *config
	log    *logrus.Entry
	saved  int
}

func newSession(cfg *config, p params) *session {
	if cfg.store == nil {
		return nil
	}
	return &session{
		store:  cfg.store,
		id:     cfg.sessionID,
		params: p,
		cfg:    cfg,
		saved:  -1,
		log: cfg.logger.WithFields(logrus.Fields{
			"session_id": cfg.sessionID,
			"step_count": p.stepCount,
		}),
	}
}

// resume returns the state to start from. A stored record is used only
// when it was written for the same parameters and holds progress past the
// start index.
func (s *session) resume(ctx context.Context, start derive.State) derive.State {
	if s == nil {
		return start
	}

	record, err := s.store.Get(ctx, s.id)
	if err != nil {
		if !errors.Is(err, checkpoint.ErrNotFound) {
			s.fail("get", err)
		}
		return start
	}

	log := s.log.WithField("index", record.Index)
	p := s.params
	if !record.Matches(p.keyHex, p.saltHex, p.ivHex, p.stepCount, p.startIndex) {
		log.Info("ignoring checkpoint written for different parameters")
		return start
	}
	if !record.Resumable() {
		log.Debug("checkpoint has no progress to resume")
		return start
	}

	value, err := crypto.HexToBytes(record.ComputedKeyHex)
	if err != nil || len(value) != s.cfg.outputBits/8 {
		log.Warn("ignoring checkpoint with malformed computed key")
		return start
	}

	log.Info("resuming from checkpoint")
	s.saved = record.Index
	return derive.State{Value: value, Index: record.Index, StepCount: start.StepCount}
}

// observe persists checkpoint and final samples.
func (s *session) observe(ctx context.Context, sample derive.Sample) {
	if s == nil {
		return
	}
	if sample.Checkpoint || sample.Final {
		// The round already completed; a late cancellation must not drop it.
		s.save(context.WithoutCancel(ctx), derive.State{Value: sample.Value, Index: sample.Index, StepCount: sample.StepCount})
	}
	if sample.Final {
		s.log.WithField("index", sample.Index).Info("derivation complete")
	}
}

// abort persists the last completed state of an aborted derivation
// so that it can be resumed.
func (s *session) abort(ctx context.Context, state derive.State) {
	if s == nil || state.Index <= s.params.startIndex {
		return
	}
	s.save(context.WithoutCancel(ctx), state)
}

func (s *session) save(ctx context.Context, state derive.State) {
	if state.Index == s.saved {
		return
	}
	p := s.params
	record := &checkpoint.Record{
		SessionID:      s.id,
		KeyHex:         p.keyHex,
		SaltHex:        p.saltHex,
		IVHex:          p.ivHex,
		StepCount:      p.stepCount,
		StartIndex:     p.startIndex,
		Index:          state.Index,
		ComputedKeyHex: crypto.BytesToHex(state.Value),
		UpdatedAt:      s.cfg.now().UTC(),
	}
	if err := s.store.Set(ctx, s.id, record); err != nil {
		s.fail("set", err)
		return
	}
	s.saved = state.Index
	s.log.WithField("index", state.Index).Debug("checkpoint saved")
}

func (s *session) fail(op string, err error) {
	cpErr := &CheckpointError{Op: op, SessionID: s.id, Err: err}
	s.log.WithError(err).WithField("op", op).Warn("checkpoint store failed")
	if s.cfg.onCheckpointErr != nil {
		s.cfg.onCheckpointErr(cpErr)
	}
}
