package slowcipher

import (
	"context"
	"sync"
)

// Job is a key derivation running on its own goroutine.
type Job struct {
	cancel context.CancelFunc
	done   chan struct{}
	subs   *subscriptionManager

	mu     sync.Mutex
	last   *Progress
	result string
	err    error
}

// Start runs ComputeKey on a new goroutine. Progress is delivered to the
// WithProgress callback, if any, and to subscribers. Invalid arguments are
// reported by Wait.
//
// Example:
//
//	job := slowcipher.Start(ctx, keyHex, saltHex, 100000, 0)
//	updates := job.Watch(ctx)
//	for {
//	    select {
//	    case p := <-updates:
//	        fmt.Printf("%d/%d\n", p.Index, p.StepCount)
//	    case <-job.Done():
//	        key, err := job.Wait()
//	        // ...
//	        return
//	    }
//	}
func Start(ctx context.Context, keyHex, saltHex string, stepCount, startIndex int, opts ...Option) *Job {
	ctx, cancel := context.WithCancel(ctx)
	j := &Job{
		cancel: cancel,
		done:   make(chan struct{}),
		subs:   newSubscriptionManager(),
	}

	cfg := newConfig(opts)
	p := params{keyHex: keyHex, saltHex: saltHex, stepCount: stepCount, startIndex: startIndex}
	if err := validate(cfg, p, false); err != nil {
		j.finish("", err)
		return j
	}

	userProgress := cfg.progress
	cfg.progress = func(pr Progress) {
		j.mu.Lock()
		j.last = &pr
		j.mu.Unlock()

		if userProgress != nil {
			userProgress(pr)
		}
		j.subs.notify(pr)
	}

	go func() {
		j.finish(computeKey(ctx, cfg, p))
	}()
	return j
}

func (j *Job) finish(result string, err error) {
	j.mu.Lock()
	j.result = result
	j.err = err
	j.mu.Unlock()

	j.subs.clear()
	j.cancel()
	close(j.done)
}

// Done returns a channel that is closed when the derivation ends.
func (j *Job) Done() <-chan struct{} {
	return j.done
}

// Wait blocks until the derivation ends and returns the derived key hex.
func (j *Job) Wait() (string, error) {
	<-j.done
	j.mu.Lock()
	defer j.mu.Unlock()
	return j.result, j.err
}

// Cancel stops the derivation at the next round boundary. Wait then
// returns an *InterruptedError with the last completed state.
func (j *Job) Cancel() {
	j.cancel()
}

// Last returns the most recent progress sample.
func (j *Job) Last() (Progress, bool) {
	j.mu.Lock()
	defer j.mu.Unlock()
	if j.last == nil {
		return Progress{}, false
	}
	return *j.last, true
}

// Subscribe registers fn for progress samples delivered after the call.
// fn runs on the deriving goroutine. The returned function unsubscribes.
func (j *Job) Subscribe(fn ProgressFunc) func() {
	return j.subs.subscribe(fn)
}

// Watch returns a channel that receives progress samples. When the buffer
// is full intermediate samples are dropped, but the final sample is always
// delivered. The channel is not closed; select on ctx.Done() or
// Job.Done() to stop reading.
func (j *Job) Watch(ctx context.Context) <-chan Progress {
	ch := make(chan Progress, 16)

	unsubscribe := j.subs.subscribe(func(p Progress) {
		select {
		case ch <- p:
			return
		default:
		}
		if !p.Final {
			return
		}
		// Make room by dropping the oldest sample. This callback is the
		// only sender.
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- p:
		default:
		}
	})

	go func() {
		select {
		case <-ctx.Done():
		case <-j.done:
		}
		unsubscribe()
	}()

	return ch
}
