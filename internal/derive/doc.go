// Package derive runs a chained key derivation one round at a time.
//
// Each round feeds the previous round's output back into a step function,
// so the chain can be stopped after any round and resumed later from the
// value and index reached. Between rounds the engine yields to the
// scheduler and checks its context, and progress samples are rate-limited
// by a [Throttler] that never drops the final sample.
package derive
