package apiclient

import (
	"context"
	"fmt"
	"sync"
)

type refreshState int

const (
	stateIdle refreshState = iota
	stateRefreshing
)

type refreshResult struct {
	token string
	err   error
}

var errRefreshAborted = fmt.Errorf("%w: aborted", ErrRefreshFailed)

// refresher serialises credential refreshes: Idle -> Refreshing -> Idle.
//
// The first caller in Idle becomes the leader and runs the refresh; callers
// arriving while Refreshing park in waiters and get the leader's outcome, in
// arrival order, once it settles. The state check and transition happen under
// one lock so two refreshes can never start together.
type refresher struct {
	mu      sync.Mutex
	state   refreshState
	waiters []chan refreshResult
}

// do returns the new credential, or the error every participant shares.
// The bool reports whether this caller led the refresh.
func (r *refresher) do(ctx context.Context, refresh func(context.Context) (string, error)) (string, bool, error) {
	r.mu.Lock()
	if r.state == stateRefreshing {
		ch := make(chan refreshResult, 1)
		r.waiters = append(r.waiters, ch)
		r.mu.Unlock()

		select {
		case res := <-ch:
			return res.token, false, res.err
		case <-ctx.Done():
			// ch is buffered; the leader's send never blocks on us.
			return "", false, ctx.Err()
		}
	}
	r.state = stateRefreshing
	r.mu.Unlock()

	var res refreshResult
	defer func() { r.settle(res) }()

	res.token, res.err = refresh(ctx)
	return res.token, true, res.err
}

func (r *refresher) settle(res refreshResult) {
	if res.err == nil && res.token == "" {
		res.err = errRefreshAborted
	}

	r.mu.Lock()
	waiters := r.waiters
	r.waiters = nil
	r.state = stateIdle
	r.mu.Unlock()

	for _, ch := range waiters {
		ch <- res
	}
}

func (r *refresher) pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.waiters)
}

func (r *refresher) refreshing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state == stateRefreshing
}
