package broker

import (
	mathrand "math/rand"
	"sync"
	"sync/atomic"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/Simp1er/voltron/pkg/model"
)

const (
	// stateWaiting the caller is blocked on done
	stateWaiting int32 = iota
	// stateClaimed a dispatcher owns the result slot and will signal done
	stateClaimed
	// stateAbandoned the caller timed out and already returned
	stateAbandoned
)

// pending is one blocking request parked in the queue. Exactly one worker
// goroutine waits on done; whoever wins the waiting->claimed/abandoned race
// decides whether the dispatcher's result or a timeout is returned.
type pending struct {
	// id correlates log lines for this request across goroutines
	id  string
	env *model.RequestEnvelope
	req model.APIRequest

	// res is written only by the goroutine that claimed the request,
	// strictly before done is closed
	res  *model.ResponseEnvelope
	done chan struct{}

	state atomic.Int32
}

func newPending(env *model.RequestEnvelope, req model.APIRequest) *pending {
	return &pending{
		id:   newRequestID(),
		env:  env,
		req:  req,
		done: make(chan struct{}),
	}
}

// claim transfers ownership of the result slot to a dispatcher.
func (p *pending) claim() bool {
	return p.state.CompareAndSwap(stateWaiting, stateClaimed)
}

// abandon marks the request as timed out so no dispatcher will touch it.
func (p *pending) abandon() bool {
	return p.state.CompareAndSwap(stateWaiting, stateAbandoned)
}

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(mathrand.New(mathrand.NewSource(time.Now().UnixNano())), 0)
)

// newRequestID generates a ULID string for queued requests.
func newRequestID() string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()
}
