package client

import (
	"context"

	"github.com/looplab/fsm"
)

// Polling loop states. The loop starts unversioned, negotiates a mode from
// the server's version response, and falls back to unversioned whenever the
// connection is lost.
const (
	// stateUnversioned no server version is cached; negotiate first
	stateUnversioned = "unversioned"
	// stateBlocking synchronous mode; every iteration sends an update batch
	stateBlocking = "blocking"
	// stateAsyncWaiting async mode; long-poll a null request until the host stops
	stateAsyncWaiting = "async_waiting"
	// stateUpdating async mode; one update batch is in flight
	stateUpdating = "updating"
)

// Events driving the loop state machine.
const (
	// eventVersionAsync the server advertised async capability
	eventVersionAsync = "version_async"
	// eventVersionSync no async capability, fall back to blocking mode
	eventVersionSync = "version_sync"
	// eventHostStopped the null long-poll returned, the debugger stopped
	eventHostStopped = "host_stopped"
	// eventUpdateDone the update batch completed
	eventUpdateDone = "update_done"
	// eventConnectionLost any request failed at the transport layer
	eventConnectionLost = "connection_lost"
)

// newLoopFSM builds the polling loop state machine for a client.
func newLoopFSM(c *Client) *fsm.FSM {
	return fsm.NewFSM(
		stateUnversioned,
		fsm.Events{
			{
				Name: eventVersionAsync,
				Src:  []string{stateUnversioned},
				Dst:  stateUpdating,
			},
			{
				Name: eventVersionSync,
				Src:  []string{stateUnversioned},
				Dst:  stateBlocking,
			},
			{
				Name: eventHostStopped,
				Src:  []string{stateAsyncWaiting},
				Dst:  stateUpdating,
			},
			{
				Name: eventUpdateDone,
				Src:  []string{stateUpdating},
				Dst:  stateAsyncWaiting,
			},
			{
				Name: eventConnectionLost,
				Src: []string{
					stateBlocking,
					stateAsyncWaiting,
					stateUpdating,
				},
				Dst: stateUnversioned,
			},
		},
		fsm.Callbacks{
			// losing the connection invalidates the cached version, forcing
			// re-negotiation on the next iteration
			"enter_" + stateUnversioned: func(_ context.Context, _ *fsm.Event) {
				c.setServerVersion(nil)
			},
		},
	)
}
