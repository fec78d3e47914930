package prover

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/stretchr/testify/require"

	"github.com/MdTeach/strata/wait"
)

// fakeTaskAPI completes a task after a set number of status queries.
type fakeTaskAPI struct {
	queries       atomic.Int64
	completeAfter int64
}

func (a *fakeTaskAPI) Strata_getTaskStatus(taskID string) (string, error) {
	if a.queries.Add(1) >= a.completeAfter {
		return StatusCompleted, nil
	}
	return StatusPending, nil
}

func newTestClient(t *testing.T, api *fakeTaskAPI) *Client {
	t.Helper()
	srv := rpc.NewServer()
	t.Cleanup(srv.Stop)
	require.NoError(t, srv.RegisterName("dev", api))
	cl := rpc.DialInProc(srv)
	t.Cleanup(cl.Close)
	return NewClient(cl, log.NewLogger(log.DiscardHandler()))
}

func TestGetTaskStatus(t *testing.T) {
	cl := newTestClient(t, &fakeTaskAPI{completeAfter: 1})
	status, err := cl.GetTaskStatus(context.Background(), "task-1")
	require.NoError(t, err)
	require.Equal(t, StatusCompleted, status)
}

func TestWaitForProofCompletionTimesOut(t *testing.T) {
	cl := newTestClient(t, &fakeTaskAPI{completeAfter: 1 << 30})
	err := cl.WaitForProofCompletion(context.Background(), "task-1", 10*time.Millisecond)
	require.ErrorIs(t, err, wait.ErrTimedOut)
	require.ErrorContains(t, err, "task-1")
}
