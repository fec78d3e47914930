// Package prover polls the prover-client's task interface. Proof
// generation is an asynchronous job on the prover side; this client only
// observes its status.
package prover

import (
	"context"
	"fmt"
	"time"

	"github.com/ethereum/go-ethereum/log"
	"github.com/ethereum/go-ethereum/rpc"

	"github.com/MdTeach/strata/wait"
)

// Task status values reported by the prover client.
const (
	StatusPending   = "Pending"
	StatusCompleted = "Completed"
)

const (
	// DefaultProofTimeout bounds a full proof generation run.
	DefaultProofTimeout = time.Hour
	// statusPollInterval is how often the task status is re-checked.
	statusPollInterval = 2 * time.Second
)

type Client struct {
	rpc *rpc.Client
	log log.Logger
}

func NewClient(rpc *rpc.Client, logger log.Logger) *Client {
	return &Client{rpc: rpc, log: logger.New("role", "prover_client")}
}

func Dial(ctx context.Context, endpoint string, logger log.Logger) (*Client, error) {
	cl, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, err
	}
	return NewClient(cl, logger), nil
}

func (c *Client) Close() {
	c.rpc.Close()
}

// GetTaskStatus returns the status string of a proof task.
func (c *Client) GetTaskStatus(ctx context.Context, taskID string) (string, error) {
	var status string
	if err := c.rpc.CallContext(ctx, &status, "dev_strata_getTaskStatus", taskID); err != nil {
		return "", err
	}
	return status, nil
}

// WaitForProofCompletion polls the task status every 2s until it reports
// Completed, or fails with wait.ErrTimedOut once timeout elapses. A zero
// timeout uses DefaultProofTimeout.
func (c *Client) WaitForProofCompletion(ctx context.Context, taskID string, timeout time.Duration) error {
	if timeout <= 0 {
		timeout = DefaultProofTimeout
	}
	_, err := wait.UntilWithValue(ctx, func() (string, error) {
		status, err := c.GetTaskStatus(ctx, taskID)
		if err != nil {
			return "", err
		}
		c.log.Debug("Proof task status", "task_id", taskID, "status", status)
		return status, nil
	}, func(status string) bool {
		return status == StatusCompleted
	}, wait.Opts{
		Msg:     fmt.Sprintf("proof task %s did not complete", taskID),
		Timeout: timeout,
		Step:    statusPollInterval,
	})
	if err == nil {
		c.log.Info("Proof generation completed", "task_id", taskID)
	}
	return err
}
