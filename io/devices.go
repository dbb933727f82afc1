package io

import (
	"context"

	"golang.org/x/sync/errgroup"
)

// Devices is a running group of device tasks.
//
// A group is started once. After Stop and Wait it cannot be resumed;
// build a new group for the next run.
type Devices struct {
	group  *errgroup.Group
	cancel context.CancelFunc
}

// StartDevices runs each task in its own goroutine.
func StartDevices(ctx context.Context, tasks ...Task) (devs *Devices) {
	ctx, cancel := context.WithCancel(ctx)
	group, ctx := errgroup.WithContext(ctx)

	for _, task := range tasks {
		group.Go(func() error {
			return task.Run(ctx)
		})
	}

	devs = &Devices{
		group:  group,
		cancel: cancel,
	}

	return
}

// Stop signals every task to return.
func (devs *Devices) Stop() {
	devs.cancel()
}

// Wait joins every task, returning the first task error.
func (devs *Devices) Wait() (err error) {
	err = devs.group.Wait()
	devs.cancel()
	return
}
