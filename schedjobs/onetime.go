package schedjobs

import (
	"context"
	"time"
)

type OneTimeJob struct {
	ID         string
	ExecTime   time.Time // rounded up to the minute
	Task       func(ctx context.Context) error
	OnAdded    func()
	OnFinished func(error)
}
