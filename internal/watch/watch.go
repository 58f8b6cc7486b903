// Package watch schedules a recurring statistics snapshot while a
// simulation's workers are still draining, using robfig/cron/v3 the way the
// teacher project schedules its own recurring maintenance jobs.
package watch

import (
	"fmt"
	"io"
	"time"

	"github.com/robfig/cron/v3"

	"kvcachesim/internal/backend"
	"kvcachesim/internal/statsprint"
)

// Snapshotter prints a labeled stats snapshot to w on a fixed interval
// until Stop is called.
type Snapshotter struct {
	cr *cron.Cron
}

// Start schedules a snapshot every `every` using a cron "@every" spec, the
// same scheduling idiom robfig/cron/v3 exposes for interval jobs.
func Start(label string, every time.Duration, b backend.Backend, pr *statsprint.Printer, w io.Writer) *Snapshotter {
	cr := cron.New()
	spec := fmt.Sprintf("@every %s", every)
	cr.AddFunc(spec, func() {
		pr.Fprint(w, label, b.Stats())
	})
	cr.Start()
	return &Snapshotter{cr: cr}
}

// Stop halts the schedule and waits for any in-flight snapshot to finish.
func (s *Snapshotter) Stop() {
	ctx := s.cr.Stop()
	<-ctx.Done()
}
