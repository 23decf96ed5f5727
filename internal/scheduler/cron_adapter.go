package scheduler

import (
	"github.com/robfig/cron/v3"
)

// RobfigCronEngine adapts robfig/cron/v3 to the CronEngine interface.
type RobfigCronEngine struct {
	c *cron.Cron
}

// NewRobfigCronEngine creates a new cron engine using robfig/cron/v3.
// It accepts standard 5-field expressions and descriptors such as
// "@every 1m". A run that is still going when its next tick arrives causes
// that tick to be skipped.
func NewRobfigCronEngine(opts ...cron.Option) *RobfigCronEngine {
	opts = append([]cron.Option{cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger))}, opts...)
	return &RobfigCronEngine{
		c: cron.New(opts...),
	}
}

// ValidateSpec reports whether spec is a schedule the engine accepts.
func ValidateSpec(spec string) error {
	_, err := cron.ParseStandard(spec)
	return err
}

// AddFunc adds a function to be called on the given schedule.
// Returns an entry ID that can be used with Remove.
func (r *RobfigCronEngine) AddFunc(spec string, cmd func()) (int, error) {
	id, err := r.c.AddFunc(spec, cmd)
	return int(id), err
}

// Remove removes a previously registered entry by ID.
func (r *RobfigCronEngine) Remove(id int) {
	r.c.Remove(cron.EntryID(id))
}

// Start begins the cron scheduler in its own goroutine.
func (r *RobfigCronEngine) Start() {
	r.c.Start()
}

// Stop halts the cron scheduler and waits for running jobs to finish. It
// does not remove registered entries.
func (r *RobfigCronEngine) Stop() {
	<-r.c.Stop().Done()
}
