// Package reporter logs a periodic fleet status summary on a cron schedule.
package reporter

import (
	"log/slog"

	"github.com/robfig/cron/v3"

	"fleetd/internal/domain"
	"fleetd/internal/usecase/fleet"
)

// Reporter emits a fleet summary log line on each schedule tick.
type Reporter struct {
	cron   *cron.Cron
	fleet  *fleet.Registry
	logger *slog.Logger
}

// New creates a reporter over the fleet registry.
func New(registry *fleet.Registry, logger *slog.Logger) *Reporter {
	return &Reporter{
		cron:   cron.New(),
		fleet:  registry,
		logger: logger,
	}
}

// Start schedules the report. The schedule is a standard cron expression.
func (r *Reporter) Start(schedule string) error {
	if _, err := r.cron.AddFunc(schedule, r.report); err != nil {
		return domain.WrapOp("schedule fleet report", err)
	}
	r.cron.Start()
	return nil
}

// Stop halts the schedule; a report in flight finishes.
func (r *Reporter) Stop() {
	r.cron.Stop()
}

func (r *Reporter) report() {
	statuses := r.fleet.List()
	running := 0
	var idle []string
	for _, st := range statuses {
		if st.State == domain.AgentRunning {
			running++
		} else {
			idle = append(idle, st.Name)
		}
	}
	r.logger.Info("fleet status",
		"agents", len(statuses),
		"running", running,
		"idle", idle,
	)
}
