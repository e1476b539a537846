package server

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// nextCronDuration returns the duration from now until the next fire time
// of expr. It returns 0 on parse error.
func nextCronDuration(expr string, now time.Time) time.Duration {
	sched, err := cronParser.Parse(expr)
	if err != nil {
		return 0
	}
	d := sched.Next(now).Sub(now)
	if d < 0 {
		return 0
	}
	return d
}

// runRegroupScheduler moves copilot sessions between the Today,
// Yesterday and Earlier groups on the configured schedule.
func (s *Server) runRegroupScheduler(ctx context.Context, expr string) {
	d := nextCronDuration(expr, s.now())
	if d <= 0 {
		log.Warn().Str("cron", expr).Msg("server: regroup schedule disabled")
		return
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
			moved := s.copilot.Regroup(s.now())
			log.Debug().Int("moved", moved).Msg("server: regrouped sessions")
			if d := nextCronDuration(expr, s.now()); d > 0 {
				timer.Reset(d)
			}
		}
	}
}
