package jobs

import (
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
)

// telemetryInterval is how often the scheduler samples system health
const telemetryInterval = 30 * time.Second

// telemetryLoop periodically logs scheduler and host health. A line is
// emitted whenever the in-flight set changes, plus a heartbeat once a
// minute of intervals so a quiet scheduler still shows up in the logs.
func (s *Scheduler) telemetryLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(telemetryInterval)
	defer ticker.Stop()

	lastInFlight := -1
	ticks := 0
	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			ticks++
			inFlight := len(s.InFlight())
			if inFlight == lastInFlight && ticks%20 != 0 {
				continue
			}
			lastInFlight = inFlight
			s.logTelemetry(inFlight)
		}
	}
}

func (s *Scheduler) logTelemetry(inFlight int) {
	fields := []interface{}{
		"in_flight", inFlight,
		"goroutines", runtime.NumGoroutine(),
	}
	if vm, err := mem.VirtualMemory(); err == nil {
		fields = append(fields, "mem_used_pct", vm.UsedPercent)
	}
	if avg, err := load.Avg(); err == nil {
		fields = append(fields, "load_1m", avg.Load1)
	}
	s.logger.Infow("scheduler health", fields...)
}
