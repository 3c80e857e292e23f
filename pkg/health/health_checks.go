package health

import (
	"context"
	"runtime"
	"time"
)

// SimpleCheck always reports healthy; used for process liveness.
func SimpleCheck(name string) CheckFunc {
	return func(context.Context) Check {
		return Check{Name: name, Status: StatusHealthy, LastChecked: time.Now()}
	}
}

// Pinger is satisfied by storage.Store.
type Pinger interface {
	Ping(ctx context.Context) error
}

// StoreCheck reports the store unhealthy when a ping fails.
func StoreCheck(store Pinger) CheckFunc {
	return func(ctx context.Context) Check {
		check := Check{Name: "store"}
		if err := store.Ping(ctx); err != nil {
			check.Status = StatusUnhealthy
			check.Message = err.Error()
			return check
		}
		check.Status = StatusHealthy
		check.Message = "Connected"
		return check
	}
}

// JobsCheck degrades when fewer scheduled jobs are running than expected.
func JobsCheck(running func() int, expected int) CheckFunc {
	return func(context.Context) Check {
		n := running()
		check := Check{
			Name:    "scheduler",
			Details: map[string]any{"running": n, "expected": expected},
		}
		if n < expected {
			check.Status = StatusDegraded
			check.Message = "Some scheduled jobs are not running"
		} else {
			check.Status = StatusHealthy
			check.Message = "Jobs running"
		}
		return check
	}
}

// MemoryCheck degrades when the heap uses more than 90% of memory obtained
// from the OS.
func MemoryCheck(getUsage func() (alloc, sys uint64)) CheckFunc {
	return func(context.Context) Check {
		check := Check{
			Name:    "memory",
			Details: make(map[string]any),
		}

		alloc, sys := getUsage()
		check.Details["allocBytes"] = alloc
		check.Details["sysBytes"] = sys

		if sys > 0 && float64(alloc)/float64(sys)*100 > 90 {
			check.Status = StatusDegraded
			check.Message = "High memory usage"
		} else {
			check.Status = StatusHealthy
			check.Message = "Memory usage normal"
		}
		return check
	}
}

// RuntimeMemory reads heap usage from the Go runtime.
func RuntimeMemory() (alloc, sys uint64) {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return m.Alloc, m.Sys
}
