// Copyright (C) 2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package module

// MaxTasks bounds the local task table (spec §5's "tasks per module
// (default 8)").
const MaxTasks = 8

// Task is one opaque local work unit (spec §1: "the spec treats the
// local task set as opaque work units"). RequiredCapabilities is
// matched against the module's own capability mask; Run executes the
// task for its budget and returns, never blocking.
type Task struct {
	RequiredCapabilities uint16
	Run                  func(budgetUS uint32)

	// DeadlineUS is the task's next deadline, 0 if the task carries no
	// deadline. The tick loop's slack computation (spec §4.7 step 6)
	// only considers tasks with a nonzero deadline.
	DeadlineUS uint64

	// RunCount and LastRunUS are runtime counters updated after every
	// execution (spec §4.7 step 8).
	RunCount  uint64
	LastRunUS uint64
}

// taskTable is the module's fixed-size local task table.
type taskTable struct {
	tasks [MaxTasks]Task
	count int
}

// Add appends t to the table, returning its index, or false if the
// table is full.
func (tt *taskTable) Add(t Task) (int, bool) {
	if tt.count >= MaxTasks {
		return 0, false
	}
	idx := tt.count
	tt.tasks[idx] = t
	tt.count++
	return idx, true
}

// Select applies the default task-selection rule of spec §4.7 step 7:
// among tasks whose RequiredCapabilities is a subset of capabilities,
// pick the one whose gradient (gradientFor, called with the task's
// index) is the largest positive value; ties break on ascending task index. Returns
// -1 if no task qualifies.
func (tt *taskTable) Select(capabilities uint16, gradientFor func(idx int) int32) int {
	best := -1
	var bestGrad int32
	for i := 0; i < tt.count; i++ {
		t := &tt.tasks[i]
		if t.RequiredCapabilities&^capabilities != 0 {
			continue // requires a capability bit this module lacks
		}
		g := gradientFor(i)
		if g <= 0 {
			continue
		}
		if best == -1 || g > bestGrad {
			best = i
			bestGrad = g
		}
	}
	return best
}

// Run executes the task at idx for budgetUS and updates its runtime
// counters.
func (tt *taskTable) Run(idx int, budgetUS uint32, nowUS uint64) {
	t := &tt.tasks[idx]
	if t.Run != nil {
		t.Run(budgetUS)
	}
	t.RunCount++
	t.LastRunUS = nowUS
}

// Len reports the number of tasks currently registered.
func (tt *taskTable) Len() int { return tt.count }

// At returns a copy of the task at idx for inspection.
func (tt *taskTable) At(idx int) Task { return tt.tasks[idx] }

// MinSlackUS returns the smallest (deadline - nowUS) across every
// deadline-carrying task, and whether any such task exists (spec §4.7
// step 6: "compute slack for deadline-carrying tasks"). A task whose
// deadline has already passed contributes zero, not a negative value.
func (tt *taskTable) MinSlackUS(nowUS uint64) (slackUS uint64, ok bool) {
	for i := 0; i < tt.count; i++ {
		d := tt.tasks[i].DeadlineUS
		if d == 0 {
			continue
		}
		var remaining uint64
		if d > nowUS {
			remaining = d - nowUS
		}
		if !ok || remaining < slackUS {
			slackUS = remaining
			ok = true
		}
	}
	return slackUS, ok
}
