// Package scheduler triggers crawl runs on a fixed interval.
//
// The Scheduler wraps robfig/cron. By default it fires every 168h (seven
// days); a standard cron expression can be configured instead. A run lock
// guarantees that at most one run executes at a time inside the process:
// a trigger that fires while a run is in progress is skipped and logged,
// and so is a manual RunNow.
//
// A failed run is logged together with its stats. The scheduler keeps
// firing on later intervals.
package scheduler
