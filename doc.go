// Package acp implements an adaptive concurrent task scheduler.
//
// Callers submit prioritized tasks and register resources with a capacity.
// A fixed pool of workers dequeues the most urgent task, allocates a slot on
// the first live resource with spare capacity, runs the task and releases the
// slot. Tasks that find no resource go back to the queue. Metrics track
// completions, failures, the average execution time and per-resource
// utilization.
//
// Typical use:
//
//	srv, err := acp.New()
//	_ = srv.RegisterResource("R1", 2, "general")
//	_ = srv.Start(ctx)
//	_ = srv.SubmitTask(ctx, "T1", task.Func(fn), task.Args{"n": 1}, 0)
//	finished, err := srv.Wait(ctx, "T1", time.Second)
//	_ = srv.Shutdown(ctx)
package acp
