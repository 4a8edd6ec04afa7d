// Package tracing records what a run does as a trace of nested spans and hands the records
// to processors.
//
// A trace covers one workflow, possibly several runs:
//
//	ctx, tr := tracing.Start(ctx, "Tracing workflow")
//	defer tr.Finish()
//
//	first, err := runner.Run(ctx, agent, runner.Text("Start the task"))
//
// The runner opens agent, generation, function, handoff and guardrail spans under the active
// trace. Without an active trace the runner starts one per run, unless tracing is disabled.
//
// Processors are called synchronously, in registration order. A processor that panics is
// logged and skipped; it never fails the traced work.
package tracing
