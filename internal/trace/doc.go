// Package trace records where the toolchain spends its time: driver
// operations, compilation passes and per-unit work.
//
// Enable tracing from the command line:
//
//	blaise build --trace=- --trace-level=detail main.pas
//
// Tracers travel through the pipeline in a context:
//
//	ctx = trace.WithTracer(ctx, tracer)
//	span := trace.Begin(trace.FromContext(ctx), trace.ScopePass, "bind", parent)
//	defer span.End("")
package trace
