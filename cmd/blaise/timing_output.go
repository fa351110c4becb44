package main

import (
	"fmt"
	"io"
	"time"

	"blaise/internal/buildpipeline"
	"blaise/internal/vm"
)

func printStageTimings(out io.Writer, timings buildpipeline.Timings, includeRun bool) {
	if out == nil {
		return
	}
	if timings.Has(buildpipeline.StageParse) {
		fmt.Fprintf(out, "parsed %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageParse)))
	}
	if timings.Has(buildpipeline.StageBind) {
		fmt.Fprintf(out, "bound %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageBind)))
	}
	if timings.Has(buildpipeline.StageLoad) {
		fmt.Fprintf(out, "loaded %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageLoad)))
	}
	if timings.Has(buildpipeline.StageLower) || timings.Has(buildpipeline.StagePersist) || timings.Has(buildpipeline.StageLink) {
		built := timings.Sum(buildpipeline.StageLower, buildpipeline.StagePersist, buildpipeline.StageLink)
		fmt.Fprintf(out, "built %.1f ms\n", toMillis(built))
	}
	if includeRun && timings.Has(buildpipeline.StageRun) {
		fmt.Fprintf(out, "ran %.1f ms\n", toMillis(timings.Duration(buildpipeline.StageRun)))
	}
}

func printHeapStats(out io.Writer, stats vm.HeapStats) {
	fmt.Fprintf(out, "heap %d live (%d words), %d allocs, %d frees, %d collections\n",
		stats.Live, stats.LiveWords, stats.Allocs, stats.Frees, stats.Collections)
}

func toMillis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
