package buildpipeline

import (
	"fmt"

	"blaise/internal/driver"
	"blaise/internal/hir"
)

// ValidateEntrypoint ensures the entry file is a program. A unit compiles
// but has no main block to run.
func ValidateEntrypoint(res *driver.Result) error {
	if res == nil {
		return fmt.Errorf("missing compilation result")
	}
	entry := res.Entry()
	if entry == nil {
		return fmt.Errorf("no compiled entry module")
	}
	if entry.Kind != hir.ModuleProgram {
		return fmt.Errorf("%s is a unit, not a program; run the program that uses it", entry.Path)
	}
	return nil
}
