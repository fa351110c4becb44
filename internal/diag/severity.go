package diag

// Severity ranks a compiler diagnostic. Only SevError stops a unit from
// being written as .bcu or run.
type Severity uint8

const (
	// SevInfo carries notes such as "first declared here".
	SevInfo Severity = iota
	// SevWarning is reported but never fails a build.
	SevWarning
	SevError
)

// String returns the label diagfmt prints after the position, e.g. ERROR.
func (s Severity) String() string {
	switch s {
	case SevInfo:
		return "INFO"
	case SevWarning:
		return "WARNING"
	case SevError:
		return "ERROR"
	}
	return "UNKNOWN"
}
