package dag

type visitState uint8

const (
	unvisited visitState = iota
	inProgress
	done
)

// FindCycle runs a depth-first walk with a visited/in-progress/done marker
// per module and returns the first import chain that closes on itself, the
// repeated module included at both ends. It returns nil for acyclic graphs.
func FindCycle(g Graph) []ModuleID {
	state := make([]visitState, len(g.Edges))
	var stack []ModuleID
	var found []ModuleID

	var visit func(id ModuleID) bool
	visit = func(id ModuleID) bool {
		state[id] = inProgress
		stack = append(stack, id)
		for _, to := range g.Edges[id] {
			if !g.Present[to] {
				continue
			}
			switch state[to] {
			case inProgress:
				for i, s := range stack {
					if s == to {
						found = append(append(found, stack[i:]...), to)
						break
					}
				}
				return true
			case unvisited:
				if visit(to) {
					return true
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[id] = done
		return false
	}

	for i := range g.Edges {
		id := ModuleID(i)
		if g.Present[i] && state[id] == unvisited && visit(id) {
			return found
		}
	}
	return nil
}
