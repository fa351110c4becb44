package hir

// WalkStmts calls fn for every statement in body, depth first, including
// nested statements. Returning false from fn skips the children.
func WalkStmts(body []*Stmt, fn func(*Stmt) bool) {
	for _, s := range body {
		if s == nil || !fn(s) {
			continue
		}
		switch d := s.Data.(type) {
		case IfData:
			WalkStmts(d.Then, fn)
			WalkStmts(d.Else, fn)
		case WhileData:
			WalkStmts(d.Body, fn)
		case RepeatData:
			WalkStmts(d.Body, fn)
		case ForData:
			WalkStmts(d.Body, fn)
		case CaseData:
			for _, arm := range d.Arms {
				WalkStmts(arm.Body, fn)
			}
			WalkStmts(d.Else, fn)
		}
	}
}
