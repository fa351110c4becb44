package symbols

import "blaise/internal/source"

func sp() source.Span { return source.Span{File: 1} }
