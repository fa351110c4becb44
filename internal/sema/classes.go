package sema

import (
	"fmt"

	"blaise/internal/ast"
	"blaise/internal/diag"
	"blaise/internal/layout"
	"blaise/internal/symbols"
	"blaise/internal/types"
)

type classDecl struct {
	id       types.TypeID
	sym      symbols.SymbolID
	name     ast.Ident
	node     *ast.ClassType
	scope    symbols.ScopeID
	exported bool
}

// registerClasses publishes every class name of a declaration list before
// any member is resolved, so classes may refer to each other in any order.
func (b *Binder) registerClasses(decls []ast.Decl, exported bool) {
	for _, d := range decls {
		td, ok := d.(*ast.TypeDecl)
		if !ok {
			continue
		}
		ct, ok := td.Type.(*ast.ClassType)
		if !ok {
			continue
		}
		if prev := b.table.LookupLocal(b.unitScope, td.Name.Name); len(prev) > 0 {
			other := b.table.Get(prev[0])
			b.errorNote(diag.SemaDuplicateType, td.Name.Span, fmt.Sprintf("type %s is already declared", td.Name.Text), other.Span, "previous declaration")
			continue
		}
		id := b.in.NewClass(types.ClassKey{Module: b.module, Name: td.Name.Name})
		sym := b.MakeTypeID(b.unitScope, td.Name, id, exported)
		b.mod.Classes = append(b.mod.Classes, id)
		b.classes = append(b.classes, &classDecl{
			id:       id,
			sym:      sym,
			name:     td.Name,
			node:     ct,
			scope:    b.table.NewChild(symbols.ScopeClass, b.unitScope, sym, ct.Span),
			exported: exported,
		})
	}
}

// layoutClasses resolves class members and runs the layout engine.
func (b *Binder) layoutClasses() {
	order := make([]types.TypeID, 0, len(b.classes))
	for _, c := range b.classes {
		b.layout.Declare(b.classMembers(c))
		order = append(order, c.id)
	}
	for _, err := range b.layout.LayoutAll(order) {
		b.reportLayout(err)
	}
}

func (b *Binder) classMembers(c *classDecl) *layout.ClassDecl {
	decl := &layout.ClassDecl{ID: c.id, Span: c.name.Span}
	if base := c.node.Base; base != nil {
		decl.BaseName = base.Name.Text
		decl.Span = base.Span
		if sym := b.lookupTypeName(base); sym != nil {
			decl.Base = sym.Type
		}
	}
	for _, m := range c.node.Members {
		if m.Field != nil {
			typ := b.resolveType(m.Field.Type)
			if typ == types.NoTypeID {
				continue
			}
			for _, name := range m.Field.Names {
				if b.MakeField(c.scope, c.id, name, typ).IsValid() {
					decl.Fields = append(decl.Fields, layout.FieldSpec{Name: name.Name, Type: typ, Span: name.Span})
				}
			}
			continue
		}
		h := m.Method
		sig, ok := b.resolveSignature(h.Params, h.Result)
		if !ok {
			continue
		}
		id := b.MakeMethod(c.scope, c.id, h, sig)
		if !id.IsValid() {
			continue
		}
		sym := b.table.Get(id)
		decl.Methods = append(decl.Methods, layout.MethodSpec{
			Name:     h.Name.Name,
			Kind:     methodKind(h.Kind),
			Sig:      sig,
			Virtual:  h.Directives&ast.DirVirtual != 0,
			Override: h.Directives&ast.DirOverride != 0,
			Routine:  types.RoutineRef{Module: b.module, Index: sym.Routine},
			Span:     h.Name.Span,
		})
	}
	return decl
}

func methodKind(k ast.RoutineKind) types.MethodKind {
	switch k {
	case ast.RoutineFunction:
		return types.MethodFunction
	case ast.RoutineConstructor:
		return types.MethodConstructor
	default:
		return types.MethodProcedure
	}
}

func (b *Binder) reportLayout(err *layout.LayoutError) {
	var code diag.Code
	switch err.Kind {
	case layout.LayoutErrUnknownBase:
		code = diag.SemaUnknownBase
	case layout.LayoutErrCyclicInheritance:
		code = diag.SemaCyclicInheritance
	case layout.LayoutErrBadOverride:
		code = diag.SemaBadOverride
	default:
		code = diag.SemaDuplicateSymbol
	}
	diag.ReportError(b.reporter, code, err.Span, err.Error()).Emit()
}

// attachMethods matches qualified implementations ("function Dog.Speak")
// with the method declared in the class body.
func (b *Binder) attachMethods() {
	for _, d := range b.methods {
		h := d.Header
		cls := b.findClass(h.Class.Name)
		if cls == nil {
			b.errorf(diag.SemaNotAClass, h.Class.Span, "%s is not a class declared in this unit", h.Class.Text)
			continue
		}
		sig, ok := b.resolveSignature(h.Params, h.Result)
		if !ok {
			continue
		}
		sel := b.in.SelectorOf(h.Name.Name, sig.Params)
		var target symbols.SymbolID
		for _, id := range b.table.LookupLocal(cls.scope, h.Name.Name) {
			sym := b.table.Get(id)
			if sym.Kind == symbols.SymbolMethod && b.in.SelectorOf(sym.Name, sym.Sig.Params) == sel {
				target = id
				break
			}
		}
		if !target.IsValid() {
			b.errorf(diag.SemaUnknownMember, h.Name.Span, "class %s declares no method %s", cls.name.Text, sel)
			continue
		}
		sym := b.table.Get(target)
		if !sym.Has(symbols.SymbolFlagForward) {
			b.errorf(diag.SemaDuplicateSymbol, h.Name.Span, "%s.%s is implemented twice", cls.name.Text, sel)
			continue
		}
		if sym.Sig.Result != sig.Result || methodKind(h.Kind) != b.declaredKind(cls, sym) {
			b.errorNote(diag.SemaTypeMismatch, h.Span, fmt.Sprintf("%s.%s does not match its declaration", cls.name.Text, h.Name.Text), sym.Span, "declared here")
			continue
		}
		if d.Body == nil {
			b.errorf(diag.SemaMissingBody, h.Name.Span, "%s.%s needs a body", cls.name.Text, h.Name.Text)
			continue
		}
		if h.Directives != 0 {
			b.errorf(diag.SemaBadOverride, h.Name.Span, "directives belong to the declaration inside the class")
		}
		sym.Flags &^= symbols.SymbolFlagForward
		b.queueBody(b.mod.Routines[sym.Routine], d, target, cls.id, sig)
	}
}

func (b *Binder) declaredKind(cls *classDecl, sym *symbols.Symbol) types.MethodKind {
	info, _ := b.in.ClassInfo(cls.id)
	sel := b.in.SelectorOf(sym.Name, sym.Sig.Params)
	for _, m := range info.Methods {
		if m.Selector == sel {
			return m.Kind
		}
	}
	return 0
}

func (b *Binder) findClass(name string) *classDecl {
	for _, c := range b.classes {
		if c.name.Name == name {
			return c
		}
	}
	return nil
}
