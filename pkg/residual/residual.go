//
//  Copyright © Manetu Inc. All rights reserved.
//

// Package residual implements the four-valued residual algebra (spec
// component C1): the data model partial evaluation produces, and the
// merge/combine/negate operations that compose it.
//
// A [Residual] maps paths to ordered lists of atomic constraints, plus
// two reserved slots: cross-key constraints (relational constraints
// between two document paths) and complex markers (symbolic reasoning
// suspended at a subexpression). The empty residual denotes satisfied.
// Go's nil *Residual is the legacy "nothing/null-like" sentinel for
// contradicted; callers should prefer constructing a residual whose
// constraint list begins with a [Conflict] marker instead — see
// [IsContradicted] for why both representations are recognized.
package residual

import "github.com/manetu/polix/pkg/ast"

// ConflictInfo records the witness value that refuted a constraint.
type ConflictInfo struct {
	Witness interface{}
}

// Constraint is an atomic (op, value) pair. Value is a literal, a set of
// literals, a pattern, or an [ast.Path] for the cross-key case.
type Constraint struct {
	Op    string
	Value interface{}
}

// Atom is one entry in a path's constraint list: a constraint, optionally
// wrapped as a refuted conflict recording the offending document value.
type Atom struct {
	Constraint Constraint
	Conflict   *ConflictInfo // non-nil marks this atom as conflict(inner, witness)
}

// IsConflict reports whether this atom is a conflict marker.
func (a Atom) IsConflict() bool { return a.Conflict != nil }

// CrossKeyConstraint is a relational constraint between two paths of the
// same document, not reducible to a single path's constraint list.
type CrossKeyConstraint struct {
	Left  ast.Path
	Op    string
	Right ast.Path
}

// ComplexMarker annotates a subexpression where symbolic reasoning was
// suspended. Subtree carries whatever the suspending component needs to
// preserve — typically the original AST node or nested residuals (e.g.
// the two branches of an undecidable OR).
type ComplexMarker struct {
	Reason  string
	Subtree interface{}
}

type pathEntry struct {
	path  ast.Path
	atoms []Atom
}

// Residual is the remainder of a policy after partial evaluation against
// a (possibly incomplete) document. The zero value is not valid; use
// [Empty] to construct the satisfied residual.
type Residual struct {
	paths     []pathEntry
	crossKey  []CrossKeyConstraint
	complexes []ComplexMarker
}

// Empty returns the satisfied residual (no constraints, no cross-key
// relations, no complex markers).
func Empty() *Residual {
	return &Residual{}
}

// IsEmpty reports whether r carries no constraints, cross-key relations,
// or complex markers. A nil *Residual is not considered empty — it is the
// legacy contradiction sentinel; use [IsSatisfied] for the combined check.
func (r *Residual) IsEmpty() bool {
	return r != nil && len(r.paths) == 0 && len(r.crossKey) == 0 && len(r.complexes) == 0
}

// HasConflicts reports whether any path carries a conflict-marked atom.
func (r *Residual) HasConflicts() bool {
	if r == nil {
		return false
	}
	for _, pe := range r.paths {
		for _, a := range pe.atoms {
			if a.IsConflict() {
				return true
			}
		}
	}
	return false
}

// Complexes returns the complex markers attached to this residual.
func (r *Residual) Complexes() []ComplexMarker {
	if r == nil {
		return nil
	}
	return r.complexes
}

// CrossKey returns the cross-key constraints attached to this residual.
func (r *Residual) CrossKey() []CrossKeyConstraint {
	if r == nil {
		return nil
	}
	return r.crossKey
}

// Paths returns the set of paths this residual carries constraints for,
// in insertion order.
func (r *Residual) Paths() []ast.Path {
	if r == nil {
		return nil
	}
	out := make([]ast.Path, len(r.paths))
	for i, pe := range r.paths {
		out[i] = pe.path
	}
	return out
}

// At returns the ordered atom list for path, and whether the path is present.
func (r *Residual) At(path ast.Path) ([]Atom, bool) {
	if r == nil {
		return nil, false
	}
	for _, pe := range r.paths {
		if pe.path.Equal(path) {
			return pe.atoms, true
		}
	}
	return nil, false
}

// AddConstraint appends an atom to path's constraint list, creating the
// path entry if absent. Returns r for chaining.
func (r *Residual) AddConstraint(path ast.Path, atom Atom) *Residual {
	for i, pe := range r.paths {
		if pe.path.Equal(path) {
			r.paths[i].atoms = append(r.paths[i].atoms, atom)
			return r
		}
	}
	r.paths = append(r.paths, pathEntry{path: path.Clone(), atoms: []Atom{atom}})
	return r
}

// AddCrossKey appends a cross-key relation. Returns r for chaining.
func (r *Residual) AddCrossKey(c CrossKeyConstraint) *Residual {
	r.crossKey = append(r.crossKey, c)
	return r
}

// AddComplex appends a complex marker. Returns r for chaining.
func (r *Residual) AddComplex(c ComplexMarker) *Residual {
	r.complexes = append(r.complexes, c)
	return r
}

// RemovePath returns a copy of r with path's entry dropped entirely.
func (r *Residual) RemovePath(path ast.Path) *Residual {
	out := &Residual{crossKey: append([]CrossKeyConstraint{}, r.crossKey...), complexes: append([]ComplexMarker{}, r.complexes...)}
	for _, pe := range r.paths {
		if !pe.path.Equal(path) {
			out.paths = append(out.paths, pe)
		}
	}
	return out
}

// MapConstraints returns a copy of r with f applied to every atom's
// constraint. f may return the same constraint unchanged.
func (r *Residual) MapConstraints(f func(path ast.Path, a Atom) Atom) *Residual {
	out := &Residual{crossKey: append([]CrossKeyConstraint{}, r.crossKey...), complexes: append([]ComplexMarker{}, r.complexes...)}
	for _, pe := range r.paths {
		newAtoms := make([]Atom, len(pe.atoms))
		for i, a := range pe.atoms {
			newAtoms[i] = f(pe.path, a)
		}
		out.paths = append(out.paths, pathEntry{path: pe.path, atoms: newAtoms})
	}
	return out
}

// Conflict builds the conflict marker atom for a refuted constraint attempt.
func Conflict(inner Constraint, witness interface{}) Atom {
	return Atom{Constraint: inner, Conflict: &ConflictInfo{Witness: witness}}
}

// ConflictResidual builds a residual whose constraint list at path begins
// with a conflict marker recording the refuted constraint and witness.
func ConflictResidual(path ast.Path, inner Constraint, witness interface{}) *Residual {
	return Empty().AddConstraint(path, Conflict(inner, witness))
}

// OpenResidual builds a residual with a single open (non-conflict)
// constraint at path — the common shape returned when a document field is
// absent.
func OpenResidual(path ast.Path, c Constraint) *Residual {
	return Empty().AddConstraint(path, Atom{Constraint: c})
}

// ComplexResidual builds a residual carrying a single complex marker and
// no other content.
func ComplexResidual(reason string, subtree interface{}) *Residual {
	return Empty().AddComplex(ComplexMarker{Reason: reason, Subtree: subtree})
}

// CrossKeyResidual builds a residual carrying a single cross-key relation.
func CrossKeyResidual(left ast.Path, op string, right ast.Path) *Residual {
	return Empty().AddCrossKey(CrossKeyConstraint{Left: left, Op: op, Right: right})
}
