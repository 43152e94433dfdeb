//
//  Copyright © Manetu Inc. All rights reserved.
//

package residual

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/manetu/polix/pkg/ast"
)

func openAt(seg string, v interface{}) *Residual {
	return OpenResidual(ast.Path{seg}, Constraint{Op: "=", Value: v})
}

func conflictAt(seg string, v interface{}) *Residual {
	return ConflictResidual(ast.Path{seg}, Constraint{Op: "=", Value: v}, "witness")
}

func TestClassifySatisfiedOpenConflictComplexContradiction(t *testing.T) {
	assert.Equal(t, Satisfied, Classify(Empty()))
	assert.Equal(t, Contradiction, Classify(nil))
	assert.Equal(t, Open, Classify(openAt("a", 1)))
	assert.Equal(t, Conflict, Classify(conflictAt("a", 1)))
	assert.Equal(t, Complex, Classify(ComplexResidual("r", nil)))
}

func TestMergeContradictionDominates(t *testing.T) {
	open := openAt("a", 1)
	assert.Nil(t, Merge(nil, open))
	assert.Nil(t, Merge(open, nil))

	c := conflictAt("a", 1)
	assert.True(t, IsContradicted(Merge(c, open)))
	assert.True(t, IsContradicted(Merge(open, c)))
}

func TestMergeIsCommutativeModuloOrder(t *testing.T) {
	a := openAt("a", 1)
	b := openAt("b", 2)

	ab := Merge(a, b)
	ba := Merge(b, a)

	assert.ElementsMatch(t, ToConstraints(ab), ToConstraints(ba))
}

func TestMergeIsAssociative(t *testing.T) {
	a := openAt("a", 1)
	b := openAt("b", 2)
	c := openAt("c", 3)

	left := Merge(Merge(a, b), c)
	right := Merge(a, Merge(b, c))

	assert.ElementsMatch(t, ToConstraints(left), ToConstraints(right))
}

func TestMergeAllShortCircuitsOnContradiction(t *testing.T) {
	a := openAt("a", 1)
	bad := conflictAt("b", 2)
	c := openAt("c", 3)

	got := MergeAll(a, bad, c)
	assert.True(t, IsContradicted(got))
}

func TestCombineSatisfiedDominates(t *testing.T) {
	open := openAt("a", 1)
	assert.True(t, IsSatisfied(Combine(Empty(), open)))
	assert.True(t, IsSatisfied(Combine(open, Empty())))
}

func TestCombineOfTwoContradictionsIsComplexNotContradiction(t *testing.T) {
	left := conflictAt("a", 1)
	right := conflictAt("b", 2)

	got := Combine(left, right)

	assert.Equal(t, Complex, Classify(got))
	assert.False(t, IsContradicted(got))
}

func TestCombineOfTwoOpenResidualsIsComplex(t *testing.T) {
	got := Combine(openAt("a", 1), openAt("b", 2))
	assert.Equal(t, Complex, Classify(got))
}

func TestNegateSatisfiedIsComplex(t *testing.T) {
	got := Negate(Empty())
	assert.Equal(t, Complex, Classify(got))
}

func TestNegatePureContradictionIsSatisfied(t *testing.T) {
	got := Negate(conflictAt("a", 1))
	assert.True(t, IsSatisfied(got))
}

func TestNegateNilIsSatisfied(t *testing.T) {
	assert.True(t, IsSatisfied(Negate(nil)))
}

func TestNegateOpenIsComplex(t *testing.T) {
	got := Negate(openAt("a", 1))
	assert.Equal(t, Complex, Classify(got))
}

func TestNegateMixedConflictAndOpenIsComplex(t *testing.T) {
	mixed := Merge(openAt("a", 1), conflictAt("b", 2))
	// Merge short-circuits to the contradiction (conflictAt) since it
	// dominates, so build the mixed shape directly instead.
	r := Empty()
	r.AddConstraint(ast.Path{"a"}, Atom{Constraint: Constraint{Op: "=", Value: 1}})
	r.AddConstraint(ast.Path{"b"}, Conflict(Constraint{Op: "=", Value: 2}, "w"))

	assert.True(t, IsContradicted(mixed))
	assert.Equal(t, Complex, Classify(Negate(r)))
}

func TestConstraintsRoundTrip(t *testing.T) {
	original := Empty()
	original.AddConstraint(ast.Path{"a"}, Atom{Constraint: Constraint{Op: "=", Value: 1}})
	original.AddConstraint(ast.Path{"a"}, Atom{Constraint: Constraint{Op: "<", Value: 10}})
	original.AddConstraint(ast.Path{"b"}, Atom{Constraint: Constraint{Op: ">", Value: 2}})

	flattened := ToConstraints(original)
	rebuilt := FromConstraints(flattened)

	assert.Equal(t, flattened, ToConstraints(rebuilt))
}

func TestToConstraintsOfNilIsNil(t *testing.T) {
	assert.Nil(t, ToConstraints(nil))
}

func TestFromConstraintsOfEmptyIsSatisfied(t *testing.T) {
	assert.True(t, IsSatisfied(FromConstraints(nil)))
}
