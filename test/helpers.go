package test

import (
	"math"
	"reflect"
	"testing"
)

// MustBe uses reflect.DeepEqual to assert that thing1 and thing2 are equal, and
// fails otherwise.
func MustBe(t *testing.T, thing1, thing2 interface{}, context ...string) {
	var ctx string
	if len(context) == 0 {
		ctx = ""
	} else {
		ctx = context[0] + ": "
	}
	if !reflect.DeepEqual(thing1, thing2) {
		t.Fatalf("%v'%#v' != '%#v'", ctx, thing1, thing2)
	}
}

// ErrNil asserts that the err is nil and fails otherwise.
func ErrNil(t *testing.T, err error, ctx string) {
	if err != nil {
		t.Fatalf("%v: %v", ctx, err)
	}
}

// Near asserts that got is within tol of want. NaN is near NaN.
func Near(t *testing.T, got, want, tol float64, context ...string) {
	t.Helper()
	var ctx string
	if len(context) > 0 {
		ctx = context[0] + ": "
	}
	if math.IsNaN(want) && math.IsNaN(got) {
		return
	}
	if math.IsNaN(got) || math.IsNaN(want) || math.Abs(got-want) > tol {
		t.Fatalf("%v%v not within %v of %v", ctx, got, tol, want)
	}
}

// FloatsNear asserts that got and want are the same length and elementwise
// within tol, treating NaN as equal to NaN.
func FloatsNear(t *testing.T, got, want []float64, tol float64, context ...string) {
	t.Helper()
	var ctx string
	if len(context) > 0 {
		ctx = context[0] + ": "
	}
	if len(got) != len(want) {
		t.Fatalf("%vlen %d != %d (%v vs %v)", ctx, len(got), len(want), got, want)
	}
	for i := range got {
		if math.IsNaN(got[i]) && math.IsNaN(want[i]) {
			continue
		}
		if math.IsNaN(got[i]) || math.IsNaN(want[i]) || math.Abs(got[i]-want[i]) > tol {
			t.Fatalf("%vindex %d: %v not within %v of %v", ctx, i, got[i], tol, want[i])
		}
	}
}
