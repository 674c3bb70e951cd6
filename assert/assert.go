// Package assert provides the minimal test assertions used across the
// repo's _test files.
package assert

import (
	"reflect"
	"testing"
)

// Equal fails the test when expected and actual differ.
func Equal(t *testing.T, expected, actual any, label string) {
	t.Helper()
	if !reflect.DeepEqual(expected, actual) {
		t.Errorf("%s: expected %v, got %v", label, expected, actual)
	}
}

// True fails the test when cond is false.
func True(t *testing.T, cond bool, label string) {
	t.Helper()
	if !cond {
		t.Errorf("%s: expected true", label)
	}
}

// False fails the test when cond is true.
func False(t *testing.T, cond bool, label string) {
	t.Helper()
	if cond {
		t.Errorf("%s: expected false", label)
	}
}

// Nil fails the test when v is a non-nil value.
func Nil(t *testing.T, v any, label string) {
	t.Helper()
	if v == nil {
		return
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Ptr, reflect.Slice, reflect.Map, reflect.Chan, reflect.Func, reflect.Interface:
		if rv.IsNil() {
			return
		}
	}
	t.Errorf("%s: expected nil, got %v", label, v)
}
