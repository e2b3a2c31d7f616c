package environ

import (
	"errors"
	"testing"
)

func TestResolve(t *testing.T) {
	env := Empty[int]()
	env.Define("a", 1)
	env.Define("b", 2)

	v, err := env.Resolve("a")
	if err != nil || v != 1 {
		t.Errorf("resolve a: want 1, got %d (%s)", v, err)
	}
	if _, err := env.Resolve("missing"); !errors.Is(err, ErrDefined) {
		t.Errorf("missing identifier should give ErrDefined, got %s", err)
	}
	if !env.Exists("b") || env.Exists("c") {
		t.Errorf("Exists gives wrong answers")
	}
}

func TestEnclosed(t *testing.T) {
	outer := Empty[string]()
	outer.Define("x", "outer")
	outer.Define("y", "only-outer")

	inner := Enclosed(outer)
	inner.Define("x", "inner")

	if v, _ := inner.Resolve("x"); v != "inner" {
		t.Errorf("innermost binding wins: got %s", v)
	}
	if v, _ := inner.Resolve("y"); v != "only-outer" {
		t.Errorf("resolution should walk outward: got %s", v)
	}
	if v, _ := outer.Resolve("x"); v != "outer" {
		t.Errorf("inner scope must not leak: got %s", v)
	}
	if n := inner.Len(); n != 3 {
		t.Errorf("want 3 bindings across scopes, got %d", n)
	}
	names := inner.Names()
	if len(names) != 2 {
		t.Errorf("want deduplicated names, got %v", names)
	}
}
