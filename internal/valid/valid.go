// Package valid implements an accumulating validation result.
//
// A Valid[T] either carries a value or a non-empty, ordered list of causes.
// Independent checks are combined with Zip/Traverse so that every failing
// branch reports; dependent checks are chained with AndThen, which stops at
// the first failure. Nothing in this package panics or aborts.
package valid

import (
	"fmt"
	"strings"
)

// Cause is a single validation failure located by a path of segments,
// outermost first (e.g. ["Query", "foo", "@http"]).
type Cause struct {
	Message string   `json:"message"`
	Trace   []string `json:"trace,omitempty"`
}

func (c Cause) String() string {
	if len(c.Trace) == 0 {
		return c.Message
	}
	return fmt.Sprintf("%s [%s]", c.Message, strings.Join(c.Trace, "."))
}

// ValidationError is the error form of a failed Valid.
type ValidationError []Cause

func (e ValidationError) Error() string {
	msg := "validation failed:\n"
	for _, c := range e {
		msg += "- " + c.String() + "\n"
	}
	return msg
}

// Valid holds either a value or the causes that prevented producing it.
type Valid[T any] struct {
	value  T
	causes []Cause
}

// Unit is the value type for checks that produce nothing.
type Unit struct{}

// Succeed wraps v as a successful result.
func Succeed[T any](v T) Valid[T] {
	return Valid[T]{value: v}
}

// Ok is a successful Unit result.
func Ok() Valid[Unit] {
	return Valid[Unit]{}
}

// Fail returns a failed result with a single untraced cause.
func Fail[T any](message string) Valid[T] {
	return Valid[T]{causes: []Cause{{Message: message}}}
}

// Failf is Fail with formatting.
func Failf[T any](format string, args ...any) Valid[T] {
	return Fail[T](fmt.Sprintf(format, args...))
}

// FromCauses returns a failed result carrying causes, or a zero-valued success
// when causes is empty.
func FromCauses[T any](causes []Cause) Valid[T] {
	if len(causes) == 0 {
		var zero T
		return Succeed(zero)
	}
	return Valid[T]{causes: append([]Cause(nil), causes...)}
}

// FromError converts a Go error into a result. A ValidationError keeps its
// causes; any other error becomes a single cause.
func FromError[T any](v T, err error) Valid[T] {
	if err == nil {
		return Succeed(v)
	}
	if ve, ok := err.(ValidationError); ok {
		return FromCauses[T](ve)
	}
	return Fail[T](err.Error())
}

// IsValid reports whether the result carries a value.
func (v Valid[T]) IsValid() bool {
	return len(v.causes) == 0
}

// Causes returns a copy of the accumulated causes.
func (v Valid[T]) Causes() []Cause {
	return append([]Cause(nil), v.causes...)
}

// Value returns the carried value. It is the zero value on failure.
func (v Valid[T]) Value() T {
	return v.value
}

// Result converts to the (value, error) form.
func (v Valid[T]) Result() (T, error) {
	if len(v.causes) > 0 {
		var zero T
		return zero, ValidationError(v.Causes())
	}
	return v.value, nil
}

// Trace prefixes every cause's path with segments. Calls nest from the inside
// out, so v.Trace("@http").Trace("Query", "foo") yields ["Query","foo","@http"].
func (v Valid[T]) Trace(segments ...string) Valid[T] {
	if len(v.causes) == 0 || len(segments) == 0 {
		return v
	}
	causes := make([]Cause, len(v.causes))
	for i, c := range v.causes {
		trace := make([]string, 0, len(segments)+len(c.Trace))
		trace = append(trace, segments...)
		trace = append(trace, c.Trace...)
		causes[i] = Cause{Message: c.Message, Trace: trace}
	}
	return Valid[T]{causes: causes}
}

// Unit discards the value.
func (v Valid[T]) Unit() Valid[Unit] {
	return Valid[Unit]{causes: v.causes}
}

// Map transforms the value of a successful result.
func Map[A, B any](v Valid[A], f func(A) B) Valid[B] {
	if len(v.causes) > 0 {
		return Valid[B]{causes: v.causes}
	}
	return Succeed(f(v.value))
}

// AndThen sequences a dependent check. f only runs when v succeeded.
func AndThen[A, B any](v Valid[A], f func(A) Valid[B]) Valid[B] {
	if len(v.causes) > 0 {
		return Valid[B]{causes: v.causes}
	}
	return f(v.value)
}

// Pair is the value produced by Zip.
type Pair[A, B any] struct {
	First  A
	Second B
}

// Zip combines two independent results. Both sides always contribute their
// causes, left before right.
func Zip[A, B any](a Valid[A], b Valid[B]) Valid[Pair[A, B]] {
	if len(a.causes) > 0 || len(b.causes) > 0 {
		causes := make([]Cause, 0, len(a.causes)+len(b.causes))
		causes = append(causes, a.causes...)
		causes = append(causes, b.causes...)
		return Valid[Pair[A, B]]{causes: causes}
	}
	return Succeed(Pair[A, B]{First: a.value, Second: b.value})
}

// Triple is the value produced by Zip3.
type Triple[A, B, C any] struct {
	First  A
	Second B
	Third  C
}

// Zip3 is Zip over three independent results.
func Zip3[A, B, C any](a Valid[A], b Valid[B], c Valid[C]) Valid[Triple[A, B, C]] {
	return Map(Zip(Zip(a, b), c), func(p Pair[Pair[A, B], C]) Triple[A, B, C] {
		return Triple[A, B, C]{First: p.First.First, Second: p.First.Second, Third: p.Second}
	})
}

// Keep runs an independent check alongside v and keeps v's value.
func Keep[A, B any](v Valid[A], other Valid[B]) Valid[A] {
	return Map(Zip(v, other), func(p Pair[A, B]) A { return p.First })
}

// Traverse applies f to each item and collects the values in order. Every item
// is checked; causes from all failing items are concatenated in item order.
func Traverse[A, B any](items []A, f func(A) Valid[B]) Valid[[]B] {
	out := make([]B, 0, len(items))
	var causes []Cause
	for _, it := range items {
		r := f(it)
		if len(r.causes) > 0 {
			causes = append(causes, r.causes...)
			continue
		}
		out = append(out, r.value)
	}
	if len(causes) > 0 {
		return Valid[[]B]{causes: causes}
	}
	return Succeed(out)
}

// All merges independent Unit checks.
func All(checks ...Valid[Unit]) Valid[Unit] {
	var causes []Cause
	for _, c := range checks {
		causes = append(causes, c.causes...)
	}
	return FromCauses[Unit](causes)
}

// When returns a failed Unit result carrying message when cond is true.
func When(cond bool, message string) Valid[Unit] {
	if cond {
		return Fail[Unit](message)
	}
	return Ok()
}
