package feature

import (
	"encoding/json"
	"fmt"
	"math"
)

// #region bound
// Between returns a present bound. The endpoints are ordered so that
// min <= max always holds.
func Between(min, max float64) Bound {
	if min > max {
		min, max = max, min
	}
	return Bound{min: min, max: max, ok: true}
}

// Symmetric returns the present bound [-half, +half].
func Symmetric(half float64) Bound {
	return Between(-half, half)
}

// Present reports whether the bound constrains its DOF.
func (b Bound) Present() bool { return b.ok }

// Get returns the endpoints and whether the bound is present.
func (b Bound) Get() (min, max float64, ok bool) { return b.min, b.max, b.ok }

// OrZero returns the endpoints, treating an absent bound as [0, 0].
func (b Bound) OrZero() (min, max float64) {
	if !b.ok {
		return 0, 0
	}
	return b.min, b.max
}

// Center returns the midpoint, 0 when absent.
func (b Bound) Center() float64 {
	lo, hi := b.OrZero()
	return (lo + hi) / 2
}

// Width returns max - min, 0 when absent.
func (b Bound) Width() float64 {
	lo, hi := b.OrZero()
	return hi - lo
}

// Widen returns the union of two bounds. A present bound dominates an
// absent one.
func (b Bound) Widen(o Bound) Bound {
	switch {
	case !b.ok:
		return o
	case !o.ok:
		return b
	}
	return Bound{min: math.Min(b.min, o.min), max: math.Max(b.max, o.max), ok: true}
}

// String formats the bound for warnings.
func (b Bound) String() string {
	if !b.ok {
		return "none"
	}
	return fmt.Sprintf("[%.6g, %.6g]", b.min, b.max)
}

// MarshalJSON encodes an absent bound as null and a present one as [min,max].
func (b Bound) MarshalJSON() ([]byte, error) {
	if !b.ok {
		return []byte("null"), nil
	}
	return json.Marshal([2]float64{b.min, b.max})
}

// UnmarshalJSON is the inverse of MarshalJSON.
func (b *Bound) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*b = Bound{}
		return nil
	}
	var pair [2]float64
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("decode bound: %w", err)
	}
	*b = Between(pair[0], pair[1])
	return nil
}

// #endregion bound

// #region torsor-bounds
// Set stores a present bound for one DOF.
func (t *TorsorBounds) Set(d DOF, b Bound) { t[d] = b }

// HasAny reports whether at least one DOF is bounded.
func (t TorsorBounds) HasAny() bool {
	for _, b := range t {
		if b.ok {
			return true
		}
	}
	return false
}

// Populated lists the bounded DOFs in index order.
func (t TorsorBounds) Populated() []DOF {
	var out []DOF
	for _, d := range AllDOF {
		if t[d].ok {
			out = append(out, d)
		}
	}
	return out
}

// MergeBounds is the widened union of a and b, per DOF. It is commutative,
// associative and idempotent, and the empty TorsorBounds is its identity.
func MergeBounds(a, b TorsorBounds) TorsorBounds {
	var out TorsorBounds
	for i := range out {
		out[i] = a[i].Widen(b[i])
	}
	return out
}

// MergeAll folds MergeBounds over all inputs.
func MergeAll(all ...TorsorBounds) TorsorBounds {
	var acc TorsorBounds
	for _, b := range all {
		acc = MergeBounds(acc, b)
	}
	return acc
}

// ApproxEqual compares two bound sets within eps. Presence must match.
func ApproxEqual(a, b TorsorBounds, eps float64) bool {
	for i := range a {
		if !boundApproxEqual(a[i], b[i], eps) {
			return false
		}
	}
	return true
}

func boundApproxEqual(a, b Bound, eps float64) bool {
	if a.ok != b.ok {
		return false
	}
	if !a.ok {
		return true
	}
	return math.Abs(a.min-b.min) <= eps && math.Abs(a.max-b.max) <= eps
}

// #endregion torsor-bounds
