package gdt

import "github.com/danielpatrickdp/tolstack/internal/feature"

// #region config
// DefaultCharacteristicLength (mm) converts a linear orientation tolerance
// into an angle when the feature geometry carries no length. It directly
// scales every angular bound derived that way, so a warning is emitted each
// time it is used.
const DefaultCharacteristicLength = 10.0

// DefaultStaleEpsilon is the tolerance CheckStale uses to compare bounds.
const DefaultStaleEpsilon = 1e-9

// Config holds converter defaults.
type Config struct {
	CharacteristicLength float64
}

// DefaultConfig returns the converter defaults.
func DefaultConfig() Config {
	return Config{CharacteristicLength: DefaultCharacteristicLength}
}

// #endregion config

// #region result
// Result is the outcome of converting one control or one feature.
type Result struct {
	Bounds   feature.TorsorBounds
	Warnings []string
	HasBonus bool
}

// merge combines two results with the widened-union rule.
func merge(a, b Result) Result {
	return Result{
		Bounds:   feature.MergeBounds(a.Bounds, b.Bounds),
		Warnings: append(append([]string(nil), a.Warnings...), b.Warnings...),
		HasBonus: a.HasBonus || b.HasBonus,
	}
}

// #endregion result
