package chain

import (
	"fmt"

	"github.com/danielpatrickdp/tolstack/internal/domainerr"
	"github.com/danielpatrickdp/tolstack/internal/feature"
	"github.com/danielpatrickdp/tolstack/internal/gdt"
	"github.com/danielpatrickdp/tolstack/internal/stats"
	"github.com/danielpatrickdp/tolstack/internal/torsor"
)

// #region builder
// Builder resolves stack links into torsor contributors using a set of
// features and the datums among them.
type Builder struct {
	converter *gdt.Converter
	features  map[string]feature.Feature
	datums    map[string]torsor.DatumFeature
}

// NewBuilder indexes features by ID and collects every feature carrying a
// datum label into the datum map.
func NewBuilder(features []feature.Feature, converter *gdt.Converter) *Builder {
	if converter == nil {
		converter = gdt.NewConverter(gdt.DefaultConfig())
	}
	b := &Builder{
		converter: converter,
		features:  make(map[string]feature.Feature, len(features)),
		datums:    make(map[string]torsor.DatumFeature),
	}
	for _, f := range features {
		b.features[f.ID] = f
		if f.DatumLabel == "" {
			continue
		}
		df := torsor.DatumFeature{Label: f.DatumLabel, Class: f.GeometryClass()}
		if f.Geometry != nil {
			axis := f.Geometry.Axis
			df.Position = f.Geometry.Origin
			df.Axis = &axis
		}
		b.datums[f.DatumLabel] = df
	}
	return b
}

// Datums returns the datum map built from the features.
func (b *Builder) Datums() map[string]torsor.DatumFeature { return b.datums }

// Validate rejects a non-positive sigma level and negative link tolerances.
func Validate(links []Link, sigmaLevel float64) error {
	if !(sigmaLevel > 0) {
		return domainerr.WithMetadata(domainerr.CodeInvalidInput,
			"sigma level must be positive", map[string]string{"field": "sigma_level"})
	}
	for i, l := range links {
		if l.PlusTol < 0 || l.MinusTol < 0 {
			return domainerr.WithMetadata(domainerr.CodeInvalidInput,
				fmt.Sprintf("link %s: tolerances must be non-negative (plus %g, minus %g)", l.Name, l.PlusTol, l.MinusTol),
				map[string]string{"field": fmt.Sprintf("contributors[%d]", i)})
		}
	}
	return nil
}

// Build resolves every link. Bounds come from, in order: the link itself,
// the feature's stored bounds, the feature's GD&T controls, or are derived
// from the link tolerance on the DOFs the tolerance applies to.
func (b *Builder) Build(links []Link, sigmaLevel float64) Built {
	out := Built{
		Contributors: make([]torsor.Contributor, 0, len(links)),
		Sources:      make([]BoundsSource, 0, len(links)),
	}
	for _, l := range links {
		c, src, warnings := b.resolve(l, sigmaLevel)
		out.Contributors = append(out.Contributors, c)
		out.Sources = append(out.Sources, src)
		for _, w := range warnings {
			out.Warnings = append(out.Warnings, l.Name+": "+w)
		}
	}
	return out
}

func (b *Builder) resolve(l Link, sigmaLevel float64) (torsor.Contributor, BoundsSource, []string) {
	var warnings []string
	f, found := b.features[l.FeatureID]
	if l.FeatureID != "" && !found {
		warnings = append(warnings, fmt.Sprintf("feature %s not found", l.FeatureID))
	}

	c := torsor.Contributor{
		Name:         l.Name,
		FeatureID:    l.FeatureID,
		Class:        f.GeometryClass(),
		Distribution: l.Distribution,
		SigmaLevel:   sigmaLevel,
	}
	if f.Geometry != nil {
		c.Position = f.Geometry.Origin
	} else {
		warnings = append(warnings, "no 3-D geometry, placed at origin")
	}

	dim := f.PrimaryDimension()
	if c.Distribution == "" && dim != nil {
		c.Distribution = dim.Distribution
	}
	if c.Distribution == "" {
		c.Distribution = stats.DistNormal
	}

	if l.Bounds != nil && l.Bounds.HasAny() {
		c.Bounds = *l.Bounds
		return c, SourceExplicit, warnings
	}

	var computed gdt.Result
	if len(f.Controls) > 0 {
		computed = b.converter.Compute(f, nil)
	}

	if f.Bounds != nil && f.Bounds.HasAny() {
		c.Bounds = *f.Bounds
		if computed.Bounds.HasAny() {
			if msg := gdt.CheckStale(f.Bounds, computed.Bounds, gdt.DefaultStaleEpsilon); msg != "" {
				warnings = append(warnings, msg)
			}
		}
		return c, SourceStored, warnings
	}

	if computed.Bounds.HasAny() {
		c.Bounds = computed.Bounds
		return c, SourceGdt, append(warnings, computed.Warnings...)
	}

	plus, minus := l.PlusTol, l.MinusTol
	if plus == 0 && minus == 0 && dim != nil {
		plus, minus = dim.PlusTol, dim.MinusTol
	}
	var refs []string
	if len(f.Controls) > 0 {
		refs = f.Controls[0].DatumRefs
	}
	c.Bounds = DerivedBounds((plus+minus)/2, torsor.ToleranceDOF(refs, b.datums, c.Class))
	return c, SourceDerived, warnings
}

// #endregion builder

// DerivedBounds applies ±half to each translational DOF in dofs and
// ±half/DerivedReferenceLength to each rotational one.
func DerivedBounds(half float64, dofs []feature.DOF) feature.TorsorBounds {
	var b feature.TorsorBounds
	for _, d := range dofs {
		if d.Rotational() {
			b.Set(d, feature.Symmetric(half/DerivedReferenceLength))
		} else {
			b.Set(d, feature.Symmetric(half))
		}
	}
	return b
}
