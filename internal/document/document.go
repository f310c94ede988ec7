package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/danielpatrickdp/tolstack/internal/chain"
	"github.com/danielpatrickdp/tolstack/internal/domainerr"
	"github.com/danielpatrickdp/tolstack/internal/feature"
	"github.com/danielpatrickdp/tolstack/internal/mate"
	"github.com/danielpatrickdp/tolstack/internal/stackup"
	"github.com/danielpatrickdp/tolstack/internal/stats"
)

// #region decode
// Decode parses a YAML (or JSON) document. Unknown fields are rejected.
func Decode(data []byte) (*Document, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc Document
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, invalid("", "empty document")
		}
		return nil, domainerr.Wrap(domainerr.CodeInvalidInput, "decode document", err)
	}
	doc.Kind = Kind(strings.ToLower(strings.TrimSpace(string(doc.Kind))))
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// maxExactSeed is the largest integer a float64 carries without rounding.
const maxExactSeed = 1 << 53

// UnmarshalYAML accepts an unsigned integer, a decimal string, or an
// integral float no larger than 2^53. Larger floats have already lost
// precision and are rejected.
func (s *Seed) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.ScalarNode {
		return fmt.Errorf("line %d: seed must be a scalar", value.Line)
	}
	switch value.ShortTag() {
	case "!!int":
		u, err := strconv.ParseUint(value.Value, 0, 64)
		if err != nil {
			return fmt.Errorf("line %d: seed %q: %w", value.Line, value.Value, err)
		}
		*s = Seed(u)
	case "!!str":
		u, err := strconv.ParseUint(strings.TrimSpace(value.Value), 10, 64)
		if err != nil {
			return fmt.Errorf("line %d: seed %q is not a decimal unsigned integer", value.Line, value.Value)
		}
		*s = Seed(u)
	case "!!float":
		f, err := strconv.ParseFloat(value.Value, 64)
		if err != nil || f < 0 || f != math.Trunc(f) || f > maxExactSeed {
			return fmt.Errorf("line %d: seed %s is not exact; pass it as a decimal string", value.Line, value.Value)
		}
		*s = Seed(f)
	default:
		return fmt.Errorf("line %d: seed must be an integer or a decimal string", value.Line)
	}
	return nil
}

// MarshalJSON writes the seed as a decimal string so it survives JSON
// number handling.
func (s Seed) MarshalJSON() ([]byte, error) {
	return []byte(`"` + strconv.FormatUint(uint64(s), 10) + `"`), nil
}

// Load reads and decodes a document file.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read document %s: %w", path, err)
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return doc, nil
}

// Encode renders the document as YAML.
func (d *Document) Encode() ([]byte, error) {
	out, err := yaml.Marshal(d)
	if err != nil {
		return nil, fmt.Errorf("encode document: %w", err)
	}
	return out, nil
}

// #endregion decode

// #region validate
// Validate checks that the sections Kind needs are present.
func (d *Document) Validate() error {
	switch d.Kind {
	case KindStackup:
		if d.Target == nil {
			return invalid("target", "stackup requires a target")
		}
		if len(d.Contributors) == 0 {
			return invalid("contributors", "stackup requires at least one contributor")
		}
	case KindMate:
		if d.Mate == nil {
			return invalid("mate", "mate document requires a mate section")
		}
	case KindBounds:
		if len(d.Features) == 0 {
			return invalid("features", "bounds document requires at least one feature")
		}
	case KindChain:
		if len(d.Contributors) == 0 {
			return invalid("contributors", "chain requires at least one contributor")
		}
		if len(d.FunctionalDirection) != 0 && len(d.FunctionalDirection) != 3 {
			return invalid("functional_direction", "functional_direction must have 3 components")
		}
	case "":
		return invalid("kind", "document kind is required")
	default:
		return domainerr.WithMetadata(domainerr.CodeUnknownKind,
			fmt.Sprintf("unknown document kind %q", d.Kind), map[string]string{"field": "kind"})
	}
	return nil
}

// #endregion validate

// #region stackup
// ToStackup converts the document into a stack-up and its configuration,
// starting from base.
func (d *Document) ToStackup(base stackup.Config) (stackup.Stackup, stackup.Config, error) {
	cfg := d.overlay(base)
	s := stackup.Stackup{Name: d.Name}
	if d.Target != nil {
		s.Target = stackup.Target{
			Name:       d.Target.Name,
			Nominal:    d.Target.Nominal,
			LowerLimit: d.Target.LowerLimit,
			UpperLimit: d.Target.UpperLimit,
			Units:      d.Target.Units,
			Critical:   d.Target.Critical,
		}
	}

	for i, c := range d.Contributors {
		field := fmt.Sprintf("contributors[%d]", i)
		dist, err := stats.ParseDistribution(c.Distribution)
		if err != nil {
			return stackup.Stackup{}, stackup.Config{}, invalid(field+".distribution", err.Error())
		}
		dir, err := parseDirection(c.Direction)
		if err != nil {
			return stackup.Stackup{}, stackup.Config{}, invalid(field+".direction", err.Error())
		}

		sc := stackup.Contributor{
			Name:      c.Name,
			FeatureID: c.FeatureID,
			Dimension: feature.Dimension{
				Nominal:      c.Nominal,
				PlusTol:      c.PlusTol,
				MinusTol:     c.MinusTol,
				Internal:     c.Internal,
				Distribution: dist,
			},
			Direction:    dir,
			Distribution: dist,
		}
		if c.GdtPosition != nil {
			gp, err := c.GdtPosition.toStackup(sc.Dimension)
			if err != nil {
				return stackup.Stackup{}, stackup.Config{}, invalid(field+".gdt_position.condition", err.Error())
			}
			sc.Gdt = &gp
		}
		s.Contributors = append(s.Contributors, sc)
	}
	return s, cfg, nil
}

func (g GdtPosition) toStackup(dim feature.Dimension) (stackup.GdtPosition, error) {
	cond, err := feature.ParseCondition(g.Condition)
	if err != nil {
		return stackup.GdtPosition{}, err
	}
	gp := stackup.GdtPosition{Tolerance: g.Tolerance, Condition: cond, ActualSize: g.ActualSize}
	switch {
	case g.MaterialLimit != nil:
		gp.MaterialLimit = *g.MaterialLimit
	case cond == feature.ConditionLMC:
		gp.MaterialLimit = dim.LMC()
	default:
		gp.MaterialLimit = dim.MMC()
	}
	return gp, nil
}

func (d *Document) overlay(base stackup.Config) stackup.Config {
	c := d.Config
	if c == nil {
		return base
	}
	if c.SigmaLevel != nil {
		base.SigmaLevel = *c.SigmaLevel
	}
	if c.MeanShiftK != nil {
		base.MeanShiftK = *c.MeanShiftK
	}
	if c.IncludeGdt != nil {
		base.IncludeGdt = *c.IncludeGdt
	}
	if c.Iterations != nil {
		base.Iterations = *c.Iterations
	}
	if c.Workers != nil {
		base.Workers = *c.Workers
	}
	return base
}

func parseDirection(s string) (stackup.Direction, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "positive", "+":
		return stackup.DirPositive, nil
	case "negative", "-":
		return stackup.DirNegative, nil
	default:
		return "", fmt.Errorf("unknown direction %q", s)
	}
}

// #endregion stackup

// #region mate
// ToMate converts the mate section into its two parts. Orientation is left
// to the mate engine.
func (d *Document) ToMate() (a, b mate.Part, err error) {
	if d.Mate == nil {
		return mate.Part{}, mate.Part{}, invalid("mate", "mate section missing")
	}
	if a, err = d.Mate.A.toPart("mate.a"); err != nil {
		return mate.Part{}, mate.Part{}, err
	}
	if b, err = d.Mate.B.toPart("mate.b"); err != nil {
		return mate.Part{}, mate.Part{}, err
	}
	return a, b, nil
}

// ExpectedFit returns the declared fit class, or "" when none is declared.
func (d *Document) ExpectedFit() (mate.FitResult, error) {
	if d.Mate == nil || d.Mate.ExpectedFit == "" {
		return "", nil
	}
	fit := mate.FitResult(strings.ToLower(strings.TrimSpace(d.Mate.ExpectedFit)))
	switch fit {
	case mate.FitClearance, mate.FitInterference, mate.FitTransition:
		return fit, nil
	}
	return "", invalid("mate.expected_fit", fmt.Sprintf("unknown fit %q", d.Mate.ExpectedFit))
}

func (p Part) toPart(field string) (mate.Part, error) {
	dist, err := stats.ParseDistribution(p.Distribution)
	if err != nil {
		return mate.Part{}, invalid(field+".distribution", err.Error())
	}
	return mate.Part{
		Name: p.Name,
		Dimension: feature.Dimension{
			Nominal:      p.Nominal,
			PlusTol:      p.PlusTol,
			MinusTol:     p.MinusTol,
			Internal:     p.Internal,
			Distribution: dist,
		},
	}, nil
}

// #endregion mate

// #region features
// ToFeatures converts every feature in the document.
func (d *Document) ToFeatures() ([]feature.Feature, error) {
	out := make([]feature.Feature, 0, len(d.Features))
	for i, f := range d.Features {
		ff, err := f.ToFeature(fmt.Sprintf("features[%d]", i))
		if err != nil {
			return nil, err
		}
		out = append(out, ff)
	}
	return out, nil
}

// ToFeature converts one feature. field prefixes error paths.
func (f Feature) ToFeature(field string) (feature.Feature, error) {
	class, err := feature.ParseGeometryClass(f.Class)
	if err != nil {
		return feature.Feature{}, invalid(field+".geometry_class", err.Error())
	}
	out := feature.Feature{
		ID:         f.ID,
		Name:       f.Name,
		Class:      class,
		DatumLabel: f.DatumLabel,
	}

	if f.Geometry != nil {
		g := &feature.Geometry3D{Length: f.Geometry.Length}
		if err := fill3(g.Origin[:], f.Geometry.Origin); err != nil {
			return feature.Feature{}, invalid(field+".geometry_3d.origin", err.Error())
		}
		if err := fill3(g.Axis[:], f.Geometry.Axis); err != nil {
			return feature.Feature{}, invalid(field+".geometry_3d.axis", err.Error())
		}
		out.Geometry = g
	}

	for j, dim := range f.Dimensions {
		dist, err := stats.ParseDistribution(dim.Distribution)
		if err != nil {
			return feature.Feature{}, invalid(fmt.Sprintf("%s.dimensions[%d].distribution", field, j), err.Error())
		}
		out.Dimensions = append(out.Dimensions, feature.Dimension{
			Nominal:      dim.Nominal,
			PlusTol:      dim.PlusTol,
			MinusTol:     dim.MinusTol,
			Internal:     dim.Internal,
			Distribution: dist,
		})
	}

	for j, g := range f.Gdt {
		path := fmt.Sprintf("%s.gdt[%d]", field, j)
		sym, err := feature.ParseSymbol(g.Symbol)
		if err != nil {
			return feature.Feature{}, invalid(path+".symbol", err.Error())
		}
		cond, err := feature.ParseCondition(g.Condition)
		if err != nil {
			return feature.Feature{}, invalid(path+".material_condition", err.Error())
		}
		out.Controls = append(out.Controls, feature.GdtControl{
			Symbol:    sym,
			Value:     g.Value,
			Condition: cond,
			DatumRefs: g.DatumRefs,
		})
	}

	if f.TorsorBounds != nil {
		b, err := f.TorsorBounds.ToTorsorBounds(field + ".torsor_bounds")
		if err != nil {
			return feature.Feature{}, err
		}
		out.Bounds = &b
	}
	return out, nil
}

// ToTorsorBounds converts the document form. Each present entry must be a
// [min, max] pair with min <= max.
func (b Bounds) ToTorsorBounds(field string) (feature.TorsorBounds, error) {
	var out feature.TorsorBounds
	entries := [feature.NumDOF][]float64{b.U, b.V, b.W, b.Alpha, b.Beta, b.Gamma}
	for _, d := range feature.AllDOF {
		pair := entries[d]
		switch len(pair) {
		case 0:
		case 2:
			if pair[0] > pair[1] {
				return feature.TorsorBounds{}, invalid(field+"."+d.String(), "min exceeds max")
			}
			out.Set(d, feature.Between(pair[0], pair[1]))
		default:
			return feature.TorsorBounds{}, invalid(field+"."+d.String(), "bound must be a [min, max] pair")
		}
	}
	return out, nil
}

// FromTorsorBounds is the inverse of ToTorsorBounds.
func FromTorsorBounds(tb feature.TorsorBounds) Bounds {
	var entries [feature.NumDOF][]float64
	for _, d := range feature.AllDOF {
		if lo, hi, ok := tb[d].Get(); ok {
			entries[d] = []float64{lo, hi}
		}
	}
	return Bounds{U: entries[0], V: entries[1], W: entries[2], Alpha: entries[3], Beta: entries[4], Gamma: entries[5]}
}

func fill3(dst, src []float64) error {
	switch len(src) {
	case 0:
		return nil
	case 3:
		copy(dst, src)
		return nil
	default:
		return fmt.Errorf("expected 3 components, got %d", len(src))
	}
}

// #endregion features

// #region chain
// ChainInput is everything a 3-D chain run needs.
type ChainInput struct {
	Links      []chain.Link
	Features   []feature.Feature
	Config     chain.Config
	Target     *chain.Target // nil skips the functional projection
	Direction  [3]float64
	SigmaLevel float64
}

// ToChain converts a chain document. base seeds the 3-D config and
// sigmaLevel the default sigma level; document sections override both.
func (d *Document) ToChain(base chain.Config, sigmaLevel float64) (ChainInput, error) {
	features, err := d.ToFeatures()
	if err != nil {
		return ChainInput{}, err
	}

	in := ChainInput{
		Features:   features,
		Config:     base,
		Direction:  [3]float64{1, 0, 0},
		SigmaLevel: sigmaLevel,
	}
	if d.Config != nil && d.Config.SigmaLevel != nil {
		in.SigmaLevel = *d.Config.SigmaLevel
	}
	if a := d.Analysis3D; a != nil {
		if a.Enabled != nil {
			in.Config.Enabled = *a.Enabled
		}
		if a.Method != "" {
			in.Config.Method = a.Method
		}
		if a.Iterations != nil {
			in.Config.Iterations = *a.Iterations
		}
		if a.Workers != nil {
			in.Config.Workers = *a.Workers
		}
	}
	if len(d.FunctionalDirection) == 3 {
		copy(in.Direction[:], d.FunctionalDirection)
	}
	if d.Target != nil {
		in.Target = &chain.Target{Nominal: d.Target.Nominal, LowerLimit: d.Target.LowerLimit, UpperLimit: d.Target.UpperLimit}
	}

	for i, c := range d.Contributors {
		field := fmt.Sprintf("contributors[%d]", i)
		dist := stats.Distribution("")
		if c.Distribution != "" {
			if dist, err = stats.ParseDistribution(c.Distribution); err != nil {
				return ChainInput{}, invalid(field+".distribution", err.Error())
			}
		}
		link := chain.Link{
			Name:         c.Name,
			FeatureID:    c.FeatureID,
			PlusTol:      c.PlusTol,
			MinusTol:     c.MinusTol,
			Distribution: dist,
		}
		if c.TorsorBounds != nil {
			b, err := c.TorsorBounds.ToTorsorBounds(field + ".torsor_bounds")
			if err != nil {
				return ChainInput{}, err
			}
			link.Bounds = &b
		}
		in.Links = append(in.Links, link)
	}
	return in, nil
}

// #endregion chain

func invalid(field, msg string) error {
	meta := map[string]string{}
	if field != "" {
		meta["field"] = field
	}
	return domainerr.WithMetadata(domainerr.CodeInvalidInput, msg, meta)
}
