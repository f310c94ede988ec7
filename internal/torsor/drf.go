package torsor

import "github.com/danielpatrickdp/tolstack/internal/feature"

// #region builders
// WithPrimary adds the primary datum, which constrains three DOFs.
func (d DRF) WithPrimary(df DatumFeature) DRF {
	d.constrain(primaryDOF(df.Class), 3)
	d.Primary = &df
	return d
}

// WithSecondary adds the secondary datum. It constrains at most two DOFs
// that the primary left free.
func (d DRF) WithSecondary(df DatumFeature) DRF {
	d.constrain(secondaryDOF(df.Class), 2)
	d.Secondary = &df
	return d
}

// WithTertiary adds the tertiary datum, which takes the first remaining
// free DOF among its candidates.
func (d DRF) WithTertiary(df DatumFeature) DRF {
	d.constrain(tertiaryDOF(df.Class), 1)
	d.Tertiary = &df
	return d
}

func (d *DRF) constrain(candidates []feature.DOF, limit int) {
	taken := 0
	for _, dof := range candidates {
		if taken == limit {
			return
		}
		if d.constrained[dof] {
			continue
		}
		d.constrained[dof] = true
		taken++
	}
}

// #endregion builders

// #region queries
// IsConstrained reports whether the frame locks dof.
func (d DRF) IsConstrained(dof feature.DOF) bool { return d.constrained[dof] }

// Constrained lists the locked DOFs in index order.
func (d DRF) Constrained() []feature.DOF {
	var out []feature.DOF
	for _, dof := range feature.AllDOF {
		if d.constrained[dof] {
			out = append(out, dof)
		}
	}
	return out
}

// Free lists the DOFs the frame leaves open, in index order.
func (d DRF) Free() []feature.DOF {
	var out []feature.DOF
	for _, dof := range feature.AllDOF {
		if !d.constrained[dof] {
			out = append(out, dof)
		}
	}
	return out
}

// DatumCount is the number of datums placed in the frame.
func (d DRF) DatumCount() int {
	n := 0
	for _, df := range []*DatumFeature{d.Primary, d.Secondary, d.Tertiary} {
		if df != nil {
			n++
		}
	}
	return n
}

// #endregion queries

// #region build
// BuildDRF places datums in reference order (primary, secondary, tertiary).
// Labels missing from datums and references past the third are ignored;
// a missing label still consumes its precedence slot.
func BuildDRF(refs []string, datums map[string]DatumFeature) DRF {
	var d DRF
	for i, label := range refs {
		df, ok := datums[label]
		if !ok {
			continue
		}
		switch i {
		case 0:
			d = d.WithPrimary(df)
		case 1:
			d = d.WithSecondary(df)
		case 2:
			d = d.WithTertiary(df)
		}
	}
	return d
}

// ToleranceDOF lists the DOFs a tolerance limits: those left free by the
// datum frame that the feature's class can deviate in. Without datum
// references every class DOF applies.
func ToleranceDOF(refs []string, datums map[string]DatumFeature, class feature.GeometryClass) []feature.DOF {
	classDOF := ConstrainedDOF(class)
	if len(refs) == 0 {
		return classDOF
	}

	drf := BuildDRF(refs, datums)
	var out []feature.DOF
	for _, dof := range classDOF {
		if !drf.IsConstrained(dof) {
			out = append(out, dof)
		}
	}
	return out
}

// #endregion build

// #region tables
func primaryDOF(class feature.GeometryClass) []feature.DOF {
	switch class {
	case feature.ClassCylinder, feature.ClassCone, feature.ClassLine:
		return []feature.DOF{feature.DOFU, feature.DOFV, feature.DOFAlpha}
	case feature.ClassSphere, feature.ClassPoint:
		return []feature.DOF{feature.DOFU, feature.DOFV, feature.DOFW}
	default:
		return []feature.DOF{feature.DOFW, feature.DOFAlpha, feature.DOFBeta}
	}
}

func secondaryDOF(class feature.GeometryClass) []feature.DOF {
	switch class {
	case feature.ClassCylinder:
		return []feature.DOF{feature.DOFU, feature.DOFV, feature.DOFGamma}
	case feature.ClassLine, feature.ClassCone:
		return []feature.DOF{feature.DOFU, feature.DOFV}
	case feature.ClassPoint, feature.ClassSphere:
		return []feature.DOF{feature.DOFU, feature.DOFV, feature.DOFW}
	default:
		return []feature.DOF{feature.DOFU, feature.DOFGamma}
	}
}

func tertiaryDOF(class feature.GeometryClass) []feature.DOF {
	switch class {
	case feature.ClassPlane:
		return []feature.DOF{feature.DOFV, feature.DOFU, feature.DOFGamma}
	case feature.ClassPoint, feature.ClassCylinder:
		return []feature.DOF{feature.DOFU, feature.DOFV, feature.DOFW}
	case feature.ClassLine:
		return []feature.DOF{feature.DOFU, feature.DOFV}
	default:
		return []feature.DOF{feature.DOFU, feature.DOFV, feature.DOFW, feature.DOFGamma}
	}
}

// #endregion tables
