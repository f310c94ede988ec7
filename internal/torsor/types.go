package torsor

import (
	"github.com/danielpatrickdp/tolstack/internal/feature"
	"github.com/danielpatrickdp/tolstack/internal/stats"
)

// ProjectionEpsilon is the shortest functional direction Projection will
// normalise. Anything shorter falls back to +X.
const ProjectionEpsilon = 1e-10

// #region torsor
// Torsor is a small rigid-body displacement [u, v, w, α, β, γ].
type Torsor [feature.NumDOF]float64

// Contributor is one node of a 3-D chain.
type Contributor struct {
	Name         string
	FeatureID    string
	Class        feature.GeometryClass
	Position     [3]float64
	Bounds       feature.TorsorBounds
	Distribution stats.Distribution
	SigmaLevel   float64 // non-positive means stats.DefaultSigmaLevel
}

// #endregion torsor

// #region results
// Stats holds the propagated statistics for one DOF at the chain result.
type Stats struct {
	WcMin     float64  `json:"wc_min"`
	WcMax     float64  `json:"wc_max"`
	RssMean   float64  `json:"rss_mean"`
	Rss3Sigma float64  `json:"rss_3sigma"`
	McMean    *float64 `json:"mc_mean,omitempty"`
	McStdDev  *float64 `json:"mc_std_dev,omitempty"`
}

// Result carries one Stats record per DOF, in DOF index order.
type Result [feature.NumDOF]Stats

// MonteCarloResult is the per-DOF sample mean and population standard
// deviation of the propagated torsor.
type MonteCarloResult struct {
	Iterations int
	Mean       Torsor
	StdDev     Torsor
}

// #endregion results

// #region drf
// DatumFeature describes a datum used to build a reference frame.
type DatumFeature struct {
	Label    string
	Class    feature.GeometryClass
	Position [3]float64
	Axis     *[3]float64
}

// DRF is a datum reference frame built by the 3-2-1 rule. The zero value
// is an empty frame with every DOF free.
type DRF struct {
	Primary     *DatumFeature
	Secondary   *DatumFeature
	Tertiary    *DatumFeature
	constrained [feature.NumDOF]bool
}

// #endregion drf
