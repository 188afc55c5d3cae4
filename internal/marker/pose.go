package marker

import (
	"math"

	"github.com/golang/geo/r2"
	"github.com/golang/geo/r3"
	"gonum.org/v1/gonum/mat"

	"fiducialtrack/internal/camera"
)

// PoseCandidate is one of the two rigid poses consistent with a planar
// square marker seen by a monocular camera: a row-major 3x3 rotation, a
// translation in the same units as the marker size, and the RMS corner
// reprojection error in pixels.
type PoseCandidate struct {
	Rotation    [9]float64
	Translation r3.Vector
	Err         float64
}

// Solver resolves the two candidate poses of a square marker from its four
// corner points. Always exactly two candidates; callers wanting a single
// pose must disambiguate themselves.
type Solver interface {
	Solve(corners [4]r2.Point, markerSize float64, intr camera.Intrinsics) (PoseCandidate, PoseCandidate)
}

// IPPESolver implements the infinitesimal plane-based pose estimation for
// the square-marker special case: a homography from the canonical marker
// square, decomposed into the two first-order rotation solutions, each
// completed with a least-squares translation.
type IPPESolver struct{}

// Solve never fails: geometrically degenerate corner sets yield two
// identity-rotation candidates with a maximal error score.
func (IPPESolver) Solve(corners [4]r2.Point, markerSize float64, intr camera.Intrinsics) (PoseCandidate, PoseCandidate) {
	hw := markerSize / 2.0
	// Canonical object points, matching the detector's corner order:
	// top-left, top-right, bottom-right, bottom-left, z = 0.
	obj := [4]r2.Point{{X: -hw, Y: hw}, {X: hw, Y: hw}, {X: hw, Y: -hw}, {X: -hw, Y: -hw}}

	var norm [4]r2.Point
	for i, c := range corners {
		norm[i] = r2.Point{X: (c.X - intr.Ppx) / intr.Fx, Y: (c.Y - intr.Ppy) / intr.Fy}
	}

	h, ok := homography(obj, norm)
	if !ok {
		return degeneratePair()
	}

	rotA, rotB := ippeRotations(h)
	if !finiteMat(rotA) || !finiteMat(rotB) {
		return degeneratePair()
	}

	c1 := completeCandidate(rotA, obj, norm, corners, intr)
	c2 := completeCandidate(rotB, obj, norm, corners, intr)

	// Error-ascending order keeps the output deterministic.
	if c2.Err < c1.Err {
		c1, c2 = c2, c1
	}
	return c1, c2
}

func degeneratePair() (PoseCandidate, PoseCandidate) {
	id := [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	c := PoseCandidate{Rotation: id, Err: math.MaxFloat64}
	return c, c
}

// homography estimates the plane-to-normalized-image homography with a
// four-point DLT, taking the null vector of the stacked constraint matrix.
func homography(src, dst [4]r2.Point) (*mat.Dense, bool) {
	a := mat.NewDense(8, 9, nil)
	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y
		a.SetRow(2*i, []float64{-x, -y, -1, 0, 0, 0, u * x, u * y, u})
		a.SetRow(2*i+1, []float64{0, 0, 0, -x, -y, -1, v * x, v * y, v})
	}

	var svd mat.SVD
	if !svd.Factorize(a, mat.SVDFull) {
		return nil, false
	}
	var v mat.Dense
	svd.VTo(&v)

	// Null space is the right singular vector of the smallest singular
	// value; normalize so h22 == 1.
	scale := v.At(8, 8)
	if math.Abs(scale) < 1e-15 {
		return nil, false
	}
	h := mat.NewDense(3, 3, nil)
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			h.Set(i, j, v.At(3*i+j, 8)/scale)
		}
	}
	return h, true
}

// ippeRotations computes the two rotation solutions from the homography.
// The derivation follows the IPPE square case: the image Jacobian at the
// marker center, taken into the frame where the center's viewing ray is
// the z axis, admits exactly two rotations whose first-order projection
// matches it.
func ippeRotations(h *mat.Dense) (*mat.Dense, *mat.Dense) {
	// Projection of the marker center and the Jacobian of the
	// model-to-image map there (h22 is normalized to 1).
	p := h.At(0, 2)
	q := h.At(1, 2)
	j00 := h.At(0, 0) - p*h.At(2, 0)
	j01 := h.At(0, 1) - p*h.At(2, 1)
	j10 := h.At(1, 0) - q*h.At(2, 0)
	j11 := h.At(1, 1) - q*h.At(2, 1)

	rv := rotationAlign(r3.Vector{Z: 1}, r3.Vector{X: p, Y: q, Z: 1})

	// Transform the Jacobian into the rotated frame.
	b00 := rv.At(0, 0) - p*rv.At(2, 0)
	b01 := rv.At(0, 1) - p*rv.At(2, 1)
	b10 := rv.At(1, 0) - q*rv.At(2, 0)
	b11 := rv.At(1, 1) - q*rv.At(2, 1)
	det := b00*b11 - b01*b10
	if det == 0 {
		return nil, nil
	}
	dtinv := 1.0 / det
	binv00, binv01 := dtinv*b11, -dtinv*b01
	binv10, binv11 := -dtinv*b10, dtinv*b00

	a00 := binv00*j00 + binv01*j10
	a01 := binv00*j01 + binv01*j11
	a10 := binv10*j00 + binv11*j10
	a11 := binv10*j01 + binv11*j11

	// Largest singular value of A scales the rotation block.
	ata00 := a00*a00 + a01*a01
	ata01 := a00*a10 + a01*a11
	ata11 := a10*a10 + a11*a11
	gamma := math.Sqrt(0.5 * (ata00 + ata11 + math.Sqrt((ata00-ata11)*(ata00-ata11)+4.0*ata01*ata01)))
	if gamma == 0 || math.IsNaN(gamma) {
		return nil, nil
	}

	rt00, rt01 := a00/gamma, a01/gamma
	rt10, rt11 := a10/gamma, a11/gamma

	// The third row completes each column to unit length; the relative
	// sign is fixed by column orthogonality, the absolute sign is the
	// two-fold ambiguity.
	b0 := math.Sqrt(math.Max(0, 1-rt00*rt00-rt10*rt10))
	b1 := math.Sqrt(math.Max(0, 1-rt01*rt01-rt11*rt11))
	if rt00*rt01+rt10*rt11 > 0 {
		b1 = -b1
	}

	sol1 := rotationFromColumns(rt00, rt01, rt10, rt11, b0, b1)
	sol2 := rotationFromColumns(rt00, rt01, rt10, rt11, -b0, -b1)

	var out1, out2 mat.Dense
	out1.Mul(rv, sol1)
	out2.Mul(rv, sol2)
	return &out1, &out2
}

// rotationFromColumns builds the rotation whose first two columns are
// (c0x, c0y, b0) and (c1x, c1y, b1); the third column is their cross
// product.
func rotationFromColumns(c0x, c1x, c0y, c1y, b0, b1 float64) *mat.Dense {
	col0 := r3.Vector{X: c0x, Y: c0y, Z: b0}
	col1 := r3.Vector{X: c1x, Y: c1y, Z: b1}
	col2 := col0.Cross(col1)
	return mat.NewDense(3, 3, []float64{
		col0.X, col1.X, col2.X,
		col0.Y, col1.Y, col2.Y,
		col0.Z, col1.Z, col2.Z,
	})
}

// rotationAlign returns the rotation taking unit(a) onto unit(b) via the
// Rodrigues formula.
func rotationAlign(a, b r3.Vector) *mat.Dense {
	an := a.Normalize()
	bn := b.Normalize()
	k := an.Cross(bn)
	c := an.Dot(bn)
	s2 := k.Norm2()

	eye := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	if s2 < 1e-24 {
		if c > 0 {
			return eye
		}
		// Antiparallel: rotate pi around any axis orthogonal to a.
		axis := an.Cross(r3.Vector{X: 1})
		if axis.Norm2() < 1e-12 {
			axis = an.Cross(r3.Vector{Y: 1})
		}
		return rodrigues(axis.Normalize(), math.Pi)
	}

	kx := skew(k)
	var kx2 mat.Dense
	kx2.Mul(kx, kx)
	kx2.Scale((1-c)/s2, &kx2)

	var out mat.Dense
	out.Add(eye, kx)
	out.Add(&out, &kx2)
	return &out
}

func rodrigues(axis r3.Vector, angle float64) *mat.Dense {
	kx := skew(axis)
	var kx2 mat.Dense
	kx2.Mul(kx, kx)

	eye := mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
	kx.Scale(math.Sin(angle), kx)
	kx2.Scale(1-math.Cos(angle), &kx2)

	var out mat.Dense
	out.Add(eye, kx)
	out.Add(&out, &kx2)
	return &out
}

func skew(v r3.Vector) *mat.Dense {
	return mat.NewDense(3, 3, []float64{
		0, -v.Z, v.Y,
		v.Z, 0, -v.X,
		-v.Y, v.X, 0,
	})
}

// completeCandidate solves the translation for one rotation by linear
// least squares over the four corners and scores the candidate with its
// RMS pixel reprojection error.
func completeCandidate(rot *mat.Dense, obj, norm [4]r2.Point, corners [4]r2.Point, intr camera.Intrinsics) PoseCandidate {
	if rot == nil {
		c, _ := degeneratePair()
		return c
	}

	a := mat.NewDense(8, 3, nil)
	rhs := mat.NewVecDense(8, nil)
	for i := 0; i < 4; i++ {
		px := rot.At(0, 0)*obj[i].X + rot.At(0, 1)*obj[i].Y
		py := rot.At(1, 0)*obj[i].X + rot.At(1, 1)*obj[i].Y
		pz := rot.At(2, 0)*obj[i].X + rot.At(2, 1)*obj[i].Y
		u, v := norm[i].X, norm[i].Y

		a.SetRow(2*i, []float64{1, 0, -u})
		a.SetRow(2*i+1, []float64{0, 1, -v})
		rhs.SetVec(2*i, u*pz-px)
		rhs.SetVec(2*i+1, v*pz-py)
	}

	var t mat.VecDense
	if err := t.SolveVec(a, rhs); err != nil {
		c, _ := degeneratePair()
		return c
	}

	cand := PoseCandidate{
		Translation: r3.Vector{X: t.AtVec(0), Y: t.AtVec(1), Z: t.AtVec(2)},
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			cand.Rotation[3*i+j] = rot.At(i, j)
		}
	}
	cand.Err = reprojectionError(cand, obj, corners, intr)
	return cand
}

func reprojectionError(cand PoseCandidate, obj [4]r2.Point, corners [4]r2.Point, intr camera.Intrinsics) float64 {
	sum := 0.0
	for i := 0; i < 4; i++ {
		px := cand.Rotation[0]*obj[i].X + cand.Rotation[1]*obj[i].Y + cand.Translation.X
		py := cand.Rotation[3]*obj[i].X + cand.Rotation[4]*obj[i].Y + cand.Translation.Y
		pz := cand.Rotation[6]*obj[i].X + cand.Rotation[7]*obj[i].Y + cand.Translation.Z
		if pz <= 0 {
			return math.MaxFloat64
		}
		u := intr.Fx*px/pz + intr.Ppx
		v := intr.Fy*py/pz + intr.Ppy
		du := u - corners[i].X
		dv := v - corners[i].Y
		sum += du*du + dv*dv
	}
	rms := math.Sqrt(sum / 4.0)
	if math.IsNaN(rms) || math.IsInf(rms, 0) {
		return math.MaxFloat64
	}
	return rms
}

func finiteMat(m *mat.Dense) bool {
	if m == nil {
		return false
	}
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			v := m.At(i, j)
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return false
			}
		}
	}
	return true
}
