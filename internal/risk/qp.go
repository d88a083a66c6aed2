package risk

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

const (
	qpStepTol   = 1e-9
	qpTol       = 1e-12
	qpMaxFactor = 50
)

var errQPNoConvergence = errors.New("active-set QP did not converge")

// qpProblem is min ½ wᵀQw  s.t.  A w = b, w >= 0
type qpProblem struct {
	Q *mat.SymDense
	A [][]float64 // m rows of length n
	b []float64
}

// solve runs a primal active-set method from the feasible start w0.
// Bounds at zero form the working set; each iteration solves the
// equality-constrained KKT system on the free variables.
func (p qpProblem) solve(w0 []float64) ([]float64, error) {
	n := len(w0)
	w := append([]float64(nil), w0...)

	active := make([]bool, n)
	for i, x := range w {
		if x <= 0 {
			w[i] = 0
			active[i] = true
		}
	}

	maxIter := qpMaxFactor * (n + len(p.A) + 1)
	for iter := 0; iter < maxIter; iter++ {
		free := make([]int, 0, n)
		for i := 0; i < n; i++ {
			if !active[i] {
				free = append(free, i)
			}
		}

		g := p.gradient(w)
		step, lambda, err := p.kkt(free, g)
		if err != nil {
			return nil, err
		}

		if norm(step) <= qpStepTol*(1+norm(w)) {
			// bound multipliers ν_i = g_i + A_iᵀλ must be non-negative
			leave, worst := -1, -qpTol
			for i := 0; i < n; i++ {
				if !active[i] {
					continue
				}
				nu := g[i]
				for r, row := range p.A {
					nu += row[i] * lambda[r]
				}
				if nu < worst {
					leave, worst = i, nu
				}
			}
			if leave < 0 {
				return w, nil
			}
			active[leave] = false
			continue
		}

		alpha, block := 1.0, -1
		for k, i := range free {
			if step[k] < 0 {
				if a := -w[i] / step[k]; a < alpha {
					alpha, block = a, i
				}
			}
		}
		for k, i := range free {
			w[i] += alpha * step[k]
		}
		if block >= 0 {
			w[block] = 0
			active[block] = true
		}
	}

	return nil, errQPNoConvergence
}

func (p qpProblem) gradient(w []float64) []float64 {
	g := mat.NewVecDense(len(w), nil)
	g.MulVec(p.Q, mat.NewVecDense(len(w), append([]float64(nil), w...)))
	return g.RawVector().Data
}

// kkt solves [Q_FF A_Fᵀ; A_F 0][p; λ] = [−g_F; 0] using only the
// linearly independent rows of A_F. Dependent rows get λ = 0.
func (p qpProblem) kkt(free []int, g []float64) ([]float64, []float64, error) {
	lambda := make([]float64, len(p.A))
	if len(free) == 0 {
		return nil, lambda, nil
	}

	rows := independentRows(p.A, free)
	nf, m := len(free), len(rows)
	size := nf + m

	k := mat.NewDense(size, size, nil)
	rhs := mat.NewVecDense(size, nil)
	for a, i := range free {
		for c, j := range free {
			k.Set(a, c, p.Q.At(i, j))
		}
		for r, row := range rows {
			k.Set(a, nf+r, p.A[row][i])
			k.Set(nf+r, a, p.A[row][i])
		}
		rhs.SetVec(a, -g[i])
	}

	var x mat.VecDense
	if err := x.SolveVec(k, rhs); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) {
			return nil, nil, fmt.Errorf("kkt solve: %w", err)
		}
	}

	step := make([]float64, nf)
	for a := range step {
		step[a] = x.AtVec(a)
	}
	for r, row := range rows {
		lambda[row] = x.AtVec(nf + r)
	}
	for _, v := range step {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, nil, fmt.Errorf("kkt solve: non-finite step")
		}
	}
	return step, lambda, nil
}

// independentRows picks rows of A restricted to cols that are linearly
// independent, by Gram-Schmidt in row order
func independentRows(a [][]float64, cols []int) []int {
	var basis [][]float64
	var picked []int

	for r, row := range a {
		v := make([]float64, len(cols))
		for c, j := range cols {
			v[c] = row[j]
		}
		orig := norm(v)
		for _, e := range basis {
			d := dot(v, e)
			for c := range v {
				v[c] -= d * e[c]
			}
		}
		nv := norm(v)
		if nv <= 1e-10*(1+orig) {
			continue
		}
		for c := range v {
			v[c] /= nv
		}
		basis = append(basis, v)
		picked = append(picked, r)
	}
	return picked
}

func dot(a, b []float64) float64 {
	s := 0.0
	for i := range a {
		s += a[i] * b[i]
	}
	return s
}

func norm(v []float64) float64 {
	return math.Sqrt(dot(v, v))
}
