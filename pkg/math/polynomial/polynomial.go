package polynomial

import (
	"io"

	"github.com/frostrelay/frostrelay/pkg/math/curve"
	"github.com/frostrelay/frostrelay/pkg/math/sample"
)

// Polynomial represents f(X) = a₀ + a₁⋅X + … + aₜ⋅Xᵗ, with coefficients
// in the scalar field of a curve.
type Polynomial struct {
	group        curve.Curve
	coefficients []curve.Scalar
}

// NewPolynomial generates a Polynomial f(X) = constant + a₁⋅X + … + aₜ⋅Xᵗ,
// with random coefficients and degree t.
//
// If the constant is nil, it is interpreted as 0.
func NewPolynomial(group curve.Curve, degree int, constant curve.Scalar, rand io.Reader) *Polynomial {
	polynomial := &Polynomial{
		group:        group,
		coefficients: make([]curve.Scalar, degree+1),
	}

	if constant == nil {
		constant = group.NewScalar()
	}
	polynomial.coefficients[0] = constant

	for i := 1; i <= degree; i++ {
		polynomial.coefficients[i] = sample.Scalar(rand, group)
	}

	return polynomial
}

// NewPolynomialFromCoefficients reconstructs a Polynomial from previously
// exported coefficients.
func NewPolynomialFromCoefficients(group curve.Curve, coefficients []curve.Scalar) *Polynomial {
	return &Polynomial{group: group, coefficients: coefficients}
}

// Evaluate evaluates the polynomial at a given index, using Horner's method.
//
// Evaluating at 0 would return the secret constant, so it panics instead.
func (p *Polynomial) Evaluate(index curve.Scalar) curve.Scalar {
	if index.IsZero() {
		panic("attempt to leak secret")
	}

	result := p.group.NewScalar()
	// bₙ₋₁ = bₙ⋅x + aₙ₋₁
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		result.Mul(index).Add(p.coefficients[i])
	}
	return result
}

// Constant returns a copy of the constant coefficient of the polynomial.
func (p *Polynomial) Constant() curve.Scalar {
	return p.group.NewScalar().Set(p.coefficients[0])
}

// Coefficients returns the coefficients of the polynomial. The caller must
// treat them as secret.
func (p *Polynomial) Coefficients() []curve.Scalar {
	return p.coefficients
}

// Degree is the highest power of the Polynomial.
func (p *Polynomial) Degree() uint32 {
	return uint32(len(p.coefficients)) - 1
}
