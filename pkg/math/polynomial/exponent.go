package polynomial

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/frostrelay/frostrelay/internal/params"
	"github.com/frostrelay/frostrelay/pkg/math/curve"
)

// Exponent represents a polynomial whose coefficients are points on an
// elliptic curve: F(X) = [a₀ + a₁⋅X + … + aₜ⋅Xᵗ]•G.
//
// It commits to a secret Polynomial without revealing it.
type Exponent struct {
	group        curve.Curve
	coefficients []curve.Point
}

// NewPolynomialExponent commits to the given polynomial, by acting on the
// generator with each coefficient.
func NewPolynomialExponent(polynomial *Polynomial) *Exponent {
	p := &Exponent{
		group:        polynomial.group,
		coefficients: make([]curve.Point, len(polynomial.coefficients)),
	}
	for i, c := range polynomial.coefficients {
		p.coefficients[i] = c.ActOnBase()
	}
	return p
}

// EmptyExponent returns an Exponent ready for unmarshalling.
func EmptyExponent(group curve.Curve) *Exponent {
	return &Exponent{group: group}
}

// Evaluate evaluates the polynomial at a given index, using Horner's method.
func (p *Exponent) Evaluate(index curve.Scalar) curve.Point {
	result := p.group.NewPoint()
	// Bₙ₋₁ = [x]Bₙ + Aₙ₋₁
	for i := len(p.coefficients) - 1; i >= 0; i-- {
		result = index.Act(result).Add(p.coefficients[i])
	}
	return result
}

// Degree is the highest power of the Exponent.
func (p *Exponent) Degree() int {
	return len(p.coefficients) - 1
}

func (p *Exponent) add(q *Exponent) error {
	if len(p.coefficients) != len(q.coefficients) {
		return errors.New("polynomial: cannot sum exponents of different degrees")
	}
	for i := range p.coefficients {
		p.coefficients[i] = p.coefficients[i].Add(q.coefficients[i])
	}
	return nil
}

// Sum creates a new Exponent by summing a slice of existing ones.
func Sum(polynomials []*Exponent) (*Exponent, error) {
	if len(polynomials) == 0 {
		return nil, errors.New("polynomial: nothing to sum")
	}
	summed := polynomials[0].Copy()
	for _, q := range polynomials[1:] {
		if err := summed.add(q); err != nil {
			return nil, err
		}
	}
	return summed, nil
}

// Copy returns a deep copy of the Exponent.
func (p *Exponent) Copy() *Exponent {
	q := &Exponent{
		group:        p.group,
		coefficients: make([]curve.Point, len(p.coefficients)),
	}
	for i := range p.coefficients {
		q.coefficients[i] = p.group.NewPoint().Set(p.coefficients[i])
	}
	return q
}

// Equal returns true if both exponents commit to the same polynomial.
func (p *Exponent) Equal(other *Exponent) bool {
	if len(p.coefficients) != len(other.coefficients) {
		return false
	}
	for i := range p.coefficients {
		if !p.coefficients[i].Equal(other.coefficients[i]) {
			return false
		}
	}
	return true
}

// Constant returns the constant coefficient of the polynomial
// "in the exponent".
func (p *Exponent) Constant() curve.Point {
	return p.group.NewPoint().Set(p.coefficients[0])
}

// MarshalBinary serializes the Exponent as a coefficient count followed by
// the compressed coefficients.
func (p *Exponent) MarshalBinary() ([]byte, error) {
	out := make([]byte, 4, 4+len(p.coefficients)*params.BytesPoint)
	binary.BigEndian.PutUint32(out, uint32(len(p.coefficients)))
	for i, c := range p.coefficients {
		data, err := c.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("polynomial.Exponent: coefficient %d: %w", i, err)
		}
		out = append(out, data...)
	}
	return out, nil
}

// UnmarshalBinary implements encoding.BinaryUnmarshaler. The receiver must
// have been created with EmptyExponent.
func (p *Exponent) UnmarshalBinary(data []byte) error {
	if p.group == nil {
		return errors.New("polynomial.Exponent: unmarshal into exponent without group")
	}
	if len(data) < 4 {
		return errors.New("polynomial.Exponent: data too short")
	}
	count := binary.BigEndian.Uint32(data)
	data = data[4:]
	if len(data) != int(count)*params.BytesPoint {
		return fmt.Errorf("polynomial.Exponent: expected %d coefficients in %d bytes, got %d bytes",
			count, int(count)*params.BytesPoint, len(data))
	}
	p.coefficients = make([]curve.Point, count)
	for i := range p.coefficients {
		c := p.group.NewPoint()
		if err := c.UnmarshalBinary(data[i*params.BytesPoint : (i+1)*params.BytesPoint]); err != nil {
			return fmt.Errorf("polynomial.Exponent: coefficient %d: %w", i, err)
		}
		p.coefficients[i] = c
	}
	return nil
}

// WriteTo implements io.WriterTo, for use inside a hash transcript.
func (p *Exponent) WriteTo(w io.Writer) (int64, error) {
	data, err := p.MarshalBinary()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(data)
	return int64(n), err
}

// Domain implements hash.WriterToWithDomain.
func (p *Exponent) Domain() string {
	return "polynomial.Exponent"
}
