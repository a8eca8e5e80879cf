package model

import "fmt"

// Beats is a rational count of quarter notes. Offsets and durations are kept
// rational end to end so that tuplet positions compare exactly; MusicXML's
// integer divisions map onto Beats without rounding.
//
// Beats is a value type. The zero value is 0 beats.
type Beats struct {
	Num int64
	Den int64
}

func B(num, den int64) Beats {
	if den == 0 {
		panic("Beats denominator cannot be zero")
	}
	return Beats{num, den}.reduce()
}

func Whole(n int64) Beats { return Beats{n, 1} }

func gcd(a, b int64) int64 {
	if a < 0 {
		a = -a
	}
	if b < 0 {
		b = -b
	}
	for b != 0 {
		a, b = b, a%b
	}
	if a == 0 {
		return 1
	}
	return a
}

func (b Beats) reduce() Beats {
	if b.Den == 0 {
		panic("Beats denominator cannot be zero")
	}
	if b.Den < 0 {
		b.Num, b.Den = -b.Num, -b.Den
	}
	g := gcd(b.Num, b.Den)
	return Beats{b.Num / g, b.Den / g}
}

func (b Beats) norm() Beats {
	if b.Den == 0 {
		return Beats{b.Num, 1}
	}
	return b
}

func (b Beats) Add(o Beats) Beats {
	b, o = b.norm(), o.norm()
	return Beats{b.Num*o.Den + o.Num*b.Den, b.Den * o.Den}.reduce()
}

func (b Beats) Sub(o Beats) Beats {
	b, o = b.norm(), o.norm()
	return Beats{b.Num*o.Den - o.Num*b.Den, b.Den * o.Den}.reduce()
}

// Cmp returns -1, 0 or 1. Comparison is exact.
func (b Beats) Cmp(o Beats) int {
	b, o = b.norm(), o.norm()
	l := b.Num * o.Den
	r := o.Num * b.Den
	switch {
	case l < r:
		return -1
	case l > r:
		return 1
	default:
		return 0
	}
}

func (b Beats) Less(o Beats) bool { return b.Cmp(o) < 0 }

func (b Beats) IsZero() bool { return b.norm().Num == 0 }

func (b Beats) Abs() Beats {
	b = b.norm()
	if b.Num < 0 {
		return Beats{-b.Num, b.Den}
	}
	return b
}

// Within reports whether |b - o| < tol.
func (b Beats) Within(o, tol Beats) bool {
	return b.Sub(o).Abs().Cmp(tol) < 0
}

func (b Beats) Float64() float64 {
	b = b.norm()
	return float64(b.Num) / float64(b.Den)
}

func (b Beats) String() string {
	b = b.norm().reduce()
	if b.Den == 1 {
		return fmt.Sprintf("%d", b.Num)
	}
	return fmt.Sprintf("%d/%d", b.Num, b.Den)
}
