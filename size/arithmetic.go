/*
 * MIT License
 *
 * Copyright (c) 2022 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 */

package size

import (
	"fmt"
	"math"
)

// Mul multiplies the size in place by f, rounding to the nearest byte and
// capping at the maximum representable size on overflow. Negative
// multipliers are treated as zero. Errors are discarded; use MulErr to
// observe them.
func (s *Size) Mul(f float64) {
	_ = s.MulErr(f)
}

// MulErr is Mul but returns an error on overflow instead of silently
// capping (the size is still capped at the maximum representable value).
func (s *Size) MulErr(f float64) error {
	if f < 0 {
		f = 0
	}

	val := float64(*s) * f
	if val > float64(math.MaxUint64) {
		*s = Size(math.MaxUint64)
		return fmt.Errorf("size: overflow")
	}

	*s = Size(math.Round(val))
	return nil
}

// Div divides the size in place by f, rounding to the nearest byte. A
// non-positive divisor leaves the size unchanged. Errors are discarded;
// use DivErr to observe them.
func (s *Size) Div(f float64) {
	_ = s.DivErr(f)
}

// DivErr is Div but returns an error for a non-positive divisor or on
// overflow, instead of silently ignoring it.
func (s *Size) DivErr(f float64) error {
	if f <= 0 {
		return fmt.Errorf("size: invalid diviser")
	}

	val := float64(*s) / f
	if val > float64(math.MaxUint64) {
		*s = Size(math.MaxUint64)
		return fmt.Errorf("size: overflow")
	}

	*s = Size(math.Round(val))
	return nil
}

// Add adds v to the size in place, capping at the maximum representable
// size on overflow. Errors are discarded; use AddErr to observe them.
func (s *Size) Add(v uint64) {
	_ = s.AddErr(v)
}

// AddErr is Add but returns an error on overflow instead of silently
// capping.
func (s *Size) AddErr(v uint64) error {
	cur := uint64(*s)

	if v > math.MaxUint64-cur {
		*s = Size(math.MaxUint64)
		return fmt.Errorf("size: overflow")
	}

	*s = Size(cur + v)
	return nil
}

// Sub subtracts v from the size in place, capping at zero on underflow.
// Errors are discarded; use SubErr to observe them.
func (s *Size) Sub(v uint64) {
	_ = s.SubErr(v)
}

// SubErr is Sub but returns an error on underflow instead of silently
// capping at zero.
func (s *Size) SubErr(v uint64) error {
	cur := uint64(*s)

	if v > cur {
		*s = Size(0)
		return fmt.Errorf("size: invalid substractor")
	}

	*s = Size(cur - v)
	return nil
}
