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

import "math"

// ParseInt64 returns the Size with the absolute value of i.
func ParseInt64(i int64) Size {
	if i < 0 {
		if i == math.MinInt64 {
			return Size(uint64(math.MaxInt64) + 1)
		}

		i = -i
	}

	return Size(i)
}

// SizeFromInt64 is an alias for ParseInt64.
func SizeFromInt64(i int64) Size {
	return ParseInt64(i)
}

// ParseUint64 returns the Size with value i.
func ParseUint64(i uint64) Size {
	return Size(i)
}

// ParseFloat64 returns the Size with the absolute value of the integer
// part of f (floor, then absolute value), capped at the maximum
// representable size.
func ParseFloat64(f float64) Size {
	v := math.Floor(f)
	if v < 0 {
		v = -v
	}

	if v > float64(math.MaxUint64) {
		return Size(math.MaxUint64)
	}

	return Size(v)
}

// SizeFromFloat64 is an alias for ParseFloat64.
func SizeFromFloat64(f float64) Size {
	return ParseFloat64(f)
}

// Uint64 returns the size as a uint64.
func (s Size) Uint64() uint64 {
	return uint64(s)
}

// Uint32 returns the size as a uint32, capped at math.MaxUint32.
func (s Size) Uint32() uint32 {
	if uint64(s) > math.MaxUint32 {
		return math.MaxUint32
	}

	return uint32(s)
}

// Uint returns the size as a uint, capped at the platform's maximum uint.
func (s Size) Uint() uint {
	max := uint64(^uint(0))

	if uint64(s) > max {
		return ^uint(0)
	}

	return uint(s)
}

// Int64 returns the size as an int64, capped at math.MaxInt64.
func (s Size) Int64() int64 {
	if uint64(s) > math.MaxInt64 {
		return math.MaxInt64
	}

	return int64(s)
}

// Int32 returns the size as an int32, capped at math.MaxInt32.
func (s Size) Int32() int32 {
	if uint64(s) > math.MaxInt32 {
		return math.MaxInt32
	}

	return int32(s)
}

// Int returns the size as an int, capped at the platform's maximum int.
func (s Size) Int() int {
	max := uint64(^uint(0) >> 1)

	if uint64(s) > max {
		return int(max)
	}

	return int(s)
}

// Float64 returns the size as a float64.
func (s Size) Float64() float64 {
	return float64(s)
}

// Float32 returns the size as a float32, capped at math.MaxFloat32.
func (s Size) Float32() float32 {
	f := float64(s)

	if f > math.MaxFloat32 {
		return math.MaxFloat32
	}

	return float32(f)
}
