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
	"regexp"
	"strconv"
	"strings"
)

var reSize = regexp.MustCompile(`^([+-]?[0-9]*\.?[0-9]+)\s*([A-Za-z]*)$`)

var unitMultiplier = map[byte]Size{
	'B': SizeUnit,
	'K': SizeKilo,
	'M': SizeMega,
	'G': SizeGiga,
	'T': SizeTera,
	'P': SizePeta,
	'E': SizeExa,
}

// Parse parses a string representing a byte quantity, such as "100MB",
// "1.5GB" or "512" B", and returns the corresponding Size.
//
// The unit is one of B/K/KB/M/MB/G/GB/T/TB/P/PB/E/EB, case-insensitive.
// A bare number without a unit is rejected. Negative values are rejected.
func Parse(s string) (Size, error) {
	return parseString(s)
}

// ParseByte parses a byte slice the same way as Parse.
func ParseByte(p []byte) (Size, error) {
	return parseString(string(p))
}

// ParseSize is a deprecated alias for Parse.
//
// Deprecated: use Parse.
func ParseSize(s string) (Size, error) {
	return Parse(s)
}

// ParseByteAsSize is a deprecated alias for ParseByte.
//
// Deprecated: use ParseByte.
func ParseByteAsSize(p []byte) (Size, error) {
	return ParseByte(p)
}

// GetSize is a deprecated helper returning the parsed Size and whether
// parsing succeeded, instead of an error.
//
// Deprecated: use Parse.
func GetSize(s string) (Size, bool) {
	v, e := Parse(s)
	if e != nil {
		return SizeNul, false
	}

	return v, true
}

func parseString(s string) (Size, error) {
	s = strings.Replace(s, "\"", "", -1)
	s = strings.Replace(s, "'", "", -1)
	s = strings.TrimSpace(s)

	if s == "" {
		return SizeNul, fmt.Errorf("size: invalid size: empty string")
	}

	m := reSize.FindStringSubmatch(s)
	if m == nil {
		return SizeNul, fmt.Errorf("size: invalid size: %q", s)
	}

	f, e := strconv.ParseFloat(m[1], 64)
	if e != nil {
		return SizeNul, fmt.Errorf("size: invalid size: %w", e)
	}

	if f < 0 {
		return SizeNul, fmt.Errorf("size: negative size not allowed: %q", s)
	}

	unit := strings.ToUpper(strings.TrimSpace(m[2]))
	if unit == "" {
		return SizeNul, fmt.Errorf("size: missing unit: %q", s)
	}

	mul, ok := unitMultiplier[unit[0]]
	if !ok {
		return SizeNul, fmt.Errorf("size: unknown unit: %q", s)
	}

	if len(unit) > 1 && unit != string(unit[0])+"B" {
		return SizeNul, fmt.Errorf("size: unknown unit: %q", s)
	}

	val := f * float64(mul)
	if val > float64(math.MaxUint64) {
		return SizeNul, fmt.Errorf("size: overflow: %q", s)
	}

	return Size(math.Round(val)), nil
}

func (s *Size) parseString(str string) error {
	v, e := parseString(str)
	if e != nil {
		return e
	}

	*s = v
	return nil
}

func (s *Size) unmarshal(val []byte) error {
	v, e := ParseByte(val)
	if e != nil {
		return e
	}

	*s = v
	return nil
}
