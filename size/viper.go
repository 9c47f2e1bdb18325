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

import "reflect"

var sizeType = reflect.TypeOf(Size(0))

// ViperDecoderHook returns a mapstructure-style decode hook that converts
// strings, byte slices and numeric types into Size when the destination
// field's type is Size. Any other destination type, or a source value
// that doesn't match its declared from-type, passes through unchanged.
func ViperDecoderHook() func(reflect.Type, reflect.Type, interface{}) (interface{}, error) {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != sizeType {
			return data, nil
		}

		if from == nil {
			return data, nil
		}

		switch from.Kind() {
		case reflect.String:
			if str, ok := data.(string); ok {
				return Parse(str)
			}

			return data, nil

		case reflect.Slice:
			if from.Elem().Kind() != reflect.Uint8 {
				return data, nil
			}

			if b, ok := data.([]byte); ok {
				return ParseByte(b)
			}

			return data, nil

		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			if v, ok := toInt64(data); ok {
				return ParseInt64(v), nil
			}

			return data, nil

		case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
			if v, ok := toUint64(data); ok {
				return ParseUint64(v), nil
			}

			return data, nil

		case reflect.Float32, reflect.Float64:
			if v, ok := toFloat64(data); ok {
				return ParseFloat64(v), nil
			}

			return data, nil

		default:
			return data, nil
		}
	}
}

func toInt64(data interface{}) (int64, bool) {
	switch v := data.(type) {
	case int:
		return int64(v), true
	case int8:
		return int64(v), true
	case int16:
		return int64(v), true
	case int32:
		return int64(v), true
	case int64:
		return v, true
	}

	return 0, false
}

func toUint64(data interface{}) (uint64, bool) {
	switch v := data.(type) {
	case uint:
		return uint64(v), true
	case uint8:
		return uint64(v), true
	case uint16:
		return uint64(v), true
	case uint32:
		return uint64(v), true
	case uint64:
		return v, true
	}

	return 0, false
}

func toFloat64(data interface{}) (float64, bool) {
	switch v := data.(type) {
	case float32:
		return float64(v), true
	case float64:
		return v, true
	}

	return 0, false
}
