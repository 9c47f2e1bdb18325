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
	"encoding/json"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"gopkg.in/yaml.v3"
)

// MarshalJSON returns the JSON encoding of the size, as its String form.
func (s Size) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON parses the JSON-encoded size and stores the result in the
// receiver. The JSON value is expected to be a quoted size string.
func (s *Size) UnmarshalJSON(bytes []byte) error {
	var str string
	if e := json.Unmarshal(bytes, &str); e != nil {
		return e
	}

	return s.parseString(str)
}

// MarshalYAML returns the YAML encoding of the size, as its String form.
func (s Size) MarshalYAML() (interface{}, error) {
	return s.String(), nil
}

// UnmarshalYAML parses the YAML-encoded size and stores the result in the
// receiver.
func (s *Size) UnmarshalYAML(value *yaml.Node) error {
	return s.parseString(value.Value)
}

// MarshalTOML returns the TOML encoding of the size, as its String form.
func (s Size) MarshalTOML() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalTOML parses the TOML-decoded value (string or []byte) and
// stores the result in the receiver.
func (s *Size) UnmarshalTOML(i interface{}) error {
	if b, k := i.([]byte); k {
		return s.unmarshal(b)
	}

	if b, k := i.(string); k {
		return s.parseString(b)
	}

	return fmt.Errorf("size: value not in valid format")
}

// MarshalText returns the text encoding of the size, as its String form.
func (s Size) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText parses the text-encoded size and stores the result in the
// receiver.
func (s *Size) UnmarshalText(bytes []byte) error {
	return s.unmarshal(bytes)
}

// MarshalBinary returns the binary encoding of the size, as its String
// form.
func (s Size) MarshalBinary() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalBinary parses the binary-encoded size and stores the result in
// the receiver.
func (s *Size) UnmarshalBinary(data []byte) error {
	return s.unmarshal(data)
}

// MarshalCBOR returns the CBOR encoding of the size, as its String form.
func (s Size) MarshalCBOR() ([]byte, error) {
	return cbor.Marshal(s.String())
}

// UnmarshalCBOR parses the CBOR-encoded size and stores the result in the
// receiver.
func (s *Size) UnmarshalCBOR(bytes []byte) error {
	var str string
	if e := cbor.Unmarshal(bytes, &str); e != nil {
		return e
	}

	return s.parseString(str)
}
