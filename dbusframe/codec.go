/*
 * MIT License
 *
 * Copyright (c) 2020 Nicolas JUHEL
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
 *
 */

package dbusframe

import "encoding/json"

// Encode renders f as its wire array [cmd, serial, subject, args]. Args
// is marshaled as a plain JSON string, letting encoding/json own all
// escaping; the original bridge builds this array by hand with
// sprintf-style string concatenation, wrapping args in an extra literal
// "[...]" pair baked into its format string. That wrapping is an
// artifact of C string assembly, not part of the frame the bridge's
// peers agree on, so it is not reproduced here.
func (f Frame) Encode() ([]byte, error) {
	args, err := json.Marshal(f.Args)
	if err != nil {
		return nil, err
	}

	raw := wireFrame{
		rawUint(uint64(f.Cmd)),
		rawUint(f.Serial),
		rawUint(uint64(f.Subject)),
		args,
	}

	return json.Marshal(raw)
}

// Decode parses buf as a [cmd, serial, subject, args] frame.
func Decode(buf []byte) (Frame, error) {
	var raw wireFrame
	if err := json.Unmarshal(buf, &raw); err != nil {
		return Frame{}, errMalformedFrame()
	}

	var cmd uint8
	if err := json.Unmarshal(raw[0], &cmd); err != nil {
		return Frame{}, errMalformedFrame()
	}

	var serial uint64
	if err := json.Unmarshal(raw[1], &serial); err != nil {
		return Frame{}, errMalformedFrame()
	}

	var subject uint32
	if err := json.Unmarshal(raw[2], &subject); err != nil {
		return Frame{}, errMalformedFrame()
	}

	var args string
	if err := json.Unmarshal(raw[3], &args); err != nil {
		return Frame{}, errMalformedFrame()
	}

	return Frame{
		Cmd:     Command(cmd),
		Serial:  serial,
		Subject: subject,
		Args:    args,
	}, nil
}

func rawUint(v uint64) json.RawMessage {
	b, _ := json.Marshal(v)
	return b
}
