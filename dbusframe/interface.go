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

// Package dbusframe implements spec.md §6's D-Bus bridge wire format: a
// pure encode/decode boundary over the four-element JSON array frame an
// out-of-core dispatcher consumes. Dispatch of the decoded command is
// explicitly out of scope (spec.md §1's "D-Bus agent and D-Bus bridge
// command dispatch" exclusion); this package only gets bytes in and out
// faithfully.
package dbusframe

import "encoding/json"

// Command is the first element of a frame, spec.md §6's selected command
// set.
type Command uint8

const (
	CmdError            Command = 1
	CmdReply            Command = 2
	CmdNewConnection    Command = 3
	CmdCloseConnection  Command = 4
	CmdOwnName          Command = 5
	CmdUnownName        Command = 6
	CmdNameAcquired     Command = 7
	CmdNameLost         Command = 8
	CmdRegisterObject   Command = 9
	CmdUnregisterObject Command = 10
	CmdNewProxy         Command = 11
	CmdCloseProxy       Command = 12
	CmdCallMethod       Command = 13
	CmdCallMethodReturn Command = 14
	CmdEmitSignal       Command = 15
)

// ErrorCode is the payload of a CmdError frame's args, spec.md §6's
// selected error set.
type ErrorCode uint8

const (
	ErrFailed            ErrorCode = 0
	ErrInvalidMsg        ErrorCode = 1
	ErrUnknownCommand    ErrorCode = 2
	ErrInvalidSubject    ErrorCode = 3
	ErrInvalidArgs       ErrorCode = 4
	ErrConnectionFailed  ErrorCode = 5
	ErrAlreadyRegistered ErrorCode = 6
	ErrProxyFailed       ErrorCode = 7
	ErrUnknownMethod     ErrorCode = 8
)

// Frame is spec.md §6's four-element D-Bus bridge frame:
// [cmd:uint8, serial:uint64, subject:uint32, args:string]. Args carries
// a typed tuple whose shape depends on Cmd, opaque to this package.
type Frame struct {
	Cmd     Command
	Serial  uint64
	Subject uint32
	Args    string
}

// wireFrame is the literal 4-element JSON array shape a Frame encodes
// to/from; encoding/json has no positional-tuple support, so this
// package implements the array framing itself via Frame.Encode and
// Decode (see codec.go) rather than a generated struct tag scheme.
type wireFrame [4]json.RawMessage
