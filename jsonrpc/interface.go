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

// Package jsonrpc implements spec.md §4.F's component K: a request/
// response/notification framing engine layered over any number of
// attached transport.Transport values (or one free-form write
// callback), correlating outbound calls and inbound invocations by id
// through atomic.MapTyped tables.
package jsonrpc

import (
	"github.com/nabbar/eventdance/transport"
)

// CompletionFunc is invoked exactly once for an outbound Call, with
// exactly one of result/errObj non-nil (a well-formed response), or
// with errObj set to a protocol error otherwise.
type CompletionFunc func(result interface{}, errObj interface{})

// MethodCallFunc is invoked once per inbound request. handle is 0 when
// id was null on the wire - spec.md §9's open question, resolved here
// as "notification: no response expected" - any other value identifies
// an invocation the callback MUST eventually answer via Respond or
// RespondError.
type MethodCallFunc func(method string, params []interface{}, handle uint64, ctx interface{})

// WriteFunc is the engine's fallback writer for outbound bytes whose
// call context is not a peer.Peer.
type WriteFunc func(buf []byte) error

// Engine is spec.md §4.F's component K.
type Engine interface {
	// Call allocates an id, records (id -> completion) and writes a
	// request through ctx's transport (if ctx is a peer.Peer) or the
	// engine's WriteFunc otherwise.
	Call(method string, params []interface{}, ctx interface{}, completion CompletionFunc) (id string, err error)
	// Notify writes a request with a null id - no outbound record is
	// kept, since spec.md §3 defines a null id as "no response expected".
	Notify(method string, params []interface{}, ctx interface{}) error

	// Respond answers the inbound invocation handle with a successful
	// result.
	Respond(handle uint64, result interface{}) error
	// RespondError answers the inbound invocation handle with an error.
	RespondError(handle uint64, code int, message string) error

	// OnMethodCall registers the callback fired once per inbound request.
	OnMethodCall(fn MethodCallFunc)
	// SetWriteFunc registers the free-form writer used when a call's
	// context is not a peer.Peer.
	SetWriteFunc(fn WriteFunc)

	// Attach feeds t's inbound messages through the engine's JSON
	// boundary detector, and makes t a valid write target for calls
	// whose context is a peer carried by t.
	Attach(t transport.Transport) error
	// Detach stops feeding t's inbound messages to the engine and
	// completes, with a transport-closed error, every in-flight outbound
	// record whose call context was a peer carried by t.
	Detach(t transport.Transport)
}

// New creates an Engine with no attached transports and no write
// callback; both must be supplied before Call/Notify can deliver
// anything.
func New() Engine {
	return newEngine()
}
