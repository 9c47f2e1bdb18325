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

package jsonrpc

import (
	"encoding/json"
	"fmt"
	"sync"

	libatomic "github.com/nabbar/eventdance/atomic"
	"github.com/nabbar/eventdance/peer"
	"github.com/nabbar/eventdance/transport"
)

// wireRequest is both an outbound call/notify and an inbound request on
// the wire: id is null for a notification (spec.md §4.F).
type wireRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// wireResponse carries exactly one of Result/Error non-null.
type wireResponse struct {
	ID     json.RawMessage `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// wireError is the shape written into wireResponse.Error by RespondError.
type wireError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// envelope is decoded first to classify an inbound object as a request
// (Method non-empty) or a response (Method empty).
type envelope struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method,omitempty"`
	Params json.RawMessage `json:"params,omitempty"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

type outboundRecord struct {
	completion CompletionFunc
	ctx        interface{}
}

type inboundRecord struct {
	origID json.RawMessage
	ctx    interface{}
}

// engine is Engine's concrete implementation. Outbound/inbound
// correlation tables are atomic.MapTyped (the teacher's generics-based
// concurrent map), matching peer.manager's choice of the same type for
// its own id-keyed table.
type engine struct {
	mx sync.Mutex

	prefix  string
	counter uint64
	handle  uint64

	writeFn      WriteFunc
	onMethodCall MethodCallFunc

	transports map[transport.Transport]struct{}
	decoders   map[peer.Peer]*boundaryDecoder

	outbound libatomic.MapTyped[string, *outboundRecord]
	inbound  libatomic.MapTyped[uint64, *inboundRecord]
}

func newEngine() *engine {
	e := &engine{
		transports: make(map[transport.Transport]struct{}),
		decoders:   make(map[peer.Peer]*boundaryDecoder),
		outbound:   libatomic.NewMapTyped[string, *outboundRecord](),
		inbound:    libatomic.NewMapTyped[uint64, *inboundRecord](),
	}
	e.prefix = fmt.Sprintf("%p", e)
	return e
}

func (e *engine) nextID() string {
	e.mx.Lock()
	e.counter++
	n := e.counter
	e.mx.Unlock()
	return fmt.Sprintf("%s.%d", e.prefix, n)
}

func (e *engine) nextHandle() uint64 {
	e.mx.Lock()
	e.handle++
	n := e.handle
	e.mx.Unlock()
	return n
}

func (e *engine) Call(method string, params []interface{}, ctx interface{}, completion CompletionFunc) (string, error) {
	if method == "" {
		return "", ErrorParamEmpty.Error(nil)
	}

	id := e.nextID()
	idRaw, _ := json.Marshal(id)

	buf, err := e.encodeRequest(idRaw, method, params)
	if err != nil {
		return "", err
	}

	e.outbound.Store(id, &outboundRecord{completion: completion, ctx: ctx})

	if err = e.write(ctx, buf); err != nil {
		e.outbound.Delete(id)
		return "", err
	}

	return id, nil
}

func (e *engine) Notify(method string, params []interface{}, ctx interface{}) error {
	if method == "" {
		return ErrorParamEmpty.Error(nil)
	}

	buf, err := e.encodeRequest(json.RawMessage("null"), method, params)
	if err != nil {
		return err
	}

	return e.write(ctx, buf)
}

func (e *engine) encodeRequest(id json.RawMessage, method string, params []interface{}) ([]byte, error) {
	var raw json.RawMessage
	if params != nil {
		p, err := json.Marshal(params)
		if err != nil {
			return nil, err
		}
		raw = p
	}

	return json.Marshal(wireRequest{ID: id, Method: method, Params: raw})
}

func (e *engine) Respond(handle uint64, result interface{}) error {
	return e.respond(handle, result, nil)
}

func (e *engine) RespondError(handle uint64, code int, message string) error {
	return e.respond(handle, nil, &wireError{Code: code, Message: message})
}

func (e *engine) respond(handle uint64, result interface{}, errObj *wireError) error {
	rec, ok := e.inbound.Load(handle)
	if !ok {
		return ErrorInvocationNotFound.Error(nil)
	}

	resp := wireResponse{ID: rec.origID}

	if errObj != nil {
		b, err := json.Marshal(errObj)
		if err != nil {
			return err
		}
		resp.Error = b
	} else {
		b, err := json.Marshal(result)
		if err != nil {
			return err
		}
		resp.Result = b
	}

	buf, err := json.Marshal(resp)
	if err != nil {
		return err
	}

	if err = e.write(rec.ctx, buf); err != nil {
		return err
	}

	e.inbound.Delete(handle)
	return nil
}

// write picks the per-call context per spec.md §4.F: a peer.Peer writes
// via its own transport, anything else falls back to the free-form
// WriteFunc, and with neither available the call fails outright.
func (e *engine) write(ctx interface{}, buf []byte) error {
	if p, ok := ctx.(peer.Peer); ok {
		if !p.Send(buf) {
			return ErrorNoTransport.Error(nil)
		}
		return nil
	}

	e.mx.Lock()
	fn := e.writeFn
	e.mx.Unlock()

	if fn == nil {
		return ErrorNoTransport.Error(nil)
	}

	return fn(buf)
}

func (e *engine) OnMethodCall(fn MethodCallFunc) {
	e.mx.Lock()
	e.onMethodCall = fn
	e.mx.Unlock()
}

func (e *engine) SetWriteFunc(fn WriteFunc) {
	e.mx.Lock()
	e.writeFn = fn
	e.mx.Unlock()
}

func (e *engine) Attach(t transport.Transport) error {
	if t == nil {
		return ErrorParamEmpty.Error(nil)
	}

	e.mx.Lock()
	e.transports[t] = struct{}{}
	e.mx.Unlock()

	t.OnReceive(func(p peer.Peer) {
		e.feed(p, p.Receive())
	})

	return nil
}

// Detach implements spec.md §9's re-expression of the engine's weak
// reference to its transports: on drop, the registration is removed and
// every outbound record whose call context is a peer carried by t
// completes with a transport-closed error instead of hanging forever.
func (e *engine) Detach(t transport.Transport) {
	e.mx.Lock()
	delete(e.transports, t)
	for p := range e.decoders {
		if p.Transport() == peer.TransportRef(t) {
			delete(e.decoders, p)
		}
	}
	e.mx.Unlock()

	var stale []string
	e.outbound.Range(func(id string, rec *outboundRecord) bool {
		if p, ok := rec.ctx.(peer.Peer); ok && p.Transport() == peer.TransportRef(t) {
			stale = append(stale, id)
		}
		return true
	})

	for _, id := range stale {
		rec, ok := e.outbound.Load(id)
		if !ok {
			continue
		}
		e.outbound.Delete(id)
		if rec.completion != nil {
			rec.completion(nil, &wireError{Message: "transport closed"})
		}
	}
}

// feed decodes whatever whole JSON objects buf completes for p's
// per-peer boundaryDecoder, dispatching each as a request or a response.
func (e *engine) feed(p peer.Peer, buf []byte) {
	e.mx.Lock()
	d := e.decoders[p]
	if d == nil {
		d = &boundaryDecoder{}
		e.decoders[p] = d
	}
	e.mx.Unlock()

	objects, err := d.feed(buf)
	if err != nil {
		return
	}

	for _, obj := range objects {
		e.dispatch(obj, p)
	}
}

func (e *engine) dispatch(obj []byte, ctx interface{}) {
	var env envelope
	if err := json.Unmarshal(obj, &env); err != nil {
		return
	}

	if env.Method != "" {
		e.dispatchRequest(env, ctx)
		return
	}

	e.dispatchResponse(env)
}

func (e *engine) dispatchRequest(env envelope, ctx interface{}) {
	var params []interface{}
	if len(env.Params) > 0 {
		_ = json.Unmarshal(env.Params, &params)
	}

	var isNull bool
	if len(env.ID) == 0 || string(env.ID) == "null" {
		isNull = true
	}

	var handle uint64
	if !isNull {
		handle = e.nextHandle()
		e.inbound.Store(handle, &inboundRecord{origID: env.ID, ctx: ctx})
	}

	e.mx.Lock()
	fn := e.onMethodCall
	e.mx.Unlock()

	if fn != nil {
		fn(env.Method, params, handle, ctx)
	}
}

// dispatchResponse implements spec.md §4.F's protocol-error rule: a
// response with both or neither of result/error completes with an
// error instead of either payload.
func (e *engine) dispatchResponse(env envelope) {
	var id string
	if err := json.Unmarshal(env.ID, &id); err != nil {
		return
	}

	rec, ok := e.outbound.Load(id)
	if !ok {
		return
	}
	e.outbound.Delete(id)

	if rec.completion == nil {
		return
	}

	hasResult := len(env.Result) > 0 && string(env.Result) != "null"
	hasError := len(env.Error) > 0 && string(env.Error) != "null"

	switch {
	case hasResult && !hasError:
		var result interface{}
		_ = json.Unmarshal(env.Result, &result)
		rec.completion(result, nil)
	case hasError && !hasResult:
		var errObj interface{}
		_ = json.Unmarshal(env.Error, &errObj)
		rec.completion(nil, errObj)
	default:
		rec.completion(nil, &wireError{Message: "malformed response: both or neither of result/error present"})
	}
}
