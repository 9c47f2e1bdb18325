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

package reactor

import (
	"container/heap"
	"context"
	"sync"
	"sync/atomic"

	"github.com/nabbar/eventdance/socket/config"
)

// mailboxEvent is what the poller (or Post) enqueues; conditions
// coalesce by bitwise OR when several edges arrive before the dispatcher
// drains them.
type mailboxEvent struct {
	tok  Token
	cond Condition
}

type registration struct {
	handler Handler
	prio    config.Priority
	mask    Condition
	stop    func()
}

// pqItem is one pending dispatch in the reactor's indexed priority
// queue (container/heap), grounded in the teacher's collection-
// management idiom (httpserver/pool's Store/Load/Walk over a guarded
// map) generalized to an ordered structure.
type pqItem struct {
	tok   Token
	cond  Condition
	prio  config.Priority
	index int
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	return pq[i].prio > pq[j].prio
}
func (pq priorityQueue) Swap(i, j int) {
	pq[i], pq[j] = pq[j], pq[i]
	pq[i].index = i
	pq[j].index = j
}
func (pq *priorityQueue) Push(x interface{}) {
	item := x.(*pqItem)
	item.index = len(*pq)
	*pq = append(*pq, item)
}
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	item.index = -1
	*pq = old[:n-1]
	return item
}

type reactor struct {
	mx   sync.RWMutex
	regs map[Token]*registration
	next uint64

	mailbox chan mailboxEvent

	pending      priorityQueue
	pendingByTok map[Token]*pqItem
	pendingMx    sync.Mutex
	pendingCond  *sync.Cond

	poll   pollerState
	crypto *cryptoPool
}

func newReactor() *reactor {
	r := &reactor{
		regs:         make(map[Token]*registration),
		mailbox:      make(chan mailboxEvent, 1024),
		pending:      make(priorityQueue, 0),
		pendingByTok: make(map[Token]*pqItem),
		crypto:       newCryptoPool(),
	}
	r.pendingCond = sync.NewCond(&r.pendingMx)
	return r
}

// Offload runs fn on the reactor's bounded background crypto worker pool
// (spec.md §5: CPU-bound crypto never runs on the reactor goroutine).
// fn is responsible for posting its own completion back via Post once it
// has a result to deliver.
func (r *reactor) Offload(tok Token, fn func()) {
	r.crypto.offload(r, tok, fn)
}

func (r *reactor) Watch(conn Pollable, mask Condition, prio config.Priority, handler Handler) (Token, error) {
	tok := Token(atomic.AddUint64(&r.next, 1))

	stop, err := r.startPoller(conn, tok, mask)
	if err != nil {
		return 0, err
	}

	r.mx.Lock()
	r.regs[tok] = &registration{handler: handler, prio: prio, mask: mask, stop: stop}
	r.mx.Unlock()

	return tok, nil
}

func (r *reactor) Rearm(tok Token, mask Condition) error {
	r.mx.Lock()
	reg, ok := r.regs[tok]
	if ok {
		reg.mask = mask
	}
	r.mx.Unlock()

	if !ok {
		return ErrorUnknownToken.Error(nil)
	}

	return r.rearmPoller(tok, mask)
}

func (r *reactor) SetPriority(tok Token, prio config.Priority) {
	r.mx.Lock()
	defer r.mx.Unlock()

	if reg, ok := r.regs[tok]; ok {
		reg.prio = prio
	}
}

func (r *reactor) Unwatch(tok Token) {
	r.mx.Lock()
	reg, ok := r.regs[tok]
	if ok {
		delete(r.regs, tok)
	}
	r.mx.Unlock()

	if ok && reg.stop != nil {
		reg.stop()
	}

	r.pendingMx.Lock()
	if item, ok := r.pendingByTok[tok]; ok {
		heap.Remove(&r.pending, item.index)
		delete(r.pendingByTok, tok)
	}
	r.pendingMx.Unlock()
}

func (r *reactor) Post(tok Token, cond Condition) {
	select {
	case r.mailbox <- mailboxEvent{tok: tok, cond: cond}:
	default:
		// mailbox full: drop into a blocking send rather than lose the
		// event outright; a saturated mailbox means the dispatcher is
		// behind, not that the event is stale.
		r.mailbox <- mailboxEvent{tok: tok, cond: cond}
	}
}

// Run drives two loops: one drains the mailbox into the priority queue
// (coalescing repeat conditions for the same token), the other pops the
// highest-priority pending dispatch and invokes its handler. Handlers
// for the same token never overlap because the dispatch loop is single-
// threaded.
func (r *reactor) Run(ctx context.Context) error {
	done := make(chan struct{})

	go func() {
		defer close(done)
		r.drainMailbox(ctx)
	}()

	r.dispatchLoop(ctx)
	<-done
	r.stopPoller()

	r.mx.Lock()
	regs := make([]*registration, 0, len(r.regs))
	for _, reg := range r.regs {
		regs = append(regs, reg)
	}
	r.regs = make(map[Token]*registration)
	r.mx.Unlock()

	for _, reg := range regs {
		if reg.stop != nil {
			reg.stop()
		}
	}

	return nil
}

func (r *reactor) drainMailbox(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-r.mailbox:
			r.pendingMx.Lock()
			if item, ok := r.pendingByTok[ev.tok]; ok {
				item.cond |= ev.cond
			} else {
				r.mx.RLock()
				reg, known := r.regs[ev.tok]
				r.mx.RUnlock()

				if known {
					item := &pqItem{tok: ev.tok, cond: ev.cond, prio: reg.prio}
					r.pendingByTok[ev.tok] = item
					heap.Push(&r.pending, item)
				}
			}
			r.pendingCond.Signal()
			r.pendingMx.Unlock()
		}
	}
}

func (r *reactor) dispatchLoop(ctx context.Context) {
	for {
		item := r.popPending(ctx)
		if item == nil {
			return
		}

		r.mx.RLock()
		reg, ok := r.regs[item.tok]
		r.mx.RUnlock()

		if ok {
			reg.handler(item.cond)
		}
	}
}

func (r *reactor) popPending(ctx context.Context) *pqItem {
	r.pendingMx.Lock()
	defer r.pendingMx.Unlock()

	for r.pending.Len() == 0 {
		if ctx.Err() != nil {
			return nil
		}

		waitDone := make(chan struct{})
		go func() {
			select {
			case <-ctx.Done():
				r.pendingMx.Lock()
				r.pendingCond.Broadcast()
				r.pendingMx.Unlock()
			case <-waitDone:
			}
		}()

		r.pendingCond.Wait()
		close(waitDone)

		if ctx.Err() != nil {
			return nil
		}
	}

	item := heap.Pop(&r.pending).(*pqItem)
	delete(r.pendingByTok, item.tok)
	return item
}
