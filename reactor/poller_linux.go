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

//go:build linux

package reactor

import (
	"sync"

	"golang.org/x/sys/unix"
)

// linuxPoller wraps a single epoll instance shared by every registration
// made against one reactor. A background goroutine blocks in EpollWait
// and posts observed conditions into the reactor mailbox; this is the
// real, efficient backend referenced by spec.md §4.A ("a platform
// poller"), as opposed to the portable fallback in poller_other.go.
type linuxPoller struct {
	mx    sync.Mutex
	epfd  int
	fds   map[int]Token
	close chan struct{}
}

// pollerState holds the platform poller's lazily-created backend; its
// shape differs per build (poller_other.go defines the portable variant).
type pollerState struct {
	once sync.Once
	err  error
	p    *linuxPoller
}

func (r *reactor) poller() *linuxPoller {
	r.poll.once.Do(func() {
		epfd, err := unix.EpollCreate1(unix.EPOLL_CLOEXEC)
		if err != nil {
			r.poll.err = err
			return
		}

		p := &linuxPoller{epfd: epfd, fds: make(map[int]Token), close: make(chan struct{})}
		r.poll.p = p
		go r.runEpollLoop(p)
	})
	return r.poll.p
}

func toEpollEvents(mask Condition) uint32 {
	var ev uint32
	if mask.Has(Readable) {
		ev |= unix.EPOLLIN
	}
	if mask.Has(Writable) {
		ev |= unix.EPOLLOUT
	}
	// edge-triggered: the caller must re-arm after each dispatch, matching
	// spec.md §3's watched/observed distinction.
	ev |= unix.EPOLLET
	return ev
}

func fromEpollEvents(ev uint32) Condition {
	var cond Condition
	if ev&(unix.EPOLLIN|unix.EPOLLPRI) != 0 {
		cond |= Readable
	}
	if ev&unix.EPOLLOUT != 0 {
		cond |= Writable
	}
	if ev&unix.EPOLLHUP != 0 || ev&unix.EPOLLRDHUP != 0 {
		cond |= Hangup
	}
	if ev&unix.EPOLLERR != 0 {
		cond |= ErrorCond
	}
	return cond
}

func (r *reactor) startPoller(conn Pollable, tok Token, mask Condition) (func(), error) {
	p := r.poller()
	if p == nil {
		return nil, ErrorPollerRegister.Error(r.poll.err)
	}

	raw, err := conn.SyscallConn()
	if err != nil {
		return nil, ErrorPollerRegister.Error(err)
	}

	var regErr error
	var fd int
	ctlErr := raw.Control(func(fdv uintptr) {
		fd = int(fdv)
		ev := &unix.EpollEvent{Events: toEpollEvents(mask), Fd: int32(fd)}
		regErr = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_ADD, fd, ev)
	})
	if ctlErr != nil {
		return nil, ErrorPollerRegister.Error(ctlErr)
	}
	if regErr != nil {
		return nil, ErrorPollerRegister.Error(regErr)
	}

	p.mx.Lock()
	p.fds[fd] = tok
	p.mx.Unlock()

	stop := func() {
		p.mx.Lock()
		delete(p.fds, fd)
		p.mx.Unlock()
		_ = unix.EpollCtl(p.epfd, unix.EPOLL_CTL_DEL, fd, nil)
	}

	return stop, nil
}

func (r *reactor) rearmPoller(tok Token, mask Condition) error {
	p := r.poll.p
	if p == nil {
		return nil
	}

	p.mx.Lock()
	var fd int
	found := false
	for k, v := range p.fds {
		if v == tok {
			fd = k
			found = true
			break
		}
	}
	p.mx.Unlock()

	if !found {
		return nil
	}

	ev := &unix.EpollEvent{Events: toEpollEvents(mask), Fd: int32(fd)}
	if err := unix.EpollCtl(p.epfd, unix.EPOLL_CTL_MOD, fd, ev); err != nil {
		return ErrorPollerRearm.Error(err)
	}
	return nil
}

func (r *reactor) stopPoller() {
	if p := r.poll.p; p != nil {
		close(p.close)
		_ = unix.Close(p.epfd)
	}
}

func (r *reactor) runEpollLoop(p *linuxPoller) {
	events := make([]unix.EpollEvent, 128)

	for {
		select {
		case <-p.close:
			return
		default:
		}

		n, err := unix.EpollWait(p.epfd, events, 250)
		if err != nil {
			if err == unix.EINTR {
				continue
			}
			return
		}

		for i := 0; i < n; i++ {
			p.mx.Lock()
			tok, ok := p.fds[int(events[i].Fd)]
			p.mx.Unlock()

			if ok {
				r.Post(tok, fromEpollEvents(events[i].Events))
			}
		}
	}
}
