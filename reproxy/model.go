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

package reproxy

import (
	"context"
	"net"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type backend struct {
	mx sync.Mutex

	conn  net.Conn
	state State
	last  time.Time
}

func newBackend(conn net.Conn) *backend {
	return &backend{conn: conn, state: StateConnecting, last: time.Now()}
}

func (b *backend) Conn() net.Conn { return b.conn }

func (b *backend) State() State {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.state
}

func (b *backend) setState(s State) {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.state = s
}

func (b *backend) LastActivity() time.Time {
	b.mx.Lock()
	defer b.mx.Unlock()
	return b.last
}

func (b *backend) touch() {
	b.mx.Lock()
	defer b.mx.Unlock()
	b.last = time.Now()
}

func (b *backend) Doubtful(idleTimeout time.Duration) bool {
	return time.Since(b.LastActivity()) > idleTimeout
}

func (b *backend) Close() error {
	b.setState(StateClosed)
	return b.conn.Close()
}

// waiter is one blocked Acquire call awaiting a bridge, per spec.md
// §4.D's "a client is awaiting" condition.
type waiter chan *backend

type pool struct {
	mx sync.Mutex

	dial DialFunc
	cfg  *PoolConfig

	free    []*backend
	waiters []waiter
	total   int
	busy    int
	closed  bool
	cancel  context.CancelFunc

	idleTimeout time.Duration

	gaugeConnecting prometheus.Gauge
	gaugeFree       prometheus.Gauge
	gaugeBusy       prometheus.Gauge
	gaugeIdleTO     prometheus.Gauge
}

func newPool(dial DialFunc, cfg *PoolConfig) *pool {
	p := &pool{
		dial:        dial,
		cfg:         cfg,
		idleTimeout: cfg.BridgeIdleTimeout.Time(),

		gaugeConnecting: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventdance", Subsystem: "reproxy", Name: "bridges_connecting",
			Help: "Number of reproxy bridges currently connecting.",
		}),
		gaugeFree: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventdance", Subsystem: "reproxy", Name: "bridges_free",
			Help: "Number of reproxy bridges idle in the free queue.",
		}),
		gaugeBusy: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventdance", Subsystem: "reproxy", Name: "bridges_busy",
			Help: "Number of reproxy bridges currently paired with a client.",
		}),
		gaugeIdleTO: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "eventdance", Subsystem: "reproxy", Name: "bridge_idle_timeout_seconds",
			Help: "Current learned idle-timeout applied to free bridges.",
		}),
	}

	return p
}

func (p *pool) Collectors() []prometheus.Collector {
	return []prometheus.Collector{p.gaugeConnecting, p.gaugeFree, p.gaugeBusy, p.gaugeIdleTO}
}

func (p *pool) Start(ctx context.Context) {
	runCtx, cancel := context.WithCancel(ctx)

	p.mx.Lock()
	p.cancel = cancel
	min := p.cfg.MinPoolSize
	p.mx.Unlock()

	for i := 0; i < min; i++ {
		p.spawnConnect(runCtx)
	}

	go func() {
		<-runCtx.Done()
		_ = p.Stop()
	}()
}

// spawnConnect dials one new bridge in the background, counted as
// connecting until it either succeeds (onConnected) or fails (dropped,
// total decremented).
func (p *pool) spawnConnect(ctx context.Context) {
	p.mx.Lock()
	if p.closed {
		p.mx.Unlock()
		return
	}
	p.total++
	connecting := p.total - len(p.free) - p.busy
	p.mx.Unlock()

	p.gaugeConnecting.Set(float64(connecting))

	go func() {
		conn, err := p.dial(ctx)

		p.mx.Lock()
		if err != nil || p.closed {
			p.total--
			p.mx.Unlock()
			if conn != nil {
				_ = conn.Close()
			}
			return
		}
		p.mx.Unlock()

		p.onConnected(ctx, newBackend(conn))
	}()
}

// onConnected implements spec.md §4.D's pairing rule.
func (p *pool) onConnected(ctx context.Context, b *backend) {
	p.mx.Lock()

	var (
		deliverTo waiter
		deliver   *backend
	)

	if len(p.waiters) > 0 {
		if len(p.free) > 0 {
			p.free = append(p.free, b)
			deliver = p.free[0]
			p.free = p.free[1:]
		} else {
			deliver = b
		}
		deliverTo = p.waiters[0]
		p.waiters = p.waiters[1:]
		p.busy++
	} else {
		b.setState(StateFree)
		b.touch()
		p.free = append(p.free, b)
	}

	p.mx.Unlock()

	if deliverTo != nil {
		deliver.setState(StateBusy)
		deliver.touch()
		deliverTo <- deliver
	}

	p.updateGauges()
	p.maybeGrow(ctx)
}

// maybeGrow implements spec.md §4.D's proactive growth rule.
func (p *pool) maybeGrow(ctx context.Context) {
	p.mx.Lock()
	awaiting := len(p.waiters) > 0
	belowMin := len(p.free) < p.cfg.MinPoolSize
	canGrow := p.total < p.cfg.MaxPoolSize
	p.mx.Unlock()

	if (awaiting || belowMin) && canGrow {
		p.spawnConnect(ctx)
	}
}

func (p *pool) Acquire(ctx context.Context) (Backend, error) {
	p.mx.Lock()
	if p.closed {
		p.mx.Unlock()
		return nil, ErrorPoolClosed.Error(nil)
	}

	if len(p.free) > 0 {
		b := p.free[0]
		p.free = p.free[1:]
		p.busy++
		p.mx.Unlock()

		b.setState(StateBusy)
		b.touch()
		p.updateGauges()
		return b, nil
	}

	w := make(waiter, 1)
	p.waiters = append(p.waiters, w)
	p.mx.Unlock()

	p.maybeGrow(ctx)

	select {
	case b := <-w:
		return b, nil
	case <-ctx.Done():
		p.removeWaiter(w)
		return nil, ErrorAcquireCanceled.Error(ctx.Err())
	}
}

func (p *pool) removeWaiter(w waiter) {
	p.mx.Lock()
	defer p.mx.Unlock()

	for i, c := range p.waiters {
		if c == w {
			p.waiters = append(p.waiters[:i], p.waiters[i+1:]...)
			return
		}
	}
}

// Release implements spec.md §4.D's reuse-or-destroy rule and idle-timeout
// calibration on bridge error.
func (p *pool) Release(b Backend, err error) {
	bi, ok := b.(*backend)
	if !ok {
		return
	}

	if err != nil {
		p.calibrateOnError(bi)
	} else {
		bi.touch()
	}

	p.mx.Lock()
	p.total--
	p.busy--
	reuse := len(p.waiters) > 0 || p.total < p.cfg.MinPoolSize
	p.mx.Unlock()

	_ = bi.Close()

	if reuse {
		p.mx.Lock()
		closed := p.closed
		p.mx.Unlock()
		if !closed {
			p.spawnConnect(context.Background())
		}
	}

	p.updateGauges()
}

func (p *pool) calibrateOnError(b *backend) {
	interval := time.Since(b.LastActivity())

	p.mx.Lock()
	if interval < p.idleTimeout {
		p.idleTimeout = interval
	}
	timeout := p.idleTimeout

	var toClose []*backend
	remaining := p.free[:0:0]
	for _, f := range p.free {
		if f.Doubtful(timeout) {
			toClose = append(toClose, f)
		} else {
			remaining = append(remaining, f)
		}
	}
	p.free = remaining
	p.mx.Unlock()

	for _, f := range toClose {
		_ = f.Close()
	}

	p.gaugeIdleTO.Set(timeout.Seconds())
}

func (p *pool) RecordActivity(b Backend) {
	bi, ok := b.(*backend)
	if !ok {
		return
	}

	inactivity := time.Since(bi.LastActivity())

	p.mx.Lock()
	if inactivity > p.idleTimeout {
		p.idleTimeout = inactivity
	}
	timeout := p.idleTimeout
	p.mx.Unlock()

	bi.touch()
	p.gaugeIdleTO.Set(timeout.Seconds())
}

func (p *pool) Stats() (connecting, free, busy int) {
	p.mx.Lock()
	defer p.mx.Unlock()

	free = len(p.free)
	busy = p.busy
	connecting = p.total - free - busy
	return
}

func (p *pool) IdleTimeout() time.Duration {
	p.mx.Lock()
	defer p.mx.Unlock()
	return p.idleTimeout
}

func (p *pool) updateGauges() {
	connecting, free, busy := p.Stats()
	p.gaugeConnecting.Set(float64(connecting))
	p.gaugeFree.Set(float64(free))
	p.gaugeBusy.Set(float64(busy))
}

func (p *pool) Stop() error {
	p.mx.Lock()
	if p.closed {
		p.mx.Unlock()
		return nil
	}
	p.closed = true
	cancel := p.cancel
	free := p.free
	p.free = nil
	waiters := p.waiters
	p.waiters = nil
	p.mx.Unlock()

	if cancel != nil {
		cancel()
	}

	for _, w := range waiters {
		close(w)
	}

	var firstErr error
	for _, b := range free {
		if err := b.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}
