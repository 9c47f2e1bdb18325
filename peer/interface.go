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

// Package peer implements spec.md §4.E's logical endpoint identity
// (component H) and the manager that owns peers by id and sweeps the
// dead ones (component I). A Peer outlives any single physical
// connection: it weak-references the transport currently carrying it
// through the minimal TransportRef contract below, so package transport
// can depend on package peer without peer ever depending back on
// transport.
package peer

import (
	"context"
	"time"

	liberr "github.com/nabbar/eventdance/errors"
)

// TransportRef is the subset of the full transport.Transport contract
// (component J) a Peer needs to reach its carrier: deliver a message,
// ask whether the carrier considers itself connected, and ask it to
// close this peer. package transport's Transport interface embeds this
// one, so every concrete transport satisfies it automatically.
type TransportRef interface {
	// Send delivers buf to the remote side through this peer's current
	// transport, reporting whether it was handed off immediately.
	Send(p Peer, buf []byte) bool
	// PeerIsConnected reports whether the transport still considers p
	// reachable right now (independent of Peer.IsAlive's liveness
	// timestamp check).
	PeerIsConnected(p Peer) bool
	// ClosePeer asks the transport to tear p down; implementations MUST
	// make this idempotent (spec.md §4.E), which Peer.MarkClosing exists
	// to support.
	ClosePeer(p Peer, gracefully bool) error
	// Receive reads p's current synchronously-delivered inbound buffer,
	// valid only during the transport's own dispatch of one receive
	// event (spec.md §3's "Transport-level message").
	Receive(p Peer) []byte
}

// Peer is spec.md §3's data model: identity, backlog, liveness and a
// transport back-reference, component H.
type Peer interface {
	// ID is the peer's UUID identity string.
	ID() string

	// Transport returns the TransportRef this peer currently carries
	// traffic through.
	Transport() TransportRef

	// Send hands buf to the current transport, returning whether it
	// was delivered (or queued) immediately.
	Send(buf []byte) bool
	// Receive reads the transport's current synchronously-delivered
	// inbound buffer for this peer.
	Receive() []byte

	// BacklogPush appends frame to this peer's bounded backlog, for
	// transports that cannot deliver immediately (spec.md §4.E: a
	// long-poll channel not yet attached, for instance). Oldest frames
	// are dropped once the backlog is full.
	BacklogPush(frame []byte)
	// BacklogPop removes and returns the oldest backlog frame in FIFO
	// order, draining the queue a transport replays on (re-)attach.
	BacklogPop() ([]byte, bool)
	// BacklogLen reports how many frames are currently queued.
	BacklogLen() int

	// Touch refreshes the peer's last-activity timestamp, extending its
	// liveness window.
	Touch()
	// LastActivity reports when Touch was last called.
	LastActivity() time.Time
	// IsAlive implements spec.md §3: alive iff the transport reports the
	// peer connected, or time-since-last-activity is under the
	// manager's configured peer-timeout.
	IsAlive() bool

	// MarkClosing atomically transitions the peer into its closing
	// state, returning true only for the call that performed the
	// transition - the mechanism spec.md §4.E's idempotent ClosePeer is
	// built on.
	MarkClosing() bool
	// Closing reports whether MarkClosing has already succeeded once.
	Closing() bool
	// Close runs MarkClosing then asks the transport to tear the peer
	// down; a no-op on every call after the first.
	Close(gracefully bool) error

	// UserData returns the opaque value most recently passed to
	// SetUserData, or nil.
	UserData() interface{}
	// SetUserData attaches an opaque value to the peer for the caller's
	// own bookkeeping.
	SetUserData(v interface{})
}

// Manager owns peers by id (component I) and sweeps dead ones on a
// cleanup-interval timer, matching evd-peer-manager.c's GTimer-gated
// cleanup_peers.
type Manager interface {
	// NewPeer creates and registers a new Peer carried by t, generating
	// its id with hashicorp/go-uuid, and fires OnNewPeer.
	NewPeer(t TransportRef) (Peer, error)

	// Lookup returns the peer for id, purging it first if it is no
	// longer alive (spec.md §8's "lookup additionally purges a dead
	// entry on sight").
	Lookup(id string) (Peer, bool)
	// GetAllPeers returns every currently-registered peer, after purging
	// any that are no longer alive.
	GetAllPeers() []Peer

	// OnNewPeer registers the callback fired once per NewPeer call.
	OnNewPeer(fn func(p Peer))
	// OnPeerClosed registers the callback fired once per peer removed
	// by a sweep or by Lookup's purge-on-sight, or by an explicit
	// Remove call.
	OnPeerClosed(fn func(p Peer))

	// Remove unregisters id unconditionally (used by transports after a
	// graceful ClosePeer completes) and fires OnPeerClosed if it was
	// present.
	Remove(id string)

	// Start begins the background sweep loop, gated by ctx.
	Start(ctx context.Context)
	// Stop halts the background sweep loop.
	Stop()

	// PeerTimeout returns the manager's configured peer liveness window.
	PeerTimeout() time.Duration
}

// ManagerConfig carries spec.md §6's peer manager configuration surface.
type ManagerConfig struct {
	CleanupInterval time.Duration `mapstructure:"cleanupInterval" json:"cleanupInterval" yaml:"cleanupInterval" toml:"cleanupInterval" validate:"gte=0"`
	PeerTimeout     time.Duration `mapstructure:"peerTimeout" json:"peerTimeout" yaml:"peerTimeout" toml:"peerTimeout" validate:"gte=0"`
	BacklogSize     int           `mapstructure:"backlogSize" json:"backlogSize" yaml:"backlogSize" toml:"backlogSize" validate:"gte=0"`
}

// DefaultCleanupInterval is spec.md §6's default sweep period.
const DefaultCleanupInterval = 10 * time.Second

// DefaultPeerTimeout is the liveness window used by spec.md §8 scenario 5.
const DefaultPeerTimeout = 30 * time.Second

// DefaultBacklogSize bounds a peer's in-memory backlog per spec.md §1's
// non-goal "durable message persistence beyond a bounded in-memory
// backlog".
const DefaultBacklogSize = 256

// Validate runs go-playground/validator/v10 over the struct tags,
// following certificates.Config.Validate's error-wrapping convention.
func (c *ManagerConfig) Validate() liberr.Error {
	return validateManagerConfig(c)
}

// New builds a ManagerConfig with spec.md §6 defaults applied.
func New() *ManagerConfig {
	return &ManagerConfig{
		CleanupInterval: DefaultCleanupInterval,
		PeerTimeout:     DefaultPeerTimeout,
		BacklogSize:     DefaultBacklogSize,
	}
}

// NewFrom merges the receiver's non-zero fields over base (or over New()
// if base is nil).
func (c *ManagerConfig) NewFrom(base *ManagerConfig) *ManagerConfig {
	t := base
	if t == nil {
		t = New()
	}

	r := *t

	if c.CleanupInterval != 0 {
		r.CleanupInterval = c.CleanupInterval
	}
	if c.PeerTimeout != 0 {
		r.PeerTimeout = c.PeerTimeout
	}
	if c.BacklogSize != 0 {
		r.BacklogSize = c.BacklogSize
	}

	return &r
}

// NewManager creates a Manager configured by cfg (nil uses New()'s
// defaults).
func NewManager(cfg *ManagerConfig) Manager {
	if cfg == nil {
		cfg = New()
	}
	return newManager(cfg)
}

var defaultManager Manager

// DefaultManager returns a lazily-created, process-wide Manager, matching
// spec.md §9's re-expression of the source's global default peer manager
// singleton: explicit construction is always available via NewManager,
// this accessor exists purely for callers that want the teacher's
// certificates.Default package-var convenience without wiring their own
// instance through every call site.
func DefaultManager() Manager {
	if defaultManager == nil {
		defaultManager = NewManager(New())
	}
	return defaultManager
}
