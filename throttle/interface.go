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

// Package throttle implements the token-bucket-ish rate limiter of the
// stream stack: a bandwidth quota per calendar second plus a minimum
// inter-operation latency, shareable between several sockets.
package throttle

import (
	"time"

	"github.com/nabbar/eventdance/size"
)

// Grant is the result of a throttle request: how many of the requested
// bytes may proceed right now, and if fewer than requested, how long the
// caller should wait before asking again.
type Grant struct {
	Granted int
	Delay   time.Duration
}

// Config carries the bandwidth and latency parameters of section 6's
// socket configuration surface: bandwidth-in/out as a byte count per
// second (size.Size), latency-in/out as a time.Duration; New turns it
// into a Throttle.
type Config struct {
	BandwidthIn  size.Size     `mapstructure:"bandwidthIn" json:"bandwidthIn" yaml:"bandwidthIn" toml:"bandwidthIn"`
	BandwidthOut size.Size     `mapstructure:"bandwidthOut" json:"bandwidthOut" yaml:"bandwidthOut" toml:"bandwidthOut"`
	LatencyIn    time.Duration `mapstructure:"latencyIn" json:"latencyIn" yaml:"latencyIn" toml:"latencyIn"`
	LatencyOut   time.Duration `mapstructure:"latencyOut" json:"latencyOut" yaml:"latencyOut" toml:"latencyOut"`
}

// New builds a Throttle from the given Config. A zero Config yields an
// unthrottled limiter (every request is granted in full, with no delay).
func (c Config) New() Throttle {
	return &throttle{
		bwIn:  c.BandwidthIn.Int64(),
		bwOut: c.BandwidthOut.Int64(),
		ltIn:  c.LatencyIn,
		ltOut: c.LatencyOut,
	}
}

// Throttle is consulted by stream.Throttled before every read/write of a
// given size; it returns how many bytes may proceed and, if short, how
// long to wait. A Throttle may be shared across several sockets: every
// caller's request competes for the same rolling per-second counters.
type Throttle interface {
	// SetBandwidthIn sets the inbound bandwidth quota in bytes/second. 0 disables the cap.
	SetBandwidthIn(bw size.Size)
	// SetBandwidthOut sets the outbound bandwidth quota in bytes/second. 0 disables the cap.
	SetBandwidthOut(bw size.Size)
	// SetLatencyIn sets the minimum gap between inbound operations. 0 disables it.
	SetLatencyIn(lt time.Duration)
	// SetLatencyOut sets the minimum gap between outbound operations. 0 disables it.
	SetLatencyOut(lt time.Duration)

	// RequestRead asks for permission to read up to size bytes.
	RequestRead(size int) Grant
	// RequestWrite asks for permission to write up to size bytes.
	RequestWrite(size int) Grant
}

// New returns an unthrottled Throttle (equivalent to Config{}.New()).
func New() Throttle {
	return Config{}.New()
}

// Group aggregates several Throttles that must all agree before a
// request is granted: the group grants the minimum across members and
// delays for the maximum of their hints, so a socket attached to more
// than one throttle (e.g. a per-connection cap and a group-wide cap)
// never exceeds the tightest of them.
type Group []Throttle

func (g Group) RequestRead(n int) Grant {
	return g.request(n, Throttle.RequestRead)
}

func (g Group) RequestWrite(n int) Grant {
	return g.request(n, Throttle.RequestWrite)
}

func (g Group) request(n int, fn func(Throttle, int) Grant) Grant {
	if len(g) == 0 {
		return Grant{Granted: n}
	}

	res := Grant{Granted: n}

	for _, t := range g {
		if t == nil {
			continue
		}

		gr := fn(t, n)

		if gr.Granted < res.Granted {
			res.Granted = gr.Granted
		}

		if gr.Delay > res.Delay {
			res.Delay = gr.Delay
		}
	}

	return res
}
