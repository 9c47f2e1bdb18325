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

// Package config carries the per-socket configuration surface of spec.md
// §6: priority, connect timeout, throttle quotas and TLS autostart, plus
// the listen-backlog and address-shape knobs a socket.Socket needs to
// build its state machine.
package config

import (
	"net"
	"strings"
	"time"

	libval "github.com/go-playground/validator/v10"

	liberr "github.com/nabbar/eventdance/errors"
	"github.com/nabbar/eventdance/size"
)

// Priority orders event dispatch the way spec.md §4.A describes:
// listening sockets dispatch one step above default, connecting sockets
// two steps above default, connected sockets fall back to the
// user-configured default.
type Priority int8

const (
	PriorityLow Priority = iota
	PriorityDefault
	PriorityHigh
	PriorityUrgent
)

// Step returns the priority n steps above the receiver, clamped at
// PriorityUrgent. Used by the reactor to compute transient priorities
// (listening, connecting) without letting a socket escape the top of the
// scale.
func (p Priority) Step(n int8) Priority {
	v := int8(p) + n
	if v > int8(PriorityUrgent) {
		v = int8(PriorityUrgent)
	}
	if v < int8(PriorityLow) {
		v = int8(PriorityLow)
	}
	return Priority(v)
}

// AddressFamily is the result of classifying a configured address string
// per spec.md §6: a filesystem path is a UNIX domain socket, anything
// else is a host:port pair (IPv4, IPv6 or DNS name) resolved over TCP.
type AddressFamily uint8

const (
	AddressTCP AddressFamily = iota
	AddressUnix
)

// ClassifyAddress applies spec.md §6's address-shape detection: a string
// containing no colon, or one that fails net.SplitHostPort, is treated as
// a filesystem path (UNIX domain socket); otherwise it is host:port.
func ClassifyAddress(address string) AddressFamily {
	if !strings.Contains(address, ":") {
		return AddressUnix
	}

	if _, _, err := net.SplitHostPort(address); err != nil {
		return AddressUnix
	}

	return AddressTCP
}

// Config is the mapstructure/json/yaml/toml-tagged configuration surface
// a host application loads (directly or through spf13/viper) and turns
// into socket behavior with New/NewFrom, mirroring
// certificates.Config's Validate/New/NewFrom pattern.
type Config struct {
	Priority         Priority      `mapstructure:"priority" json:"priority" yaml:"priority" toml:"priority"`
	ConnectTimeout   time.Duration `mapstructure:"connectTimeout" json:"connectTimeout" yaml:"connectTimeout" toml:"connectTimeout"`
	BandwidthIn      size.Size     `mapstructure:"bandwidthIn" json:"bandwidthIn" yaml:"bandwidthIn" toml:"bandwidthIn"`
	BandwidthOut     size.Size     `mapstructure:"bandwidthOut" json:"bandwidthOut" yaml:"bandwidthOut" toml:"bandwidthOut"`
	LatencyIn        time.Duration `mapstructure:"latencyIn" json:"latencyIn" yaml:"latencyIn" toml:"latencyIn"`
	LatencyOut       time.Duration `mapstructure:"latencyOut" json:"latencyOut" yaml:"latencyOut" toml:"latencyOut"`
	TlsAutostart     bool          `mapstructure:"tlsAutostart" json:"tlsAutostart" yaml:"tlsAutostart" toml:"tlsAutostart"`
	RequirePeerCert  bool          `mapstructure:"requirePeerCert" json:"requirePeerCert" yaml:"requirePeerCert" toml:"requirePeerCert"`
	ListenBacklog    int           `mapstructure:"listenBacklog" json:"listenBacklog" yaml:"listenBacklog" toml:"listenBacklog" validate:"gte=0"`
}

// DefaultListenBacklog is spec.md §6's default listen backlog.
const DefaultListenBacklog = 10000

// Validate runs go-playground/validator/v10 over the struct tags,
// following certificates.Config.Validate's error-wrapping convention.
func (c *Config) Validate() liberr.Error {
	err := ErrorValidatorError.Error(nil)

	if er := libval.New().Struct(c); er != nil {
		if e, ok := er.(*libval.InvalidValidationError); ok {
			err.Add(e)
		}

		for _, e := range er.(libval.ValidationErrors) {
			//nolint goerr113
			err.Add(errFieldConstraint(e.StructNamespace(), e.ActualTag()))
		}
	}

	if err.HasParent() {
		return err
	}

	return nil
}

// New builds a Config with spec.md §6 defaults applied to every zero
// field: priority default, listen backlog 10000, no throttling, no TLS
// autostart.
func New() *Config {
	return &Config{
		Priority:      PriorityDefault,
		ListenBacklog: DefaultListenBacklog,
	}
}

// NewFrom merges the receiver's non-zero fields over base (or over New()
// if base is nil), the same "overlay over defaults" shape as
// certificates.Config.NewFrom.
func (c *Config) NewFrom(base *Config) *Config {
	t := base
	if t == nil {
		t = New()
	}

	r := *t

	if c.Priority != 0 {
		r.Priority = c.Priority
	}
	if c.ConnectTimeout != 0 {
		r.ConnectTimeout = c.ConnectTimeout
	}
	if c.BandwidthIn != 0 {
		r.BandwidthIn = c.BandwidthIn
	}
	if c.BandwidthOut != 0 {
		r.BandwidthOut = c.BandwidthOut
	}
	if c.LatencyIn != 0 {
		r.LatencyIn = c.LatencyIn
	}
	if c.LatencyOut != 0 {
		r.LatencyOut = c.LatencyOut
	}
	if c.TlsAutostart {
		r.TlsAutostart = true
	}
	if c.RequirePeerCert {
		r.RequirePeerCert = true
	}
	if c.ListenBacklog != 0 {
		r.ListenBacklog = c.ListenBacklog
	}

	return &r
}
