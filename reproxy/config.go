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
	"time"

	libval "github.com/go-playground/validator/v10"

	"github.com/nabbar/eventdance/duration"
	liberr "github.com/nabbar/eventdance/errors"
)

// DefaultBridgeIdleTimeout is spec.md §4.D's starting idle-timeout guess,
// refined afterward by observed bridge activity and errors.
const DefaultBridgeIdleTimeout = duration.Duration(60 * time.Second)

// PoolConfig carries spec.md §6's reproxy configuration surface: pool
// sizing bounds and the starting idle-timeout, validated and defaulted the
// same way certificates.Config and socket/config.Config are.
type PoolConfig struct {
	MinPoolSize       int               `mapstructure:"minPoolSize" json:"minPoolSize" yaml:"minPoolSize" toml:"minPoolSize" validate:"gte=0"`
	MaxPoolSize       int               `mapstructure:"maxPoolSize" json:"maxPoolSize" yaml:"maxPoolSize" toml:"maxPoolSize" validate:"gtefield=MinPoolSize"`
	BridgeIdleTimeout duration.Duration `mapstructure:"bridgeIdleTimeout" json:"bridgeIdleTimeout" yaml:"bridgeIdleTimeout" toml:"bridgeIdleTimeout"`
}

// Validate runs go-playground/validator/v10 over the struct tags,
// following certificates.Config.Validate's error-wrapping convention.
func (c *PoolConfig) Validate() liberr.Error {
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

// NewPoolConfig builds a PoolConfig with spec.md §4.D defaults: no
// minimum, an unbounded-in-practice maximum of 16, and the 60s starting
// idle-timeout.
func NewPoolConfig() *PoolConfig {
	return &PoolConfig{
		MinPoolSize:       0,
		MaxPoolSize:       16,
		BridgeIdleTimeout: DefaultBridgeIdleTimeout,
	}
}

// NewFrom merges the receiver's non-zero fields over base (or over
// NewPoolConfig() if base is nil).
func (c *PoolConfig) NewFrom(base *PoolConfig) *PoolConfig {
	t := base
	if t == nil {
		t = NewPoolConfig()
	}

	r := *t

	if c.MinPoolSize != 0 {
		r.MinPoolSize = c.MinPoolSize
	}
	if c.MaxPoolSize != 0 {
		r.MaxPoolSize = c.MaxPoolSize
	}
	if c.BridgeIdleTimeout != 0 {
		r.BridgeIdleTimeout = c.BridgeIdleTimeout
	}

	return &r
}
