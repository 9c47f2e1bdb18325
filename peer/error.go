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

package peer

import (
	"fmt"

	libval "github.com/go-playground/validator/v10"

	liberr "github.com/nabbar/eventdance/errors"
)

const (
	ErrorValidatorError liberr.CodeError = iota + liberr.MinPkgPeer
	ErrorParamEmpty
	ErrorUUIDGenerate
	ErrorPeerNotFound
	ErrorPeerClosed
)

var isCodeError = false

func IsCodeError() bool {
	return isCodeError
}

func init() {
	isCodeError = liberr.ExistInMapMessage(ErrorValidatorError)
	liberr.RegisterIdFctMessage(ErrorValidatorError, getMessage)
	liberr.RegisterIdFctMessage(ErrorParamEmpty, getMessage)
	liberr.RegisterIdFctMessage(ErrorUUIDGenerate, getMessage)
	liberr.RegisterIdFctMessage(ErrorPeerNotFound, getMessage)
	liberr.RegisterIdFctMessage(ErrorPeerClosed, getMessage)
}

//nolint goerr113
func errFieldConstraint(namespace, tag string) error {
	return fmt.Errorf("config field '%s' is not validated by constraint '%s'", namespace, tag)
}

func validateManagerConfig(c *ManagerConfig) liberr.Error {
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

func getMessage(code liberr.CodeError) (message string) {
	switch code {
	case liberr.UNK_ERROR:
		return ""
	case ErrorValidatorError:
		return "peer: invalid manager configuration"
	case ErrorParamEmpty:
		return "peer: missing required parameter"
	case ErrorUUIDGenerate:
		return "peer: failed generating a peer id"
	case ErrorPeerNotFound:
		return "peer: peer not found"
	case ErrorPeerClosed:
		return "peer: peer already closed"
	}

	return ""
}
