// Copyright 2017 Pilosa Corp.
//
// Redistribution and use in source and binary forms, with or without
// modification, are permitted provided that the following conditions
// are met:
//
// 1. Redistributions of source code must retain the above copyright
// notice, this list of conditions and the following disclaimer.
//
// 2. Redistributions in binary form must reproduce the above copyright
// notice, this list of conditions and the following disclaimer in the
// documentation and/or other materials provided with the distribution.
//
// 3. Neither the name of the copyright holder nor the names of its
// contributors may be used to endorse or promote products derived
// from this software without specific prior written permission.
//
// THIS SOFTWARE IS PROVIDED BY THE COPYRIGHT HOLDERS AND
// CONTRIBUTORS "AS IS" AND ANY EXPRESS OR IMPLIED WARRANTIES,
// INCLUDING, BUT NOT LIMITED TO, THE IMPLIED WARRANTIES OF
// MERCHANTABILITY AND FITNESS FOR A PARTICULAR PURPOSE ARE
// DISCLAIMED. IN NO EVENT SHALL THE COPYRIGHT HOLDER OR
// CONTRIBUTORS BE LIABLE FOR ANY DIRECT, INDIRECT, INCIDENTAL,
// SPECIAL, EXEMPLARY, OR CONSEQUENTIAL DAMAGES (INCLUDING,
// BUT NOT LIMITED TO, PROCUREMENT OF SUBSTITUTE GOODS OR
// SERVICES; LOSS OF USE, DATA, OR PROFITS; OR BUSINESS
// INTERRUPTION) HOWEVER CAUSED AND ON ANY THEORY OF LIABILITY,
// WHETHER IN CONTRACT, STRICT LIABILITY, OR TORT (INCLUDING
// NEGLIGENCE OR OTHERWISE) ARISING IN ANY WAY OUT OF THE USE
// OF THIS SOFTWARE, EVEN IF ADVISED OF THE POSSIBILITY OF SUCH
// DAMAGE.

package rdk

import (
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// Parser represents a single method for parsing a string cell to a value.
type Parser interface {
	Parse(string) (interface{}, error)
}

// FloatParser is a parser for numeric cells.
type FloatParser struct {
}

// TimeParser is a parser for temporal cells.
type TimeParser struct {
	Layout string
}

// CurrencyParser is a parser for numeric cells that may carry currency
// formatting: a dollar sign, thousands separators, interior spaces, or a
// parenthesized negative. A blank cell or a bare "-" placeholder is an
// error; callers typically map that to the missing-value marker.
type CurrencyParser struct {
}

// Parse parses a numeric string to a float64 value.
func (p FloatParser) Parse(field string) (result interface{}, err error) {
	return strconv.ParseFloat(strings.TrimSpace(field), 64)
}

// Parse parses a timestamp string to a time.Time value.
func (p TimeParser) Parse(field string) (result interface{}, err error) {
	return time.Parse(p.Layout, strings.TrimSpace(field))
}

// Parse strips currency formatting from a numeric string and parses what
// remains to a float64 value.
func (p CurrencyParser) Parse(field string) (result interface{}, err error) {
	s := strings.TrimSpace(field)
	if s == "" || s == "-" {
		return nil, errors.Errorf("no value in %q", field)
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case '$', ',', ' ':
			return -1
		}
		return r
	}, s)
	// Accounting exports put the sign in parens, sometimes outside the
	// currency symbol and sometimes inside, so strip symbols first.
	neg := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		neg = true
		s = s[1 : len(s)-1]
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, errors.Wrapf(err, "parsing %q", field)
	}
	if neg {
		v = -v
	}
	return v, nil
}
