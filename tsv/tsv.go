// Copyright 2025 The Gati Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tsv implements Time-Stamped Version identifiers: opaque strings
// of the form "tsv:<unix-ms>-<shorthash>-<seq>" that are totally ordered by
// their embedded millisecond timestamp.
package tsv

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrInvalidFormat is returned when a string does not parse as a TSV.
var ErrInvalidFormat = errors.New("tsv: invalid format")

const prefix = "tsv:"

// TSV is an opaque, totally-ordered version identifier. Equality is
// byte-string equality; ordering is by the embedded millisecond timestamp,
// with the sequence number as a tiebreaker for identifiers minted in the
// same millisecond.
type TSV string

// New mints a TSV for the given unix-millisecond timestamp, short hash, and
// monotonic sequence number.
func New(unixMs int64, shortHash string, seq int) TSV {
	return TSV(fmt.Sprintf("%s%d-%s-%d", prefix, unixMs, shortHash, seq))
}

// Generate mints a TSV stamped with the given unix-millisecond timestamp
// and a random short hash, using seq as the sequence number. Callers that
// need a reproducible sequence for the same millisecond should prefer New.
func Generate(unixMs int64, seq int) (TSV, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("tsv: generate short hash: %w", err)
	}
	return New(unixMs, hex.EncodeToString(buf), seq), nil
}

// parts holds the decoded fields of a TSV.
type parts struct {
	unixMs    int64
	shortHash string
	seq       int
}

func (t TSV) parse() (parts, error) {
	s := string(t)
	rest, ok := strings.CutPrefix(s, prefix)
	if !ok {
		return parts{}, fmt.Errorf("%w: %q missing %q prefix", ErrInvalidFormat, s, prefix)
	}

	segs := strings.SplitN(rest, "-", 3)
	if len(segs) != 3 {
		return parts{}, fmt.Errorf("%w: %q does not have three hyphen-separated segments", ErrInvalidFormat, s)
	}

	ms, err := strconv.ParseInt(segs[0], 10, 64)
	if err != nil {
		return parts{}, fmt.Errorf("%w: %q: bad timestamp segment: %v", ErrInvalidFormat, s, err)
	}

	seq, err := strconv.Atoi(segs[2])
	if err != nil {
		return parts{}, fmt.Errorf("%w: %q: bad sequence segment: %v", ErrInvalidFormat, s, err)
	}

	return parts{unixMs: ms, shortHash: segs[1], seq: seq}, nil
}

// Valid reports whether t parses as a well-formed TSV.
func (t TSV) Valid() bool {
	_, err := t.parse()
	return err == nil
}

// UnixMs returns the embedded millisecond timestamp. It returns 0 and false
// if t is not a well-formed TSV.
func (t TSV) UnixMs() (int64, bool) {
	p, err := t.parse()
	if err != nil {
		return 0, false
	}
	return p.unixMs, true
}

// Seq returns the embedded sequence number. It returns 0 and false if t is
// not a well-formed TSV.
func (t TSV) Seq() (int, bool) {
	p, err := t.parse()
	if err != nil {
		return 0, false
	}
	return p.seq, true
}

// Before reports whether t is strictly ordered before other, by embedded
// timestamp and then by sequence number. Malformed identifiers sort after
// all well-formed ones.
func (t TSV) Before(other TSV) bool {
	pt, errT := t.parse()
	po, errO := other.parse()
	switch {
	case errT != nil && errO != nil:
		return t < other
	case errT != nil:
		return false
	case errO != nil:
		return true
	case pt.unixMs != po.unixMs:
		return pt.unixMs < po.unixMs
	default:
		return pt.seq < po.seq
	}
}

// Compare returns -1, 0, or 1 if t is before, equal to, or after other.
func (t TSV) Compare(other TSV) int {
	switch {
	case t == other:
		return 0
	case t.Before(other):
		return -1
	default:
		return 1
	}
}

// Sort returns a new slice containing the elements of vs sorted ascending
// by embedded timestamp.
func Sort(vs []TSV) []TSV {
	out := make([]TSV, len(vs))
	copy(out, vs)
	insertionSort(out)
	return out
}

// insertionSort is used instead of sort.Slice because version chains are
// always small (bounded by maxHops) and this avoids pulling in reflection
// for what is, in practice, a handful of elements.
func insertionSort(vs []TSV) {
	for i := 1; i < len(vs); i++ {
		for j := i; j > 0 && vs[j].Before(vs[j-1]); j-- {
			vs[j], vs[j-1] = vs[j-1], vs[j]
		}
	}
}
