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

// Package transform implements the Transformer Engine (spec §4.B): given
// an ordered version chain and a (src, dst) pair, it composes the
// per-hop request/response transformers that bridge the two versions.
package transform

import (
	"context"
	"fmt"
	"time"

	"github.com/krishnapaul242/gati-sub000/rerrors"
	"github.com/krishnapaul242/gati-sub000/tsv"
)

// Hard bounds from spec §4.B.
const (
	MaxHops         = 10
	StepTimeout     = 5 * time.Second
	FallbackOnError = false
)

// TransformFunc bridges one hop of a chain. It receives the accumulated
// data and returns the transformed data.
type TransformFunc func(ctx context.Context, data any) (any, error)

// Pair is a Transformer Pair (spec §3): the forward/reverse
// request/response transforms between two adjacent versions.
type Pair struct {
	FromTSV tsv.TSV
	ToTSV   tsv.TSV

	TransformRequest  TransformFunc
	TransformResponse TransformFunc
	ReverseRequest    TransformFunc
	ReverseResponse   TransformFunc
}

// Lookup resolves the Pair registered for the adjacent hop (from, to), in
// either direction; it is satisfied by manifest.Store.GetTransformerHop.
type Lookup func(from, to tsv.TSV) (*Pair, bool)

// Result is the outcome of a chain transform (spec §4.B step 5).
type Result struct {
	Success             bool
	Data                any
	TransformedVersions []tsv.TSV
	ChainLength         int
	Err                 error
}

// Engine composes Transformer Pairs into chains.
type Engine struct {
	lookup Lookup
}

// New builds an Engine that resolves hops via lookup.
func New(lookup Lookup) *Engine {
	return &Engine{lookup: lookup}
}

// TransformRequest walks versions (which need not be sorted) from src to
// dst, applying the forward request transformer of each adjacent hop if
// src < dst, or the reverse request transformer if src > dst (spec §4.B
// steps 1-4). A missing hop, a step that errors, or a step that exceeds
// StepTimeout aborts the chain with Success=false and the error preserved;
// FallbackOnError is always false, so no partial result is ever returned
// as if it were success.
func (e *Engine) TransformRequest(ctx context.Context, data any, src, dst tsv.TSV, versions []tsv.TSV) Result {
	pick := func(p *Pair) TransformFunc { return p.TransformRequest }
	if dst.Before(src) {
		pick = func(p *Pair) TransformFunc { return p.ReverseRequest }
	}
	return e.run(ctx, data, src, dst, versions, pick)
}

// TransformResponse is the response-side analogue of TransformRequest:
// it applies each hop's TransformResponse if src < dst, or its
// ReverseResponse if src > dst, as when bridging a handler's response back
// down to a client's native version (spec §4.D step 6).
func (e *Engine) TransformResponse(ctx context.Context, data any, src, dst tsv.TSV, versions []tsv.TSV) Result {
	pick := func(p *Pair) TransformFunc { return p.TransformResponse }
	if dst.Before(src) {
		pick = func(p *Pair) TransformFunc { return p.ReverseResponse }
	}
	return e.run(ctx, data, src, dst, versions, pick)
}

// ReverseRequest applies ReverseRequest transforms across the chain
// (used when a round-trip inverse is required; spec §8 property 6).
func (e *Engine) ReverseRequest(ctx context.Context, data any, src, dst tsv.TSV, versions []tsv.TSV) Result {
	return e.run(ctx, data, src, dst, versions, func(p *Pair) TransformFunc { return p.ReverseRequest })
}

// ReverseResponse applies ReverseResponse transforms across the chain.
func (e *Engine) ReverseResponse(ctx context.Context, data any, src, dst tsv.TSV, versions []tsv.TSV) Result {
	return e.run(ctx, data, src, dst, versions, func(p *Pair) TransformFunc { return p.ReverseResponse })
}

func (e *Engine) run(ctx context.Context, data any, src, dst tsv.TSV, versions []tsv.TSV, pick func(*Pair) TransformFunc) Result {
	if src == dst {
		return Result{Success: true, Data: data, TransformedVersions: nil, ChainLength: 0}
	}

	sorted := tsv.Sort(versions)
	hops, err := buildHopList(sorted, src, dst)
	if err != nil {
		return Result{Success: false, Err: err}
	}
	if len(hops) > MaxHops {
		return Result{Success: false, Err: rerrors.New(rerrors.KindTransformation, "CHAIN_TOO_LONG", 500,
			fmt.Sprintf("chain of %d hops exceeds maxHops=%d", len(hops), MaxHops)).WithWrapped(rerrors.ErrChainTooLong)}
	}

	current := data
	transformed := make([]tsv.TSV, 0, len(hops))
	for _, hop := range hops {
		pair, ok := e.lookup(hop.from, hop.to)
		if !ok {
			return Result{Success: false, Err: rerrors.ChainBreak(string(hop.from), string(hop.to))}
		}
		fn := pick(pair)
		if fn == nil {
			return Result{Success: false, Err: rerrors.ChainBreak(string(hop.from), string(hop.to))}
		}

		stepCtx, cancel := context.WithTimeout(ctx, StepTimeout)
		out, err := fn(stepCtx, current)
		cancel()
		if err != nil {
			kind := "STEP_ERROR"
			wrapped := err
			if stepCtx.Err() != nil {
				kind = "STEP_TIMEOUT"
				wrapped = rerrors.ErrStepTimeout
			}
			return Result{Success: false, Err: rerrors.New(rerrors.KindTransformation, kind, 500,
				fmt.Sprintf("transform step (%s -> %s) failed", hop.from, hop.to)).WithWrapped(wrapped)}
		}

		current = out
		transformed = append(transformed, hop.to)
	}

	return Result{
		Success:             true,
		Data:                current,
		TransformedVersions: transformed,
		ChainLength:         len(hops),
	}
}

type hop struct {
	from, to tsv.TSV
}

// buildHopList returns the ordered list of adjacent (from, to) hops
// between src and dst within sorted (ascending). If src > dst the walk is
// downward and hops are returned in descending traversal order (from the
// version just below src down to dst).
func buildHopList(sorted []tsv.TSV, src, dst tsv.TSV) ([]hop, error) {
	srcIdx, dstIdx := -1, -1
	for i, v := range sorted {
		if v == src {
			srcIdx = i
		}
		if v == dst {
			dstIdx = i
		}
	}
	if srcIdx == -1 || dstIdx == -1 {
		return nil, rerrors.New(rerrors.KindTransformation, "UNKNOWN_VERSION", 500,
			"src or dst version not present in the supplied version chain")
	}

	var hops []hop
	switch {
	case srcIdx < dstIdx:
		for i := srcIdx; i < dstIdx; i++ {
			hops = append(hops, hop{from: sorted[i], to: sorted[i+1]})
		}
	case srcIdx > dstIdx:
		for i := srcIdx; i > dstIdx; i-- {
			hops = append(hops, hop{from: sorted[i], to: sorted[i-1]})
		}
	}
	return hops, nil
}
