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

// Package gtype implements GType: a structural schema describing a
// JSON-shaped value (object, array, primitive, union, intersection) used
// to validate handler request/response payloads (glossary "GType"). It
// offers two construction paths, mirroring the two strategies
// rivaas.dev/validation supports for the same problem: a struct-tag based
// path for Go types (FromStruct, via go-playground/validator) and a
// JSON-Schema based path for wire-described shapes (FromJSONSchema, via
// santhosh-tekuri/jsonschema).
package gtype

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Kind describes the structural shape a GType validates.
type Kind string

const (
	KindObject       Kind = "object"
	KindArray        Kind = "array"
	KindPrimitive    Kind = "primitive"
	KindUnion        Kind = "union"
	KindIntersection Kind = "intersection"
)

// ErrValidation is the sentinel error every validation failure wraps.
var ErrValidation = errors.New("gtype: validation failed")

// FieldError describes one failed field, mirroring the corpus's
// validation.FieldError shape.
type FieldError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error aggregates FieldErrors from a single validation pass.
type Error struct {
	Fields []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) == 0 {
		return "gtype: validation failed"
	}
	return fmt.Sprintf("gtype: validation failed: %s: %s", e.Fields[0].Field, e.Fields[0].Message)
}

func (e *Error) Unwrap() error { return ErrValidation }

// Details implements rerrors.ErrorDetails.
func (e *Error) Details() any { return e.Fields }

// GType is a structural schema. Ref is a caller-chosen identifier used as
// the map key in the Manifest Store's gtypes index.
type GType struct {
	Ref  string
	Kind Kind

	schema       *jsonschema.Schema
	structKind   bool
	structSample any
}

var sharedStructValidator = validator.New(validator.WithRequiredStructEnabled())

// FromJSONSchema compiles a JSON Schema document into a GType. The schema
// is compiled eagerly so that a malformed document fails at registration
// time rather than on the first request, matching the Manifest Store
// invariant that a stored value must be retrievable (and usable) verbatim.
func FromJSONSchema(ref, schemaJSON string) (*GType, error) {
	compiler := jsonschema.NewCompiler()
	url := "mem://" + ref
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(schemaJSON))
	if err != nil {
		return nil, fmt.Errorf("gtype: parse schema: %w", err)
	}
	if err := compiler.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("gtype: add schema resource: %w", err)
	}
	schema, err := compiler.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("gtype: compile schema: %w", err)
	}
	return &GType{Ref: ref, Kind: KindObject, schema: schema}, nil
}

// FromStruct derives a GType from a tagged Go struct, the way
// rivaas.dev/validation's struct-tag strategy walks `validate:"..."` tags.
// sample is used only to capture its type; pass a zero value or nil
// pointer of the struct type being described.
func FromStruct(ref string, sample any) *GType {
	return &GType{Ref: ref, Kind: KindObject, structKind: true, structSample: sample}
}

// Validate validates value against the GType, returning a *Error (which
// satisfies rerrors.ErrorDetails) on failure.
func (g *GType) Validate(ctx context.Context, value any) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	if g.structKind {
		return g.validateStruct(value)
	}
	if g.schema != nil {
		return g.validateJSONSchema(value)
	}
	return nil
}

func (g *GType) validateStruct(value any) error {
	if value == nil {
		return &Error{Fields: []FieldError{{Field: "$", Code: "nil_value", Message: "cannot validate nil value"}}}
	}
	err := sharedStructValidator.Struct(value)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return &Error{Fields: []FieldError{{Field: "$", Code: "invalid_type", Message: err.Error()}}}
	}

	fields := make([]FieldError, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, FieldError{
			Field:   fe.Namespace(),
			Code:    fe.Tag(),
			Message: fe.Error(),
		})
	}
	sort.Slice(fields, func(i, j int) bool { return fields[i].Field < fields[j].Field })
	return &Error{Fields: fields}
}

func (g *GType) validateJSONSchema(value any) error {
	if err := g.schema.Validate(value); err != nil {
		var ve *jsonschema.ValidationError
		if errors.As(err, &ve) {
			return &Error{Fields: []FieldError{{Field: "/" + strings.Join(ve.InstanceLocation, "/"), Code: "schema", Message: ve.Error()}}}
		}
		return &Error{Fields: []FieldError{{Field: "$", Code: "schema", Message: err.Error()}}}
	}
	return nil
}
