// Package agent is the boundary between HTTP callers and the operations:
// it registers operations with their price and input schema, decodes and
// validates inputs, and gates priced operations behind a paywall.
package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/invopop/jsonschema"

	custom_errors "repo-intel/internal/errors"
)

// Operation is a named, priced, one-shot request handler.
type Operation struct {
	Key         string
	Description string
	// Price is in minor currency units; zero marks a free operation.
	Price  int64
	Schema *jsonschema.Schema

	invoke func(ctx context.Context, val *Validator, raw json.RawMessage) (any, error)
}

// Free reports whether the operation can be invoked without payment.
func (op Operation) Free() bool { return op.Price == 0 }

// Define builds an Operation whose input decodes into T.
func Define[T any](key, description string, price int64, fn func(context.Context, T) (any, error)) Operation {
	return Operation{
		Key:         key,
		Description: description,
		Price:       price,
		Schema:      schemaOf(reflect.TypeOf((*T)(nil)).Elem()),
		invoke: func(ctx context.Context, val *Validator, raw json.RawMessage) (any, error) {
			in, err := decodeInput[T](val, raw)
			if err != nil {
				return nil, err
			}
			return fn(ctx, in)
		},
	}
}

// Registry holds operations in registration order.
type Registry struct {
	ops       []Operation
	byKey     map[string]int
	validator *Validator
}

// NewRegistry registers ops, rejecting duplicate or empty keys.
func NewRegistry(val *Validator, ops ...Operation) (*Registry, error) {
	r := &Registry{
		byKey:     make(map[string]int, len(ops)),
		validator: val,
	}
	for _, op := range ops {
		if op.Key == "" {
			return nil, fmt.Errorf("operation with empty key")
		}
		if _, dup := r.byKey[op.Key]; dup {
			return nil, fmt.Errorf("operation %q registered twice", op.Key)
		}
		if op.Price < 0 {
			return nil, fmt.Errorf("operation %q has negative price", op.Key)
		}
		r.byKey[op.Key] = len(r.ops)
		r.ops = append(r.ops, op)
	}
	return r, nil
}

// Operations returns the registered operations in order.
func (r *Registry) Operations() []Operation {
	out := make([]Operation, len(r.ops))
	copy(out, r.ops)
	return out
}

// Lookup finds an operation by key.
func (r *Registry) Lookup(key string) (Operation, bool) {
	i, ok := r.byKey[key]
	if !ok {
		return Operation{}, false
	}
	return r.ops[i], true
}

// Invoke decodes raw into the operation's input and runs it.
func (r *Registry) Invoke(ctx context.Context, key string, raw json.RawMessage) (any, error) {
	op, ok := r.Lookup(key)
	if !ok {
		return nil, &custom_errors.ErrUnknownOperation{Key: key}
	}
	return op.invoke(ctx, r.validator, raw)
}
