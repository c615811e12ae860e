// Package hydrate decodes canonical value tree slices into typed Go values.
package hydrate

import (
	"fmt"

	"github.com/mitchellh/mapstructure"

	"github.com/goliatone/go-formstate/tree"
)

// Context identifies the tree slice being decoded.
type Context struct {
	FormID string
	Path   string
}

func (c Context) describe() string {
	if c.Path == "" {
		return "<root>"
	}
	return c.Path
}

// PreHook lets callers rewrite the tree slice before decoding. A nil result
// keeps the current value.
type PreHook func(Context, any) (any, error)

// PostHook lets callers adjust or validate the decoded value.
type PostHook[T any] func(Context, *T) error

// DecoderOption configures a Decoder instance.
type DecoderOption[T any] func(*Decoder[T])

// Decoder converts tree slices into T using mapstructure.
type Decoder[T any] struct {
	preHooks  []PreHook
	postHooks []PostHook[T]
	tagName   string
	weak      bool
	strict    bool
}

// WithPreHook applies hook prior to decoding.
func WithPreHook[T any](hook PreHook) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.preHooks = append(d.preHooks, hook)
	}
}

// WithPostHook applies hook after decoding completes.
func WithPostHook[T any](hook PostHook[T]) DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.postHooks = append(d.postHooks, hook)
	}
}

// WithTagName selects the struct tag used for field names. Defaults to json.
func WithTagName[T any](name string) DecoderOption[T] {
	return func(d *Decoder[T]) {
		if name != "" {
			d.tagName = name
		}
	}
}

// WithWeaklyTypedInput enables mapstructure's weak conversions ("1" to 1, and
// so on).
func WithWeaklyTypedInput[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.weak = true
	}
}

// WithErrorUnused fails decoding when the slice holds keys T does not declare.
func WithErrorUnused[T any]() DecoderOption[T] {
	return func(d *Decoder[T]) {
		d.strict = true
	}
}

// NewDecoder constructs a Decoder.
func NewDecoder[T any](opts ...DecoderOption[T]) *Decoder[T] {
	d := &Decoder[T]{tagName: "json"}
	for _, opt := range opts {
		if opt != nil {
			opt(d)
		}
	}
	return d
}

// Decode converts value into T. Value is cloned first so hooks may mutate it
// freely.
func (d *Decoder[T]) Decode(ctx Context, value any) (T, error) {
	var zero T

	current := tree.Clone(value)
	for _, hook := range d.preHooks {
		if hook == nil {
			continue
		}
		next, err := hook(ctx, current)
		if err != nil {
			return zero, fmt.Errorf("hydrate: pre-hook for %s failed: %w", ctx.describe(), err)
		}
		if next != nil {
			current = next
		}
	}

	var result T
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &result,
		TagName:          d.tagName,
		WeaklyTypedInput: d.weak,
		ErrorUnused:      d.strict,
		DecodeHook:       mapstructure.StringToTimeHookFunc("2006-01-02T15:04:05Z07:00"),
	})
	if err != nil {
		return zero, fmt.Errorf("hydrate: configure decoder for %s: %w", ctx.describe(), err)
	}
	if err := decoder.Decode(current); err != nil {
		return zero, fmt.Errorf("hydrate: decode %s: %w", ctx.describe(), err)
	}

	for _, hook := range d.postHooks {
		if hook == nil {
			continue
		}
		if err := hook(ctx, &result); err != nil {
			return zero, fmt.Errorf("hydrate: post-hook for %s failed: %w", ctx.describe(), err)
		}
	}

	return result, nil
}
