package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"

	"gopkg.in/yaml.v3"
)

// ErrEmptyPayload is returned when a payload contains no encoded task,
// including a document that decodes to a nil value such as JSON null.
var ErrEmptyPayload = errors.New("empty task payload")

// Codec encodes and decodes tasks of type T for transport between processes.
type Codec[T any] interface {
	Encode(w io.Writer, v T) error
	Decode(r io.Reader) (T, error)
	Name() string
}

// Codec names accepted by ByName.
const (
	CodecJSON = "json"
	CodecYAML = "yaml"
)

// Compile-time interface satisfaction checks.
var (
	_ Codec[*Sleeper] = JSONCodec[*Sleeper]{}
	_ Codec[*Sleeper] = YAMLCodec[*Sleeper]{}
)

// JSONCodec encodes tasks as JSON.
type JSONCodec[T any] struct{}

// Name returns "json".
func (JSONCodec[T]) Name() string { return CodecJSON }

// Encode writes v as a single JSON document.
func (JSONCodec[T]) Encode(w io.Writer, v T) error {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		return fmt.Errorf("encode json task: %w", err)
	}
	return nil
}

// Decode reads a single JSON document. Pointer types are allocated as needed.
func (JSONCodec[T]) Decode(r io.Reader) (T, error) {
	var v T
	if err := json.NewDecoder(r).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, ErrEmptyPayload
		}
		return v, fmt.Errorf("decode json task: %w", err)
	}
	if isNil(v) {
		return v, ErrEmptyPayload
	}
	return v, nil
}

// YAMLCodec encodes tasks as YAML.
type YAMLCodec[T any] struct{}

// Name returns "yaml".
func (YAMLCodec[T]) Name() string { return CodecYAML }

// Encode writes v as a single YAML document.
func (YAMLCodec[T]) Encode(w io.Writer, v T) error {
	enc := yaml.NewEncoder(w)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode yaml task: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("flush yaml task: %w", err)
	}
	return nil
}

// Decode reads a single YAML document.
func (YAMLCodec[T]) Decode(r io.Reader) (T, error) {
	var v T
	if err := yaml.NewDecoder(r).Decode(&v); err != nil {
		if errors.Is(err, io.EOF) {
			return v, ErrEmptyPayload
		}
		return v, fmt.Errorf("decode yaml task: %w", err)
	}
	if isNil(v) {
		return v, ErrEmptyPayload
	}
	return v, nil
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}

// ByName returns the codec registered under name.
func ByName[T any](name string) (Codec[T], error) {
	switch name {
	case "", CodecJSON:
		return JSONCodec[T]{}, nil
	case CodecYAML:
		return YAMLCodec[T]{}, nil
	default:
		return nil, fmt.Errorf("unknown codec %q: must be one of [%s %s]", name, CodecJSON, CodecYAML)
	}
}
