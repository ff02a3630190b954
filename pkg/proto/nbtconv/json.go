// Package nbtconv maps NBT values onto JSON.
//
// Compounds become objects keyed by tag name, lists become arrays,
// a TAG_Byte becomes a boolean that is true only for the value 1,
// and every other number stays a number. Byte, int and long arrays
// become arrays of numbers.
package nbtconv

import (
	"encoding/json"
	"fmt"
	"reflect"

	"github.com/Tnze/go-mc/nbt"

	"go.minekube.com/worldtap/pkg/proto/util"
)

// ToValue decodes bt into plain Go values ready for encoding/json.
// An empty tag yields an empty object.
func ToValue(bt util.BinaryTag) (any, error) {
	if bt.Type == nbt.TagEnd || len(bt.Data) == 0 {
		return map[string]any{}, nil
	}
	var v any
	if err := bt.Unmarshal(&v); err != nil {
		return nil, fmt.Errorf("error decoding binary tag: %w", err)
	}
	return convert(v), nil
}

// ToJSON converts bt to indented JSON.
func ToJSON(bt util.BinaryTag) (json.RawMessage, error) {
	v, err := ToValue(bt)
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(v, "", "  ")
}

func convert(v any) any {
	switch v := v.(type) {
	case nil:
		return nil
	case int8:
		return v == 1
	case uint8:
		return v == 1
	case bool, string,
		int16, int32, int64, int,
		float32, float64:
		return v
	case []byte:
		return numbers(v)
	case []int8:
		return numbers(v)
	case []int32:
		return numbers(v)
	case []int64:
		return numbers(v)
	case map[string]any:
		m := make(map[string]any, len(v))
		for k, e := range v {
			m[k] = convert(e)
		}
		return m
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		a := make([]any, rv.Len())
		for i := range a {
			a[i] = convert(rv.Index(i).Interface())
		}
		return a
	case reflect.Map:
		m := make(map[string]any, rv.Len())
		iter := rv.MapRange()
		for iter.Next() {
			m[fmt.Sprint(iter.Key().Interface())] = convert(iter.Value().Interface())
		}
		return m
	}
	return v
}

func numbers[T int8 | uint8 | int32 | int64](a []T) []int64 {
	out := make([]int64, len(a))
	for i, e := range a {
		out[i] = int64(e)
	}
	return out
}
