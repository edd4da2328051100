package jsontree

import (
	"fmt"

	"github.com/valyala/fastjson"
)

// Parse decodes a JSON document into a Value tree, keeping object member order.
func Parse(data []byte) (*Value, error) {
	var p fastjson.Parser
	fv, err := p.ParseBytes(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}

	// fastjson values are only valid until the parser is reused, so the
	// whole tree is copied out before returning.
	return convert(fv)
}

func convert(fv *fastjson.Value) (*Value, error) {
	switch fv.Type() {
	case fastjson.TypeNull:
		return NewNull(), nil
	case fastjson.TypeTrue:
		return NewBool(true), nil
	case fastjson.TypeFalse:
		return NewBool(false), nil
	case fastjson.TypeNumber:
		if i, err := fv.Int64(); err == nil {
			return NewInt(i), nil
		}
		f, err := fv.Float64()
		if err != nil {
			return nil, fmt.Errorf("invalid number %s: %w", fv.String(), err)
		}
		return NewFloat(f), nil
	case fastjson.TypeString:
		b, err := fv.StringBytes()
		if err != nil {
			return nil, err
		}
		return NewString(string(b)), nil
	case fastjson.TypeArray:
		arr, err := fv.Array()
		if err != nil {
			return nil, err
		}
		items := make([]*Value, 0, len(arr))
		for _, elem := range arr {
			item, err := convert(elem)
			if err != nil {
				return nil, err
			}
			items = append(items, item)
		}
		return NewArray(items...), nil
	case fastjson.TypeObject:
		obj, err := fv.Object()
		if err != nil {
			return nil, err
		}
		members := make([]Member, 0, obj.Len())
		var convErr error
		obj.Visit(func(key []byte, elem *fastjson.Value) {
			if convErr != nil {
				return
			}
			child, err := convert(elem)
			if err != nil {
				convErr = err
				return
			}
			members = append(members, Member{Key: string(key), Value: child})
		})
		if convErr != nil {
			return nil, convErr
		}
		return NewObject(members...), nil
	default:
		return nil, fmt.Errorf("unsupported JSON type %s", fv.Type())
	}
}
