package vfs

import (
	"fmt"
	"math"

	"github.com/objectfs/memvfs/pkg/types"
)

// coerceAttrValue accepts a value of the attribute's own declared type
// unchanged, or a declared alternate numeric type convertible losslessly
// into it (e.g. int32 -> int64). Any other mismatch, or a lossy numeric
// conversion, is rejected.
func coerceAttrValue(want types.AttrKind, value types.AttrValue) (types.AttrValue, error) {
	if value.Kind() == want {
		return value, nil
	}

	switch want {
	case types.KindInt64:
		switch v := value.(type) {
		case types.Int32Value:
			return types.Int64Value(v), nil
		case types.FileTimeValue:
			return types.Int64Value(v), nil
		}
	case types.KindFileTime:
		switch v := value.(type) {
		case types.Int64Value:
			return types.FileTimeValue(v), nil
		case types.Int32Value:
			return types.FileTimeValue(v), nil
		}
	case types.KindInt32:
		if v, ok := value.(types.Int64Value); ok {
			if int64(v) < math.MinInt32 || int64(v) > math.MaxInt32 {
				return nil, fmt.Errorf("value %d does not fit losslessly in int32", int64(v))
			}
			return types.Int32Value(v), nil
		}
	}

	return nil, fmt.Errorf("value of kind %s is not assignable to attribute of kind %s", value.Kind(), want)
}
