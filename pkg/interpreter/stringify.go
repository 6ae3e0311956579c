package interpreter

import (
	"math"
	"strconv"

	"borrowlisp/interpreter-go/pkg/runtime"
)

// DisplayString renders a scalar the way `display` prints it. Non-scalars report false.
func DisplayString(v runtime.Value) (string, bool) {
	switch val := v.(type) {
	case runtime.IntValue:
		return strconv.FormatInt(val.Val, 10), true
	case runtime.FloatValue:
		return displayFloat(val.Val), true
	case runtime.BoolValue:
		return strconv.FormatBool(val.Val), true
	default:
		return "", false
	}
}

// displayFloat prints the shortest decimal that round-trips, so 2.0 prints as 2.
func displayFloat(f float64) string {
	switch {
	case math.IsNaN(f):
		return "NaN"
	case math.IsInf(f, 1):
		return "inf"
	case math.IsInf(f, -1):
		return "-inf"
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// Describe renders v with heap handles followed into store, e.g. `Box(Int(5))`.
func Describe(v runtime.Value, store *runtime.Store) string {
	return describe(v, store, 0)
}

// maxDescribeDepth bounds how many heap handles Describe follows.
const maxDescribeDepth = 64

func describe(v runtime.Value, store *runtime.Store, depth int) string {
	if v == nil {
		return "<nil>"
	}
	var label string
	switch v.(type) {
	case runtime.BoxValue:
		label = "Box"
	case runtime.RefValue:
		label = "Ref"
	case runtime.MutRefValue:
		label = "MutRef"
	default:
		return v.String()
	}
	addr, _ := runtime.AddressOf(v)
	if store == nil || depth >= maxDescribeDepth {
		return v.String()
	}
	inner, err := store.Read(addr)
	if err != nil {
		return label + "(Moved)"
	}
	return label + "(" + describe(inner, store, depth+1) + ")"
}
