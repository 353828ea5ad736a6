package canon

import (
	"github.com/tetratelabs/wazero/api"

	"github.com/wippyai/trigger-call/value"
)

// Limits on flat values passed directly to and from an exported function.
const (
	MaxFlatParams  = 16
	MaxFlatResults = 1
)

// Flatten returns the core value types t is passed as.
func Flatten(t value.Type) []api.ValueType {
	return appendFlat(nil, t)
}

func appendFlat(out []api.ValueType, t value.Type) []api.ValueType {
	switch t := t.(type) {
	case value.PrimType:
		switch t {
		case value.PrimS64, value.PrimU64:
			return append(out, api.ValueTypeI64)
		case value.PrimF32:
			return append(out, api.ValueTypeF32)
		case value.PrimF64:
			return append(out, api.ValueTypeF64)
		case value.PrimString:
			return append(out, api.ValueTypeI32, api.ValueTypeI32)
		}
		return append(out, api.ValueTypeI32)
	case value.ListType:
		return append(out, api.ValueTypeI32, api.ValueTypeI32)
	case value.RecordType:
		for _, f := range t.Fields {
			out = appendFlat(out, f.Type)
		}
		return out
	case value.TupleType:
		for _, e := range t.Types {
			out = appendFlat(out, e)
		}
		return out
	case value.FlagsType:
		for i := 0; i < flagWords(len(t.Names)); i++ {
			out = append(out, api.ValueTypeI32)
		}
		return out
	case value.VariantType, value.EnumType, value.OptionType, value.ResultType:
		out = append(out, api.ValueTypeI32)
		return append(out, variantPayloadFlat(caseTypes(t))...)
	}
	return out
}

// variantPayloadFlat joins the flattened payloads of all cases slot by
// slot.
func variantPayloadFlat(cases []value.Type) []api.ValueType {
	var joined []api.ValueType
	for _, c := range cases {
		if c == nil {
			continue
		}
		for i, ft := range Flatten(c) {
			if i < len(joined) {
				joined[i] = join(joined[i], ft)
			} else {
				joined = append(joined, ft)
			}
		}
	}
	return joined
}

func join(a, b api.ValueType) api.ValueType {
	if a == b {
		return a
	}
	if (a == api.ValueTypeI32 && b == api.ValueTypeF32) || (a == api.ValueTypeF32 && b == api.ValueTypeI32) {
		return api.ValueTypeI32
	}
	return api.ValueTypeI64
}

// CoreSignature describes how a function's parameters and results cross
// the core wasm boundary.
type CoreSignature struct {
	Params  []api.ValueType
	Results []api.ValueType
	// ParamsInMemory is set when the parameters are passed as a single
	// pointer to a tuple in linear memory.
	ParamsInMemory bool
	// ResultsInMemory is set when the function returns a single pointer to
	// a tuple of its results.
	ResultsInMemory bool
}

// FlattenFunc computes the core signature of an exported function.
func FlattenFunc(ft value.FuncType) CoreSignature {
	var sig CoreSignature
	for _, p := range ft.Params {
		sig.Params = appendFlat(sig.Params, p.Type)
	}
	if len(sig.Params) > MaxFlatParams {
		sig.Params = []api.ValueType{api.ValueTypeI32}
		sig.ParamsInMemory = true
	}
	for _, r := range ft.Results {
		sig.Results = appendFlat(sig.Results, r)
	}
	if len(sig.Results) > MaxFlatResults {
		sig.Results = []api.ValueType{api.ValueTypeI32}
		sig.ResultsInMemory = true
	}
	return sig
}
