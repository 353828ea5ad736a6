// Package value defines the closed type and value model exchanged across
// the component ABI.
//
// Type is a recursive sum type: PrimType for bool, integers, floats, char
// and string, plus ListType, RecordType, TupleType, VariantType, EnumType,
// OptionType, ResultType and FlagsType. Value has one Go type per shape;
// composite values carry their declared type so every value is well-typed
// against exactly one Type:
//
//	point := value.RecordType{Fields: []value.FieldType{
//	    {Name: "x", Type: value.PrimS32},
//	    {Name: "y", Type: value.PrimS32},
//	}}
//	v := value.Record{T: point, Fields: []value.Value{value.S32(1), value.S32(-2)}}
//
// Types compare structurally with TypeEqual, values with Equal.
package value
