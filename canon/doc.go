// Package canon implements the canonical ABI for value types: memory
// layout, flattening to core wasm values, and lowering and lifting values
// across a guest's linear memory.
//
// Flat values use wazero's encoding: i32 as the zero-extended uint32, f32
// and f64 as their IEEE bits. Variant payload slots are joined per the
// canonical rules (equal types stay, i32 with f32 becomes i32, anything
// else becomes i64); in this encoding the join needs no bit conversion.
//
// Only UTF-8 strings are supported.
package canon
