package wasmtest

import (
	"bytes"
	"encoding/binary"
	"math"
)

const (
	opUnreachable = 0x00
	opLoop        = 0x03
	opEnd         = 0x0b
	opBr          = 0x0c
	opDrop        = 0x1a
	opLocalGet    = 0x20
	opLocalSet    = 0x21
	opLocalTee    = 0x22
	opGlobalGet   = 0x23
	opGlobalSet   = 0x24
	opI32Load     = 0x28
	opI32Store    = 0x36
	opI32Const    = 0x41
	opI64Const    = 0x42
	opF64Const    = 0x44
	opI32Add      = 0x6a
	opI32Sub      = 0x6b
	opI32And      = 0x71
	opI64Add      = 0x7c
	opF64Mul      = 0xa2
)

// Instructions. Each returns the encoded bytes of one instruction.

func Unreachable() []byte { return []byte{opUnreachable} }
func Drop() []byte        { return []byte{opDrop} }
func I32Add() []byte      { return []byte{opI32Add} }
func I32Sub() []byte      { return []byte{opI32Sub} }
func I32And() []byte      { return []byte{opI32And} }
func I64Add() []byte      { return []byte{opI64Add} }
func F64Mul() []byte      { return []byte{opF64Mul} }

func LocalGet(i uint32) []byte  { return withU32(opLocalGet, i) }
func LocalSet(i uint32) []byte  { return withU32(opLocalSet, i) }
func LocalTee(i uint32) []byte  { return withU32(opLocalTee, i) }
func GlobalGet(i uint32) []byte { return withU32(opGlobalGet, i) }
func GlobalSet(i uint32) []byte { return withU32(opGlobalSet, i) }

// I32Load loads an i32 from the address on the stack plus offset.
func I32Load(offset uint32) []byte {
	var w bytes.Buffer
	w.WriteByte(opI32Load)
	writeU32(&w, 2)
	writeU32(&w, offset)
	return w.Bytes()
}

// I32Store stores an i32 at the address on the stack plus offset.
func I32Store(offset uint32) []byte {
	var w bytes.Buffer
	w.WriteByte(opI32Store)
	writeU32(&w, 2)
	writeU32(&w, offset)
	return w.Bytes()
}

func I32Const(v int32) []byte {
	var w bytes.Buffer
	w.WriteByte(opI32Const)
	writeS64(&w, int64(v))
	return w.Bytes()
}

func I64Const(v int64) []byte {
	var w bytes.Buffer
	w.WriteByte(opI64Const)
	writeS64(&w, v)
	return w.Bytes()
}

func F64Const(v float64) []byte {
	b := make([]byte, 9)
	b[0] = opF64Const
	binary.LittleEndian.PutUint64(b[1:], math.Float64bits(v))
	return b
}

// Spin is an infinite loop.
func Spin() []byte {
	return []byte{opLoop, 0x40, opBr, 0x00, opEnd}
}

func withU32(op byte, v uint32) []byte {
	var w bytes.Buffer
	w.WriteByte(op)
	writeU32(&w, v)
	return w.Bytes()
}
