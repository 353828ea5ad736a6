// Package wasmtest builds small core wasm modules in memory for tests.
package wasmtest

import (
	"bytes"

	"github.com/tetratelabs/wazero/api"
)

const (
	sectionType     = 1
	sectionImport   = 2
	sectionFunction = 3
	sectionMemory   = 5
	sectionGlobal   = 6
	sectionExport   = 7
	sectionCode     = 10

	kindFunc   = 0x00
	kindMemory = 0x02
	kindGlobal = 0x03
)

type funcType struct {
	params, results []api.ValueType
}

type function struct {
	typeIdx uint32
	locals  []api.ValueType
	body    []byte
}

type global struct {
	typ     api.ValueType
	mutable bool
	init    int64
}

type export struct {
	name string
	kind byte
	idx  uint32
}

type funcImport struct {
	module, name string
	typeIdx      uint32
}

// Module accumulates the pieces of a core module.
type Module struct {
	types   []funcType
	imports []funcImport
	funcs   []function
	globals []global
	exports []export
	memory  *uint32
}

// New returns an empty module.
func New() *Module {
	return &Module{}
}

// Memory adds a memory of the given number of pages exported as "memory".
func (m *Module) Memory(pages uint32) *Module {
	m.memory = &pages
	m.exports = append(m.exports, export{name: "memory", kind: kindMemory})
	return m
}

// Global adds an integer global and returns its index.
func (m *Module) Global(t api.ValueType, mutable bool, init int64) uint32 {
	m.globals = append(m.globals, global{typ: t, mutable: mutable, init: init})
	return uint32(len(m.globals) - 1)
}

// ExportGlobal exports global idx under name.
func (m *Module) ExportGlobal(name string, idx uint32) *Module {
	m.exports = append(m.exports, export{name: name, kind: kindGlobal, idx: idx})
	return m
}

// ImportFunc adds a function import. Imports must be added before any
// function is defined.
func (m *Module) ImportFunc(module, name string, params, results []api.ValueType) *Module {
	m.imports = append(m.imports, funcImport{module: module, name: name, typeIdx: m.typeIndex(params, results)})
	return m
}

// Func defines a function and exports it under name unless name is empty.
// body is the instruction sequence without the final end opcode.
func (m *Module) Func(name string, params, results, locals []api.ValueType, body ...[]byte) *Module {
	m.funcs = append(m.funcs, function{
		typeIdx: m.typeIndex(params, results),
		locals:  locals,
		body:    bytes.Join(body, nil),
	})
	if name != "" {
		idx := uint32(len(m.imports) + len(m.funcs) - 1)
		m.exports = append(m.exports, export{name: name, kind: kindFunc, idx: idx})
	}
	return m
}

func (m *Module) typeIndex(params, results []api.ValueType) uint32 {
	for i, t := range m.types {
		if bytes.Equal(t.params, params) && bytes.Equal(t.results, results) {
			return uint32(i)
		}
	}
	m.types = append(m.types, funcType{params: params, results: results})
	return uint32(len(m.types) - 1)
}

// Bytes encodes the module in the binary format.
func (m *Module) Bytes() []byte {
	var w bytes.Buffer
	w.Write([]byte{0x00, 0x61, 0x73, 0x6d}) // \0asm
	w.Write([]byte{0x01, 0x00, 0x00, 0x00}) // version 1

	if len(m.types) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.types)))
		for _, t := range m.types {
			sec.WriteByte(0x60)
			writeValTypes(&sec, t.params)
			writeValTypes(&sec, t.results)
		}
		writeSection(&w, sectionType, sec.Bytes())
	}

	if len(m.imports) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.imports)))
		for _, imp := range m.imports {
			writeName(&sec, imp.module)
			writeName(&sec, imp.name)
			sec.WriteByte(kindFunc)
			writeU32(&sec, imp.typeIdx)
		}
		writeSection(&w, sectionImport, sec.Bytes())
	}

	if len(m.funcs) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.funcs)))
		for _, f := range m.funcs {
			writeU32(&sec, f.typeIdx)
		}
		writeSection(&w, sectionFunction, sec.Bytes())
	}

	if m.memory != nil {
		var sec bytes.Buffer
		writeU32(&sec, 1)
		sec.WriteByte(0x00) // no maximum
		writeU32(&sec, *m.memory)
		writeSection(&w, sectionMemory, sec.Bytes())
	}

	if len(m.globals) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.globals)))
		for _, g := range m.globals {
			sec.WriteByte(g.typ)
			if g.mutable {
				sec.WriteByte(0x01)
			} else {
				sec.WriteByte(0x00)
			}
			if g.typ == api.ValueTypeI64 {
				sec.WriteByte(opI64Const)
			} else {
				sec.WriteByte(opI32Const)
			}
			writeS64(&sec, g.init)
			sec.WriteByte(opEnd)
		}
		writeSection(&w, sectionGlobal, sec.Bytes())
	}

	if len(m.exports) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.exports)))
		for _, e := range m.exports {
			writeName(&sec, e.name)
			sec.WriteByte(e.kind)
			writeU32(&sec, e.idx)
		}
		writeSection(&w, sectionExport, sec.Bytes())
	}

	if len(m.funcs) > 0 {
		var sec bytes.Buffer
		writeU32(&sec, uint32(len(m.funcs)))
		for _, f := range m.funcs {
			var body bytes.Buffer
			writeU32(&body, uint32(len(f.locals)))
			for _, l := range f.locals {
				writeU32(&body, 1)
				body.WriteByte(l)
			}
			body.Write(f.body)
			body.WriteByte(opEnd)

			writeU32(&sec, uint32(body.Len()))
			sec.Write(body.Bytes())
		}
		writeSection(&w, sectionCode, sec.Bytes())
	}

	return w.Bytes()
}

func writeValTypes(w *bytes.Buffer, types []api.ValueType) {
	writeU32(w, uint32(len(types)))
	w.Write(types)
}

func writeSection(w *bytes.Buffer, id byte, payload []byte) {
	w.WriteByte(id)
	writeU32(w, uint32(len(payload)))
	w.Write(payload)
}
