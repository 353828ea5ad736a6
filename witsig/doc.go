// Package witsig reads function signatures from WIT text.
//
// Only the parts of WIT that describe call signatures are interpreted:
// record, variant, enum, flags and type declarations, and functions
// declared in interfaces or exported from worlds. Package headers, use and
// include statements and references to external interfaces are skipped.
// Declarations from all interfaces and worlds share one namespace, and a
// type may be used before it is declared.
//
//	package local:demo;
//
//	world demo {
//	    record point { x: s32, y: s32 }
//	    export move: func(p: point, dx: s32) -> point;
//	}
//
// Types are first built as go.bytecodealliance.org/wit trees and then
// converted with FromWIT. Resource handles, futures and streams have no
// value representation and are reported as unsupported.
package witsig
