// Package callexpr parses human-readable call expressions.
//
// A call expression names an exported function and lists literal
// arguments:
//
//	greet("world")
//	add(2, 3)
//	wasi:cli/run@0.2.0#run()
//	store({key: "k", tags: ["a", "b"]}, some(ok(1)), {read, write})
//
// The literal grammar covers booleans, integers (optionally suffixed with
// an explicit width such as 255u8), floats (including nan, inf and -inf),
// quoted strings and chars with \n \r \t \\ \" \' and \u{X} escapes, lists
// [..], tuples (..), records {name: v}, flags {a, b}, and labels with an
// optional payload for variant and enum cases, some/none and ok/err. A
// label that collides with a keyword is written with a leading '%'.
//
// Parsing is untyped: the same literal may decode to different values
// depending on the declared parameter type. See package codec.
package callexpr
