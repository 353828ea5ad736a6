// Package invoke drives a single call into a component host.
//
// The host writes results through a Results buffer that tracks, per slot,
// whether the slot was written. After the host reports success the driver
// checks every slot: an unwritten slot or a value that does not match the
// declared result type is a protocol violation, never a zero value.
package invoke
