package agenterrors

import "runtime/debug"

// Recover should be called with defer at the top of any function whose
// panic must never propagate into the scheduler's or planner's critical
// path (callback invocations, tool runner calls, trace processors). It
// stores a *PanicError into errPtr when a panic is recovered.
//
// Usage:
//
//	func runCallback() (err error) {
//	    defer Recover(&err)
//	    return callback()
//	}
func Recover(errPtr *error) {
	if r := recover(); r != nil {
		*errPtr = &PanicError{Value: r, StackTrace: string(debug.Stack())}
	}
}

// SafeCall invokes fn with panic recovery, converting any panic into a
// *PanicError return value.
func SafeCall(fn func() error) (err error) {
	defer Recover(&err)
	return fn()
}
