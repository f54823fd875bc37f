// Package status translates the engine's fixed status-code space into a
// structured error taxonomy.
//
// Every non-success Code has exactly one Kind. Kinds are grouped (data,
// system, network, format, compression, query, concurrency, subsystem) for
// coarse handling, but callers are expected to switch on the Kind itself:
//
//	switch k, _ := status.KindOf(err); k {
//	case status.KindResourceDeadlockAvoided:
//	    // retry later
//	case status.KindSyntaxError:
//	    // report to the user
//	}
//
// A code without a Kind is never coerced to a generic leaf. Translate and
// Check return *InvalidCodeError, which wraps ErrInternal.
package status
