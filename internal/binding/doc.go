// Package binding wraps engine handles in managed proxies.
//
// A Context is one engine session. Objects are bound through it:
//
//	ctx := binding.NewContext(sess, binding.WithLogger(logger))
//	defer ctx.Close()
//
//	title, err := ctx.Lookup("Items.title")
//	if err != nil {
//	    return err
//	}
//	defer title.Finalize()
//
// # Identity
//
// A native handle has at most one live Object. Binding a handle that is
// already bound returns the existing Object. The Registry tracks bound
// objects through weak pointers: it never keeps an Object alive.
//
// # Lifecycle
//
// Each Object owns a value buffer allocated at bind time. Its kind is fixed
// by the handle's type: vector columns ranging over a table get a record-id
// vector, other vector columns a generic vector, everything else a scalar
// buffer. Finalize releases the buffer exactly once and is safe to call
// repeatedly, including after the Context closed. Closing a Context
// finalizes every Object still bound before the engine session ends.
//
// # Errors
//
// Engine failures surface as *status.Error values; see package status.
// Host-side failures wrap status.ErrBindFailure, status.ErrClosed,
// status.ErrConsistency or ErrNotFound.
package binding
