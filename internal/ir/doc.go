// Package ir holds the value and schema types shared by the engine, the
// binding and the tooling around them.
//
// Values are a sealed set (IRNull, IRString, IRInt, IRBool, IRArray,
// IRObject). There is deliberately no float: column values, record keys and
// traces must compare and serialize identically on every run.
//
// ir imports nothing internal.
package ir
