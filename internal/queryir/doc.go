// Package queryir is the predicate representation the engine compiles
// expressions into, together with the two parsers that produce it.
//
// Two grammars are supported:
//
//	query syntax   groonga tutorial -draft (title:@tutorial OR title:^gro)
//	script syntax  title @ "groonga" && n_likes >= 10
//
// Predicate is a sealed interface (marker method pattern), so backends such
// as internal/querysql can switch exhaustively over the node types:
//
//	switch p := pred.(type) {
//	case *All:
//	case *Compare:
//	case *And, *Or, *AndNot, *Not:
//	case *Assign:
//	}
//
// Column names in the tree are unresolved. An empty Column means the
// default column the expression was compiled with; resolving names against
// a table is the backend's job.
//
// Literal values are ir.IRValue, so floats cannot appear in a predicate.
package queryir
