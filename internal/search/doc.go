// Package search compiles query expressions and selects records into
// result tables.
//
// Select accepts three condition shapes: a query string, an expression
// compiled earlier, or no condition at all, which matches every record:
//
//	res, err := search.Select(title, search.Query("groonga"), nil)
//	res, err = search.Select(title, search.Expr(expr), &opts)
//	res, err = search.Select(title, search.All(), &opts)
//
// Matches merge into the result table according to Options.Operator:
//
//	OR       add matches that are not in the result yet
//	AND      keep only result records that match, raising their score
//	AND_NOT  remove result records that match
//	ADJUST   raise the score of result records that match
//
// Without Options.Result, a new temporary table keyed by the searched
// table is created. It lives until the context closes or the Result is
// dropped.
//
// SelectArgs and ParseOptions accept the loosely typed call form used by
// scripts and the CLI and normalize it into Condition and Options. Unknown
// option keys are rejected.
package search
