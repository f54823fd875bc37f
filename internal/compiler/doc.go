// Package compiler turns CUE schema definitions into ir.TableSpec values
// and validates them.
//
// A schema declares tables under the top-level "table" struct:
//
//	table: Terms: {
//	    type:              "patricia"
//	    key_type:          "ShortText"
//	    default_tokenizer: "TokenBigram"
//	    index: items_title: {source_table: "Items", sources: ["title"]}
//	}
//	table: Items: {
//	    type:     "hash"
//	    key_type: "ShortText"
//	    column: title: {type: "ShortText"}
//	    column: tags: {type: "Tags", kind: "vector"}
//	}
//
// CompileTable reads one table; CompileSchema reads them all in
// declaration order. Validate checks a table or a whole schema and
// reports every problem it finds with a stable code (E100-E119).
package compiler
