// Package verify provides validation functions for lightheap arenas.
//
// # Overview
//
// The checks work on raw arena bytes, so they can be run against a live
// allocator snapshot or against an image read back from disk. They are
// primarily used in tests to confirm that every allocate/free keeps the
// arena invariants.
//
// Validation categories:
//   - Block chain: tags, guards, alignment, strictly ascending next links,
//     exactly one final block and that block free
//   - Free list: ascending order, membership equals the set of free blocks,
//     consistent prevFree links, ends at the final block
//   - Allocator bounds: the live head/tail match what the bytes imply
//
// # Quick Start
//
//	if err := verify.AllInvariants(a); err != nil {
//	    fmt.Printf("arena broken: %v\n", err)
//	}
//
//	img, _ := os.ReadFile("arena.img")
//	if err := verify.Image(img, &alloc.DefaultConfig); err != nil {
//	    fmt.Printf("image broken: %v\n", err)
//	}
//
// # ValidationError
//
// All validation functions return *ValidationError on failure:
//
//	type ValidationError struct {
//	    Type    string                 // Error category (e.g., "BlockChain")
//	    Message string                 // Human-readable description
//	    Offset  int                    // Header offset where the error occurred (-1 if N/A)
//	    Details map[string]interface{} // Additional context
//	}
package verify
