// Package testutil provides testing utilities for lexigo.
//
// This package is intended for use in tests and benchmarks only.
// It provides a seeded generator for text records and a brute-force search
// oracle to check indexed results against.
//
// # Random Records
//
//	rng := testutil.NewRNG(seed)
//	docs := rng.Articles(100, 12) // 100 articles, 12 body words each
//
// # Exact Search (Ground Truth)
//
//	want := testutil.ExactSearch(texts, "qu fox", 10)
package testutil
