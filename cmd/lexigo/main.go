// Command lexigo manages a lexigo database from the shell.
//
//	lexigo --dir ./data add records.jsonl
//	lexigo --dir ./data search "quick fox" --limit 5
//	lexigo --dir ./data backup --store s3://bucket/prefix
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}
