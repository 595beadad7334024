// Package main provides the entry point for the dirscan CLI.
//
// dirscan discovers reachable HTTP paths on a target by probing every entry
// of a word list under a concurrency limit and a request-rate limit, and
// flags responses whose body duplicates one already seen.
//
// Usage:
//
//	dirscan scan -u https://example.com -w words.txt
//	dirscan history https://example.com
//
// See --help for all available options.
package main

// main is the entry point for dirscan.
func main() {
	Execute()
}
