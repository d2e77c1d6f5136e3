// Package main provides the entry point for the bookscraper CLI.
package main

func main() {
	Execute()
}
