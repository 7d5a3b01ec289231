// Package main provides the scjn command line client for the SCJN thesis
// search service.
//
// Usage:
//
//	scjn health
//	scjn search --epoch 12a --term amparo
//	scjn ids --epoch 11a --instance "Primera Sala" --format json
//	scjn tesis 2031001 2031002
//
// See --help for all available options.
package main

func main() {
	Execute()
}
