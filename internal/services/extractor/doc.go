// Package extractor is the typed client for the media worker: the stable
// function surface (analyze, extract, batch extract, find) the rest of the
// system is allowed to call.
//
// Request options are built with caller-side camelCase names and converted
// to the worker's snake_case convention at the bridge boundary; results
// decode the worker's wire shapes verbatim. Partial batch failure is a
// normal result, not an error.
package extractor
