// Package language normalizes user-supplied language selectors to the
// 3-letter codes the worker expects and renders display names for CLI
// output.
package language
