// Package progress decodes worker progress payloads and routes them to
// per-operation subscribers.
//
// A worker reports progress as JSON payloads carrying either positional
// track values or a keyword mapping; Decode folds both shapes into one
// Event so consumers never probe raw fields. The Hub delivers events for
// an operation id to at most one handler at a time, dropping events that
// arrive while nobody is listening.
package progress
