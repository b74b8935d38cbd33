package supervisor

import (
	"bufio"
	"io"
)

// newLineScanner builds a scanner sized for worker output. Workers can emit
// long JSON result lines, so the buffer ceiling is raised well above the
// bufio default.
func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, scannerInitialBuffer), scannerMaxBuffer)
	return scanner
}
