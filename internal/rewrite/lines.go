package rewrite

import (
	"runtime"
	"strings"
)

// lineEnding is written after every line of a rewritten file.
var lineEnding = func() string {
	if runtime.GOOS == "windows" {
		return "\r\n"
	}
	return "\n"
}()

// splitLines splits text on \n, \r\n and \r. A trailing line break does not
// produce an empty final line.
func splitLines(text string) []string {
	if text == "" {
		return nil
	}

	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.TrimSuffix(text, "\n")

	return strings.Split(text, "\n")
}

// joinLines terminates every line with the platform line ending.
func joinLines(lines []string) string {
	var b strings.Builder
	for _, line := range lines {
		b.WriteString(line)
		b.WriteString(lineEnding)
	}
	return b.String()
}
