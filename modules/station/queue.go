package station

import (
	"bufio"
	"os"
	"strings"
)

// NormalizeRef cleans one queue line: stray carriage returns and
// surrounding whitespace are stripped, and the two known upstream
// truncations of the https scheme ("tps://", "ps://") are recovered.
// Only these two truncations are handled; the rules are deliberately
// not generalized. Normalizing an already-normal line is a no-op.
func NormalizeRef(line string) string {
	line = strings.TrimSpace(strings.ReplaceAll(line, "\r", ""))

	switch {
	case strings.HasPrefix(line, "tps://"):
		return "ht" + line
	case strings.HasPrefix(line, "ps://"):
		return "htt" + line
	}
	return line
}

// readQueue loads the queue file, returning normalized entries in file
// order. Blank lines and #-comments are skipped without consuming a
// playback slot. Callers re-read at the start of every full cycle, so
// edits to the file take effect on the next loop.
func readQueue(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var refs []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		ref := NormalizeRef(scanner.Text())
		if ref == "" || strings.HasPrefix(ref, "#") {
			continue
		}
		refs = append(refs, ref)
	}
	return refs, scanner.Err()
}
