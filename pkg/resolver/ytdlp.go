package resolver

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// ExecExtractor resolves references by shelling out to yt-dlp. The
// strategy selects the extractor's player client, which is the knob
// that works around per-client source restrictions.
type ExecExtractor struct {
	bin         string
	cookiesFile string
}

func NewExecExtractor(cfg Config) *ExecExtractor {
	return &ExecExtractor{
		bin:         cfg.BinPath,
		cookiesFile: cfg.CookiesFile,
	}
}

func (e *ExecExtractor) Extract(ctx context.Context, ref string, strategy Strategy) (string, error) {
	args := []string{
		"-g",
		"-f", "bestaudio/best",
		"--no-playlist",
		"--extractor-args", "youtube:player_client=" + string(strategy),
	}
	if e.cookiesFile != "" {
		args = append(args, "--cookies", e.cookiesFile)
	}
	args = append(args, ref)

	cmd := exec.CommandContext(ctx, e.bin, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := lastLine(stderr.String()); msg != "" {
			return "", fmt.Errorf("extract %s: %s: %w", ref, msg, err)
		}
		return "", fmt.Errorf("extract %s: %w", ref, err)
	}

	// -g prints one URL per line; for audio-only formats there is one.
	locator, _, _ := strings.Cut(strings.TrimSpace(stdout.String()), "\n")
	return strings.TrimSpace(locator), nil
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	if len(lines) == 0 {
		return ""
	}
	return strings.TrimSpace(lines[len(lines)-1])
}
