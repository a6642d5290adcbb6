// Package audio transcodes voice recordings into the format the
// transcription endpoint accepts.
package audio

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strings"
)

// ConvertToWav transcodes src (typically Telegram's OGG/Opus voice format)
// into a 16kHz mono WAV file next to it, returning the output path. Requires
// ffmpeg on PATH.
func ConvertToWav(ctx context.Context, src string) (string, error) {
	ffmpeg, err := exec.LookPath("ffmpeg")
	if err != nil {
		return "", fmt.Errorf("ffmpeg not found on PATH (required for voice messages): %w", err)
	}

	dst := strings.TrimSuffix(src, ".oga")
	dst = strings.TrimSuffix(dst, ".ogg")
	dst += ".wav"

	cmd := exec.CommandContext(ctx, ffmpeg,
		"-y",
		"-i", src,
		"-ar", "16000",
		"-ac", "1",
		"-f", "wav",
		dst,
	)

	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("ffmpeg convert %q: %w: %s", src, err, stderr.String())
	}

	slog.Debug("voice note converted", "src", src, "dst", dst)
	return dst, nil
}
