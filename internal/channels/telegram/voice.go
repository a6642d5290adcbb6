package telegram

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/mymmrac/telego"

	"github.com/nextlevelbuilder/telegpt/internal/audio"
	"github.com/nextlevelbuilder/telegpt/internal/bus"
)

const (
	// voiceMaxBytes caps voice note downloads (20MB, Telegram Bot API limit).
	voiceMaxBytes int64 = 20 * 1024 * 1024

	// downloadMaxRetries is the number of download retry attempts.
	downloadMaxRetries = 3
)

// handleVoice downloads a voice note, transcribes it, and publishes the
// transcript as a normal text message.
func (c *Channel) handleVoice(ctx context.Context, message *telego.Message, senderID, chatIDStr string) {
	if c.transcriber == nil {
		slog.Debug("voice message skipped (transcription disabled)", "chat_id", chatIDStr)
		return
	}

	oggPath, err := c.downloadVoice(ctx, message.Voice.FileID)
	if err != nil {
		slog.Warn("failed to download voice note", "chat_id", chatIDStr, "error", err)
		return
	}
	defer os.Remove(oggPath)

	wavPath, err := audio.ConvertToWav(ctx, oggPath)
	if err != nil {
		slog.Warn("failed to convert voice note", "chat_id", chatIDStr, "error", err)
		return
	}
	defer os.Remove(wavPath)

	transcript, err := c.transcriber.Transcribe(ctx, wavPath)
	if err != nil {
		slog.Warn("failed to transcribe voice note", "chat_id", chatIDStr, "error", err)
		return
	}
	if transcript == "" {
		slog.Debug("empty transcript, voice note ignored", "chat_id", chatIDStr)
		return
	}

	slog.Info("voice note transcribed",
		"chat_id", chatIDStr,
		"duration_s", message.Voice.Duration,
		"transcript_len", len(transcript),
	)

	c.msgBus.PublishInbound(bus.InboundMessage{
		Channel:  c.Name(),
		SenderID: senderID,
		ChatID:   chatIDStr,
		Content:  transcript,
		Metadata: map[string]string{
			"message_id": fmt.Sprintf("%d", message.MessageID),
			"voice":      "true",
		},
	})
}

// downloadVoice fetches a voice file from Telegram by file_id with retry.
// Returns the local file path; the caller removes it.
func (c *Channel) downloadVoice(ctx context.Context, fileID string) (string, error) {
	var file *telego.File
	var err error

	for attempt := 1; attempt <= downloadMaxRetries; attempt++ {
		file, err = c.bot.GetFile(ctx, &telego.GetFileParams{FileID: fileID})
		if err == nil {
			break
		}
		if attempt < downloadMaxRetries {
			slog.Debug("retrying voice download", "file_id", fileID, "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("get file info after %d attempts: %w", downloadMaxRetries, err)
	}

	if file.FilePath == "" {
		return "", fmt.Errorf("empty file path for file_id %s", fileID)
	}
	if int64(file.FileSize) > voiceMaxBytes {
		return "", fmt.Errorf("voice file too large: %d bytes (max %d)", file.FileSize, voiceMaxBytes)
	}

	downloadURL := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", c.config.Token, file.FilePath)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("download voice file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	ext := filepath.Ext(file.FilePath)
	if ext == "" {
		ext = ".oga"
	}

	tmpFile, err := os.CreateTemp("", "telegpt_voice_*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer tmpFile.Close()

	written, err := io.Copy(tmpFile, io.LimitReader(resp.Body, voiceMaxBytes+1))
	if err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("save voice file: %w", err)
	}
	if written > voiceMaxBytes {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("voice file exceeds max size during download: %d bytes", written)
	}

	return tmpFile.Name(), nil
}
