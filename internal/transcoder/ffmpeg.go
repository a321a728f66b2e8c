package transcoder

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// FFmpegConfig holds configuration for the FFmpeg engine.
type FFmpegConfig struct {
	// FFmpegPath is the path to the ffmpeg binary.
	// If empty, "ffmpeg" will be used (assumes it's in PATH).
	FFmpegPath string

	// VideoCodec is the video codec to use.
	// Default: libx264
	VideoCodec string

	// VideoPreset controls the encoding speed/quality tradeoff.
	// Options: ultrafast, superfast, veryfast, faster, fast, medium, slow, slower, veryslow
	// Default: fast
	VideoPreset string

	// AudioCodec is the audio codec to use.
	// Default: aac
	AudioCodec string

	// ThumbnailOffset is the timestamp the still frame is taken from.
	// Default: 00:00:01
	ThumbnailOffset string
}

// DefaultFFmpegConfig returns an FFmpegConfig with production-ready defaults.
func DefaultFFmpegConfig() FFmpegConfig {
	return FFmpegConfig{
		FFmpegPath:      "ffmpeg",
		VideoCodec:      "libx264",
		VideoPreset:     "fast",
		AudioCodec:      "aac",
		ThumbnailOffset: "00:00:01",
	}
}

// FFmpegEngine implements Engine using the FFmpeg CLI.
type FFmpegEngine struct {
	config FFmpegConfig
}

// Compile-time verification that FFmpegEngine implements Engine.
var _ Engine = (*FFmpegEngine)(nil)

// NewFFmpegEngine creates a new FFmpeg-based engine.
func NewFFmpegEngine(cfg FFmpegConfig) *FFmpegEngine {
	return &FFmpegEngine{
		config: cfg,
	}
}

// TranscodeVariant produces a scaled MP4 rendition of the input.
// It executes FFmpeg as a subprocess and waits for completion.
func (e *FFmpegEngine) TranscodeVariant(ctx context.Context, inputPath, outputDir string, variant Variant) (*Output, error) {
	if err := e.validateInput(inputPath); err != nil {
		return nil, err
	}
	if err := e.validateOutputDir(outputDir); err != nil {
		return nil, err
	}

	outputPath := filepath.Join(outputDir, variant.Label+".mp4")
	args := e.buildVariantArgs(inputPath, outputPath, variant)

	if err := e.runFFmpeg(ctx, args); err != nil {
		return nil, fmt.Errorf("transcode %s: %w", variant.Label, err)
	}

	return &Output{
		Path:  outputPath,
		Label: variant.Label,
		Ext:   "mp4",
	}, nil
}

// GenerateThumbnail extracts a single JPEG frame from the input.
func (e *FFmpegEngine) GenerateThumbnail(ctx context.Context, inputPath, outputDir string) (*Output, error) {
	if err := e.validateInput(inputPath); err != nil {
		return nil, err
	}
	if err := e.validateOutputDir(outputDir); err != nil {
		return nil, err
	}

	outputPath := filepath.Join(outputDir, ThumbnailLabel+".jpg")
	args := e.buildThumbnailArgs(inputPath, outputPath)

	if err := e.runFFmpeg(ctx, args); err != nil {
		return nil, fmt.Errorf("thumbnail: %w", err)
	}

	return &Output{
		Path:  outputPath,
		Label: ThumbnailLabel,
		Ext:   "jpg",
	}, nil
}

// runFFmpeg executes the ffmpeg binary and verifies the run completed.
func (e *FFmpegEngine) runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, e.config.FFmpegPath, args...)
	cmd.Stdout = nil // Discard stdout
	cmd.Stderr = nil // Discard stderr (FFmpeg outputs progress to stderr)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return fmt.Errorf("cancelled: %w", ctx.Err())
		}
		return fmt.Errorf("ffmpeg execution failed: %w", err)
	}
	return nil
}

// validateInput checks if the input file exists and is readable.
func (e *FFmpegEngine) validateInput(inputPath string) error {
	info, err := os.Stat(inputPath)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("input file does not exist: %s", inputPath)
		}
		return fmt.Errorf("failed to access input file: %w", err)
	}

	if info.IsDir() {
		return fmt.Errorf("input path is a directory, expected a file: %s", inputPath)
	}

	return nil
}

// validateOutputDir checks if the output directory exists.
func (e *FFmpegEngine) validateOutputDir(outputDir string) error {
	info, err := os.Stat(outputDir)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("output directory does not exist: %s", outputDir)
		}
		return fmt.Errorf("failed to access output directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("output path is not a directory: %s", outputDir)
	}

	return nil
}

// buildVariantArgs constructs FFmpeg arguments for a scaled MP4 rendition.
func (e *FFmpegEngine) buildVariantArgs(inputPath, outputPath string, variant Variant) []string {
	// Scale filter: -2 ensures width is divisible by 2 (required by many codecs)
	scaleFilter := fmt.Sprintf("scale=-2:%d", variant.Height)

	return []string{
		"-i", inputPath,
		"-vf", scaleFilter,
		"-c:v", e.config.VideoCodec,
		"-preset", e.config.VideoPreset,
		"-c:a", e.config.AudioCodec,
		"-movflags", "+faststart",
		"-y", // Overwrite output files without asking
		outputPath,
	}
}

// buildThumbnailArgs constructs FFmpeg arguments for a single-frame extraction.
func (e *FFmpegEngine) buildThumbnailArgs(inputPath, outputPath string) []string {
	return []string{
		"-ss", e.config.ThumbnailOffset,
		"-i", inputPath,
		"-vframes", "1",
		"-q:v", "2",
		"-y",
		outputPath,
	}
}
