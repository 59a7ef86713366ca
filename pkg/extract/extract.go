// Package extract copies the video stream of FLV files into AVI files
// or raw H264 elementary streams.
package extract

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"flvextract/pkg/flv"
	"flvextract/pkg/log"
	"flvextract/pkg/video/avi"
	"flvextract/pkg/video/codec"
	"flvextract/pkg/video/rawh264"
	"flvextract/pkg/warnings"
)

// Options extraction options.
type Options struct {
	// Empty for the directory of the input.
	OutputDir string
	Overwrite bool
}

// VideoWriter writes one video stream.
type VideoWriter interface {
	WriteChunk(chunk []byte, timestamp uint32, frameType codec.FrameType) error
	Finish(averageFrameRate codec.Rational) error
}

// Result extraction result.
type Result struct {
	Input            string
	Outputs          []string
	Codec            codec.Codec
	Frames           int
	AverageFrameRate codec.Rational
	TrueFrameRate    codec.Rational
	Warnings         []string
}

// ErrOutputExists output file exists and overwrite is disabled.
var ErrOutputExists = errors.New("output file already exists")

type extractor struct {
	input  string
	opts   Options
	logger *log.Logger

	writer     VideoWriter
	codec      codec.Codec
	skip       bool
	codecWarn  bool
	timestamps []uint32
	outputs    []string
	warnings   *warnings.List
}

// Extract writes the video stream of the input file. Tags are processed
// in file order, ctx is checked between tags.
func Extract(ctx context.Context, input string, opts Options, logger *log.Logger) (*Result, error) {
	file, err := os.Open(input)
	if err != nil {
		return nil, fmt.Errorf("open input: %w", err)
	}
	defer file.Close()

	r, err := flv.NewReader(bufio.NewReader(file))
	if err != nil {
		return nil, fmt.Errorf("%v: %w", input, err)
	}
	if !r.Header.HasVideo {
		logger.Debug().Src("extract").Job(input).Msg("header has no video flag")
	}

	e := &extractor{
		input:    input,
		opts:     opts,
		logger:   logger,
		warnings: &warnings.List{},
	}

	if err := e.run(ctx, r); err != nil {
		e.finish() //nolint:errcheck
		return nil, err
	}
	return e.finish()
}

func (e *extractor) run(ctx context.Context, r *flv.Reader) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		tag, err := r.ReadTag()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if errors.Is(err, flv.ErrTruncated) {
			e.warnings.Add("File is truncated: %v", err)
			return nil
		}
		if err != nil {
			return fmt.Errorf("read tag: %w", err)
		}

		if tag.Type != flv.TagTypeVideo {
			continue
		}
		if err := e.writeVideoTag(tag); err != nil {
			return err
		}
	}
}

func (e *extractor) writeVideoTag(tag *flv.Tag) error {
	video, err := flv.ParseVideoTag(tag.Data)
	if errors.Is(err, flv.ErrEmptyVideoTag) {
		return nil
	}
	if err != nil {
		return err
	}
	if video.FrameType == codec.FrameTypeCommand || e.skip {
		return nil
	}

	if e.writer == nil {
		if err := e.openWriter(video.Codec); err != nil {
			return err
		}
		if e.skip {
			return nil
		}
	}

	if video.Codec != e.codec {
		if !e.codecWarn {
			e.warnings.Add("Video codec changed from %v to %v, ignoring", e.codec, video.Codec)
			e.codecWarn = true
		}
		return nil
	}

	if !isSequenceHeader(video) {
		e.timestamps = append(e.timestamps, tag.Timestamp)
	}
	return e.writer.WriteChunk(video.Chunk, tag.Timestamp, video.FrameType)
}

func isSequenceHeader(video flv.VideoTag) bool {
	return video.Codec == codec.AVC && len(video.Chunk) > 0 && video.Chunk[0] == 0
}

func (e *extractor) openWriter(c codec.Codec) error {
	var ext string
	switch c {
	case codec.H263, codec.VP6, codec.VP6Alpha:
		ext = ".avi"
	case codec.AVC:
		ext = ".264"
	default:
		e.warnings.Add("Unsupported video codec: %v", c)
		e.skip = true
		return nil
	}

	path := OutputPath(e.input, e.opts.OutputDir, ext)
	outputs := []string{path}
	if c.HasAlpha() {
		outputs = append(outputs, avi.AlphaPath(path))
	}
	if !e.opts.Overwrite {
		for _, output := range outputs {
			if _, err := os.Stat(output); err == nil {
				return fmt.Errorf("%w: %v", ErrOutputExists, output)
			}
		}
	}

	writer, err := createWriter(path, c, e.warnings)
	if err != nil {
		return fmt.Errorf("create writer: %w", err)
	}
	e.writer = writer

	e.codec = c
	e.outputs = outputs
	e.logger.Info().Src("extract").Job(e.input).Msgf("writing %v video to %v", c, path)
	return nil
}

func createWriter(path string, c codec.Codec, warns *warnings.List) (VideoWriter, error) {
	if c == codec.AVC {
		return rawh264.Create(path)
	}
	return avi.Create(path, c, warns)
}

func (e *extractor) finish() (*Result, error) {
	res := &Result{
		Input:            e.input,
		Outputs:          e.outputs,
		Codec:            e.codec,
		Frames:           len(e.timestamps),
		AverageFrameRate: AverageFrameRate(e.timestamps),
		TrueFrameRate:    TrueFrameRate(e.timestamps),
	}

	if e.writer != nil {
		writer := e.writer
		e.writer = nil
		if err := writer.Finish(res.AverageFrameRate); err != nil {
			return nil, fmt.Errorf("finish: %w", err)
		}
	}

	res.Warnings = e.warnings.Messages()
	for _, msg := range res.Warnings {
		e.logger.Warn().Src("extract").Job(e.input).Msg(msg)
	}
	return res, nil
}

// OutputPath returns the output path for input with the extension
// replaced by ext. outputDir overrides the directory of input.
func OutputPath(input string, outputDir string, ext string) string {
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input))
	dir := filepath.Dir(input)
	if outputDir != "" {
		dir = outputDir
	}
	return filepath.Join(dir, base+ext)
}
