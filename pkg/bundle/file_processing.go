package bundle

import (
	"bufio"
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// process sizes, reads, decodes and writes one candidate. Per-file problems
// are recorded in summary; only sink failures are returned.
func (b *Builder) process(w *bufio.Writer, c Candidate, summary *Summary) error {
	info, err := b.stat(c.Path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			b.logger.Warn("File not found", zap.String("path", c.RelPath))
			summary.skip(c.RelPath, SkipNotFound, 0, nil)
			return nil
		}
		b.logger.Error("Failed to stat file", zap.String("path", c.RelPath), zap.Error(err))
		summary.skip(c.RelPath, SkipReadError, 0, err)
		return nil
	}
	if info.IsDir() {
		err := fmt.Errorf("%s is a directory", c.RelPath)
		b.logger.Error("Failed to read file", zap.String("path", c.RelPath), zap.Error(err))
		summary.skip(c.RelPath, SkipReadError, 0, err)
		return nil
	}

	c.Size = info.Size()
	if b.opts.MaxFileSize > 0 && c.Size > b.opts.MaxFileSize {
		b.logger.Warn("Skipping large file",
			zap.String("path", c.RelPath),
			zap.Int64("sizeBytes", c.Size),
			zap.Int64("maxFileSize", b.opts.MaxFileSize))
		summary.skip(c.RelPath, SkipTooLarge, c.Size, nil)
		return nil
	}

	raw, err := b.readFile(c.Path)
	if err != nil {
		b.logger.Error("Failed to read file", zap.String("path", c.RelPath), zap.Error(err))
		summary.skip(c.RelPath, SkipReadError, c.Size, err)
		return nil
	}

	if b.opts.SkipBinary && isBinary(raw) {
		b.logger.Warn("Skipping binary file", zap.String("path", c.RelPath))
		summary.skip(c.RelPath, SkipBinary, c.Size, nil)
		return nil
	}

	content := decode(b.encoding, raw)
	if err := writeEntry(w, Entry{RelPath: c.RelPath, Content: content}); err != nil {
		return fmt.Errorf("%w: writing %s: %w", ErrOutputUnavailable, c.RelPath, err)
	}

	summary.add(c.RelPath, len(content))
	b.logger.Info("Added file", zap.String("path", c.RelPath), zap.Int("contentSizeBytes", len(content)))
	return nil
}

// lookupEncoding resolves a WHATWG encoding label.
func lookupEncoding(label string) (encoding.Encoding, error) {
	if label == "" {
		label = DefaultEncoding
	}
	enc, err := htmlindex.Get(label)
	if err != nil {
		return nil, fmt.Errorf("unknown encoding %q: %w", label, err)
	}
	return enc, nil
}

// decode converts raw bytes to text, replacing undecodable sequences with
// U+FFFD. It never fails.
func decode(enc encoding.Encoding, raw []byte) string {
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return strings.ToValidUTF8(string(raw), "\uFFFD")
	}
	return string(out)
}
