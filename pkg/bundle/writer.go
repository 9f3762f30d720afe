package bundle

import (
	"io"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

var separator = strings.Repeat("=", SeparatorWidth)

// writeEntry writes one delimited block:
//
//	\n
//	<80 x '='>\n
//	FILE: <path>\n
//	<80 x '='>\n
//	\n
//	<content>\n
func writeEntry(w io.StringWriter, e Entry) error {
	for _, s := range []string{"\n", separator, "\nFILE: ", e.RelPath, "\n", separator, "\n\n", e.Content, "\n"} {
		if _, err := w.WriteString(s); err != nil {
			return err
		}
	}
	return nil
}

// outputFile is a bundle being written next to its final destination.
type outputFile struct {
	file     *os.File
	path     string
	tempPath string
	logger   *zap.Logger
}

// createOutput opens a temporary file in the destination directory, creating
// the directory when needed.
func createOutput(dest string, logger *zap.Logger) (*outputFile, error) {
	if err := ensureDirectory(filepath.Dir(dest), logger); err != nil {
		return nil, err
	}
	f, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		logger.Error("Failed to create output file", zap.String("file", dest), zap.Error(err))
		return nil, err
	}
	return &outputFile{file: f, path: dest, tempPath: f.Name(), logger: logger}, nil
}

// commit closes the temporary file and moves it over the destination.
func (o *outputFile) commit() error {
	if err := o.file.Close(); err != nil {
		o.logger.Error("Failed to close output file", zap.String("file", o.tempPath), zap.Error(err))
		_ = os.Remove(o.tempPath)
		return err
	}
	if err := os.Chmod(o.tempPath, 0644); err != nil {
		o.logger.Warn("Failed to set output permissions", zap.String("file", o.tempPath), zap.Error(err))
	}
	if err := os.Rename(o.tempPath, o.path); err != nil {
		o.logger.Error("Failed to move output into place", zap.String("file", o.path), zap.Error(err))
		_ = os.Remove(o.tempPath)
		return err
	}
	return nil
}

// abort discards the temporary file.
func (o *outputFile) abort() {
	_ = o.file.Close()
	if err := os.Remove(o.tempPath); err != nil && !os.IsNotExist(err) {
		o.logger.Warn("Failed to remove temporary output", zap.String("file", o.tempPath), zap.Error(err))
	}
}

// ensureDirectory ensures a directory exists, creating it if necessary.
func ensureDirectory(path string, logger *zap.Logger) error {
	if err := os.MkdirAll(path, 0755); err != nil {
		logger.Error("Failed to create directory", zap.String("path", path), zap.Error(err))
		return err
	}
	return nil
}

// writeToFile writes data to a file, creating its directory first.
func writeToFile(path string, data []byte, perm os.FileMode, logger *zap.Logger) error {
	if err := ensureDirectory(filepath.Dir(path), logger); err != nil {
		return err
	}
	if err := os.WriteFile(path, data, perm); err != nil {
		logger.Error("Failed to write file", zap.String("path", path), zap.Error(err))
		return err
	}
	logger.Debug("Successfully wrote file", zap.String("path", path))
	return nil
}
