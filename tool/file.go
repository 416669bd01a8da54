package tool

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// StatLocalFile returns the base name and size of a regular file.
func StatLocalFile(path string) (string, int64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", 0, fmt.Errorf("failed to stat file: %v", err)
	}
	if info.IsDir() {
		return "", 0, fmt.Errorf("path is a directory, not a file")
	}
	return filepath.Base(path), info.Size(), nil
}

// SafeFileName strips any directory part so a server supplied name cannot escape dir.
func SafeFileName(name string) (string, error) {
	base := filepath.Base(strings.ReplaceAll(strings.TrimSpace(name), "\\", "/"))
	if base == "" || base == "." || base == ".." || base == "/" {
		return "", fmt.Errorf("invalid file name %q", name)
	}
	return base, nil
}

// SaveStream writes src to dir/name through a temp file so a failed transfer
// never leaves a partial file under the final name.
func SaveStream(ctx context.Context, dir, name string, src io.Reader) (string, int64, error) {
	fileName, err := SafeFileName(name)
	if err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create download dir failed: %w", err)
	}
	tmp, err := os.CreateTemp(dir, "."+fileName+".*.part")
	if err != nil {
		return "", 0, fmt.Errorf("create temp file failed: %w", err)
	}
	tmpPath := tmp.Name()
	written, copyErr := CopyWithContext(ctx, tmp, src)
	closeErr := tmp.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		if err := os.Remove(tmpPath); err != nil {
			DefaultLogger.Warnf("Failed to remove temp file %s: %v", tmpPath, err)
		}
		return "", written, fmt.Errorf("write %s failed: %w", fileName, copyErr)
	}
	target := filepath.Join(dir, fileName)
	if err := os.Rename(tmpPath, target); err != nil {
		_ = os.Remove(tmpPath)
		return "", written, fmt.Errorf("rename to %s failed: %w", target, err)
	}
	return target, written, nil
}

// CopyWithContext copies from src to dst while respecting context cancellation.
func CopyWithContext(ctx context.Context, dst io.Writer, src io.Reader) (int64, error) {
	buf := make([]byte, 256*1024)
	var written int64
	for {
		select {
		case <-ctx.Done():
			return written, ctx.Err()
		default:
		}

		nr, readErr := src.Read(buf)
		if nr > 0 {
			nw, writeErr := dst.Write(buf[0:nr])
			if nw < 0 || nr < nw {
				nw = 0
				if writeErr == nil {
					writeErr = fmt.Errorf("invalid write result")
				}
			}
			written += int64(nw)
			if writeErr != nil {
				return written, writeErr
			}
			if nr != nw {
				return written, io.ErrShortWrite
			}
		}
		if readErr != nil {
			if readErr == io.EOF {
				return written, nil
			}
			return written, readErr
		}
	}
}
