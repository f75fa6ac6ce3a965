// Package aggregate combines the per-record outputs of a bulk job into one
// deliverable: a merged PDF or a compressed zip archive.
package aggregate

import (
	"archive/zip"
	"compress/flate"
	"errors"
	"fmt"
	"io"
	"os"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// Entry names one rendered document for archiving.
type Entry struct {
	Name string
	Path string
}

// MergePDFs concatenates the given PDF files, in order, into outputPath.
func MergePDFs(files []string, outputPath string) error {
	if len(files) == 0 {
		return errors.New("nothing to merge")
	}
	config := model.NewDefaultConfiguration()
	return pdfapi.MergeCreateFile(files, outputPath, false, config)
}

// Archive writes every entry into a zip at outputPath using maximum
// compression. The archive is fully flushed to disk before Archive returns.
func Archive(entries []Entry, outputPath string) error {
	if len(entries) == 0 {
		return errors.New("nothing to archive")
	}

	out, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	zw.RegisterCompressor(zip.Deflate, func(w io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(w, flate.BestCompression)
	})

	for _, entry := range entries {
		src, err := os.Open(entry.Path)
		if err != nil {
			zw.Close()
			return fmt.Errorf("failed to read %s: %w", entry.Path, err)
		}
		w, err := zw.Create(entry.Name)
		if err != nil {
			src.Close()
			zw.Close()
			return fmt.Errorf("failed to add %s to archive: %w", entry.Name, err)
		}
		if _, err := io.Copy(w, src); err != nil {
			src.Close()
			zw.Close()
			return fmt.Errorf("failed to write %s to archive: %w", entry.Name, err)
		}
		src.Close()
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	return out.Sync()
}
