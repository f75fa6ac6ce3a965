package aggregate

import (
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	pdfapi "github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-formfill/internal/testpdf"
)

func writeDoc(t *testing.T, dir, name string, pages ...string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, testpdf.Document(pages...), 0o644))
	return path
}

func TestMergePDFs(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.pdf", "first")
	b := writeDoc(t, dir, "b.pdf", "second", "third")
	out := filepath.Join(dir, "merged.pdf")

	require.NoError(t, MergePDFs([]string{a, b}, out))

	n, err := pdfapi.PageCountFile(out)
	require.NoError(t, err)
	assert.Equal(t, 3, n)
}

func TestMergePDFs_Empty(t *testing.T) {
	err := MergePDFs(nil, filepath.Join(t.TempDir(), "out.pdf"))
	assert.ErrorContains(t, err, "nothing to merge")
}

func TestArchive(t *testing.T) {
	dir := t.TempDir()
	a := writeDoc(t, dir, "a.pdf", "first")
	b := writeDoc(t, dir, "b.pdf", "second")
	out := filepath.Join(dir, "bundle.zip")

	entries := []Entry{
		{Name: "Alice.pdf", Path: a},
		{Name: "Bob.pdf", Path: b},
	}
	require.NoError(t, Archive(entries, out))

	zr, err := zip.OpenReader(out)
	require.NoError(t, err)
	defer zr.Close()
	require.Len(t, zr.File, 2)
	assert.Equal(t, "Alice.pdf", zr.File[0].Name)
	assert.Equal(t, "Bob.pdf", zr.File[1].Name)

	// Entries decompress back to the original bytes.
	rc, err := zr.File[0].Open()
	require.NoError(t, err)
	defer rc.Close()
	var header [5]byte
	_, err = rc.Read(header[:])
	require.NoError(t, err)
	assert.Equal(t, "%PDF-", string(header[:]))
}

func TestArchive_Empty(t *testing.T) {
	err := Archive(nil, filepath.Join(t.TempDir(), "out.zip"))
	assert.ErrorContains(t, err, "nothing to archive")
}

func TestArchive_MissingSource(t *testing.T) {
	out := filepath.Join(t.TempDir(), "out.zip")
	err := Archive([]Entry{{Name: "x.pdf", Path: "/nonexistent/x.pdf"}}, out)
	assert.Error(t, err)
}
