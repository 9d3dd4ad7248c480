package drawing

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func requireInvalidInput(t *testing.T, err error) *InvalidInputError {
	t.Helper()
	if err == nil {
		t.Fatal("expected validation error, got nil")
	}
	var invalid *InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected *InvalidInputError, got %T: %v", err, err)
	}
	return invalid
}

func TestValidateDocumentEmptyPath(t *testing.T) {
	requireInvalidInput(t, ValidateDocument("", 0))
}

func TestValidateDocumentMissingFile(t *testing.T) {
	requireInvalidInput(t, ValidateDocument(filepath.Join(t.TempDir(), "missing.pdf"), 0))
}

func TestValidateDocumentDirectory(t *testing.T) {
	requireInvalidInput(t, ValidateDocument(t.TempDir(), 0))
}

func TestValidateDocumentWrongExtension(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drawing.txt")
	if err := os.WriteFile(path, []byte("not a pdf"), 0o644); err != nil {
		t.Fatal(err)
	}
	requireInvalidInput(t, ValidateDocument(path, 0))
}

func TestValidateDocumentEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.pdf")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	requireInvalidInput(t, ValidateDocument(path, 0))
}

func TestValidateDocumentSizeCap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "big.pdf")
	if err := os.WriteFile(path, make([]byte, 2048), 0o644); err != nil {
		t.Fatal(err)
	}
	requireInvalidInput(t, ValidateDocument(path, 1024))
}

func TestValidateDocumentGarbageContent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	if err := os.WriteFile(path, []byte("this is not pdf syntax"), 0o644); err != nil {
		t.Fatal(err)
	}
	requireInvalidInput(t, ValidateDocument(path, 0))
}

func TestOpenPDFMissingFile(t *testing.T) {
	_, err := OpenPDF(filepath.Join(t.TempDir(), "missing.pdf"))
	requireInvalidInput(t, err)
}
