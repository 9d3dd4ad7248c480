package drawing

import (
	"fmt"
	"os"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// ValidateDocument checks that path points to a structurally valid PDF before
// any extraction runs. Failures are reported as *InvalidInputError so callers
// can distinguish a bad source from a pipeline failure.
func ValidateDocument(path string, maxFileSize int64) error {
	if path == "" {
		return &InvalidInputError{Path: path, Err: fmt.Errorf("path cannot be empty")}
	}

	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return &InvalidInputError{Path: path, Err: fmt.Errorf("file does not exist")}
	}
	if err != nil {
		return &InvalidInputError{Path: path, Err: fmt.Errorf("cannot access file: %w", err)}
	}

	if fileInfo.IsDir() {
		return &InvalidInputError{Path: path, Err: fmt.Errorf("path is a directory, not a file")}
	}

	if !strings.HasSuffix(strings.ToLower(path), ".pdf") {
		return &InvalidInputError{Path: path, Err: fmt.Errorf("file is not a PDF")}
	}

	if fileInfo.Size() == 0 {
		return &InvalidInputError{Path: path, Err: fmt.Errorf("file is empty")}
	}

	if maxFileSize > 0 && fileInfo.Size() > maxFileSize {
		return &InvalidInputError{Path: path, Err: fmt.Errorf("file too large: %d bytes (max: %d bytes)", fileInfo.Size(), maxFileSize)}
	}

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	if err := api.ValidateFile(path, conf); err != nil {
		return &InvalidInputError{Path: path, Err: fmt.Errorf("pdf validation failed: %w", err)}
	}

	return nil
}
