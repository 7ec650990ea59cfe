package extract

import (
	"bytes"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/dslipak/pdf"
)

// Text pulls plain text out of an uploaded document. PDF uploads go through
// the pdf reader; anything else is treated as plain text. A readable file
// with no text returns an empty string, which callers treat as "skip".
func Text(data []byte, fileName string) (string, error) {
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".pdf":
		return fromPDF(data)
	default:
		return string(data), nil
	}
}

func fromPDF(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	content, err := reader.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("extract pdf text: %w", err)
	}

	var builder strings.Builder
	if _, err := io.Copy(&builder, content); err != nil {
		return "", fmt.Errorf("read pdf text: %w", err)
	}

	return builder.String(), nil
}
