package pdf

import (
	"strings"
	"time"
)

// pdfDateLayout is the digit portion of a PDF date string (D:YYYYMMDDHHMMSS)
const pdfDateLayout = "20060102150405"

// convertPDFDate converts a PDF metadata date string to a plain
// "2006-01-02 15:04:05" timestamp. Strings that do not carry a full
// date are returned unchanged.
func convertPDFDate(pdfDate string) string {
	digits := strings.TrimPrefix(pdfDate, "D:")
	if len(digits) < len(pdfDateLayout) {
		return pdfDate
	}

	t, err := time.Parse(pdfDateLayout, digits[:len(pdfDateLayout)])
	if err != nil {
		return pdfDate
	}

	return t.Format("2006-01-02 15:04:05")
}

// fileMetadata normalizes the document-level metadata reported by MuPDF.
// Empty values are dropped and PDF date strings are converted to plain
// timestamps.
func fileMetadata(raw map[string]string) map[string]interface{} {
	metadata := make(map[string]interface{}, len(raw))

	for key, value := range raw {
		if value == "" {
			continue
		}
		if key == "creationDate" || key == "modDate" {
			value = convertPDFDate(value)
		}
		metadata[key] = value
	}

	return metadata
}
