package extract

import "context"

// File is the input to text extraction. URL points at the stored object for
// service-side analysis; Data carries the raw bytes for local extraction.
type File struct {
	FileName    string
	ContentType string
	URL         string
	Data        []byte
}

// Result holds extracted text and the page count reported by the extractor.
type Result struct {
	Text  string
	Pages int
}

// TextExtractor turns an uploaded file into plain text plus a page count.
type TextExtractor interface {
	Extract(ctx context.Context, file File) (Result, error)
}
