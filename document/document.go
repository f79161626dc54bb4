package document

// Document is one unit of extracted content: the text of a page or chunk
// together with its metadata (page number, source, image paths, tables)
type Document struct {
	PageContent string                 `json:"page_content"`
	Metadata    map[string]interface{} `json:"metadata"`
}

// New builds a Document, never leaving Metadata nil
func New(pageContent string, metadata map[string]interface{}) Document {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return Document{
		PageContent: pageContent,
		Metadata:    metadata,
	}
}

// CopyMetadata returns a shallow copy of a metadata map, so split chunks
// do not share one map
func CopyMetadata(metadata map[string]interface{}) map[string]interface{} {
	copied := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		copied[k] = v
	}
	return copied
}
