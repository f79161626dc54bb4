package document

// Splitter interface defines methods for splitting text into chunks
type Splitter interface {
	SplitText(text string) ([]string, error)
}

// SplitDocuments splits multiple documents using a splitter. Each chunk
// carries a copy of its source document's metadata.
func SplitDocuments(splitter Splitter, documents []Document) ([]Document, error) {
	texts := make([]string, len(documents))
	metadatas := make([]map[string]interface{}, len(documents))

	for i, doc := range documents {
		texts[i] = doc.PageContent
		metadatas[i] = doc.Metadata
	}

	return CreateDocuments(splitter, texts, metadatas)
}

// CreateDocuments creates documents from texts and metadata
func CreateDocuments(splitter Splitter, texts []string, metadatas []map[string]interface{}) ([]Document, error) {
	if len(metadatas) == 0 {
		metadatas = make([]map[string]interface{}, len(texts))
	}

	if len(texts) != len(metadatas) {
		return nil, ErrMetadataTextMismatch
	}

	var documents []Document

	for i := range texts {
		chunks, err := splitter.SplitText(texts[i])
		if err != nil {
			return nil, err
		}

		for _, chunk := range chunks {
			documents = append(documents, New(chunk, CopyMetadata(metadatas[i])))
		}
	}

	return documents, nil
}
