package model

// Document is one retrieved evidence document
type Document struct {
	Content  string            `json:"content"`
	Source   string            `json:"source,omitempty"`   // File path or URL the content came from
	Metadata map[string]string `json:"metadata,omitempty"` // Free-form provider metadata
}

// Documents builds evidence documents from raw strings
func Documents(contents ...string) []Document {
	docs := make([]Document, 0, len(contents))
	for _, c := range contents {
		docs = append(docs, Document{Content: c})
	}
	return docs
}
