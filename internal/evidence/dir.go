package evidence

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/watchdog/internal/model"
)

var documentExts = map[string]bool{".txt": true, ".md": true, ".html": true, ".htm": true}

// DirProvider serves documents loaded from a directory tree
type DirProvider struct {
	dir  string
	docs []model.Document
}

// NewDirProvider loads every .txt, .md and .html file under dir
func NewDirProvider(dir string) (*DirProvider, error) {
	p := &DirProvider{dir: dir}
	if err := p.load(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *DirProvider) load() error {
	var docs []model.Document
	err := filepath.WalkDir(p.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !documentExts[strings.ToLower(filepath.Ext(path))] {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}

		content := string(data)
		meta := map[string]string{"source": "file"}
		if isHTML(path) {
			title, text, err := VisibleText(content)
			if err != nil {
				return fmt.Errorf("parse %s: %w", path, err)
			}
			content = text
			if title != "" {
				meta["title"] = title
			}
		}
		if strings.TrimSpace(content) == "" {
			return nil
		}

		docs = append(docs, model.Document{Content: content, Source: path, Metadata: meta})
		return nil
	})
	if err != nil {
		return fmt.Errorf("load evidence dir: %w", err)
	}
	p.docs = docs
	return nil
}

// Len returns the number of loaded documents
func (p *DirProvider) Len() int {
	return len(p.docs)
}

// Retrieve ranks loaded documents against query
func (p *DirProvider) Retrieve(_ context.Context, query string, k int) ([]model.Document, error) {
	return Rank(query, p.docs, k), nil
}
