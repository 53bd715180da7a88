package ingest

import (
	"archive/zip"
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"golang.org/x/net/html"
)

// EPUBLoader extracts text from EPUB archives. An EPUB is a zip of XHTML
// content documents; entries are read in archive path order, which for
// mainstream EPUBs follows the book's spine.
type EPUBLoader struct{}

// NewEPUBLoader creates an EPUB loader.
func NewEPUBLoader() *EPUBLoader { return &EPUBLoader{} }

// Extract concatenates the text of all XHTML content documents.
func (l *EPUBLoader) Extract(ctx context.Context, filePath string) (string, error) {
	r, err := zip.OpenReader(filePath)
	if err != nil {
		return "", fmt.Errorf("open epub %s: %w", filePath, err)
	}
	defer r.Close()

	var docs []*zip.File
	for _, f := range r.File {
		switch strings.ToLower(path.Ext(f.Name)) {
		case ".xhtml", ".html", ".htm":
			docs = append(docs, f)
		}
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].Name < docs[j].Name })

	var parts []string
	for _, f := range docs {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := extractHTMLText(f)
		if err != nil {
			return "", fmt.Errorf("epub %s entry %s: %w", filePath, f.Name, err)
		}
		if text != "" {
			parts = append(parts, text)
		}
	}

	return normalizeText(strings.Join(parts, "\n\n")), nil
}

func extractHTMLText(f *zip.File) (string, error) {
	rc, err := f.Open()
	if err != nil {
		return "", err
	}
	defer rc.Close()

	node, err := html.Parse(rc)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	collectText(node, &b)
	return strings.TrimSpace(b.String()), nil
}

func collectText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "head":
			return
		case "p", "div", "br", "h1", "h2", "h3", "h4", "h5", "h6", "li":
			b.WriteString("\n")
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, b)
	}
}
