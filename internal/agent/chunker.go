package agent

import (
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"
)

// Chunker splits a file's raw content into ordered, independently-ingestible
// pieces. Chunkers are deliberately simple string splitters, not format
// parsers: no tree-sitter-grade grammar is available in the dependency
// surface this package draws from, so every format short of Markdown/CSV/JSON
// falls back to paragraph splitting.
type Chunker interface {
	Chunk(content string) []string
}

// chunkerFor selects a Chunker by file extension, defaulting to paragraph
// splitting for anything it doesn't recognize.
func chunkerFor(path string) Chunker {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown":
		return markdownChunker{}
	case ".csv":
		return csvChunker{}
	case ".json":
		return jsonChunker{}
	default:
		return paragraphChunker{}
	}
}

// markdownChunker splits on heading lines ("#", "##", ...), keeping each
// heading with the body text that follows it until the next heading.
type markdownChunker struct{}

func (markdownChunker) Chunk(content string) []string {
	lines := strings.Split(content, "\n")
	var chunks []string
	var cur strings.Builder

	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			chunks = append(chunks, s)
		}
		cur.Reset()
	}

	sawHeading := false
	for _, line := range lines {
		if isHeadingLine(line) {
			sawHeading = true
			if cur.Len() > 0 {
				flush()
			}
		}
		cur.WriteString(line)
		cur.WriteString("\n")
	}
	flush()

	if !sawHeading || len(chunks) == 0 {
		return paragraphChunker{}.Chunk(content)
	}
	return chunks
}

func isHeadingLine(line string) bool {
	trimmed := strings.TrimSpace(line)
	return strings.HasPrefix(trimmed, "#")
}

// csvChunker batches data rows into groups of csvBatchSize, each chunk
// rendered as newline-joined rows (the header, if any, is left to the first
// row of the first chunk — this chunker does no CSV parsing beyond line
// splitting).
type csvChunker struct{}

const csvBatchSize = 10

func (csvChunker) Chunk(content string) []string {
	lines := splitNonEmptyLines(content)
	if len(lines) == 0 {
		return nil
	}
	var chunks []string
	for i := 0; i < len(lines); i += csvBatchSize {
		end := i + csvBatchSize
		if end > len(lines) {
			end = len(lines)
		}
		chunks = append(chunks, strings.Join(lines[i:end], "\n"))
	}
	return chunks
}

func splitNonEmptyLines(content string) []string {
	var out []string
	for _, l := range strings.Split(content, "\n") {
		if strings.TrimSpace(l) != "" {
			out = append(out, l)
		}
	}
	return out
}

// jsonChunker splits a top-level JSON object into one chunk per key, or a
// top-level JSON array into one chunk per element. Anything that doesn't
// decode as either falls back to paragraph splitting.
type jsonChunker struct{}

func (jsonChunker) Chunk(content string) []string {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(content), &obj); err == nil {
		keys := make([]string, 0, len(obj))
		for k := range obj {
			keys = append(keys, k)
		}
		// Keys sort so the chunk index, and with it the derived chunk id,
		// is stable across re-ingestions of the same file.
		sort.Strings(keys)
		chunks := make([]string, 0, len(obj))
		for _, k := range keys {
			chunks = append(chunks, k+": "+string(obj[k]))
		}
		if len(chunks) > 0 {
			return chunks
		}
	}

	var arr []json.RawMessage
	if err := json.Unmarshal([]byte(content), &arr); err == nil && len(arr) > 0 {
		chunks := make([]string, 0, len(arr))
		for _, el := range arr {
			chunks = append(chunks, string(el))
		}
		return chunks
	}

	return paragraphChunker{}.Chunk(content)
}

// paragraphChunker splits on blank lines, the fallback for any format
// without a dedicated chunker.
type paragraphChunker struct{}

func (paragraphChunker) Chunk(content string) []string {
	raw := strings.Split(content, "\n\n")
	chunks := make([]string, 0, len(raw))
	for _, p := range raw {
		if s := strings.TrimSpace(p); s != "" {
			chunks = append(chunks, s)
		}
	}
	return chunks
}
