package convert

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/h2non/filetype"
	"golang.org/x/net/html/charset"
)

// enough to see BOM, leading comments and doctype
const sniffLen = 512

var markupType = filetype.NewType("html", "text/html")

func init() {
	filetype.AddMatcher(markupType, matchMarkup)
}

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// matchMarkup accepts anything that after optional BOM and white space
// starts with a tag, a comment or a doctype.
func matchMarkup(buf []byte) bool {
	switch {
	case bytes.HasPrefix(buf, bomUTF8):
		buf = buf[len(bomUTF8):]
	case bytes.HasPrefix(buf, bomUTF16BE), bytes.HasPrefix(buf, bomUTF16LE):
		// charset reader sorts it out
		return true
	}
	buf = bytes.TrimLeft(buf, " \t\r\n")
	if len(buf) < 2 || buf[0] != '<' {
		return false
	}
	c := buf[1]
	return c == '!' || c == '?' || c == '/' || (c|0x20 >= 'a' && c|0x20 <= 'z')
}

func isMarkupName(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".html", ".htm", ".xhtml":
		return true
	}
	return false
}

func sniff(r io.Reader) ([]byte, error) {
	head := make([]byte, sniffLen)
	n, err := io.ReadFull(r, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return nil, err
	}
	return head[:n], nil
}

func sniffFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return sniff(f)
}

// isArchiveFile checks if file is a zip archive, name and content must
// agree.
func isArchiveFile(path string) (bool, error) {
	if !strings.EqualFold(filepath.Ext(path), ".zip") {
		return false, nil
	}
	head, err := sniffFile(path)
	if err != nil {
		return false, err
	}
	return filetype.Is(head, "zip"), nil
}

// isMarkupFile checks if file looks like html source.
func isMarkupFile(path string) (bool, error) {
	if !isMarkupName(path) {
		return false, nil
	}
	head, err := sniffFile(path)
	if err != nil {
		return false, err
	}
	return filetype.IsType(head, markupType), nil
}

func isMarkupInArchive(f *zip.File) (bool, error) {
	if !isMarkupName(f.Name) {
		return false, nil
	}
	r, err := f.Open()
	if err != nil {
		return false, err
	}
	defer r.Close()
	head, err := sniff(r)
	if err != nil {
		return false, err
	}
	return filetype.IsType(head, markupType), nil
}

// decodeMarkup converts source to UTF-8. Encoding comes from BOM, meta
// charset declaration or content sniffing, in that order.
func decodeMarkup(data []byte) (string, error) {
	r, err := charset.NewReader(bytes.NewReader(data), "text/html")
	if err != nil {
		return "", fmt.Errorf("unable to detect source encoding: %w", err)
	}
	text, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("unable to decode source: %w", err)
	}
	// decoders keep byte order mark
	return strings.TrimPrefix(string(text), "\uFEFF"), nil
}
