// Package documents fetches loan documents stored under a document key.
package documents

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNotFound is returned when no document exists for a key and file name.
var ErrNotFound = errors.New("document not found")

const defaultContentType = "application/octet-stream"

var contentTypes = map[string]string{
	"pdf":  "application/pdf",
	"jpg":  "image/jpeg",
	"jpeg": "image/jpeg",
	"png":  "image/png",
	"xls":  "application/vnd.ms-excel",
	"xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"doc":  "application/msword",
	"docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"rtf":  "application/rtf",
	"gif":  "image/gif",
	"zip":  "application/zip",
}

// Document is a downloaded file ready to hand to a client.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Fetcher retrieves the file fileName stored under key.
type Fetcher interface {
	Fetch(ctx context.Context, key, fileName string) (Document, error)
}

// ContentType maps an extension such as "pdf" or ".PDF" to a MIME type.
func ContentType(ext string) string {
	ext = strings.Replace(strings.TrimSpace(strings.ToLower(ext)), ".", "", 1)
	if ct, ok := contentTypes[ext]; ok {
		return ct
	}
	return defaultContentType
}

// Extension returns the lowercased text after the last dot of fileName, or
// the whole name when it has no dot.
func Extension(fileName string) string {
	if i := strings.LastIndex(fileName, "."); i >= 0 {
		return strings.ToLower(fileName[i+1:])
	}
	return strings.ToLower(fileName)
}

// IsText reports whether fileName is a .txt file, which is stored base64
// encoded inside a JSON envelope.
func IsText(fileName string) bool {
	return strings.TrimSpace(Extension(fileName)) == "txt"
}

// FileName joins name and ext with exactly one dot.
func FileName(name, ext string) string {
	name = strings.TrimSpace(name)
	ext = strings.TrimSpace(ext)
	if strings.HasPrefix(ext, ".") {
		return name + ext
	}
	return name + "." + ext
}

type textEnvelope struct {
	FileContent string `json:"fileContent"`
}

// decodeText unwraps the {"fileContent": "<base64>"} envelope used for text files.
func decodeText(raw []byte) ([]byte, error) {
	var env textEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode text envelope: %w", err)
	}
	data, err := base64.StdEncoding.DecodeString(env.FileContent)
	if err != nil {
		return nil, fmt.Errorf("decode base64 content: %w", err)
	}
	return data, nil
}

// EncodeText wraps data in the text file envelope.
func EncodeText(data []byte) ([]byte, error) {
	return json.Marshal(textEnvelope{FileContent: base64.StdEncoding.EncodeToString(data)})
}

// newDocument builds a Document from the stored bytes of fileName.
func newDocument(fileName string, raw []byte) (Document, error) {
	doc := Document{Name: fileName, ContentType: ContentType(Extension(fileName)), Data: raw}
	if IsText(fileName) {
		data, err := decodeText(raw)
		if err != nil {
			return Document{}, err
		}
		doc.Data = data
		doc.ContentType = "text/plain; charset=utf-8"
	}
	return doc, nil
}

func objectName(key, fileName string) string {
	return strings.Trim(key, "/") + "/" + fileName
}
