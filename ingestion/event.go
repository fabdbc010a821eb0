package ingestion

import (
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/objectstore"
)

// FileRef points at one uploaded object.
type FileRef struct {
	// Bucket is informational; the pipeline reads from its configured store.
	Bucket string
	// Key is the object key. Its last path segment is the document id.
	Key string
	// FileType overrides the type taken from object metadata or the key.
	FileType string
}

// s3Event is the subset of an S3 object-created notification the pipeline reads.
type s3Event struct {
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// ParseS3Event reads an S3 notification and returns one FileRef per record.
// Object keys arrive URL-encoded and are decoded.
func ParseS3Event(r io.Reader) ([]FileRef, error) {
	var event s3Event
	if err := json.NewDecoder(r).Decode(&event); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEvent, err)
	}
	if len(event.Records) == 0 {
		return nil, fmt.Errorf("%w: no records", ErrInvalidEvent)
	}

	refs := make([]FileRef, 0, len(event.Records))
	for i, rec := range event.Records {
		if rec.S3.Object.Key == "" {
			return nil, fmt.Errorf("%w: record %d has no object key", ErrInvalidEvent, i)
		}
		key, err := url.QueryUnescape(rec.S3.Object.Key)
		if err != nil {
			return nil, fmt.Errorf("%w: record %d: %w", ErrInvalidEvent, i, err)
		}
		refs = append(refs, FileRef{Bucket: rec.S3.Bucket.Name, Key: key})
	}
	return refs, nil
}

// DocumentIDFromKey parses the document id from the last segment of an
// object key, ignoring any extension: "uploads/<id>" and "uploads/<id>.pdf"
// both name document <id>.
func DocumentIDFromKey(key string) (core.DocumentID, error) {
	name := path.Base(key)
	if ext := path.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	return core.ParseDocumentID(name)
}

// resolveFileType picks the file type tag: an explicit ref type first,
// then the object's fileext metadata, then the key extension.
func resolveFileType(ref FileRef, obj *objectstore.Object) string {
	if ref.FileType != "" {
		return core.NormalizeFileType(ref.FileType)
	}
	if v, ok := obj.MetadataValue(objectstore.MetadataFileExt); ok && v != "" {
		return core.NormalizeFileType(v)
	}
	return core.NormalizeFileType(path.Ext(ref.Key))
}
