// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package objectstore defines the blob storage the pipeline reads uploaded
// files from and stages page images in.
//
// Implementations:
//   - objectstore/s3: S3-compatible storage through minio-go
//   - objectstore/mock: in-memory store for tests
package objectstore

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	// ErrObjectNotFound is returned when a key does not exist.
	ErrObjectNotFound = errors.New("object not found")

	// ErrStoreRequired is returned by constructors given a nil Store.
	ErrStoreRequired = errors.New("object store is required")
)

// MetadataFileExt is the user metadata key the upload front end sets to
// the original file extension.
const MetadataFileExt = "fileext"

// Object is the content and user metadata of one stored blob.
type Object struct {
	Key         string
	Data        []byte
	ContentType string
	Metadata    map[string]string
}

// Store is the blob storage contract. Implementations must be safe for
// concurrent use.
type Store interface {
	// Get returns the object's bytes and user metadata.
	Get(ctx context.Context, key string) (*Object, error)

	// Put writes data under key, replacing any existing object.
	Put(ctx context.Context, key string, data []byte, contentType string, metadata map[string]string) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// Presign returns a URL granting read access to key for ttl.
	Presign(ctx context.Context, key string, ttl time.Duration) (string, error)

	// List returns the keys that start with prefix, in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
}

// MetadataValue looks up a user metadata entry case-insensitively. S3
// servers canonicalize header names, so "fileext" may come back as
// "Fileext" or with an "X-Amz-Meta-" prefix.
func (o *Object) MetadataValue(name string) (string, bool) {
	if o == nil {
		return "", false
	}
	name = strings.ToLower(name)
	for k, v := range o.Metadata {
		k = strings.TrimPrefix(strings.ToLower(k), "x-amz-meta-")
		if k == name {
			return v, true
		}
	}
	return "", false
}
