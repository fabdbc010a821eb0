package ingestion

import (
	"errors"
	"net/http"

	"github.com/poiesic/docingest/core"
	"github.com/poiesic/docingest/objectstore"
)

// StatusCode maps a ProcessDocument error to the HTTP status an upload
// notification handler reports for it.
func StatusCode(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, core.ErrUnsupportedFileType), errors.Is(err, core.ErrInvalidIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, core.ErrDocumentNotFound), errors.Is(err, objectstore.ErrObjectNotFound):
		return http.StatusNotFound
	case errors.Is(err, core.ErrNoContentExtracted):
		return http.StatusUnprocessableEntity
	case errors.Is(err, core.ErrEmbeddingService):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
