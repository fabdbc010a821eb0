package objectstore

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestObject_MetadataValue(t *testing.T) {
	obj := &Object{Metadata: map[string]string{"Fileext": "PDF", "X-Amz-Meta-Owner": "ops"}}

	v, ok := obj.MetadataValue("fileext")
	assert.True(t, ok)
	assert.Equal(t, "PDF", v)

	v, ok = obj.MetadataValue("owner")
	assert.True(t, ok)
	assert.Equal(t, "ops", v)

	_, ok = obj.MetadataValue("missing")
	assert.False(t, ok)

	var nilObj *Object
	_, ok = nilObj.MetadataValue("fileext")
	assert.False(t, ok)
}
