package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDocument_Get(t *testing.T) {
	doc := NewDocument(map[FieldID][]byte{
		3: []byte(`"c"`),
		0: []byte(`"a"`),
		1: []byte(`"b"`),
	})

	assert.Equal(t, 3, doc.Len())
	assert.Equal(t, FieldID(0), doc.Fields[0].Field)
	assert.Equal(t, FieldID(3), doc.Fields[2].Field)

	v, ok := doc.Get(1)
	assert.True(t, ok)
	assert.Equal(t, []byte(`"b"`), v)

	_, ok = doc.Get(2)
	assert.False(t, ok)
}

func TestDocID_String(t *testing.T) {
	assert.Equal(t, "Doc(7)", DocID(7).String())
}
