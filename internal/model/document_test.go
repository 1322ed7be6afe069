package model

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseTags(t *testing.T) {
	assert.Equal(t, TagSet{"finance", "Q1", "report"}, ParseTags(" finance, Q1 ,,report, finance "))
	assert.Equal(t, TagSet{}, ParseTags(""))
	// case preserved, so these are distinct
	assert.Equal(t, TagSet{"HR", "hr"}, ParseTags("HR,hr"))
}

func TestTagSet_UnmarshalJSON(t *testing.T) {
	t.Run("array", func(t *testing.T) {
		var ts TagSet
		require.NoError(t, json.Unmarshal([]byte(`[" a ","b","a",""]`), &ts))
		assert.Equal(t, TagSet{"a", "b"}, ts)
	})

	t.Run("comma string", func(t *testing.T) {
		var ts TagSet
		require.NoError(t, json.Unmarshal([]byte(`"x, y"`), &ts))
		assert.Equal(t, TagSet{"x", "y"}, ts)
	})

	t.Run("invalid", func(t *testing.T) {
		var ts TagSet
		assert.Error(t, json.Unmarshal([]byte(`42`), &ts))
	})
}

func TestDocumentUpdate_Apply(t *testing.T) {
	doc := &Document{Title: "old", Description: "keep", Category: "finance", Tags: []string{"a"}}
	title := "new"
	tags := TagSet{"b", "c"}

	DocumentUpdate{Title: &title, Tags: &tags}.Apply(doc)

	assert.Equal(t, "new", doc.Title)
	assert.Equal(t, "keep", doc.Description)
	assert.Equal(t, "finance", doc.Category)
	assert.Equal(t, []string{"b", "c"}, doc.Tags)
}

func TestDocumentUpdate_IgnoresUnknownFields(t *testing.T) {
	var upd DocumentUpdate
	body := `{"id":"other","storedName":"evil","size":1,"title":"t"}`
	require.NoError(t, json.Unmarshal([]byte(body), &upd))

	doc := &Document{ID: "doc-1", StoredName: "blob", Size: 10}
	upd.Apply(doc)

	assert.Equal(t, "doc-1", doc.ID)
	assert.Equal(t, "blob", doc.StoredName)
	assert.Equal(t, int64(10), doc.Size)
	assert.Equal(t, "t", doc.Title)
}

func TestDocument_Clone(t *testing.T) {
	doc := &Document{Tags: []string{"a"}, History: []HistoryEntry{{Version: 1}}}
	c := doc.Clone()
	c.Tags[0] = "b"
	c.History[0].Version = 2

	assert.Equal(t, "a", doc.Tags[0])
	assert.Equal(t, 1, doc.History[0].Version)
}

func TestStatus_IsDecision(t *testing.T) {
	assert.True(t, StatusApproved.IsDecision())
	assert.True(t, StatusRejected.IsDecision())
	assert.False(t, StatusPending.IsDecision())
	assert.False(t, Status("archived").IsDecision())
}
