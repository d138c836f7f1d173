package analysis

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/pagefinder/internal/model"
)

func testDocument(n int) model.Document {
	contents := make([]string, n)
	for i := range contents {
		contents[i] = fmt.Sprintf("content of page %d", i+1)
	}
	return model.NewDocument("test.pdf", contents)
}

func TestMapSelection(t *testing.T) {
	doc := testDocument(20)

	ms := MapSelection(doc, model.Selection{5, 2, 9})

	assert.Equal(t, model.PageMapping{
		{Local: 1, Original: 2},
		{Local: 2, Original: 5},
		{Local: 3, Original: 9},
	}, ms.Mapping)
	assert.Empty(t, ms.Dropped)
	require.Equal(t, 3, ms.Document.PageCount())

	orig, _ := doc.Page(2)
	sub, _ := ms.Document.Page(1)
	assert.Equal(t, orig.Content, sub.Content)
	assert.Equal(t, 1, sub.Number)

	for _, e := range ms.Mapping {
		o, _ := doc.Page(e.Original)
		l, _ := ms.Document.Page(e.Local)
		assert.Equal(t, o.Content, l.Content)
	}
}

func TestMapSelection_DropsOutOfRangeAndDuplicates(t *testing.T) {
	doc := testDocument(10)

	ms := MapSelection(doc, model.Selection{0, 4, 11, 4, -2, 1})

	assert.Equal(t, []int{1, 4}, ms.Mapping.Originals())
	assert.Equal(t, []int{0, 11, -2}, ms.Dropped)
	assert.Equal(t, 2, ms.Document.PageCount())
	assert.Equal(t, "test.pdf", ms.Document.Name)
}

func TestMapSelection_Empty(t *testing.T) {
	ms := MapSelection(testDocument(3), nil)
	assert.Empty(t, ms.Mapping)
	assert.Equal(t, 0, ms.Document.PageCount())
}

func TestMapSelection_MappingStrictlyAscending(t *testing.T) {
	ms := MapSelection(testDocument(50), model.Selection{44, 3, 17, 29, 8, 50, 1})
	for i := 1; i < len(ms.Mapping); i++ {
		assert.Less(t, ms.Mapping[i-1].Original, ms.Mapping[i].Original)
		assert.Equal(t, i+1, ms.Mapping[i].Local)
	}
}
