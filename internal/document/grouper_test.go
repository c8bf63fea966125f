package document

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupByContext(t *testing.T) {
	doc, err := ParseString(`<html><body>
		<p>Hello <b>brave <i>new</i></b> world</p>
		<h2>Section title</h2>
		<ul><li>Alpha one</li><li>Beta two</li></ul>
		<table><tr><td>Cell one</td><td>Cell two</td></tr></table>
		Loose body text
	</body></html>`)
	require.NoError(t, err)

	nodes := CollectTextNodes(doc)
	groups := GroupByContext(nodes)

	var got [][]string
	for _, g := range groups {
		got = append(got, g.Originals())
	}
	assert.Equal(t, [][]string{
		{"Hello", "brave", "new", "world"},
		{"Section title"},
		{"Alpha one"},
		{"Beta two"},
		{"Cell one"},
		{"Cell two"},
		{"Loose body text"},
	}, got)

	assert.Equal(t, "p", groups[0].Key.Data)
	assert.Equal(t, "body", groups[len(groups)-1].Key.Data)
}

func TestGroupByContextFlattensToSelection(t *testing.T) {
	doc, err := ParseString(samplePage)
	require.NoError(t, err)
	Sanitize(doc)

	nodes := CollectTextNodes(doc)
	groups := GroupByContext(nodes)

	var flat []*TextNode
	for _, g := range groups {
		require.NotEmpty(t, g.Nodes)
		flat = append(flat, g.Nodes...)
	}
	assert.Equal(t, nodes, flat)
}

func TestGroupByContextSplitsNonAdjacentSameKey(t *testing.T) {
	doc, err := ParseString(`<html><body><div>Before list<p>Inside paragraph</p>After list</div></body></html>`)
	require.NoError(t, err)

	groups := GroupByContext(CollectTextNodes(doc))
	require.Len(t, groups, 3)
	assert.Same(t, groups[0].Key, groups[2].Key)
	assert.NotSame(t, groups[0].Key, groups[1].Key)
}

func TestGroupByContextEmpty(t *testing.T) {
	assert.Empty(t, GroupByContext(nil))
}
