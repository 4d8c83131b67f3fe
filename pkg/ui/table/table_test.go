package table_test

import (
	"bytes"
	"strings"
	"testing"

	// Packages
	assert "github.com/stretchr/testify/assert"
	schema "github.com/zhaohuiwang/adk-samples/pkg/schema"
	table "github.com/zhaohuiwang/adk-samples/pkg/ui/table"
)

func Test_table_001(t *testing.T) {
	assert := assert.New(t)
	assert.Equal("-", table.FormatCell(nil))
	assert.Equal("-", table.FormatCell(""))
	assert.Equal("-", table.FormatCell(0))
	assert.Equal("-", table.FormatCell(false))
	assert.Equal("yes", table.FormatCell(true))
	assert.Equal("7", table.FormatCell(7))
	assert.Equal("abc", table.Truncate("abc", 3))
	assert.Equal("ab…", table.Truncate("abcd", 3))
	assert.Equal("a b", table.Truncate("a\nb", 10))
}

func Test_table_002(t *testing.T) {
	assert := assert.New(t)
	tools := table.Tools{
		{Name: "search_tickets", Description: "Search tickets", Parameters: []schema.ToolParameter{
			{Name: "query", Type: "string", Required: true},
			{Name: "limit", Type: "integer"},
		}},
		{Name: "google_search_agent", Description: "Search Google Search"},
	}
	assert.Equal(2, tools.Len())
	assert.Equal("query*, limit", tools.Row(0)[2])

	var buf bytes.Buffer
	assert.NoError(table.Write(&buf, tools))
	assert.Contains(buf.String(), "search_tickets")
	assert.Contains(buf.String(), "google_search_agent")
	assert.Contains(buf.String(), "Description")
}

func Test_table_003(t *testing.T) {
	assert := assert.New(t)
	params := table.Parameters{{Name: "horizon", Type: "integer", Required: true, Description: "Hours to forecast"}}

	wide := table.Render(params, 0)
	assert.Contains(wide, "horizon")
	assert.Contains(wide, "Hours to forecast")
	assert.Equal(5, strings.Count(wide, "\n")+1)
}
