package docs

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/swaggo/swag"
)

type openAPI struct {
	BasePath    string                     `json:"basePath"`
	Paths       map[string]json.RawMessage `json:"paths"`
	Definitions map[string]struct {
		Properties map[string]struct {
			Type string `json:"type"`
		} `json:"properties"`
	} `json:"definitions"`
}

func readDoc(t *testing.T) openAPI {
	t.Helper()
	raw, err := swag.ReadDoc(SwaggerInfo.InstanceName())
	require.NoError(t, err)

	var doc openAPI
	require.NoError(t, json.Unmarshal([]byte(raw), &doc), raw)
	return doc
}

func TestDocumentCoversWorkflowRoutes(t *testing.T) {
	doc := readDoc(t)
	assert.Equal(t, "/api/v1", doc.BasePath)

	for _, path := range []string{
		"/auth/login",
		"/saccos/search",
		"/returns/{id}/financial-data",
		"/returns/{id}/submit",
		"/returns/{id}/begin-review",
		"/returns/{id}/decide",
		"/returns/{id}/reopen",
		"/compliance/low",
		"/compliance/report.xlsx",
	} {
		assert.Contains(t, doc.Paths, path)
	}
}

func TestMoneyIsDocumentedAsString(t *testing.T) {
	fd, ok := readDoc(t).Definitions["models.FinancialData"]
	require.True(t, ok)
	assert.Equal(t, "string", fd.Properties["total_assets"].Type)
	assert.Equal(t, "string", fd.Properties["par30"].Type)
	assert.Equal(t, "integer", fd.Properties["total_members"].Type)
}
