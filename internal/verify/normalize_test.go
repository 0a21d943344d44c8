// internal/verify/normalize_test.go
package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_RoutesSpecialLabels(t *testing.T) {
	got := Normalize(Table{Rows: [][]string{
		{"Authorized GI User", "Jane Doe"},
		{"Weaver", "John Roe"},
		{"Region", "Kashmir"},
	}})

	assert.Equal(t, "Jane Doe", got.AuthorizedUser)
	assert.Equal(t, "John Roe", got.Artisan)
	assert.Equal(t, map[string]string{"Region": "Kashmir"}, got.Attributes)
}

func TestNormalize_CaseInsensitiveSubstringMatch(t *testing.T) {
	got := Normalize(Table{Rows: [][]string{
		{"Name of AUTHORIZED GI USER:", "Crafts Co-op"},
		{"Master Artisan", "A. Bhat"},
		{"Product", "Pashmina Shawl"},
	}})

	assert.Equal(t, "Crafts Co-op", got.AuthorizedUser)
	assert.Equal(t, "A. Bhat", got.Artisan)
	assert.Equal(t, map[string]string{"Product": "Pashmina Shawl"}, got.Attributes)
}

func TestNormalize_DropsShortRows(t *testing.T) {
	got := Normalize(Table{Rows: [][]string{
		{},
		{"Header only"},
		{"Label", "   "},
		{"", "", "Value"},
		{"  ", "Colour", "Red", "ignored"},
	}})

	assert.Equal(t, map[string]string{"Colour": "Red"}, got.Attributes)
	assert.Empty(t, got.AuthorizedUser)
	assert.Empty(t, got.Artisan)
}

func TestNormalize_CleansWhitespace(t *testing.T) {
	got := Normalize(Table{Rows: [][]string{
		{"  Date of\n   Certification ", " 12-01-2024\t"},
	}})

	assert.Equal(t, map[string]string{"Date of Certification": "12-01-2024"}, got.Attributes)
}

func TestNormalize_EmptyTable(t *testing.T) {
	got := Normalize(Table{})
	require.NotNil(t, got.Attributes)
	assert.Empty(t, got.Attributes)

	result := got.Result("GI-1")
	assert.False(t, result.Invalid)
	assert.Equal(t, "GI-1", result.ProductCode)
	assert.NotNil(t, result.Attributes)
	assert.Empty(t, result.Attributes)
}

func TestParseTable(t *testing.T) {
	html := `<table id="result">
  <tr><th>Authorized GI User</th><td>Jane Doe</td></tr>
  <tr><td>Weaver</td><td>John Roe</td></tr>
  <tr><td>Region</td><td>Kashmir <img src="/media/p/42.jpg"></td></tr>
  <tr><td colspan="2"><img src="/media/second.jpg"></td></tr>
</table>`

	table, err := ParseTable(html, "https://verify.example.org/check?code=42")
	require.NoError(t, err)

	assert.Equal(t, "https://verify.example.org/media/p/42.jpg", table.ImageURL)
	require.Len(t, table.Rows, 4)
	assert.Equal(t, []string{"Authorized GI User", "Jane Doe"}, table.Rows[0])

	got := Normalize(table)
	assert.Equal(t, "Jane Doe", got.AuthorizedUser)
	assert.Equal(t, "John Roe", got.Artisan)
	assert.Equal(t, map[string]string{"Region": "Kashmir"}, got.Attributes)
	assert.Equal(t, table.ImageURL, got.ImageURL)
}

func TestParseTable_DataSrcAndAbsoluteImages(t *testing.T) {
	table, err := ParseTable(`<table><tr><td><img data-src="https://cdn.example.org/a.png"></td></tr></table>`, "")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.org/a.png", table.ImageURL)
}

func TestParseTable_NoRows(t *testing.T) {
	table, err := ParseTable(`<table class="result"></table>`, "https://verify.example.org/")
	require.NoError(t, err)
	assert.Empty(t, table.Rows)
	assert.Empty(t, table.ImageURL)

	result := Normalize(table).Result("GI-7")
	assert.False(t, result.Invalid)
	assert.Empty(t, result.Attributes)
}
