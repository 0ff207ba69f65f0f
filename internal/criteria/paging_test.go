package criteria

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/vaultq/internal/vaulterr"
)

func TestDefaultPage(t *testing.T) {
	p := DefaultPage()
	assert.Equal(t, 0, p.PageNumber)
	assert.Equal(t, 200, p.PageSize)
	assert.NoError(t, p.Validate())
}

func TestPageSpecification_Validate(t *testing.T) {
	testCases := []struct {
		name    string
		page    PageSpecification
		wantErr string
	}{
		{"first page", PageSpecification{0, 200}, ""},
		{"max size", PageSpecification{3, MaxPageSize}, ""},
		{"zero size", PageSpecification{0, 0}, ""},
		{"negative page", PageSpecification{-1, 10}, "invalid page number -1"},
		{"negative size", PageSpecification{0, -1}, "invalid page size -1"},
		{"oversized", PageSpecification{0, MaxPageSize + 1}, "maximum page size is 512"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.page.Validate()
			if tc.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.wantErr)
			assert.True(t, vaulterr.IsKind(err, vaulterr.KindPaginationBounds))
		})
	}
}

func TestPageSpecification_Offset(t *testing.T) {
	assert.Equal(t, 0, PageSpecification{0, 50}.Offset())
	assert.Equal(t, 150, PageSpecification{3, 50}.Offset())
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("desc")
	require.NoError(t, err)
	assert.Equal(t, Desc, d)

	d, err = ParseDirection("")
	require.NoError(t, err)
	assert.Equal(t, Asc, d)

	_, err = ParseDirection("sideways")
	assert.Error(t, err)
}

func TestParseNullHandling(t *testing.T) {
	n, err := ParseNullHandling("nulls_last")
	require.NoError(t, err)
	assert.Equal(t, NullsLast, n)
	assert.Equal(t, "NULLS_LAST", n.String())

	n, err = ParseNullHandling("")
	require.NoError(t, err)
	assert.Equal(t, NullsNone, n)
}
