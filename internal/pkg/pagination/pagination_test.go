package pagination

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromQuery(t *testing.T) {
	cases := []struct {
		query string
		want  Params
	}{
		{"", Params{Page: 1, Limit: DefaultLimit}},
		{"?page=3&limit=10", Params{Page: 3, Limit: 10}},
		{"?page=0&limit=0", Params{Page: 1, Limit: DefaultLimit}},
		{"?page=-2&limit=500", Params{Page: 1, Limit: MaxLimit}},
		{"?page=abc", Params{Page: 1, Limit: DefaultLimit}},
	}
	for _, tc := range cases {
		t.Run(tc.query, func(t *testing.T) {
			var got Params
			app := fiber.New()
			app.Get("/", func(c *fiber.Ctx) error {
				got = FromQuery(c)
				return nil
			})
			_, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/"+tc.query, nil))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestNewPage(t *testing.T) {
	p := Params{Page: 2, Limit: 10}
	assert.Equal(t, 10, p.Offset())

	page := New([]string{"a", "b"}, p, 21)
	assert.Equal(t, 3, page.Meta.TotalPages)
	assert.True(t, page.Meta.HasNext)
	assert.True(t, page.Meta.HasPrev)

	empty := New[int](nil, Params{Page: 1, Limit: 20}, 0)
	assert.NotNil(t, empty.Items)
	assert.Zero(t, empty.Meta.TotalPages)
	assert.False(t, empty.Meta.HasNext)
}
