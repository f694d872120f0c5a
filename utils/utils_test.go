package utils

import (
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGenerateID(t *testing.T) {
	a := GenerateID(12)
	b := GenerateID(12)
	assert.Len(t, a, 12)
	assert.Len(t, b, 12)
	assert.NotEqual(t, a, b)
}

func TestParsePagination(t *testing.T) {
	cases := []struct {
		url       string
		wantSkip  int64
		wantLimit int64
	}{
		{"/x", 0, 20},
		{"/x?page=1&limit=10", 0, 10},
		{"/x?page=3&limit=10", 20, 10},
		{"/x?limit=500", 0, 100},
		{"/x?page=-1&limit=-5", 0, 20},
		{"/x?page=abc&limit=xyz", 0, 20},
	}
	for _, tc := range cases {
		r := httptest.NewRequest("GET", tc.url, nil)
		skip, limit := ParsePagination(r, 20, 100)
		assert.Equal(t, tc.wantSkip, skip, tc.url)
		assert.Equal(t, tc.wantLimit, limit, tc.url)
	}
}
