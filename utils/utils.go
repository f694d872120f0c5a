package utils

import (
	rndm "math/rand"
	"net/http"
	"strconv"

	"github.com/google/uuid"
)

// --- Random String and ID Generators ---

var letterRunes = []rune("abcdefghijklmnopqrstuvwxyz0123456789_ABCDEFGHIJKLMNOPQRSTUVWXYZ")

// GenerateID creates a random alphanumeric string of length n.
func GenerateID(n int) string {
	b := make([]rune, n)
	for i := range b {
		b[i] = letterRunes[rndm.Intn(len(letterRunes))]
	}
	return string(b)
}

func GetUUID() string {
	return uuid.New().String()
}

// --- Pagination ---

// ParsePagination reads page/limit query parameters and returns the
// mongo skip/limit pair. Limit is clamped to maxLimit; page starts at 1.
func ParsePagination(r *http.Request, defaultLimit, maxLimit int) (skip, limit int64) {
	page := 1
	lim := defaultLimit

	if p, err := strconv.Atoi(r.URL.Query().Get("page")); err == nil && p > 0 {
		page = p
	}
	if l, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && l > 0 {
		lim = l
	}
	if lim > maxLimit {
		lim = maxLimit
	}
	return int64((page - 1) * lim), int64(lim)
}
