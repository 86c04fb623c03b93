package utils

import (
	"strconv"

	"github.com/gofiber/fiber/v2"
)

const defaultPageSize = 20

// Pagination is the page window requested by a list endpoint.
type Pagination struct {
	Page   int
	Limit  int
	Offset int
}

// ParsePagination reads the page and limit query params. Missing, malformed
// or non-positive values fall back to page 1 with the default page size, so
// order and merchant listings never see a zero limit.
func ParsePagination(c *fiber.Ctx) Pagination {
	page := atoiOr(c.Query("page"), 1)
	limit := atoiOr(c.Query("limit"), defaultPageSize)
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = defaultPageSize
	}

	return Pagination{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
	}
}

func atoiOr(value string, fallback int) int {
	if parsed, err := strconv.Atoi(value); err == nil {
		return parsed
	}
	return fallback
}
