package main

import (
	"github.com/gofiber/fiber/v2"
	"net/http"
	"net/url"
	"strconv"
)

var ErrInvalidPage = fiber.Map{"error": "Invalid page."}
var ErrInvalidLimit = fiber.Map{"error": "Invalid limit."}

// Pagination follows page number semantics: ?page=<n>&limit=<size>.
type Pagination struct {
	Page  int
	Limit int
}

func (p Pagination) Offset() int {
	return (p.Page - 1) * p.Limit
}

func ParsePagination(c *fiber.Ctx) (Pagination, fiber.Map) {
	p := Pagination{Page: 1, Limit: ServiceConfig.Pagination.DefaultLimit}

	if p.Limit <= 0 {
		p.Limit = 6
	}

	if raw := c.Query("page"); raw != "" {
		page, err := strconv.Atoi(raw)

		if err != nil || page < 1 {
			return p, ErrInvalidPage
		}

		p.Page = page
	}

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)

		if err != nil || limit < 1 {
			return p, ErrInvalidLimit
		}

		p.Limit = limit
	}

	if maxLimit := ServiceConfig.Pagination.MaxLimit; maxLimit > 0 && p.Limit > maxLimit {
		p.Limit = maxLimit
	}

	return p, nil
}

func pageUrl(c *fiber.Ctx, page int) *string {
	values := url.Values{}

	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})

	if page == 1 {
		values.Del("page")
	} else {
		values.Set("page", strconv.Itoa(page))
	}

	link := c.BaseURL() + c.Path()

	if encoded := values.Encode(); encoded != "" {
		link += "?" + encoded
	}

	return &link
}

// SendPage writes a paginated response. A page past the end of a non-empty
// result set is reported as not found.
func SendPage(c *fiber.Ctx, p Pagination, count int64, results interface{}) error {
	if p.Page > 1 && int64(p.Offset()) >= count {
		return c.Status(http.StatusNotFound).JSON(ErrInvalidPage)
	}

	response := PageResponse{
		Count:   count,
		Results: results,
	}

	if int64(p.Page*p.Limit) < count {
		response.Next = pageUrl(c, p.Page+1)
	}

	if p.Page > 1 {
		response.Previous = pageUrl(c, p.Page-1)
	}

	return c.Status(http.StatusOK).JSON(response)
}
