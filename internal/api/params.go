package api

import (
	"reflect"                       // Struct tag lookup
	"strconv"                       // Path and query parsing
	"strings"                       // Tag splitting
	"sync"                          // One-time validator setup
	"wallet_ledger/internal/domain" // Domain errors

	"github.com/gin-gonic/gin"               // Gin web framework
	"github.com/gin-gonic/gin/binding"       // Gin's validator engine
	"github.com/go-playground/validator/v10" // Validator
)

// SizePerPage is the fixed page size of every list endpoint
const SizePerPage = 50

var registerTagNames sync.Once

// useJSONFieldNames makes validation messages name fields the way clients send them
func useJSONFieldNames() {
	registerTagNames.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			for _, tag := range []string{"json", "form"} {
				name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
				if name != "" && name != "-" {
					return name
				}
			}
			return f.Name
		})
	})
}

// idParam reads a positive integer path parameter
func idParam(c *gin.Context, name string) (uint, error) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, domain.Validation(name + " must be a positive integer")
	}
	return uint(id), nil
}

// pageParam reads ?page=, defaulting to 1
func pageParam(c *gin.Context) (int, error) {
	raw := c.DefaultQuery("page", "1")
	page, err := strconv.Atoi(raw)
	if err != nil || page < 1 {
		return 0, domain.Validation("page must be a positive integer")
	}
	return page, nil
}

// pageCount is the number of pages needed for total rows
func pageCount(total int64, size int) int {
	return int((total + int64(size) - 1) / int64(size)) // Ceiling division
}

// pageBody is the envelope shared by list endpoints, listed under key
func pageBody(key string, rows any, page int, total int64) gin.H {
	return gin.H{
		key:             rows,
		"page":          page,
		"size_per_page": SizePerPage,
		"page_count":    pageCount(total, SizePerPage),
	}
}
