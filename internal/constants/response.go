package constants

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Standard Response Field Keys
const (
	ResponseFieldTotal     = "total"
	ResponseFieldPage      = "page"
	ResponseFieldPageTotal = "page_total"
	ResponseFieldItems     = "items"
)

// HTTPResponse is the envelope every endpoint answers with.
type HTTPResponse[T any] struct {
	StatusCode int    `json:"statusCode"`
	Success    bool   `json:"success"`
	Message    string `json:"message"`
	Data       T      `json:"data"`
	Details    any    `json:"details,omitempty"`
}

// Pagination Parameters Struct
type PaginationParams struct {
	Page   int
	Limit  int
	Offset int
	Search string
}

// ParsePaginationParams parses page, limit and search from the query string
func ParsePaginationParams(c *gin.Context) PaginationParams {
	page, _ := strconv.Atoi(c.DefaultQuery(QueryParamPage, DefaultPage))
	limit, _ := strconv.Atoi(c.DefaultQuery(QueryParamLimit, DefaultLimit))

	if page < MinPage {
		page = MinPage
	}
	if limit < MinLimit {
		limit = MinLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}

	return PaginationParams{
		Page:   page,
		Limit:  limit,
		Offset: (page - 1) * limit,
		Search: c.DefaultQuery(QueryParamSearch, DefaultSearch),
	}
}

// BuildResponse wraps any payload in the standard envelope. Success is
// derived from the status code.
func BuildResponse[T any](statusCode int, message string, data T) HTTPResponse[T] {
	return HTTPResponse[T]{
		StatusCode: statusCode,
		Success:    statusCode < http.StatusBadRequest,
		Message:    message,
		Data:       data,
	}
}

// BuildErrorResponse builds a failed envelope with a null payload.
func BuildErrorResponse(statusCode int, message string, details any) HTTPResponse[any] {
	resp := BuildResponse[any](statusCode, message, nil)
	resp.Details = details
	return resp
}

func BuildListResponse[T any](total int64, page int, pageTotal int, items []T) map[string]any {
	if items == nil {
		items = []T{}
	}
	return map[string]any{
		ResponseFieldTotal:     total,
		ResponseFieldPage:      page,
		ResponseFieldPageTotal: pageTotal,
		ResponseFieldItems:     items,
	}
}

// Respond writes data in the envelope with the given status.
func Respond[T any](c *gin.Context, statusCode int, message string, data T) {
	c.JSON(statusCode, BuildResponse(statusCode, message, data))
}

// RespondError writes a failed envelope and aborts the handler chain.
func RespondError(c *gin.Context, statusCode int, message string, details any) {
	c.AbortWithStatusJSON(statusCode, BuildErrorResponse(statusCode, message, details))
}
