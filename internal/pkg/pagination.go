package pkg

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/simp-lee/microblog/internal/domain"
)

// validFieldName matches only alphanumeric characters and underscores.
var validFieldName = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// Collection declares how a listable table is searched, sorted and filtered.
// Column names are fixed by code, never taken from the request.
type Collection struct {
	// SearchColumns are matched case-insensitively, OR-ed together.
	SearchColumns []string
	// SortColumns maps the sort_by values this collection accepts to columns.
	SortColumns map[domain.SortField]string
	// OwnerColumn is compared against author_id. Empty disables the filter.
	OwnerColumn string
}

// Sortable reports whether the collection declares field.
func (c Collection) Sortable(field domain.SortField) bool {
	_, ok := c.SortColumns[field]
	return ok
}

// PageQuery is the query-string form of domain.PageRequest.
type PageQuery struct {
	Page     int    `form:"page,default=1" binding:"min=1,max=10000000"`
	Limit    int    `form:"limit,default=10" binding:"min=1,max=100"`
	Search   string `form:"search"`
	SortBy   string `form:"sort_by,default=created_at" binding:"oneof=created_at title"`
	Order    string `form:"order,default=desc" binding:"oneof=asc desc"`
	AuthorID *uint  `form:"author_id" binding:"omitempty,min=1"`
}

// ParsePageRequest binds and validates the listing query parameters against
// coll. Any violation is returned as a validation *domain.AppError.
func ParsePageRequest(c *gin.Context, coll Collection) (domain.PageRequest, error) {
	var q PageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		return domain.PageRequest{}, bindingFailure(err, &q, "form")
	}

	req := domain.PageRequest{
		Page:     q.Page,
		Limit:    q.Limit,
		Search:   strings.TrimSpace(q.Search),
		SortBy:   domain.SortField(q.SortBy),
		Order:    domain.SortOrder(q.Order),
		AuthorID: q.AuthorID,
	}
	if !coll.Sortable(req.SortBy) {
		return domain.PageRequest{}, domain.NewValidationError("validation error", map[string]any{
			"sort_by": "not sortable: " + q.SortBy,
		})
	}
	if err := req.Validate(); err != nil {
		return domain.PageRequest{}, err
	}
	return req, nil
}

// Search returns a GORM scope matching term as a case-insensitive substring of
// any of the collection's search columns. LIKE wildcards in term match literally.
// Postgres folds case with ILIKE; SQLite's LOWER folds ASCII letters only.
func Search(coll Collection, term string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if term == "" {
			return db
		}

		match := func(col string) string { return "LOWER(" + col + ") LIKE ?" }
		if db.Dialector != nil && db.Dialector.Name() == "postgres" {
			match = func(col string) string { return col + " ILIKE ?" }
		}

		pattern := "%" + escapeLike(strings.ToLower(term)) + "%"
		var (
			conds []string
			args  []any
		)
		for _, col := range coll.SearchColumns {
			if !validFieldName.MatchString(col) {
				continue
			}
			conds = append(conds, match(col)+` ESCAPE '\'`)
			args = append(args, pattern)
		}
		if len(conds) == 0 {
			return db
		}
		return db.Where("("+strings.Join(conds, " OR ")+")", args...)
	}
}

// Filter returns a GORM scope restricting rows to the given owner.
func Filter(coll Collection, authorID *uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if authorID == nil || !validFieldName.MatchString(coll.OwnerColumn) {
			return db
		}
		return db.Where(clause.Eq{Column: clause.Column{Name: coll.OwnerColumn}, Value: *authorID})
	}
}

// Sort returns a GORM scope ordering by the requested field, ties broken by id ascending.
// Fields the collection does not declare are ignored.
func Sort(coll Collection, req domain.PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		col, ok := coll.SortColumns[req.SortBy]
		if ok && validFieldName.MatchString(col) {
			db = db.Order(clause.OrderByColumn{
				Column: clause.Column{Name: col},
				Desc:   req.Order == domain.OrderDesc,
			})
		}
		return db.Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})
	}
}

// Paginate returns a GORM scope that applies LIMIT and OFFSET based on the page request.
func Paginate(req domain.PageRequest) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Offset(int(req.Offset())).Limit(req.Limit)
	}
}

// Query runs req against the table of T. scopes narrow the collection before
// search and filter apply (e.g. comments of one post). The total is counted
// after filtering and before windowing.
func Query[T any](ctx context.Context, db *gorm.DB, coll Collection, req domain.PageRequest, scopes ...func(*gorm.DB) *gorm.DB) (*domain.PageResult[T], error) {
	filtered := func() *gorm.DB {
		return db.WithContext(ctx).Model(new(T)).
			Scopes(scopes...).
			Scopes(Search(coll, req.Search), Filter(coll, req.AuthorID))
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, MapDBError(err)
	}

	var items []T
	if req.Offset() < total {
		if err := filtered().Scopes(Sort(coll, req), Paginate(req)).Find(&items).Error; err != nil {
			return nil, MapDBError(err)
		}
	}

	return domain.NewPage(items, total, req), nil
}

// escapeLike escapes the LIKE metacharacters of s with a backslash.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// bindingFailure converts a gin binding error into a validation AppError.
// tagKey selects the struct tag ("json" or "form") used for detail keys.
func bindingFailure(err error, obj any, tagKey string) error {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return domain.NewValidationError("invalid request", map[string]any{
			"request": err.Error(),
		})
	}
	return domain.NewValidationError("validation error", fieldErrors(ve, obj, tagKey))
}
