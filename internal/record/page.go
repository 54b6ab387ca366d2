package record

// Pagination defaults.
const (
	DefaultPageNo   = 1
	DefaultPageSize = 30
	MaxPageSize     = 100
)

// SortField names the timestamp list results are ordered by.
type SortField string

const (
	SortCreatedAt SortField = FieldCreatedAt
	SortUpdatedAt SortField = FieldUpdatedAt
)

// Valid reports whether f is a known sort field.
func (f SortField) Valid() bool {
	return f == SortCreatedAt || f == SortUpdatedAt
}

// SortOrder is the list direction.
type SortOrder string

const (
	Descending SortOrder = "desc"
	Ascending  SortOrder = "asc"
)

// Valid reports whether o is a known order.
func (o SortOrder) Valid() bool {
	return o == Descending || o == Ascending
}

// Paging bounds page sizes.
type Paging struct {
	DefaultSize int
	MaxSize     int
}

// DefaultPaging returns the package defaults.
func DefaultPaging() Paging {
	return Paging{DefaultSize: DefaultPageSize, MaxSize: MaxPageSize}
}

// ListOptions controls pagination and ordering of list queries.
type ListOptions struct {
	PageNo   int       `json:"pageNo,omitempty"`
	PageSize int       `json:"pageSize,omitempty"`
	Sort     SortField `json:"sort,omitempty"`
	Order    SortOrder `json:"order,omitempty"`
}

// Normalize fills defaults. Non-positive or excessive sizes fall back to the
// default size instead of being clamped.
func (o ListOptions) Normalize(p Paging) ListOptions {
	if p.DefaultSize <= 0 {
		p.DefaultSize = DefaultPageSize
	}
	if p.MaxSize <= 0 {
		p.MaxSize = MaxPageSize
	}
	if o.PageNo < 1 {
		o.PageNo = DefaultPageNo
	}
	if o.PageSize <= 0 || o.PageSize > p.MaxSize {
		o.PageSize = p.DefaultSize
	}
	if !o.Sort.Valid() {
		o.Sort = SortCreatedAt
	}
	if !o.Order.Valid() {
		o.Order = Descending
	}
	return o
}

// Offset returns the number of rows skipped before the page.
func (o ListOptions) Offset() int {
	if o.PageNo < 1 {
		return 0
	}
	return (o.PageNo - 1) * o.PageSize
}

// ListResult is one page of typed entities plus the total match count.
type ListResult[T any] struct {
	Total    int `json:"total"`
	PageNo   int `json:"pageNo"`
	PageSize int `json:"pageSize"`
	List     []T `json:"list"`
}
