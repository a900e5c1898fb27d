package search

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

// window converts 1-based page/size query values into the from/size pair
// the collections index expects, clamping size to the index's result cap.
func window(page, size int) (from, limit int) {
	if page < 1 {
		page = 1
	}
	if size <= 0 {
		size = defaultPageSize
	}
	if size > maxPageSize {
		size = maxPageSize
	}
	return (page - 1) * size, size
}
