package exec

// RowContext accumulates the values of one row in generation order. It is
// dropped when the row is emitted.
type RowContext struct {
	Index  int64
	values map[string]interface{}
}

func NewRowContext(index int64, width int) *RowContext {
	return &RowContext{Index: index, values: make(map[string]interface{}, width)}
}

func (r *RowContext) Set(column string, v interface{}) {
	r.values[column] = v
}

// Get returns the value already produced for column in this row.
func (r *RowContext) Get(column string) (interface{}, bool) {
	v, ok := r.values[column]
	return v, ok
}

func (r *RowContext) Len() int {
	return len(r.values)
}
