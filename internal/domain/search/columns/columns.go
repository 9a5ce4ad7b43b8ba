package columns

// Columns selects what the catalog returns for a query.
type Columns string

// Column selection constants.
const (
	// Count asks for the aggregate row count only.
	Count Columns = "COUNT"
	// All asks for every column of every matching row.
	All Columns = "ALL"
)

// Wire expressions understood by the catalog service.
const (
	countExpr = "COUNT_BIG(*)"
	allExpr   = "*"
)

// IsValid checks if the selection is one of the supported values.
func (c Columns) IsValid() bool {
	return c == Count || c == All
}

// Expr returns the column expression sent to the catalog.
func (c Columns) Expr() string {
	if c == Count {
		return countExpr
	}
	return allExpr
}
