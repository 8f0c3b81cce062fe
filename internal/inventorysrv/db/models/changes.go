package models

// Changes is an ordered set of column assignments for a field-level update.
type Changes struct {
	columns []string
	values  []any
}

// Set records column = value, replacing an earlier assignment of the same column.
func (c *Changes) Set(column string, value any) {
	for i, col := range c.columns {
		if col == column {
			c.values[i] = value
			return
		}
	}
	c.columns = append(c.columns, column)
	c.values = append(c.values, value)
}

func (c *Changes) Empty() bool {
	return c == nil || len(c.columns) == 0
}

func (c *Changes) Len() int {
	if c == nil {
		return 0
	}
	return len(c.columns)
}

func (c *Changes) Columns() []string {
	if c == nil {
		return nil
	}
	return c.columns
}

func (c *Changes) Values() []any {
	if c == nil {
		return nil
	}
	return c.values
}

// Has reports whether column was assigned.
func (c *Changes) Has(column string) bool {
	for _, col := range c.Columns() {
		if col == column {
			return true
		}
	}
	return false
}

// SetIfChanged assigns v to *field and records the column when the value differs.
func SetIfChanged[T comparable](c *Changes, column string, field *T, v T) bool {
	if *field == v {
		return false
	}
	*field = v
	c.Set(column, v)
	return true
}
