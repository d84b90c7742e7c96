package models

import (
	"fmt"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// Money is an exact decimal column. MySQL stores it as decimal(precision,scale)
// from the field's gorm tags. SQLite has no exact decimal storage and would
// coerce a NUMERIC column to REAL, so there it is kept as TEXT.
type Money struct {
	decimal.Decimal
}

// NewMoney wraps a decimal for a Money column
func NewMoney(d decimal.Decimal) Money {
	return Money{Decimal: d}
}

// GormDBDataType picks the column type for the connected dialect
func (Money) GormDBDataType(db *gorm.DB, field *schema.Field) string {
	if db.Dialector.Name() == "sqlite" {
		return "TEXT"
	}
	precision, scale := field.Precision, field.Scale
	if precision == 0 {
		precision, scale = 18, 2
	}
	return fmt.Sprintf("decimal(%d,%d)", precision, scale)
}
