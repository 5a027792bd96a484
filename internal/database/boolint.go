package database

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
)

// BoolInt adapts the store's truthy-integer flags (is_active, is_published,
// is_premium) to a Go boolean. The column and the JSON wire format stay
// numeric (0/1, any value > 0 is true); this type is the single place where
// the conversion happens.
type BoolInt bool

// Scan implements sql.Scanner.
func (b *BoolInt) Scan(value any) error {
	if value == nil {
		*b = false
		return nil
	}
	switch v := value.(type) {
	case int64:
		*b = v > 0
	case bool:
		*b = BoolInt(v)
	case []byte:
		var n int64
		if _, err := fmt.Sscan(string(v), &n); err != nil {
			return fmt.Errorf("scan bool int %q: %w", v, err)
		}
		*b = n > 0
	default:
		return fmt.Errorf("scan bool int: unsupported type %T", value)
	}
	return nil
}

// Value implements driver.Valuer.
func (b BoolInt) Value() (driver.Value, error) {
	if b {
		return int64(1), nil
	}
	return int64(0), nil
}

// MarshalJSON keeps the numeric convention on the wire.
func (b BoolInt) MarshalJSON() ([]byte, error) {
	if b {
		return []byte("1"), nil
	}
	return []byte("0"), nil
}

// UnmarshalJSON accepts numbers and booleans.
func (b *BoolInt) UnmarshalJSON(data []byte) error {
	var n float64
	if err := json.Unmarshal(data, &n); err == nil {
		*b = n > 0
		return nil
	}
	var v bool
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal bool int %q: %w", data, err)
	}
	*b = BoolInt(v)
	return nil
}

// Bool returns the plain boolean value.
func (b BoolInt) Bool() bool { return bool(b) }

// GormDataType tells GORM to create an integer column.
func (BoolInt) GormDataType() string { return "integer" }
