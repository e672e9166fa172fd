package entities

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Identifiers are decimal integers everywhere outside the storage drivers. The
// relational backend hands them out from a sequence, the tree backend keeps a
// copy inside each record next to its own string key. JSON coming back from a
// tree store may carry them as numbers (often float64) or as strings, so every
// identifier type decodes both.

var ErrInvalidID = errors.New("invalid identifier")

type (
	UserID         int64
	CategoryID     int64
	ProductID      int64
	ShoppingItemID int64
)

type identifier interface {
	~int64
}

// CoerceID normalizes any representation an identifier can take on the way in
// from a driver or a request into the numeric form.
func CoerceID[T identifier](v any) (T, error) {
	switch n := v.(type) {
	case T:
		return n, nil
	case int:
		return T(n), nil
	case int32:
		return T(n), nil
	case int64:
		return T(n), nil
	case uint32:
		return T(n), nil
	case uint64:
		if n > math.MaxInt64 {
			return 0, fmt.Errorf("%w: %d overflows", ErrInvalidID, n)
		}
		return T(n), nil
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.Abs(n) > 1<<53 {
			return 0, fmt.Errorf("%w: %v is not integral", ErrInvalidID, n)
		}
		return T(n), nil
	case json.Number:
		return ParseID[T](n.String())
	case string:
		return ParseID[T](n)
	case nil:
		return 0, fmt.Errorf("%w: missing", ErrInvalidID)
	default:
		return 0, fmt.Errorf("%w: unsupported type %T", ErrInvalidID, v)
	}
}

// ParseID accepts decimal strings only. Surrounding whitespace is tolerated,
// signs other than a leading minus, hex and exponent forms are not.
func ParseID[T identifier](s string) (T, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("%w: empty", ErrInvalidID)
	}
	if strings.HasPrefix(s, "+") {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidID, s)
	}
	return T(n), nil
}

func formatID[T identifier](id T) string {
	return strconv.FormatInt(int64(id), 10)
}

func unmarshalID[T identifier](data []byte, dst *T) error {
	if string(data) == "null" {
		*dst = 0
		return nil
	}
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	id, err := CoerceID[T](raw)
	if err != nil {
		return err
	}
	*dst = id
	return nil
}

func ParseUserID(s string) (UserID, error) {
	return ParseID[UserID](s)
}

func (id UserID) String() string {
	return formatID(id)
}

func (id UserID) IsZero() bool {
	return id == 0
}

func (id UserID) MarshalJSON() ([]byte, error) {
	return []byte(formatID(id)), nil
}

func (id *UserID) UnmarshalJSON(data []byte) error {
	return unmarshalID(data, id)
}

func ParseCategoryID(s string) (CategoryID, error) {
	return ParseID[CategoryID](s)
}

func (id CategoryID) String() string {
	return formatID(id)
}

func (id CategoryID) IsZero() bool {
	return id == 0
}

func (id CategoryID) MarshalJSON() ([]byte, error) {
	return []byte(formatID(id)), nil
}

func (id *CategoryID) UnmarshalJSON(data []byte) error {
	return unmarshalID(data, id)
}

func ParseProductID(s string) (ProductID, error) {
	return ParseID[ProductID](s)
}

func (id ProductID) String() string {
	return formatID(id)
}

func (id ProductID) IsZero() bool {
	return id == 0
}

func (id ProductID) MarshalJSON() ([]byte, error) {
	return []byte(formatID(id)), nil
}

func (id *ProductID) UnmarshalJSON(data []byte) error {
	return unmarshalID(data, id)
}

func ParseShoppingItemID(s string) (ShoppingItemID, error) {
	return ParseID[ShoppingItemID](s)
}

func (id ShoppingItemID) String() string {
	return formatID(id)
}

func (id ShoppingItemID) IsZero() bool {
	return id == 0
}

func (id ShoppingItemID) MarshalJSON() ([]byte, error) {
	return []byte(formatID(id)), nil
}

func (id *ShoppingItemID) UnmarshalJSON(data []byte) error {
	return unmarshalID(data, id)
}
