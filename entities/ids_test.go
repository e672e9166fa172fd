package entities

import (
	"encoding/json"
	"math"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIDRoundTrip(t *testing.T) {
	values := []int64{0, 1, 42, 1710000000000, math.MaxInt32, 1 << 53, math.MaxInt64}
	for _, v := range values {
		id := ProductID(v)

		parsed, err := ParseProductID(id.String())
		require.NoError(t, err)
		assert.Equal(t, id, parsed)

		coerced, err := CoerceID[ProductID](id.String())
		require.NoError(t, err)
		assert.Equal(t, id, coerced)

		raw, err := json.Marshal(id)
		require.NoError(t, err)
		var decoded ProductID
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, id, decoded)
	}
}

func TestCoerceID(t *testing.T) {
	cases := []struct {
		name string
		in   any
		want CategoryID
	}{
		{"int", 7, 7},
		{"int64", int64(7), 7},
		{"uint64", uint64(7), 7},
		{"float64", float64(1710000000000), 1710000000000},
		{"json number", json.Number("12"), 12},
		{"string", " 12 ", 12},
		{"same type", CategoryID(3), 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := CoerceID[CategoryID](tc.in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	invalid := []any{nil, "", "abc", "+1", "1e3", "0x10", 1.5, math.Inf(1), uint64(math.MaxUint64), true, []int{1}}
	for _, in := range invalid {
		_, err := CoerceID[CategoryID](in)
		assert.ErrorIs(t, err, ErrInvalidID, "%#v", in)
	}
}

func TestIDUnmarshalJSON(t *testing.T) {
	var body struct {
		CategoryID CategoryID `json:"category_id"`
		ProductID  *ProductID `json:"product_id"`
		UserID     UserID     `json:"user_id"`
	}
	require.NoError(t, json.Unmarshal([]byte(`{"category_id":"15","product_id":16,"user_id":null}`), &body))
	assert.Equal(t, CategoryID(15), body.CategoryID)
	require.NotNil(t, body.ProductID)
	assert.Equal(t, ProductID(16), *body.ProductID)
	assert.True(t, body.UserID.IsZero())

	err := json.Unmarshal([]byte(`{"category_id":"x"}`), &body)
	assert.ErrorIs(t, err, ErrInvalidID)
}

func FuzzIDRoundTrip(f *testing.F) {
	for _, seed := range []int64{0, 1, -1, 42, 1710000000000, 1 << 53, math.MaxInt64, math.MinInt64} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, n int64) {
		id := UserID(n)
		decimal := strconv.FormatInt(n, 10)
		assert.Equal(t, decimal, id.String())

		parsed, err := ParseID[UserID](decimal)
		require.NoError(t, err)
		assert.Equal(t, id, parsed)

		for _, v := range []any{n, decimal, json.Number(decimal)} {
			coerced, err := CoerceID[UserID](v)
			require.NoError(t, err, "%T", v)
			assert.Equal(t, id, coerced)
		}
		if n >= -(1<<53) && n <= 1<<53 {
			coerced, err := CoerceID[UserID](float64(n))
			require.NoError(t, err)
			assert.Equal(t, id, coerced)
		}

		raw, err := json.Marshal(id)
		require.NoError(t, err)
		assert.Equal(t, decimal, string(raw))
		var decoded UserID
		require.NoError(t, json.Unmarshal(raw, &decoded))
		assert.Equal(t, id, decoded)

		var fromString UserID
		require.NoError(t, json.Unmarshal([]byte(strconv.Quote(decimal)), &fromString))
		assert.Equal(t, id, fromString)
	})
}

func FuzzParseID(f *testing.F) {
	for _, seed := range []string{"0", "42", " 7 ", "-3", "+3", "0x1f", "1e3", "", "9223372036854775808"} {
		f.Add(seed)
	}
	f.Fuzz(func(t *testing.T, s string) {
		id, err := ParseID[ProductID](s)
		if err != nil {
			assert.ErrorIs(t, err, ErrInvalidID)
			return
		}
		again, err := ParseID[ProductID](id.String())
		require.NoError(t, err)
		assert.Equal(t, id, again)

		coerced, err := CoerceID[ProductID](s)
		require.NoError(t, err)
		assert.Equal(t, id, coerced)
	})
}
