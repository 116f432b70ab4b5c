package memory

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"budget/internal/core"
)

func TestAppendExpenses(t *testing.T) {
	s := New()
	ctx := context.Background()

	ref, err := s.AppendExpenses(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, ref)

	ref, err = s.AppendExpenses(ctx, []core.Expense{
		{Date: core.NewDate(2024, 1, 5), Description: "Coffee", Amount: decimal.RequireFromString("3.50"), Category: "Food"},
		{Date: core.NewDate(2024, 1, 6), Description: "Bus", Amount: decimal.NewFromInt(2), Category: "Transport"},
	})
	require.NoError(t, err)
	assert.Equal(t, "mem!A1:D2", ref)

	ref, err = s.AppendExpenses(ctx, []core.Expense{{Description: "Tea", Category: "Food"}})
	require.NoError(t, err)
	assert.Equal(t, "mem!A3:D3", ref)

	rows := s.Rows()
	require.Len(t, rows, 3)
	assert.Equal(t, []any{"2024-01-05", "Coffee", 3.5, "Food"}, rows[0])
}
