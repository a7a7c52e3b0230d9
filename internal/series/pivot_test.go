package series

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPivotByPeriodMergesSharedPeriod(t *testing.T) {
	records := []Row{
		NewRow("quarter", "Q1 2023", Field{Key: "wayne_tech", Value: 10}, Field{Key: "shared", Value: 1}),
		NewRow("quarter", "Q2 2023", Field{Key: "wayne_tech", Value: 12}),
		NewRow("quarter", "Q1 2023", Field{Key: "wayne_foods", Value: 4}, Field{Key: "shared", Value: 2}),
	}

	rows := PivotByPeriod(records)

	want := []Row{
		{PeriodKey: "quarter", Period: "Q1 2023", Fields: []Field{{"wayne_tech", 10}, {"shared", 2}, {"wayne_foods", 4}}},
		{PeriodKey: "quarter", Period: "Q2 2023", Fields: []Field{{"wayne_tech", 12}}},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("pivot mismatch (-want +got):\n%s", diff)
	}
}

func TestPivotByPeriodDoesNotMutateInput(t *testing.T) {
	first := NewRow("month", "2024-01", Field{Key: "a", Value: 1})
	records := []Row{first, NewRow("month", "2024-01", Field{Key: "a", Value: 5})}

	_ = PivotByPeriod(records)

	v, _ := records[0].Get("a")
	assert.Equal(t, 1.0, v)
}

func TestSumNumericIgnoresLabel(t *testing.T) {
	row := NewRow("month", "Jan", Field{Key: "a", Value: 3}, Field{Key: "b", Value: 4})
	assert.Equal(t, 7.0, SumNumeric(row))
}

func TestAggregationsOnEmptyInput(t *testing.T) {
	assert.Empty(t, PivotByPeriod(nil))
	assert.NotNil(t, PivotByPeriod(nil))
	assert.Empty(t, PivotCategories(nil, PivotOptions{PeriodKey: "month"}))
	assert.Equal(t, 0.0, SumNumeric(Row{}))
	assert.Equal(t, 0.0, MeanNumeric(Row{}))
	assert.Equal(t, 0.0, SumRows(nil))
	assert.Empty(t, Totals(nil, "incidents"))
	assert.Empty(t, Keys(nil))
	assert.NoError(t, ValidateKeys(nil, []string{"a"}))
}

func TestPivotCategoriesSumsAndFills(t *testing.T) {
	points := []Point{
		{Period: "2024-02", Category: "Old Gotham", Value: 3},
		{Period: "2024-01", Category: "Old Gotham", Value: 2},
		{Period: "2024-01", Category: "Old Gotham", Value: 5},
		{Period: "2024-01", Category: "The Narrows", Value: 4},
	}

	rows := PivotCategories(points, PivotOptions{
		PeriodKey:   "month",
		Aggregation: Sum,
		Less:        func(a, b string) bool { return a < b },
		FillMissing: true,
	})

	want := []Row{
		{PeriodKey: "month", Period: "2024-01", Fields: []Field{{"old_gotham", 7}, {"the_narrows", 4}}},
		{PeriodKey: "month", Period: "2024-02", Fields: []Field{{"old_gotham", 3}, {"the_narrows", 0}}},
	}
	if diff := cmp.Diff(want, rows); diff != "" {
		t.Fatalf("pivot mismatch (-want +got):\n%s", diff)
	}
}

func TestPivotCategoriesMeanRounded(t *testing.T) {
	points := []Point{
		{Period: "2024-01", Category: "Downtown", Value: 7.26},
		{Period: "2024-01", Category: "Downtown", Value: 7.31},
	}
	rows := PivotCategories(points, PivotOptions{PeriodKey: "month", Aggregation: Mean, Rounded: true, Decimals: 1})
	require.Len(t, rows, 1)
	v, ok := rows[0].Get("downtown")
	require.True(t, ok)
	assert.InDelta(t, 7.3, v, 1e-9)
}

func TestTotalsAndMean(t *testing.T) {
	rows := []Row{
		NewRow("month", "2024-01", Field{Key: "a", Value: 1}, Field{Key: "b", Value: 2}),
		NewRow("month", "2024-02", Field{Key: "a", Value: 4}, Field{Key: "b", Value: 6}),
	}
	totals := Totals(rows, "incidents")
	require.Len(t, totals, 2)
	v, _ := totals[1].Get("incidents")
	assert.Equal(t, 10.0, v)
	assert.Equal(t, 13.0, SumRows(rows))
	assert.Equal(t, 5.0, MeanNumeric(rows[1]))
	assert.Equal(t, []float64{2, 6}, Column(rows, "b"))
	assert.Equal(t, []string{"2024-01", "2024-02"}, Periods(rows))
}

func TestValidateKeys(t *testing.T) {
	rows := []Row{
		NewRow("month", "2024-01", Field{Key: "a", Value: 1}, Field{Key: "b", Value: 2}),
		NewRow("month", "2024-02", Field{Key: "a", Value: 1}),
		NewRow("month", "2024-03", Field{Key: "a", Value: 1}, Field{Key: "c", Value: 2}),
	}
	require.NoError(t, ValidateKeys(rows[:2], []string{"a", "b"}))
	assert.Equal(t, []float64{2, 0}, Column(rows[:2], "b"))

	err := ValidateKeys(rows, []string{"a", "b"})
	var keyErr *KeyError
	require.ErrorAs(t, err, &keyErr)
	assert.Equal(t, "2024-03", keyErr.Period)
	assert.Equal(t, []string{"c"}, keyErr.Undeclared)
}

func TestKeysIncludesLaterRows(t *testing.T) {
	rows := []Row{
		NewRow("quarter", "Q1 2023", Field{Key: "wayne_tech", Value: 1}),
		NewRow("quarter", "Q2 2023", Field{Key: "wayne_foods", Value: 2}, Field{Key: "wayne_tech", Value: 3}),
	}
	assert.Equal(t, []string{"wayne_tech", "wayne_foods"}, Keys(rows))
}
