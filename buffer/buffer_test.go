package buffer

import (
	"testing"

	"contextwin/assert"
)

func TestNewDefaults(t *testing.T) {
	buf := New(Config{NsID: 1})

	assert.Equal(t, 1, buf.Row(), "cursor row starts at 1")
	assert.Equal(t, 0, buf.Col(), "cursor col starts at 0")
	assert.Equal(t, 0, len(buf.Lines()), "no lines before sync")
}

func TestSyncRequiresClient(t *testing.T) {
	buf := New(Config{NsID: 1})

	_, err := buf.Sync()
	assert.True(t, err != nil, "sync without a client fails")

	_, err = buf.TreeSnapshot(1, 0)
	assert.True(t, err != nil, "snapshot without a client fails")

	_, err = buf.HighlightCaptures(nil)
	assert.True(t, err != nil, "captures without a client fails")

	assert.True(t, buf.ShowContext(nil, nil, nil, nil) != nil, "show without a client fails")
	assert.True(t, buf.CloseContext() != nil, "close without a client fails")
}

func TestLinesChanged(t *testing.T) {
	tests := []struct {
		name string
		prev []string
		next []string
		want bool
	}{
		{
			name: "identical",
			prev: []string{"def foo():", "    pass"},
			next: []string{"def foo():", "    pass"},
			want: false,
		},
		{
			name: "edited line",
			prev: []string{"def foo():", "    pass"},
			next: []string{"def foo():", "    return 1"},
			want: true,
		},
		{
			name: "line count changed",
			prev: []string{"def foo():"},
			next: []string{"def foo():", "    pass"},
			want: true,
		},
		{
			name: "both empty",
			prev: nil,
			next: []string{},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, linesChanged(tt.prev, tt.next), "change detection")
		})
	}
}

func TestGetString(t *testing.T) {
	m := map[string]any{
		"type":  "function_definition",
		"count": 3,
	}

	assert.Equal(t, "function_definition", getString(m, "type"), "string value")
	assert.Equal(t, "", getString(m, "count"), "non-string value")
	assert.Equal(t, "", getString(m, "missing"), "missing key")
}

func TestGetNumber(t *testing.T) {
	m := map[string]any{
		"int":     5,
		"int32":   int32(6),
		"int64":   int64(7),
		"float64": float64(8),
		"string":  "9",
	}

	assert.Equal(t, 5, getNumber(m, "int"), "int")
	assert.Equal(t, 6, getNumber(m, "int32"), "int32")
	assert.Equal(t, 7, getNumber(m, "int64"), "int64")
	assert.Equal(t, 8, getNumber(m, "float64"), "float64")
	assert.Equal(t, -1, getNumber(m, "string"), "non-numeric value")
	assert.Equal(t, -1, getNumber(m, "missing"), "missing key")
}

func TestGetNumbers(t *testing.T) {
	m := map[string]any{
		"mixed":   []any{1, int64(2), float64(3)},
		"badkind": "nope",
	}

	assert.Equal(t, []int{1, 2, 3}, getNumbers(m, "mixed"), "mixed numeric kinds")
	assert.True(t, getNumbers(m, "badkind") == nil, "non-slice value")
	assert.True(t, getNumbers(m, "missing") == nil, "missing key")
}
