package ingest_test

import (
	"testing"

	"ragbot/src/core/ingest"
)

func TestEstimateTokenCount(t *testing.T) {
	tests := []struct {
		name string
		text string
		want int
	}{
		{
			name: "empty text",
			text: "",
			want: 0,
		},
		{
			name: "whitespace only",
			text: "   \n\t",
			want: 2,
		},
		{
			name: "short word",
			text: "cat",
			want: 3,
		},
		{
			name: "single word",
			text: "hello",
			want: 4,
		},
		{
			name: "two words",
			text: "hello world",
			want: 6,
		},
		{
			name: "punctuation",
			text: ",",
			want: 3,
		},
		{
			name: "number counts per digit",
			text: "12345",
			want: 7,
		},
		{
			name: "decimal number",
			text: "3.14",
			want: 6,
		},
		{
			name: "long word split into subwords",
			text: "extraordinary",
			want: 6,
		},
		{
			name: "surrounding whitespace ignored",
			text: "  hello  ",
			want: 4,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ingest.EstimateTokenCount(tt.text)
			if got != tt.want {
				t.Errorf("EstimateTokenCount(%q) = %d, want %d", tt.text, got, tt.want)
			}
		})
	}
}

func TestEstimateTokenCountGrowsWithText(t *testing.T) {
	short := ingest.EstimateTokenCount("one sentence about retrieval")
	long := ingest.EstimateTokenCount("one sentence about retrieval, followed by another sentence that keeps going with many more words")

	if long <= short {
		t.Errorf("EstimateTokenCount(long) = %d, want greater than short text count %d", long, short)
	}
}
