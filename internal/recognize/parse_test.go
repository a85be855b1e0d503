package recognize

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCoverText(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want Guess
	}{
		{
			name: "by marker",
			raw:  "The Hobbit\nby J.R.R. Tolkien\nA story of Middle-earth",
			want: Guess{Title: "The Hobbit", Author: "J.R.R. Tolkien"},
		},
		{
			name: "author marker",
			raw:  "Dune\nAuthor: Frank Herbert",
			want: Guess{Title: "Dune", Author: "Frank Herbert"},
		},
		{
			name: "no marker falls back to second line",
			raw:  "Dune\nFrank Herbert",
			want: Guess{Title: "Dune", Author: "Frank Herbert"},
		},
		{
			name: "marker later than second line wins over fallback",
			raw:  "Dune\nA novel\nby Frank Herbert",
			want: Guess{Title: "Dune", Author: "Frank Herbert"},
		},
		{
			name: "blank lines are skipped",
			raw:  "\n\n  The Hobbit  \n\n  by J.R.R. Tolkien  \n",
			want: Guess{Title: "The Hobbit", Author: "J.R.R. Tolkien"},
		},
		{
			name: "single line has no author",
			raw:  "Dune",
			want: Guess{Title: "Dune"},
		},
		{
			name: "empty text",
			raw:  "   \n \n",
			want: Guess{},
		},
		{
			name: "marker is case-insensitive",
			raw:  "Dune\nBY Frank Herbert",
			want: Guess{Title: "Dune", Author: "Frank Herbert"},
		},
		{
			name: "only first marker occurrence is stripped",
			raw:  "Stories\ntold by written by Many Hands",
			want: Guess{Title: "Stories", Author: "told written by Many Hands"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseCoverText(tt.raw))
		})
	}
}
