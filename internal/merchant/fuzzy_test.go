package merchant

import "testing"

func TestLevenshteinScore(t *testing.T) {
	cases := []struct {
		name string
		a, b string
		want int
	}{
		{"identical", "STARBUCKS COFFEE", "STARBUCKS COFFEE", 100},
		{"both empty", "", "", 100},
		{"one empty", "ABC", "", 0},
		{"single deletion", "STARBUCKS COFFEE", "STARBUCKS COFFE", 94}, // 1/16
		{"apostrophe", "TRADER JOE'S", "TRADER JOES", 92},             // 1/12
		{"unrelated", "COMPLETELY DIFFERENT", "STARBUCKS COFFEE", 25},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := LevenshteinScore(tc.a, tc.b); got != tc.want {
				t.Errorf("LevenshteinScore(%q, %q) = %d, want %d", tc.a, tc.b, got, tc.want)
			}
		})
	}
}

func TestLevenshteinScoreSymmetricAndBounded(t *testing.T) {
	pairs := [][2]string{
		{"WHOLE FOODS", "WHOLE FOODS MARKET"},
		{"A", "ZZZZZZZZZZ"},
		{"", "X"},
	}
	for _, p := range pairs {
		ab := LevenshteinScore(p[0], p[1])
		ba := LevenshteinScore(p[1], p[0])
		if ab != ba {
			t.Errorf("score not symmetric for %q/%q: %d vs %d", p[0], p[1], ab, ba)
		}
		if ab < 0 || ab > 100 {
			t.Errorf("score out of range for %q/%q: %d", p[0], p[1], ab)
		}
	}
}
