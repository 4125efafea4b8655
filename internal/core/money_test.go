package core

import "testing"

func TestParseAmountToCents(t *testing.T) {
	cases := []struct {
		in  string
		out int64
		ok  bool
	}{
		{"1", 100, true},
		{"1.0", 100, true},
		{"1.23", 123, true},
		{"1,23", 123, true},
		{"0.01", 1, true},
		{"1.005", 101, true}, // half-up rounding
		{" 2.50 ", 250, true},
		{"-1", -100, true},
		{"-42.10", -4210, true},
		{"-0,99", -99, true},
		{"+5", 500, true},
		{"0", 0, false},
		{"-0", 0, false},
		{"-", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{"", 0, false},
	}
	for _, tc := range cases {
		got, err := ParseAmountToCents(tc.in)
		if tc.ok {
			if err != nil || got != tc.out {
				t.Fatalf("%q expected %d, got %d (err=%v)", tc.in, tc.out, got, err)
			}
		} else {
			if err == nil {
				t.Fatalf("%q expected error", tc.in)
			}
		}
	}
}

func TestMoneySign(t *testing.T) {
	if !(Money{Cents: 1}).IsIncome() {
		t.Fatal("positive cents should be income")
	}
	if (Money{Cents: -1}).IsIncome() {
		t.Fatal("negative cents should not be income")
	}
	if got := (Money{Cents: -250}).Abs(); got.Cents != 250 {
		t.Fatalf("Abs() = %d, want 250", got.Cents)
	}
	if got := (Money{Cents: -250}).Units(); got != -2.5 {
		t.Fatalf("Units() = %v, want -2.5", got)
	}
}
