package grading

import "testing"

func TestRepresentative(t *testing.T) {
	tests := []struct {
		name    string
		own     []float64
		sibling []float64
		want    float64
	}{
		{name: "single own value", own: []float64{42}, want: 42},
		{name: "empty own falls back to zero", sibling: []float64{7}, want: 0},
		{name: "pool of two keeps best own value", own: []float64{5}, sibling: []float64{50}, want: 5},
		{name: "two own values without sibling", own: []float64{3, 9}, want: 9},
		{name: "pool of three is averaged", own: []float64{1, 2}, sibling: []float64{4}, want: 2.33},
		{name: "pool of four is averaged", own: []float64{10, 20, 30}, sibling: []float64{0}, want: 15},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := representative(tt.own, tt.sibling); got != tt.want {
				t.Errorf("representative(%v, %v) = %v, want %v", tt.own, tt.sibling, got, tt.want)
			}
		})
	}
}

func TestAggregatePoolsWithNextWorseGrade(t *testing.T) {
	raw := RawTable{
		GradeA: {"commits": {1000, 900}},
		GradeB: {"commits": {500, 400}},
		GradeC: {"commits": {200, 150}},
		GradeD: {"commits": {50, 40}},
		GradeE: {"commits": {5, 1}},
	}

	agg := Aggregate(raw)

	want := map[Grade]float64{
		GradeA: 700,   // (500+400+1000+900)/4
		GradeB: 312.5, // (200+150+500+400)/4
		GradeC: 110,   // (50+40+200+150)/4
		GradeD: 24,    // (5+1+50+40)/4
		GradeE: 5,     // pool of two, best own value
	}
	for g, v := range want {
		if got := agg[g]["commits"]; got != v {
			t.Errorf("grade %s commits = %v, want %v", g, got, v)
		}
	}
}

func TestAggregateSmallSamples(t *testing.T) {
	raw := RawTable{
		GradeA: {"commits": {100}},
		GradeB: {"commits": {20}},
	}

	agg := Aggregate(raw)

	if got := agg[GradeA]["commits"]; got != 100 {
		t.Errorf("grade A commits = %v, want 100", got)
	}
	if got := agg[GradeB]["commits"]; got != 20 {
		t.Errorf("grade B commits = %v, want 20", got)
	}
	if _, ok := agg[GradeC]; ok {
		t.Error("grade C should have no aggregated values")
	}
}

func TestAggregateDoesNotAliasInput(t *testing.T) {
	raw := RawTable{GradeA: {"stars": {1, 2, 3}}}

	agg := Aggregate(raw)
	agg[GradeA]["stars"] = -1

	if len(raw[GradeA]["stars"]) != 3 {
		t.Fatal("raw samples were modified")
	}
	if again := Aggregate(raw); again[GradeA]["stars"] != 2 {
		t.Errorf("re-aggregating = %v, want 2", again[GradeA]["stars"])
	}
}
