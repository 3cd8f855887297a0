package ttypes

import (
	"encoding/json"
	"testing"
)

func TestPriority_Rank(t *testing.T) {
	order := Priorities()
	for i := 1; i < len(order); i++ {
		if order[i-1].Rank() >= order[i].Rank() {
			t.Errorf("%s should rank before %s", order[i-1], order[i])
		}
	}
	if Priority("").Rank() != PriorityNormal.Rank() {
		t.Error("empty priority should rank as normal")
	}
	if Priority("urgent").Rank() != PriorityNormal.Rank() {
		t.Error("unknown priority should rank as normal")
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		in      string
		want    Priority
		wantErr bool
	}{
		{in: "critical", want: PriorityCritical},
		{in: " HIGH ", want: PriorityHigh},
		{in: "", want: PriorityNormal},
		{in: "low", want: PriorityLow},
		{in: "urgent", wantErr: true},
	}
	for _, tt := range tests {
		got, err := ParsePriority(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParsePriority(%q) err = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePriority(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSpeed(t *testing.T) {
	tests := []struct {
		in   string
		rate float64
	}{
		{in: "fast", rate: 1.25},
		{in: "normal", rate: 1.0},
		{in: "slow", rate: 0.8},
	}
	for _, tt := range tests {
		s, err := ParseSpeed(tt.in)
		if err != nil {
			t.Fatalf("ParseSpeed(%q): %v", tt.in, err)
		}
		if s.Rate() != tt.rate {
			t.Errorf("%s rate = %v, want %v", s, s.Rate(), tt.rate)
		}
	}
	if _, err := ParseSpeed("ludicrous"); err == nil {
		t.Error("expected error for unknown speed")
	}
	if Speed("").Rate() != 1.0 {
		t.Error("zero speed should play at normal rate")
	}
}

func TestLenientJSONDecoding(t *testing.T) {
	var v struct {
		Priority Priority `json:"priority"`
		Speed    Speed    `json:"speed"`
	}
	if err := json.Unmarshal([]byte(`{"priority":"URGENT","speed":"warp"}`), &v); err != nil {
		t.Fatal(err)
	}
	if v.Priority != PriorityNormal || v.Speed != SpeedNormal {
		t.Errorf("decoded %+v, want normal/normal", v)
	}
}
