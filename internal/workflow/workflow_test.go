package workflow

import "testing"

func TestStatusOrder(t *testing.T) {
	statuses := Statuses()
	if len(statuses) != 6 {
		t.Fatalf("expected 6 statuses, got %d", len(statuses))
	}
	if statuses[0] != StatusIntake {
		t.Errorf("expected intake first, got %s", statuses[0])
	}
	if statuses[5] != StatusSubmitted {
		t.Errorf("expected submitted last, got %s", statuses[5])
	}
}

func TestNextAndPrevious(t *testing.T) {
	next, ok := Next(StatusIntake)
	if !ok || next != StatusOutline {
		t.Errorf("Next(intake) = %s, %v; want outline, true", next, ok)
	}

	if _, ok := Next(StatusSubmitted); ok {
		t.Error("submitted must have no successor")
	}

	prev, ok := Previous(StatusSubmitted)
	if !ok || prev != StatusFinalReview {
		t.Errorf("Previous(submitted) = %s, %v; want final_review, true", prev, ok)
	}

	if _, ok := Previous(StatusIntake); ok {
		t.Error("intake must have no predecessor")
	}
}

func TestCanTransitionSingleStepOnly(t *testing.T) {
	cases := []struct {
		from, to Status
		want     bool
	}{
		{StatusIntake, StatusOutline, true},
		{StatusOutline, StatusIntake, true},
		{StatusFinalReview, StatusSubmitted, true},
		{StatusIntake, StatusSubmitted, false},
		{StatusIntake, StatusDrafting, false},
		{StatusSubmitted, StatusDrafting, false},
		{StatusDrafting, StatusDrafting, false},
		{StatusIntake, Status("bogus"), false},
		{Status("bogus"), StatusIntake, false},
	}
	for _, tc := range cases {
		if got := CanTransition(tc.from, tc.to); got != tc.want {
			t.Errorf("CanTransition(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestParse(t *testing.T) {
	if _, err := Parse("drafting"); err != nil {
		t.Errorf("Parse(drafting) failed: %v", err)
	}
	if _, err := Parse("DRAFTING"); err == nil {
		t.Error("Parse must reject uppercase variants")
	}
	if _, err := Parse(""); err == nil {
		t.Error("Parse must reject empty status")
	}
}

func TestIsTerminal(t *testing.T) {
	if !IsTerminal(StatusSubmitted) {
		t.Error("submitted should be terminal")
	}
	if IsTerminal(StatusFinalReview) {
		t.Error("final_review should not be terminal")
	}
}
