package models

import "testing"

func TestSize3Validate(t *testing.T) {
	if err := DefaultTargetSize.Validate(); err != nil {
		t.Errorf("Default target size should be valid: %v", err)
	}

	for _, s := range []Size3{{0, 1, 1}, {1, -2, 1}, {1, 1, 0}} {
		if err := s.Validate(); err == nil {
			t.Errorf("Expected error for size %v", s)
		}
	}
}

func TestSpacing3Validate(t *testing.T) {
	if err := DefaultTargetSpacing.Validate(); err != nil {
		t.Errorf("Default target spacing should be valid: %v", err)
	}

	for _, s := range []Spacing3{{0, 1, 1}, {1, -0.5, 1}} {
		if err := s.Validate(); err == nil {
			t.Errorf("Expected error for spacing %v", s)
		}
	}
}
