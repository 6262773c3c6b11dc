package skirmish

import (
	"errors"
	"testing"
)

func TestNewCommand(t *testing.T) {
	tests := []struct {
		in   string
		kind Kind
		dir  Direction
		text string
	}{
		{"P1:F", Pawn, Forward, "P1:F"},
		{"P1:L", Pawn, Left, "P1:L"},
		{"H1:B", Hero1, Backward, "H1:B"},
		{"H2:FL", Hero2, ForwardLeft, "H2:FL"},
		{" H3:RF ", Hero3, RightForward, "H3:RF"},
		// Parses fine; validation rejects it later.
		{"P1:FL", Pawn, ForwardLeft, "P1:FL"},
		// Unknown or lower case tokens parse to no kind or direction.
		{"X9:F", NoKind, Forward, "X9:F"},
		{"P1:Z", Pawn, NoDirection, "P1:Z"},
		{"p1:f", NoKind, NoDirection, "p1:f"},
		{"H2:br", Hero2, NoDirection, "H2:br"},
	}

	for _, tc := range tests {
		t.Run(tc.in, func(t *testing.T) {
			c, err := NewCommand(tc.in)
			if err != nil {
				t.Fatalf("error creating command: %+v", err)
			}

			if c.Kind != tc.kind {
				t.Errorf("kind is %s, want %s", c.Kind, tc.kind)
			}

			if c.Direction != tc.dir {
				t.Errorf("direction is %s, want %s", c.Direction, tc.dir)
			}

			if c.Text != tc.text {
				t.Errorf("text is %q, want %q", c.Text, tc.text)
			}
		})
	}
}

func TestNewCommandMalformed(t *testing.T) {
	tests := []string{
		"",
		"P1",
		"P1:",
		":F",
		"P1-F",
		"P1:F:F",
	}

	for _, in := range tests {
		t.Run(in, func(t *testing.T) {
			_, err := NewCommand(in)
			if !errors.Is(err, ErrInvalidCommand) {
				t.Errorf("expected ErrInvalidCommand, got %v", err)
			}
		})
	}
}
