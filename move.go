package skirmish

import (
	"fmt"
	"regexp"
	"strings"
)

// Command is a parsed move command such as "H2:FL".
type Command struct {
	Kind      Kind
	Direction Direction

	Text string
}

// (kind):(direction)
var commandRegex = regexp.MustCompile(`^([A-Za-z0-9]+):([A-Za-z]+)$`)

// NewCommand takes in a command string and returns a command that has been
// parsed.
func NewCommand(cmd string) (Command, error) {
	c := Command{Text: strings.TrimSpace(cmd)}
	err := c.Parse()
	return c, err
}

// Parse fills Kind and Direction from Text. Only a missing kind or direction
// token is a malformed command. Tokens are case sensitive; one that names no
// kind or direction leaves NoKind or NoDirection, which validation reports as
// a piece mismatch or an undefined move.
func (c *Command) Parse() error {
	parts := commandRegex.FindStringSubmatch(c.Text)
	if parts == nil {
		return fmt.Errorf("%w: %q", ErrInvalidCommand, c.Text)
	}

	c.Kind, _ = ParseKind(parts[1])
	c.Direction, _ = ParseDirection(parts[2])
	return nil
}

func (c Command) String() string {
	return c.Text
}

// MarshalText implements encoding.TextMarshaler.
func (c Command) MarshalText() ([]byte, error) {
	return []byte(c.Text), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (c *Command) UnmarshalText(b []byte) error {
	c.Text = string(b)
	return c.Parse()
}
