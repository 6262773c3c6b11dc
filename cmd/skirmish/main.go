// Command skirmish is a terminal client for the skirmish server.
package main

import (
	"context"
	"fmt"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/icco/skirmish"
	"github.com/jessevdk/go-flags"
)

// Options for the terminal client.
type Options struct {
	Server string `short:"s" long:"server" env:"SKIRMISH_SERVER" default:"ws://localhost:8080/ws" description:"websocket URL of the server"`
	Player string `short:"p" long:"player" env:"SKIRMISH_PLAYER" default:"A" description:"side to play, A or B"`
}

var (
	// Styles
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginLeft(2)

	textStyle = lipgloss.NewStyle().
			MarginLeft(2)

	boardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240")).
			Padding(1).
			MarginLeft(2)

	cellStyle = lipgloss.NewStyle().
			Width(5).
			Height(1).
			Align(lipgloss.Center)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true).
			MarginLeft(2)
)

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	player, err := skirmish.ParsePlayer(opts.Player)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	c, err := dial(ctx, opts.Server)
	cancel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "could not connect to %s: %v\n", opts.Server, err)
		os.Exit(1)
	}
	defer c.close()

	p := tea.NewProgram(initialModel(c, player, opts.Server), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
