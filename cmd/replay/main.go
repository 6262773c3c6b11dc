// Command replay plays a match transcript through the engine and prints
// the resulting board.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/icco/gutil/logging"
	"github.com/icco/skirmish"
	"github.com/jessevdk/go-flags"
	"go.uber.org/zap"
)

var log = logging.Must(logging.NewLogger(skirmish.Service))

// Options for the replay command.
type Options struct {
	Filename flags.Filename `short:"f" long:"filename" description:"transcript file to replay" required:"true"`
	Turn     int64          `short:"t" long:"turn" description:"stop after this turn; 0 plays every turn"`
	Verbose  bool           `short:"v" long:"verbose" description:"print every turn as it is applied"`
}

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := run(opts, os.Stdout); err != nil {
		log.Errorw("replay failed", "file", string(opts.Filename), zap.Error(err))
		os.Exit(1)
	}
}

func run(opts Options, out io.Writer) error {
	data, err := os.ReadFile(string(opts.Filename))
	if err != nil {
		return err
	}

	tr, err := skirmish.ParseTranscript(data)
	if err != nil {
		return err
	}

	if opts.Turn > 0 {
		var turns []*skirmish.Turn
		for _, t := range tr.Turns {
			if t.Number <= opts.Turn {
				turns = append(turns, t)
			}
		}
		tr.Turns = turns
	}

	if opts.Verbose {
		for _, t := range tr.Turns {
			fmt.Fprintln(out, t.Debug())
		}
	}

	g, err := tr.Replay()
	if err != nil {
		return err
	}

	fmt.Fprint(out, g.Board.String())
	fmt.Fprintf(out, "moves: %d  A: %d  B: %d\n", g.Moves, g.Count(skirmish.PlayerA), g.Count(skirmish.PlayerB))
	if winner, over := g.GameOver(); over {
		fmt.Fprintf(out, "winner: %s\n", winner)
	} else {
		fmt.Fprintf(out, "to move: %s\n", g.Current)
	}

	return nil
}
