// Command seqsim prints the frames of a program without driving any
// hardware.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/coreman2200/lumiseq/internal/program"
	"github.com/coreman2200/lumiseq/internal/sequence"
)

func main() {
	var (
		programPath string
		channels    int
		limitMs     int
	)
	flag.StringVar(&programPath, "program", "", "path to a program (.yaml or .json)")
	flag.IntVar(&channels, "channels", 8, "number of LED channels")
	flag.IntVar(&limitMs, "limit-ms", 10000, "stop after this much animation time; looping programs need it")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if programPath == "" {
		log.Fatal().Msg("provide -program path to a program file")
	}
	p, err := program.Load(programPath)
	if err != nil {
		log.Fatal().Err(err).Msg("load")
	}
	a, err := program.Compile(p, channels)
	if err != nil {
		log.Fatal().Err(err).Msg("compile")
	}
	if limitMs > 0 {
		if a, err = sequence.LimitDuration(a, limitMs); err != nil {
			log.Fatal().Err(err).Msg("limit")
		}
	}

	t, n := 0, 0
	for f, err := range a.Frames() {
		if err != nil {
			log.Fatal().Err(err).Int("frame", n).Msg("play")
		}
		fmt.Printf("%6dms  %s\n", t, f)
		t += f.Millis()
		n++
	}
	fmt.Printf("%d frames, %dms\n", n, t)
}
