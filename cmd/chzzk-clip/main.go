package main

import (
	"flag"
	"os"

	"github.com/rs/zerolog"
	_ "go.uber.org/automaxprocs"

	"github.com/plune/chzzk-clip/internal/app"
	"github.com/plune/chzzk-clip/internal/config"
	"github.com/plune/chzzk-clip/internal/pkg/context"
	"github.com/plune/chzzk-clip/internal/pkg/log"
	"github.com/plune/chzzk-clip/internal/pkg/timeutil"
)

var (
	flagConfigFile = flag.String("f", "", "path to configuration yaml file")
	flagLink       = flag.String("link", "", "chzzk vod permalink")
	flagStart      = flag.String("start", "0", "segment start (HH:MM:SS, MM:SS or seconds)")
	flagEnd        = flag.String("end", "", "segment end (HH:MM:SS, MM:SS or seconds)")
	flagQuality    = flag.String("quality", "", "preferred quality (best, worst, 1080p, ...)")
)

func main() {
	flag.Parse()

	console := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	if *flagLink == "" || *flagEnd == "" {
		console.Fatal().Msg("-link and -end are required")
	}

	startSec, err := timeutil.ParseClock(*flagStart)
	if err != nil {
		console.Fatal().Err(err).Msg("invalid -start value")
	}
	endSec, err := timeutil.ParseClock(*flagEnd)
	if err != nil {
		console.Fatal().Err(err).Msg("invalid -end value")
	}

	ctx := context.NewSignalledContext()

	conf, err := config.NewConfig(ctx, *flagConfigFile)
	if err != nil {
		log.Logger.Fatalw("failed to load config", "error", err)
	}

	a, err := app.NewApp(conf)
	if err != nil {
		log.Logger.Fatalw("failed to initialize app", "error", err)
	}

	lastStep := -1
	result, err := a.Acquire(ctx, app.AcquireOptions{
		Link:     *flagLink,
		StartSec: startSec,
		EndSec:   endSec,
		Quality:  *flagQuality,
		OnProgress: func(pct float64) {
			// Console noise control: one line per 5% step.
			if step := int(pct) / 5; step > lastStep {
				lastStep = step
				console.Info().Int("percent", int(pct)).Msg("downloading")
			}
		},
	})
	if err != nil {
		console.Fatal().Err(err).Msg("acquisition failed")
	}

	console.Info().
		Str("title", result.Metadata.Title).
		Str("quality", result.Stream.QualityLabel).
		Str("video", result.VideoPath).
		Msg("segment downloaded")
	if result.ChatPath != "" {
		console.Info().Str("chat", result.ChatPath).Int("messages", len(result.Chat)).Msg("chat transcript written")
	}
}
