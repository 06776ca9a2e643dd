package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/psilabvnorg/ttsgen/internal/catalog"
	"github.com/psilabvnorg/ttsgen/internal/config"
	"github.com/psilabvnorg/ttsgen/internal/generate"
	"github.com/psilabvnorg/ttsgen/internal/stream"
	"github.com/psilabvnorg/ttsgen/internal/ui"
)

const usage = `usage: ttsgen <command> [flags]

commands:
  generate   synthesize speech and save the result
  voices     list available voices
  voice      show one voice in detail
  samples    list pre-rendered samples
  health     check service health
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ttsgen: %v\n", err)
		os.Exit(2)
	}

	switch os.Args[1] {
	case "generate":
		err = runGenerate(cfg, os.Args[2:])
	case "voices":
		err = runVoices(cfg, os.Args[2:])
	case "voice":
		err = runVoiceDetail(cfg, os.Args[2:])
	case "samples":
		err = runSamples(cfg, os.Args[2:])
	case "health":
		err = runHealth(cfg, os.Args[2:])
	case "help", "-h", "--help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "ttsgen: unknown command %q\n\n%s", os.Args[1], usage)
		os.Exit(2)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "ttsgen: %v\n", err)
		os.Exit(1)
	}
}

type generateOptions struct {
	baseURL       string
	transport     string
	text          string
	voiceID       string
	speed         float64
	cfgStrength   float64
	nfeSteps      int
	removeSilence bool
	out           string
	autoAck       bool
	timeout       time.Duration
}

func runGenerate(cfg config.Config, args []string) error {
	var opts generateOptions
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	fs.StringVar(&opts.baseURL, "base-url", cfg.BaseURL, "generation service base URL")
	fs.StringVar(&opts.transport, "transport", cfg.Transport, "stream transport: auto, sse, ws or mock")
	fs.StringVar(&opts.text, "text", "", "text to synthesize (required)")
	fs.StringVar(&opts.voiceID, "voice", "", "voice id (required)")
	fs.Float64Var(&opts.speed, "speed", cfg.DefaultSpeed, "speech speed")
	fs.Float64Var(&opts.cfgStrength, "cfg-strength", cfg.DefaultCFGStrength, "classifier-free guidance strength")
	fs.IntVar(&opts.nfeSteps, "nfe-steps", cfg.DefaultNFESteps, "number of function evaluations")
	fs.BoolVar(&opts.removeSilence, "remove-silence", cfg.DefaultRemoveSilence, "trim silence from the result")
	fs.StringVar(&opts.out, "out", "", "output file (default: server-provided filename)")
	fs.BoolVar(&opts.autoAck, "yes", false, "acknowledge completion without prompting")
	fs.DurationVar(&opts.timeout, "timeout", 15*time.Minute, "overall generation timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	opener, err := stream.NewOpener(stream.Config{
		Mode:        opts.transport,
		BaseURL:     opts.baseURL,
		IdleTimeout: cfg.StreamIdleTimeout,
	})
	if err != nil {
		return err
	}

	mat, err := generate.NewMaterializer(cfg.ArtifactDir)
	if err != nil {
		return err
	}

	term := ui.NewTerminal(os.Stdout)
	result := &ui.FileResult{Path: opts.out}
	ctrl := generate.NewController(
		opener,
		generate.UiBindings{View: term, Notifier: term, Result: result},
		mat,
		nil,
		generate.Defaults{
			Speed:       cfg.DefaultSpeed,
			CFGStrength: cfg.DefaultCFGStrength,
			NFESteps:    cfg.DefaultNFESteps,
		},
		generate.Messages{},
	)

	ctx, cancel := context.WithTimeout(context.Background(), opts.timeout)
	defer cancel()

	sess, err := ctrl.Submit(ctx, generate.FormFields{
		Text:          opts.text,
		VoiceID:       opts.voiceID,
		Speed:         strconv.FormatFloat(opts.speed, 'f', -1, 64),
		CFGStrength:   strconv.FormatFloat(opts.cfgStrength, 'f', -1, 64),
		NFESteps:      strconv.Itoa(opts.nfeSteps),
		RemoveSilence: opts.removeSilence,
	})
	if err != nil {
		return err
	}

	// The surface parks on completion until the user acknowledges it.
	go func() {
		select {
		case <-term.Completed():
		case <-sess.Done():
			return
		case <-ctx.Done():
			return
		}
		if !opts.autoAck {
			fmt.Print("press Enter to accept the result: ")
			_, _ = bufio.NewReader(os.Stdin).ReadString('\n')
		}
		ctrl.ProgressSurface().Acknowledge()
	}()

	if _, err := ctrl.Wait(ctx); err != nil {
		ctrl.Abandon()
		return err
	}
	if serr := sess.Err(); serr != nil {
		return serr
	}
	if path := result.LastPath(); path != "" {
		fmt.Printf("saved %s\n", path)
	}
	return nil
}

func runVoices(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("voices", flag.ExitOnError)
	baseURL := fs.String("base-url", cfg.BaseURL, "generation service base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	voices, err := catalog.NewClient(*baseURL, cfg.RequestTimeout).Voices(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tLANG\tGENDER\tDESCRIPTION")
	for _, v := range voices {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", v.ID, v.Name, v.Language, v.Gender, v.Description)
	}
	return tw.Flush()
}

func runVoiceDetail(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("voice", flag.ExitOnError)
	baseURL := fs.String("base-url", cfg.BaseURL, "generation service base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: ttsgen voice [flags] <voice-id>")
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	v, err := catalog.NewClient(*baseURL, cfg.RequestTimeout).Voice(ctx, fs.Arg(0))
	if err != nil {
		return err
	}
	fmt.Printf("id:          %s\n", v.ID)
	fmt.Printf("name:        %s\n", v.Name)
	fmt.Printf("language:    %s\n", v.Language)
	fmt.Printf("gender:      %s\n", v.Gender)
	fmt.Printf("description: %s\n", v.Description)
	fmt.Printf("sample rate: %d\n", v.SampleRate)
	if v.RefText != "" {
		fmt.Printf("ref text:    %s\n", v.RefText)
	}
	return nil
}

func runSamples(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("samples", flag.ExitOnError)
	baseURL := fs.String("base-url", cfg.BaseURL, "generation service base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	samples, err := catalog.NewClient(*baseURL, cfg.RequestTimeout).Samples(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VOICE\tFILENAME\tURL")
	for _, s := range samples {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", s.Voice, s.Filename, s.URL)
	}
	return tw.Flush()
}

func runHealth(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("health", flag.ExitOnError)
	baseURL := fs.String("base-url", cfg.BaseURL, "generation service base URL")
	if err := fs.Parse(args); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.RequestTimeout)
	defer cancel()

	h, err := catalog.NewClient(*baseURL, cfg.RequestTimeout).Health(ctx)
	if err != nil {
		return err
	}
	fmt.Printf("status:  %s\n", h.Status)
	fmt.Printf("service: %s\n", h.Service)
	fmt.Printf("version: %s\n", h.Version)
	return nil
}
