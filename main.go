package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/ptgott/mailnotify/notify"
	"github.com/ptgott/mailnotify/userconfig"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/rs/zerolog/pkgerrors"
)

// options are the command-line choices that say which notification to send
// and to whom.
type options struct {
	kind      string
	to        string
	name      string
	lang      string
	token     string
	applicant string
}

func main() {
	// Log with filename and line number. This writes to stderr, so it should
	// be thread safe.
	// https://github.com/rs/zerolog/blob/7ccd4c940bf8a02fcc5f10e5475f9d3daff04d57/log/log.go#L13
	log.Logger = log.With().Caller().Logger()
	// Relay errors carry stack traces. Include them when logged with Stack().
	zerolog.ErrorStackMarshaler = pkgerrors.MarshalStack

	// Intercept interrupts so we can get more visibility into them. The
	// first one cancels whatever send is in flight. If we're stuck before
	// that, the second one exits.
	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 2)
	signal.Notify(sigCh, os.Interrupt)
	go func(c chan os.Signal) {
		<-c
		log.Info().Msg("interrupt: cancelling")
		cancel()
		<-c
		log.Info().Msg("interrupt: exiting")
		os.Exit(0)
	}(sigCh)

	configPath := flag.String(
		"config",
		"./config.yaml",
		"path to a YAML file containing your configuration",
	)
	var opts options
	flag.StringVar(
		&opts.kind,
		"kind",
		"test",
		`notification to send: "password-reset", "verify-email", "application-approved", "new-applicant", or "test"`,
	)
	flag.StringVar(
		&opts.to,
		"to",
		"",
		"recipient address. For new-applicant, a comma-separated list of admin addresses",
	)
	flag.StringVar(&opts.name, "name", "", "recipient display name")
	flag.StringVar(&opts.lang, "lang", "en", `recipient language, e.g., "de" or "pt_BR"`)
	flag.StringVar(&opts.token, "token", "", "token for password-reset and verify-email links")
	flag.StringVar(&opts.applicant, "applicant", "", "name of the applicant for new-applicant")
	timeout := flag.Duration(
		"timeout",
		time.Minute,
		"give up on sending after this long",
	)
	level := flag.String(
		"level",
		"info",
		`log level: "info", "debug", or "warn"`,
	)
	flag.Parse()

	switch *level {
	case "debug":
		log.Logger = log.Logger.Level(zerolog.DebugLevel)
	case "warn":
		log.Logger = log.Logger.Level(zerolog.WarnLevel)
	default:
		log.Logger = log.Logger.Level(zerolog.InfoLevel)
	}

	log.Info().
		Str("configPath", *configPath).
		Msg("starting the application")

	f, err := os.Open(*configPath)

	if err != nil {
		log.Error().
			Str("config-path", *configPath).
			Err(err).
			Msg("We can't open the application config file")
		os.Exit(1)
	}

	config, err := userconfig.Parse(f)
	f.Close()

	if err != nil {
		log.Error().
			Err(err).
			Msg("Problem parsing your config")
		os.Exit(1)
	}

	log.Info().Str("configPath", *configPath).Msg("successfully validated the config")

	ctx, cancelTimeout := context.WithTimeout(ctx, *timeout)
	defer cancelTimeout()

	if err := run(ctx, &notify.Sender{Settings: config}, opts); err != nil {
		log.Error().
			Err(err).
			Str("kind", opts.kind).
			Msg("could not send the notification")
		cancelTimeout()
		os.Exit(1)
	}
}

// run sends the notification that opts describes.
func run(ctx context.Context, s *notify.Sender, opts options) error {
	if opts.to == "" {
		return errors.New("-to is required")
	}
	r := notify.Recipient{
		Email: opts.to,
		Name:  opts.name,
		Lang:  opts.lang,
	}

	switch opts.kind {
	case "password-reset":
		if opts.token == "" {
			return fmt.Errorf("-token is required for %v", opts.kind)
		}
		return s.PasswordReset(ctx, r, opts.token)
	case "verify-email":
		if opts.token == "" {
			return fmt.Errorf("-token is required for %v", opts.kind)
		}
		return s.VerifyEmail(ctx, r, opts.token)
	case "application-approved":
		return s.ApplicationApproved(ctx, r)
	case "new-applicant":
		if opts.applicant == "" {
			return fmt.Errorf("-applicant is required for %v", opts.kind)
		}
		var admins []notify.Recipient
		for _, a := range strings.Split(opts.to, ",") {
			admins = append(admins, notify.Recipient{
				Email: strings.TrimSpace(a),
				Lang:  opts.lang,
			})
		}
		return s.NewApplicant(ctx, admins, opts.applicant)
	case "test":
		return s.Test(ctx, r)
	default:
		return fmt.Errorf("unknown notification kind %q", opts.kind)
	}
}
