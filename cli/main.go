package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/docopt/docopt-go"
	"github.com/fiatjaf/rpcpipe/common"
	"github.com/go-json-experiment/json/jsontext"
	"github.com/kr/pretty"
	"github.com/mitchellh/go-homedir"
	"github.com/rs/zerolog"
)

var log = zerolog.New(os.Stderr).Output(zerolog.ConsoleWriter{Out: os.Stderr})

const USAGE = `rpccli

Usage:
  rpccli [options] call <method> <param1> <param2>
  rpccli [options] fetch <url>
  rpccli -h | --help

Options:
  -h --help                Show this screen.
  --datadir=<dir>          The base directory we will read the config file from [default: ~/.rpcpipe].
  --endpoint=<url>         RPC endpoint, overrides the config file.
  --connect-timeout=<dur>  Connect timeout such as 10s, overrides the config file.
  --timeout=<dur>          Overall request timeout such as 30s, overrides the config file.
  -v --verbose             Log the outcome of every stage and dump the effective config.
`

// exit codes, one per failure kind so scripts can branch on them
const (
	EXIT_OK         = 0
	EXIT_FAILURE    = 1
	EXIT_USAGE      = 2
	EXIT_TCP        = 3
	EXIT_HTTP       = 4
	EXIT_JSON       = 5
	EXIT_MESSAGE    = 6
	EXIT_UNEXPECTED = 7
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout, os.Stderr))
}

func run(args []string, stdout, stderr io.Writer) int {
	log = log.Output(zerolog.ConsoleWriter{Out: stderr}).Level(zerolog.InfoLevel)

	// parse args
	parser := &docopt.Parser{HelpHandler: func(err error, usage string) {
		if err != nil {
			fmt.Fprintln(stderr, usage)
		} else {
			fmt.Fprintln(stdout, usage)
		}
	}}
	opts, err := parser.ParseArgs(USAGE, args, "")
	if err != nil {
		return EXIT_USAGE
	}
	if help, _ := opts.Bool("--help"); help || opts == nil {
		return EXIT_OK
	}

	config, err := loadConfig(opts)
	if err != nil {
		log.Error().Err(err).Msg("bad configuration")
		return EXIT_USAGE
	}

	if verbose, _ := opts.Bool("--verbose"); verbose {
		log = log.Level(zerolog.DebugLevel)
		pretty.Fprintf(stderr, "%# v\n", config)
	}

	ctx := log.WithContext(context.Background())
	issuer := common.NewHTTPIssuer(config.IssuerConfig())

	if fetch, _ := opts.Bool("fetch"); fetch {
		url, _ := opts.String("<url>")
		body, aerr := common.Fetch(ctx, issuer, url)
		if aerr != nil {
			return fail(aerr)
		}
		if _, err := stdout.Write(body); err != nil {
			log.Error().Err(err).Msg("failed to write body")
			return EXIT_FAILURE
		}
		return EXIT_OK
	}

	// run the RPC call
	method, _ := opts.String("<method>")
	var params [2]string
	params[0], _ = opts.String("<param1>")
	params[1], _ = opts.String("<param2>")

	result, aerr := common.Call[jsontext.Value](ctx, issuer, config.Endpoint, method, params)
	if aerr != nil {
		return fail(aerr)
	}

	if _, err := fmt.Fprintln(stdout, string(result)); err != nil {
		log.Error().Err(err).Msg("failed to write result")
		return EXIT_FAILURE
	}
	return EXIT_OK
}

func loadConfig(opts docopt.Opts) (*common.Config, error) {
	config := &common.Config{}

	// find datadir
	config.DataDir, _ = opts.String("--datadir")
	config.DataDir, _ = homedir.Expand(config.DataDir)

	// read config file
	if err := config.ReadConfig(); err != nil {
		return nil, err
	}

	// command line wins over the file
	if endpoint, _ := opts["--endpoint"].(string); endpoint != "" {
		config.Endpoint = endpoint
	}
	for name, target := range map[string]*time.Duration{
		"--connect-timeout": &config.ConnectTimeout,
		"--timeout":         &config.Timeout,
	} {
		value, _ := opts[name].(string)
		if value == "" {
			continue
		}
		d, err := time.ParseDuration(value)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name, err)
		}
		if d <= 0 {
			return nil, fmt.Errorf("%s must be positive, got %s", name, value)
		}
		*target = d
	}

	return config, nil
}

func fail(err common.AppError) int {
	log.Error().Err(err).Stringer("kind", err.Kind()).Msg("request failed")

	switch err.(type) {
	case *common.TCPError:
		return EXIT_TCP
	case *common.HTTPResponseError:
		return EXIT_HTTP
	case *common.JSONParseError:
		return EXIT_JSON
	case *common.MessageError:
		return EXIT_MESSAGE
	case *common.UnexpectedError:
		return EXIT_UNEXPECTED
	}
	return EXIT_FAILURE
}
