package main

import (
	"os"

	"github.com/alecthomas/kong"
	"github.com/joho/godotenv"
)

// version is set by ldflags during build
var version = "dev"

type CLI struct {
	Globals

	Version kong.VersionFlag `short:"v" help:"Show version"`
	Sample  SampleCmd        `cmd:"" help:"Draw values from a stream"`
	Key     KeyCmd           `cmd:"" help:"Look up a stateless key"`
	Domains DomainsCmd       `cmd:"" help:"List registered domains"`
	Audit   AuditCmd         `cmd:"" help:"Run statistical health checks against the session"`
	Record  RecordCmd        `cmd:"" help:"Record a golden replay fixture"`
	Verify  VerifyCmd        `cmd:"" help:"Verify a replay fixture against this build"`
	Serve   ServeCmd         `cmd:"" help:"Serve draws over WebSocket"`
	View    ViewCmd          `cmd:"" help:"Step through a stream interactively"`
}

func newParser(cli *CLI, options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("threadlink"),
		kong.Description("Deterministic identity-keyed randomness for replays and lockstep peers"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": version,
		},
	}, options...)
	return kong.New(cli, options...)
}

func main() {
	// .env is optional; real environment variables take precedence
	_ = godotenv.Load()

	var cli CLI
	parser, err := newParser(&cli)
	if err != nil {
		panic(err)
	}

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	cli.Stdout = os.Stdout
	cli.Stderr = os.Stderr
	err = ctx.Run(&cli.Globals)
	ctx.FatalIfErrorf(err)
}
