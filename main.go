package main

import (
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
	"github.com/mcncl/jyt/internal/cli"
	"github.com/mcncl/jyt/internal/codec"
	"github.com/mcncl/jyt/internal/config"
	"github.com/mcncl/jyt/internal/errors"
)

// Version information
const (
	Version = "0.1.0"
)

// CLI defines the command-line interface
var CLI struct {
	Config     string           `help:"Path to a config file. Defaults to .jyt.yml in the current directory or a parent." short:"c" type:"path"`
	LineEnding string           `help:"Newline used to join lines read from stdin (native, lf or crlf)." name:"line-ending"`
	NoTrim     bool             `help:"Print the converted document without trimming trailing whitespace." name:"no-trim"`
	Debug      bool             `help:"Enable debug logging and dump the decoded value tree to stderr." short:"d"`
	Version    kong.VersionFlag `help:"Show version information." short:"v"`

	JSONToYAML JSONToYAMLCmd `cmd:"" name:"json-to-yaml" aliases:"json2yaml,j2y,jy" help:"Convert Json to Yaml (also as json2yaml, j2y, and jy)."`
	JSONToTOML JSONToTOMLCmd `cmd:"" name:"json-to-toml" aliases:"json2toml,j2t,jt" help:"Convert Json to Toml (also as json2toml, j2t, and jt)."`
	YAMLToJSON YAMLToJSONCmd `cmd:"" name:"yaml-to-json" aliases:"yaml2json,y2j,yj" help:"Convert Yaml to Json (also as yaml2json, y2j, and yj)."`
	YAMLToTOML YAMLToTOMLCmd `cmd:"" name:"yaml-to-toml" aliases:"yaml2toml,y2t,yt" help:"Convert Yaml to Toml (also as yaml2toml, y2t, and yt)."`
	TOMLToJSON TOMLToJSONCmd `cmd:"" name:"toml-to-json" aliases:"toml2json,t2j,tj" help:"Convert Toml to Json (also as toml2json, t2j, and tj)."`
	TOMLToYAML TOMLToYAMLCmd `cmd:"" name:"toml-to-yaml" aliases:"toml2yaml,t2y,ty" help:"Convert Toml to Yaml (also as toml2yaml, t2y, and ty)."`
}

// Context holds the runtime context shared by every command
type Context struct {
	Runner *cli.Runner
}

// ConvertCmd is the positional input shared by every conversion command
type ConvertCmd struct {
	Input string `arg:"" optional:"" help:"Document to convert. Read from stdin when omitted."`
}

func (c *ConvertCmd) convert(ctx *Context, from, to codec.Format) error {
	return ctx.Runner.Run(from, to, c.Input)
}

type JSONToYAMLCmd struct{ ConvertCmd }

func (c *JSONToYAMLCmd) Run(ctx *Context) error { return c.convert(ctx, codec.JSON, codec.YAML) }

type JSONToTOMLCmd struct{ ConvertCmd }

func (c *JSONToTOMLCmd) Run(ctx *Context) error { return c.convert(ctx, codec.JSON, codec.TOML) }

type YAMLToJSONCmd struct{ ConvertCmd }

func (c *YAMLToJSONCmd) Run(ctx *Context) error { return c.convert(ctx, codec.YAML, codec.JSON) }

type YAMLToTOMLCmd struct{ ConvertCmd }

func (c *YAMLToTOMLCmd) Run(ctx *Context) error { return c.convert(ctx, codec.YAML, codec.TOML) }

type TOMLToJSONCmd struct{ ConvertCmd }

func (c *TOMLToJSONCmd) Run(ctx *Context) error { return c.convert(ctx, codec.TOML, codec.JSON) }

type TOMLToYAMLCmd struct{ ConvertCmd }

func (c *TOMLToYAMLCmd) Run(ctx *Context) error { return c.convert(ctx, codec.TOML, codec.YAML) }

func newParser() (*kong.Kong, error) {
	return kong.New(&CLI,
		kong.Name("jyt"),
		kong.Description("Convert documents between JSON, YAML and TOML"),
		kong.UsageOnError(),
		kong.Vars{"version": Version},
	)
}

func main() {
	parser, err := newParser()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	ctx, err := parser.Parse(os.Args[1:])
	parser.FatalIfErrorf(err)

	runCtx, err := newContext(os.Stdin, os.Stdout, os.Stderr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}

	if err := ctx.Run(runCtx); err != nil {
		fmt.Fprintf(os.Stderr, "%s\n", errors.UserFriendlyError(err))
		os.Exit(1)
	}
}

// newContext resolves configuration from the config file and CLI flags
func newContext(stdin io.Reader, stdout, stderr io.Writer) (*Context, error) {
	configPath := CLI.Config
	if configPath == "" {
		configPath = config.FindConfigFile()
	}

	var overrides config.Overrides
	if CLI.LineEnding != "" {
		overrides.LineEnding = &CLI.LineEnding
	}
	if CLI.NoTrim {
		overrides.NoTrim = &CLI.NoTrim
	}
	if CLI.Debug {
		overrides.Debug = &CLI.Debug
	}

	cfg, err := config.LoadConfigWithCLI(configPath, overrides)
	if err != nil {
		return nil, err
	}

	logger := cli.NewLogger(stderr, cfg.Dev.Debug)
	if configPath != "" {
		logger.Debug("loaded config", "path", configPath)
	}

	return &Context{
		Runner: &cli.Runner{
			Config: cfg,
			Logger: logger,
			Stdin:  stdin,
			Stdout: stdout,
			Stderr: stderr,
		},
	}, nil
}
