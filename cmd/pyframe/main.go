// Command pyframe compiles Python source to bytecode and either serializes
// it as a frame tree (dis) or executes it (run).
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/fxamacker/cbor/v2"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/framelang/pyframe/pkg/bytecode"
	"github.com/framelang/pyframe/pkg/compiler/python"
	"github.com/framelang/pyframe/pkg/config"
	"github.com/framelang/pyframe/pkg/frame"
	"github.com/framelang/pyframe/pkg/vm"
)

const configFile = "pyframe.toml"

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: pyframe <command> [options] <file.py>

Commands:
  dis    compile a Python file and print its frame tree
  run    compile and execute a Python file

Run 'pyframe <command> -h' for command options.
`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load(configFile)
	if err != nil {
		fatal(cfg, err)
	}
	if cfg.NoColor {
		color.NoColor = true
	}

	switch os.Args[1] {
	case "dis":
		err = cmdDis(cfg, os.Args[2:])
	case "run":
		err = cmdRun(cfg, os.Args[2:])
	case "-h", "--help", "help":
		usage()
		return
	default:
		fmt.Fprintf(os.Stderr, "pyframe: unknown command %q\n", os.Args[1])
		usage()
		os.Exit(2)
	}
	if err != nil {
		fatal(cfg, err)
	}
}

func fatal(cfg config.Config, err error) {
	if cfg.NoColor {
		color.NoColor = true
	}
	fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
	os.Exit(1)
}

// setupLogging routes structured logs to stderr so stdout stays clean for
// serialized output.
func setupLogging(verbose bool) {
	w := zerolog.ConsoleWriter{Out: os.Stderr}
	log.Logger = log.Output(w)
	if verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	} else {
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	}
}

func compileFile(path string) (*bytecode.Code, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	log.Debug().Str("file", path).Int("bytes", len(src)).Msg("compiling")
	code, err := python.NewCompiler(path).Compile(string(src))
	if err != nil {
		return nil, err
	}
	log.Debug().
		Int("instructions", len(code.Instructions)).
		Int("constants", len(code.Constants)).
		Msg("compiled module")
	return code, nil
}

func cmdDis(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("dis", flag.ExitOnError)
	format := fs.String("format", cfg.Format, "output format: json or cbor")
	indent := fs.Bool("indent", cfg.Indent, "indent JSON output")
	out := fs.String("o", "", "write output to file instead of stdout")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	fs.Parse(args)
	setupLogging(*verbose)

	if fs.NArg() != 1 {
		return fmt.Errorf("dis: expected exactly one source file")
	}
	code, err := compileFile(fs.Arg(0))
	if err != nil {
		return err
	}

	root := frame.Serialize(code)
	var data []byte
	switch *format {
	case "json":
		if *indent {
			data, err = json.MarshalIndent(root, "", "  ")
		} else {
			data, err = json.Marshal(root)
		}
		if err == nil {
			data = append(data, '\n')
		}
	case "cbor":
		data, err = cbor.Marshal(root)
	default:
		return fmt.Errorf("dis: unknown format %q (want json or cbor)", *format)
	}
	if err != nil {
		return err
	}

	if *out != "" {
		return os.WriteFile(*out, data, 0o644)
	}
	_, err = os.Stdout.Write(data)
	return err
}

func cmdRun(cfg config.Config, args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	gas := fs.Int("gas", cfg.Gas, "instruction budget")
	verbose := fs.Bool("verbose", false, "enable debug logging")
	fs.Parse(args)
	setupLogging(*verbose)

	if fs.NArg() != 1 {
		return fmt.Errorf("run: expected exactly one source file")
	}
	code, err := compileFile(fs.Arg(0))
	if err != nil {
		return err
	}

	m := vm.New(os.Stdout)
	log.Debug().Int("gas", *gas).Msg("starting execution")
	return m.Run(code, *gas)
}
