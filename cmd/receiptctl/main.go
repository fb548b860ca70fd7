package main

import (
	"fmt"
	"os"

	"github.com/mjwhitta/cli"
)

var version = "0.1.0"

// Exit codes
const (
	ExitSuccess = iota
	ExitError
	ExitMissingArg
)

// Global flags
var flags struct {
	config      string
	format      string
	addr        string
	strict      bool
	skipUnknown bool
	overwrite   bool
	verbose     bool
}

func setupCLI() {
	cli.Align = true
	cli.Authors = []string{"receiptkit authors"}
	cli.Banner = fmt.Sprintf("%s [OPTIONS] <command> [args...]", os.Args[0])
	cli.Info(
		"receiptctl - App Store receipt decoder",
		"",
		"Decodes the PKCS#7 receipt container and its ASN.1 attribute",
		"set. Signatures are not verified.",
	)
	cli.ExitStatus(
		"0 - Success",
		"1 - Error",
		"2 - Missing argument",
	)

	cli.Flag(&flags.config, "c", "config", "", "TOML config file")
	cli.Flag(&flags.format, "f", "format", "", "Output format (json, yaml, text)")
	cli.Flag(&flags.addr, "a", "addr", "", "Listen address for serve")
	cli.Flag(&flags.strict, "s", "strict", false, "Fail on the first bad attribute")
	cli.Flag(&flags.skipUnknown, "u", "skip-unknown", false, "Drop attributes with unknown types")
	cli.Flag(&flags.overwrite, "o", "overwrite", false, "Overwrite existing files")
	cli.Flag(&flags.verbose, "v", "verbose", false, "Debug logging")

	cli.Section("Commands",
		"  decode [file]          Decode a receipt (file, - for stdin)\n",
		"  attrs [file]           Print the raw attribute table\n",
		"  serve                  Run the HTTP decode API\n",
		"  config init <path>     Write a starter config\n",
		"  config check <path>    Validate a config file\n",
		"  version                Print the version",
	)

	cli.Parse()
}

func main() {
	setupCLI()
	if cli.NArg() == 0 {
		cli.Usage(ExitMissingArg)
	}

	command := cli.Arg(0)
	var args []string
	if cli.NArg() > 1 {
		args = cli.Args()[1:]
	}

	var err error
	switch command {
	case "decode":
		err = cmdDecode(os.Stdout, os.Stdin, args)
	case "attrs", "attributes":
		err = cmdAttrs(os.Stdout, os.Stdin, args)
	case "serve":
		err = cmdServe(args)
	case "config":
		err = cmdConfig(os.Stdout, args)
	case "version":
		fmt.Println(version)
	case "help":
		cli.Usage(ExitSuccess)
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", command)
		cli.Usage(ExitError)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(ExitError)
	}
}
