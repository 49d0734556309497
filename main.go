package main

import (
	"fmt"
	"io"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/sirupsen/logrus"
	"golang.org/x/term"

	"github.com/heathj/html5bridge/bridge"
	"github.com/heathj/html5bridge/parser/dom"
)

type cmdopts struct {
	Chunk       int    `long:"chunk" description:"feed the parser this many bytes at a time" default:"32768"`
	HTML        bool   `long:"html" description:"print the document as HTML"`
	Tree        bool   `long:"tree" description:"print the document as a drawn tree"`
	Errors      bool   `long:"errors" description:"print parse errors to stderr"`
	ExactErrors bool   `long:"exact-errors" description:"name the token and insertion mode in parse errors"`
	Encoding    string `long:"encoding" description:"character encoding of the input (default UTF-8)"`
	Scripting   bool   `long:"scripting" description:"parse as if scripting were enabled"`
	Time        bool   `long:"time" description:"report how long each parse took"`
	Debug       bool   `long:"debug" description:"trace tokens and insertion modes"`
}

func main() {
	os.Exit(_main())
}

func showUsage() {
	fmt.Printf(`Usage : html5bridge [options] HTMLfiles ...
	Parse the HTML files, or stdin, and print the resulting tree
	--html : print the document as HTML instead of the test dump
	--tree : draw the document as a tree
	--errors : print parse errors to stderr
	--chunk N : feed N bytes at a time
	--time : report parse times
`)
}

func _main() int {
	opts := cmdopts{}
	args, err := flags.ParseArgs(&opts, os.Args[1:])
	if err != nil {
		showUsage()
		return 1
	}

	log := logrus.New()
	log.SetOutput(os.Stderr)
	if opts.Debug {
		log.SetLevel(logrus.DebugLevel)
	}

	var inputs []string
	switch {
	case len(args) > 0:
		inputs = args
	case !term.IsTerminal(int(os.Stdin.Fd())):
		inputs = []string{"-"}
	default:
		showUsage()
		return 1
	}

	parseOpts := []bridge.Option{
		bridge.WithLogger(log),
		bridge.WithScripting(opts.Scripting),
		bridge.WithExactErrors(opts.ExactErrors),
		bridge.WithEncoding(opts.Encoding),
	}
	for _, name := range inputs {
		if err := parseOne(os.Stdout, os.Stderr, name, opts, parseOpts); err != nil {
			fmt.Fprintf(os.Stderr, "%s: %s\n", name, err)
			return 1
		}
	}
	return 0
}

func parseOne(stdout, stderr io.Writer, name string, opts cmdopts, parseOpts []bridge.Option) error {
	var in io.Reader = os.Stdin
	if name != "-" {
		f, err := os.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()
		in = f
	}

	h := dom.NewHost()
	start := time.Now()
	if err := h.Parse(in, opts.Chunk, parseOpts...); err != nil {
		return err
	}
	if opts.Time {
		fmt.Fprintf(stderr, "%s: parsed in %s\n", name, time.Since(start))
	}
	if opts.Errors {
		for _, msg := range h.Errors {
			fmt.Fprintf(stderr, "%s: parse error: %s\n", name, msg)
		}
	}

	switch {
	case opts.HTML:
		if err := dom.Render(stdout, h.Document, opts.Scripting); err != nil {
			return err
		}
		fmt.Fprintln(stdout)
	case opts.Tree:
		fmt.Fprint(stdout, dom.TreePrint(h.Document))
	default:
		fmt.Fprintln(stdout, h.Document.String())
	}
	return nil
}
