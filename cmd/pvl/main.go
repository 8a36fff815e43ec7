// Copyright 2024 PIRL, The University of Arizona. All rights reserved.
// Use of this source code is governed by Apache v2 license
// license that can be found in the LICENSE file.

// The pvl command parses PVL source files and lists the parameters
// found, optionally searching for parameters by pathname.
//
//	pvl [options] [file ...]
//
// A single '-' argument reads standard input; if no filename is given
// standard input is used. Options are prefix matched case-insensitively
// and may be negated with a No_, Not_ or N_ prefix. Options apply to
// the files that follow them.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pirl-lpl/pvl"
	"github.com/spf13/cobra"
)

const (
	exitSuccess = 0
	exitPVL     = 1
	exitUsage   = 2
)

type config struct {
	strictParse        bool
	strictWrite        bool
	showWarnings       bool
	verbatimStrings    bool
	crosshatchComments bool
	stringContinuation bool
	caseSensitive      bool
	quiet              bool
	findPaths          []string
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "pvl [options] [file ...]",
		Short: "A Parameter Value Language label processor",
		Long: "Parses PVL label sources and lists the parameter trees " +
			"found,\noptionally searching them for parameters by pathname.",
		// The option words use the classic prefix-matched, No_-negated
		// form, so the argument list is scanned directly.
		DisableFlagParsing: true,
		SilenceUsage:       true,
		SilenceErrors:      true,
		RunE: func(cmd *cobra.Command, args []string) error {
			os.Exit(run(args))
			return nil
		},
	}
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(exitUsage)
	}
}

func run(args []string) int {
	cfg := config{
		crosshatchComments: true,
		stringContinuation: true,
	}

	// A help request anywhere suppresses everything else.
	for _, argument := range args {
		if strings.HasPrefix(argument, "-") &&
			strings.HasPrefix(strings.ToUpper(strings.TrimLeft(argument, "-")), "H") {
			usage(os.Stdout)
			return exitSuccess
		}
	}

	status := exitSuccess
	stdinUsed := false
	fileSeen := false
	for index := 0; index < len(args); index++ {
		argument := args[index]
		if argument == "" {
			continue
		}
		if argument[0] != '-' {
			fileSeen = true
			f, err := os.Open(argument)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Unable to open the input file: %s\n",
					argument)
				continue
			}
			if code := process(argument, f, &cfg); code != exitSuccess {
				status = code
			}
			f.Close()
			continue
		}

		argument = argument[1:]
		if argument == "" {
			// A bare '-' reads stdin.
			if stdinUsed {
				fmt.Fprintf(os.Stderr, "%v\n", pvl.ErrStdinRepeated)
				continue
			}
			stdinUsed = true
			fileSeen = true
			if code := process("", os.Stdin, &cfg); code != exitSuccess {
				status = code
			}
			continue
		}

		positive := !notArgument(&argument)
		if argument == "" {
			usage(os.Stderr)
			return exitUsage
		}
		switch upper := strings.ToUpper(argument); upper[0] {
		case 'F':
			// Find pathnames accumulate; a negative clears them.
			if positive && index+1 < len(args) {
				index++
				cfg.findPaths = append(cfg.findPaths, args[index])
			} else {
				cfg.findPaths = nil
			}
		case 'W':
			cfg.showWarnings = positive
		case 'V':
			cfg.verbatimStrings = positive
		case 'C':
			if i := strings.IndexByte(upper, '_'); i >= 0 &&
				i+1 < len(upper) && upper[i+1] == 'S' {
				cfg.caseSensitive = positive
			} else {
				cfg.crosshatchComments = positive
			}
		case 'Q':
			cfg.quiet = positive
		case 'S':
			i := strings.IndexByte(upper, '_')
			switch {
			case i < 0 || i+1 >= len(upper):
				cfg.strictParse = positive
				cfg.strictWrite = positive
			case upper[i+1] == 'I':
				cfg.strictParse = positive
			case upper[i+1] == 'O':
				cfg.strictWrite = positive
			case upper[i+1] == 'C':
				cfg.stringContinuation = positive
			default:
				fmt.Fprintf(os.Stderr, "Unknown option \"-%s\"\n", argument)
				usage(os.Stderr)
				return exitUsage
			}
		default:
			fmt.Fprintf(os.Stderr, "Unknown option \"-%s\"\n", argument)
			usage(os.Stderr)
			return exitUsage
		}
	}

	if !fileSeen {
		if code := process("", os.Stdin, &cfg); code != exitSuccess {
			status = code
		}
	}
	return status
}

// notArgument strips a No_, Not_ or N_ negation prefix, reporting
// whether one was present.
func notArgument(argument *string) bool {
	upper := strings.ToUpper(*argument)
	for _, prefix := range []string{"NOT_", "NO_", "N_"} {
		if strings.HasPrefix(upper, prefix) {
			*argument = (*argument)[len(prefix):]
			return true
		}
	}
	return false
}

// process parses one PVL source and lists it, or the found parameters,
// on standard output.
func process(filename string, reader io.Reader, cfg *config) int {
	if !cfg.quiet {
		name := filename
		if name == "" {
			name = "(stdin)"
		}
		fmt.Printf("===>>> %s\n", name)
		fmt.Printf("--->>>      Strict Parsing: %t\n", cfg.strictParse)
		fmt.Printf("--->>>      Strict Writing: %t\n", cfg.strictWrite)
		fmt.Printf("--->>>    Verbatim Strings: %t\n", cfg.verbatimStrings)
		fmt.Printf("--->>> Crosshatch Comments: %t\n", cfg.crosshatchComments)
		fmt.Printf("--->>> String Continuation: %t\n", cfg.stringContinuation)
		if len(cfg.findPaths) != 0 {
			fmt.Printf("--->>>      Case Sensitive: %t\n", cfg.caseSensitive)
		}
		fmt.Println()
	}

	parser := pvl.NewParser(reader, pvl.NoLimit)
	parser.SetStrict(cfg.strictParse)
	parser.SetVerbatimStrings(cfg.verbatimStrings)
	parser.SetCommentedLines(cfg.crosshatchComments)
	parser.SetStringContinuation(cfg.stringContinuation)

	parameters, err := parser.GetParameters()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return exitPVL
	}

	if cfg.showWarnings {
		for _, warning := range parser.Warnings() {
			fmt.Printf("%v\n\n", warning)
		}
	}

	lister := pvl.NewLister(os.Stdout)
	lister.Strict = cfg.strictWrite

	if len(cfg.findPaths) == 0 {
		if err := lister.Write(parameters); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return exitPVL
		}
		return exitSuccess
	}

	for _, pathname := range cfg.findPaths {
		parameters.Walk(func(parameter *pvl.Parameter) bool {
			if parameter.AtPathname(pathname, cfg.caseSensitive) {
				parameter.Comment = ""
				fmt.Println(parameter.Pathname())
				lister.Write(parameter)
			}
			return true
		})
	}
	return exitSuccess
}

func usage(w io.Writer) {
	fmt.Fprint(w, `Use: pvl [[<option> [...]] [<filename>]] ...

A source of PVL statements is parsed. If no filename is specified stdin
is used; a single '-' indicates stdin, which may only be specified
once. Each source is parsed in the order listed; options apply to the
sources that follow them. Option names are prefix matched without case
sensitivity.

Options:

  -[Not_]Strict[_In | _Out]
      Strict PVL syntax is (not) enforced for input (parsing) and/or
      output (listing). Default: Not_Strict for both In and Out.

  -[No_]Warnings
      Warnings will (not) be listed. Default: No_Warnings.

  -[No_]Crosshatch_Comments
      Lines starting with a '#' character are (not) comments.
      Default: Crosshatch_Comments.

  -[No_]Verbatim_Strings
      Do (not) ignore formatting escape characters in quoted strings.
      Default: No_Verbatim_Strings.

  -[No_]String_Continuation
      A trailing '-' at a line end in a quoted string does (not) join
      the wrapped lines. Default: String_Continuation.

  -[Not_]Quiet
      Do (not) suppress the filename and mode listing.
      Default: Not_Quiet.

  -[No_]Find <pathname>
      Do (not) find parameters at the pathname. Pathnames accumulate;
      a No_Find clears them. Default: No_Find.

  -[Not_]Case_Sensitive
      Find pathname matching is (not) case sensitive.
      Default: Not_Case_Sensitive.

  -Help
      List this usage description; all other options are ignored.
`)
}
