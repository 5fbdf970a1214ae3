// Command tpvg works on sequence program files offline: it exports the
// condition table, validates, converts between formats and hashes API
// passwords for the server config.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/KevinKickass/OpenSequenceCore/internal/auth"
	"github.com/KevinKickass/OpenSequenceCore/internal/config"
	"github.com/KevinKickass/OpenSequenceCore/internal/definition"
	"github.com/KevinKickass/OpenSequenceCore/internal/document"
	"github.com/KevinKickass/OpenSequenceCore/internal/export"
	"github.com/KevinKickass/OpenSequenceCore/internal/export/xlsx"
	"github.com/KevinKickass/OpenSequenceCore/internal/i18n"
	"github.com/KevinKickass/OpenSequenceCore/internal/validation"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

const usage = `usage: tpvg <command> [flags]

commands:
  export <program>           write the condition table workbook
  validate <program>         report problems in a program
  convert <in> <out>         rewrite a program in the format of <out>
  hash-password <password>   print an argon2id hash for auth.users
`

// errFindings makes validate exit non-zero without printing twice.
var errFindings = errors.New("program has errors")

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, errFindings) {
			fmt.Fprintln(os.Stderr, "tpvg:", err)
		}
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return errors.New("missing command")
	}

	switch args[0] {
	case "export":
		return runExport(args[1:], stdout, stderr)
	case "validate":
		return runValidate(args[1:], stdout)
	case "convert":
		return runConvert(args[1:], stdout)
	case "hash-password":
		return runHashPassword(args[1:], stdout)
	case "-h", "--help", "help":
		fmt.Fprint(stdout, usage)
		return nil
	default:
		fmt.Fprint(stderr, usage)
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func loadDocument(path string) (*definition.Program, *document.Document, error) {
	loader, err := definition.NewLoader()
	if err != nil {
		return nil, nil, err
	}
	p, err := loader.LoadFile(path)
	if err != nil {
		return nil, nil, err
	}
	doc, err := p.ToDocument()
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", path, err)
	}
	return p, doc, nil
}

func runExport(args []string, stdout, stderr io.Writer) error {
	flags := pflag.NewFlagSet("export", pflag.ContinueOnError)
	flags.SetOutput(stderr)
	configPath := flags.StringP("config", "c", "", "config file")
	flags.StringP("output", "o", "./tpvg_generated_table.xlsx", "workbook to write")
	flags.StringP("language", "l", "DEFAULT", "language pack for the headers")
	flags.StringSlice("lang-dir", nil, "extra directories with language packs")
	verbose := flags.BoolP("verbose", "v", false, "log progress")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("export needs exactly one program file")
	}

	cfg, err := config.LoadWithFlags(*configPath, flags, map[string]string{
		"export.output_path": "output",
		"i18n.language":      "language",
		"i18n.search_paths":  "lang-dir",
	})
	if err != nil {
		return err
	}

	logger := zap.NewNop()
	if *verbose {
		if logger, err = zap.NewDevelopment(); err != nil {
			return err
		}
	}
	defer logger.Sync()

	catalog, err := i18n.NewCatalog()
	if err != nil {
		return err
	}
	for _, dir := range cfg.I18n.SearchPaths {
		if _, err := catalog.SearchPacks(dir); err != nil {
			return err
		}
	}
	if err := catalog.SetActive(cfg.I18n.Language); err != nil {
		return err
	}

	_, doc, err := loadDocument(flags.Arg(0))
	if err != nil {
		return err
	}

	exporter := export.NewExporter(xlsx.Open, logger)
	rep, err := exporter.Export(context.Background(), doc, export.LabelsFrom(catalog), cfg.Export.OutputPath)
	if err != nil {
		return err
	}

	for _, sb := range rep.Shadowed {
		fmt.Fprintf(stderr, "warning: %s row %d: binding %d on %q (%s) shadowed by an earlier one\n",
			sb.Sheet, sb.Row+1, sb.Index, sb.Target, sb.Frame)
	}
	fmt.Fprintf(stdout, "wrote %s\n", cfg.Export.OutputPath)
	return nil
}

func runValidate(args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("validate", pflag.ContinueOnError)
	strict := flags.Bool("strict", false, "treat warnings as errors")
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 1 {
		return errors.New("validate needs exactly one program file")
	}

	_, doc, err := loadDocument(flags.Arg(0))
	if err != nil {
		return err
	}

	rep := validation.Validate(doc)
	for _, list := range [][]validation.Issue{rep.Errors, rep.Warnings} {
		for _, is := range list {
			line := fmt.Sprintf("%-7s %-14s %s", is.Severity, is.Code, is.Message)
			if is.Path != "" {
				line += " (" + is.Path + ")"
			}
			fmt.Fprintln(stdout, strings.TrimSpace(line))
		}
	}
	fmt.Fprintf(stdout, "%d error(s), %d warning(s)\n", len(rep.Errors), len(rep.Warnings))

	if !rep.Valid || (*strict && len(rep.Warnings) > 0) {
		return errFindings
	}
	return nil
}

func runConvert(args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("convert", pflag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if flags.NArg() != 2 {
		return errors.New("convert needs an input and an output file")
	}

	loader, err := definition.NewLoader()
	if err != nil {
		return err
	}
	p, err := loader.LoadFile(flags.Arg(0))
	if err != nil {
		return err
	}
	if err := definition.SaveFile(flags.Arg(1), p); err != nil {
		return err
	}
	fmt.Fprintf(stdout, "wrote %s\n", flags.Arg(1))
	return nil
}

func runHashPassword(args []string, stdout io.Writer) error {
	if len(args) != 1 {
		return errors.New("hash-password needs exactly one password")
	}
	hash, err := auth.HashPassword(args[0])
	if err != nil {
		return err
	}
	fmt.Fprintln(stdout, hash)
	return nil
}
