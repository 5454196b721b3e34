package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"

	"meshalias/internal/config"
	"meshalias/internal/logging"
	"meshalias/internal/pipeline"
	"meshalias/internal/source"
	"meshalias/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	log := logging.New(cfg.LogLevel)
	svc := pipeline.NewService(cfg, log)

	cmd := os.Args[1]
	switch cmd {
	case "mesh:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", cfg.XMLPath, "destination xml path")
		_ = fs.Parse(os.Args[2:])
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()
		n, err := source.NewClient(cfg, log).Download(ctx, *out)
		must(err)
		fmt.Printf("fetch done bytes=%d output=%s\n", n, *out)
	case "mesh:condense":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", cfg.XMLPath, "descriptor xml path")
		output := fs.String("output", cfg.JSONPath, "condensed json path")
		_ = fs.Parse(os.Args[2:])
		res, err := svc.Condense(*input, *output)
		must(err)
		fmt.Printf("condense done descriptors=%d conditions=%d aliases=%d output=%s\n", res.Stats.Seen, res.Conditions, res.Aliases, *output)
	case "mesh:expand":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", cfg.JSONPath, "condensed json path")
		output := fs.String("output", cfg.CSVPath, "alias csv path")
		_ = fs.Parse(os.Args[2:])
		rows, err := svc.Expand(*input, *output)
		must(err)
		fmt.Printf("expand done rows=%d output=%s\n", rows, *output)
	case "run":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", cfg.XMLPath, "descriptor xml path")
		jsonPath := fs.String("json", cfg.JSONPath, "condensed json path")
		csvPath := fs.String("csv", cfg.CSVPath, "alias csv path")
		_ = fs.Parse(os.Args[2:])
		res, err := svc.Run(*input, *jsonPath, *csvPath)
		must(err)
		fmt.Printf("run done conditions=%d rows=%d json=%s csv=%s\n", res.Condense.Conditions, res.Rows, *jsonPath, *csvPath)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", cfg.JSONPath, "condensed json path")
		out := fs.String("out", cfg.XLSXPath, "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		rows, err := svc.ExportXLSX(*input, *out)
		must(err)
		fmt.Printf("exported %d rows to %s\n", rows, *out)
	case "store:load":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		input := fs.String("input", cfg.JSONPath, "condensed json path")
		_ = fs.Parse(os.Args[2:])
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
		res, err := svc.Load(db, *input)
		must(err)
		fmt.Printf("load done conditions=%d aliases=%d db=%s\n", res.Conditions, res.Aliases, cfg.DBPath)
	case "lookup":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		alias := fs.String("alias", "", "alias to resolve")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*alias) == "" {
			must(fmt.Errorf("--alias is required"))
		}
		db, err := storage.Open(cfg.DBPath)
		must(err)
		defer db.Close()
		found, err := db.LookupAlias(*alias)
		must(err)
		if len(found) == 0 {
			must(fmt.Errorf("no term for alias %q", *alias))
		}
		for _, r := range found {
			fmt.Printf("%s\t%s\t%s\n", r.Alias, r.Term, r.Code)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("usage: meshalias <command>")
	fmt.Println("commands:")
	fmt.Println("  mesh:fetch [--out=rawData.xml]")
	fmt.Println("  mesh:condense [--input=rawData.xml] [--output=MeSHConditions.json]")
	fmt.Println("  mesh:expand [--input=MeSHConditions.json] [--output=aliasToTerm.csv]")
	fmt.Println("  run [--input=rawData.xml] [--json=MeSHConditions.json] [--csv=aliasToTerm.csv]")
	fmt.Println("  export:xlsx [--input=MeSHConditions.json] [--out=./out/aliasToTerm.xlsx]")
	fmt.Println("  store:load [--input=MeSHConditions.json]")
	fmt.Println("  lookup --alias=grippe")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
