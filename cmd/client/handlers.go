package main

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	jsoniter "github.com/json-iterator/go"

	"sheetstore/internal/api"
	"sheetstore/internal/config"
	"sheetstore/internal/index"
	"sheetstore/internal/query"
	"sheetstore/internal/rowsource"
	"sheetstore/internal/schema"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type cli struct {
	cfg    config.Config
	rl     *readline.Instance
	source rowsource.Source
	sqlite *rowsource.SQLite // non-nil when the open source is sqlite
	memory *rowsource.Memory // non-nil when the open source is a JSON dump
}

func newCLI(cfg config.Config, rl *readline.Instance) *cli {
	return &cli{cfg: cfg, rl: rl}
}

func (c *cli) close() {
	if c.sqlite != nil {
		c.sqlite.Close()
	}
}

func (c *cli) dispatch(input string) error {
	cmd, args := splitCommand(input)
	switch cmd {
	case "open":
		return c.handleOpen(args)
	case "tables":
		return c.handleTables()
	case "query":
		return c.handleQuery(args)
	case "append":
		return c.handleAppend(args)
	case "update":
		return c.handleUpdate(args)
	case "validate":
		return c.handleValidate(args)
	case "help":
		printHelp()
		return nil
	case "clear":
		clearScreen()
		return nil
	default:
		return fmt.Errorf("unknown command %q, try 'help'", cmd)
	}
}

func splitCommand(input string) (string, string) {
	parts := strings.SplitN(input, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], strings.TrimSpace(parts[1])
}

// handleOpen loads a data source: a .db file opens as SQLite, anything else
// is read as a JSON dump of {"table": [rows...]}.
func (c *cli) handleOpen(path string) error {
	if path == "" {
		return errors.New("usage: open <file.json|file.db>")
	}
	c.close()
	c.source, c.sqlite, c.memory = nil, nil, nil

	if filepath.Ext(path) == ".db" {
		src, err := rowsource.OpenSQLite(context.Background(), path)
		if err != nil {
			return err
		}
		c.sqlite = src
		c.source = src
		fmt.Println(colorOK(fmt.Sprintf("Opened sqlite database %s", path)))
		return nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	var dump map[string][]map[string]any
	if err := json.Unmarshal(raw, &dump); err != nil {
		return fmt.Errorf("parsing %s: expected {\"table\": [rows...]}: %w", path, err)
	}
	mem := rowsource.NewMemory()
	for table, rows := range dump {
		mem.Load(table, rows)
	}
	c.memory = mem
	c.source = mem
	fmt.Println(colorOK(fmt.Sprintf("Loaded %d table(s) from %s", len(dump), path)))
	return nil
}

func (c *cli) requireSource() error {
	if c.source == nil {
		return errors.New("no data source opened, use: open <file.json|file.db>")
	}
	return nil
}

func (c *cli) handleTables() error {
	if err := c.requireSource(); err != nil {
		return err
	}
	var names []string
	var err error
	if c.sqlite != nil {
		names, err = c.sqlite.Tables(context.Background())
		if err != nil {
			return err
		}
	} else {
		names = c.memory.Tables()
	}
	renderList("Table", names)
	return nil
}

// handleQuery runs `query <table> [param=value&...]` where the parameter
// string uses the API's URL format, e.g.
//
//	query scores where={"score":{"$gte":100}}&order=score:desc&limit=5&count=true
func (c *cli) handleQuery(args string) error {
	if err := c.requireSource(); err != nil {
		return err
	}
	table, params := splitCommand(args)
	if table == "" {
		return errors.New("usage: query <table> [where=...&order=...&limit=...&page=...&count=...&query=...]")
	}

	values, err := url.ParseQuery(params)
	if err != nil {
		return fmt.Errorf("parsing query parameters: %w", err)
	}
	opts, err := api.ParseQuery(values)
	if err != nil {
		return err
	}
	opts.Limits = c.cfg.Limits()
	if opts.Limit == nil {
		// Keep console output bounded when the user asks for no limit.
		opts.Limit = &c.cfg.DefaultLimit
	}

	rows, err := c.source.Fetch(context.Background(), table)
	if err != nil {
		return err
	}

	if c.cfg.IndexFields != "" {
		fields := strings.Split(c.cfg.IndexFields, ",")
		for i := range fields {
			fields[i] = strings.TrimSpace(fields[i])
		}
		opts.Index = index.Build(rows, fields...)
	}

	result, err := query.Execute(rows, opts)
	if err != nil {
		return err
	}
	renderResult(result)
	return nil
}

func (c *cli) handleAppend(args string) error {
	if err := c.requireSource(); err != nil {
		return err
	}
	table, doc := splitCommand(args)
	if table == "" || doc == "" {
		return errors.New("usage: append <table> <json object>")
	}
	var row map[string]any
	if err := json.Unmarshal([]byte(doc), &row); err != nil {
		return fmt.Errorf("parsing row: %w", err)
	}
	id, err := c.source.Append(context.Background(), table, row)
	if err != nil {
		return err
	}
	fmt.Println(colorOK(fmt.Sprintf("Appended row %s to %s", id, table)))
	return nil
}

func (c *cli) handleUpdate(args string) error {
	if err := c.requireSource(); err != nil {
		return err
	}
	table, rest := splitCommand(args)
	id, doc := splitCommand(rest)
	if table == "" || id == "" || doc == "" {
		return errors.New("usage: update <table> <id> <json object>")
	}
	var row map[string]any
	if err := json.Unmarshal([]byte(doc), &row); err != nil {
		return fmt.Errorf("parsing row: %w", err)
	}
	if err := c.source.Update(context.Background(), table, id, row); err != nil {
		return err
	}
	fmt.Println(colorOK(fmt.Sprintf("Updated row %s in %s", id, table)))
	return nil
}

// handleValidate checks every row of a table against a column schema file:
// a JSON object mapping column name to descriptor string.
func (c *cli) handleValidate(args string) error {
	if err := c.requireSource(); err != nil {
		return err
	}
	table, schemaPath := splitCommand(args)
	if table == "" || schemaPath == "" {
		return errors.New("usage: validate <table> <schema.json>")
	}

	raw, err := os.ReadFile(schemaPath)
	if err != nil {
		return err
	}
	var specs map[string]string
	if err := json.Unmarshal(raw, &specs); err != nil {
		return fmt.Errorf("parsing %s: expected {\"column\": \"descriptor\"}: %w", schemaPath, err)
	}
	cols := make([]schema.Column, 0, len(specs))
	for name, spec := range specs {
		cols = append(cols, schema.Column{Name: name, Spec: spec})
	}

	rows, err := c.source.Fetch(context.Background(), table)
	if err != nil {
		return err
	}

	violations := 0
	for i, row := range rows {
		if err := schema.ValidateRow(row, cols); err != nil {
			violations++
			fmt.Println(colorErr(fmt.Sprintf("row %d: %v", i, err)))
		}
	}
	if violations == 0 {
		fmt.Println(colorOK(fmt.Sprintf("All %d rows conform to the schema", len(rows))))
	} else {
		fmt.Println(colorErr(fmt.Sprintf("%d of %d rows violate the schema", violations, len(rows))))
	}
	return nil
}

func printHelp() {
	fmt.Println(colorInfo("Commands:"))
	fmt.Println("  open <file.json|file.db>          load a data source")
	fmt.Println("  tables                            list tables")
	fmt.Println("  query <table> [params]           run a query, params in URL form:")
	fmt.Println(`      where={"score":{"$gte":100}}&order=score:desc&limit=5&page=1&count=true&query=alice`)
	fmt.Println("  append <table> <json>             append a row")
	fmt.Println("  update <table> <id> <json>        replace a row")
	fmt.Println("  validate <table> <schema.json>    check rows against column descriptors")
	fmt.Println("  clear | help | exit")
}
