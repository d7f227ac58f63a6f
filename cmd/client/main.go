// Command client is an interactive console for querying row stores: open a
// JSON dump or a SQLite database, then run WHERE/order/limit/page queries
// against its tables.
package main

import (
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/chzyer/readline"

	"sheetstore/internal/config"
)

var completer = readline.NewPrefixCompleter(
	readline.PcItem("open"),
	readline.PcItem("tables"),
	readline.PcItem("query"),
	readline.PcItem("append"),
	readline.PcItem("update"),
	readline.PcItem("validate"),
	readline.PcItem("help"),
	readline.PcItem("clear"),
	readline.PcItem("exit"),
)

func main() {
	log.SetFlags(0)

	cfg := config.Load()

	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "sheetstore> ",
		HistoryFile:     "/tmp/sheetstore_history.tmp",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		VimMode:         false,
	})
	if err != nil {
		log.Fatalf("Failed to initialize readline: %v", err)
	}
	defer rl.Close()

	c := newCLI(cfg, rl)

	if cfg.DataPath != "" {
		if err := c.handleOpen(cfg.DataPath); err != nil {
			fmt.Println(colorErr(fmt.Sprintf("Could not open %s: %v", cfg.DataPath, err)))
		}
	} else {
		fmt.Println("No data source opened. Use: open <file.json|file.db>")
	}

	for {
		line, err := rl.Readline()
		if err == readline.ErrInterrupt {
			continue
		}
		if err == io.EOF {
			break
		}
		input := strings.TrimSpace(line)
		if input == "" {
			continue
		}
		if input == "exit" {
			break
		}
		if err := c.dispatch(input); err != nil {
			fmt.Println(colorErr(err.Error()))
		}
	}

	c.close()
}
