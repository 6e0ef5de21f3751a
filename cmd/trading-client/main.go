// Command trading-client is an interactive console for a running
// trading-server. It reads one instruction per line, validates it locally,
// and prints the server's reply.
//
// Supported instructions:
//
//	data 2021-06-01-10:30
//	add GME
//	delete GME
//	report
//	quit
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/joho/godotenv"

	"github.com/L-Dinosaur/trading-server/pkg/tsclient"
)

const timestampLayout = "2006-01-02-15:04"

// Styles.
var (
	promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	headerStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	tickerStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	longStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
	shortStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	errStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	okStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("10"))
)

func main() {
	addr := flag.String("s", "127.0.0.1:8080", "server address host:port")
	timeout := flag.Duration("timeout", 30*time.Second, "per-request timeout")
	flag.Parse()

	_ = godotenv.Load()
	if v := os.Getenv("TRADING_SERVER_ADDR"); v != "" && *addr == "127.0.0.1:8080" {
		*addr = v
	}

	client := tsclient.NewClient(*addr, tsclient.WithTimeout(*timeout))
	fmt.Printf("connected console for %s; instructions: data <yyyy-mm-dd-HH:MM> | add <symbol> | delete <symbol> | report | quit\n", *addr)

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print(promptStyle.Render("> "))
		if !scanner.Scan() {
			fmt.Println()
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "quit" || line == "exit" {
			return
		}
		if err := dispatch(client, line); err != nil {
			fmt.Println(errStyle.Render(err.Error()))
		}
	}
}

func dispatch(client *tsclient.Client, line string) error {
	fields := strings.Fields(line)
	inst, args := fields[0], fields[1:]
	ctx := context.Background()

	switch inst {
	case "data":
		if len(args) != 1 {
			return fmt.Errorf("usage: data <yyyy-mm-dd-HH:MM>")
		}
		ts, err := time.ParseInLocation(timestampLayout, args[0], time.Local)
		if err != nil {
			return fmt.Errorf("bad timestamp %q, want yyyy-mm-dd-HH:MM", args[0])
		}
		quotes, err := client.Data(ctx, ts)
		if err != nil {
			return err
		}
		printQuotes(quotes)
		return nil

	case "add":
		if len(args) != 1 {
			return fmt.Errorf("usage: add <symbol>")
		}
		msg, err := client.Add(ctx, strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		fmt.Println(okStyle.Render(msg))
		return nil

	case "delete":
		if len(args) != 1 {
			return fmt.Errorf("usage: delete <symbol>")
		}
		msg, err := client.Delete(ctx, strings.ToUpper(args[0]))
		if err != nil {
			return err
		}
		fmt.Println(okStyle.Render(msg))
		return nil

	case "report":
		if len(args) != 0 {
			return fmt.Errorf("usage: report")
		}
		if err := client.Report(ctx); err != nil {
			return err
		}
		fmt.Println(okStyle.Render("Report refreshed."))
		return nil
	}
	return fmt.Errorf("unknown instruction %q", inst)
}

func printQuotes(quotes []tsclient.Quote) {
	fmt.Println(headerStyle.Render(fmt.Sprintf("%-8s %12s %8s", "TICKER", "PRICE", "SIGNAL")))
	for _, q := range quotes {
		sigStyle := headerStyle
		switch {
		case q.Signal > 0:
			sigStyle = longStyle
		case q.Signal < 0:
			sigStyle = shortStyle
		}
		fmt.Printf("%s %12.2f %s\n",
			tickerStyle.Render(fmt.Sprintf("%-8s", q.Ticker)),
			q.Price,
			sigStyle.Render(fmt.Sprintf("%8d", q.Signal)))
	}
}
