package repl

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"paper-trader/internal/app"
	"paper-trader/internal/core"
)

// Run starts the interactive REPL loop.
// It reads commands from reader, dispatches slash commands deterministically,
// and routes natural language input through the fulfillment pipeline.
func Run(ctx context.Context, svc app.ApplicationService, reader *bufio.Reader) {
	fmt.Println("Paper Trader")
	fmt.Println("Describe an order in natural language to request a quote, or use /help for commands.")
	fmt.Println(strings.Repeat("-", 70))

	errExit := fmt.Errorf("exit")

	dispatchSlash := func(input string) error {
		tokens := strings.Fields(strings.TrimPrefix(input, "/"))
		if len(tokens) == 0 {
			return nil
		}
		cmd := strings.ToLower(tokens[0])
		args := tokens[1:]

		switch cmd {
		case "report", "rep":
			asOf, err := optionalDate(args, 0)
			if err != nil {
				return err
			}
			report, err := svc.GetFinancialReport(ctx, asOf)
			if err != nil {
				return err
			}
			printReport(report)

		case "stock":
			asOf, err := optionalDate(args, 0)
			if err != nil {
				return err
			}
			result, err := svc.GetStock(ctx, asOf)
			if err != nil {
				return err
			}
			printStock(result)

		case "item":
			if len(args) < 1 {
				fmt.Println("Usage: /item <item name words...> [YYYY-MM-DD]")
				return nil
			}
			name, asOf, err := nameAndDate(args)
			if err != nil {
				return err
			}
			status, err := svc.GetItemStatus(ctx, name, asOf)
			if err != nil {
				return err
			}
			printItemStatus(status)

		case "order":
			if len(args) < 2 {
				fmt.Println("Usage: /order <quantity> <item name words...> [YYYY-MM-DD]")
				return nil
			}
			qty, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil || qty <= 0 {
				fmt.Printf("Invalid quantity: %s\n", args[0])
				return nil
			}
			name, asOf, err := nameAndDate(args[1:])
			if err != nil {
				return err
			}
			line := core.RequestLine{ItemName: name, Quantity: qty}
			text := fmt.Sprintf("Order: %d x %s", qty, name)
			result, err := svc.ProcessOrder(ctx, text, []core.RequestLine{line}, asOf)
			if err != nil {
				return err
			}
			printResult(result)

		case "sale":
			handleRecordEvent(ctx, reader, svc, core.EventSale)

		case "restock":
			handleRecordEvent(ctx, reader, svc, core.EventStockOrder)

		case "search":
			if len(args) < 1 {
				fmt.Println("Usage: /search <term> [term ...]")
				return nil
			}
			records, err := svc.SearchQuoteHistory(ctx, args, 5)
			if err != nil {
				return err
			}
			printQuoteHistory(records)

		case "catalog":
			printCatalog(svc.Catalog())

		case "seed":
			asOf, err := optionalDate(args, 0)
			if err != nil {
				return err
			}
			if err := svc.SeedDemo(ctx, asOf); err != nil {
				return err
			}
			fmt.Println("Demo data seeded.")

		case "help", "h":
			printHelp()

		case "exit", "quit", "e", "q":
			return errExit

		default:
			fmt.Printf("Unknown command: /%s  (type /help for all commands)\n", cmd)
		}
		return nil
	}

	for {
		fmt.Print("\n> ")
		input, _ := reader.ReadString('\n')
		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		// Slash prefix → deterministic command dispatcher, no AI invoked.
		if strings.HasPrefix(input, "/") {
			if err := dispatchSlash(input); err != nil {
				if err == errExit {
					fmt.Println("Goodbye!")
					break
				}
				fmt.Printf("Error: %v\n", err)
			}
			continue
		}

		// No slash prefix → run the full pipeline on the raw text.
		fmt.Println("[Pipeline] Processing...")
		result, err := svc.ProcessRequest(ctx, input, core.DateOnly(time.Now()))
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			continue
		}
		printResult(result)
	}
}

// optionalDate reads args[idx] as a YYYY-MM-DD date, defaulting to today when
// absent.
func optionalDate(args []string, idx int) (time.Time, error) {
	if len(args) <= idx {
		return core.DateOnly(time.Now()), nil
	}
	t, err := core.ParseDate(args[idx])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", args[idx])
	}
	return t, nil
}

// nameAndDate joins the tokens of a multi-word item name, treating a trailing
// token that parses as a date as the as-of date.
func nameAndDate(args []string) (string, time.Time, error) {
	asOf := core.DateOnly(time.Now())
	if len(args) > 1 {
		if t, err := core.ParseDate(args[len(args)-1]); err == nil {
			return strings.Join(args[:len(args)-1], " "), t, nil
		}
	}
	return strings.Join(args, " "), asOf, nil
}
