package cli

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"paper-trader/internal/app"
	"paper-trader/internal/core"
)

// Run executes a one-shot CLI command and exits.
// args is os.Args[1:] — the first element is the subcommand name.
func Run(ctx context.Context, svc app.ApplicationService, args []string) {
	switch args[0] {
	case "process", "proc", "p":
		if len(args) < 2 {
			log.Fatal("Usage: app process \"<request text>\" [YYYY-MM-DD]")
		}
		result, err := svc.ProcessRequest(ctx, args[1], dateArg(args, 2))
		if err != nil {
			log.Fatalf("Request failed: %v", err)
		}
		printResult(result)

	case "order", "o":
		if len(args) < 3 {
			log.Fatal("Usage: app order <item> <quantity> [YYYY-MM-DD]")
		}
		qty, err := strconv.ParseInt(args[2], 10, 64)
		if err != nil || qty <= 0 {
			log.Fatalf("Invalid quantity: %s", args[2])
		}
		line := core.RequestLine{ItemName: args[1], Quantity: qty}
		text := fmt.Sprintf("Order: %d x %s", qty, args[1])
		result, err := svc.ProcessOrder(ctx, text, []core.RequestLine{line}, dateArg(args, 3))
		if err != nil {
			log.Fatalf("Order failed: %v", err)
		}
		printResult(result)

	case "report", "rep", "r":
		report, err := svc.GetFinancialReport(ctx, dateArg(args, 1))
		if err != nil {
			log.Fatalf("Failed to build report: %v", err)
		}
		printReport(report)

	case "stock", "st":
		result, err := svc.GetStock(ctx, dateArg(args, 1))
		if err != nil {
			log.Fatalf("Failed to get stock: %v", err)
		}
		printStock(result)

	case "item", "i":
		if len(args) < 2 {
			log.Fatal("Usage: app item \"<item name>\" [YYYY-MM-DD]")
		}
		status, err := svc.GetItemStatus(ctx, args[1], dateArg(args, 2))
		if err != nil {
			log.Fatalf("Failed to get item status: %v", err)
		}
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		enc.Encode(status)

	case "sale", "restock":
		if len(args) < 4 {
			log.Fatalf("Usage: app %s <item> <units> <total-amount> [YYYY-MM-DD]", args[0])
		}
		req, err := eventRequest(args)
		if err != nil {
			log.Fatal(err)
		}
		var id int64
		if args[0] == "sale" {
			id, err = svc.RecordSale(ctx, req)
		} else {
			id, err = svc.RecordStockOrder(ctx, req)
		}
		if err != nil {
			log.Fatalf("Failed to record %s: %v", args[0], err)
		}
		fmt.Printf("Recorded %s event %d.\n", args[0], id)

	case "search", "s":
		if len(args) < 2 {
			log.Fatal("Usage: app search <term> [term ...]")
		}
		records, err := svc.SearchQuoteHistory(ctx, args[1:], 5)
		if err != nil {
			log.Fatalf("Search failed: %v", err)
		}
		printQuoteHistory(records)

	case "seed":
		if err := svc.SeedDemo(ctx, dateArg(args, 1)); err != nil {
			log.Fatalf("Seed failed: %v", err)
		}
		fmt.Println("Demo data seeded.")

	case "simulate", "sim":
		if len(args) < 2 {
			log.Fatal("Usage: app simulate <requests.csv>")
		}
		if err := simulate(ctx, svc, args[1]); err != nil {
			log.Fatalf("Simulation failed: %v", err)
		}

	default:
		log.Fatalf("Unknown command: %s\nAvailable: process, order, report, stock, item, sale, restock, search, seed, simulate", args[0])
	}
}

// dateArg reads an optional YYYY-MM-DD positional argument, defaulting to
// today. A malformed date is a usage error, never silently replaced.
func dateArg(args []string, idx int) time.Time {
	if len(args) <= idx {
		return core.DateOnly(time.Now())
	}
	t, err := core.ParseDate(args[idx])
	if err != nil {
		log.Fatalf("Invalid date %q: expected YYYY-MM-DD", args[idx])
	}
	return t
}

func eventRequest(args []string) (app.RecordEventRequest, error) {
	units, err := strconv.ParseInt(args[2], 10, 64)
	if err != nil || units <= 0 {
		return app.RecordEventRequest{}, fmt.Errorf("invalid units: %s", args[2])
	}
	amount, err := decimal.NewFromString(args[3])
	if err != nil {
		return app.RecordEventRequest{}, fmt.Errorf("invalid amount: %s", args[3])
	}
	date := core.DateOnly(time.Now())
	if len(args) > 4 {
		if date, err = core.ParseDate(args[4]); err != nil {
			return app.RecordEventRequest{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", args[4])
		}
	}
	return app.RecordEventRequest{
		ItemName:    args[1],
		Units:       units,
		TotalAmount: amount,
		Date:        date,
	}, nil
}

// simulate replays a CSV of customer requests through the pipeline, one row
// per request. Columns: request_date,request_text. A header row is detected
// and skipped; a failed request is reported and the replay continues.
func simulate(ctx context.Context, svc app.ApplicationService, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2

	var processed, failed int
	for row := 1; ; row++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("row %d: %w", row, err)
		}
		if row == 1 && strings.EqualFold(record[0], "request_date") {
			continue
		}

		date, err := core.ParseDate(record[0])
		if err != nil {
			return fmt.Errorf("row %d: invalid date %q", row, record[0])
		}

		result, err := svc.ProcessRequest(ctx, record[1], date)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "row %d: request failed: %v\n", row, err)
			continue
		}
		processed++
		fmt.Printf("[%s] total %s — %d line(s) sold\n",
			date.Format("2006-01-02"), result.TotalCharged.StringFixed(0), len(result.Sales))
	}
	fmt.Printf("\nSimulation complete: %d processed, %d failed.\n", processed, failed)

	report, err := svc.GetFinancialReport(ctx, core.DateOnly(time.Now()))
	if err != nil {
		return err
	}
	printReport(report)
	return nil
}

func printResult(result *core.Result) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  %-58s\n", "ORDER RESULT")
	fmt.Printf("  Run      : %s\n", result.RunID)
	fmt.Printf("  Fulfilled: %t\n", result.Fulfilled())
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  %-30s %8s %8s %10s\n", "ITEM", "ASKED", "SOLD", "AMOUNT")
	fmt.Println(strings.Repeat("-", 62))
	for _, s := range result.Sales {
		fmt.Printf("  %-30s %8d %8d %10s\n",
			s.ItemName, s.RequestedUnits, s.CommittedUnits, s.Amount.StringFixed(2))
	}
	for _, u := range result.Quote.Unfulfillable {
		fmt.Printf("  %-30s %8d %8s %10s\n", u.ItemName, u.RequestedUnits, "-", string(u.Reason))
	}
	fmt.Println(strings.Repeat("-", 62))
	fmt.Printf("  %-48s %12s\n", "TOTAL CHARGED", result.TotalCharged.StringFixed(0))
	fmt.Println(strings.Repeat("=", 62))
	fmt.Println()
	fmt.Println(result.Response)
}

func printReport(report *core.FinancialReport) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  %-58s\n", "FINANCIAL REPORT")
	fmt.Printf("  As of    : %s\n", report.AsOf.Format("2006-01-02"))
	fmt.Println(strings.Repeat("=", 62))
	fmt.Printf("  %-30s %28s\n", "Cash balance", report.CashBalance.StringFixed(2))
	fmt.Printf("  %-30s %28s\n", "Inventory value", report.InventoryValue.StringFixed(2))
	fmt.Printf("  %-30s %28s\n", "Total assets", report.TotalAssets.StringFixed(2))
	fmt.Println(strings.Repeat("-", 62))
	fmt.Printf("  %-34s %8s %16s\n", "INVENTORY", "STOCK", "VALUE")
	for _, item := range report.Inventory {
		fmt.Printf("  %-34s %8d %16s\n", item.ItemName, item.Stock, item.Value.StringFixed(2))
	}
	if len(report.TopSellers) > 0 {
		fmt.Println(strings.Repeat("-", 62))
		fmt.Printf("  %-34s %8s %16s\n", "TOP SELLERS", "UNITS", "REVENUE")
		for _, s := range report.TopSellers {
			fmt.Printf("  %-34s %8d %16s\n", s.ItemName, s.TotalUnits, s.TotalRevenue.StringFixed(2))
		}
	}
	fmt.Println(strings.Repeat("=", 62))
}

func printStock(result *app.StockResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("  STOCK ON HAND — %s\n", result.AsOf.Format("2006-01-02"))
	fmt.Println(strings.Repeat("=", 50))
	fmt.Printf("  %-36s %10s\n", "ITEM", "UNITS")
	fmt.Println(strings.Repeat("-", 50))
	for _, item := range result.Items {
		fmt.Printf("  %-36s %10d\n", item.ItemName, item.Units)
	}
	fmt.Println(strings.Repeat("=", 50))
}

func printQuoteHistory(records []core.QuoteRecord) {
	if len(records) == 0 {
		fmt.Println("No matching quotes.")
		return
	}
	for _, rec := range records {
		fmt.Println(strings.Repeat("-", 62))
		fmt.Printf("  #%d  %s  %s  total %s\n",
			rec.RequestID, rec.OrderDate.Format("2006-01-02"), rec.EventType, rec.TotalAmount.StringFixed(2))
		fmt.Printf("  Request    : %s\n", rec.Request)
		fmt.Printf("  Explanation: %s\n", rec.Explanation)
	}
	fmt.Println(strings.Repeat("-", 62))
}
