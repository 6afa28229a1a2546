package repl

import (
	"fmt"
	"strings"

	"paper-trader/internal/app"
	"paper-trader/internal/core"
)

func printResult(result *core.Result) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("  ORDER RESULT — run %s\n", result.RunID)
	fmt.Println(strings.Repeat("=", 70))
	if len(result.Sales) == 0 && len(result.Quote.Unfulfillable) == 0 {
		fmt.Println("  No line items recognized in this request.")
	}
	if len(result.Sales) > 0 {
		fmt.Printf("  %-30s %8s %8s %12s\n", "ITEM", "ASKED", "SOLD", "AMOUNT")
		fmt.Println(strings.Repeat("-", 70))
		for _, s := range result.Sales {
			note := ""
			if s.Downgraded {
				note = " *"
			}
			fmt.Printf("  %-30s %8d %8d %12s%s\n",
				s.ItemName, s.RequestedUnits, s.CommittedUnits, s.Amount.StringFixed(2), note)
		}
	}
	for _, u := range result.Quote.Unfulfillable {
		fmt.Printf("  %-30s %8d %8s %12s\n", u.ItemName, u.RequestedUnits, "-", string(u.Reason))
	}
	fmt.Println(strings.Repeat("-", 70))
	fmt.Printf("  %-48s %19s\n", "TOTAL CHARGED", result.TotalCharged.StringFixed(0))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println()
	fmt.Println(result.Response)
}

func printReport(report *core.FinancialReport) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("  FINANCIAL REPORT — as of %s\n", report.AsOf.Format("2006-01-02"))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("  %-40s %26s\n", "Cash balance", report.CashBalance.StringFixed(2))
	fmt.Printf("  %-40s %26s\n", "Inventory value", report.InventoryValue.StringFixed(2))
	fmt.Printf("  %-40s %26s\n", "Total assets", report.TotalAssets.StringFixed(2))
	if len(report.Inventory) > 0 {
		fmt.Println(strings.Repeat("-", 70))
		fmt.Printf("  %-36s %10s %18s\n", "INVENTORY", "STOCK", "VALUE")
		fmt.Println(strings.Repeat("-", 70))
		for _, item := range report.Inventory {
			fmt.Printf("  %-36s %10d %18s\n", item.ItemName, item.Stock, item.Value.StringFixed(2))
		}
	}
	if len(report.TopSellers) > 0 {
		fmt.Println(strings.Repeat("-", 70))
		fmt.Printf("  %-36s %10s %18s\n", "TOP SELLERS", "UNITS", "REVENUE")
		fmt.Println(strings.Repeat("-", 70))
		for _, s := range report.TopSellers {
			fmt.Printf("  %-36s %10d %18s\n", s.ItemName, s.TotalUnits, s.TotalRevenue.StringFixed(2))
		}
	}
	fmt.Println(strings.Repeat("=", 70))
}

func printStock(result *app.StockResult) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 52))
	fmt.Printf("  STOCK ON HAND — %s\n", result.AsOf.Format("2006-01-02"))
	fmt.Println(strings.Repeat("=", 52))
	if len(result.Items) == 0 {
		fmt.Println("  Nothing in stock.")
		fmt.Println(strings.Repeat("=", 52))
		return
	}
	fmt.Printf("  %-38s %10s\n", "ITEM", "UNITS")
	fmt.Println(strings.Repeat("-", 52))
	for _, item := range result.Items {
		fmt.Printf("  %-38s %10d\n", item.ItemName, item.Units)
	}
	fmt.Println(strings.Repeat("=", 52))
}

func printItemStatus(status *core.ItemStatus) {
	fmt.Printf("\nITEM:     %s\n", status.ItemName)
	fmt.Printf("STOCK:    %d\n", status.Stock)
	if !status.Managed {
		fmt.Println("POLICY:   not managed (no minimum stock level)")
		return
	}
	fmt.Printf("MINIMUM:  %d\n", status.MinStock)
	if status.NeedsReorder {
		fmt.Println("STATUS:   BELOW MINIMUM — reorder needed")
	} else {
		fmt.Println("STATUS:   ok")
	}
}

func printQuoteHistory(records []core.QuoteRecord) {
	if len(records) == 0 {
		fmt.Println("No matching quotes.")
		return
	}
	for _, rec := range records {
		fmt.Println(strings.Repeat("-", 70))
		fmt.Printf("  #%d  %s  %s  total %s\n",
			rec.RequestID, rec.OrderDate.Format("2006-01-02"), rec.EventType, rec.TotalAmount.StringFixed(2))
		fmt.Printf("  Request    : %s\n", rec.Request)
		fmt.Printf("  Explanation: %s\n", rec.Explanation)
	}
	fmt.Println(strings.Repeat("-", 70))
}

func printCatalog(catalog *core.Catalog) {
	fmt.Println()
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("  CATALOG — %d items\n", catalog.Len())
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("  %-40s %-16s %10s\n", "ITEM", "CATEGORY", "PRICE")
	fmt.Println(strings.Repeat("-", 70))
	for _, item := range catalog.Items() {
		fmt.Printf("  %-40s %-16s %10s\n", item.Name, string(item.Category), item.UnitPrice.StringFixed(2))
	}
	fmt.Println(strings.Repeat("=", 70))
}

func printHelp() {
	fmt.Println()
	fmt.Println("PAPER TRADER — COMMANDS")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Println()
	fmt.Println("  ORDERS")
	fmt.Println("  /order <qty> <item...> [date]    Quote and fulfill one line, no parser")
	fmt.Println("  /search <term> [term ...]        Search quote history")
	fmt.Println()
	fmt.Println("  LEDGER")
	fmt.Println("  /sale                            Record a sale event (interactive)")
	fmt.Println("  /restock                         Record a stock order event (interactive)")
	fmt.Println("  /report [date]                   Financial report as of a date")
	fmt.Println()
	fmt.Println("  INVENTORY")
	fmt.Println("  /stock [date]                    All items with positive stock")
	fmt.Println("  /item <name...> [date]           Stock level and reorder status")
	fmt.Println("  /catalog                         Show the product catalog")
	fmt.Println()
	fmt.Println("  SESSION")
	fmt.Println("  /seed [date]                     Seed the demo dataset")
	fmt.Println("  /help                            Show this help")
	fmt.Println("  /exit                            Exit")
	fmt.Println()
	fmt.Println("  PIPELINE MODE  (no / prefix)")
	fmt.Println("  Type a customer request in natural language.")
	fmt.Println("  Example: \"I need 500 sheets of A4 paper by next Friday\"")
	fmt.Println(strings.Repeat("=", 70))
}
