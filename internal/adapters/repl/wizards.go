package repl

import (
	"bufio"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"paper-trader/internal/app"
	"paper-trader/internal/core"
)

// handleRecordEvent runs an interactive session to append one ledger event
// directly, bypassing the pipeline. kind selects sale or stock order.
func handleRecordEvent(ctx context.Context, reader *bufio.Reader, svc app.ApplicationService, kind core.EventKind) {
	label := "sale"
	if kind == core.EventStockOrder {
		label = "stock order"
	}
	fmt.Printf("Recording a %s. Leave any field blank to cancel.\n", label)

	fmt.Print("Item name: ")
	name, _ := reader.ReadString('\n')
	name = strings.TrimSpace(name)
	if name == "" {
		fmt.Println("Cancelled.")
		return
	}

	fmt.Print("Units: ")
	unitsInput, _ := reader.ReadString('\n')
	unitsInput = strings.TrimSpace(unitsInput)
	if unitsInput == "" {
		fmt.Println("Cancelled.")
		return
	}
	units, err := strconv.ParseInt(unitsInput, 10, 64)
	if err != nil || units <= 0 {
		fmt.Printf("Invalid units: %s\n", unitsInput)
		return
	}

	fmt.Print("Total amount: ")
	amountInput, _ := reader.ReadString('\n')
	amountInput = strings.TrimSpace(amountInput)
	if amountInput == "" {
		fmt.Println("Cancelled.")
		return
	}
	amount, err := decimal.NewFromString(amountInput)
	if err != nil || amount.IsNegative() {
		fmt.Printf("Invalid amount: %s\n", amountInput)
		return
	}

	fmt.Print("Date (YYYY-MM-DD, leave blank for today): ")
	dateInput, _ := reader.ReadString('\n')
	dateInput = strings.TrimSpace(dateInput)
	date := core.DateOnly(time.Now())
	if dateInput != "" {
		if date, err = core.ParseDate(dateInput); err != nil {
			fmt.Printf("Invalid date: %s\n", dateInput)
			return
		}
	}

	req := app.RecordEventRequest{
		ItemName:    name,
		Units:       units,
		TotalAmount: amount,
		Date:        date,
	}

	var id int64
	if kind == core.EventSale {
		id, err = svc.RecordSale(ctx, req)
	} else {
		id, err = svc.RecordStockOrder(ctx, req)
	}
	if err != nil {
		fmt.Printf("[REPL] Error recording %s: %v\n", label, err)
		return
	}
	fmt.Printf("Recorded %s event %d: %d x %s for %s on %s.\n",
		label, id, units, name, amount.StringFixed(2), date.Format("2006-01-02"))
}
