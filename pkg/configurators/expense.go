package configurators

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/droidseed/droidseed/pkg/device"
	"github.com/droidseed/droidseed/pkg/engine"
	"github.com/droidseed/droidseed/pkg/sample"
	"github.com/droidseed/droidseed/pkg/spec"
)

// Expense category ids in the expense app.
const (
	expenseCategoryMin = 1
	expenseCategoryMax = 5
)

// Expense configures the expense tracker app's database.
type Expense struct {
	rng *sample.Provider
}

func (c *Expense) Domain() spec.Domain { return spec.DomainExpense }

func (c *Expense) EnsureReady(ctx context.Context, dev device.Controller) error {
	if err := ensureApp(ctx, dev, pkgExpense); err != nil {
		return err
	}
	// First launch creates accounting.db.
	return warmApp(ctx, dev, pkgExpense)
}

func (c *Expense) Run(ctx context.Context, dev device.Controller, ds spec.DomainSpec) *engine.DomainOutcome {
	s := ds.(*spec.ExpenseSpec)
	o := engine.NewOutcome(spec.DomainExpense)

	if s.ClearExpenses {
		if err := clearTable(ctx, dev, expenseDBPath, expenseTable); err != nil {
			o.RecordError("clear", -1, err)
		} else {
			o.Cleared = true
		}
	}

	for i, e := range s.AddExpenses {
		o.ItemsTotal++
		if err := c.insertExpense(ctx, dev, e); err != nil {
			o.RecordError("add_expense", i, err)
			continue
		}
		o.ItemsWritten++
	}

	if s.AddRandomExpenses {
		for i := 0; i < s.ExpenseCount(); i++ {
			o.ItemsTotal++
			if err := c.insertRandomExpense(ctx, dev); err != nil {
				o.RecordError("add_random_expense", -1, err)
				continue
			}
			o.ItemsWritten++
		}
	}

	o.Finalize()
	return o
}

func (c *Expense) insertExpense(ctx context.Context, dev device.Controller, e spec.ExpenseRecord) error {
	created := time.Now().UnixMilli()
	if e.CreatedDate != "" {
		t, err := parseTaskTime(e.CreatedDate)
		if err != nil {
			return fmt.Errorf("invalid created_date: %w", err)
		}
		created = t.UnixMilli()
	}
	modified := created
	if e.ModifiedDate != "" {
		t, err := parseTaskTime(e.ModifiedDate)
		if err != nil {
			return fmt.Errorf("invalid modified_date: %w", err)
		}
		modified = t.UnixMilli()
	}
	return c.insertExpenseRow(ctx, dev, e.Name, amountCents(e.Amount), categoryID(e.Category), e.Note, created, modified)
}

func (c *Expense) insertRandomExpense(ctx context.Context, dev device.Controller) error {
	created := time.Now().
		Add(-time.Duration(c.rng.IntBetween(0, 30*24)) * time.Hour).
		UnixMilli()
	return c.insertExpenseRow(ctx, dev,
		c.rng.ExpenseName(),
		int64(c.rng.ExpenseAmountCents()),
		c.rng.IntBetween(expenseCategoryMin, expenseCategoryMax),
		"", created, created)
}

func (c *Expense) insertExpenseRow(ctx context.Context, dev device.Controller, name string, amount int64, category int, note string, created, modified int64) error {
	return insertRow(ctx, dev, expenseDBPath, expenseTable,
		[]string{"expense_name", "amount", "category", "note", "created_date", "modified_date"},
		[]string{
			sqlString(name),
			sqlInt(amount),
			sqlInt(int64(category)),
			sqlString(note),
			sqlInt(created),
			sqlInt(modified),
		})
}

// amountCents converts a currency amount to the integer cent representation
// the app stores.
func amountCents(amount float64) int64 {
	return int64(math.Round(amount * 100))
}

// categoryID resolves a category string to the app's numeric id, defaulting
// to the first category.
func categoryID(category string) int {
	if category == "" {
		return expenseCategoryMin
	}
	if id, err := strconv.Atoi(category); err == nil && id >= expenseCategoryMin && id <= expenseCategoryMax {
		return id
	}
	return expenseCategoryMin
}
