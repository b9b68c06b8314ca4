package usecase

import (
	"context"
	"fmt"
	"log"
)

// Transaction is a small saga for steps that cannot share a store
// transaction, such as saving a record and then sending mail about it. When a
// step fails, the compensations of the steps that already ran are executed in
// reverse order.
type Transaction struct {
	operations    []Operation
	compensations []Compensation
}

type Operation struct {
	Name string
	Fn   func(context.Context) error
}

type Compensation struct {
	Name string
	Fn   func(context.Context) error
}

func NewTransaction() *Transaction {
	return &Transaction{}
}

// AddStep registers an operation and the compensation that undoes it. A nil
// compensation means the step has nothing to undo.
func (t *Transaction) AddStep(name string, fn, undo func(context.Context) error) {
	t.operations = append(t.operations, Operation{name, fn})
	t.compensations = append(t.compensations, Compensation{name, undo})
}

func (t *Transaction) Execute(ctx context.Context) error {
	for i, op := range t.operations {
		if err := op.Fn(ctx); err != nil {
			t.rollback(ctx, i)
			return fmt.Errorf("operation '%s' failed: %w (rolled back %d operations)", op.Name, err, i)
		}
	}
	return nil
}

func (t *Transaction) rollback(ctx context.Context, failedAt int) {
	for i := failedAt - 1; i >= 0; i-- {
		comp := t.compensations[i]
		if comp.Fn == nil {
			continue
		}
		if err := comp.Fn(ctx); err != nil {
			log.Printf("⚠️ compensation '%s' failed: %v", comp.Name, err)
		}
	}
}
