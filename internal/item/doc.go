// Package item persists Item entities through a dbexec.Executor.
//
// The Repository owns the SQL for the item table:
//
//	item(id, descr, amount, active, picture)
//
// Every value is bound as a statement argument; no field is ever formatted
// into SQL text.
//
// Usage:
//
//	repo := item.NewRepository(exec)
//	repo.SetLogger(log)
//
//	it := item.New("widget", 9.99, true, nil)
//	if err := repo.Save(ctx, it); err != nil {
//	    return err
//	}
//	// it.ID now holds the generated id
//
// Change notifications:
//
// When a Publisher is set, successful writes emit an Event (created, updated
// or deleted). Publishing is best effort: failures are logged and never change
// the result of the operation.
package item
