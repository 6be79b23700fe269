package item

import (
	"context"
	"fmt"
	"time"

	"github.com/nerrad567/itemstore/internal/dbexec"
)

// Statements for the item table. Column order in insertItem and updateItem
// is the argument order.
const (
	insertItem = "INSERT INTO item (descr, amount, active, picture) VALUES (?, ?, ?, ?)"
	updateItem = "UPDATE item SET descr = ?, amount = ?, active = ?, picture = ? WHERE id = ?"
	deleteItem = "DELETE FROM item WHERE id = ?"
	selectAll  = "SELECT id, descr, amount, active, picture FROM item ORDER BY id"
)

// Logger defines the logging interface used by the Repository.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Publisher receives item change events.
type Publisher interface {
	PublishItemEvent(ctx context.Context, event Event) error
}

// Repository maps Items to and from the item table.
//
// Errors from the executor are returned unchanged, so every failure is a
// *dbexec.Error. The repository holds no locks; it is as safe for concurrent
// use as its Executor.
type Repository struct {
	exec      dbexec.Executor
	logger    Logger
	publisher Publisher
	now       func() time.Time
}

// NewRepository creates a repository that runs its statements on exec.
func NewRepository(exec dbexec.Executor) *Repository {
	return &Repository{
		exec:   exec,
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the repository.
func (r *Repository) SetLogger(logger Logger) {
	r.logger = logger
}

// SetPublisher sets where change events are sent. Nil disables events.
func (r *Repository) SetPublisher(publisher Publisher) {
	r.publisher = publisher
}

// Add inserts it and returns the generated id.
// it.ID is not modified; use Save to insert and record the id in one step.
func (r *Repository) Add(ctx context.Context, it *Item) (int64, error) {
	id, err := r.exec.Insert(ctx, insertItem, it.Description, it.Amount, it.Active, picture(it))
	if err != nil {
		return 0, err
	}

	r.logger.Debug("item added", "id", id)
	r.publish(ctx, ActionCreated, id)
	return id, nil
}

// Update writes every field of it to the row with it.ID and returns the
// number of affected rows. Zero means no row has that id.
func (r *Repository) Update(ctx context.Context, it *Item) (int64, error) {
	n, err := r.exec.Update(ctx, updateItem, it.Description, it.Amount, it.Active, picture(it), it.ID)
	if err != nil {
		return 0, err
	}

	r.logger.Debug("item updated", "id", it.ID, "affected", n)
	if n > 0 {
		r.publish(ctx, ActionUpdated, it.ID)
	}
	return n, nil
}

// Delete removes the row with id and returns the number of affected rows.
// Zero means no row has that id.
func (r *Repository) Delete(ctx context.Context, id int64) (int64, error) {
	n, err := r.exec.Delete(ctx, deleteItem, id)
	if err != nil {
		return 0, err
	}

	r.logger.Debug("item deleted", "id", id, "affected", n)
	if n > 0 {
		r.publish(ctx, ActionDeleted, id)
	}
	return n, nil
}

// GetAll returns every item ordered by id.
// A single row that cannot be decoded fails the whole call.
func (r *Repository) GetAll(ctx context.Context) ([]Item, error) {
	rows, err := r.exec.Select(ctx, selectAll)
	if err != nil {
		return nil, err
	}

	items := make([]Item, 0, len(rows))
	for i, row := range rows {
		it, err := fromRow(row)
		if err != nil {
			return nil, &dbexec.Error{Message: fmt.Sprintf("decoding item row %d", i), Err: err}
		}
		items = append(items, it)
	}
	return items, nil
}

// Save inserts an unsaved item and stores the generated id in it.ID, or
// updates an item that already has an id.
func (r *Repository) Save(ctx context.Context, it *Item) error {
	if it.IsPersisted() {
		_, err := r.Update(ctx, it)
		return err
	}

	id, err := r.Add(ctx, it)
	if err != nil {
		return err
	}
	it.ID = id
	return nil
}

// publish sends a change event. Failures are only logged.
func (r *Repository) publish(ctx context.Context, action Action, id int64) {
	if r.publisher == nil {
		return
	}

	event := Event{Action: action, ItemID: id, Timestamp: r.now().UTC()}
	if err := r.publisher.PublishItemEvent(ctx, event); err != nil {
		r.logger.Warn("publishing item event failed", "action", action, "id", id, "error", err)
	}
}

// picture returns the blob to bind for it. Nil is stored as an empty blob.
func picture(it *Item) []byte {
	if it.Picture == nil {
		return []byte{}
	}
	return it.Picture
}

// fromRow decodes one row of selectAll.
func fromRow(row dbexec.Row) (Item, error) {
	var it Item
	var err error

	if it.ID, err = row.Integer("id"); err != nil {
		return Item{}, err
	}
	if it.Description, err = row.Text("descr"); err != nil {
		return Item{}, err
	}
	if it.Amount, err = row.Real("amount"); err != nil {
		return Item{}, err
	}
	if it.Active, err = row.Bool("active"); err != nil {
		return Item{}, err
	}
	if it.Picture, err = row.Blob("picture"); err != nil {
		return Item{}, err
	}
	return it, nil
}
