package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/nerrad567/itemstore/internal/item"
)

// failedID is printed by add when the insert fails.
const failedID = item.UnsavedID

// itemFlags are the editable item fields shared by add and update.
type itemFlags struct {
	descr   string
	amount  float64
	active  bool
	picture string
}

func (f *itemFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.descr, "descr", "", "item description")
	cmd.Flags().Float64Var(&f.amount, "amount", 0, "item amount")
	cmd.Flags().BoolVar(&f.active, "active", false, "mark the item active")
	cmd.Flags().StringVar(&f.picture, "picture", "", "path of an image file to store with the item")
}

// apply copies the flags the user set onto it. Unset flags leave fields alone.
func (f *itemFlags) apply(cmd *cobra.Command, it *item.Item) error {
	flags := cmd.Flags()
	if flags.Changed("descr") {
		it.Description = f.descr
	}
	if flags.Changed("amount") {
		it.Amount = f.amount
	}
	if flags.Changed("active") {
		it.Active = f.active
	}
	if flags.Changed("picture") {
		data, err := readPicture(f.picture)
		if err != nil {
			return err
		}
		it.Picture = data
	}
	return nil
}

// readPicture loads an image file. An empty path clears the picture.
func readPicture(path string) ([]byte, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading picture: %w", err)
	}
	return data, nil
}

func newAddCommand() *cobra.Command {
	var f itemFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Insert an item and print its id",
		Long: `Insert an item and print the generated id.

If the insert fails the error is logged and -1 is printed.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			it := item.New("", 0, false, nil)
			if err := f.apply(cmd, it); err != nil {
				return err
			}

			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			id, err := a.repo.Add(cmd.Context(), it)
			if err != nil {
				a.log.Error("adding item failed", "error", err)
				id = failedID
			}
			fmt.Fprintln(cmd.OutOrStdout(), id)
			return nil
		},
	}

	f.register(cmd)
	return cmd
}

func newListCommand() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all items ordered by id",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			items, err := a.repo.GetAll(cmd.Context())
			if err != nil {
				return fmt.Errorf("listing items: %w", err)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(items)
			}
			return printItems(cmd.OutOrStdout(), items)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "print items as JSON")
	return cmd
}

// printTable renders rows under a header line to w.
func printTable(w io.Writer, header []string, rows [][]string) error {
	data := pterm.TableData{header}
	data = append(data, rows...)

	out, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return fmt.Errorf("rendering table: %w", err)
	}
	_, err = fmt.Fprintln(w, out)
	return err
}

// printItems writes items as a table, one row per item.
func printItems(w io.Writer, items []item.Item) error {
	rows := make([][]string, 0, len(items))
	for _, it := range items {
		rows = append(rows, []string{
			strconv.FormatInt(it.ID, 10),
			it.Description,
			strconv.FormatFloat(it.Amount, 'g', -1, 64),
			strconv.FormatBool(it.Active),
			fmt.Sprintf("%d bytes", len(it.Picture)),
		})
	}
	return printTable(w, []string{"ID", "DESCR", "AMOUNT", "ACTIVE", "PICTURE"}, rows)
}

func newUpdateCommand() *cobra.Command {
	var (
		id int64
		f  itemFlags
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Change fields of an item and print the affected row count",
		Long: `Change fields of an existing item. Only the flags given are changed;
every other field keeps its stored value.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			items, err := a.repo.GetAll(ctx)
			if err != nil {
				return fmt.Errorf("loading items: %w", err)
			}

			var target *item.Item
			for i := range items {
				if items[i].ID == id {
					target = &items[i]
					break
				}
			}
			if target == nil {
				return fmt.Errorf("item %d not found", id)
			}

			if err := f.apply(cmd, target); err != nil {
				return err
			}

			n, err := a.repo.Update(ctx, target)
			if err != nil {
				return fmt.Errorf("updating item %d: %w", id, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "id of the item to change")
	_ = cmd.MarkFlagRequired("id")
	f.register(cmd)
	return cmd
}

func newDeleteCommand() *cobra.Command {
	var id int64

	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete an item and print the affected row count",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openApp(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			n, err := a.repo.Delete(cmd.Context(), id)
			if err != nil {
				return fmt.Errorf("deleting item %d: %w", id, err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}

	cmd.Flags().Int64Var(&id, "id", 0, "id of the item to delete")
	_ = cmd.MarkFlagRequired("id")
	return cmd
}

func newMigrateCommand() *cobra.Command {
	var down, status bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Apply, roll back or show schema migrations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openDatabase(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			db := a.exec.DB()

			switch {
			case status:
				applied, pending, err := db.GetMigrationStatus(ctx)
				if err != nil {
					return fmt.Errorf("reading migration status: %w", err)
				}
				rows := make([][]string, 0, len(applied)+len(pending))
				for _, r := range applied {
					rows = append(rows, []string{r.Version, "", "applied " + r.AppliedAt.Format("2006-01-02 15:04:05")})
				}
				for _, m := range pending {
					rows = append(rows, []string{m.Version, m.Name, "pending"})
				}
				return printTable(cmd.OutOrStdout(), []string{"VERSION", "NAME", "STATE"}, rows)

			case down:
				if err := db.MigrateDown(ctx); err != nil {
					return fmt.Errorf("rolling back migration: %w", err)
				}
				a.log.Info("rolled back latest migration")
				return nil

			default:
				if err := db.Migrate(ctx); err != nil {
					return fmt.Errorf("running migrations: %w", err)
				}
				a.log.Info("migrations applied")
				return nil
			}
		},
	}

	cmd.Flags().BoolVar(&down, "down", false, "roll back the most recent migration")
	cmd.Flags().BoolVar(&status, "status", false, "show applied and pending migrations")
	cmd.MarkFlagsMutuallyExclusive("down", "status")
	return cmd
}

func newCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Verify the database and any enabled services are reachable",
		Long: `Report the state of the database connection and of every enabled
service. The schema is never migrated by this command.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := openDatabase(cmd)
			if err != nil {
				return err
			}
			defer a.close()

			ctx := cmd.Context()
			a.connectServices(ctx)

			report := a.health(ctx)
			if err := printTable(cmd.OutOrStdout(), []string{"COMPONENT", "STATUS", "DETAIL"}, report.rows); err != nil {
				return err
			}
			if report.err != nil {
				return fmt.Errorf("health check: %w", report.err)
			}
			return nil
		},
	}
}
