package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/recordd/recordd/pkg/cli/internal/output"
	"github.com/recordd/recordd/pkg/cli/internal/parse"
)

// recordFlags are the field flags shared by add and update.
type recordFlags struct {
	content   string
	important bool
	name      string
	number    string
	fields    []string
}

func (f *recordFlags) addNoteFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.content, "content", "", "Note content")
	cmd.Flags().BoolVar(&f.important, "important", false, "Mark the note as important")
}

func (f *recordFlags) addPersonFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "Person name")
	cmd.Flags().StringVar(&f.number, "number", "", "Person phone number")
}

func (f *recordFlags) addFieldFlag(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&f.fields, "field", nil, "Extra field as key=value (repeatable)")
}

// payload collects the flags that were set on cmd into a request body.
func (f *recordFlags) payload(cmd *cobra.Command) (map[string]any, error) {
	body, err := parse.Fields(f.fields)
	if err != nil {
		return nil, err
	}
	set := cmd.Flags().Changed
	if set("content") {
		body["content"] = f.content
	}
	if set("important") {
		body["important"] = f.important
	}
	if set("name") {
		body["name"] = f.name
	}
	if set("number") {
		body["number"] = f.number
	}
	return body, nil
}

func newListCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "list <path>",
		Short: "List every record of a collection",
		Example: `  recordd list /notes
  recordd list /api/persons --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := NewClient(root.url).List(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if root.json {
				return output.JSON(cmd.OutOrStdout(), records)
			}
			if len(records) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No records")
				return nil
			}
			return printRecords(cmd.OutOrStdout(), records)
		},
	}
}

func newGetCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <path> <id>",
		Short: "Show one record",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			rec, err := NewClient(root.url).Get(cmd.Context(), args[0], id)
			if err != nil {
				return err
			}
			return printRecord(cmd.OutOrStdout(), root.json, rec)
		},
	}
}

func newAddCommand(root *rootOptions) *cobra.Command {
	flags := &recordFlags{}
	cmd := &cobra.Command{
		Use:   "add <path>",
		Short: "Create a record",
		Long: `Create a record in the collection at path.

Without field flags, and with stdin attached to a terminal, add prompts for
the fields interactively.`,
		Example: `  recordd add /notes --content "GET and POST" --important
  recordd add /api/persons --name "Ada Lovelace" --number 39-44-5323523`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			body, err := flags.payload(cmd)
			if err != nil {
				return err
			}
			if len(body) == 0 {
				if !isInteractive() {
					return errors.New("nothing to add: pass --content, --name/--number or --field")
				}
				if body, err = promptRecord(args[0]); err != nil {
					return err
				}
			}

			rec, err := NewClient(root.url).Create(cmd.Context(), args[0], body)
			if err != nil {
				return err
			}
			if rec == nil {
				if root.json {
					return output.JSON(cmd.OutOrStdout(), map[string]string{"status": "created"})
				}
				fmt.Fprintln(cmd.OutOrStdout(), "Created")
				return nil
			}
			return printRecord(cmd.OutOrStdout(), root.json, rec)
		},
	}
	flags.addNoteFlags(cmd)
	flags.addPersonFlags(cmd)
	flags.addFieldFlag(cmd)
	return cmd
}

func newUpdateCommand(root *rootOptions) *cobra.Command {
	flags := &recordFlags{}
	cmd := &cobra.Command{
		Use:   "update <path> <id>",
		Short: "Update a person record",
		Long: `Update a record in place. Only the given fields change; empty values keep
the stored ones.`,
		Example: `  recordd update /api/persons 3 --number 555-0100`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			body, err := flags.payload(cmd)
			if err != nil {
				return err
			}
			if len(body) == 0 {
				return errors.New("nothing to update: pass --name, --number or --field")
			}

			rec, err := NewClient(root.url).Update(cmd.Context(), args[0], id, body)
			if err != nil {
				return err
			}
			return printRecord(cmd.OutOrStdout(), root.json, rec)
		},
	}
	flags.addPersonFlags(cmd)
	flags.addFieldFlag(cmd)
	return cmd
}

func newDeleteCommand(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:     "delete <path> <id>",
		Aliases: []string{"rm"},
		Short:   "Delete a record",
		Long:    `Delete a record. Deleting an id that does not exist is not an error.`,
		Args:    cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[1])
			if err != nil {
				return err
			}
			if err := NewClient(root.url).Delete(cmd.Context(), args[0], id); err != nil {
				return err
			}
			if root.json {
				return output.JSON(cmd.OutOrStdout(), map[string]any{"deleted": id})
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %s\n", itemPath(args[0], id))
			return nil
		},
	}
}

func parseID(s string) (int, error) {
	id, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q: must be an integer", s)
	}
	return id, nil
}

func printRecord(w io.Writer, asJSON bool, rec Record) error {
	if asJSON {
		return output.JSON(w, rec)
	}
	return printRecords(w, []Record{rec})
}

// printRecords writes records as a table. The id column comes first, the
// other columns are sorted by name.
func printRecords(w io.Writer, records []Record) error {
	cols := columns(records)

	tw := output.Table(w)
	fmt.Fprintln(tw, strings.ToUpper(strings.Join(cols, "\t")))
	for _, rec := range records {
		cells := make([]string, len(cols))
		for i, c := range cols {
			if v, ok := rec[c]; ok && v != nil {
				cells[i] = fmt.Sprint(v)
			}
		}
		fmt.Fprintln(tw, strings.Join(cells, "\t"))
	}
	return tw.Flush()
}

func columns(records []Record) []string {
	seen := make(map[string]bool)
	var cols []string
	for _, rec := range records {
		for k := range rec {
			if k != "id" && !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	slices.Sort(cols)
	return append([]string{"id"}, cols...)
}
