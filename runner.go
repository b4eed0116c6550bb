package lightpivot

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/aretw0/lightpivot/pkg/domain"
)

const consoleHelp = `commands:
  down <filter>            drill into a member
  through [f1 ; f2 ...]    open the listing behind a cell
  back                     close the current level
  refresh                  refetch the current level
  mdx <query>              replace the root query
  filter <spec>            add a filter to the current level
  clear                    remove the filters of the current level
  rows <n>                 cap the rows of every level, 0 removes the cap
  values <row...>          print raw values of rows
  selected                 print the selected rows
  query                    print the effective query
  listing                  report whether a listing is shown
  prop <a.b.c>             print a pivot property
  state                    print the navigation state
  quit                     leave`

// Console drives a Table from line-oriented text input.
type Console struct {
	Table  *Table
	Input  io.Reader
	Output io.Writer
	Prompt string
}

// NewConsole creates a console for t.
func NewConsole(t *Table, in io.Reader, out io.Writer) *Console {
	return &Console{Table: t, Input: in, Output: out, Prompt: "> "}
}

// Run reads commands until quit, end of input or ctx cancellation.
// Unknown commands are reported and the loop goes on.
func (c *Console) Run(ctx context.Context) error {
	if c.Input == nil {
		return fmt.Errorf("input reader must be set (use os.Stdin)")
	}
	if c.Output == nil {
		return fmt.Errorf("output writer must be set (use os.Stdout)")
	}

	scanner := bufio.NewScanner(c.Input)
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(c.Output, c.Prompt)
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				return fmt.Errorf("input error: %w", err)
			}
			fmt.Fprintln(c.Output)
			return nil
		}

		quit, err := c.Exec(ctx, scanner.Text())
		if err != nil {
			if !errors.Is(err, domain.ErrUnknownCommand) {
				return err
			}
			fmt.Fprintf(c.Output, "%v (type help)\n", err)
		}
		if quit {
			return nil
		}
	}
}

// Exec runs a single command line. It reports whether the console should stop.
func (c *Console) Exec(ctx context.Context, line string) (bool, error) {
	cmd, rest, _ := strings.Cut(strings.TrimSpace(line), " ")
	rest = strings.TrimSpace(rest)
	t := c.Table

	switch strings.ToLower(cmd) {
	case "":
		return false, nil
	case "quit", "exit", "q":
		return true, nil
	case "help", "?":
		fmt.Fprintln(c.Output, consoleHelp)
	case "down":
		if rest == "" {
			return false, fmt.Errorf("%w: down needs a filter", domain.ErrUnknownCommand)
		}
		c.outcome(t.TryDrillDown(ctx, rest))
	case "through":
		c.outcome(t.TryDrillThrough(ctx, splitFilters(rest)))
	case "back":
		c.outcome(t.Back())
	case "refresh":
		c.outcome(t.Refresh(ctx))
	case "mdx":
		if rest == "" {
			return false, fmt.Errorf("%w: mdx needs a query", domain.ErrUnknownCommand)
		}
		c.outcome(t.ChangeBaseQuery(ctx, rest))
	case "filter":
		t.SetFilter(rest)
		fmt.Fprintln(c.Output, t.EffectiveQuery())
	case "clear":
		t.ClearFilters()
		fmt.Fprintln(c.Output, t.EffectiveQuery())
	case "rows":
		n, err := strconv.Atoi(rest)
		if err != nil || n < 0 {
			return false, fmt.Errorf("%w: rows needs a non-negative number", domain.ErrUnknownCommand)
		}
		t.SetRowCount(n)
		fmt.Fprintln(c.Output, t.EffectiveQuery())
	case "values":
		var rows []int
		for _, f := range strings.Fields(rest) {
			n, err := strconv.Atoi(f)
			if err != nil {
				return false, fmt.Errorf("%w: invalid row %q", domain.ErrUnknownCommand, f)
			}
			rows = append(rows, n)
		}
		c.printJSON(t.RowsValues(rows...))
	case "selected":
		c.printJSON(t.SelectedRows())
	case "query":
		fmt.Fprintln(c.Output, t.EffectiveQuery())
	case "listing":
		fmt.Fprintln(c.Output, t.IsListing())
	case "prop":
		var path []string
		if rest != "" {
			path = strings.Split(rest, ".")
		}
		v, ok := t.PivotProperty(path...)
		if !ok {
			fmt.Fprintln(c.Output, "not set")
			return false, nil
		}
		c.printJSON(v)
	case "state":
		c.printJSON(t.Snapshot())
	default:
		return false, fmt.Errorf("%w: %s", domain.ErrUnknownCommand, cmd)
	}
	return false, nil
}

func (c *Console) outcome(o domain.Outcome) {
	fmt.Fprintf(c.Output, ">>> %s (level %d)\n", o, c.Table.Level())
}

func (c *Console) printJSON(v any) {
	data, err := json.Marshal(v)
	if err != nil {
		fmt.Fprintf(c.Output, "%v\n", v)
		return
	}
	fmt.Fprintln(c.Output, string(data))
}

func splitFilters(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ";") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
