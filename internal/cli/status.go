package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/hamed0406/praesto/internal/cli/style"
	"github.com/hamed0406/praesto/internal/domain"
	"github.com/hamed0406/praesto/internal/notify"
	"github.com/hamed0406/praesto/internal/repo"
)

var statusCmd = &cobra.Command{
	Use:     "status [check-id]",
	Short:   "Show the persisted state of all checks or one check",
	Aliases: []string{"s", "ls"},
	Args:    cobra.MaximumNArgs(1),
	RunE:    runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd.Context(), cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	if len(args) == 1 {
		spec, ok := a.cfg.Check(args[0])
		if !ok {
			return fmt.Errorf("no check with id %q in %s", args[0], configPath)
		}
		printCheckDetail(out, spec, a.store.Load(cmd.Context(), spec.ID))
		return nil
	}
	printStatusTable(cmd.Context(), out, a.cfg.Checks, a.store)
	return nil
}

func printStatusTable(ctx context.Context, w io.Writer, specs []domain.CheckSpec, store repo.StateStore) {
	fmt.Fprintln(w, style.Banner.Render("PRAESTO")+style.Subtitle.Render(fmt.Sprintf("  %d check(s)", len(specs))))

	header := fmt.Sprintf("  %-2s %-20s %-6s %-28s %-22s %-6s %s", "", "CHECK", "TYPE", "DESTINATION", "STATE", "ITER", "LAST CHANGE")
	fmt.Fprintln(w, style.TableHeader.Render(header))

	for _, spec := range specs {
		st := store.Load(ctx, spec.ID)
		id := style.Bold.Render(padRight(spec.ID, 20))
		if !spec.Enabled {
			id = style.DimText.Render(padRight(spec.ID+" (off)", 20))
		}
		last := style.DimText.Render("never")
		if n := len(st.History); n > 0 {
			last = st.History[n-1].Timestamp.Local().Format(notify.TimeLayout)
		}
		fmt.Fprintf(w, "  %s  %s %s %s %s %s %s\n",
			style.Dot(st.Label),
			id,
			style.Accent.Render(padRight(spec.Type, 6)),
			padRight(spec.Destination, 28),
			style.ForLabel(st.Label).Render(padRight(string(st.Label), 22)),
			padRight(strconv.Itoa(st.Iterator)+"/"+strconv.Itoa(spec.Threshold), 6),
			last,
		)
	}
	fmt.Fprintln(w)
}

func printCheckDetail(w io.Writer, spec domain.CheckSpec, st domain.CheckState) {
	fmt.Fprintln(w, style.Banner.Render(spec.ID)+"  "+style.Dot(st.Label)+" "+style.ForLabel(st.Label).Render(string(st.Label)))
	row := func(k, v string) {
		fmt.Fprintf(w, "  %s %s\n", style.DimText.Render(padRight(k, 13)), v)
	}
	row("Destination", spec.Destination)
	row("Type", spec.Type)
	if spec.Description != "" {
		row("Description", spec.Description)
	}
	row("Last state", string(st.LastState))
	row("Iterator", fmt.Sprintf("%d of %d", st.Iterator, spec.Threshold))
	if len(spec.Groups) > 0 {
		row("Groups", fmt.Sprint(spec.Groups))
	}
	if len(spec.Notify) > 0 {
		row("Notify", fmt.Sprint(spec.Notify))
	}

	fmt.Fprintln(w)
	if len(st.History) == 0 {
		fmt.Fprintln(w, style.DimText.Render("  no transitions recorded"))
		return
	}
	fmt.Fprintln(w, style.TableHeader.Render(fmt.Sprintf("  %-20s %s", "WHEN", "STATE")))
	for _, h := range st.History {
		fmt.Fprintf(w, "  %-20s %s\n", h.Timestamp.Local().Format(notify.TimeLayout), style.ForLabel(h.Label).Render(string(h.Label)))
	}
}

func padRight(s string, n int) string {
	if len(s) >= n {
		return s
	}
	return s + strings.Repeat(" ", n-len(s))
}
