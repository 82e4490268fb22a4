package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"

	"github.com/walteh/ctxmigrate/cmd/ctxmigrate/opts"
	"github.com/walteh/ctxmigrate/pkg/ruleset"
	"github.com/walteh/ctxmigrate/pkg/text"
)

func NewRulesCmd(opts *opts.RootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "List the rule set in application order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rules, err := ruleset.New(opts.Config)
			if err != nil {
				return errors.Errorf("building rule set: %w", err)
			}

			data := pterm.TableData{{"#", "Rule", "Kind", "Description", "Targets"}}
			for i, r := range rules {
				targets := "-"
				if t, ok := r.Action.(text.Targeted); ok {
					targets = strings.Join(t.Targets(), ", ")
				}
				data = append(data, []string{strconv.Itoa(i + 1), r.Name, r.Action.Kind().String(), r.Description, targets})
			}

			table, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
			if err != nil {
				return errors.Errorf("rendering rules: %w", err)
			}

			fmt.Fprintln(cmd.OutOrStdout(), opts.Config.String())
			fmt.Fprintln(cmd.OutOrStdout(), table)
			return nil
		},
	}

	return cmd
}
