package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

// documentOps are the operations shared by profiles and layouts
type documentOps struct {
	list     func(ctx context.Context) ([]string, error)
	current  func() string
	switchTo func(ctx context.Context, name string) error
	add      func(ctx context.Context, name string) (string, error)
}

type documentList struct {
	Current string   `json:"current"`
	Names   []string `json:"names"`
}

func newProfileCommand(a *app) *cobra.Command {
	return newDocumentCommand(a, "profile", "profiles", func() documentOps {
		return documentOps{
			list:     a.ov.ListProfiles,
			current:  a.ov.CurrentProfile,
			switchTo: a.ov.SwitchProfile,
			add:      a.ov.AddProfile,
		}
	})
}

func newLayoutCommand(a *app) *cobra.Command {
	return newDocumentCommand(a, "layout", "layouts", func() documentOps {
		return documentOps{
			list:     a.ov.ListLayouts,
			current:  a.ov.CurrentLayout,
			switchTo: a.ov.SwitchLayout,
			add:      a.ov.AddLayout,
		}
	})
}

// newDocumentCommand builds the list/current/switch/add tree for one
// document kind. ops is resolved after the instance is opened.
func newDocumentCommand(a *app, use, plural string, ops func() documentOps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   use,
		Short: fmt.Sprintf("Manage %s", plural),
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: fmt.Sprintf("List stored %s, marking the current one", plural),
			Args:  cobra.NoArgs,
			RunE: a.runE(func(cmd *cobra.Command, args []string) error {
				o := ops()
				names, err := o.list(cmd.Context())
				if err != nil {
					return err
				}
				if a.asJSON {
					return writeJSON(cmd.OutOrStdout(), documentList{Current: o.current(), Names: names})
				}
				writeDocumentList(cmd.OutOrStdout(), o.current(), names)
				return nil
			}),
		},
		&cobra.Command{
			Use:   "current",
			Short: fmt.Sprintf("Print the current %s", use),
			Args:  cobra.NoArgs,
			RunE: a.runE(func(cmd *cobra.Command, args []string) error {
				fmt.Fprintln(cmd.OutOrStdout(), ops().current())
				return nil
			}),
		},
		&cobra.Command{
			Use:   "switch NAME",
			Short: fmt.Sprintf("Load a stored %s and apply it", use),
			Args:  cobra.ExactArgs(1),
			RunE: a.runE(func(cmd *cobra.Command, args []string) error {
				if err := ops().switchTo(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Switched %s to %s\n", use, args[0])
				return nil
			}),
		},
		&cobra.Command{
			Use:   "add [NAME]",
			Short: fmt.Sprintf("Create a %s from the live extensions and switch to it", use),
			Args:  cobra.MaximumNArgs(1),
			RunE: a.runE(func(cmd *cobra.Command, args []string) error {
				name := ""
				if len(args) == 1 {
					name = args[0]
				}
				created, err := ops().add(cmd.Context(), name)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s %s\n", use, created)
				return nil
			}),
		},
	)

	return cmd
}
