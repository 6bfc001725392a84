package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/platinummonkey/omniverlay/pkg/extensions"
)

func newExtensionsCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "extensions",
		Aliases: []string{"ext"},
		Short:   "Extension management commands",
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "list",
			Short: "List registered extensions with their state and layout",
			Args:  cobra.NoArgs,
			RunE: a.runE(func(cmd *cobra.Command, args []string) error {
				infos, err := a.ov.ListExtensions(cmd.Context())
				if err != nil {
					return err
				}
				if a.asJSON {
					return writeJSON(cmd.OutOrStdout(), infos)
				}
				return writeExtensionTable(cmd.OutOrStdout(), infos)
			}),
		},
		&cobra.Command{
			Use:   "enable NAME",
			Short: "Enable an extension and record it in the current profile",
			Args:  cobra.ExactArgs(1),
			RunE: a.runE(func(cmd *cobra.Command, args []string) error {
				if err := a.ov.EnableExtension(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Enabled %s in profile %s\n", args[0], a.ov.CurrentProfile())
				return nil
			}),
		},
		&cobra.Command{
			Use:   "disable NAME",
			Short: "Disable an extension and record it in the current profile",
			Args:  cobra.ExactArgs(1),
			RunE: a.runE(func(cmd *cobra.Command, args []string) error {
				if err := a.ov.DisableExtension(cmd.Context(), args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Disabled %s in profile %s\n", args[0], a.ov.CurrentProfile())
				return nil
			}),
		},
		&cobra.Command{
			Use:   "stale",
			Short: "List extensions whose stored config no longer matches their default",
			Args:  cobra.NoArgs,
			RunE: a.runE(func(cmd *cobra.Command, args []string) error {
				names, err := a.ov.StaleConfigs(cmd.Context())
				if err != nil {
					return err
				}
				if a.asJSON {
					return writeJSON(cmd.OutOrStdout(), names)
				}
				for _, name := range names {
					fmt.Fprintln(cmd.OutOrStdout(), name)
				}
				return nil
			}),
		},
		newMoveCommand(a),
	)

	return cmd
}

func newMoveCommand(a *app) *cobra.Command {
	var width, height, x, y uint32

	cmd := &cobra.Command{
		Use:   "move NAME",
		Short: "Change an extension's geometry in the current layout",
		Args:  cobra.ExactArgs(1),
	}

	cmd.Flags().Uint32Var(&width, "width", 0, "Width in pixels")
	cmd.Flags().Uint32Var(&height, "height", 0, "Height in pixels")
	cmd.Flags().Uint32Var(&x, "x", 0, "Horizontal position")
	cmd.Flags().Uint32Var(&y, "y", 0, "Vertical position")

	cmd.RunE = a.runE(func(cmd *cobra.Command, args []string) error {
		name := args[0]

		infos, err := a.ov.ListExtensions(cmd.Context())
		if err != nil {
			return err
		}

		var layout extensions.ExtensionLayout
		found := false
		for _, info := range infos {
			if info.Name == name {
				found = true
				if info.Layout != nil {
					layout = *info.Layout
				}
			}
		}
		if !found {
			return fmt.Errorf("%w: %s", extensions.ErrExtensionNotFound, name)
		}

		flags := cmd.Flags()
		if flags.Changed("width") {
			layout.Width = width
		}
		if flags.Changed("height") {
			layout.Height = height
		}
		if flags.Changed("x") {
			layout.X = x
		}
		if flags.Changed("y") {
			layout.Y = y
		}

		if err := a.ov.UpdateExtensionsLayout(cmd.Context(), map[string]extensions.ExtensionLayout{name: layout}); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Moved %s to %s in layout %s\n", name, formatLayout(&layout), a.ov.CurrentLayout())
		return nil
	})

	return cmd
}
