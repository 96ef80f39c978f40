package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"resumeStudio/internal/templates"
)

var templatesCmd = &cobra.Command{
	Use:   "templates",
	Short: "List the available templates",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		selected := session.editor.SelectedTemplate()
		out := cmd.OutOrStdout()
		for _, t := range session.editor.Templates() {
			marker := " "
			if t.ID == selected {
				marker = "*"
			}
			fmt.Fprintf(out, "%s %-13s %s\n", marker, t.ID, t.Name)
			fmt.Fprintf(out, "  %s\n", t.Description)
			fmt.Fprintf(out, "  %s\n", strings.Join(t.Features, " · "))
		}
		return nil
	},
}

var selectTemplateCmd = &cobra.Command{
	Use:   "select-template <id>",
	Short: "Select the template used for preview and PDF export",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := templates.Parse(args[0])
		if err != nil {
			return err
		}
		if err := session.editor.SelectTemplate(cmd.Context(), id); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "selected template %s\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(templatesCmd, selectTemplateCmd)
}
