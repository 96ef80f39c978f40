package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/spf13/cobra"

	"resumeStudio/internal/export"
	"resumeStudio/internal/preview"
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Show the completeness score and suggestions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		score := session.editor.View().Score
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "Resume Score: %d%%\n", score.Total)
		keys := make([]string, 0, len(score.Sections))
		for k := range score.Sections {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(out, "  %-11s %3d%%\n", k, score.Sections[k])
		}
		if len(score.Suggestions) > 0 {
			fmt.Fprintln(out, "Suggestions:")
			for _, s := range score.Suggestions {
				fmt.Fprintf(out, "  - %s\n", s)
			}
		}
		return nil
	},
}

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the email and phone fields",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		view := session.editor.View()
		if len(view.Errors) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		}
		printErrors(cmd.OutOrStdout(), view)
		return nil
	},
}

var previewHTML bool

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Render the resume with the selected template",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		v := session.editor.View().Preview
		out := cmd.OutOrStdout()

		if previewHTML {
			html, err := preview.RenderHTML(v)
			if err != nil {
				return err
			}
			fmt.Fprint(out, html)
			return nil
		}

		fmt.Fprintf(out, "[%s]\n", v.Template.Name)
		fmt.Fprintln(out, v.Header.Name.Value)
		fmt.Fprintf(out, "%s | %s\n", v.Header.Email.Value, v.Header.Phone.Value)
		if v.Header.ProfilePicture != "" {
			fmt.Fprintln(out, "(profile picture)")
		}
		for _, s := range v.Sections {
			fmt.Fprintf(out, "\n%s\n%s\n", s.Title, s.Body.Value)
		}
		return nil
	},
}

var (
	exportFormat string
	exportOut    string
)

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the resume as json, txt or pdf",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		format, err := export.ParseFormat(exportFormat)
		if err != nil {
			return err
		}
		dl, err := session.editor.Export(cmd.Context(), format)
		if err != nil {
			return err
		}

		if exportOut == "-" {
			_, err := cmd.OutOrStdout().Write(dl.Data)
			return err
		}
		target := exportOut
		if target == "" {
			target = dl.Filename
		}
		if dir := filepath.Dir(target); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return fmt.Errorf("create output dir: %w", err)
			}
		}
		if err := os.WriteFile(target, dl.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", target, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "wrote %s (%s, %d bytes)\n", target, dl.ContentType, len(dl.Data))
		return nil
	},
}

func init() {
	previewCmd.Flags().BoolVar(&previewHTML, "html", false, "print the A4 print page instead of a text outline")
	exportCmd.Flags().StringVarP(&exportFormat, "format", "f", string(export.FormatJSON), "export format: json, txt or pdf")
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "output path, - for stdout (default resume.<ext>)")

	rootCmd.AddCommand(scoreCmd, validateCmd, previewCmd, exportCmd)
}
