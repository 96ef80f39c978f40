package main

import (
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"resumeStudio/internal/avatar"
	"resumeStudio/internal/editor"
	"resumeStudio/internal/export"
	"resumeStudio/internal/resume"
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the current resume as JSON",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		data, err := export.JSON(session.editor.View().Document)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	},
}

var (
	setPicture      string
	setClearPicture bool
	setFields       = map[string]*string{}
)

var setCmd = &cobra.Command{
	Use:   "set",
	Short: "Change one or more resume fields",
	Example: `  resumectl set --name "Ada Lovelace" --email ada@example.com
  resumectl set --skills "Go, SQL, Kubernetes"
  resumectl set --picture ./me.jpg`,
	Args: cobra.NoArgs,
	RunE: runSet,
}

func runSet(cmd *cobra.Command, _ []string) error {
	var p resume.Patch
	targets := map[string]**string{
		"name":       &p.Name,
		"email":      &p.Email,
		"phone":      &p.Phone,
		"education":  &p.Education,
		"experience": &p.Experience,
		"skills":     &p.Skills,
	}
	for flag, dst := range targets {
		if cmd.Flags().Changed(flag) {
			*dst = setFields[flag]
		}
	}
	p.ClearProfilePicture = setClearPicture

	if setPicture != "" {
		f, err := os.Open(setPicture)
		if err != nil {
			return fmt.Errorf("open picture: %w", err)
		}
		dataURI, err := avatar.Process(f)
		f.Close()
		if err != nil {
			return fmt.Errorf("process picture: %w", err)
		}
		p.ProfilePicture = &dataURI
	}

	if p.IsEmpty() {
		return fmt.Errorf("nothing to change, pass at least one field flag")
	}

	printErrors(cmd.ErrOrStderr(), session.editor.Update(p))
	return nil
}

var importHTMLCmd = &cobra.Command{
	Use:   "import-html <file|->",
	Short: "Replace the text fields with the content of a rich text HTML document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		printErrors(cmd.ErrOrStderr(), session.editor.ImportHTML(string(data)))
		return nil
	},
}

var importJSONCmd = &cobra.Command{
	Use:   "import-json <file|->",
	Short: "Replace the resume with a previously exported JSON document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}
		view, err := session.editor.ImportJSON(data)
		if err != nil {
			return err
		}
		printErrors(cmd.ErrOrStderr(), view)
		return nil
	},
}

func readInput(cmd *cobra.Command, path string) ([]byte, error) {
	if path == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return data, nil
}

// printErrors 输出校验提示；校验只做提示，不阻止保存。
func printErrors(w io.Writer, v editor.View) {
	keys := make([]string, 0, len(v.Errors))
	for k := range v.Errors {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "warning: %s: %s\n", k, v.Errors[k])
	}
}

func init() {
	for _, name := range []string{"name", "email", "phone", "education", "experience", "skills"} {
		setFields[name] = new(string)
		setCmd.Flags().StringVar(setFields[name], name, "", "new value for "+name)
	}
	setCmd.Flags().StringVar(&setPicture, "picture", "", "image file to use as the profile picture (cropped to a square)")
	setCmd.Flags().BoolVar(&setClearPicture, "clear-picture", false, "remove the profile picture")
	setCmd.MarkFlagsMutuallyExclusive("picture", "clear-picture")

	rootCmd.AddCommand(showCmd, setCmd, importHTMLCmd, importJSONCmd)
}
