// Package cmd implements the docwise command-line interface.
package cmd

import (
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "docwise",
	Short: "Docwise - documentation chat assistant",
	Long: `Docwise answers questions about Streamlit using its documentation.

It retrieves relevant documentation pages and command docstrings, assembles
them into a prompt together with the conversation history, and streams the
model's answer back.

Running docwise with no arguments starts an interactive chat.`,
	SilenceUsage: true,
	RunE:         runChat,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
