package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/huythanhnguyen/mm-search-bot/internal"
)

var parseShowText bool

var labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("62")).Bold(true)

var parseCmd = &cobra.Command{
	Use:   "parse <file|->",
	Short: "Show how an assistant message is parsed",
	Long: `Run the message content parser on raw assistant text and report whether a
product payload was found, which detector found it, and the cleaned text.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		parsed := internal.ParseMessage(string(data))
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Kind:"), parsed.Kind)
		if parsed.Strategy != "" {
			fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Strategy:"), parsed.Strategy)
		}
		if parsed.ProductData != nil {
			v := internal.ValidateProducts(parsed.ProductData.Products)
			fmt.Fprintf(out, "%s %d (%s)\n", labelStyle.Render("Products:"), len(parsed.ProductData.Products), v.Summary())
			if parsed.ProductData.Message != "" {
				fmt.Fprintf(out, "%s %s\n", labelStyle.Render("Message:"), parsed.ProductData.Message)
			}
		}
		if parseShowText {
			fmt.Fprintf(out, "%s\n%s\n", labelStyle.Render("Text:"), parsed.Text)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(parseCmd)
	parseCmd.Flags().BoolVar(&parseShowText, "text", true, "Print the cleaned text")
}
