package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"
)

var parseBoardPath string

var parseCmd = &cobra.Command{
	Use:   "parse",
	Short: "Parse a pasted board and print it as JSON",
	RunE: func(cmd *cobra.Command, args []string) error {
		text, err := readInput(parseBoardPath)
		if err != nil {
			return err
		}

		svc, _, err := buildService()
		if err != nil {
			return err
		}
		board, err := svc.ParseBoard(text)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(board)
	},
}

func init() {
	parseCmd.Flags().StringVarP(&parseBoardPath, "board", "b", "-", "Board text file, or - for stdin")
}
