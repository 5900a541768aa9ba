package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumitec/pococan"
)

var adaptersCmd = &cobra.Command{
	Use:   "adapters",
	Short: "list the available CAN adapters",
	RunE: func(cmd *cobra.Command, args []string) error {
		for _, a := range pococan.ListAdapters() {
			fmt.Printf("%-10s %s", a.Name, a.Description)
			if a.RequiresSerialPort {
				fmt.Print("  (serial)")
			}
			fmt.Println()
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(adaptersCmd)
}
