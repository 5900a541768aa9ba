package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lumitec/pococan/pkg/poco"
)

var bankCmd = &cobra.Command{
	Use:   "bank",
	Short: "binary switch bank control (PGN 127501/127502)",
}

var bankSetCmd = &cobra.Command{
	Use:   "set <bank> <switch> on|off",
	Short: "flip one switch in a bank",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := parseUint8(args[0], "bank", 255)
		if err != nil {
			return err
		}
		index, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("bad switch %q", args[1])
		}
		var on bool
		switch args[2] {
		case "on":
			on = true
		case "off":
		default:
			return fmt.Errorf("want on or off, got %q", args[2])
		}
		cl, _, ctrl, err := initRegistry(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer cl.Close()
		return ctrl.SetBankSwitch(bank, index, on)
	},
}

var bankQueryCmd = &cobra.Command{
	Use:   "query <bank>",
	Short: "query a bank's switch states",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bank, err := parseUint8(args[0], "bank", 255)
		if err != nil {
			return err
		}
		cl, _, ctrl, err := initRegistry(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer cl.Close()
		b, err := ctrl.QueryBank(cmd.Context(), bank)
		if err != nil {
			return err
		}
		fmt.Printf("bank %d:\n", b.Bank)
		for i, s := range b.States {
			if s == poco.BankNoChange {
				continue
			}
			fmt.Printf("  switch %2d: %s\n", i, s)
		}
		return nil
	},
}

func init() {
	bankCmd.AddCommand(bankSetCmd, bankQueryCmd)
	rootCmd.AddCommand(bankCmd)
}
