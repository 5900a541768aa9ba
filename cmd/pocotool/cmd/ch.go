package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/lumitec/pococan/pkg/control"
	"github.com/lumitec/pococan/pkg/poco"
)

var chCmd = &cobra.Command{
	Use:   "ch",
	Short: "raw output channel control",
}

func withChannel(min uint64, run func(cmd *cobra.Command, c *control.Controller, ch uint8, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ch, err := parseUint8(args[0], "channel", 4)
		if err != nil {
			return err
		}
		if uint64(ch) < min {
			return fmt.Errorf("bad channel %d", ch)
		}
		cl, _, ctrl, err := initRegistry(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer cl.Close()
		return run(cmd, ctrl, ch, args[1:])
	}
}

var chBinCmd = &cobra.Command{
	Use:   "bin <channel> on|off",
	Short: "binary on/off control of an output channel",
	Args:  cobra.ExactArgs(2),
	RunE: withChannel(1, func(cmd *cobra.Command, c *control.Controller, ch uint8, args []string) error {
		switch args[0] {
		case "on":
			return c.SetBinary(ch, true)
		case "off":
			return c.SetBinary(ch, false)
		default:
			return fmt.Errorf("want on or off, got %q", args[0])
		}
	}),
}

var chPWMCmd = &cobra.Command{
	Use:   "pwm <channel> <duty>",
	Short: "set a channel's PWM duty cycle in percent",
	Args:  cobra.ExactArgs(2),
	RunE: withChannel(1, func(cmd *cobra.Command, c *control.Controller, ch uint8, args []string) error {
		duty, err := parseUint8(args[0], "duty", 100)
		if err != nil {
			return err
		}
		st, err := c.SetPWMAck(cmd.Context(), ch, duty)
		if err != nil {
			return err
		}
		printStatus(st)
		return nil
	}),
}

var chStatusCmd = &cobra.Command{
	Use:   "status <channel>",
	Short: "query channel status, 0 = all channels",
	Args:  cobra.ExactArgs(1),
	RunE: withChannel(0, func(cmd *cobra.Command, c *control.Controller, ch uint8, _ []string) error {
		st, err := c.ChannelStatus(cmd.Context(), ch)
		if err != nil {
			return err
		}
		printStatus(st)
		return nil
	}),
}

func printStatus(st *poco.OutputChStatus) {
	fmt.Printf("channel %d: mode %s, level %d, %d mV in, %d mA out, faults: %s\n",
		st.Channel, st.Mode, st.Level, st.InputVoltage(), st.Current(), st.Faults)
}

func init() {
	chCmd.AddCommand(chBinCmd, chPWMCmd, chStatusCmd)
	rootCmd.AddCommand(chCmd)
}
