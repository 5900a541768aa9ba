package cmd

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/lumitec/pococan/pkg/control"
	"github.com/lumitec/pococan/pkg/poco"
)

var vswCmd = &cobra.Command{
	Use:   "vsw",
	Short: "virtual switch control",
}

func parseUint8(s, what string, max uint64) (uint8, error) {
	v, err := strconv.ParseUint(s, 0, 8)
	if err != nil || v > max {
		return 0, fmt.Errorf("bad %s %q, want 0-%d", what, s, max)
	}
	return uint8(v), nil
}

// withSwitch wraps a one-switch command body with flag and argument
// plumbing.
func withSwitch(run func(cmd *cobra.Command, c *control.Controller, sw uint8, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		sw, err := parseUint8(args[0], "switch", 31)
		if err != nil {
			return err
		}
		cl, _, ctrl, err := initRegistry(cmd.Context(), cmd)
		if err != nil {
			return err
		}
		defer cl.Close()
		return run(cmd, ctrl, sw, args[1:])
	}
}

var vswOnCmd = &cobra.Command{
	Use:   "on <switch>",
	Short: "turn a virtual switch on",
	Args:  cobra.ExactArgs(1),
	RunE: withSwitch(func(cmd *cobra.Command, c *control.Controller, sw uint8, _ []string) error {
		st, err := c.SimpleActionAck(cmd.Context(), sw, poco.ActionOn)
		if err != nil {
			return err
		}
		printState(st)
		return nil
	}),
}

var vswOffCmd = &cobra.Command{
	Use:   "off <switch>",
	Short: "turn a virtual switch off",
	Args:  cobra.ExactArgs(1),
	RunE: withSwitch(func(cmd *cobra.Command, c *control.Controller, sw uint8, _ []string) error {
		st, err := c.SimpleActionAck(cmd.Context(), sw, poco.ActionOff)
		if err != nil {
			return err
		}
		printState(st)
		return nil
	}),
}

var vswToggleCmd = &cobra.Command{
	Use:   "toggle <switch>",
	Short: "toggle a virtual switch",
	Args:  cobra.ExactArgs(1),
	RunE: withSwitch(func(cmd *cobra.Command, c *control.Controller, sw uint8, _ []string) error {
		st, err := c.SimpleActionAck(cmd.Context(), sw, poco.ActionToggle)
		if err != nil {
			return err
		}
		printState(st)
		return nil
	}),
}

var vswDimUpCmd = &cobra.Command{
	Use:   "dimup <switch>",
	Short: "raise brightness 10%",
	Args:  cobra.ExactArgs(1),
	RunE: withSwitch(func(cmd *cobra.Command, c *control.Controller, sw uint8, _ []string) error {
		return c.DimUp(sw)
	}),
}

var vswDimDownCmd = &cobra.Command{
	Use:   "dimdown <switch>",
	Short: "lower brightness 10%",
	Args:  cobra.ExactArgs(1),
	RunE: withSwitch(func(cmd *cobra.Command, c *control.Controller, sw uint8, _ []string) error {
		return c.DimDown(sw)
	}),
}

var vswColorCmd = &cobra.Command{
	Use:   "color <switch> <name> [brightness]",
	Short: "set a preset color (red green blue cyan magenta yellow white)",
	Args:  cobra.RangeArgs(2, 3),
	RunE: withSwitch(func(cmd *cobra.Command, c *control.Controller, sw uint8, args []string) error {
		col, err := control.ColorByName(args[0])
		if err != nil {
			return err
		}
		brightness := uint8(255)
		if len(args) == 2 {
			if brightness, err = parseUint8(args[1], "brightness", 255); err != nil {
				return err
			}
		}
		st, err := c.SetColorAck(cmd.Context(), sw, col, brightness)
		if err != nil {
			return err
		}
		printState(st)
		return nil
	}),
}

var vswRGBCmd = &cobra.Command{
	Use:   "rgb <switch> <r> <g> <b>",
	Short: "set an RGB color",
	Args:  cobra.ExactArgs(4),
	RunE: withSwitch(func(cmd *cobra.Command, c *control.Controller, sw uint8, args []string) error {
		var rgb [3]uint8
		for i, name := range []string{"red", "green", "blue"} {
			v, err := parseUint8(args[i], name, 255)
			if err != nil {
				return err
			}
			rgb[i] = v
		}
		st, err := c.SetRGBAck(cmd.Context(), sw, rgb[0], rgb[1], rgb[2])
		if err != nil {
			return err
		}
		printState(st)
		return nil
	}),
}

var vswFxCmd = &cobra.Command{
	Use:   "fx <switch> <fx-id>",
	Short: "start a PocoFx pattern",
	Args:  cobra.ExactArgs(2),
	RunE: withSwitch(func(cmd *cobra.Command, c *control.Controller, sw uint8, args []string) error {
		fx, err := parseUint8(args[0], "fx id", 255)
		if err != nil {
			return err
		}
		return c.StartFx(sw, fx)
	}),
}

var vswStateCmd = &cobra.Command{
	Use:   "state <switch>",
	Short: "query a virtual switch's state",
	Args:  cobra.ExactArgs(1),
	RunE: withSwitch(func(cmd *cobra.Command, c *control.Controller, sw uint8, _ []string) error {
		st, err := c.SwitchState(cmd.Context(), sw)
		if err != nil {
			return err
		}
		printState(st)
		return nil
	}),
}

func printState(st *poco.VSwState) {
	on := "off"
	if st.On {
		on = "on"
	}
	fmt.Printf("switch %d: %s, color %s, brightness %d\n", st.Switch, on, st.ColorType, st.Brightness)
}

func init() {
	vswCmd.AddCommand(vswOnCmd, vswOffCmd, vswToggleCmd, vswDimUpCmd, vswDimDownCmd,
		vswColorCmd, vswRGBCmd, vswFxCmd, vswStateCmd)
	rootCmd.AddCommand(vswCmd)
}
