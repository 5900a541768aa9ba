package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/lumitec/pococan/pkg/bar"
)

var discoverCmd = &cobra.Command{
	Use:   "discover",
	Short: "enumerate the Poco devices on the bus",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		window, err := cmd.Flags().GetDuration("window")
		if err != nil {
			return err
		}

		c, reg, _, err := initRegistry(ctx, cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		pb := bar.New(int(window/time.Millisecond), "[cyan]listening for devices[reset]")
		done := make(chan struct{})
		go func() {
			tick := time.NewTicker(50 * time.Millisecond)
			defer tick.Stop()
			for {
				select {
				case <-done:
					return
				case <-tick.C:
					pb.Add(50)
				}
			}
		}()

		devices, err := reg.Enumerate(ctx, window)
		close(done)
		pb.Finish()
		fmt.Println()
		if err != nil {
			return err
		}

		if len(devices) == 0 {
			fmt.Println("no devices answered")
			return nil
		}
		fmt.Printf("%-8s %-10s %-8s %-8s %s\n", "addr", "device id", "channels", "proto", "role")
		for _, d := range devices {
			role := "controller"
			if d.ExpanderRole {
				role = "expander"
			}
			fmt.Printf("%-8d %-10d %-8d %-8d %s\n", d.Address, d.DeviceID, d.Channels, d.ProtocolVersion, role)
		}
		return nil
	},
}

func init() {
	discoverCmd.Flags().Duration("window", 2*time.Second, "how long to wait for answers")
	rootCmd.AddCommand(discoverCmd)
}
