package cmd

import (
	"fmt"
	"log"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/lumitec/pococan"
	"github.com/lumitec/pococan/pkg/nmea2k"
	"github.com/lumitec/pococan/pkg/poco"
)

var monitorCmd = &cobra.Command{
	Use:   "monitor",
	Short: "print bus traffic, decoding Poco frames",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		c, err := initClient(ctx, cmd)
		if err != nil {
			return err
		}
		defer c.Close()

		raw, err := cmd.Flags().GetBool("raw")
		if err != nil {
			return err
		}

		sub := c.Subscribe(ctx)
		defer sub.Close()

		g, ctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case err := <-c.Err():
					return err
				}
			}
		})
		g.Go(func() error {
			evt := c.Adapter().Event()
			for {
				select {
				case <-ctx.Done():
					return nil
				case e := <-evt:
					log.Println(e.String())
				}
			}
		})
		g.Go(func() error {
			for {
				select {
				case <-ctx.Done():
					return nil
				case frame, ok := <-sub.Chan():
					if !ok {
						return pococan.ErrResponseChannelClosed
					}
					printFrame(frame, raw)
				}
			}
		})
		return g.Wait()
	},
}

func printFrame(frame *pococan.CANFrame, raw bool) {
	fmt.Println(frame.ColorString())
	if raw || !frame.Extended {
		return
	}
	hdr := nmea2k.ParseID(frame.Identifier)
	switch hdr.PGN {
	case poco.PGNProprietarySingleFrame:
		msg, err := poco.Unmarshal(frame.Data)
		if err != nil {
			fmt.Printf("  src %d: %v\n", hdr.Source, err)
			return
		}
		if _, ok := msg.(*poco.UnknownMessage); ok {
			return
		}
		fmt.Printf("  src %d: %s %+v\n", hdr.Source, msg.PID(), msg)
	case poco.PGNBinarySwitchStatus, poco.PGNBinarySwitchControl:
		b, err := poco.UnmarshalBank(frame.Data)
		if err != nil {
			return
		}
		fmt.Printf("  src %d: bank %d, %d on\n", hdr.Source, b.Bank, b.On())
	}
}

func init() {
	monitorCmd.Flags().Bool("raw", false, "frames only, skip protocol decode")
	rootCmd.AddCommand(monitorCmd)
}
