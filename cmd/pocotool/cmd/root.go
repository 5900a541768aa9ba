package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/lumitec/pococan/pkg/session"
)

var rootCmd = &cobra.Command{
	Use:          "pocotool",
	Short:        "Lumitec Poco swiss army tool",
	Long:         `Control and monitor Lumitec Poco lighting modules over CAN`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute(ctx context.Context) {
	rootCmd.ExecuteContext(ctx)
}

const (
	flagPort     = "port"
	flagBaudrate = "baudrate"
	flagBitrate  = "bitrate"
	flagDebug    = "debug"
	flagAdapter  = "adapter"
	flagAddress  = "address"
	flagSource   = "source"
)

func init() {
	log.SetFlags(log.Lshortfile | log.LstdFlags)

	pf := rootCmd.PersistentFlags()
	pf.StringP(flagAdapter, "a", "SLCan", "what adapter to use")
	pf.StringP(flagPort, "p", "*", "com-port, * = print available")
	pf.IntP(flagBaudrate, "b", 115200, "serial baudrate")
	pf.Float64P(flagBitrate, "r", 250, "CAN bitrate in kbit/s, NMEA2000 is 250")
	pf.Uint8P(flagAddress, "t", 255, "target device address, 255 = broadcast")
	pf.Uint8P(flagSource, "s", session.DefaultSourceAddress, "our source address on the bus")
	pf.BoolP(flagDebug, "d", false, "debug mode")
}
