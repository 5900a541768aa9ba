package cmd

import (
	"context"
	"log"

	"github.com/spf13/cobra"

	"github.com/lumitec/pococan"
	"github.com/lumitec/pococan/pkg/control"
	"github.com/lumitec/pococan/pkg/session"
)

func adapterConfig(cmd *cobra.Command) (string, *pococan.AdapterConfig, error) {
	adapterName, err := cmd.Flags().GetString(flagAdapter)
	if err != nil {
		return "", nil, err
	}
	port, err := cmd.Flags().GetString(flagPort)
	if err != nil {
		return "", nil, err
	}
	baudrate, err := cmd.Flags().GetInt(flagBaudrate)
	if err != nil {
		return "", nil, err
	}
	bitrate, err := cmd.Flags().GetFloat64(flagBitrate)
	if err != nil {
		return "", nil, err
	}
	debug, err := cmd.Flags().GetBool(flagDebug)
	if err != nil {
		return "", nil, err
	}
	return adapterName, &pococan.AdapterConfig{
		Debug:        debug,
		Port:         port,
		PortBaudrate: baudrate,
		CANRate:      bitrate,
		OnError: func(err error) {
			log.Println(err)
		},
	}, nil
}

func initClient(ctx context.Context, cmd *cobra.Command) (*pococan.Client, error) {
	name, cfg, err := adapterConfig(cmd)
	if err != nil {
		return nil, err
	}
	dev, err := pococan.NewAdapter(name, cfg)
	if err != nil {
		return nil, err
	}
	return pococan.New(ctx, dev)
}

func sessionConfig(cmd *cobra.Command) (session.Config, error) {
	source, err := cmd.Flags().GetUint8(flagSource)
	if err != nil {
		return session.Config{}, err
	}
	return session.Config{SourceAddress: source, Priority: session.DefaultPriority}, nil
}

// initRegistry opens the adapter, starts the routing loop and returns a
// controller talking to the device given by the address flag.
func initRegistry(ctx context.Context, cmd *cobra.Command) (*pococan.Client, *session.Registry, *control.Controller, error) {
	c, err := initClient(ctx, cmd)
	if err != nil {
		return nil, nil, nil, err
	}
	cfg, err := sessionConfig(cmd)
	if err != nil {
		c.Close()
		return nil, nil, nil, err
	}
	addr, err := cmd.Flags().GetUint8(flagAddress)
	if err != nil {
		c.Close()
		return nil, nil, nil, err
	}
	reg := session.NewRegistry(c, cfg)
	sub := c.Subscribe(ctx)
	go reg.Run(ctx, sub.Chan())
	return c, reg, control.New(reg.Session(addr)), nil
}
