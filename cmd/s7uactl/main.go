// Command s7uactl is a small operator CLI over the library. dump and
// read work offline against a saved structure snapshot; discover, write
// and watch need a live PLC connection and, since this build links no
// OPC UA transport, return an error without contacting a PLC. It exists
// to give the library a runnable surface; production callers are
// expected to embed the packages directly.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/s7ua-go/s7ua"
	"github.com/s7ua-go/s7ua/config"
	"github.com/s7ua-go/s7ua/discover"
	"github.com/s7ua-go/s7ua/internal/metrics"
	"github.com/s7ua-go/s7ua/opcuaclient"
	"github.com/s7ua-go/s7ua/ports"
	"github.com/s7ua-go/s7ua/s7type"
	"github.com/s7ua-go/s7ua/snapshot"
	"github.com/s7ua-go/s7ua/store"
)

var (
	endpoint   string
	structPath string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "s7uactl",
		Short: "Operate an s7ua-backed connection to a Siemens S7 PLC over OPC UA",
	}
	root.PersistentFlags().StringVar(&endpoint, "endpoint", "opc.tcp://localhost:4840", "OPC UA endpoint URL")
	root.PersistentFlags().StringVar(&structPath, "structure", "structure.json", "path to the saved structure snapshot")

	root.AddCommand(newDiscoverCmd())
	root.AddCommand(newDumpCmd())
	root.AddCommand(newReadCmd())
	root.AddCommand(newWriteCmd())
	root.AddCommand(newWatchCmd())
	return root
}

// buildCoordinator wires the Service Coordinator's collaborators. This
// module ships no concrete OPC UA stack (spec.md §1), so every command
// that needs a live connection requires a ports.SessionFactory supplied
// by a build that links a real transport; without one the CLI fails
// fast rather than silently no-op'ing.
func buildCoordinator(factory ports.SessionFactory, log *zap.SugaredLogger) *s7ua.Coordinator {
	cfg := (&config.ApplicationConfiguration{}).Check()
	client := opcuaclient.NewClient(cfg, factory, log, metrics.New())
	st := store.New(log)
	registry := s7type.NewRegistry(log)
	engine := discover.NewEngine(log)
	fs := ports.NewAferoFileSystem(afero.NewOsFs())
	return s7ua.New(client, st, registry, engine, fs, metrics.New(), log)
}

var errNoTransport = fmt.Errorf("s7uactl: no OPC UA transport linked into this build; wire a ports.SessionFactory implementation")

func newDiscoverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "discover",
		Short: "Discover the PLC's symbolic tree and save it to --structure",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errNoTransport
		},
	}
}

func newDumpCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Print the saved structure snapshot as a flat list of tag paths",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := ports.NewAferoFileSystem(afero.NewOsFs())
			st := store.New(nil)
			if err := snapshot.LoadStructure(st, fs, structPath); err != nil {
				return err
			}
			for path := range st.GetAll() {
				fmt.Println(path)
			}
			return nil
		},
	}
}

func newReadCmd() *cobra.Command {
	var path string
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Print one tag's value from the saved structure snapshot",
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := ports.NewAferoFileSystem(afero.NewOsFs())
			st := store.New(nil)
			if err := snapshot.LoadStructure(st, fs, structPath); err != nil {
				return err
			}
			v, ok := st.TryGetByPath(path)
			if !ok {
				return fmt.Errorf("s7uactl: no such tag %q", path)
			}
			fmt.Printf("%s = %v (%s)\n", v.FullPath, v.Value, v.S7Type)
			return nil
		},
	}
	cmd.Flags().StringVar(&path, "path", "", "full path of the tag to read")
	return cmd
}

func newWriteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "write",
		Short: "Write one tag's value on the live PLC",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errNoTransport
		},
	}
}

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Subscribe to tags and print changes as they arrive",
		RunE: func(cmd *cobra.Command, args []string) error {
			return errNoTransport
		},
	}
}
