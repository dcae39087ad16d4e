// Package main is the host simulator for the MIDI router: the firmware's
// router, console and LED tasks running against in-memory USB and UART
// peripherals, with optional real serial devices for hardware ports.
package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"midirouter-go/platform"
	"midirouter-go/services/config"
)

var (
	boardName string
	ttyFlags  []string
	mounted   bool
	trace     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "midirouter-sim",
	Short: "Run the MIDI router against simulated USB and serial ports",
	Long: `midirouter-sim runs the router firmware on the host. The console is on
stdin/stdout; in addition to the device commands it understands:

  mount | unmount | suspend | resume     drive the USB state machine
  inject <port> <hex bytes...>           bytes arriving on a serial MIDI IN
  usbsend <cable> <hex bytes...>         bytes sent by the host on a USB cable
  bus <verb> [<from> <to>]               a router control sent over the message bus

Examples:
  midirouter-sim --board pico2 --trace
  midirouter-sim --tty 0=/dev/ttyUSB0 --mounted=false`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runSim,
}

var boardsCmd = &cobra.Command{
	Use:   "boards",
	Short: "List the embedded board profiles",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		ds := config.Devices()
		sort.Strings(ds)
		for _, d := range ds {
			fmt.Println(d)
		}
	},
}

var ttysCmd = &cobra.Command{
	Use:   "ttys",
	Short: "List serial devices usable with --tty",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ps, err := platform.TTYPorts()
		if err != nil {
			return err
		}
		for _, p := range ps {
			fmt.Println(p)
		}
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVarP(&boardName, "board", "b", platform.DefaultDevice(), "Board profile")
	rootCmd.Flags().StringSliceVar(&ttyFlags, "tty", nil, "Put hardware port <index> on a serial device: index=path (repeatable)")
	rootCmd.Flags().BoolVar(&mounted, "mounted", true, "Start with the USB function mounted")
	rootCmd.Flags().BoolVarP(&trace, "trace", "t", false, "Print MIDI leaving every port")

	rootCmd.AddCommand(boardsCmd)
	rootCmd.AddCommand(ttysCmd)
}

// parseTTY splits "index=path".
func parseTTY(s string) (int, string, error) {
	i := strings.IndexByte(s, '=')
	if i <= 0 || i == len(s)-1 {
		return 0, "", fmt.Errorf("--tty %q: want index=path", s)
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil || n < 0 {
		return 0, "", fmt.Errorf("--tty %q: bad index", s)
	}
	return n, s[i+1:], nil
}
