// panel-cli runs panel on in-memory display and touch, driven by typed commands.
// Useful to try layouts and feeds without hardware.
package main

import (
	"flag"
	"image"
	"os"

	"github.com/temoto/touchpanel/hardware/display"
	"github.com/temoto/touchpanel/hardware/touch"
	"github.com/temoto/touchpanel/helpers/cli"
	"github.com/temoto/touchpanel/log2"
	"github.com/temoto/touchpanel/state"
)

var log = log2.NewStderr(log2.LDebug)

func main() {
	cmdline := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	configPath := cmdline.String("config", "", "layout from config file, hardware section is ignored")
	width := cmdline.Int("width", state.DefaultMockWidth, "")
	height := cmdline.Int("height", state.DefaultMockHeight, "")
	_ = cmdline.Parse(os.Args[1:])

	log.SetFlags(log2.LInteractiveFlags)

	config := new(state.Config)
	if *configPath != "" {
		config = state.MustReadConfig(log, state.NewOsFullReader(), *configPath)
	}
	s, err := newSession(config, image.Pt(*width, *height), log)
	if err != nil {
		log.Fatal(err)
	}
	cli.MainLoop("panel-cli", s.exec, s.complete, s.stop)
}

// mockHardware returns in-memory devices, touch raw units equal screen pixels.
func mockHardware(config *state.Config, size image.Point) (*display.Mock, *touch.Mock) {
	tc := &config.Hardware.Touch
	tc.X0, tc.X1, tc.Y0, tc.Y1 = 0, size.X, 0, size.Y
	tc.SwapXY = false
	tc.ZMin, tc.ZMax = 1, 4095
	return display.NewMock(size), touch.NewMock(true)
}
