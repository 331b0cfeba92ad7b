package main

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strconv"
	"strings"
	"time"

	prompt "github.com/c-bata/go-prompt"
	"github.com/juju/errors"
	"github.com/temoto/touchpanel/feed"
	"github.com/temoto/touchpanel/hardware/display"
	"github.com/temoto/touchpanel/hardware/touch"
	"github.com/temoto/touchpanel/helpers"
	"github.com/temoto/touchpanel/log2"
	"github.com/temoto/touchpanel/panel"
	"github.com/temoto/touchpanel/state"
)

const usage = `syntax: one command per line
(input)
- tap X Y          press at screen X,Y for one frame, then release
- hold X Y         press and keep holding
- release          release touch
(feeds)
- time HH:MM:SS    set clocks
- env T H          set temperature and humidity
- state ID on|off  set button/light state
- qr ID TEXT       set QR payload
- page next|prev|N switch page
- sleep on|off     request display sleep/wake
(frames)
- step [N]         run N frames (default 1)
(inspect)
- stat             panel counters
- ops              display calls since last ops, then forget them
- show             draw screen in terminal
- png FILE         save screen as PNG
- widgets          list grid cells and widgets
`

type session struct {
	log   *log2.Log
	g     *state.Global
	disp  *display.Mock
	touch *touch.Mock
	now   helpers.Millis
	frame time.Duration
}

func newSession(config *state.Config, size image.Point, log *log2.Log) (*session, error) {
	disp, tch := mockHardware(config, size)
	g := state.NewGlobal(log)
	if err := g.InitWith(config, disp, tch); err != nil {
		return nil, err
	}
	s := &session{
		log:   log,
		g:     g,
		disp:  disp,
		touch: tch,
		frame: g.Panel.Config().FrameInterval,
	}
	g.Panel.OnUnhandledClick(func(id string) { log.Infof("click id=%s", id) })
	s.step(1)
	return s, nil
}

func (s *session) step(n int) {
	for i := 0; i < n; i++ {
		s.g.Panel.Step(s.now)
		s.now = s.now.Add(s.frame)
	}
}

func (s *session) stop() {
	if err := s.g.Stop(time.Second); err != nil {
		s.log.Error(errors.ErrorStack(err))
	}
}

func (s *session) exec(line string) {
	if err := s.run(line); err != nil {
		s.log.Error(errors.ErrorStack(err))
	}
}

func (s *session) run(line string) error {
	words := strings.Fields(line)
	if len(words) == 0 {
		return nil
	}
	cmd, args := words[0], words[1:]
	p := s.g.Panel
	switch cmd {
	case "help", "?":
		s.log.Infof("%s", usage)

	case "tap", "hold":
		x, y, err := parseXY(args)
		if err != nil {
			return err
		}
		s.touch.Touch(touch.Raw{X: x, Y: y, Z: 1000})
		s.step(1)
		if cmd == "tap" {
			s.touch.Release()
		}

	case "release":
		s.touch.Release()
		s.step(1)

	case "time":
		h, m, sec, err := feed.ParseTime([]byte(strings.Join(args, "")))
		if err != nil {
			return err
		}
		p.Post(func(p *panel.Panel) { p.SetTime(h, m, sec) })
		s.step(1)

	case "env":
		t, h, err := feed.ParseEnv([]byte(strings.Join(args, " ")))
		if err != nil {
			return err
		}
		p.Post(func(p *panel.Panel) { p.SetEnv(t, h) })
		s.step(1)

	case "state":
		if len(args) != 2 {
			return errors.NotValidf("state args=%v", args)
		}
		on, err := feed.ParseOnOff([]byte(args[1]))
		if err != nil {
			return err
		}
		id := args[0]
		p.Post(func(p *panel.Panel) { p.SetButtonState(id, on) })
		s.step(1)

	case "qr":
		if len(args) < 2 {
			return errors.NotValidf("qr args=%v", args)
		}
		id, text := args[0], strings.Join(args[1:], " ")
		p.Post(func(p *panel.Panel) { p.SetQRText(id, text) })
		s.step(1)

	case "page":
		c, err := feed.ParsePage([]byte(strings.Join(args, "")))
		if err != nil {
			return err
		}
		switch {
		case c.Next:
			p.NextPage()
		case c.Prev:
			p.PrevPage()
		default:
			p.SetPage(c.Page)
		}
		s.step(1)

	case "sleep":
		on, err := feed.ParseOnOff([]byte(strings.Join(args, "")))
		if err != nil {
			return err
		}
		p.RequestSleep(on)
		s.step(1)

	case "step":
		n := 1
		if len(args) == 1 {
			var err error
			if n, err = strconv.Atoi(args[0]); err != nil || n < 0 {
				return errors.NotValidf("step=%s", args[0])
			}
		}
		s.step(n)

	case "stat":
		s.log.Infof("power=%s page=%d %s", p.PowerState(), p.Page(), p.Stat().String())
		s.log.Infof("bus %s", p.Bus().Stat().String())

	case "ops":
		for _, op := range s.disp.Ops() {
			s.log.Infof("%s", op.String())
		}
		s.disp.ResetOps()

	case "show":
		fmt.Print(s.disp.String2())

	case "png":
		if len(args) != 1 {
			return errors.NotValidf("png args=%v", args)
		}
		return s.savePNG(args[0])

	case "widgets":
		grid := p.Grid()
		s.log.Infof("grid cols=%d rows=%d area=%s", grid.Cols, grid.Rows, grid.Area)
		for i, cell := range grid.Cells() {
			s.log.Infof("cell col=%d row=%d %s", i%grid.Cols, i/grid.Cols, cell)
		}
		for _, w := range p.Widgets() {
			s.log.Infof("%s id=%s page=%d bounds=%s", w.Kind(), w.ID(), w.Page(), w.Bounds())
		}

	default:
		return errors.NotSupportedf("command=%s (try help)", cmd)
	}
	return nil
}

func parseXY(args []string) (int, int, error) {
	if len(args) != 2 {
		return 0, 0, errors.NotValidf("expected X Y args=%v", args)
	}
	x, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, 0, errors.Annotate(err, "X")
	}
	y, err := strconv.Atoi(args[1])
	if err != nil {
		return 0, 0, errors.Annotate(err, "Y")
	}
	return x, y, nil
}

func (s *session) savePNG(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Trace(err)
	}
	if err = png.Encode(f, s.disp.Image()); err != nil {
		f.Close()
		return errors.Annotatef(err, "png path=%s", path)
	}
	return errors.Trace(f.Close())
}

func (s *session) complete(d prompt.Document) []prompt.Suggest {
	suggests := []prompt.Suggest{
		{Text: "tap", Description: "tap X Y"},
		{Text: "hold", Description: "press X Y until release"},
		{Text: "release", Description: "release touch"},
		{Text: "time", Description: "set clocks HH:MM:SS"},
		{Text: "env", Description: "set env T H"},
		{Text: "state", Description: "state ID on|off"},
		{Text: "qr", Description: "qr ID TEXT"},
		{Text: "page", Description: "next|prev|N"},
		{Text: "sleep", Description: "on|off"},
		{Text: "step", Description: "run N frames"},
		{Text: "stat", Description: "panel counters"},
		{Text: "ops", Description: "display calls"},
		{Text: "show", Description: "draw screen in terminal"},
		{Text: "png", Description: "save screen as PNG"},
		{Text: "widgets", Description: "list widgets"},
		{Text: "help", Description: "usage"},
	}
	return prompt.FilterHasPrefix(suggests, d.GetWordBeforeCursor(), true)
}
