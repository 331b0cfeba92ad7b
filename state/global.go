package state

import (
	"time"

	"github.com/juju/errors"
	"github.com/temoto/alive/v2"
	"github.com/temoto/touchpanel/feed"
	"github.com/temoto/touchpanel/hardware/display"
	"github.com/temoto/touchpanel/hardware/touch"
	"github.com/temoto/touchpanel/helpers"
	"github.com/temoto/touchpanel/log2"
	"github.com/temoto/touchpanel/panel"
	"github.com/temoto/touchpanel/widget"
)

// Global is everything one running panel process owns.
type Global struct {
	Alive  *alive.Alive
	Config *Config
	Log    *log2.Log
	Panel  *panel.Panel
	Clock  *feed.Clock
	MQTT   *feed.MQTT
}

func NewGlobal(log *log2.Log) *Global {
	return &Global{
		Alive: alive.NewAlive(),
		Log:   log,
	}
}

// Init opens hardware from config and builds panel.
// If `Init` fails, consider `Global` is in broken state.
func (g *Global) Init(cfg *Config) error {
	disp, err := g.openDisplay(cfg)
	if err != nil {
		return errors.Annotate(err, "display")
	}
	tch, err := g.openTouch(cfg)
	if err != nil {
		disp.Close()
		return errors.Annotate(err, "touch")
	}
	return g.InitWith(cfg, disp, tch)
}

func (g *Global) MustInit(cfg *Config) {
	err := g.Init(cfg)
	if err != nil {
		g.Log.Fatal(errors.ErrorStack(err))
	}
}

// InitWith builds panel over given hardware, tch may be nil.
func (g *Global) InitWith(cfg *Config, disp display.Device, tch touch.Device) error {
	g.Config = cfg

	panelLog := g.Log.Clone(log2.LInfo)
	if cfg.Panel.LogDebug {
		panelLog.SetLevel(log2.LDebug)
	}
	g.Panel = panel.New(g.panelConfig(cfg), disp, tch, panelLog)

	errs := make([]error, 0)
	for _, w := range cfg.Widgets {
		if err := g.addWidget(w); err != nil {
			errs = append(errs, err)
		}
	}
	for _, pg := range cfg.Paging {
		g.Panel.AddPagingButtons(pg.PrevCol, pg.PrevRow, pg.NextCol, pg.NextRow, pg.Page)
	}

	if cfg.Feed.Clock {
		g.Clock = feed.NewClock(g.Log)
	}
	if cfg.Feed.Mqtt.Enable {
		m, err := feed.NewMQTT(cfg.Feed.Mqtt.MQTTConfig, g.Panel, g.Log)
		if err != nil {
			errs = append(errs, errors.Annotate(err, "feed mqtt"))
		} else {
			g.MQTT = m
			g.Panel.OnUnhandledClick(m.PublishClick)
		}
	}
	return helpers.FoldErrors(errs)
}

func (g *Global) panelConfig(cfg *Config) panel.Config {
	pc := panel.DefaultConfig()
	if cfg.Panel.Cols > 0 {
		pc.Cols = cfg.Panel.Cols
	}
	if cfg.Panel.Rows > 0 {
		pc.Rows = cfg.Panel.Rows
	}
	pc.FrameInterval = helpers.IntMillisecondDefault(cfg.Panel.FrameMs, panel.DefaultFrameInterval)
	pc.IdleInterval = helpers.IntMillisecondDefault(cfg.Panel.IdleMs, panel.DefaultIdleInterval)
	if cfg.Panel.IdleText != "" {
		pc.IdleText = cfg.Panel.IdleText
	}
	tc := &cfg.Hardware.Touch
	if tc.X1 != tc.X0 && tc.Y1 != tc.Y0 {
		pc.Calibration = touch.Calibration{
			RawX0:  tc.X0,
			RawX1:  tc.X1,
			RawY0:  tc.Y0,
			RawY1:  tc.Y1,
			SwapXY: tc.SwapXY,
			ZMin:   tc.ZMin,
			ZMax:   tc.ZMax,
		}
		if pc.Calibration.ZMin == 0 {
			pc.Calibration.ZMin = touch.DefaultCalibration().ZMin
		}
		if pc.Calibration.ZMax == 0 {
			pc.Calibration.ZMax = touch.DefaultCalibration().ZMax
		}
	}
	return pc
}

func (g *Global) addWidget(w *WidgetConfig) error {
	p := g.Panel
	switch w.Kind {
	case widget.KindButton:
		p.AddButton(w.ID, w.Label, w.Col, w.Row, w.ColSpan, w.RowSpan, w.Page).SetState(w.State)
	case widget.KindLight:
		p.AddLight(w.ID, w.Label, w.Col, w.Row, w.ColSpan, w.RowSpan, w.Page).SetState(w.State)
	case widget.KindClock:
		p.AddClock(w.ID, w.Col, w.Row, w.ColSpan, w.RowSpan, w.Page)
	case widget.KindAnalogClock:
		p.AddAnalogClock(w.ID, w.Col, w.Row, w.ColSpan, w.RowSpan, w.Page)
	case widget.KindEnv:
		p.AddEnv(w.ID, w.Col, w.Row, w.ColSpan, w.RowSpan, w.Page)
	case widget.KindQR:
		p.AddQR(w.ID, w.Text, w.Col, w.Row, w.ColSpan, w.RowSpan, w.Page)
	default:
		return errors.NotValidf("config: widget=%s kind=%s", w.ID, w.Kind)
	}
	return nil
}

// Start launches frame loop and feeds, returns immediately.
func (g *Global) Start() {
	clock := helpers.NewMillisClock()
	go g.Panel.Run(g.Alive, clock)
	if g.Clock != nil {
		go g.Clock.Run(g.Alive, g.Panel)
	}
	if g.MQTT != nil {
		g.MQTT.Start(g.Alive)
	}
}

// Stop waits for frame loop and feeds, then releases hardware.
func (g *Global) Stop(timeout time.Duration) error {
	g.Alive.Stop()
	select {
	case <-g.Alive.WaitChan():
	case <-time.After(timeout):
		g.Log.Errorf("stop timeout=%s", timeout)
	}
	if g.Panel == nil {
		return nil
	}
	return g.Panel.Close()
}

func (g *Global) Error(err error, args ...interface{}) {
	if err != nil {
		if len(args) != 0 {
			msg := args[0].(string)
			args = args[1:]
			err = errors.Annotatef(err, msg, args...)
		}
		g.Log.Error(errors.ErrorStack(err))
	}
}
