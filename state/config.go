package state

import (
	"path/filepath"
	"sync"

	"github.com/hashicorp/hcl"
	"github.com/juju/errors"
	"github.com/temoto/touchpanel/feed"
	"github.com/temoto/touchpanel/helpers"
	"github.com/temoto/touchpanel/log2"
	"github.com/temoto/touchpanel/widget"
)

type Config struct {
	// includeSeen contains absolute paths to prevent include loops
	includeSeen map[string]struct{}
	// only used for Unmarshal, do not access
	XXX_Include []ConfigSource `hcl:"include"`

	Hardware struct {
		SpiBus   string `hcl:"spi_bus"`
		SpiSpeed string `hcl:"spi_speed"`
		PinChip  string `hcl:"pin_chip"`
		LogDebug bool   `hcl:"log_debug"`

		Display struct {
			Driver       string `hcl:"driver"` // ili9488 | framebuffer | mock
			FbDevice     string `hcl:"fb_device"`
			Spi          string `hcl:"spi"`
			DcPin        int    `hcl:"dc_pin"`
			RstPin       *int   `hcl:"rst_pin"`
			BacklightPin *int   `hcl:"backlight_pin"`
			Width        int    `hcl:"width"`
			Height       int    `hcl:"height"`
			Rotation     int    `hcl:"rotation"`
			Invert       bool   `hcl:"invert"`
			BGR          bool   `hcl:"bgr"`
		}
		Touch struct {
			Driver    string `hcl:"driver"` // xpt2046 | evdev | mock | none
			Device    string `hcl:"device"`
			Spi       string `hcl:"spi"`
			SpiSpeed  string `hcl:"spi_speed"`
			IrqPin    *int   `hcl:"irq_pin"`
			Threshold int    `hcl:"threshold"`
			Samples   int    `hcl:"samples"`
			X0        int    `hcl:"x0"`
			X1        int    `hcl:"x1"`
			Y0        int    `hcl:"y0"`
			Y1        int    `hcl:"y1"`
			SwapXY    bool   `hcl:"swap_xy"`
			ZMin      int    `hcl:"z_min"`
			ZMax      int    `hcl:"z_max"`
		}
	}

	Panel struct {
		Cols     int    `hcl:"cols"`
		Rows     int    `hcl:"rows"`
		FrameMs  int    `hcl:"frame_ms"`
		IdleMs   int    `hcl:"idle_ms"`
		IdleText string `hcl:"idle_text"`
		LogDebug bool   `hcl:"log_debug"`
	}

	Feed struct {
		Clock bool `hcl:"clock"`
		Mqtt  struct {
			Enable          bool `hcl:"enable"`
			feed.MQTTConfig `hcl:",squash"`
		}
	}

	Widgets []*WidgetConfig `hcl:"widget"`

	Paging []*PagingConfig `hcl:"paging"`

	_copy_guard sync.Mutex //nolint:unused
}

type ConfigSource struct {
	Name     string `hcl:"name,key"`
	Optional bool   `hcl:"optional"`
}

// PagingConfig places "<" and ">" buttons on one page.
type PagingConfig struct {
	Name    string `hcl:"name,key"`
	Page    int    `hcl:"page"`
	PrevCol int    `hcl:"prev_col"`
	PrevRow int    `hcl:"prev_row"`
	NextCol int    `hcl:"next_col"`
	NextRow int    `hcl:"next_row"`
}

type WidgetConfig struct {
	ID      string `hcl:"id,key"`
	Kind    string `hcl:"kind"`
	Label   string `hcl:"label"`
	Text    string `hcl:"text"`
	Col     int    `hcl:"col"`
	Row     int    `hcl:"row"`
	ColSpan int    `hcl:"colspan"`
	RowSpan int    `hcl:"rowspan"`
	Page    int    `hcl:"page"`
	State   bool   `hcl:"state"`
}

func (c *Config) read(log *log2.Log, fs FullReader, source ConfigSource, errs *[]error) {
	norm := fs.Normalize(source.Name)
	if _, ok := c.includeSeen[norm]; ok {
		log.Fatalf("config duplicate source=%s", source.Name)
	} else {
		log.Debugf("config reading source='%s' path=%s", source.Name, norm)
	}
	c.includeSeen[source.Name] = struct{}{}
	c.includeSeen[norm] = struct{}{}

	bs, err := fs.ReadAll(norm)
	if bs == nil && err == nil {
		if !source.Optional {
			err = errors.NotFoundf("config required name=%s path=%s", source.Name, norm)
			*errs = append(*errs, err)
			return
		}
	}
	if err != nil {
		*errs = append(*errs, errors.Annotatef(err, "config source=%s", source.Name))
		return
	}

	err = hcl.Unmarshal(bs, c)
	if err != nil {
		err = errors.Annotatef(err, "config unmarshal source=%s content='%s'", source.Name, string(bs))
		*errs = append(*errs, err)
		return
	}

	var includes []ConfigSource
	includes, c.XXX_Include = c.XXX_Include, nil
	for _, include := range includes {
		includeNorm := fs.Normalize(include.Name)
		if _, ok := c.includeSeen[includeNorm]; ok {
			err = errors.Errorf("config include loop: from=%s include=%s", source.Name, include.Name)
			*errs = append(*errs, err)
			continue
		}
		c.read(log, fs, include, errs)
	}
}

// validate checks what hcl types can not express.
func (c *Config) validate() error {
	errs := make([]error, 0, 4)
	switch c.Hardware.Display.Driver {
	case "", "mock", "framebuffer", "ili9488":
	default:
		errs = append(errs, errors.NotValidf("config: hardware.display.driver=%s valid: ili9488, framebuffer, mock", c.Hardware.Display.Driver))
	}
	switch c.Hardware.Touch.Driver {
	case "", "none", "mock", "evdev", "xpt2046":
	default:
		errs = append(errs, errors.NotValidf("config: hardware.touch.driver=%s valid: xpt2046, evdev, mock, none", c.Hardware.Touch.Driver))
	}
	if r := c.Hardware.Display.Rotation; r < 0 || r > 3 {
		errs = append(errs, errors.NotValidf("config: hardware.display.rotation=%d valid: 0..3", r))
	}
	if c.Panel.Cols < 0 || c.Panel.Rows < 0 {
		errs = append(errs, errors.NotValidf("config: panel cols=%d rows=%d", c.Panel.Cols, c.Panel.Rows))
	}
	seen := make(map[string]struct{}, len(c.Widgets))
	for _, w := range c.Widgets {
		switch w.Kind {
		case widget.KindButton, widget.KindLight, widget.KindClock, widget.KindAnalogClock, widget.KindEnv, widget.KindQR:
		default:
			errs = append(errs, errors.NotValidf("config: widget=%s kind=%s", w.ID, w.Kind))
		}
		// duplicate ids are allowed by panel but most likely a typo
		if _, ok := seen[w.ID]; ok {
			errs = append(errs, errors.NotValidf("config: widget=%s duplicate", w.ID))
		}
		seen[w.ID] = struct{}{}
	}
	pagingSeen := make(map[int]string, len(c.Paging))
	for _, pg := range c.Paging {
		if other, ok := pagingSeen[pg.Page]; ok {
			errs = append(errs, errors.NotValidf("config: paging=%s page=%d already used by paging=%s", pg.Name, pg.Page, other))
		}
		pagingSeen[pg.Page] = pg.Name
	}
	return helpers.FoldErrors(errs)
}

func ReadConfig(log *log2.Log, fs FullReader, names ...string) (*Config, error) {
	if len(names) == 0 {
		log.Fatal("code error [Must]ReadConfig() without names")
	}

	if osfs, ok := fs.(*OsFullReader); ok {
		dir, name := filepath.Split(names[0])
		osfs.SetBase(dir)
		names[0] = name
	}
	c := &Config{
		includeSeen: make(map[string]struct{}),
	}
	errs := make([]error, 0, 8)
	for _, name := range names {
		c.read(log, fs, ConfigSource{Name: name}, &errs)
	}
	if len(errs) == 0 {
		if err := c.validate(); err != nil {
			errs = append(errs, err)
		}
	}
	return c, helpers.FoldErrors(errs)
}

func MustReadConfig(log *log2.Log, fs FullReader, names ...string) *Config {
	c, err := ReadConfig(log, fs, names...)
	if err != nil {
		log.Fatal(errors.ErrorStack(err))
	}
	return c
}
