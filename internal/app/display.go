package app

import (
	"fmt"
	"image"
	"log"
	"sync"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	"periph.io/x/conn/v3/i2c/i2creg"
	"periph.io/x/devices/v3/ssd1306"
	"periph.io/x/devices/v3/ssd1306/image1bit"
	"periph.io/x/host/v3"

	"github.com/relabs-tech/imu6050/internal/config"
	"github.com/relabs-tech/imu6050/internal/gps"
	"github.com/relabs-tech/imu6050/internal/imu"
	"github.com/relabs-tech/imu6050/internal/orientation"
)

const (
	displayW    = 128
	displayH    = 64
	lineSpacing = 13
)

// screen is the part of *ssd1306.Dev the display loop uses.
type screen interface {
	Bounds() image.Rectangle
	Draw(r image.Rectangle, src image.Image, sp image.Point) error
}

// DisplayData holds the latest data for display
type DisplayData struct {
	mu sync.RWMutex

	imuRaw  imu.IMURaw
	haveIMU bool

	pose     orientation.Pose
	havePose bool

	fix     gps.Fix
	haveGPS bool
}

func (d *DisplayData) setIMU(r imu.IMURaw) {
	d.mu.Lock()
	d.imuRaw, d.haveIMU = r, true
	d.mu.Unlock()
}

func (d *DisplayData) setPose(p orientation.Pose) {
	d.mu.Lock()
	d.pose, d.havePose = p, true
	d.mu.Unlock()
}

func (d *DisplayData) setFix(f gps.Fix) {
	d.mu.Lock()
	d.fix, d.haveGPS = f, true
	d.mu.Unlock()
}

// render draws the configured content from the current data.
func (d *DisplayData) render(content string) (*image1bit.VerticalLSB, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	switch content {
	case "imu_raw":
		return renderIMURaw(d.imuRaw, d.haveIMU), nil
	case "orientation":
		return renderOrientation(d.pose, d.havePose), nil
	case "gps":
		return renderGPS(d.fix, d.haveGPS), nil
	}
	return nil, fmt.Errorf("unknown display content type: %s", content)
}

func RunDisplay() error {
	cfg := config.Get()

	// Initialize periph
	if _, err := host.Init(); err != nil {
		return fmt.Errorf("failed to initialize periph: %w", err)
	}

	bus, err := i2creg.Open(cfg.I2CBus)
	if err != nil {
		return fmt.Errorf("failed to open I2C bus: %w", err)
	}
	defer bus.Close()

	dev, err := ssd1306.NewI2C(bus, &ssd1306.DefaultOpts)
	if err != nil {
		return fmt.Errorf("failed to initialize display: %w", err)
	}
	log.Printf("display: SSD1306 initialized on %s", bus)

	if err := show(dev, renderLines("MPU-6050", "Waiting for", "producer")); err != nil {
		log.Printf("display: error showing splash: %v", err)
	}

	data := &DisplayData{}

	client, err := connectMQTT(cfg.MQTTBroker, cfg.MQTTClientIDDisplay)
	if err != nil {
		return err
	}
	defer client.Disconnect(250)

	switch cfg.DisplayContent {
	case "imu_raw":
		err = subscribeJSON(client, cfg.TopicIMU, "display", data.setIMU)
	case "orientation":
		err = subscribeJSON(client, cfg.TopicPose, "display", data.setPose)
	case "gps":
		err = subscribeJSON(client, cfg.TopicGPS, "display", data.setFix)
	default:
		err = fmt.Errorf("unknown display content type: %s", cfg.DisplayContent)
	}
	if err != nil {
		return err
	}

	ticker := time.NewTicker(time.Duration(cfg.DisplayUpdateInterval) * time.Millisecond)
	defer ticker.Stop()

	log.Println("display: starting update loop")

	for range ticker.C {
		img, err := data.render(cfg.DisplayContent)
		if err != nil {
			return err
		}
		if err := show(dev, img); err != nil {
			log.Printf("display: error updating display: %v", err)
		}
	}

	return nil
}

func show(dev screen, img image.Image) error {
	return dev.Draw(dev.Bounds(), img, image.Point{})
}

// renderLines draws up to four lines of 7x13 text on a blank frame.
func renderLines(lines ...string) *image1bit.VerticalLSB {
	img := image1bit.NewVerticalLSB(image.Rect(0, 0, displayW, displayH))

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{image1bit.On},
		Face: basicfont.Face7x13,
	}
	for i, line := range lines {
		drawer.Dot = fixed.P(0, (i+1)*lineSpacing)
		drawer.DrawString(line)
	}
	return img
}

func renderIMURaw(raw imu.IMURaw, haveData bool) *image1bit.VerticalLSB {
	if !haveData {
		return renderLines("", "IMU", "Waiting...")
	}
	return renderLines(
		fmt.Sprintf("A:%6d%6d", raw.Ax, raw.Ay),
		fmt.Sprintf("  %6d", raw.Az),
		fmt.Sprintf("G:%6d%6d", raw.Gx, raw.Gy),
		fmt.Sprintf("  %6d %4.1fC", raw.Gz, raw.TempC),
	)
}

func renderOrientation(pose orientation.Pose, haveData bool) *image1bit.VerticalLSB {
	if !haveData {
		return renderLines("", "Orientation", "Waiting...")
	}
	return renderLines(
		fmt.Sprintf("R: %6.1f", pose.Roll),
		fmt.Sprintf("P: %6.1f", pose.Pitch),
	)
}

func renderGPS(fix gps.Fix, haveData bool) *image1bit.VerticalLSB {
	if !haveData {
		return renderLines("", "GPS Position", "Waiting...")
	}

	latDir, lat := "N", fix.Latitude
	if lat < 0 {
		latDir, lat = "S", -lat
	}
	lonDir, lon := "E", fix.Longitude
	if lon < 0 {
		lonDir, lon = "W", -lon
	}
	return renderLines(
		fmt.Sprintf("%.4f%s", lat, latDir),
		fmt.Sprintf("%.4f%s", lon, lonDir),
		fmt.Sprintf("%.1fkn %.0f", fix.SpeedKnots, fix.CourseDeg),
		"Fix: "+fix.Validity,
	)
}
