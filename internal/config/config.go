package config

import (
	"errors"
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/slidectl/internal/plant"
	"github.com/san-kum/slidectl/internal/slide"
)

const (
	DefaultDt          = 0.01
	DefaultDuration    = 5.0
	DefaultTarget      = 1000.0
	DefaultOutputLimit = 1.0
	DefaultIntegrator  = "rk4"
	DefaultCANIface    = "can0"
	DefaultMQTTTopic   = "slide/telemetry"
)

var ErrInvalidConfig = errors.New("config: invalid")

type Config struct {
	Integrator  string          `yaml:"integrator"`
	Dt          float64         `yaml:"dt"`
	Duration    float64         `yaml:"duration"`
	Seed        int64           `yaml:"seed"`
	Noise       float64         `yaml:"noise"`
	Start       float64         `yaml:"start"`
	Target      float64         `yaml:"target"`
	Routine     string          `yaml:"routine,omitempty"`
	OutputLimit float64         `yaml:"output_limit"`
	BrakeOnIdle bool            `yaml:"brake_on_idle"`
	Gains       GainsConfig     `yaml:"gains"`
	Bounds      BoundsConfig    `yaml:"bounds"`
	Plant       PlantConfig     `yaml:"plant"`
	Telemetry   TelemetryConfig `yaml:"telemetry"`
	CAN         CANConfig       `yaml:"can"`
	Vision      VisionConfig    `yaml:"vision"`
}

type GainsConfig struct {
	Kp float64 `yaml:"kp"`
	Ki float64 `yaml:"ki"`
	Kd float64 `yaml:"kd"`
}

type BoundsConfig struct {
	Min float64 `yaml:"min"`
	Max float64 `yaml:"max"`
}

type PlantConfig struct {
	FreeSpeed    float64 `yaml:"free_speed"`
	TimeConstant float64 `yaml:"time_constant"`
	GravitySag   float64 `yaml:"gravity_sag"`
	Travel       float64 `yaml:"travel"`
}

type TelemetryConfig struct {
	Log  bool   `yaml:"log"`
	File string `yaml:"file,omitempty"`
	// Metrics is the listen address for the Prometheus endpoint of the
	// hardware loop, e.g. ":9102". Empty disables it.
	Metrics string     `yaml:"metrics,omitempty"`
	MQTT    MQTTConfig `yaml:"mqtt"`
}

// MQTTConfig publishes telemetry frames to a broker. An empty Broker
// disables it.
type MQTTConfig struct {
	Broker   string `yaml:"broker,omitempty"`
	Topic    string `yaml:"topic"`
	ClientID string `yaml:"client_id"`
	QoS      byte   `yaml:"qos"`
}

// CANConfig addresses the slide hardware on a SocketCAN bus.
type CANConfig struct {
	Interface string  `yaml:"interface"`
	LeftID    uint32  `yaml:"left_id"`
	RightID   uint32  `yaml:"right_id"`
	EncoderID uint32  `yaml:"encoder_id"`
	Period    float64 `yaml:"period"`
}

type VisionConfig struct {
	DetectRed bool `yaml:"detect_red"`
}

func DefaultConfig() *Config {
	p := plant.NewSlide()
	return &Config{
		Integrator:  DefaultIntegrator,
		Dt:          DefaultDt,
		Duration:    DefaultDuration,
		Target:      DefaultTarget,
		OutputLimit: DefaultOutputLimit,
		BrakeOnIdle: true,
		Gains: GainsConfig{
			Kp: slide.DefaultKp,
			Ki: slide.DefaultKi,
			Kd: slide.DefaultKd,
		},
		Bounds: BoundsConfig{
			Min: slide.DefaultMinHeight,
			Max: slide.DefaultMaxHeight,
		},
		Plant: PlantConfig{
			FreeSpeed:    p.FreeSpeed,
			TimeConstant: p.TimeConstant,
			GravitySag:   p.GravitySag,
			Travel:       p.Travel,
		},
		Telemetry: TelemetryConfig{
			MQTT: MQTTConfig{Topic: DefaultMQTTTopic, ClientID: "slidectl"},
		},
		CAN: CANConfig{
			Interface: DefaultCANIface,
			LeftID:    0x101,
			RightID:   0x102,
			EncoderID: 0x201,
			Period:    DefaultDt,
		},
		Vision: VisionConfig{DetectRed: true},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func (c *Config) Validate() error {
	switch {
	case c.Dt <= 0:
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalidConfig, c.Dt)
	case c.Duration <= 0:
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalidConfig, c.Duration)
	case !finite(c.Gains.Kp, c.Gains.Ki, c.Gains.Kd):
		return fmt.Errorf("%w: gains must be finite, got kp=%g ki=%g kd=%g", ErrInvalidConfig, c.Gains.Kp, c.Gains.Ki, c.Gains.Kd)
	case c.Bounds.Min > c.Bounds.Max:
		return fmt.Errorf("%w: bounds min %g above max %g", ErrInvalidConfig, c.Bounds.Min, c.Bounds.Max)
	case c.Noise < 0:
		return fmt.Errorf("%w: noise must not be negative, got %g", ErrInvalidConfig, c.Noise)
	case c.Telemetry.MQTT.QoS > 2:
		return fmt.Errorf("%w: mqtt qos must be 0, 1 or 2, got %d", ErrInvalidConfig, c.Telemetry.MQTT.QoS)
	case c.CAN.Period <= 0:
		return fmt.Errorf("%w: can period must be positive, got %g", ErrInvalidConfig, c.CAN.Period)
	}
	if err := c.PlantModel().Check(); err != nil {
		return fmt.Errorf("%w: plant: %v", ErrInvalidConfig, err)
	}
	return nil
}

// ApplyTuning writes the configured gains and bounds into a live cell.
func (c *Config) ApplyTuning(t *slide.Tuning) error {
	if !finite(c.Gains.Kp, c.Gains.Ki, c.Gains.Kd) {
		return fmt.Errorf("%w: gains kp=%g ki=%g kd=%g", slide.ErrNonFinite, c.Gains.Kp, c.Gains.Ki, c.Gains.Kd)
	}
	if err := t.SetBounds(c.Bounds.Min, c.Bounds.Max); err != nil {
		return err
	}
	t.SetGains(c.Gains.Kp, c.Gains.Ki, c.Gains.Kd)
	return nil
}

// NewTuning returns a fresh cell holding the configured values.
func (c *Config) NewTuning() (*slide.Tuning, error) {
	t := slide.NewTuning()
	if err := c.ApplyTuning(t); err != nil {
		return nil, err
	}
	return t, nil
}

// ControllerOptions maps the output policy settings onto controller options.
func (c *Config) ControllerOptions() []slide.Option {
	opts := []slide.Option{slide.WithOutputLimit(c.OutputLimit)}
	if c.BrakeOnIdle {
		opts = append(opts, slide.WithBrakeOnIdle())
	}
	return opts
}

func (c *Config) PlantModel() *plant.Slide {
	return &plant.Slide{
		FreeSpeed:    c.Plant.FreeSpeed,
		TimeConstant: c.Plant.TimeConstant,
		GravitySag:   c.Plant.GravitySag,
		Travel:       c.Plant.Travel,
	}
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}
