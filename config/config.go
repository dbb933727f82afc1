// Package config holds the machine configuration.
//
// A configuration file is TOML; every key is optional and falls back to
// its default:
//
//	memory_size       = 1024
//	instruction_delay = "200ms"
//	timer_interval    = "200ms"
//	keyboard_interval = "1s"
//	screen_interval   = "500ms"
//	quantum           = 5
//	verbose           = false
//
// The quantum counts timer ticks. With a non-zero instruction delay the
// timer ticks once per instruction, so a quantum is that many
// instructions; an unset timer_interval follows instruction_delay. A zero
// delay runs the CPU flat out, and the quantum becomes a wall clock
// slice of quantum * timer_interval.
package config

import (
	"io"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/spf13/afero"

	"github.com/ezrec/calos/ram"
	"github.com/ezrec/calos/translate"
)

var f = translate.From

var (
	ErrMemorySize = translate.Error("memory size too small for the device window")
	ErrInterval   = translate.Error("intervals must be positive")
	ErrQuantum    = translate.Error("quantum must be positive")
	ErrTimer      = translate.Error("timer interval must match the instruction delay")
)

// ErrKeys reports configuration keys that are not recognized.
type ErrKeys []string

func (err ErrKeys) Error() string {
	return f("unknown configuration keys %v", []string(err))
}

// ErrFile reports a configuration file that could not be used.
type ErrFile struct {
	Path string
	Err  error
}

func (err *ErrFile) Error() string {
	return f("%v: %v", err.Path, err.Err)
}

func (err *ErrFile) Unwrap() error {
	return err.Err
}

// Config is the machine configuration.
type Config struct {
	MemorySize       int           `toml:"memory_size"`       // Words of memory.
	InstructionDelay time.Duration `toml:"instruction_delay"` // Pause between instructions.
	TimerInterval    time.Duration `toml:"timer_interval"`    // Timer tick period.
	KeyboardInterval time.Duration `toml:"keyboard_interval"` // Keyboard poll period.
	ScreenInterval   time.Duration `toml:"screen_interval"`   // Screen poll period.
	Quantum          int           `toml:"quantum"`           // Timer ticks per process turn.
	Verbose          bool          `toml:"verbose"`           // Trace every instruction.
}

// Default returns the default configuration. The devices poll more
// slowly than the CPU executes.
func Default() (cfg Config) {
	cfg = Config{
		MemorySize:       ram.RAM_SIZE,
		InstructionDelay: 200 * time.Millisecond,
		TimerInterval:    200 * time.Millisecond,
		KeyboardInterval: time.Second,
		ScreenInterval:   500 * time.Millisecond,
		Quantum:          5,
	}
	return
}

// Validate checks the configuration is usable.
func (cfg Config) Validate() (err error) {
	switch {
	case cfg.MemorySize < ram.RAM_SIZE:
		err = ErrMemorySize
	case cfg.InstructionDelay < 0:
		err = ErrInterval
	case cfg.TimerInterval <= 0, cfg.KeyboardInterval <= 0, cfg.ScreenInterval <= 0:
		err = ErrInterval
	case cfg.InstructionDelay > 0 && cfg.TimerInterval != cfg.InstructionDelay:
		err = ErrTimer
	case cfg.Quantum <= 0:
		err = ErrQuantum
	}
	return
}

// SetDelay sets the pause between instructions. A non-zero delay also
// sets the timer interval, keeping one timer tick per instruction.
func (cfg *Config) SetDelay(delay time.Duration) {
	cfg.InstructionDelay = delay
	if delay > 0 {
		cfg.TimerInterval = delay
	}
}

// Decode a TOML configuration over the defaults.
func Decode(r io.Reader) (cfg Config, err error) {
	cfg = Default()

	md, err := toml.NewDecoder(r).Decode(&cfg)
	if err != nil {
		return
	}

	if !md.IsDefined("timer_interval") {
		cfg.SetDelay(cfg.InstructionDelay)
	}

	if undecoded := md.Undecoded(); len(undecoded) != 0 {
		keys := ErrKeys{}
		for _, key := range undecoded {
			keys = append(keys, key.String())
		}
		err = keys
		return
	}

	err = cfg.Validate()
	return
}

// Load the configuration file at path.
func Load(fs afero.Fs, path string) (cfg Config, err error) {
	defer func() {
		if err != nil {
			err = &ErrFile{Path: path, Err: err}
		}
	}()

	inf, err := fs.Open(path)
	if err != nil {
		return
	}
	defer inf.Close()

	return Decode(inf)
}

// Write the configuration as TOML.
func (cfg Config) Write(w io.Writer) (err error) {
	err = toml.NewEncoder(w).Encode(cfg)
	return
}
