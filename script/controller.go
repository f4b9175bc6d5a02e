// Package script runs externally supplied NPC controllers written in tengo.
// A controller script reads the `obs` observation global each tick and
// assigns a discrete action index to a top-level `action` variable; the host
// validates the index. Script failures degrade to the idle action.
package script

import (
	_ "embed"
	"fmt"
	"os"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

//go:embed rusher.tengo
var defaultSource []byte

// DefaultSource returns the embedded example controller.
func DefaultSource() []byte {
	return defaultSource
}

// Observation is the per-tick snapshot handed to the script.
type Observation struct {
	Health        float64
	MaxHealth     float64
	Ammo          int
	PosX, PosZ    float64
	Yaw           float64
	TargetX       float64
	TargetZ       float64
	TargetVisible bool
	Distance      float64
	State         string
	Now           float64
}

// Controller owns one compiled tengo script.
type Controller struct {
	name string
	path string // empty for in-memory sources
	logf func(format string, args ...any)

	mu       sync.Mutex
	compiled *tengo.Compiled
}

// NewController loads and compiles a controller script from disk.
func NewController(path string, logf func(format string, args ...any)) (*Controller, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading controller script: %w", err)
	}
	c := &Controller{name: path, path: path, logf: logf}
	if err := c.compile(src); err != nil {
		return nil, err
	}
	return c, nil
}

// NewControllerFromSource compiles an in-memory controller script.
func NewControllerFromSource(name string, src []byte, logf func(format string, args ...any)) (*Controller, error) {
	c := &Controller{name: name, logf: logf}
	if err := c.compile(src); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Controller) compile(src []byte) error {
	s := tengo.NewScript(src)
	if err := s.Add("obs", map[string]interface{}{}); err != nil {
		return err
	}
	s.SetImports(stdlib.GetModuleMap(stdlib.AllModuleNames()...))

	compiled, err := s.Compile()
	if err != nil {
		return fmt.Errorf("compiling %s: %w", c.name, err)
	}
	c.mu.Lock()
	c.compiled = compiled
	c.mu.Unlock()
	return nil
}

// Reload recompiles the script from its file. In-memory controllers and
// failed reads keep the previous compilation.
func (c *Controller) Reload() error {
	if c.path == "" {
		return nil
	}
	src, err := os.ReadFile(c.path)
	if err != nil {
		return fmt.Errorf("re-reading controller script: %w", err)
	}
	return c.compile(src)
}

// Decide runs the script against one observation and returns the chosen
// action index. Any runtime failure is logged and reads as idle (0).
func (c *Controller) Decide(o Observation) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	obs := &tengo.ImmutableMap{Value: map[string]tengo.Object{
		"health":         &tengo.Float{Value: o.Health},
		"max_health":     &tengo.Float{Value: o.MaxHealth},
		"ammo":           &tengo.Int{Value: int64(o.Ammo)},
		"x":              &tengo.Float{Value: o.PosX},
		"z":              &tengo.Float{Value: o.PosZ},
		"yaw":            &tengo.Float{Value: o.Yaw},
		"target_x":       &tengo.Float{Value: o.TargetX},
		"target_z":       &tengo.Float{Value: o.TargetZ},
		"target_visible": boolObj(o.TargetVisible),
		"distance":       &tengo.Float{Value: o.Distance},
		"state":          &tengo.String{Value: o.State},
		"now":            &tengo.Float{Value: o.Now},
	}}
	if err := c.compiled.Set("obs", obs); err != nil {
		c.log("script %s: setting observation: %v", c.name, err)
		return 0
	}
	if err := c.compiled.Run(); err != nil {
		c.log("script %s: %v", c.name, err)
		return 0
	}
	if !c.compiled.IsDefined("action") {
		c.log("script %s: no action assigned", c.name)
		return 0
	}
	return int(c.compiled.Get("action").Int())
}

func (c *Controller) log(format string, args ...any) {
	if c.logf != nil {
		c.logf(format, args...)
	}
}

func boolObj(b bool) tengo.Object {
	if b {
		return tengo.TrueValue
	}
	return tengo.FalseValue
}
