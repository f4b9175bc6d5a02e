// Package arena models the combat arena: bounds, the obstacle and spawn
// registries, and the collision oracle used for line-of-sight queries.
//
// Collision lives on the XZ ground plane. The oracle is a chipmunk space
// holding one static box per obstacle and one kinematic circle per
// registered actor; raycasts are segment queries against that space.
package arena

import (
	"math/rand"

	"github.com/jakecoffman/cp"

	"github.com/pthm-cable/skirmish/config"
	"github.com/pthm-cable/skirmish/geom"
)

// ActorID identifies a dynamic actor registered with the oracle. Zero is
// reserved for "no actor".
type ActorID uint64

// Obstacle is an axis-aligned box the level placed in the arena.
type Obstacle struct {
	Pos    geom.Vec3 // center, on the ground plane
	Width  float64   // extent along X
	Depth  float64   // extent along Z
	Height float64
}

// Hit is the result of an obstruction query.
type Hit struct {
	Hit    bool    // something was struck within range
	Actor  ActorID // nonzero when the struck shape is a registered actor
	Point  geom.Vec3
	Normal geom.Vec3
}

type actor struct {
	body  *cp.Body
	shape *cp.Shape
}

// Arena owns the collision space and the level registries.
type Arena struct {
	size   float64
	half   float64
	margin float64

	space     *cp.Space
	obstacles []Obstacle
	spawns    []geom.Vec3
	actors    map[ActorID]*actor
}

// New generates an arena from config: random obstacles and a ring of spawn
// points, all inside bounds.
func New(cfg *config.Config, rng *rand.Rand) *Arena {
	a := &Arena{
		size:   cfg.Arena.Size,
		half:   cfg.Derived.HalfSize,
		margin: cfg.Arena.Margin,
		space:  cp.NewSpace(),
		actors: make(map[ActorID]*actor),
	}

	for i := 0; i < cfg.Arena.ObstacleCount; i++ {
		w := cfg.Arena.ObstacleMinSize + rng.Float64()*(cfg.Arena.ObstacleMaxSize-cfg.Arena.ObstacleMinSize)
		d := cfg.Arena.ObstacleMinSize + rng.Float64()*(cfg.Arena.ObstacleMaxSize-cfg.Arena.ObstacleMinSize)
		pos := a.RandomPoint(rng)
		a.AddObstacle(Obstacle{Pos: pos, Width: w, Depth: d, Height: cfg.Arena.ObstacleHeight})
	}

	// Spawn points sit just inside the walls, evenly spread around the edge.
	n := cfg.Arena.SpawnPoints
	if n < 1 {
		n = 1
	}
	for i := 0; i < n; i++ {
		frac := float64(i) / float64(n)
		edge := a.half - a.margin
		var p geom.Vec3
		switch i % 4 {
		case 0:
			p = geom.Vec3{X: -edge + 2*edge*frac, Y: 1, Z: -edge}
		case 1:
			p = geom.Vec3{X: edge, Y: 1, Z: -edge + 2*edge*frac}
		case 2:
			p = geom.Vec3{X: edge - 2*edge*frac, Y: 1, Z: edge}
		default:
			p = geom.Vec3{X: -edge, Y: 1, Z: edge - 2*edge*frac}
		}
		a.spawns = append(a.spawns, p)
	}

	return a
}

// NewEmpty creates an arena with no generated content. Obstacles and spawn
// points are added explicitly; tests use this for fixed layouts.
func NewEmpty(size, margin float64) *Arena {
	return &Arena{
		size:   size,
		half:   size / 2,
		margin: margin,
		space:  cp.NewSpace(),
		actors: make(map[ActorID]*actor),
	}
}

// AddObstacle registers an obstacle and adds its static collision box.
func (a *Arena) AddObstacle(o Obstacle) {
	a.obstacles = append(a.obstacles, o)
	bb := cp.BB{
		L: o.Pos.X - o.Width/2,
		B: o.Pos.Z - o.Depth/2,
		R: o.Pos.X + o.Width/2,
		T: o.Pos.Z + o.Depth/2,
	}
	shape := cp.NewBox2(a.space.StaticBody, bb, 0)
	a.space.AddShape(shape)
}

// AddSpawnPoint registers a candidate spawn position.
func (a *Arena) AddSpawnPoint(p geom.Vec3) {
	a.spawns = append(a.spawns, p)
}

// Obstacles returns the obstacle registry. Callers must not mutate it.
func (a *Arena) Obstacles() []Obstacle {
	return a.obstacles
}

// SpawnPoints returns the spawn registry. Callers must not mutate it.
func (a *Arena) SpawnPoints() []geom.Vec3 {
	return a.spawns
}

// SpawnFarFrom picks a random spawn point at least minDist from `from`,
// falling back to any known spawn point if none qualify.
func (a *Arena) SpawnFarFrom(rng *rand.Rand, from geom.Vec3, minDist float64) geom.Vec3 {
	if len(a.spawns) == 0 {
		return a.RandomPoint(rng)
	}
	var far []geom.Vec3
	for _, p := range a.spawns {
		if p.Flat().DistanceTo(from.Flat()) >= minDist {
			far = append(far, p)
		}
	}
	if len(far) == 0 {
		far = a.spawns
	}
	return far[rng.Intn(len(far))]
}

// RegisterActor adds a kinematic circle for an actor so raycasts can strike
// it. Registering an existing id moves it instead.
func (a *Arena) RegisterActor(id ActorID, pos geom.Vec3, radius float64) {
	if id == 0 {
		return
	}
	if existing, ok := a.actors[id]; ok {
		existing.body.SetPosition(cp.Vector{X: pos.X, Y: pos.Z})
		return
	}
	body := cp.NewKinematicBody()
	body.SetPosition(cp.Vector{X: pos.X, Y: pos.Z})
	shape := cp.NewCircle(body, radius, cp.Vector{})
	// Same-group shapes are invisible to an actor's own queries.
	shape.SetFilter(cp.NewShapeFilter(uint(id), cp.ALL_CATEGORIES, cp.ALL_CATEGORIES))
	shape.UserData = id
	a.space.AddBody(body)
	a.space.AddShape(shape)
	a.actors[id] = &actor{body: body, shape: shape}
}

// MoveActor syncs an actor's collision body with its position.
func (a *Arena) MoveActor(id ActorID, pos geom.Vec3) {
	if act, ok := a.actors[id]; ok {
		act.body.SetPosition(cp.Vector{X: pos.X, Y: pos.Z})
	}
}

// RemoveActor takes an actor out of the collision space. Dead actors stop
// blocking sight lines; respawn re-registers them.
func (a *Arena) RemoveActor(id ActorID) {
	act, ok := a.actors[id]
	if !ok {
		return
	}
	a.space.RemoveShape(act.shape)
	a.space.RemoveBody(act.body)
	delete(a.actors, id)
}

// Raycast issues an obstruction query from origin along dir, bounded to
// maxDist, ignoring the actor with the given id. The second return is false
// when the oracle is unavailable; callers must fail safe.
func (a *Arena) Raycast(origin, dir geom.Vec3, maxDist float64, ignore ActorID) (Hit, bool) {
	if a == nil || a.space == nil {
		return Hit{}, false
	}
	d := dir.Flat().Normalized()
	if d.LengthSq() == 0 || maxDist <= 0 {
		return Hit{}, true
	}
	start := cp.Vector{X: origin.X, Y: origin.Z}
	end := cp.Vector{X: origin.X + d.X*maxDist, Y: origin.Z + d.Z*maxDist}
	filter := cp.NewShapeFilter(uint(ignore), cp.ALL_CATEGORIES, cp.ALL_CATEGORIES)

	info := a.space.SegmentQueryFirst(start, end, 0, filter)
	if info.Shape == nil {
		return Hit{}, true
	}
	hit := Hit{
		Hit:    true,
		Point:  geom.Vec3{X: info.Point.X, Y: origin.Y, Z: info.Point.Y},
		Normal: geom.Vec3{X: info.Normal.X, Z: info.Normal.Y},
	}
	if id, ok := info.Shape.UserData.(ActorID); ok {
		hit.Actor = id
	}
	return hit, true
}

// RandomPoint returns a uniformly random in-bounds point on the ground
// plane, respecting the margin.
func (a *Arena) RandomPoint(rng *rand.Rand) geom.Vec3 {
	edge := a.half - a.margin
	return geom.Vec3{
		X: -edge + rng.Float64()*2*edge,
		Y: 1,
		Z: -edge + rng.Float64()*2*edge,
	}
}

// ClampToBounds limits a point to the walkable area.
func (a *Arena) ClampToBounds(v geom.Vec3) geom.Vec3 {
	edge := a.half - a.margin
	v.X = geom.Clamp(v.X, -edge, edge)
	v.Z = geom.Clamp(v.Z, -edge, edge)
	return v
}

// Size returns the arena edge length.
func (a *Arena) Size() float64 {
	return a.size
}
