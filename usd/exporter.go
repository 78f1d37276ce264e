// Package usd exports physics simulation state to a time-sampled USD scene
// package.
//
// The exporter is an incremental synchronizer: each Sync call pulls a fresh
// scene snapshot from its source and folds it into a persistent stage, so
// entities keep their prim identity across frames, newcomers are created on
// first sight, and entities that leave the scene are hidden rather than
// deleted. Texture assets are written once at construction; the stage can be
// saved per frame range or read back as usda text at any point.
package usd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/guillaume10/mujoco/internal/fsutil"
	"github.com/guillaume10/mujoco/internal/monitoring"
	"github.com/guillaume10/mujoco/internal/stage"
	"github.com/guillaume10/mujoco/internal/timeutil"
	"github.com/guillaume10/mujoco/sim"
)

const (
	worldPath          = "/World"
	looksPath          = worldPath + "/Looks"
	framesDirName      = "frames"
	assetsDirName      = "assets"
	stageUpAxis        = "Z"
	timeCodesPerSecond = 24
)

// Options configures an export session. Zero-valued structural fields are
// filled from DefaultOptions by New.
type Options struct {
	// Width and Height are the intended render size. They must fit within
	// the model's offscreen framebuffer capacity.
	Width  int
	Height int

	// MaxGeom caps the number of geoms accepted per scene snapshot. A
	// snapshot exceeding it fails the Sync that saw it.
	MaxGeom int

	// OutputRoot is the directory the package directory is created under.
	OutputRoot string

	// OutputDir names the package directory. The package holds a frames/
	// subdirectory for scene files and an assets/ subdirectory for textures.
	OutputDir string

	// CameraNames lists the simulation cameras tracked as stage cameras.
	CameraNames []string

	// LightIntensity is authored on every scene light discovered on the
	// first sync.
	LightIntensity float64

	// MaterialOverrides optionally names a JSON file remapping material
	// colors and textures by material name.
	MaterialOverrides string

	// Verbose enables progress milestones through the monitoring logger.
	Verbose bool

	// FS is the filesystem the package is written to.
	FS fsutil.FileSystem

	// Clock supplies session timing for the report.
	Clock timeutil.Clock
}

// DefaultOptions returns the stock configuration: a 480x480 render into
// ./mujoco_usdpkg with progress reporting enabled.
func DefaultOptions() Options {
	return Options{
		Width:          480,
		Height:         480,
		MaxGeom:        10000,
		OutputRoot:     ".",
		OutputDir:      "mujoco_usdpkg",
		LightIntensity: 10000,
		Verbose:        true,
		FS:             fsutil.OSFileSystem{},
		Clock:          timeutil.RealClock{},
	}
}

// Exporter maintains the mapping between simulation entities and stage prims
// across an export session.
type Exporter struct {
	model  *sim.Model
	source sim.Source
	opts   Options

	sessionID string
	startedAt time.Time

	// frame is the number of Sync calls taken so far. It doubles as the
	// stage time coordinate of the most recent snapshot.
	frame int64

	// discovered records that light and camera discovery has run against a
	// successfully refreshed snapshot. A failed first Sync leaves it unset
	// so the next call retries discovery.
	discovered bool

	st    *stage.Stage
	world *stage.Prim

	bindings  map[EntityKey]*geomBinding
	usedNames map[string]bool

	lights  []lightSlot
	cameras []cameraRig

	materialPrims map[int]*stage.Prim
	texturePaths  []string
	overrides     *MaterialOverrides

	outputDir string
	framesDir string
	assetsDir string

	stats sessionStats
}

// New builds an export session: it validates the render size against the
// model, lays out the package directories, writes every model texture into
// assets/ and prepares an empty stage. The returned exporter is ready for
// its first Sync.
func New(model *sim.Model, source sim.Source, opts Options) (*Exporter, error) {
	if model == nil {
		return nil, fmt.Errorf("model must not be nil")
	}
	if source == nil {
		return nil, fmt.Errorf("scene source must not be nil")
	}

	defaults := DefaultOptions()
	if opts.Width == 0 {
		opts.Width = defaults.Width
	}
	if opts.Height == 0 {
		opts.Height = defaults.Height
	}
	if opts.MaxGeom == 0 {
		opts.MaxGeom = defaults.MaxGeom
	}
	if opts.OutputRoot == "" {
		opts.OutputRoot = defaults.OutputRoot
	}
	if opts.OutputDir == "" {
		opts.OutputDir = defaults.OutputDir
	}
	if opts.LightIntensity == 0 {
		opts.LightIntensity = defaults.LightIntensity
	}
	if opts.FS == nil {
		opts.FS = defaults.FS
	}
	if opts.Clock == nil {
		opts.Clock = defaults.Clock
	}

	if opts.Width < 0 || opts.Height < 0 {
		return nil, fmt.Errorf("invalid render size %dx%d", opts.Width, opts.Height)
	}
	if opts.MaxGeom < 0 {
		return nil, fmt.Errorf("invalid geom capacity %d", opts.MaxGeom)
	}
	if opts.Width > model.OffWidth {
		return nil, fmt.Errorf(
			"image width %d exceeds offscreen framebuffer width %d: reduce the image width or raise the model's offscreen buffer capacity (offwidth)",
			opts.Width, model.OffWidth)
	}
	if opts.Height > model.OffHeight {
		return nil, fmt.Errorf(
			"image height %d exceeds offscreen framebuffer height %d: reduce the image height or raise the model's offscreen buffer capacity (offheight)",
			opts.Height, model.OffHeight)
	}

	e := &Exporter{
		model:         model,
		source:        source,
		opts:          opts,
		sessionID:     uuid.New().String(),
		startedAt:     opts.Clock.Now(),
		bindings:      make(map[EntityKey]*geomBinding),
		usedNames:     make(map[string]bool),
		materialPrims: make(map[int]*stage.Prim),
	}

	e.outputDir = filepath.Join(opts.OutputRoot, opts.OutputDir)
	e.framesDir = filepath.Join(e.outputDir, framesDirName)
	e.assetsDir = filepath.Join(e.outputDir, assetsDirName)
	for _, dir := range []string{e.framesDir, e.assetsDir} {
		if err := opts.FS.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create package directory %s: %w", dir, err)
		}
	}
	if opts.Verbose {
		monitoring.Successf("writing USD package to %s", e.outputDir)
	}

	if err := e.initStage(); err != nil {
		return nil, err
	}

	if opts.MaterialOverrides != "" {
		ov, err := LoadMaterialOverrides(opts.FS, opts.MaterialOverrides)
		if err != nil {
			return nil, fmt.Errorf("load material overrides: %w", err)
		}
		if err := ov.CheckAgainstModel(model); err != nil {
			return nil, fmt.Errorf("material overrides: %w", err)
		}
		e.overrides = ov
	}

	paths, err := e.writeTextures()
	if err != nil {
		return nil, err
	}
	e.texturePaths = paths
	if opts.Verbose {
		monitoring.Successf("exported %d textures to %s", len(paths), e.assetsDir)
	}

	return e, nil
}

// initStage prepares the empty document: stage metadata and the default
// world root every exported prim lives under.
func (e *Exporter) initStage() error {
	st := stage.New()
	if err := st.SetUpAxis(stageUpAxis); err != nil {
		return err
	}
	st.SetStartTimeCode(0)
	st.SetTimeCodesPerSecond(timeCodesPerSecond)

	world, err := st.Define(worldPath, "Xform")
	if err != nil {
		return err
	}
	if err := st.SetDefaultPrim(world); err != nil {
		return err
	}

	e.st = st
	e.world = world
	return nil
}

// SessionID returns the unique id assigned to this export session.
func (e *Exporter) SessionID() string { return e.sessionID }

// Frame returns the number of Sync calls taken so far.
func (e *Exporter) Frame() int64 { return e.frame }

// OutputDir returns the package directory scene files and assets are
// written into.
func (e *Exporter) OutputDir() string { return e.outputDir }

// Sync advances the frame counter and folds the source's current scene state
// into the stage at the new time coordinate. The first Sync that refreshes
// successfully additionally discovers scene lights and tracked cameras.
func (e *Exporter) Sync() error {
	e.frame++

	if err := e.source.Refresh(""); err != nil {
		return fmt.Errorf("refresh scene: %w", err)
	}
	sc := e.source.Scene()

	if !e.discovered {
		e.discoverLights(sc)
		if err := e.discoverCameras(); err != nil {
			return err
		}
		e.discovered = true
	}

	visible, err := e.syncGeoms(sc)
	if err != nil {
		return err
	}
	e.updateLights(sc)
	if err := e.updateCameras(); err != nil {
		return err
	}

	e.stats.record(e.frame, len(sc.Geoms), visible, len(e.bindings))
	return nil
}

// syncGeoms reconciles the snapshot's geoms against the identity map and
// returns the number of represented entities visible this frame.
func (e *Exporter) syncGeoms(sc *sim.Scene) (int, error) {
	frame := float64(e.frame)

	if len(sc.Geoms) > e.opts.MaxGeom {
		return 0, fmt.Errorf(
			"scene snapshot has %d geoms, above the session capacity %d: raise Options.MaxGeom",
			len(sc.Geoms), e.opts.MaxGeom)
	}

	// Step 1: index the snapshot by entity key, rejecting duplicates.
	live := make(map[EntityKey]sim.Geom, len(sc.Geoms))
	order := make([]EntityKey, 0, len(sc.Geoms))
	for _, g := range sc.Geoms {
		key := entityKey(e.model, g)
		if _, dup := live[key]; dup {
			return 0, fmt.Errorf("duplicate entity key %q in one scene snapshot", key)
		}
		live[key] = g
		order = append(order, key)
	}

	// Step 2: bind entities seen for the first time, in snapshot order.
	for _, key := range order {
		if _, known := e.bindings[key]; known {
			continue
		}
		b, err := e.createBinding(key, live[key])
		if err != nil {
			return 0, err
		}
		e.bindings[key] = b
	}

	// Step 3: sample pose and visibility for every represented entity.
	// Entities missing from the snapshot are retired in place: their prim
	// stays in the stage and gets one invisible sample at the frame they
	// went missing, then rests until they reappear.
	visible := 0
	for key, b := range e.bindings {
		if !b.represented() {
			continue
		}
		g, active := live[key]
		if !active {
			if !b.retired {
				b.setVisible(false, frame)
				b.retired = true
			}
			continue
		}
		b.retired = false
		b.setPose(g.Pos, g.Mat, frame)
		on := g.RGBA[3] > 0
		b.setVisible(on, frame)
		if on {
			visible++
		}
	}
	return visible, nil
}

// createBinding decides, once and definitively, how an entity is represented
// in the stage. Unrepresentable kinds get an empty binding so the decision
// is remembered instead of retried.
func (e *Exporter) createBinding(key EntityKey, g sim.Geom) (*geomBinding, error) {
	build, ok := builders[g.Kind]
	if !ok {
		monitoring.Logf("geom %s: kind %s has no stage representation; omitting", key, g.Kind)
		return &geomBinding{key: key, kind: g.Kind}, nil
	}

	name := e.allocPrimName(string(key))
	prim, err := build(e, g, name)
	if err != nil {
		return nil, fmt.Errorf("build %s geom %s: %w", g.Kind, key, err)
	}

	b := &geomBinding{key: key, kind: g.Kind, prim: prim}
	// Newly seen entities are retroactively invisible at the start of the
	// sampled range, so playback before their first frame shows nothing.
	b.setVisible(false, 0)
	return b, nil
}

// Save writes the stage into the package's frames directory, named after the
// current frame count, and stamps the sampled range's end on the stage.
// filetype selects the extension: "usda" or "usd" (both carry usda text).
func (e *Exporter) Save(filetype string) (string, error) {
	switch filetype {
	case "usd", "usda":
	case "usdc":
		return "", fmt.Errorf("scene filetype usdc (binary crate) is not supported: use usda or usd")
	default:
		return "", fmt.Errorf("invalid scene filetype %q: must be usda or usd", filetype)
	}

	e.st.SetEndTimeCode(float64(e.frame))
	name := fmt.Sprintf("frame_%d_.%s", e.frame, filetype)
	out := filepath.Join(e.framesDir, name)
	if err := e.exportStage(out); err != nil {
		return "", err
	}
	if e.opts.Verbose {
		monitoring.Successf("saved scene to %s", out)
	}
	return out, nil
}

// ExportTo writes the stage to an arbitrary path, creating parent
// directories as needed.
func (e *Exporter) ExportTo(pathName string) error {
	e.st.SetEndTimeCode(float64(e.frame))
	if dir := filepath.Dir(pathName); dir != "." && dir != "" {
		if err := e.opts.FS.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create output directory %s: %w", dir, err)
		}
	}
	return e.exportStage(pathName)
}

// USD returns the stage serialized as usda text without touching any stage
// metadata, so the document can be inspected mid-session.
func (e *Exporter) USD() (string, error) {
	return e.st.ExportToString()
}

func (e *Exporter) exportStage(pathName string) error {
	var buf bytes.Buffer
	if err := e.st.Write(&buf); err != nil {
		return fmt.Errorf("serialize stage: %w", err)
	}
	if err := e.opts.FS.WriteFile(pathName, buf.Bytes(), 0644); err != nil {
		return fmt.Errorf("write scene file: %w", err)
	}
	return nil
}
