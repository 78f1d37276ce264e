package usd

import (
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guillaume10/mujoco/internal/fsutil"
	"github.com/guillaume10/mujoco/internal/monitoring"
	"github.com/guillaume10/mujoco/internal/stage"
	"github.com/guillaume10/mujoco/internal/testutil"
	"github.com/guillaume10/mujoco/sim"
)

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

// fakeSource is a scripted scene source. Tests mutate its scene between Sync
// calls to play out entity lifecycles.
type fakeSource struct {
	scene      sim.Scene
	refreshErr error
	refreshed  []string
}

func (s *fakeSource) Refresh(camera string) error {
	if s.refreshErr != nil {
		return s.refreshErr
	}
	s.refreshed = append(s.refreshed, camera)
	return nil
}

func (s *fakeSource) Scene() *sim.Scene { return &s.scene }

func testModel() *sim.Model {
	return &sim.Model{
		OffWidth:  800,
		OffHeight: 600,
		Names: map[sim.NameKey]string{
			{Type: sim.ObjGeom, ID: 1}: "ball",
			{Type: sim.ObjGeom, ID: 2}: "crate",
		},
	}
}

func boxGeom(id int) sim.Geom {
	return sim.Geom{
		ObjType: sim.ObjGeom,
		ObjID:   id,
		Kind:    sim.GeomBox,
		Pos:     [3]float64{0, 0, 1},
		Mat:     [9]float64{1, 0, 0, 0, 1, 0, 0, 0, 1},
		Size:    [3]float64{0.5, 0.5, 0.5},
		RGBA:    [4]float64{1, 0, 0, 1},
		MatID:   -1,
		DataID:  -1,
	}
}

func quietLogs(t *testing.T) {
	t.Helper()
	monitoring.SetLogger(nil)
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })
}

func newTestExporter(t *testing.T, model *sim.Model, src sim.Source) *Exporter {
	t.Helper()
	e, err := New(model, src, Options{OutputRoot: "out", FS: fsutil.NewMemoryFileSystem()})
	require.NoError(t, err)
	return e
}

// ---------------------------------------------------------------------------
// Construction
// ---------------------------------------------------------------------------

func TestNew_Validation(t *testing.T) {
	quietLogs(t)
	mem := fsutil.NewMemoryFileSystem()

	t.Run("nil model", func(t *testing.T) {
		_, err := New(nil, &fakeSource{}, Options{FS: mem})
		assert.Error(t, err)
	})

	t.Run("nil source", func(t *testing.T) {
		_, err := New(testModel(), nil, Options{FS: mem})
		assert.Error(t, err)
	})

	t.Run("width beyond framebuffer", func(t *testing.T) {
		_, err := New(testModel(), &fakeSource{}, Options{Width: 801, FS: mem})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "offwidth")
	})

	t.Run("height beyond framebuffer", func(t *testing.T) {
		_, err := New(testModel(), &fakeSource{}, Options{Height: 601, FS: mem})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "offheight")
	})
}

func TestNew_LaysOutPackage(t *testing.T) {
	quietLogs(t)
	mem := fsutil.NewMemoryFileSystem()
	e, err := New(testModel(), &fakeSource{}, Options{OutputRoot: "out", OutputDir: "pkg", FS: mem})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join("out", "pkg"), e.OutputDir())
	testutil.AssertFileExists(t, mem, filepath.Join("out", "pkg", "frames"))
	testutil.AssertFileExists(t, mem, filepath.Join("out", "pkg", "assets"))
}

func TestNew_AssignsDistinctSessionIDs(t *testing.T) {
	quietLogs(t)
	a := newTestExporter(t, testModel(), &fakeSource{})
	b := newTestExporter(t, testModel(), &fakeSource{})
	assert.NotEmpty(t, a.SessionID())
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

// ---------------------------------------------------------------------------
// Sync
// ---------------------------------------------------------------------------

func TestSync_EntityLifecycle(t *testing.T) {
	quietLogs(t)
	src := &fakeSource{}
	src.scene.Geoms = []sim.Geom{boxGeom(1)}
	e := newTestExporter(t, testModel(), src)

	// Present for frames 1 through 3, gone at frame 4.
	for i := 0; i < 3; i++ {
		require.NoError(t, e.Sync())
	}
	src.scene.Geoms = nil
	require.NoError(t, e.Sync())

	p := e.st.Prim("/World/ball")
	require.NotNil(t, p, "entity prim should exist after first sight")

	assert.Equal(t, []float64{0, 1, 2, 3, 4}, p.SampleTimes("visibility"))
	want := map[float64]stage.Token{
		0: "invisible", // preseeded before first sight
		1: "inherited",
		2: "inherited",
		3: "inherited",
		4: "invisible", // retired in place, never deleted
	}
	for frame, tok := range want {
		v, ok := p.SampleAt("visibility", frame)
		require.True(t, ok, "visibility sample at frame %v", frame)
		assert.Equal(t, tok, v, "visibility at frame %v", frame)
	}

	// The identity map never forgets a retired entity.
	assert.Len(t, e.bindings, 1)

	// Pose was sampled only while present.
	assert.Equal(t, []float64{1, 2, 3}, p.SampleTimes("xformOp:transform"))
}

func TestSync_RetiredEntityRestsUntilReappearing(t *testing.T) {
	quietLogs(t)
	src := &fakeSource{}
	src.scene.Geoms = []sim.Geom{boxGeom(1)}
	e := newTestExporter(t, testModel(), src)

	// Present at frame 1, gone for frames 2 through 4, back at frame 5.
	require.NoError(t, e.Sync())
	src.scene.Geoms = nil
	for i := 0; i < 3; i++ {
		require.NoError(t, e.Sync())
	}
	src.scene.Geoms = []sim.Geom{boxGeom(1)}
	require.NoError(t, e.Sync())

	p := e.st.Prim("/World/ball")
	require.NotNil(t, p)

	// One invisible sample at the retire frame, nothing at 3 or 4, and a
	// fresh visible sample on reappearance.
	assert.Equal(t, []float64{0, 1, 2, 5}, p.SampleTimes("visibility"))
	v, ok := p.SampleAt("visibility", 2)
	require.True(t, ok)
	assert.Equal(t, stage.Token("invisible"), v)
	v, ok = p.SampleAt("visibility", 5)
	require.True(t, ok)
	assert.Equal(t, stage.Token("inherited"), v)

	assert.Equal(t, []float64{1, 5}, p.SampleTimes("xformOp:transform"))
}

func TestSync_FrameCounter(t *testing.T) {
	quietLogs(t)
	e := newTestExporter(t, testModel(), &fakeSource{})
	assert.Equal(t, int64(0), e.Frame())
	for i := 1; i <= 5; i++ {
		require.NoError(t, e.Sync())
		assert.Equal(t, int64(i), e.Frame())
	}
}

func TestSync_RefreshFailure(t *testing.T) {
	quietLogs(t)
	src := &fakeSource{refreshErr: fmt.Errorf("device gone")}
	e := newTestExporter(t, testModel(), src)

	err := e.Sync()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refresh scene")
	// The counter advances before the snapshot is taken.
	assert.Equal(t, int64(1), e.Frame())
}

func TestSync_DiscoveryRetriesAfterFailedFirstSync(t *testing.T) {
	quietLogs(t)
	src := &fakeSource{refreshErr: fmt.Errorf("device gone")}
	src.scene.Lights = []sim.Light{
		{Pos: [3]float64{0, 0, 3}, Diffuse: [3]float64{1, 1, 1}},
	}
	src.scene.Stereo = [2]sim.CameraView{
		{Pos: [3]float64{0, -2, 1}, Forward: [3]float64{0, 1, 0}, Up: [3]float64{0, 0, 1}},
		{Pos: [3]float64{0, -2, 1}, Forward: [3]float64{0, 1, 0}, Up: [3]float64{0, 0, 1}},
	}
	e, err := New(testModel(), src, Options{
		OutputRoot:  "out",
		CameraNames: []string{"track"},
		FS:          fsutil.NewMemoryFileSystem(),
	})
	require.NoError(t, err)

	// A transient refresh failure on the first call must not consume the
	// session's one-time light and camera discovery.
	require.Error(t, e.Sync())
	src.refreshErr = nil
	for i := 0; i < 3; i++ {
		require.NoError(t, e.Sync())
	}

	cam := e.st.Prim("/World/track")
	require.NotNil(t, cam, "tracked camera should be created by the first successful Sync")
	assert.Equal(t, "Camera", cam.TypeName())

	light := e.st.Prim("/World/light_0")
	require.NotNil(t, light, "positioned scene light should be created by the first successful Sync")
	assert.Equal(t, "SphereLight", light.TypeName())

	// Discovery ran exactly once: one slot per scene light, one rig per
	// requested camera name.
	assert.Len(t, e.lights, 1)
	assert.Len(t, e.cameras, 1)
}

func TestSync_GeomCapacity(t *testing.T) {
	quietLogs(t)
	src := &fakeSource{}
	src.scene.Geoms = []sim.Geom{boxGeom(1), boxGeom(2), boxGeom(3)}
	e, err := New(testModel(), src, Options{
		MaxGeom:    2,
		OutputRoot: "out",
		FS:         fsutil.NewMemoryFileSystem(),
	})
	require.NoError(t, err)

	err = e.Sync()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "raise Options.MaxGeom")
}

func TestSync_DuplicateEntityKey(t *testing.T) {
	quietLogs(t)
	src := &fakeSource{}
	src.scene.Geoms = []sim.Geom{boxGeom(1), boxGeom(1)}
	e := newTestExporter(t, testModel(), src)

	err := e.Sync()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "duplicate entity key")
}

func TestSync_TransparentEntityStaysHidden(t *testing.T) {
	quietLogs(t)
	g := boxGeom(1)
	g.RGBA[3] = 0
	src := &fakeSource{}
	src.scene.Geoms = []sim.Geom{g}
	e := newTestExporter(t, testModel(), src)
	require.NoError(t, e.Sync())

	p := e.st.Prim("/World/ball")
	require.NotNil(t, p, "fully transparent entities are still represented")
	v, ok := p.SampleAt("visibility", 1)
	require.True(t, ok)
	assert.Equal(t, stage.Token("invisible"), v)
}

func TestSync_UnsupportedKindMemoized(t *testing.T) {
	var logged []string
	monitoring.SetLogger(func(format string, v ...interface{}) {
		logged = append(logged, fmt.Sprintf(format, v...))
	})
	t.Cleanup(func() { monitoring.SetLogger(log.Printf) })

	g := boxGeom(1)
	g.Kind = sim.GeomHField
	src := &fakeSource{}
	src.scene.Geoms = []sim.Geom{g}
	e := newTestExporter(t, testModel(), src)

	require.NoError(t, e.Sync())
	require.NoError(t, e.Sync())

	assert.Nil(t, e.st.Prim("/World/ball"))
	assert.Len(t, e.bindings, 1)

	omissions := 0
	for _, line := range logged {
		if strings.Contains(line, "no stage representation") {
			omissions++
		}
	}
	assert.Equal(t, 1, omissions, "omission should be decided once, not re-reported per frame")
}

func TestSync_NameCollisionsSuffixed(t *testing.T) {
	quietLogs(t)
	model := testModel()
	model.Names[sim.NameKey{Type: sim.ObjGeom, ID: 3}] = "arm joint"
	model.Names[sim.NameKey{Type: sim.ObjGeom, ID: 4}] = "arm_joint"
	src := &fakeSource{}
	src.scene.Geoms = []sim.Geom{boxGeom(3), boxGeom(4)}
	e := newTestExporter(t, model, src)
	require.NoError(t, e.Sync())

	assert.NotNil(t, e.st.Prim("/World/arm_joint"))
	assert.NotNil(t, e.st.Prim("/World/arm_joint_1"))
}

func TestSync_UnnamedEntityKeyedByTypeAndID(t *testing.T) {
	quietLogs(t)
	src := &fakeSource{}
	src.scene.Geoms = []sim.Geom{boxGeom(9)}
	e := newTestExporter(t, testModel(), src)
	require.NoError(t, e.Sync())

	assert.NotNil(t, e.st.Prim("/World/geom_9"))
}

// ---------------------------------------------------------------------------
// Save and export
// ---------------------------------------------------------------------------

func TestSave(t *testing.T) {
	quietLogs(t)
	mem := fsutil.NewMemoryFileSystem()
	src := &fakeSource{}
	src.scene.Geoms = []sim.Geom{boxGeom(1)}
	e, err := New(testModel(), src, Options{OutputRoot: "out", FS: mem})
	require.NoError(t, err)
	require.NoError(t, e.Sync())
	require.NoError(t, e.Sync())

	out, err := e.Save("usda")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join("out", "mujoco_usdpkg", "frames", "frame_2_.usda"), out)

	data, err := mem.ReadFile(out)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "#usda 1.0")
	assert.Contains(t, text, `defaultPrim = "World"`)
	assert.Contains(t, text, "endTimeCode = 2")
	assert.Contains(t, text, `upAxis = "Z"`)
}

func TestSave_FiletypeValidation(t *testing.T) {
	quietLogs(t)
	e := newTestExporter(t, testModel(), &fakeSource{})

	_, err := e.Save("usdc")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "binary crate")

	_, err = e.Save("gif")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid scene filetype")
}

func TestExportTo_CreatesParents(t *testing.T) {
	quietLogs(t)
	mem := fsutil.NewMemoryFileSystem()
	e, err := New(testModel(), &fakeSource{}, Options{OutputRoot: "out", FS: mem})
	require.NoError(t, err)
	require.NoError(t, e.Sync())

	target := filepath.Join("archive", "run1", "scene.usda")
	require.NoError(t, e.ExportTo(target))
	testutil.AssertFileExists(t, mem, target)
}

func TestUSD_ReadbackWithoutEndStamp(t *testing.T) {
	quietLogs(t)
	src := &fakeSource{}
	src.scene.Geoms = []sim.Geom{boxGeom(1)}
	e := newTestExporter(t, testModel(), src)
	require.NoError(t, e.Sync())

	text, err := e.USD()
	require.NoError(t, err)
	assert.Contains(t, text, "#usda 1.0")
	assert.Contains(t, text, `def Cube "ball"`)
	assert.NotContains(t, text, "endTimeCode", "mid-session readback must not stamp the range end")
}

func TestSessionsProduceIdenticalScenes(t *testing.T) {
	quietLogs(t)
	run := func() string {
		src := &fakeSource{}
		src.scene.Geoms = []sim.Geom{boxGeom(1), boxGeom(2)}
		e := newTestExporter(t, testModel(), src)
		for i := 0; i < 3; i++ {
			require.NoError(t, e.Sync())
		}
		text, err := e.USD()
		require.NoError(t, err)
		return text
	}

	if diff := cmp.Diff(run(), run()); diff != "" {
		t.Errorf("scene text differs between identical sessions (-a +b):\n%s", diff)
	}
}
