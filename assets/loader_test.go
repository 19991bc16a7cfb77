package assets

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"roomwalk/core"
	"roomwalk/scene"
)

func modelWithRoots(names ...string) *scene.GLTFResult {
	r := &scene.GLTFResult{}
	for _, n := range names {
		r.Roots = append(r.Roots, scene.NewNode(n))
	}
	return r
}

// integrateUntil polls Integrate the way the render loop does, one call per
// "frame", until a load has been consumed.
func integrateUntil(t *testing.T, l *Loader, s *scene.Scene) []*scene.Node {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if groups := l.Integrate(s); len(groups) > 0 || l.Pending() == 0 {
			return groups
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("load never completed")
	return nil
}

func TestLoaderAttachesScaledGroup(t *testing.T) {
	log, _ := test.NewNullLogger()
	l := NewLoader(context.Background(),
		WithLogger(log),
		WithDecoder(func(string) (*scene.GLTFResult, error) {
			return modelWithRoots("Walls", "Floor"), nil
		}))
	defer l.Close()

	s := scene.NewScene(core.ColorBlack)
	l.Load("assets/models/eye/room.glb")
	groups := integrateUntil(t, l, s)

	if len(groups) != 1 {
		t.Fatalf("attached %d groups, want 1", len(groups))
	}
	g := groups[0]
	if g.Name != "room" {
		t.Errorf("group name = %q", g.Name)
	}
	if g.Scale != (mgl32.Vec3{100, 100, 100}) {
		t.Errorf("scale = %v", g.Scale)
	}
	if !s.Contains(g) || s.ChildCount() != 1 {
		t.Errorf("group not attached to scene")
	}
	floor := s.Root.Find("Floor")
	if floor == nil || !floor.IsDescendantOf(s.Root) {
		t.Errorf("decoded roots not reachable from the scene")
	}
	if l.Pending() != 0 {
		t.Errorf("pending = %d", l.Pending())
	}
}

func TestLoaderFailureLeavesSceneUntouched(t *testing.T) {
	log, hook := test.NewNullLogger()
	cause := errors.New("unexpected EOF")
	l := NewLoader(context.Background(),
		WithLogger(log),
		WithDecoder(func(string) (*scene.GLTFResult, error) {
			return nil, cause
		}))
	defer l.Close()

	s := scene.NewScene(core.ColorBlack)
	s.Add(scene.NewNode("camera"))
	before := s.ChildCount()

	l.Load("missing.glb")
	if groups := integrateUntil(t, l, s); len(groups) != 0 {
		t.Fatalf("failure attached %d groups", len(groups))
	}
	if s.ChildCount() != before {
		t.Errorf("child count = %d, want %d", s.ChildCount(), before)
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Message != "GLB load error" || entry.Level != logrus.ErrorLevel {
		t.Fatalf("failure not logged: %+v", entry)
	}
	err, _ := entry.Data["error"].(error)
	var de *DecodeError
	if !errors.As(err, &de) || de.Path != "missing.glb" || !errors.Is(err, cause) {
		t.Errorf("logged error = %v", entry.Data["error"])
	}
}

// expectLoadError loads path and checks that the failure is logged as a
// decode error without adding anything to the scene.
func expectLoadError(t *testing.T, decode DecodeFunc, path, cause string) {
	t.Helper()
	log, hook := test.NewNullLogger()
	opts := []Option{WithLogger(log)}
	if decode != nil {
		opts = append(opts, WithDecoder(decode))
	}
	l := NewLoader(context.Background(), opts...)
	defer l.Close()

	s := scene.NewScene(core.ColorBlack)
	s.Add(scene.NewNode("camera"))
	before := s.ChildCount()

	l.Load(path)
	if groups := integrateUntil(t, l, s); len(groups) != 0 {
		t.Fatalf("failed load attached %d groups", len(groups))
	}
	if s.ChildCount() != before {
		t.Errorf("child count = %d, want %d", s.ChildCount(), before)
	}
	if l.Pending() != 0 {
		t.Errorf("pending = %d", l.Pending())
	}

	entry := hook.LastEntry()
	if entry == nil || entry.Message != "GLB load error" || entry.Level != logrus.ErrorLevel {
		t.Fatalf("failure not logged: %+v", entry)
	}
	err, _ := entry.Data["error"].(error)
	var de *DecodeError
	if !errors.As(err, &de) || de.Path != path {
		t.Fatalf("logged error = %v", entry.Data["error"])
	}
	if !strings.Contains(err.Error(), cause) {
		t.Errorf("error %q does not mention %q", err, cause)
	}
}

func TestLoaderRecoversDecoderPanic(t *testing.T) {
	expectLoadError(t, func(string) (*scene.GLTFResult, error) {
		var idx []int
		_ = idx[3]
		return nil, nil
	}, "room.glb", "decoder panic")
}

func TestLoaderRejectsEmptyModel(t *testing.T) {
	expectLoadError(t, func(string) (*scene.GLTFResult, error) {
		return nil, nil
	}, "room.glb", "empty model")
}

func TestLoaderMalformedGLTF(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.gltf")
	body := `{"asset":{"version":"2.0"},"nodes":[{"mesh":0}],"meshes":[{"primitives":[{"attributes":{"POSITION":7}}]}]}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}
	expectLoadError(t, nil, path, "readable primitive")
}

func TestLoaderCloseDropsBufferedResults(t *testing.T) {
	log, _ := test.NewNullLogger()
	l := NewLoader(context.Background(),
		WithLogger(log),
		WithDecoder(func(string) (*scene.GLTFResult, error) {
			return modelWithRoots("room"), nil
		}))

	l.Load("a.glb")
	l.Load("b.glb")
	l.Wait()
	if l.Pending() != 2 {
		t.Fatalf("pending = %d before close, want 2", l.Pending())
	}

	l.Close()
	if l.Pending() != 0 {
		t.Errorf("pending = %d after close, want 0", l.Pending())
	}
	s := scene.NewScene(core.ColorBlack)
	if groups := l.Integrate(s); len(groups) != 0 || s.ChildCount() != 0 {
		t.Errorf("closed loader attached %d groups", len(groups))
	}
}

func TestLoaderDropsLoadsFinishedAfterClose(t *testing.T) {
	log, _ := test.NewNullLogger()
	release := make(chan struct{})
	l := NewLoader(context.Background(),
		WithLogger(log),
		WithDecoder(func(string) (*scene.GLTFResult, error) {
			<-release
			return modelWithRoots("late"), nil
		}))

	s := scene.NewScene(core.ColorBlack)
	l.Load("room.glb")
	l.Close()
	close(release)
	l.Wait()

	if groups := l.Integrate(s); len(groups) != 0 {
		t.Errorf("closed loader attached %d groups", len(groups))
	}
	if s.ChildCount() != 0 {
		t.Errorf("scene mutated after close")
	}
	if l.Pending() != 0 {
		t.Errorf("pending = %d after close", l.Pending())
	}
}

func TestLoaderIgnoresLoadAfterClose(t *testing.T) {
	log, _ := test.NewNullLogger()
	called := false
	l := NewLoader(context.Background(),
		WithLogger(log),
		WithDecoder(func(string) (*scene.GLTFResult, error) {
			called = true
			return nil, nil
		}))
	l.Close()
	l.Load("room.glb")
	l.Wait()
	if called || l.Pending() != 0 {
		t.Error("load ran on a closed loader")
	}
}

func TestIntegrateDoesNotBlock(t *testing.T) {
	log, _ := test.NewNullLogger()
	release := make(chan struct{})
	l := NewLoader(context.Background(),
		WithLogger(log),
		WithScale(2),
		WithDecoder(func(string) (*scene.GLTFResult, error) {
			<-release
			return modelWithRoots("a"), nil
		}))
	defer l.Close()

	s := scene.NewScene(core.ColorBlack)
	l.Load("a.glb")
	if groups := l.Integrate(s); len(groups) != 0 {
		t.Fatal("integrated before decode finished")
	}
	if l.Pending() != 1 {
		t.Errorf("pending = %d, want 1", l.Pending())
	}

	close(release)
	groups := integrateUntil(t, l, s)
	if len(groups) != 1 || groups[0].Scale != (mgl32.Vec3{2, 2, 2}) {
		t.Errorf("groups = %v", groups)
	}
}

func TestModelName(t *testing.T) {
	cases := map[string]string{
		"assets/models/eye/room.glb": "room",
		"./room.glb":                 "room",
		"scene.gltf":                 "scene",
		"noext":                      "noext",
	}
	for in, want := range cases {
		if got := modelName(in); got != want {
			t.Errorf("modelName(%q) = %q, want %q", in, got, want)
		}
	}
}
