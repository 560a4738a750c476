package main

import (
	"flag"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"
	"path/filepath"
	"sync/atomic"

	"github.com/Carmen-Shannon/oxy-pbr/common"
	"github.com/Carmen-Shannon/oxy-pbr/engine"
	"github.com/Carmen-Shannon/oxy-pbr/engine/camera"
	"github.com/Carmen-Shannon/oxy-pbr/engine/controller"
	"github.com/Carmen-Shannon/oxy-pbr/engine/light"
	"github.com/Carmen-Shannon/oxy-pbr/engine/logging"
	"github.com/Carmen-Shannon/oxy-pbr/engine/model"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer"
	"github.com/Carmen-Shannon/oxy-pbr/engine/renderer/material"
	"github.com/Carmen-Shannon/oxy-pbr/engine/scene"
	"github.com/Carmen-Shannon/oxy-pbr/engine/window"
	"github.com/go-gl/mathgl/mgl32"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// cubeFaces is the file name stem of each environment face, in +X, -X, +Y, -Y, +Z, -Z order.
var cubeFaces = [6]string{"px", "nx", "py", "ny", "pz", "nz"}

func main() {
	envDir := flag.String("env", "", "directory holding px/nx/py/ny/pz/nz environment faces (png, jpeg, bmp or webp); empty uses a generated sky")
	envSize := flag.Uint("env-size", scene.DefaultEnvironmentSize, "edge size the environment faces are resampled to")
	floorTexture := flag.String("floor", "", "optional base color image for the floor")
	vsync := flag.Bool("vsync", true, "wait for vertical blank before presenting")
	software := flag.Bool("software", false, "force the software fallback adapter")
	profile := flag.Bool("profile", false, "log frame rate and memory statistics every second")
	debug := flag.Bool("debug", false, "enable debug logging and validate composed shaders with naga")
	flag.Parse()

	logger := logging.Default()
	logger.SetDebug(*debug)

	sc, err := buildScene(*envDir, uint32(*envSize), *floorTexture)
	if err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}

	presentMode := renderer.PresentModeUncapped
	if *vsync {
		presentMode = renderer.PresentModeVSync
	}

	eng := engine.NewEngine(
		engine.WithLogger(logger),
		engine.WithProfiling(*profile),
		engine.WithTickRate(60),
		engine.WithWindow(window.NewWindow(
			window.WithTitle("oxy-pbr viewer"),
			window.WithSize(1600, 900),
		)),
		engine.WithRendererOptions(
			renderer.WithPresentMode(presentMode),
			renderer.WithForceSoftwareRenderer(*software),
		),
		engine.WithControllerOptions(controller.WithShaderValidation(*debug)),
	)

	if err := eng.Load(sc); err != nil {
		logger.Errorf("%v", err)
		_ = eng.Window().Close()
		os.Exit(1)
	}

	// The tick callback runs under the engine's scene lock, so it reads its own flag
	// rather than calling back into the engine.
	var spinning atomic.Bool
	spinning.Store(true)
	spinner := findMesh(sc, "cube")
	var angle float32
	eng.SetTickCallback(func(dt float32) {
		if spinner == nil || !spinning.Load() {
			return
		}
		angle += dt * 0.6
		t := spinner.Local()
		t.Rotation = mgl32.QuatRotate(angle, mgl32.Vec3{0, 1, 0})
		spinner.SetLocal(t)
	})

	eng.Window().SetKeyDownCallback(func(key uint32) {
		switch key {
		case common.KeySpace:
			on := !spinning.Load()
			spinning.Store(on)
			eng.SetAnimate(on)
		case common.KeyP:
			if *profile = !*profile; *profile {
				eng.EnableProfiler()
			} else {
				eng.DisableProfiler()
			}
		case common.KeyL:
			logger.SetDebug(!logger.DebugEnabled())
		}
	})

	camNode := findCamera(sc)
	eng.Window().SetScrollCallback(func(delta float32) {
		if camNode == nil {
			return
		}
		t := camNode.Local()
		dir := camNode.Camera().Target().Sub(t.Translation)
		if dir.Len() < 1 && delta > 0 {
			return
		}
		t.Translation = t.Translation.Add(dir.Mul(0.1 * delta))
		camNode.SetLocal(t)
	})

	eng.Run()
}

// buildScene assembles the showcase: a floor, a spinning cube and two spheres under one
// directional light, lit by the environment in envDir or a generated sky.
func buildScene(envDir string, envSize uint32, floorTexture string) (scene.Scene, error) {
	opts := []scene.SceneBuilderOption{scene.WithEnvironmentSize(envSize)}
	if envDir != "" {
		env, err := loadEnvironment(envDir, envSize)
		if err != nil {
			return nil, err
		}
		opts = append(opts, scene.WithEnvironment(env))
	}

	cam := scene.NewCameraNode("main camera", camera.NewCamera(
		camera.WithPosition(mgl32.Vec3{0, 3, 8}),
		camera.WithTarget(mgl32.Vec3{0, 0.5, 0}),
		camera.WithFov(float32(45.0*math.Pi/180.0)),
		camera.WithNear(0.1),
		camera.WithFar(100),
	))
	sun := scene.NewLightNode("sun", light.NewLight(light.LightTypeDirectional,
		light.WithPosition(mgl32.Vec3{6, 10, 4}),
		light.WithColor(mgl32.Vec3{1, 0.97, 0.9}),
		light.WithIntensity(3),
		light.WithShadowFrustum(8, 0.1, 40),
		light.WithShadowResolution(2048),
	))

	floorOpts := []material.MaterialBuilderOption{
		material.WithName("floor"),
		material.WithAlbedo(mgl32.Vec3{0.6, 0.6, 0.6}),
		material.WithRoughness(0.9),
	}
	if floorTexture != "" {
		img, err := loadImage(floorTexture)
		if err != nil {
			return nil, err
		}
		tex := common.NewTextureStagingData(img, 0, 0)
		floorOpts = append(floorOpts, material.WithBaseMap(&tex))
	}
	floor := scene.NewMeshNode("floor", model.NewPlane("floor", 12), material.NewMaterial(floorOpts...))

	cube := scene.NewMeshNode("cube", model.NewCube("cube", 1), material.NewMaterial(
		material.WithName("painted"),
		material.WithAlbedo(mgl32.Vec3{0.8, 0.1, 0.1}),
		material.WithRoughness(0.4),
	))
	cube.SetLocal(translated(mgl32.Vec3{0, 0.5, 0}))

	gold := scene.NewMeshNode("gold sphere", model.NewSphere("gold sphere", 0.6, 48, 24), material.NewMaterial(
		material.WithName("gold"),
		material.WithAlbedo(mgl32.Vec3{1.0, 0.78, 0.34}),
		material.WithMetalness(1),
		material.WithRoughness(0.25),
	))
	gold.SetLocal(translated(mgl32.Vec3{-2, 0.6, 0}))

	plastic := scene.NewMeshNode("phong sphere", model.NewSphere("phong sphere", 0.6, 48, 24), material.NewMaterial(
		material.WithName("plastic"),
		material.WithPhong(32),
		material.WithAlbedo(mgl32.Vec3{0.1, 0.3, 0.8}),
		material.WithSpecular(mgl32.Vec3{0.5, 0.5, 0.5}),
	))
	plastic.SetLocal(translated(mgl32.Vec3{2, 0.6, 0}))

	opts = append(opts, scene.WithNodes(cam, sun, floor, cube, gold, plastic))
	return scene.NewScene("viewer", opts...), nil
}

func translated(p mgl32.Vec3) model.Transform {
	t := model.IdentityTransform()
	t.Translation = p
	return t
}

func loadEnvironment(dir string, size uint32) (*common.CubeStagingData, error) {
	var faces [6]image.Image
	for i, stem := range cubeFaces {
		matches, err := filepath.Glob(filepath.Join(dir, stem+".*"))
		if err != nil {
			return nil, err
		}
		if len(matches) == 0 {
			return nil, fmt.Errorf("environment face %q not found in %s", stem, dir)
		}
		if faces[i], err = loadImage(matches[0]); err != nil {
			return nil, err
		}
	}
	return common.NewCubeStagingDataFromImages(faces, size)
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", path, err)
	}
	return img, nil
}

func findMesh(s scene.Scene, name string) *scene.MeshNode {
	var found *scene.MeshNode
	_ = s.Traverse(func(n scene.Node) error {
		if m, ok := n.(*scene.MeshNode); ok && m.Name() == name {
			found = m
		}
		return nil
	})
	return found
}

func findCamera(s scene.Scene) *scene.CameraNode {
	var cam *scene.CameraNode
	_ = s.Traverse(func(n scene.Node) error {
		if c, ok := n.(*scene.CameraNode); ok && cam == nil {
			cam = c
		}
		return nil
	})
	return cam
}
