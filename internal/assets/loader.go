package assets

import (
	"context"
	"fmt"
	"image"
	"sync"
)

// Result is one finished load. Exactly one of Model, Image or Err is set.
type Result struct {
	Name  string
	Path  string
	Model *Model
	Image *image.RGBA
	Err   error
}

// Loader decodes assets in background goroutines. Results are collected
// with Poll from the render thread, which does the GL upload.
type Loader struct {
	results chan Result
	wg      sync.WaitGroup

	// overridable in tests
	loadModel func(path string, p Placement) (*Model, error)
	loadImage func(path string) (*image.RGBA, error)
}

func NewLoader() *Loader {
	return &Loader{
		results:   make(chan Result, 16),
		loadModel: LoadGLTF,
		loadImage: LoadImage,
	}
}

// LoadModel starts decoding a glTF scene.
func (l *Loader) LoadModel(ctx context.Context, name, path string, p Placement) {
	l.start(ctx, name, path, func() (Result, error) {
		m, err := l.loadModel(path, p)
		return Result{Model: m}, err
	})
}

// LoadImage starts decoding a PNG or JPEG.
func (l *Loader) LoadImage(ctx context.Context, name, path string) {
	l.start(ctx, name, path, func() (Result, error) {
		img, err := l.loadImage(path)
		return Result{Image: img}, err
	})
}

func (l *Loader) start(ctx context.Context, name, path string, fn func() (Result, error)) {
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		res, err := run(fn)
		res.Name, res.Path = name, path
		if err != nil {
			res = Result{Name: name, Path: path, Err: fmt.Errorf("load %s: %w", name, err)}
		}
		select {
		case l.results <- res:
		case <-ctx.Done():
		}
	}()
}

func run(fn func() (Result, error)) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			res, err = Result{}, fmt.Errorf("decoder panic: %v", r)
		}
	}()
	return fn()
}

// Poll returns every result that has arrived since the last call without
// waiting for outstanding loads.
func (l *Loader) Poll() []Result {
	var out []Result
	for {
		select {
		case r := <-l.results:
			out = append(out, r)
		default:
			return out
		}
	}
}

// Wait blocks until every started load has delivered or been cancelled.
func (l *Loader) Wait() {
	l.wg.Wait()
}
