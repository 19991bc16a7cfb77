package assets

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/sirupsen/logrus"

	"roomwalk/pkg/logger"
	"roomwalk/scene"
)

// DefaultScale is the uniform scale applied to every loaded model.
const DefaultScale = 100

// DecodeFunc reads and decodes a model file. It runs on a loader goroutine
// and must not touch the scene.
type DecodeFunc func(path string) (*scene.GLTFResult, error)

// DecodeError reports a model that could not be fetched or parsed.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

type result struct {
	path  string
	model *scene.GLTFResult
	err   error
}

// Loader decodes models in the background and hands them to the render
// goroutine, which attaches them during Integrate.
type Loader struct {
	ctx    context.Context
	cancel context.CancelFunc

	decode DecodeFunc
	log    logrus.FieldLogger
	scale  float32

	results chan result
	pending atomic.Int32
	wg      sync.WaitGroup
}

type Option func(*Loader)

func WithDecoder(fn DecodeFunc) Option {
	return func(l *Loader) { l.decode = fn }
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(l *Loader) { l.log = log }
}

func WithScale(scale float32) Option {
	return func(l *Loader) { l.scale = scale }
}

// NewLoader creates a loader bound to ctx. Cancelling ctx has the same
// effect as Close.
func NewLoader(ctx context.Context, opts ...Option) *Loader {
	ctx, cancel := context.WithCancel(ctx)
	l := &Loader{
		ctx:     ctx,
		cancel:  cancel,
		decode:  scene.LoadGLTF,
		log:     logger.For("assets"),
		scale:   DefaultScale,
		results: make(chan result, 4),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load starts decoding path and returns immediately.
func (l *Loader) Load(path string) {
	if l.ctx.Err() != nil {
		l.log.WithField("path", path).Debug("loader closed, ignoring load")
		return
	}
	l.pending.Add(1)
	l.wg.Add(1)
	l.log.WithField("path", path).Info("loading model")

	go func() {
		defer l.wg.Done()
		model, err := l.decodeSafely(path)
		if l.ctx.Err() != nil {
			l.discard(path)
			return
		}
		select {
		case l.results <- result{path: path, model: model, err: err}:
			// Close may have run between the check above and the send.
			if l.ctx.Err() != nil {
				l.drain()
			}
		case <-l.ctx.Done():
			l.discard(path)
		}
	}()
}

// decodeSafely runs the decoder and normalises every failure, including a
// panic on malformed input and an empty result, into a *DecodeError.
func (l *Loader) decodeSafely(path string) (model *scene.GLTFResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			model = nil
			err = &DecodeError{Path: path, Err: fmt.Errorf("decoder panic: %v", r)}
		}
	}()

	model, err = l.decode(path)
	if err == nil && model == nil {
		err = errors.New("empty model")
	}
	if err != nil {
		var de *DecodeError
		if !errors.As(err, &de) {
			err = &DecodeError{Path: path, Err: err}
		}
		return nil, err
	}
	return model, nil
}

func (l *Loader) discard(path string) {
	l.pending.Add(-1)
	l.log.WithField("path", path).Debug("discarding model finished after close")
}

// Integrate attaches every model that finished since the last call and
// returns the attached group nodes. It never blocks. Failed loads are
// logged and leave the scene untouched. Call it from the goroutine that
// owns the scene.
func (l *Loader) Integrate(s *scene.Scene) []*scene.Node {
	var attached []*scene.Node
	for {
		select {
		case r := <-l.results:
			if l.ctx.Err() != nil {
				l.discard(r.path)
				continue
			}
			l.pending.Add(-1)
			if group := l.attach(s, r); group != nil {
				attached = append(attached, group)
			}
		default:
			return attached
		}
	}
}

func (l *Loader) attach(s *scene.Scene, r result) *scene.Node {
	if r.err != nil {
		l.log.WithFields(logrus.Fields{
			"path":  r.path,
			"error": r.err,
		}).Error("GLB load error")
		return nil
	}

	group := scene.NewNode(modelName(r.path))
	for _, root := range r.model.Roots {
		group.AddChild(root)
	}
	group.SetScale(mgl32.Vec3{l.scale, l.scale, l.scale})
	s.Add(group)

	l.log.WithFields(logrus.Fields{
		"path":     r.path,
		"nodes":    r.model.NodeCount(),
		"textures": len(r.model.Textures),
	}).Info("model attached")
	return group
}

// Pending is the number of loads that have been neither integrated nor
// discarded.
func (l *Loader) Pending() int {
	return int(l.pending.Load())
}

// Close cancels the loader and drops results not yet integrated. Loads
// still decoding finish in the background and are dropped without touching
// the scene.
func (l *Loader) Close() {
	l.cancel()
	l.drain()
}

func (l *Loader) drain() {
	for {
		select {
		case r := <-l.results:
			l.discard(r.path)
		default:
			return
		}
	}
}

// Wait blocks until every decode goroutine has returned.
func (l *Loader) Wait() {
	l.wg.Wait()
}

func modelName(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
