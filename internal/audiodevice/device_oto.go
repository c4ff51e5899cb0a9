//go:build !headless

package audiodevice

import (
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/ebitengine/oto/v3"

	"github.com/nyquistlabs/rackengine/internal/abuffer"
)

// OtoDevice streams a Source's render output to the system's default
// audio output via oto/v3. The Read callback is oto's hot path: it
// loads the source through an atomic pointer and never takes the
// control mutex, matching the teacher's OtoPlayer.Read.
type OtoDevice struct {
	ctx      *oto.Context
	player   *oto.Player
	source   atomic.Pointer[Source]
	channels int
	frameBuf *abuffer.Buffer
	started  bool
	mutex    sync.Mutex
}

// NewOtoDevice opens a default oto context at sampleRate/channels and
// wires it to pull blocks from src.
func NewOtoDevice(sampleRate, channels int, src Source) (*OtoDevice, error) {
	ctx, ready, err := oto.NewContext(&oto.NewContextOptions{
		SampleRate:   sampleRate,
		ChannelCount: channels,
		Format:       oto.FormatFloat32LE,
		BufferSize:   4,
	})
	if err != nil {
		return nil, err
	}
	<-ready

	d := &OtoDevice{ctx: ctx, channels: channels, frameBuf: abuffer.New(0, channels)}
	d.source.Store(&src)
	d.player = ctx.NewPlayer(d)
	return d, nil
}

// Read implements io.Reader for oto: it fills p with interleaved
// float32 samples rendered from the current source.
func (d *OtoDevice) Read(p []byte) (int, error) {
	srcPtr := d.source.Load()
	if srcPtr == nil || *srcPtr == nil {
		for i := range p {
			p[i] = 0
		}
		return len(p), nil
	}
	src := *srcPtr

	bytesPerFrame := 4 * d.channels
	frames := len(p) / bytesPerFrame
	d.frameBuf.Resize(frames, d.channels)
	src.RenderBlockSequential(frames, d.frameBuf)

	copy(p, floatBytes(d.frameBuf.Data))
	return len(p), nil
}

func floatBytes(samples []float32) []byte {
	if len(samples) == 0 {
		return nil
	}
	return (*[1 << 30]byte)(unsafe.Pointer(&samples[0]))[: len(samples)*4 : len(samples)*4]
}

func (d *OtoDevice) Start() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if !d.started && d.player != nil {
		d.player.Play()
		d.started = true
	}
}

func (d *OtoDevice) Stop() {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.started && d.player != nil {
		d.player.Pause()
		d.started = false
	}
}

func (d *OtoDevice) Close() {
	d.Stop()
	d.mutex.Lock()
	defer d.mutex.Unlock()
	if d.player != nil {
		d.player.Close()
		d.player = nil
	}
}

func (d *OtoDevice) IsStarted() bool {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	return d.started
}
