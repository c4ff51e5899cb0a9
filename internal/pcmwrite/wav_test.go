package pcmwrite

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestWriteWAVHeaderFields(t *testing.T) {
	var buf bytes.Buffer
	samples := []float32{0, 0.5, -0.5, 1, -1}
	require.NoError(t, WriteWAV(&buf, samples, 48000, 2))

	b := buf.Bytes()
	require.Equal(t, "RIFF", string(b[0:4]))
	require.Equal(t, "WAVE", string(b[8:12]))
	require.Equal(t, "fmt ", string(b[12:16]))
	require.Equal(t, uint16(1), binary.LittleEndian.Uint16(b[20:22])) // PCM
	require.Equal(t, uint16(2), binary.LittleEndian.Uint16(b[22:24]))
	require.Equal(t, uint32(48000), binary.LittleEndian.Uint32(b[24:28]))
	require.Equal(t, uint16(16), binary.LittleEndian.Uint16(b[34:36]))
	require.Equal(t, "data", string(b[36:40]))
	require.Equal(t, uint32(len(samples)*2), binary.LittleEndian.Uint32(b[40:44]))
	require.Len(t, b, 44+len(samples)*2)
}

func TestWriteWAVSamplesRoundTripScale(t *testing.T) {
	var buf bytes.Buffer
	samples := []float32{1, -1, 0}
	require.NoError(t, WriteWAV(&buf, samples, 44100, 1))

	data := buf.Bytes()[44:]
	require.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(data[0:2])))
	require.Equal(t, int16(-32767), int16(binary.LittleEndian.Uint16(data[2:4])))
	require.Equal(t, int16(0), int16(binary.LittleEndian.Uint16(data[4:6])))
}

func TestWriteWAVClampsOutOfRangeSamples(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWAV(&buf, []float32{2.0, -3.0}, 44100, 1))
	data := buf.Bytes()[44:]
	require.Equal(t, int16(32767), int16(binary.LittleEndian.Uint16(data[0:2])))
	require.Equal(t, int16(-32768), int16(binary.LittleEndian.Uint16(data[2:4])))
}
