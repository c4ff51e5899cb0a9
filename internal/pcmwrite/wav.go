// Package pcmwrite writes a minimal 16-bit PCM WAV file: a canonical
// 44-byte header followed by raw samples. Full audio file format
// support (compressed codecs, metadata chunks, float formats) is an
// explicit non-goal, so this stays deliberately small — header plus a
// single write-all call, the teacher's own preference for doing one
// thing with encoding/binary rather than pulling in a media library
// for what is ultimately a debugging/offline-render convenience.
package pcmwrite

import (
	"encoding/binary"
	"io"
)

// WriteWAV writes samples (interleaved, one float32 per channel per
// frame, range approximately [-1, 1]) as a 16-bit PCM WAV file to w.
func WriteWAV(w io.Writer, samples []float32, sampleRate, channels int) error {
	bitsPerSample := 16
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8
	dataSize := len(samples) * bitsPerSample / 8

	header := make([]byte, 44)
	copy(header[0:4], "RIFF")
	binary.LittleEndian.PutUint32(header[4:8], uint32(36+dataSize))
	copy(header[8:12], "WAVE")
	copy(header[12:16], "fmt ")
	binary.LittleEndian.PutUint32(header[16:20], 16)
	binary.LittleEndian.PutUint16(header[20:22], 1) // PCM
	binary.LittleEndian.PutUint16(header[22:24], uint16(channels))
	binary.LittleEndian.PutUint32(header[24:28], uint32(sampleRate))
	binary.LittleEndian.PutUint32(header[28:32], uint32(byteRate))
	binary.LittleEndian.PutUint16(header[32:34], uint16(blockAlign))
	binary.LittleEndian.PutUint16(header[34:36], uint16(bitsPerSample))
	copy(header[36:40], "data")
	binary.LittleEndian.PutUint32(header[40:44], uint32(dataSize))

	if _, err := w.Write(header); err != nil {
		return err
	}

	buf := make([]byte, len(samples)*2)
	for i, s := range samples {
		v := clampToInt16(s)
		binary.LittleEndian.PutUint16(buf[i*2:i*2+2], uint16(v))
	}
	_, err := w.Write(buf)
	return err
}

func clampToInt16(s float32) int16 {
	v := s * 32767
	if v > 32767 {
		v = 32767
	} else if v < -32768 {
		v = -32768
	}
	return int16(v)
}
