package audio

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"os"
)

// wavFormat holds the decoded fmt chunk of a RIFF/WAVE file.
type wavFormat struct {
	Channels      int
	SampleRate    int
	BitsPerSample int
	DataOffset    int64 // byte offset of the data chunk payload
	DataSize      int64 // payload length in bytes
}

// frameSize returns the byte size of one sample frame across all channels.
func (f wavFormat) frameSize() int {
	return f.Channels * f.BitsPerSample / 8
}

// durationSeconds returns the clip length derived from the data chunk.
func (f wavFormat) durationSeconds() float64 {
	bytesPerSecond := f.SampleRate * f.frameSize()
	if bytesPerSecond == 0 {
		return 0
	}
	return float64(f.DataSize) / float64(bytesPerSecond)
}

// decodeWAVHeader reads the RIFF header and chunk list of a WAV file
// without touching the sample payload.
func decodeWAVHeader(r io.ReadSeeker) (wavFormat, error) {
	var f wavFormat

	var riff [12]byte
	if _, err := io.ReadFull(r, riff[:]); err != nil {
		return f, fmt.Errorf("read riff header: %w", err)
	}
	if string(riff[0:4]) != "RIFF" || string(riff[8:12]) != "WAVE" {
		return f, fmt.Errorf("not a RIFF/WAVE file")
	}

	offset := int64(12)
	haveFmt := false
	for {
		var chunk [8]byte
		if _, err := io.ReadFull(r, chunk[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				break
			}
			return f, fmt.Errorf("read chunk header: %w", err)
		}
		id := string(chunk[0:4])
		size := int64(binary.LittleEndian.Uint32(chunk[4:8]))
		offset += 8

		switch id {
		case "fmt ":
			body := make([]byte, size)
			if _, err := io.ReadFull(r, body); err != nil {
				return f, fmt.Errorf("read fmt chunk: %w", err)
			}
			if size < 16 {
				return f, fmt.Errorf("fmt chunk too short: %d bytes", size)
			}
			audioFormat := binary.LittleEndian.Uint16(body[0:2])
			if audioFormat != 1 {
				return f, fmt.Errorf("unsupported audio format %d (PCM only)", audioFormat)
			}
			f.Channels = int(binary.LittleEndian.Uint16(body[2:4]))
			f.SampleRate = int(binary.LittleEndian.Uint32(body[4:8]))
			f.BitsPerSample = int(binary.LittleEndian.Uint16(body[14:16]))
			haveFmt = true
			offset += size
		case "data":
			f.DataOffset = offset
			f.DataSize = size
			if !haveFmt {
				return f, fmt.Errorf("data chunk before fmt chunk")
			}
			if f.BitsPerSample != 16 {
				return f, fmt.Errorf("unsupported bit depth %d (16-bit only)", f.BitsPerSample)
			}
			if f.Channels == 0 || f.SampleRate == 0 {
				return f, fmt.Errorf("invalid format: %d channels at %d Hz", f.Channels, f.SampleRate)
			}
			return f, nil
		default:
			// Skip unknown chunks (LIST, fact, ...)
			if _, err := r.Seek(size, io.SeekCurrent); err != nil {
				return f, fmt.Errorf("skip %q chunk: %w", id, err)
			}
			offset += size
		}
	}

	return f, fmt.Errorf("no data chunk found")
}

// readSamples reads up to maxFrames frames starting at the data chunk,
// returning per-frame mono samples normalized to [-1, 1]. Multi-channel
// input is averaged down to one value per frame.
func readSamples(r io.ReadSeeker, f wavFormat, maxFrames int) ([]float64, error) {
	if _, err := r.Seek(f.DataOffset, io.SeekStart); err != nil {
		return nil, fmt.Errorf("seek to data: %w", err)
	}

	totalFrames := int(f.DataSize) / f.frameSize()
	if maxFrames > 0 && totalFrames > maxFrames {
		totalFrames = maxFrames
	}

	raw := make([]byte, totalFrames*f.frameSize())
	n, err := io.ReadFull(r, raw)
	if err != nil && err != io.ErrUnexpectedEOF {
		return nil, fmt.Errorf("read samples: %w", err)
	}
	raw = raw[:n-n%f.frameSize()]

	frames := len(raw) / f.frameSize()
	samples := make([]float64, frames)
	for i := 0; i < frames; i++ {
		var sum float64
		for ch := 0; ch < f.Channels; ch++ {
			off := i*f.frameSize() + ch*2
			v := int16(binary.LittleEndian.Uint16(raw[off : off+2]))
			sum += float64(v) / 32768.0
		}
		samples[i] = sum / float64(f.Channels)
	}
	return samples, nil
}

// writeWAV writes mono 16-bit PCM samples as a WAV file.
func writeWAV(path string, samples []float64, sampleRate int) error {
	var buf bytes.Buffer

	const channels = 1
	const bitsPerSample = 16
	byteRate := sampleRate * channels * bitsPerSample / 8
	blockAlign := channels * bitsPerSample / 8

	dataSize := len(samples) * 2
	fileSize := 36 + dataSize

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, uint32(fileSize))
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(channels))
	binary.Write(&buf, binary.LittleEndian, uint32(sampleRate))
	binary.Write(&buf, binary.LittleEndian, uint32(byteRate))
	binary.Write(&buf, binary.LittleEndian, uint16(blockAlign))
	binary.Write(&buf, binary.LittleEndian, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, uint32(dataSize))
	for _, s := range samples {
		if s > 1 {
			s = 1
		} else if s < -1 {
			s = -1
		}
		binary.Write(&buf, binary.LittleEndian, int16(s*32767))
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}
