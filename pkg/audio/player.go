package audio

import (
	"bytes"
	"encoding/binary"
	"io"
	"log"
	"math"
	"os"
	"sync"
	"time"

	"github.com/ebitengine/oto/v3"

	"github.com/borgmon/wake-breaker/pkg/errs"
)

// Global audio context singleton
var (
	globalAudioCtx     *oto.Context
	globalAudioCtxOnce sync.Once
	audioCtxReady      bool
)

// Sound is decoded 16-bit PCM ready for looped playback.
type Sound struct {
	format wavFormat
	data   []byte
}

// wavFormat holds WAV file format information
type wavFormat struct {
	SampleRate int
	Channels   int
	BitDepth   int
}

// initAudioContext initializes the global audio context once
func initAudioContext(format wavFormat) {
	globalAudioCtxOnce.Do(func() {
		op := &oto.NewContextOptions{
			SampleRate:   format.SampleRate,
			ChannelCount: format.Channels,
			Format:       oto.FormatSignedInt16LE,
		}

		ctx, readyChan, err := oto.NewContext(op)
		if err != nil {
			log.Printf("Failed to initialize audio context: %v", err)
			return
		}

		// Wait for the hardware audio devices to be ready
		<-readyChan

		globalAudioCtx = ctx
		audioCtxReady = true
		log.Println("Audio context initialized successfully")
	})
}

// Decode parses WAV data into a playable Sound.
func Decode(wavData []byte) (*Sound, error) {
	format, data, err := parseWAV(wavData)
	if err != nil {
		return nil, err
	}
	if format.BitDepth != 16 {
		return nil, errs.Errorf(errs.Resource, "unsupported WAV bit depth %d, want 16", format.BitDepth)
	}
	return &Sound{format: format, data: data}, nil
}

// LoadFile reads and decodes a WAV file from disk.
func LoadFile(path string) (*Sound, error) {
	wavData, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.Errorf(errs.Resource, "read sound file: %v", err)
	}
	return Decode(wavData)
}

const (
	toneSampleRate = 44100
	toneFrequency  = 880.0
)

// DefaultTone synthesizes the built-in alarm sound: two short beeps and a
// pause, which loop into the classic alarm cadence. Having a generated tone
// means the binary ships without a bundled sound asset.
func DefaultTone() *Sound {
	beep := 220 * time.Millisecond
	gap := 130 * time.Millisecond
	rest := 420 * time.Millisecond

	var pcm bytes.Buffer
	writeTone := func(d time.Duration, freq float64) {
		n := int(d.Seconds() * toneSampleRate)
		for i := 0; i < n; i++ {
			sample := 0.0
			if freq > 0 {
				sample = math.Sin(2 * math.Pi * freq * float64(i) / toneSampleRate)
				// Short linear fade at both ends to avoid clicks.
				const fade = toneSampleRate / 100
				if i < fade {
					sample *= float64(i) / fade
				} else if n-i < fade {
					sample *= float64(n-i) / fade
				}
			}
			binary.Write(&pcm, binary.LittleEndian, int16(sample*0.6*math.MaxInt16))
		}
	}

	writeTone(beep, toneFrequency)
	writeTone(gap, 0)
	writeTone(beep, toneFrequency)
	writeTone(rest, 0)

	return &Sound{
		format: wavFormat{SampleRate: toneSampleRate, Channels: 1, BitDepth: 16},
		data:   pcm.Bytes(),
	}
}

// Playback is a handle to running looped audio with cancellation support.
type Playback struct {
	stopChan chan struct{}
	player   *oto.Player
	stopped  bool
	mu       sync.Mutex
}

// Play starts looping the sound until the returned Playback is stopped.
func (s *Sound) Play() (*Playback, error) {
	initAudioContext(s.format)

	if !audioCtxReady || globalAudioCtx == nil {
		return nil, errs.Errorf(errs.Resource, "audio context not ready")
	}

	p := &Playback{
		stopChan: make(chan struct{}),
	}

	// Play the sound in a goroutine so it doesn't block
	go p.playLoop(s.data)

	return p, nil
}

func (p *Playback) playLoop(audioData []byte) {
	// Loop the alarm sound until stopped
	for {
		// Create a new player for each loop iteration. Stop reads p.player
		// under the mutex, so the handoff happens under it too.
		player := globalAudioCtx.NewPlayer(bytes.NewReader(audioData))
		p.mu.Lock()
		if p.stopped {
			p.mu.Unlock()
			player.Close()
			return
		}
		p.player = player
		p.mu.Unlock()

		// Play starts playing the sound and returns without waiting
		player.Play()

		// Wait for the sound to finish playing or stop signal
		for player.IsPlaying() {
			select {
			case <-p.stopChan:
				// Stop requested, pause and cleanup then exit
				player.Pause()
				player.Close()
				log.Println("Audio player closed")
				return
			case <-time.After(10 * time.Millisecond):
				// Continue checking
			}
		}

		// Close the player before creating a new one
		if err := player.Close(); err != nil {
			log.Printf("Failed to close audio player: %v", err)
		}

		// Check if stop was requested between loops
		select {
		case <-p.stopChan:
			return
		default:
			// Continue looping
		}
	}
}

// Stop stops the audio playback and releases the player. Idempotent.
func (p *Playback) Stop() {
	if p == nil {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if !p.stopped {
		p.stopped = true
		close(p.stopChan)

		// Also try to pause the current player if it exists
		if p.player != nil {
			p.player.Pause()
		}

		log.Println("Audio playback stopped")
	}
}

// parseWAV parses a WAV file and returns the format and audio data
func parseWAV(data []byte) (wavFormat, []byte, error) {
	reader := bytes.NewReader(data)

	// Read RIFF header
	riff := make([]byte, 4)
	if _, err := reader.Read(riff); err != nil {
		return wavFormat{}, nil, errs.Errorf(errs.Resource, "truncated WAV header")
	}
	if string(riff) != "RIFF" {
		return wavFormat{}, nil, errs.Errorf(errs.Resource, "not a RIFF file")
	}

	// Skip file size
	reader.Seek(4, io.SeekCurrent)

	// Read WAVE header
	wave := make([]byte, 4)
	if _, err := reader.Read(wave); err != nil {
		return wavFormat{}, nil, errs.Errorf(errs.Resource, "truncated WAV header")
	}
	if string(wave) != "WAVE" {
		return wavFormat{}, nil, errs.Errorf(errs.Resource, "not a WAVE file")
	}

	format := wavFormat{}
	var dataStart int64
	var dataSize uint32
	haveData := false

	// Read chunks
	for {
		chunkID := make([]byte, 4)
		if _, err := reader.Read(chunkID); err != nil {
			if err == io.EOF {
				break
			}
			return wavFormat{}, nil, errs.Errorf(errs.Resource, "read WAV chunk: %v", err)
		}

		var chunkSize uint32
		if err := binary.Read(reader, binary.LittleEndian, &chunkSize); err != nil {
			return wavFormat{}, nil, errs.Errorf(errs.Resource, "read WAV chunk size: %v", err)
		}

		switch string(chunkID) {
		case "fmt ":
			// Read format chunk
			var audioFormat uint16
			binary.Read(reader, binary.LittleEndian, &audioFormat)

			var numChannels uint16
			binary.Read(reader, binary.LittleEndian, &numChannels)
			format.Channels = int(numChannels)

			var sampleRate uint32
			binary.Read(reader, binary.LittleEndian, &sampleRate)
			format.SampleRate = int(sampleRate)

			// Skip byte rate and block align
			reader.Seek(6, io.SeekCurrent)

			var bitsPerSample uint16
			binary.Read(reader, binary.LittleEndian, &bitsPerSample)
			format.BitDepth = int(bitsPerSample)

			// Skip any extra format bytes
			if chunkSize > 16 {
				reader.Seek(int64(chunkSize-16), io.SeekCurrent)
			}
		case "data":
			dataStart, _ = reader.Seek(0, io.SeekCurrent)
			dataSize = chunkSize
			haveData = true
		default:
			// Skip unknown chunk
			reader.Seek(int64(chunkSize), io.SeekCurrent)
		}

		if haveData {
			break
		}
	}

	if !haveData {
		return wavFormat{}, nil, errs.Errorf(errs.Resource, "WAV file has no data chunk")
	}
	if format.SampleRate == 0 || format.Channels == 0 {
		return wavFormat{}, nil, errs.Errorf(errs.Resource, "WAV file has no format chunk")
	}

	// Read audio data
	audioData := make([]byte, dataSize)
	reader.Seek(dataStart, io.SeekStart)
	if _, err := io.ReadFull(reader, audioData); err != nil {
		return wavFormat{}, nil, errs.Errorf(errs.Resource, "truncated WAV data chunk")
	}

	return format, audioData, nil
}

// EncodeWAV renders a Sound back into a minimal WAV container. Used to
// export the built-in tone so users can audition or replace it.
func EncodeWAV(s *Sound) []byte {
	var buf bytes.Buffer
	dataLen := uint32(len(s.data))
	blockAlign := uint16(s.format.Channels * s.format.BitDepth / 8)
	byteRate := uint32(s.format.SampleRate) * uint32(blockAlign)

	buf.WriteString("RIFF")
	binary.Write(&buf, binary.LittleEndian, 36+dataLen)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, binary.LittleEndian, uint32(16))
	binary.Write(&buf, binary.LittleEndian, uint16(1)) // PCM
	binary.Write(&buf, binary.LittleEndian, uint16(s.format.Channels))
	binary.Write(&buf, binary.LittleEndian, uint32(s.format.SampleRate))
	binary.Write(&buf, binary.LittleEndian, byteRate)
	binary.Write(&buf, binary.LittleEndian, blockAlign)
	binary.Write(&buf, binary.LittleEndian, uint16(s.format.BitDepth))

	buf.WriteString("data")
	binary.Write(&buf, binary.LittleEndian, dataLen)
	buf.Write(s.data)

	return buf.Bytes()
}
