package audio

import (
	"testing"
	"time"
)

func TestEncodeProbeRoundTrip(t *testing.T) {
	// One second of silence: 24000 samples * 2 bytes.
	pcm := make([]byte, 24000*2)
	wav, err := EncodePCM16LE(pcm, 24000)
	if err != nil {
		t.Fatalf("EncodePCM16LE failed: %v", err)
	}
	if len(wav) != 44+len(pcm) {
		t.Fatalf("wav size = %d, want %d", len(wav), 44+len(pcm))
	}

	info, err := Probe(wav)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.SampleRate != 24000 || info.Channels != 1 || info.BitsPerSample != 16 {
		t.Fatalf("info = %+v", info)
	}
	if info.DataBytes != len(pcm) {
		t.Fatalf("DataBytes = %d, want %d", info.DataBytes, len(pcm))
	}
	if info.Duration != time.Second {
		t.Fatalf("Duration = %v, want 1s", info.Duration)
	}
}

func TestEncodeDefaultSampleRate(t *testing.T) {
	wav, err := EncodePCM16LE(make([]byte, 480), 0)
	if err != nil {
		t.Fatalf("EncodePCM16LE failed: %v", err)
	}
	info, err := Probe(wav)
	if err != nil {
		t.Fatalf("Probe failed: %v", err)
	}
	if info.SampleRate != 24000 {
		t.Fatalf("SampleRate = %d, want default 24000", info.SampleRate)
	}
}

func TestProbeRejectsGarbage(t *testing.T) {
	cases := [][]byte{
		nil,
		[]byte("short"),
		[]byte("NOTARIFFFILE"),
		[]byte("RIFF\x00\x00\x00\x00WAVE"), // headers only, no fmt chunk
	}
	for _, data := range cases {
		if _, err := Probe(data); err == nil {
			t.Fatalf("Probe(%q) succeeded, want error", data)
		}
	}
}

func TestProbeRejectsTruncatedChunk(t *testing.T) {
	wav, err := EncodePCM16LE(make([]byte, 1000), 24000)
	if err != nil {
		t.Fatalf("EncodePCM16LE failed: %v", err)
	}
	// Cut into the data chunk so the declared size overruns the buffer.
	if _, err := Probe(wav[:len(wav)-100]); err == nil {
		t.Fatalf("Probe accepted truncated wav")
	}
}
