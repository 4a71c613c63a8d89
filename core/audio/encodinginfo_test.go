package audio

import "testing"

func TestDefaultEncodingInfo(t *testing.T) {
	info := GetDefaultEncodingInfo()

	if info.IsZero() {
		t.Fatalf("expected default encoding info to be set")
	}
	if info.SampleRate != 16000 || info.Format != EncodingLinear16 {
		t.Fatalf("unexpected default encoding info %+v", info)
	}
	if got := info.BytesPerSecond(); got != 32000 {
		t.Fatalf("expected 32000 bytes per second, got %d", got)
	}
}

func TestSilenceValuePerFormat(t *testing.T) {
	testCases := []struct {
		format   encodingFormat
		expected byte
	}{
		{format: EncodingLinear16, expected: 0},
		{format: EncodingALaw, expected: 0x55},
		{format: EncodingMulaw, expected: 0xFF},
	}

	for _, testCase := range testCases {
		t.Run(testCase.format.Name(), func(t *testing.T) {
			info := EncodingInfo{SampleRate: 8000, Format: testCase.format}
			if got := info.SilenceValue(); got != testCase.expected {
				t.Fatalf("expected silence value %#x, got %#x", testCase.expected, got)
			}
		})
	}
}

func TestUnknownFormatHasNoByteRate(t *testing.T) {
	info := EncodingInfo{SampleRate: 8000, Format: encodingFormat("opus")}
	if got := info.BytesPerSecond(); got != -1 {
		t.Fatalf("expected -1 for unknown format, got %d", got)
	}
}
