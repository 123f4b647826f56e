package audio

import (
	"fmt"
)

// G.711 μ-law codec and sample-rate conversion for the Twilio media leg.
// Twilio media frames carry 8-bit μ-law at 8kHz; the STT collaborator
// wants linear PCM and the TTS collaborator produces linear PCM at 24kHz.

const mulawBias = 0x84

// ConvertPCMToPCMU converts 16-bit little-endian linear PCM to G.711
// PCMU (μ-law), resampling when the rates differ
func ConvertPCMToPCMU(pcmData []byte, inputSampleRate, outputSampleRate int) ([]byte, error) {
	samples, err := BytesToPCM16(pcmData)
	if err != nil {
		return nil, err
	}

	if inputSampleRate != outputSampleRate {
		samples = Resample(samples, inputSampleRate, outputSampleRate)
	}

	out := make([]byte, len(samples))
	for i, sample := range samples {
		out[i] = LinearToMulaw(sample)
	}
	return out, nil
}

// ConvertPCMUToPCM converts G.711 PCMU (μ-law) audio to 16-bit
// little-endian linear PCM at the same sample rate
func ConvertPCMUToPCM(pcmuData []byte) []byte {
	out := make([]byte, len(pcmuData)*2)
	for i, b := range pcmuData {
		sample := MulawToLinear(b)
		out[i*2] = byte(sample)
		out[i*2+1] = byte(sample >> 8)
	}
	return out
}

// DecodeMulawSamples decodes μ-law bytes into linear samples
func DecodeMulawSamples(pcmuData []byte) []int16 {
	samples := make([]int16, len(pcmuData))
	for i, b := range pcmuData {
		samples[i] = MulawToLinear(b)
	}
	return samples
}

// BytesToPCM16 reinterprets little-endian bytes as 16-bit samples
func BytesToPCM16(data []byte) ([]int16, error) {
	if len(data)%2 != 0 {
		return nil, fmt.Errorf("PCM data length must be even (16-bit samples)")
	}
	samples := make([]int16, len(data)/2)
	for i := range samples {
		samples[i] = int16(data[i*2]) | int16(data[i*2+1])<<8
	}
	return samples, nil
}

// Resample performs linear-interpolation resampling.
// Good enough for telephony narrowband; swap in a sinc resampler if
// quality ever matters.
func Resample(samples []int16, inputRate, outputRate int) []int16 {
	if inputRate == outputRate || len(samples) == 0 {
		return samples
	}

	ratio := float64(outputRate) / float64(inputRate)
	outputLength := int(float64(len(samples)) * ratio)
	output := make([]int16, outputLength)

	for i := 0; i < outputLength; i++ {
		srcPos := float64(i) / ratio
		idx0 := int(srcPos)
		idx1 := idx0 + 1
		if idx1 >= len(samples) {
			idx1 = len(samples) - 1
		}
		fraction := srcPos - float64(idx0)
		output[i] = int16(float64(samples[idx0])*(1.0-fraction) + float64(samples[idx1])*fraction)
	}

	return output
}

// LinearToMulaw encodes one 16-bit linear sample as 8-bit μ-law
// (ITU-T G.711)
func LinearToMulaw(sample int16) byte {
	const clip = 32635

	value := int32(sample)
	var sign byte
	if value < 0 {
		sign = 0x80
		value = -value
	}
	if value > clip {
		value = clip
	}
	value += mulawBias

	exponent := 7
	for mask := int32(0x4000); exponent > 0 && value&mask == 0; mask >>= 1 {
		exponent--
	}
	mantissa := byte((value >> (uint(exponent) + 3)) & 0x0F)

	return ^(sign | byte(exponent)<<4 | mantissa)
}

// MulawToLinear decodes one 8-bit μ-law byte to a 16-bit linear sample
func MulawToLinear(mulaw byte) int16 {
	mulaw = ^mulaw
	sign := mulaw & 0x80
	exponent := (mulaw >> 4) & 0x07
	mantissa := mulaw & 0x0F

	magnitude := ((int32(mantissa) << 3) + mulawBias) << exponent
	magnitude -= mulawBias

	if sign != 0 {
		return int16(-magnitude)
	}
	return int16(magnitude)
}
