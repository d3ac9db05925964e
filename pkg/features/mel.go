// ABOUTME: Slaney mel scale and triangular filterbank
// ABOUTME: Builds area-normalized mel filters over FFT bins
package features

import "math"

// Slaney mel scale: linear below 1 kHz, logarithmic above.
const (
	melLinearStep = 200.0 / 3
	melLogMinHz   = 1000.0
	melLogMinMel  = melLogMinHz / melLinearStep
)

var melLogStep = math.Log(6.4) / 27.0

// hzToMel converts frequency in Hz to the Slaney mel scale.
func hzToMel(hz float64) float64 {
	if hz >= melLogMinHz {
		return melLogMinMel + math.Log(hz/melLogMinHz)/melLogStep
	}
	return hz / melLinearStep
}

// melToHz converts a Slaney mel value back to Hz.
func melToHz(mel float64) float64 {
	if mel >= melLogMinMel {
		return melLogMinHz * math.Exp(melLogStep*(mel-melLogMinMel))
	}
	return melLinearStep * mel
}

// melFilter is one triangular filter, stored from its first non-zero bin.
type melFilter struct {
	start   int
	weights []float64
}

// apply returns the filter's weighted sum over the power spectrum.
func (f melFilter) apply(power []float64) float64 {
	sum := 0.0
	for i, w := range f.weights {
		sum += w * power[f.start+i]
	}
	return sum
}

// melFilterBank builds numMels area-normalized triangular filters over the
// fftSize/2+1 bins of a real FFT.
func melFilterBank(numMels, fftSize, sampleRate int, lowFreq, highFreq float64) []melFilter {
	halfFFT := fftSize/2 + 1
	binHz := float64(sampleRate) / float64(fftSize)

	// numMels + 2 equally spaced mel points, back in Hz
	lowMel := hzToMel(lowFreq)
	highMel := hzToMel(highFreq)
	edges := make([]float64, numMels+2)
	step := (highMel - lowMel) / float64(numMels+1)
	for i := range edges {
		edges[i] = melToHz(lowMel + float64(i)*step)
	}

	bank := make([]melFilter, numMels)
	for m := 0; m < numMels; m++ {
		left, center, right := edges[m], edges[m+1], edges[m+2]
		norm := 2.0 / (right - left)

		f := melFilter{start: -1}
		for k := 0; k < halfFFT; k++ {
			freq := float64(k) * binHz
			lower := (freq - left) / (center - left)
			upper := (right - freq) / (right - center)
			w := math.Max(0, math.Min(lower, upper))
			if w == 0 {
				if f.start >= 0 {
					break
				}
				continue
			}
			if f.start < 0 {
				f.start = k
			}
			f.weights = append(f.weights, w*norm)
		}
		if f.start < 0 {
			// Narrower than one bin; contributes nothing
			f.start = 0
		}
		bank[m] = f
	}
	return bank
}
