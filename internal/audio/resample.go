package audio

// Resample converts samples from fromRate to toRate using linear
// interpolation. Voice-grade audio tolerates the mild aliasing this
// introduces on downsampling; a polyphase filter would only be worth its
// complexity for music-quality output, which nothing in this pipeline
// produces.
func Resample(samples []float32, fromRate, toRate int) []float32 {
	if fromRate == toRate || len(samples) == 0 {
		return samples
	}
	ratio := float64(toRate) / float64(fromRate)
	outLen := int(float64(len(samples)) * ratio)
	out := make([]float32, outLen)
	for i := range out {
		srcPos := float64(i) / ratio
		srcIdx := int(srcPos)
		frac := float32(srcPos - float64(srcIdx))

		s1 := samples[srcIdx]
		s2 := s1
		if srcIdx+1 < len(samples) {
			s2 = samples[srcIdx+1]
		}
		out[i] = s1 + (s2-s1)*frac
	}
	return out
}
