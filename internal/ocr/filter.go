package ocr

// Filter drops regions below the word or paragraph confidence thresholds.
// Pure and order-preserving: a region is retained only when its own confidence
// meets wordThreshold and its paragraph's mean confidence meets parThreshold.
func Filter(regions []Region, wordThreshold, parThreshold float64) []Region {
	out := make([]Region, 0, len(regions))
	for _, r := range regions {
		if r.Conf >= wordThreshold && r.ParConf >= parThreshold {
			out = append(out, r)
		}
	}
	return out
}
