// Package greenhost estimates the environmental impact of a page load:
// a green-hosting registry lookup per hostname combined with a
// bytes-transferred emission model.
package greenhost

// Sustainable Web Design model constants.
const (
	// kWhPerGB is the estimated energy use per gigabyte transferred,
	// across data center, network and client device.
	kWhPerGB = 0.81

	// gridIntensity is the global average grid carbon intensity in
	// grams CO2e per kWh.
	gridIntensity = 442.0

	// renewableIntensity is the carbon intensity of verified renewable
	// energy in grams CO2e per kWh.
	renewableIntensity = 50.0

	// datacenterShare is the fraction of total energy attributed to the
	// data center, the only segment green hosting affects.
	datacenterShare = 0.15
)

// EstimateCO2Grams estimates grams of CO2e emitted by one page load that
// transferred the given number of bytes. Green hosting discounts the
// data-center share of the energy to renewable intensity.
func EstimateCO2Grams(transferBytes int64, green bool) float64 {
	gb := float64(transferBytes) / 1e9
	energy := gb * kWhPerGB

	if !green {
		return energy * gridIntensity
	}

	dc := energy * datacenterShare * renewableIntensity
	rest := energy * (1 - datacenterShare) * gridIntensity
	return dc + rest
}
