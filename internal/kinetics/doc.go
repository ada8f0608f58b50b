// Package kinetics simulates hydrothermal pretreatment of lignocellulosic
// biomass.
//
// Cellulose and hemicellulose each degrade through the same five-pool
// first-order network:
//
//	parent --k1--------------> monomer --k4--> furan --k6--> degraded
//	parent --k2--> oligomer --k3--^     \--k5-----------------^
//
// Rate constants are calibrated at 180, 195 and 210 °C only. [Simulate]
// integrates both networks over a uniform grid of sample times and reports
// how much of each parent polymer was converted.
package kinetics
