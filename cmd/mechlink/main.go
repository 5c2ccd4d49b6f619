// mechlink triangulates or numerically solves planar linkage mechanisms
// described in .mech files, and can stream a driving-input sweep to
// websocket clients while exposing Prometheus-style metrics.
//
// Usage:
//
//	mechlink triangulate <file.mech>
//	mechlink solve <file.mech>
//	mechlink sweep <file.mech> --input <joint> --from <v> --to <v> --steps <n>
//	mechlink serve <file.mech> --input <joint> --from <v> --to <v>
//
// Examples:
//
//	# Print a closed-form construction stack's joint positions
//	mechlink triangulate fourbar.mech
//
//	# Numerically solve an over-constrained linkage
//	mechlink solve slider-crank.mech
//
//	# Sweep a crank angle and print each frame
//	mechlink sweep fourbar.mech --input crank_pin --from 0 --to 360 --steps 72
//
//	# Sweep continuously, broadcasting frames over websocket and
//	# exposing metrics for scraping
//	mechlink serve fourbar.mech --input crank_pin --from 0 --to 360 \
//	    --stream-addr :8765 --metrics-addr :9100
package main

import "mechlink-go/cmd/mechlink/cmd"

func main() {
	cmd.Execute()
}
