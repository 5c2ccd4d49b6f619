package cmd

import (
	"errors"
	"fmt"

	"mechlink-go/pkg/joint"
	"mechlink-go/pkg/mechlerr"
)

// errorCode extracts a mechlerr.Code from err for metrics labeling, or
// "" if err doesn't carry one.
func errorCode(err error) string {
	var merr *mechlerr.Error
	if errors.As(err, &merr) {
		return string(merr.Code)
	}
	return ""
}

// printFrame prints one joint per line: name, type, and resolved
// position(s).
func printFrame(names []string, joints []*joint.VPoint) {
	for i, v := range joints {
		if v.Type() == joint.R {
			fmt.Printf("%-20s %-3s (%.4f, %.4f)\n", names[i], v.Type(), v.CX(), v.CY())
			continue
		}
		p0, p1 := v.C(0), v.C(1)
		fmt.Printf("%-20s %-3s (%.4f, %.4f) -> (%.4f, %.4f)\n", names[i], v.Type(), p0.X, p0.Y, p1.X, p1.Y)
	}
}
