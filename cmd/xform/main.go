// Command xform applies, inverts, solves and fits 2D affine transforms.
//
// Usage:
//
//	xform apply -t "scale(2) * translate(1, 0)" 3,4 5,6
//	xform invert -t "matrix(1, 2, 5, 3, 4, 6)"
//	xform derive -t canonical 3,4.5 --config xform.yaml
//	xform solve 0,0 1,0 0,1 10,10 12,10 10,13
//	xform fit pairs.txt
//	xform eval script.js
//	xform warp -t "rotate(30deg)" in.png out.png --fit
package main

import (
	"fmt"
	"os"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "xform: %v\n", err)
		os.Exit(1)
	}
}
