package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mechlink-go/pkg/solver"
)

func TestDriversWithOverridesExistingDriver(t *testing.T) {
	base := []solver.Driver{{JointIdx: 1, Value: 10}, {JointIdx: 3, Value: 20}}
	out := driversWith(base, 1, 99)

	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[0].Value != 99 {
		t.Errorf("overridden driver value = %v, want 99", out[0].Value)
	}
	if out[1].Value != 20 {
		t.Errorf("untouched driver value = %v, want 20", out[1].Value)
	}
}

func TestDriversWithAppendsMissingDriver(t *testing.T) {
	base := []solver.Driver{{JointIdx: 3, Value: 20}}
	out := driversWith(base, 1, 99)

	if len(out) != 2 {
		t.Fatalf("len = %d, want 2", len(out))
	}
	if out[1].JointIdx != 1 || out[1].Value != 99 {
		t.Errorf("appended driver = %+v, want {1 99}", out[1])
	}
}

const fourbarMech = `
[joint ground_a]
type: R
x: 0
y: 0
links: ground,crank

[joint crank_pin]
type: R
x: 1
y: 0
links: crank,coupler

[joint coupler_pin]
type: R
x: 4
y: 3
links: coupler,rocker

[joint ground_b]
type: R
x: 0
y: 3
links: ground,rocker

[input]
crank_pin: 30
`

func writeMechFile(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "fourbar.mech")
	if err := os.WriteFile(path, []byte(fourbarMech), 0644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func captureStdout(t *testing.T, fn func()) string {
	t.Helper()
	old := os.Stdout
	r, w, _ := os.Pipe()
	os.Stdout = w

	var buf bytes.Buffer
	done := make(chan struct{})
	go func() {
		buf.ReadFrom(r)
		close(done)
	}()

	fn()

	w.Close()
	os.Stdout = old
	<-done
	return buf.String()
}

func TestTriangulateCommandE2E(t *testing.T) {
	path := writeMechFile(t)

	output := captureStdout(t, func() {
		rootCmd.SetArgs([]string{"triangulate", path})
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	})

	for _, want := range []string{"ground_a", "crank_pin", "coupler_pin", "ground_b", "construction stack"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestSolveCommandE2E(t *testing.T) {
	path := writeMechFile(t)

	output := captureStdout(t, func() {
		rootCmd.SetArgs([]string{"solve", path})
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	})

	for _, want := range []string{"ground_a", "residual:"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestSweepCommandE2E(t *testing.T) {
	path := writeMechFile(t)

	output := captureStdout(t, func() {
		rootCmd.SetArgs([]string{"sweep", path, "--input", "crank_pin", "--from", "0", "--to", "90", "--steps", "2"})
		if err := rootCmd.Execute(); err != nil {
			t.Fatalf("Execute: %v", err)
		}
	})

	for _, want := range []string{"step 0", "step 1", "step 2", "crank_pin"} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q:\n%s", want, output)
		}
	}
}

func TestSweepCommandRejectsUnknownInput(t *testing.T) {
	path := writeMechFile(t)
	rootCmd.SetArgs([]string{"sweep", path, "--input", "nope", "--steps", "1"})
	if err := rootCmd.Execute(); err == nil {
		t.Fatal("expected an error for an unknown --input joint")
	}
}
