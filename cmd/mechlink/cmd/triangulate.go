package cmd

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"mechlink-go/pkg/mechconfig"
	"mechlink-go/pkg/mechlerr"
	"mechlink-go/pkg/metrics"
	"mechlink-go/pkg/triangulate"
)

var triangulateCmd = &cobra.Command{
	Use:   "triangulate <file.mech>",
	Short: "Compile a mechanism into a closed-form construction stack and print resolved joint positions",
	Args:  cobra.ExactArgs(1),
	RunE:  runTriangulate,
}

func init() {
	rootCmd.AddCommand(triangulateCmd)
}

func runTriangulate(cmd *cobra.Command, args []string) error {
	m, err := mechconfig.LoadMechanism(args[0])
	if err != nil {
		return err
	}

	start := time.Now()
	result, err := triangulate.TConfig(m.Joints, m.TriangulateDrivers())
	duration := time.Since(start)

	mm := metrics.NewMechMetrics()
	if err != nil {
		mm.RecordTriangulation(duration, 0, errorCode(err))
		return err
	}

	var unresolved []string
	for i, ok := range result.Status {
		if !ok {
			unresolved = append(unresolved, m.Names[i])
		}
	}
	if len(unresolved) > 0 {
		mm.RecordTriangulation(duration, len(result.Order), string(mechlerr.UnderDetermined))
		log.WithFields(map[string]any{"file": args[0], "unresolved": unresolved}).
			Warn("triangulation stalled; unresolved joints need the numerical solver")
	} else {
		mm.RecordTriangulation(duration, len(result.Order), "")
	}

	log.WithFields(map[string]any{"file": args[0], "joints": len(result.Order), "elapsed": duration.String()}).
		Info("triangulation complete")
	printFrame(m.Names, result.Joints)
	fmt.Printf("construction stack: %d expressions\n", result.Stack.Len())
	if len(unresolved) > 0 {
		fmt.Printf("unresolved (fall back to solve): %s\n", strings.Join(unresolved, ", "))
	}
	return nil
}
