package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mechlink-go/pkg/mechconfig"
	"mechlink-go/pkg/metrics"
	"mechlink-go/pkg/solver"
	"mechlink-go/pkg/stream"
)

var (
	serveInput       string
	serveFrom        float64
	serveTo          float64
	serveSteps       int
	serveStreamAddr  string
	serveMetricsAddr string
	serveFrameDelay  time.Duration
)

var serveCmd = &cobra.Command{
	Use:   "serve <file.mech>",
	Short: "Continuously sweep an input, broadcasting solved frames over websocket and exposing metrics",
	Args:  cobra.ExactArgs(1),
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveInput, "input", "", "joint name to drive (required)")
	serveCmd.Flags().Float64Var(&serveFrom, "from", 0, "starting driven value")
	serveCmd.Flags().Float64Var(&serveTo, "to", 360, "ending driven value")
	serveCmd.Flags().IntVar(&serveSteps, "steps", 72, "steps per forward/backward pass")
	serveCmd.Flags().StringVar(&serveStreamAddr, "stream-addr", ":8765", "websocket streaming server address")
	serveCmd.Flags().StringVar(&serveMetricsAddr, "metrics-addr", ":9100", "metrics HTTP server address")
	serveCmd.Flags().DurationVar(&serveFrameDelay, "frame-delay", 50*time.Millisecond, "delay between broadcast frames")
	serveCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	m, err := mechconfig.LoadMechanism(args[0])
	if err != nil {
		return err
	}
	idx, ok := m.Index(serveInput)
	if !ok {
		return fmt.Errorf("serve: unknown joint %q", serveInput)
	}

	sys, err := solver.NewSystem(m.Joints, driversWith(m.SolverDrivers(), idx, serveFrom))
	if err != nil {
		return err
	}

	mm := metrics.NewMechMetrics()
	streamServer := stream.New(serveStreamAddr, mm.SetStreamClients)
	metricsServer := metrics.NewMetricsServer(mm, serveMetricsAddr)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := streamServer.Start(); err != nil {
			log.Error("stream server: %v", err)
		}
	}()
	go func() {
		if err := metricsServer.Start(); err != nil {
			log.Error("metrics server: %v", err)
		}
	}()

	log.WithFields(map[string]any{
		"file": args[0], "input": serveInput, "stream_addr": serveStreamAddr, "metrics_addr": serveMetricsAddr,
	}).Info("serving")

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for forward := true; ; forward = !forward {
			from, to := serveFrom, serveTo
			if !forward {
				from, to = serveTo, serveFrom
			}
			if err := pingPongPass(sys, idx, m.Names, from, to, mm, streamServer); err != nil {
				log.Error("sweep: %v", err)
				return
			}
		}
	}()

	select {
	case <-sigCh:
	case <-stopped:
	}
	log.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	streamServer.Shutdown(ctx)
	metricsServer.Shutdown(ctx)
	return nil
}

func pingPongPass(sys *solver.SolverSystem, jointIdx int, names []string, from, to float64, mm *metrics.MechMetrics, srv *stream.Server) error {
	steps := serveSteps
	if steps < 1 {
		steps = 1
	}
	for i := 0; i <= steps; i++ {
		frac := float64(i) / float64(steps)
		value := from + frac*(to-from)

		if err := sys.SetInputs([]solver.Driver{{JointIdx: jointIdx, Value: value}}); err != nil {
			return err
		}

		start := time.Now()
		err := sys.Solve(solver.Rough)
		duration := time.Since(start)
		residual := sumSquaredResidual(sys)
		iterations, _ := sys.ShowData("solve_iterations")

		if err != nil {
			mm.RecordSolve(duration, residual, int(iterations), errorCode(err))
			return err
		}
		mm.RecordSolve(duration, residual, int(iterations), "")
		mm.RecordSweepFrame()

		frame := stream.NewFrame(value, names, sys.Joints())
		srv.Broadcast(frame)
		time.Sleep(serveFrameDelay)
	}
	return nil
}
