// Command progregistryd serves a directory of programs and records over the
// registry gRPC service.
//
// Directory layout:
//
//	<dir>/programs/<name>.aleo
//	<dir>/records
//	<dir>/unspent
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc"

	"xdao.co/progload/internal/logging"
	"xdao.co/progload/pkgdir"
	"xdao.co/progload/program"
	"xdao.co/progload/registry"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	os.Exit(run(ctx, os.Args[1:], os.Stdout, os.Stderr))
}

type options struct {
	listen    string
	dir       string
	network   string
	maxMsg    int
	logFormat string
	logLevel  string
	publish   []string
}

func run(ctx context.Context, args []string, out, errOut io.Writer) int {
	cmd := newRootCmd(ctx, out, errOut)
	cmd.SetArgs(args)
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(errOut, "Error: %v\n", err)
		return 2
	}
	return 0
}

func newRootCmd(ctx context.Context, out, errOut io.Writer) *cobra.Command {
	var o options
	cmd := &cobra.Command{
		Use:           "progregistryd",
		Short:         "Serve programs and records to network resolvers over gRPC",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			log, err := logging.New(errOut, o.logFormat, o.logLevel)
			if err != nil {
				return err
			}
			network, err := program.ParseNetwork(o.network)
			if err != nil {
				return err
			}
			store, err := registry.NewDirStore(o.dir)
			if err != nil {
				return err
			}
			if err := publish(store, network, o.publish, log); err != nil {
				return err
			}
			lis, err := net.Listen("tcp", o.listen)
			if err != nil {
				return err
			}
			return serve(ctx, lis, store, network, o.maxMsg, log)
		},
	}
	cmd.SetOut(out)
	cmd.SetErr(errOut)
	f := cmd.Flags()
	f.StringVar(&o.listen, "listen", "127.0.0.1:7788", "listen address")
	f.StringVar(&o.dir, "dir", ".", "registry directory")
	f.StringVar(&o.network, "network", string(program.Testnet), "network served: mainnet or testnet")
	f.IntVar(&o.maxMsg, "max-msg-bytes", 0, "max gRPC message size (0 uses the gRPC default)")
	f.StringVar(&o.logFormat, "log-format", "text", "log format: text or json")
	f.StringVar(&o.logLevel, "log-level", "info", "log level: debug, info, warn or error")
	f.StringSliceVar(&o.publish, "publish", nil, "package directories whose main program is copied into the registry before serving")
	return cmd
}

// publish copies the main program of each package directory into store.
func publish(store *registry.DirStore, network program.Network, roots []string, log *slog.Logger) error {
	for _, root := range roots {
		pkg, err := pkgdir.Open(network, root)
		if err != nil {
			return fmt.Errorf("publish %s: %w", root, err)
		}
		path, err := store.PutProgram(pkg.Program())
		if err != nil {
			return fmt.Errorf("publish %s: %w", root, err)
		}
		log.Info("program published", slog.String("program", pkg.Program().ID().String()), slog.String("path", path))
	}
	return nil
}

func serve(ctx context.Context, lis net.Listener, store registry.Store, network program.Network, maxMsg int, log *slog.Logger) error {
	var opts []grpc.ServerOption
	if maxMsg > 0 {
		opts = append(opts, grpc.MaxRecvMsgSize(maxMsg), grpc.MaxSendMsgSize(maxMsg))
	}
	s := grpc.NewServer(opts...)
	registry.RegisterRegistryServer(s, &registry.Server{Store: store, Network: network, Logger: log})

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			log.Info("shutting down")
			s.GracefulStop()
		case <-done:
		}
	}()

	log.Info("progregistryd listening", slog.String("addr", lis.Addr().String()), slog.String("network", string(network)))
	err := s.Serve(lis)
	close(done)
	<-stopped
	if err != nil && !errors.Is(err, grpc.ErrServerStopped) {
		return err
	}
	return nil
}
