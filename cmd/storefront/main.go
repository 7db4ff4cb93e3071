// Command storefront is the device-side client: cart, wishlist and vendor
// catalog on top of the sync engine, plus admin moderation.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"google.golang.org/grpc/status"

	"github.com/and161185/storefront/internal/errs"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

var errLoginRequired = fmt.Errorf("%w: login required (storefront login --token ...)", errs.ErrUnauthorized)

// runtime hands the app built by the root command to its subcommands.
type runtime struct {
	opts options
	app  *app
}

func (rt *runtime) close() error {
	if rt.app == nil {
		return nil
	}
	err := rt.app.close()
	rt.app = nil
	return err
}

func newRootCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "storefront",
		Short:         "Storefront device client",
		Long:          "Cart, wishlist and vendor catalog that keep working offline and sync when the remote tier is reachable.",
		Version:       fmt.Sprintf("%s (%s)", version, buildDate),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context(), &rt.opts, cmd.OutOrStdout(), cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			rt.app = a
			return nil
		},
	}

	f := cmd.PersistentFlags()
	f.StringVar(&rt.opts.configPath, "config", os.Getenv("STOREFRONT_CONFIG"), "YAML config file")
	f.StringVar(&rt.opts.cachePath, "cache", "", "local cache database path")
	f.BoolVar(&rt.opts.local, "local", false, "force local-only mode")
	f.StringVar(&rt.opts.logLevel, "log-level", "warn", "log level")

	cmd.AddCommand(
		newModeCommand(rt),
		newLoginCommand(rt),
		newLogoutCommand(rt),
		newWhoamiCommand(rt),
		newCartCommand(rt),
		newWishlistCommand(rt),
		newBrowseCommand(rt),
		newVendorCommand(rt),
		newAdminCommand(rt),
	)
	return cmd
}

// execute runs args and always drains the app, even when the command failed.
func execute(ctx context.Context, args []string, out, errw io.Writer) error {
	rt := &runtime{}
	cmd := newRootCommand(rt)
	cmd.SetArgs(args)
	cmd.SetOut(out)
	cmd.SetErr(errw)
	err := cmd.ExecuteContext(ctx)
	if cerr := rt.close(); err == nil {
		err = cerr
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fail(err)
	}
}

func fail(err error) {
	if s, ok := status.FromError(err); ok && s.Code() != 0 {
		fmt.Fprintf(os.Stderr, "rpc error: code=%s msg=%s\n", s.Code(), s.Message())
		os.Exit(1)
	}
	fmt.Fprintln(os.Stderr, err)
	if errors.Is(err, errs.ErrValidation) || errors.Is(err, errs.ErrUnauthorized) {
		os.Exit(2)
	}
	os.Exit(1)
}
