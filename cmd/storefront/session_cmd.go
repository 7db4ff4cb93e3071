package main

import (
	"errors"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

func newModeCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "mode",
		Short: "Show whether the remote tier is used",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := rt.app
			return a.printJSON(map[string]string{
				"mode":   a.mode.String(),
				"reason": a.mode.Reason(),
				"device": a.device.ID.String(),
			})
		},
	}
}

func newLoginCommand(rt *runtime) *cobra.Command {
	var token string
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in with a bearer token issued by the identity provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := rt.app
			if token == "" {
				token = strings.TrimSpace(os.Getenv("STOREFRONT_TOKEN"))
			}
			if token == "" {
				return errors.New("need --token or STOREFRONT_TOKEN")
			}
			ctx := cmd.Context()

			// guest collections must be in memory before they can be carried or merged
			a.cart.Load(ctx)
			a.wishlist.Load(ctx)
			a.catalog.Load(ctx)

			sess, err := saveSession(ctx, a.cache, token)
			if err != nil {
				return err
			}
			a.sess = sess
			tr := a.ident.Transition(ctx, sess.actor.Owner())
			return a.printJSON(map[string]any{
				"transition": tr.String(),
				"strategy":   a.ident.Strategy().String(),
				"account":    sess.actor.ID.String(),
				"role":       sess.actor.Role,
				"cart":       len(a.cart.Items()),
				"wishlist":   len(a.wishlist.Items()),
			})
		},
	}
	cmd.Flags().StringVar(&token, "token", "", "bearer token (JWT)")
	return cmd
}

func newLogoutCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Sign out and purge this account's cached collections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := rt.app
			ctx := cmd.Context()
			tr := a.ident.Transition(ctx, a.device)
			if err := clearSession(ctx, a.cache); err != nil {
				return err
			}
			a.sess = nil
			return a.printJSON(map[string]string{"transition": tr.String()})
		},
	}
}

func newWhoamiCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the current owner",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := rt.app
			out := map[string]any{"owner": a.ident.Current().String()}
			if a.sess.signedIn() {
				out["role"] = a.sess.actor.Role
				out["capabilities"] = a.sess.actor.Capabilities
			}
			return a.printJSON(out)
		},
	}
}
