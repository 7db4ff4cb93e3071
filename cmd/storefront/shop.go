package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/storefront/internal/catalog"
	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/model"
	"github.com/and161185/storefront/internal/repository/postgres"
)

type cartView struct {
	Lines []model.CartLine `json:"lines"`
	Count int              `json:"count"`
	Total int64            `json:"total"`
}

func viewCart(lines []model.CartLine) cartView {
	if lines == nil {
		lines = []model.CartLine{}
	}
	return cartView{Lines: lines, Count: model.ItemCount(lines), Total: model.Total(lines)}
}

func newCartCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{Use: "cart", Short: "Manage the cart"}

	list := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := rt.app
			return a.printJSON(viewCart(a.cart.Load(cmd.Context())))
		},
	}

	var line model.CartLine
	add := &cobra.Command{
		Use:   "add",
		Short: "Add a product; an existing (product, size) line gains the quantity",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := rt.app
			if line.ProductID == "" || line.Quantity <= 0 {
				return errs.NewValidation("product", "qty")
			}
			ctx := cmd.Context()
			a.cart.Load(ctx)
			l := line
			l.AddedAt = time.Now().UTC()
			return a.printJSON(viewCart(a.cart.Add(ctx, l)))
		},
	}
	af := add.Flags()
	af.StringVar(&line.ProductID, "product", "", "product id")
	af.StringVar(&line.Size, "size", "", "size")
	af.IntVar(&line.Quantity, "qty", 1, "quantity")
	af.StringVar(&line.Name, "name", "", "display name")
	af.Int64Var(&line.Price, "price", 0, "unit price in minor units")
	af.StringVar(&line.Image, "image", "", "image URL")
	af.StringVar(&line.Category, "category", "", "category")

	var qty int
	var newSize string
	update := &cobra.Command{
		Use:   "update <product> <size>",
		Short: "Set quantity or change size of a line; quantity 0 removes it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := rt.app
			ctx := cmd.Context()
			a.cart.Load(ctx)
			key := model.CartKey(args[0], args[1])
			if !hasKey(a.cart.Items(), key, model.CartLine.Key) {
				return fmt.Errorf("cart line %s/%s: %w", args[0], args[1], errs.ErrNotFound)
			}
			qtySet := cmd.Flags().Changed("qty")
			lines := a.cart.Update(ctx, key, func(l model.CartLine) model.CartLine {
				if qtySet {
					l.Quantity = qty
				}
				if newSize != "" {
					l.Size = newSize
				}
				return l
			})
			return a.printJSON(viewCart(lines))
		},
	}
	update.Flags().IntVar(&qty, "qty", 0, "new quantity")
	update.Flags().StringVar(&newSize, "new-size", "", "move the line to this size")

	remove := &cobra.Command{
		Use:  "remove <product> <size>",
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := rt.app
			ctx := cmd.Context()
			a.cart.Load(ctx)
			return a.printJSON(viewCart(a.cart.Remove(ctx, model.CartKey(args[0], args[1]))))
		},
	}

	clearCmd := &cobra.Command{
		Use:  "clear",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := rt.app
			ctx := cmd.Context()
			a.cart.Load(ctx)
			return a.printJSON(viewCart(a.cart.Clear(ctx)))
		},
	}

	cmd.AddCommand(list, add, update, remove, clearCmd)
	return cmd
}

func newWishlistCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{Use: "wishlist", Short: "Manage the wishlist"}

	show := func(a *app, items []model.WishlistEntry) error {
		if items == nil {
			items = []model.WishlistEntry{}
		}
		return a.printJSON(items)
	}

	list := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := rt.app
			return show(a, a.wishlist.Load(cmd.Context()))
		},
	}

	var entry model.WishlistEntry
	add := &cobra.Command{
		Use:  "add",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := rt.app
			if entry.ProductID == "" {
				return errs.NewValidation("product")
			}
			ctx := cmd.Context()
			a.wishlist.Load(ctx)
			e := entry
			e.AddedAt = time.Now().UTC()
			return show(a, a.wishlist.Add(ctx, e))
		},
	}
	af := add.Flags()
	af.StringVar(&entry.ProductID, "product", "", "product id")
	af.StringVar(&entry.Name, "name", "", "display name")
	af.Int64Var(&entry.Price, "price", 0, "price in minor units")
	af.StringVar(&entry.Image, "image", "", "image URL")
	af.StringVar(&entry.Category, "category", "", "category")

	remove := &cobra.Command{
		Use:  "remove <product>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := rt.app
			ctx := cmd.Context()
			a.wishlist.Load(ctx)
			return show(a, a.wishlist.Remove(ctx, args[0]))
		},
	}

	clearCmd := &cobra.Command{
		Use:  "clear",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := rt.app
			ctx := cmd.Context()
			a.wishlist.Load(ctx)
			return show(a, a.wishlist.Clear(ctx))
		},
	}

	cmd.AddCommand(list, add, remove, clearCmd)
	return cmd
}

func newBrowseCommand(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "List approved, active catalog items",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := rt.app
			ctx := cmd.Context()
			if a.db != nil {
				items, err := catalog.Listing(ctx, postgres.NewCatalogRepo(a.db))
				if err == nil {
					return a.printJSON(nonNil(items))
				}
				a.log.Warn("remote listing failed, using local cache", zap.Error(err))
			}
			return a.printJSON(nonNil(catalog.Visible(a.catalog.Load(ctx))))
		},
	}
}

func hasKey[T any](items []T, key string, keyOf func(T) string) bool {
	for _, it := range items {
		if keyOf(it) == key {
			return true
		}
	}
	return false
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
