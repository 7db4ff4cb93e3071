package main

import (
	"fmt"

	"github.com/gofrs/uuid/v5"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/and161185/storefront/internal/catalog"
	"github.com/and161185/storefront/internal/errs"
	"github.com/and161185/storefront/internal/media"
	"github.com/and161185/storefront/internal/model"
)

// draftFlags binds the editable item fields.
type draftFlags struct {
	name, description, category string
	price, originalPrice        int64
	images, sizes               []string
	inactive                    bool
}

func (d *draftFlags) bind(fs *pflag.FlagSet) {
	fs.StringVar(&d.name, "name", "", "item name")
	fs.StringVar(&d.description, "description", "", "description")
	fs.StringVar(&d.category, "category", "", "category")
	fs.Int64Var(&d.price, "price", 0, "price in minor units")
	fs.Int64Var(&d.originalPrice, "original-price", 0, "price before discount")
	fs.StringSliceVar(&d.images, "image", nil, "image URL (repeatable)")
	fs.StringSliceVar(&d.sizes, "size", nil, "size (repeatable)")
	fs.BoolVar(&d.inactive, "inactive", false, "hide the item from shoppers")
}

// apply overlays the flags that were set on base.
func (d *draftFlags) apply(fs *pflag.FlagSet, base catalog.Draft) catalog.Draft {
	set := fs.Changed
	if set("name") {
		base.Name = d.name
	}
	if set("description") {
		base.Description = d.description
	}
	if set("category") {
		base.Category = d.category
	}
	if set("price") {
		base.Price = d.price
	}
	if set("original-price") {
		op := d.originalPrice
		base.OriginalPrice = &op
	}
	if set("image") {
		base.Images = d.images
	}
	if set("size") {
		base.Sizes = d.sizes
	}
	if set("inactive") {
		base.Active = !d.inactive
	}
	return base
}

func draftFromItem(c model.CatalogItem) catalog.Draft {
	return catalog.Draft{
		Name: c.Name, Description: c.Description, Price: c.Price, OriginalPrice: c.OriginalPrice,
		Category: c.Category, Images: c.Images, Sizes: c.Sizes, Active: c.IsActive,
	}
}

// vendorService loads the vendor's collection and returns the service with the actor.
func vendorService(cmd *cobra.Command, rt *runtime, uploads bool) (*catalog.Service, model.Actor, error) {
	a := rt.app
	actor, err := a.actor()
	if err != nil {
		return nil, model.Actor{}, err
	}
	ctx := cmd.Context()
	var up catalog.Uploader
	if uploads {
		p, err := media.New(ctx, a.cfg.Media)
		if err != nil {
			return nil, model.Actor{}, fmt.Errorf("media: %w", err)
		}
		up = p
	}
	a.catalog.Load(ctx)
	return catalog.NewService(a.catalog, up, a.log), actor, nil
}

func parseID(s string) (uuid.UUID, error) {
	id, err := uuid.FromString(s)
	if err != nil {
		return uuid.Nil, errs.NewValidation("id")
	}
	return id, nil
}

func newVendorCommand(rt *runtime) *cobra.Command {
	cmd := &cobra.Command{Use: "vendor", Short: "Manage your catalog items"}

	list := &cobra.Command{
		Use:  "list",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, _, err := vendorService(cmd, rt, false)
			if err != nil {
				return err
			}
			return rt.app.printJSON(nonNil(svc.List()))
		},
	}

	var created draftFlags
	var submit bool
	create := &cobra.Command{
		Use:   "create",
		Short: "Create an item as a draft, or straight into review with --submit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			svc, actor, err := vendorService(cmd, rt, false)
			if err != nil {
				return err
			}
			d := created.apply(cmd.Flags(), catalog.Draft{Active: true})
			action := catalog.Save
			if submit {
				action = catalog.SubmitForReview
			}
			item, err := svc.Create(cmd.Context(), actor, d, action)
			if err != nil {
				return err
			}
			return rt.app.printJSON(item)
		},
	}
	created.bind(create.Flags())
	create.Flags().BoolVar(&submit, "submit", false, "submit for review")

	var edited draftFlags
	edit := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit item content; the moderation status is not changed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, actor, err := vendorService(cmd, rt, false)
			if err != nil {
				return err
			}
			var current *model.CatalogItem
			for _, it := range svc.List() {
				if it.ID == id {
					current = &it
					break
				}
			}
			if current == nil {
				return fmt.Errorf("item %s: %w", id, errs.ErrNotFound)
			}
			item, err := svc.UpdateContent(cmd.Context(), actor, id, edited.apply(cmd.Flags(), draftFromItem(*current)))
			if err != nil {
				return err
			}
			return rt.app.printJSON(item)
		},
	}
	edited.bind(edit.Flags())

	submitCmd := &cobra.Command{
		Use:   "submit <id>",
		Short: "Send a draft to the review queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, actor, err := vendorService(cmd, rt, false)
			if err != nil {
				return err
			}
			item, err := svc.Submit(cmd.Context(), actor, id)
			if err != nil {
				return err
			}
			return rt.app.printJSON(item)
		},
	}

	del := &cobra.Command{
		Use:  "delete <id>",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, actor, err := vendorService(cmd, rt, false)
			if err != nil {
				return err
			}
			if err := svc.Delete(cmd.Context(), actor, id); err != nil {
				return err
			}
			return rt.app.printJSON(map[string]string{"deleted": id.String()})
		},
	}

	var contentType string
	upload := &cobra.Command{
		Use:   "upload-url <id>",
		Short: "Presign an image upload for an item",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			svc, actor, err := vendorService(cmd, rt, true)
			if err != nil {
				return err
			}
			up, err := svc.UploadURL(cmd.Context(), actor, id, contentType)
			if err != nil {
				return err
			}
			return rt.app.printJSON(up)
		},
	}
	upload.Flags().StringVar(&contentType, "content-type", "image/jpeg", "image MIME type")

	cmd.AddCommand(list, create, edit, submitCmd, del, upload)
	return cmd
}
