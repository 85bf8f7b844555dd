package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/GTDGit/market_admin/internal/cache"
	"github.com/GTDGit/market_admin/internal/config"
	"github.com/GTDGit/market_admin/internal/models"
	"github.com/GTDGit/market_admin/internal/productform"
	"github.com/GTDGit/market_admin/internal/utils"
	"github.com/GTDGit/market_admin/pkg/marketplace"
)

// DraftStore keeps product forms between requests.
type DraftStore interface {
	Save(ctx context.Context, d *cache.Draft) error
	Get(ctx context.Context, adminID int, draftID string) (*cache.Draft, error)
	Delete(ctx context.Context, adminID int, draftID string) error
}

// SubmitLocker allows one submission per admin at a time.
type SubmitLocker interface {
	Acquire(ctx context.Context, adminID int) (release func(), ok bool, err error)
}

// Image uploads accepted by the marketplace.
var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

// ProductService drives the product form: drafts, incremental validation and
// the create/update submission.
type ProductService struct {
	client     *marketplace.Client
	drafts     DraftStore
	guard      SubmitLocker
	listing    *ListingService
	moderation *ModerationService
	audit      *AuditService

	variant       productform.Variant
	maxImages     int
	maxImageBytes int64
}

// NewProductService constructs a ProductService. moderation may be nil.
func NewProductService(
	client *marketplace.Client,
	drafts DraftStore,
	guard SubmitLocker,
	listing *ListingService,
	moderation *ModerationService,
	audit *AuditService,
	cfg config.ProductConfig,
) (*ProductService, error) {
	variant, err := productform.ParseVariant(cfg.FormVariant)
	if err != nil {
		return nil, err
	}
	return &ProductService{
		client:        client,
		drafts:        drafts,
		guard:         guard,
		listing:       listing,
		moderation:    moderation,
		audit:         audit,
		variant:       variant,
		maxImages:     cfg.MaxImages,
		maxImageBytes: cfg.MaxImageBytes,
	}, nil
}

// Variant returns the configured form variant.
func (s *ProductService) Variant() productform.Variant { return s.variant }

// options loads the attribute keys of the selected subcategory. A failed
// lookup disables the attribute rules rather than blocking the form.
func (s *ProductService) options(ctx context.Context, subcategoryID string) productform.Options {
	opts := productform.Options{Variant: s.variant, MaxImages: s.maxImages}
	if subcategoryID == "" {
		return opts
	}
	keys, err := s.client.ListAttributeKeys(ctx, subcategoryID)
	if err != nil {
		log.Warn().Err(err).Str("subcategory_id", subcategoryID).Msg("Failed to load attribute keys, skipping attribute rules")
		return opts
	}
	opts.AttributeKeys = keys
	return opts
}

// CreateDraft starts a form. When product is given the draft edits it.
func (s *ProductService) CreateDraft(ctx context.Context, adminID int, product *models.Product) (*cache.Draft, error) {
	d := &cache.Draft{
		ID:      uuid.NewString(),
		AdminID: adminID,
		Form:    productform.New(),
	}
	if product != nil {
		if product.ID == "" {
			return nil, invalid("Product id is required to edit a listing")
		}
		d.ProductID = product.ID
		d.Form.State = productform.FromProduct(*product)
	}
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// GetDraft loads a draft.
func (s *ProductService) GetDraft(ctx context.Context, adminID int, draftID string) (*cache.Draft, error) {
	return s.drafts.Get(ctx, adminID, draftID)
}

// DeleteDraft discards a draft.
func (s *ProductService) DeleteDraft(ctx context.Context, adminID int, draftID string) error {
	if _, err := s.drafts.Get(ctx, adminID, draftID); err != nil {
		return err
	}
	return s.drafts.Delete(ctx, adminID, draftID)
}

// ApplyChange sets one field of a draft and re-validates it.
func (s *ProductService) ApplyChange(ctx context.Context, adminID int, draftID, field string, value json.RawMessage) (*cache.Draft, error) {
	d, err := s.drafts.Get(ctx, adminID, draftID)
	if err != nil {
		return nil, err
	}

	change, err := productform.DecodeChange(field, value)
	if err != nil {
		return nil, invalid("%s", err.Error())
	}
	change, err = s.resolveAddress(ctx, change)
	if err != nil {
		return nil, err
	}

	subcategoryID := d.Form.State.SubcategoryID
	if change.Field == productform.FieldSubcategoryID {
		subcategoryID, _ = change.Value.(string)
	}
	if change.Field == productform.FieldCategoryID {
		subcategoryID = ""
	}

	next, err := productform.Reduce(d.Form, change, s.options(ctx, subcategoryID))
	if err != nil {
		return nil, invalid("%s", err.Error())
	}
	d.Form = next
	if err := s.drafts.Save(ctx, d); err != nil {
		return nil, err
	}
	return d, nil
}

// resolveAddress turns a selected address id into the address itself so the
// listing location follows it. An id missing from the address book is
// cleared, which leaves the field with its required error.
func (s *ProductService) resolveAddress(ctx context.Context, c productform.Change) (productform.Change, error) {
	id, ok := c.Value.(string)
	if c.Field != productform.FieldAddressID || !ok || id == "" || s.variant != productform.VariantAddressBook {
		return c, nil
	}
	addr, err := s.findAddress(ctx, id)
	if err != nil {
		return c, err
	}
	if addr == nil {
		return productform.Change{Field: c.Field, Value: ""}, nil
	}
	return productform.Change{Field: c.Field, Value: *addr}, nil
}

// pinAddress checks the selected address against the address book and
// takes the location from it. Client coordinates are never trusted in
// address-book mode.
func (s *ProductService) pinAddress(ctx context.Context, state *productform.State) error {
	if s.variant != productform.VariantAddressBook || state.AddressID == "" {
		return nil
	}
	addr, err := s.findAddress(ctx, state.AddressID)
	if err != nil {
		return err
	}
	if addr == nil {
		state.AddressID = ""
		return nil
	}
	state.Location = addr.Point()
	return nil
}

func (s *ProductService) findAddress(ctx context.Context, id string) (*models.Address, error) {
	addresses, err := s.client.ListAddresses(ctx)
	if err != nil {
		return nil, requestFailed(err, "Failed to fetch addresses")
	}
	for i := range addresses {
		if addresses[i].ID == id {
			return &addresses[i], nil
		}
	}
	return nil, nil
}

// SubmitRequest is one create or update attempt.
type SubmitRequest struct {
	// DraftID, when set, takes the state from the stored draft.
	DraftID string

	// State is used when DraftID is empty.
	State *productform.State

	// ProductID selects update instead of create. A draft that edits a
	// listing supplies it on its own.
	ProductID string

	// Uploads are new image files, appended after the state's images.
	Uploads []productform.Upload
}

// SubmitResult carries the form as the console should render it next.
type SubmitResult struct {
	Form     productform.Form `json:"form"`
	Product  *models.Product  `json:"product,omitempty"`
	Products *ProductList     `json:"products,omitempty"`
}

// Submit validates the whole form and sends it to the marketplace. On
// validation failure the result carries the error map and err matches
// utils.ErrValidationFailed. On request failure the message is placed in the
// submit slot and err is a *RequestError.
func (s *ProductService) Submit(ctx context.Context, adminID int, req SubmitRequest) (*SubmitResult, error) {
	release, ok, err := s.guard.Acquire(ctx, adminID)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, utils.ErrSubmitInProgress
	}
	defer release()

	form := productform.New()
	var draft *cache.Draft
	switch {
	case req.DraftID != "":
		draft, err = s.drafts.Get(ctx, adminID, req.DraftID)
		if err != nil {
			return nil, err
		}
		form = draft.Form
		if req.ProductID == "" {
			req.ProductID = draft.ProductID
		}
	case req.State != nil:
		form.State = *req.State
	default:
		return nil, invalid("Either a draft or the form state is required")
	}

	for i := range req.Uploads {
		up := req.Uploads[i]
		form.State.Images = form.State.AddImages(productform.Image{Upload: &up})
	}

	if err := s.pinAddress(ctx, &form.State); err != nil {
		return nil, err
	}

	opts := s.options(ctx, form.State.SubcategoryID)
	form, payload := productform.Submit(form, opts)
	if payload == nil {
		s.keepDraft(ctx, draft, form)
		return &SubmitResult{Form: form}, utils.ErrValidationFailed
	}

	if msg, err := s.checkImages(ctx, payload.NewImages); err != nil {
		return nil, err
	} else if msg != "" {
		form.Errors[string(productform.FieldImages)] = msg
		s.keepDraft(ctx, draft, form)
		return &SubmitResult{Form: form}, utils.ErrValidationFailed
	}

	body, contentType, err := productform.EncodeMultipart(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode product: %w", err)
	}

	var product *models.Product
	act := Activity{AdminID: adminID, Entity: EntityProduct, EntityID: req.ProductID}
	if req.ProductID == "" {
		act.Action, act.Message = "create", "Product created successfully"
		product, err = s.client.CreateProduct(ctx, body, contentType)
		err = requestFailed(err, "Failed to create product")
	} else {
		act.Action, act.Message = "update", "Product updated successfully"
		product, err = s.client.UpdateProduct(ctx, req.ProductID, body, contentType)
		err = requestFailed(err, "Failed to update product")
	}
	if product != nil && act.EntityID == "" {
		act.EntityID = product.ID
	}
	s.audit.Record(act, err)

	if err != nil {
		form = form.WithSubmitError(err.Error())
		s.keepDraft(ctx, draft, form)
		return &SubmitResult{Form: form}, err
	}

	if draft != nil {
		if err := s.drafts.Delete(ctx, adminID, draft.ID); err != nil {
			log.Warn().Err(err).Str("draft_id", draft.ID).Msg("Failed to delete submitted draft")
		}
	}

	result := &SubmitResult{Form: productform.New(), Product: product}
	if s.listing != nil {
		list, err := s.listing.View(ctx, adminID)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to refetch products after submit")
		}
		result.Products = list
	}
	return result, nil
}

func (s *ProductService) keepDraft(ctx context.Context, d *cache.Draft, form productform.Form) {
	if d == nil {
		return
	}
	d.Form = form
	d.Form.State.Images = hostedOnly(form.State.Images)
	if err := s.drafts.Save(ctx, d); err != nil {
		log.Warn().Err(err).Str("draft_id", d.ID).Msg("Failed to store draft errors")
	}
}

// checkImages verifies type, size and moderation of each upload. A non-empty
// message is an images field error.
func (s *ProductService) checkImages(ctx context.Context, uploads []productform.Upload) (string, error) {
	for _, up := range uploads {
		if s.maxImageBytes > 0 && int64(len(up.Data)) > s.maxImageBytes {
			return fmt.Sprintf("Image %s exceeds the %d MB limit", up.Filename, s.maxImageBytes/(1<<20)), nil
		}
		if !allowedImageTypes[http.DetectContentType(up.Data)] {
			return fmt.Sprintf("Image %s is not a supported image type", up.Filename), nil
		}
		labels, err := s.moderation.Screen(ctx, up.Data)
		if err != nil {
			return "", errors.Join(utils.ErrUpstream, err)
		}
		if len(labels) > 0 {
			return rejectedImageMessage(up.Filename, labels), nil
		}
	}
	return "", nil
}

// Uploads do not survive a draft round trip.
func hostedOnly(images []productform.Image) []productform.Image {
	out := make([]productform.Image, 0, len(images))
	for _, img := range images {
		if img.Hosted() {
			out = append(out, img)
		}
	}
	return out
}
