package screens

import (
	"context"
	"errors"

	"github.com/stwalsh4118/grownby/internal/farms"
	"github.com/stwalsh4118/grownby/internal/forms"
	"github.com/stwalsh4118/grownby/internal/logger"
	"github.com/stwalsh4118/grownby/internal/media"
	"github.com/stwalsh4118/grownby/internal/navigator"
)

const (
	msgFarmAdded     = "Farm added"
	msgUploadFailed  = "Image upload failed. Please try again."
	msgSaveFailed    = "Could not save the farm. Please try again."
	msgImageNotImage = "Please choose an image file."
	msgImageMissing  = "That file could not be opened."
)

type farmWriter interface {
	NextIdentifier(ctx context.Context) (int64, error)
	Create(ctx context.Context, farm farms.Farm) error
}

type imageUploader interface {
	Upload(ctx context.Context, ref media.LocalImage, onProgress func(percent int)) (string, error)
}

type imagePicker interface {
	Pick(path string) (media.LocalImage, error)
}

// AddFarmResult is the outcome of an AddFarm submit.
type AddFarmResult struct {
	Generation uint64
	Farm       farms.Farm
	Err        error
}

// UploadProgress reports upload progress of the submit started under
// Generation.
type UploadProgress struct {
	Generation uint64
	Percent    int
}

// AddFarm is the farm registration screen.
type AddFarm struct {
	machine
	farms    farmWriter
	uploader imageUploader
	picker   imagePicker
	log      *logger.Logger

	image      media.LocalImage
	imageError string
	progress   int
}

// NewAddFarm creates the AddFarm controller.
func NewAddFarm(repo farmWriter, uploader imageUploader, picker imagePicker, v *forms.Validator, log *logger.Logger) *AddFarm {
	if log == nil {
		log = logger.Nop()
	}
	return &AddFarm{
		machine:  newMachine(forms.AddFarmForm, v),
		farms:    repo,
		uploader: uploader,
		picker:   picker,
		log:      log.WithComponent("addfarm"),
	}
}

// Mount prepares an empty form with no image.
func (c *AddFarm) Mount(ctx context.Context) {
	c.mount(ctx)
	c.image = media.LocalImage{}
	c.imageError = ""
	c.progress = 0
}

// Unmount drops any in-flight result.
func (c *AddFarm) Unmount() { c.unmount() }

// Image returns the chosen image, if any.
func (c *AddFarm) Image() media.LocalImage { return c.image }

// ImageError returns why the last pick was rejected.
func (c *AddFarm) ImageError() string { return c.imageError }

// Progress returns the upload percentage of the running submit.
func (c *AddFarm) Progress() int { return c.progress }

// PickImage selects the file at path. An empty path keeps the current image.
func (c *AddFarm) PickImage(path string) {
	if c.phase == Submitting {
		return
	}
	img, err := c.picker.Pick(path)
	switch {
	case err == nil:
		c.image = img
		c.imageError = ""
	case errors.Is(err, media.ErrPickCancelled):
	case errors.Is(err, media.ErrNotImage):
		c.imageError = msgImageNotImage
	default:
		c.log.Warn("Image pick failed", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
		c.imageError = msgImageMissing
	}
}

// ClearImage removes the chosen image.
func (c *AddFarm) ClearImage() {
	if c.phase == Submitting {
		return
	}
	c.image = media.LocalImage{}
	c.imageError = ""
}

// Submit validates the form and returns the job that uploads the image,
// allocates the id and writes the record. onProgress is called off the UI
// loop and may be nil.
func (c *AddFarm) Submit(onProgress func(UploadProgress)) (Job[AddFarmResult], bool) {
	if !c.begin() {
		return nil, false
	}
	c.progress = 0
	ctx, gen := c.ctx, c.gen
	image := c.image
	draft := farms.Draft{
		DisplayName: c.form.Value(forms.FieldFarmDisplayName),
		Name:        c.form.Value(forms.FieldFarmName),
		Phone:       c.form.Value(forms.FieldFarmPhone),
		URL:         c.form.Value(forms.FieldURL),
		OpenHour:    c.form.Value(forms.FieldOpenHour),
		CloseHour:   c.form.Value(forms.FieldCloseHour),
	}

	return func() AddFarmResult {
		imageURL, err := c.uploader.Upload(ctx, image, func(pct int) {
			if onProgress != nil {
				onProgress(UploadProgress{Generation: gen, Percent: pct})
			}
		})
		if err != nil {
			return AddFarmResult{Generation: gen, Err: err}
		}

		id, err := c.farms.NextIdentifier(ctx)
		if err != nil {
			return AddFarmResult{Generation: gen, Err: err}
		}

		farm := farms.BuildFarm(id, draft, imageURL)
		if err := c.farms.Create(ctx, farm); err != nil {
			return AddFarmResult{Generation: gen, Err: err}
		}
		return AddFarmResult{Generation: gen, Farm: farm}
	}, true
}

// SetProgress applies an upload progress report.
func (c *AddFarm) SetProgress(p UploadProgress) {
	if !c.accept(p.Generation) {
		return
	}
	if p.Percent > c.progress {
		c.progress = p.Percent
	}
}

// Complete applies a submit result. An upload failure ends the attempt with
// the form re-enabled and nothing written.
func (c *AddFarm) Complete(r AddFarmResult) {
	if !c.accept(r.Generation) {
		return
	}
	switch {
	case r.Err == nil:
		c.succeed(msgFarmAdded)
	case errors.Is(r.Err, media.ErrUpload):
		c.fail(msgUploadFailed)
	default:
		c.log.Error("Farm save failed", r.Err, nil)
		c.fail(msgSaveFailed)
	}
}

// Acknowledge confirms the success message and returns to the list.
func (c *AddFarm) Acknowledge() (navigator.Action, bool) {
	if c.phase != Success {
		return navigator.Action{}, false
	}
	c.phase = Idle
	c.message = ""
	return navigator.Back(), true
}

// Cancel leaves the screen without saving.
func (c *AddFarm) Cancel() navigator.Action {
	return navigator.Back()
}
