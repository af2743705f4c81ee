package crawler

import (
	"context"
	"strings"

	"github.com/nao1215/sitehealth/internal/model"
)

// ImageValidator decides whether an embedded image is broken.
//
// The renderer's load signal (zero natural width after load) is not trusted
// on its own because layout timing produces false positives. A failed image
// is confirmed with a direct GET and only reported when that fetch also fails.
type ImageValidator struct {
	validator *Validator
}

// NewImageValidator creates an ImageValidator that confirms through v.
func NewImageValidator(v *Validator) *ImageValidator {
	return &ImageValidator{validator: v}
}

// CheckImage returns a BROKEN_IMAGE issue for src found on pageURL, or false
// when the image is fine or not checkable. Empty and data: sources are skipped.
func (iv *ImageValidator) CheckImage(ctx context.Context, pageURL, src string, renderedLoadFailed bool) (model.Issue, bool) {
	src = strings.TrimSpace(src)
	if src == "" || !IsCheckable(src) {
		return model.Issue{}, false
	}
	if !renderedLoadFailed {
		return model.Issue{}, false
	}

	status := iv.validator.Confirm(ctx, src)
	if Classify(status) != OutcomeIssue {
		return model.Issue{}, false
	}

	return model.Issue{
		Kind:       model.KindBrokenImage,
		URL:        src,
		PageURL:    pageURL,
		StatusCode: status,
	}, true
}
