package builder

import (
	"github.com/hashicorp/go-multierror"
	"github.com/mbolis/surveyforge/model"
	"github.com/pkg/errors"
)

// Validate runs the save-time checks on a document. All failures are
// reported together.
func Validate(doc model.Survey) error {
	var result *multierror.Error

	if p, _ := doc.CurrentPage(); p == nil {
		result = multierror.Append(result,
			errors.Wrapf(model.ErrNotFound, "current page %q", doc.CurrentPageID))
	}

	pageIDs := map[string]bool{}
	questionIDs := map[string]bool{}
	for _, page := range doc.Pages {
		if pageIDs[page.ID] {
			result = multierror.Append(result,
				errors.Wrapf(model.ErrConstraintViolation, "duplicate page id %q", page.ID))
		}
		pageIDs[page.ID] = true

		for _, q := range page.Questions {
			if questionIDs[q.ID] {
				result = multierror.Append(result,
					errors.Wrapf(model.ErrConstraintViolation, "duplicate question id %q", q.ID))
			}
			questionIDs[q.ID] = true

			if q.Type.IsChoice() && len(q.Options) < 2 {
				result = multierror.Append(result,
					errors.Wrapf(model.ErrConstraintViolation,
						"question %q needs at least two options, has %d", q.ID, len(q.Options)))
			}
		}
	}

	return result.ErrorOrNil()
}
