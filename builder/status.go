package builder

import "github.com/pkg/errors"

// SaveStatus drives the save indicator of the builder.
type SaveStatus int

const (
	Saved SaveStatus = iota
	Saving
	Unsaved
	SaveError
)

var saveStatusNames = [...]string{"saved", "saving", "unsaved", "error"}

func (s SaveStatus) String() string {
	if s < 0 || int(s) >= len(saveStatusNames) {
		return "unknown"
	}
	return saveStatusNames[s]
}

func (s SaveStatus) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

func (s *SaveStatus) UnmarshalText(text []byte) error {
	for i, name := range saveStatusNames {
		if name == string(text) {
			*s = SaveStatus(i)
			return nil
		}
	}
	return errors.Errorf("unknown save status %q", text)
}
