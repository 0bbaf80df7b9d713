package startup

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"unicode/utf8"
)

const (
	maxNameLen        = 100
	maxDescriptionLen = 500
	maxFundingLen     = 64
)

// Stages are the funding stages a founder can pick.
var Stages = []string{"Pre-seed", "Seed", "Series A", "Series B", "Series C+"}

// Form is the founder-entered part of a submission.
type Form struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Industry    string `json:"industry"`
	Stage       string `json:"stage"`
	WebsiteURL  string `json:"website_url"`
	LinkedInURL string `json:"linkedin_url"`
	Funding     string `json:"funding_raised"`
}

// Upload is the pitch deck file.
type Upload struct {
	Filename string
	Data     []byte
}

// Normalize trims every field in place.
func (f *Form) Normalize() {
	f.Name = strings.TrimSpace(f.Name)
	f.Description = strings.TrimSpace(f.Description)
	f.Industry = strings.TrimSpace(f.Industry)
	f.Stage = strings.TrimSpace(f.Stage)
	f.WebsiteURL = strings.TrimSpace(f.WebsiteURL)
	f.LinkedInURL = strings.TrimSpace(f.LinkedInURL)
	f.Funding = strings.TrimSpace(f.Funding)
}

// Validate reports every problem at once. All returned errors match ErrInvalid.
func (f Form) Validate() error {
	var errs []error
	bad := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalid}, args...)...))
	}
	switch n := utf8.RuneCountInString(f.Name); {
	case n == 0:
		bad("name is required")
	case n > maxNameLen:
		bad("name must be at most %d characters", maxNameLen)
	}
	if utf8.RuneCountInString(f.Description) > maxDescriptionLen {
		bad("description must be at most %d characters", maxDescriptionLen)
	}
	if f.Industry == "" {
		bad("industry is required")
	}
	if f.Stage == "" {
		bad("stage is required")
	} else if !validStage(f.Stage) {
		bad("stage must be one of %s", strings.Join(Stages, ", "))
	}
	if f.WebsiteURL != "" && !httpURL(f.WebsiteURL) {
		bad("website_url must be an http(s) URL")
	}
	if f.LinkedInURL != "" && !httpURL(f.LinkedInURL) {
		bad("linkedin_url must be an http(s) URL")
	}
	if utf8.RuneCountInString(f.Funding) > maxFundingLen {
		bad("funding_raised must be at most %d characters", maxFundingLen)
	}
	return errors.Join(errs...)
}

func (u Upload) Validate() error {
	if len(u.Data) == 0 {
		return fmt.Errorf("%w: pitch deck file is required", ErrInvalid)
	}
	if !strings.EqualFold(filepath.Ext(u.Filename), ".pdf") && !bytes.HasPrefix(u.Data, []byte("%PDF")) {
		return fmt.Errorf("%w: pitch deck must be a PDF", ErrInvalid)
	}
	return nil
}

func validStage(s string) bool {
	for _, st := range Stages {
		if s == st {
			return true
		}
	}
	return false
}

func httpURL(s string) bool {
	u, err := url.Parse(s)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
