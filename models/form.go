package models

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cast"
)

// Sport is the event the payer is registering for
type Sport struct {
	ID         string  `bson:"_id" json:"id" mapstructure:"id"`
	Name       string  `bson:"name" json:"name" mapstructure:"name"`
	Category   string  `bson:"category" json:"category" mapstructure:"category"`
	CategoryID string  `bson:"category_id" json:"categoryId" mapstructure:"category_id"`
	Type       string  `bson:"type" json:"type" mapstructure:"type"`
	TeamSize   int     `bson:"team_size" json:"teamSize" mapstructure:"team_size"`
	Fee        float64 `bson:"fee" json:"fee" mapstructure:"fee"`
}

// Validate checks a catalog entry before it is saved
func (s Sport) Validate() error {
	verr := &ValidationError{}
	if strings.TrimSpace(s.ID) == "" {
		verr.Add("id", "Sport id is required")
	}
	if strings.TrimSpace(s.Name) == "" {
		verr.Add("name", "Sport name is required")
	}
	if s.Fee <= 0 {
		verr.Add("fee", fieldMessages["amount"]["gt"])
	}
	if s.TeamSize < 0 {
		verr.Add("teamSize", "Team size cannot be negative")
	}
	return verr.OrNil()
}

// IsTeam reports whether the sport needs a team name
func (s Sport) IsTeam() bool {
	return s.TeamSize > 1 || strings.EqualFold(s.Type, "team")
}

// RegistrationForm holds what the payer typed into the registration form
type RegistrationForm struct {
	Name           string `json:"name" validate:"required,min=3"`
	UniversityName string `json:"universityName" validate:"required"`
	Branch         string `json:"branch" validate:"required"`
	TeamName       string `json:"teamName"`
	MobileNo       string `json:"mobileNo" validate:"required,mobile"`
	Email          string `json:"email" validate:"required,email"`
	AadharNo       string `json:"aadharNo" validate:"required,aadhar"`
}

// Normalize trims surrounding whitespace from every field
func (f RegistrationForm) Normalize() RegistrationForm {
	f.Name = strings.TrimSpace(f.Name)
	f.UniversityName = strings.TrimSpace(f.UniversityName)
	f.Branch = strings.TrimSpace(f.Branch)
	f.TeamName = strings.TrimSpace(f.TeamName)
	f.MobileNo = strings.TrimSpace(f.MobileNo)
	f.Email = strings.TrimSpace(f.Email)
	f.AadharNo = strings.TrimSpace(f.AadharNo)
	return f
}

// Validate runs the local checks done before any network call. The identity
// document is mandatory on first submission only.
func (f RegistrationForm) Validate(sport Sport, hasDocument bool) error {
	verr := &ValidationError{}
	if sport.ID == "" {
		verr.Add("sportId", fieldMessages["sportId"]["required"])
		return verr
	}
	f = f.Normalize()
	validateStruct(f, verr)
	if sport.IsTeam() && f.TeamName == "" {
		verr.Add("teamName", fieldMessages["teamName"]["required"])
	}
	if !hasDocument {
		verr.Add("aadharPhoto", "Please upload Aadhar card photo")
	}
	return verr.OrNil()
}

// FormData is the form merged with the selected sport, sent alongside the payment proof
type FormData struct {
	Name            string  `json:"name" validate:"required,min=3"`
	UniversityName  string  `json:"universityName" validate:"required"`
	Branch          string  `json:"branch" validate:"required"`
	TeamName        string  `json:"teamName,omitempty"`
	MobileNo        string  `json:"mobileNo" validate:"required,mobile"`
	Email           string  `json:"email" validate:"required,email"`
	AadharNo        string  `json:"aadharNo" validate:"required,aadhar"`
	SportCategory   string  `json:"sportCategory,omitempty"`
	SportCategoryID string  `json:"sportCategoryId,omitempty"`
	SportName       string  `json:"sportName" validate:"required"`
	SportID         string  `json:"sportId" validate:"required"`
	SportType       string  `json:"sportType,omitempty"`
	TeamSize        int     `json:"teamSize"`
	Amount          float64 `json:"amount" validate:"gt=0"`
}

// NewFormData merges the form with the sport it was filled in for
func NewFormData(form RegistrationForm, sport Sport) FormData {
	form = form.Normalize()
	return FormData{
		Name:            form.Name,
		UniversityName:  form.UniversityName,
		Branch:          form.Branch,
		TeamName:        form.TeamName,
		MobileNo:        form.MobileNo,
		Email:           form.Email,
		AadharNo:        form.AadharNo,
		SportCategory:   sport.Category,
		SportCategoryID: sport.CategoryID,
		SportName:       sport.Name,
		SportID:         sport.ID,
		SportType:       sport.Type,
		TeamSize:        sport.TeamSize,
		Amount:          sport.Fee,
	}
}

// NewCreateOrderRequest builds the order request for the form and sport
func NewCreateOrderRequest(form RegistrationForm, sport Sport) CreateOrderRequest {
	form = form.Normalize()
	return CreateOrderRequest{
		Amount:    sport.Fee,
		Name:      form.Name,
		Email:     form.Email,
		MobileNo:  form.MobileNo,
		AadharNo:  form.AadharNo,
		SportID:   sport.ID,
		SportName: sport.Name,
	}
}

// Validate checks the merged form on the server side
func (f FormData) Validate() error {
	verr := &ValidationError{}
	validateStruct(f, verr)
	if (f.TeamSize > 1 || strings.EqualFold(f.SportType, "team")) && f.TeamName == "" {
		verr.Add("teamName", fieldMessages["teamName"]["required"])
	}
	return verr.OrNil()
}

// ParseFormData decodes the JSON formData field of a verify request. Browsers and
// older clients send numbers as strings and ids as numbers, so values are coerced.
func ParseFormData(raw string) (FormData, error) {
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return FormData{}, &ValidationError{Fields: map[string]string{"formData": fmt.Sprintf("Invalid form data: %v", err)}}
	}
	str := func(k string) string { return strings.TrimSpace(cast.ToString(m[k])) }
	return FormData{
		Name:            str("name"),
		UniversityName:  str("universityName"),
		Branch:          str("branch"),
		TeamName:        str("teamName"),
		MobileNo:        str("mobileNo"),
		Email:           str("email"),
		AadharNo:        str("aadharNo"),
		SportCategory:   str("sportCategory"),
		SportCategoryID: str("sportCategoryId"),
		SportName:       str("sportName"),
		SportID:         str("sportId"),
		SportType:       str("sportType"),
		TeamSize:        cast.ToInt(m["teamSize"]),
		Amount:          cast.ToFloat64(m["amount"]),
	}, nil
}
