package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Registration is the durable record of a paid entry. At most one exists per Aadhar number.
type Registration struct {
	ID              primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	AadharNo        string             `bson:"aadhar_no" json:"aadhar_no"`
	Name            string             `bson:"name" json:"name"`
	Email           string             `bson:"email" json:"email"`
	MobileNo        string             `bson:"mobile_no" json:"mobile_no"`
	UniversityName  string             `bson:"university_name" json:"university_name"`
	Branch          string             `bson:"branch" json:"branch"`
	TeamName        string             `bson:"team_name,omitempty" json:"team_name,omitempty"`
	SportID         string             `bson:"sport_id" json:"sport_id"`
	SportName       string             `bson:"sport_name" json:"sport_name"`
	SportCategory   string             `bson:"sport_category,omitempty" json:"sport_category,omitempty"`
	SportCategoryID string             `bson:"sport_category_id,omitempty" json:"sport_category_id,omitempty"`
	SportType       string             `bson:"sport_type,omitempty" json:"sport_type,omitempty"`
	TeamSize        int                `bson:"team_size" json:"team_size"`
	Amount          float64            `bson:"amount" json:"amount"`
	OrderID         string             `bson:"order_id" json:"order_id"`
	PaymentID       string             `bson:"payment_id" json:"payment_id"`
	DocumentURL     string             `bson:"document_url,omitempty" json:"document_url,omitempty"`
	DocumentPending bool               `bson:"document_pending" json:"document_pending"`
	CreatedAt       time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt       time.Time          `bson:"updated_at" json:"updated_at"`
}

// NewRegistration builds the record created once a payment proof has been verified
func NewRegistration(form FormData, proof PaymentProof) *Registration {
	now := time.Now().UTC()
	return &Registration{
		AadharNo:        form.AadharNo,
		Name:            form.Name,
		Email:           form.Email,
		MobileNo:        form.MobileNo,
		UniversityName:  form.UniversityName,
		Branch:          form.Branch,
		TeamName:        form.TeamName,
		SportID:         form.SportID,
		SportName:       form.SportName,
		SportCategory:   form.SportCategory,
		SportCategoryID: form.SportCategoryID,
		SportType:       form.SportType,
		TeamSize:        form.TeamSize,
		Amount:          form.Amount,
		OrderID:         proof.OrderID,
		PaymentID:       proof.PaymentID,
		DocumentPending: true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}
}
