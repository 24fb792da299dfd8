package domain

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Payload is the type-specific part of a service request.
type Payload interface {
	RequestType() RequestType
	Validate() error
}

// FieldError reports an invalid payload field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func fieldErr(field, msg string) error {
	return &FieldError{Field: field, Message: msg}
}

// Railway journey classes and pass durations.
const (
	JourneyClassFirst  = "first"
	JourneyClassSecond = "second"

	DurationMonthly   = "monthly"
	DurationQuarterly = "quarterly"
)

// RailwayPayload is a railway concession application.
type RailwayPayload struct {
	FromStation  string `json:"fromStation"`
	ToStation    string `json:"toStation"`
	JourneyClass string `json:"journeyClass"`
	Duration     string `json:"duration"`
	Address      string `json:"address,omitempty"`
	Notes        string `json:"notes,omitempty"`
}

func (RailwayPayload) RequestType() RequestType { return RequestTypeRailway }

func (p RailwayPayload) Validate() error {
	if strings.TrimSpace(p.FromStation) == "" {
		return fieldErr("fromStation", "is required")
	}
	if strings.TrimSpace(p.ToStation) == "" {
		return fieldErr("toStation", "is required")
	}
	if strings.EqualFold(strings.TrimSpace(p.FromStation), strings.TrimSpace(p.ToStation)) {
		return fieldErr("toStation", "must differ from fromStation")
	}
	if p.JourneyClass != JourneyClassFirst && p.JourneyClass != JourneyClassSecond {
		return fieldErr("journeyClass", "must be first or second")
	}
	if p.Duration != DurationMonthly && p.Duration != DurationQuarterly {
		return fieldErr("duration", "must be monthly or quarterly")
	}
	return nil
}

// CertificatePayload covers bonafide certificates, ID cards and library cards.
type CertificatePayload struct {
	Type    RequestType `json:"-"`
	Purpose string      `json:"purpose"`
	Address string      `json:"address,omitempty"`
	Notes   string      `json:"notes,omitempty"`
}

func (p CertificatePayload) RequestType() RequestType { return p.Type }

func (p CertificatePayload) Validate() error {
	switch p.Type {
	case RequestTypeBonafide, RequestTypeIDCard:
		if strings.TrimSpace(p.Purpose) == "" {
			return fieldErr("purpose", "is required")
		}
	case RequestTypeLibrary:
	default:
		return fieldErr("type", "is not a certificate service")
	}
	return nil
}

// TransferPayload is a transfer (leaving) certificate application.
type TransferPayload struct {
	Purpose            string `json:"purpose"`
	LastAttendanceDate string `json:"lastAttendanceDate"`
	Notes              string `json:"notes,omitempty"`
}

func (TransferPayload) RequestType() RequestType { return RequestTypeTransfer }

func (p TransferPayload) Validate() error {
	if strings.TrimSpace(p.Purpose) == "" {
		return fieldErr("purpose", "is required")
	}
	if _, err := time.Parse(time.DateOnly, p.LastAttendanceDate); err != nil {
		return fieldErr("lastAttendanceDate", "must be a date in YYYY-MM-DD format")
	}
	return nil
}

// ScholarshipPayload is a scholarship application.
type ScholarshipPayload struct {
	Purpose      string `json:"purpose"`
	AnnualIncome *int64 `json:"annualIncome"` // nil when not declared
	Notes        string `json:"notes,omitempty"`
}

func (ScholarshipPayload) RequestType() RequestType { return RequestTypeScholarship }

func (p ScholarshipPayload) Validate() error {
	if strings.TrimSpace(p.Purpose) == "" {
		return fieldErr("purpose", "is required")
	}
	if p.AnnualIncome == nil {
		return fieldErr("annualIncome", "is required")
	}
	if *p.AnnualIncome < 0 {
		return fieldErr("annualIncome", "must not be negative")
	}
	return nil
}

// ExamPayload is an examination form.
type ExamPayload struct {
	Purpose  string `json:"purpose,omitempty"`
	Semester int    `json:"semester"`
	Notes    string `json:"notes,omitempty"`
}

func (ExamPayload) RequestType() RequestType { return RequestTypeExam }

func (p ExamPayload) Validate() error {
	if p.Semester < 1 || p.Semester > 8 {
		return fieldErr("semester", "must be between 1 and 8")
	}
	return nil
}

// EncodePayload serialises p for the details column.
func EncodePayload(p Payload) ([]byte, error) {
	return json.Marshal(p)
}

// DecodePayload rebuilds the payload stored for a request of type t.
func DecodePayload(t RequestType, raw []byte) (Payload, error) {
	if len(raw) == 0 {
		raw = []byte("{}")
	}
	var (
		p   Payload
		err error
	)
	switch t {
	case RequestTypeRailway:
		var v RailwayPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case RequestTypeBonafide, RequestTypeIDCard, RequestTypeLibrary:
		v := CertificatePayload{Type: t}
		err = json.Unmarshal(raw, &v)
		p = v
	case RequestTypeTransfer:
		var v TransferPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case RequestTypeScholarship:
		var v ScholarshipPayload
		err = json.Unmarshal(raw, &v)
		p = v
	case RequestTypeExam:
		var v ExamPayload
		err = json.Unmarshal(raw, &v)
		p = v
	default:
		return nil, fmt.Errorf("no payload for request type %q", t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", t, err)
	}
	return p, nil
}

// Payload fields that are numbers on the wire; every other form field is text.
var integerFields = map[string]bool{"annualIncome": true, "semester": true}

// PayloadFromFields builds the payload of type t from flat form values keyed by their json names.
// Unknown keys are ignored; integer fields that do not parse yield a *FieldError.
func PayloadFromFields(t RequestType, fields map[string]string) (Payload, error) {
	obj := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		v = strings.TrimSpace(v)
		if !integerFields[k] {
			obj[k] = v
			continue
		}
		if v == "" {
			continue
		}
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, fieldErr(k, "must be a whole number")
		}
		obj[k] = n
	}

	raw, err := json.Marshal(obj)
	if err != nil {
		return nil, err
	}
	return DecodePayload(t, raw)
}
