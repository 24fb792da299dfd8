package domain

import (
	"errors"
	"testing"
)

func TestPayloadValidation(t *testing.T) {
	cases := []struct {
		name    string
		payload Payload
		field   string
	}{
		{"railway ok", RailwayPayload{FromStation: "A", ToStation: "B", JourneyClass: "second", Duration: "monthly"}, ""},
		{"railway missing to", RailwayPayload{FromStation: "A", JourneyClass: "second", Duration: "monthly"}, "toStation"},
		{"railway same stations", RailwayPayload{FromStation: "Dadar", ToStation: "dadar", JourneyClass: "first", Duration: "monthly"}, "toStation"},
		{"railway bad class", RailwayPayload{FromStation: "A", ToStation: "B", JourneyClass: "sleeper", Duration: "monthly"}, "journeyClass"},
		{"railway bad duration", RailwayPayload{FromStation: "A", ToStation: "B", JourneyClass: "first", Duration: "yearly"}, "duration"},
		{"bonafide needs purpose", CertificatePayload{Type: RequestTypeBonafide}, "purpose"},
		{"library without purpose", CertificatePayload{Type: RequestTypeLibrary}, ""},
		{"certificate wrong type", CertificatePayload{Type: RequestTypeExam, Purpose: "x"}, "type"},
		{"transfer bad date", TransferPayload{Purpose: "moving", LastAttendanceDate: "18/10/2026"}, "lastAttendanceDate"},
		{"transfer ok", TransferPayload{Purpose: "moving", LastAttendanceDate: "2026-10-01"}, ""},
		{"scholarship negative", ScholarshipPayload{Purpose: "merit", AnnualIncome: income(-1)}, "annualIncome"},
		{"scholarship missing income", ScholarshipPayload{Purpose: "merit"}, "annualIncome"},
		{"scholarship zero income", ScholarshipPayload{Purpose: "merit", AnnualIncome: income(0)}, ""},
		{"exam semester range", ExamPayload{Semester: 9}, "semester"},
		{"exam ok", ExamPayload{Semester: 3}, ""},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.payload.Validate()
			if tc.field == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			var fe *FieldError
			if !errors.As(err, &fe) || fe.Field != tc.field {
				t.Fatalf("expected field error on %s, got %v", tc.field, err)
			}
		})
	}
}

func TestPayloadRoundTripKeepsVariant(t *testing.T) {
	in := ScholarshipPayload{Purpose: "merit", AnnualIncome: income(250000)}
	raw, err := EncodePayload(in)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out, err := DecodePayload(RequestTypeScholarship, raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	got, ok := out.(ScholarshipPayload)
	if !ok || got.Purpose != in.Purpose || got.AnnualIncome == nil || *got.AnnualIncome != 250000 {
		t.Fatalf("decoded %#v", out)
	}

	idc, err := DecodePayload(RequestTypeIDCard, []byte(`{"purpose":"lost card"}`))
	if err != nil {
		t.Fatalf("decode id card: %v", err)
	}
	if idc.RequestType() != RequestTypeIDCard {
		t.Fatalf("certificate payload lost its type: %s", idc.RequestType())
	}

	if _, err := DecodePayload(RequestType("fee"), nil); err == nil {
		t.Fatal("unknown types have no payload")
	}
}

func TestDocumentsHandles(t *testing.T) {
	var d Documents
	d.Set(DocumentPhoto, "requests/a.png")
	d.Set(DocumentFeeReceipt, "requests/b.pdf")
	d.Set(DocumentKind("other"), "ignored")

	got := d.Handles()
	if len(got) != 2 || got[0] != "requests/a.png" || got[1] != "requests/b.pdf" {
		t.Fatalf("Handles() = %v", got)
	}
}

func TestPayloadFromFields(t *testing.T) {
	p, err := PayloadFromFields(RequestTypeExam, map[string]string{"semester": " 5 ", "notes": "backlog", "remarks": "ignored"})
	if err != nil {
		t.Fatal(err)
	}
	if got := p.(ExamPayload); got.Semester != 5 || got.Notes != "backlog" {
		t.Fatalf("PayloadFromFields = %#v", got)
	}

	_, err = PayloadFromFields(RequestTypeScholarship, map[string]string{"purpose": "merit", "annualIncome": "2.5 lakh"})
	var fe *FieldError
	if !errors.As(err, &fe) || fe.Field != "annualIncome" {
		t.Fatalf("expected annualIncome field error, got %v", err)
	}

	p, err = PayloadFromFields(RequestTypeScholarship, map[string]string{"purpose": "merit", "annualIncome": "  "})
	if err != nil {
		t.Fatal(err)
	}
	if !errors.As(p.Validate(), &fe) || fe.Field != "annualIncome" {
		t.Fatalf("blank annualIncome should be required, payload %#v", p)
	}

	p, err = PayloadFromFields(RequestTypeScholarship, map[string]string{"purpose": "merit"})
	if err != nil {
		t.Fatal(err)
	}
	if !errors.As(p.Validate(), &fe) || fe.Field != "annualIncome" {
		t.Fatalf("missing annualIncome should be required, payload %#v", p)
	}

	p, err = PayloadFromFields(RequestTypeScholarship, map[string]string{"purpose": "merit", "annualIncome": "0"})
	if err != nil || p.Validate() != nil {
		t.Fatalf("zero income is a valid declaration: %#v, %v", p, err)
	}

	p, err = PayloadFromFields(RequestTypeBonafide, map[string]string{"purpose": "bank"})
	if err != nil || p.RequestType() != RequestTypeBonafide || p.Validate() != nil {
		t.Fatalf("bonafide payload %#v, %v", p, err)
	}
}

func income(n int64) *int64 { return &n }
