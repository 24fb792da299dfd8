package domain

// DocumentKind names one of the four document slots on a request
type DocumentKind string

const (
	DocumentIDProof       DocumentKind = "id_proof"
	DocumentPhoto         DocumentKind = "photo"
	DocumentFeeReceipt    DocumentKind = "fee_receipt"
	DocumentAdditionalDoc DocumentKind = "additional_doc"
)

// DocumentKinds lists the slots in form order
var DocumentKinds = []DocumentKind{DocumentIDProof, DocumentPhoto, DocumentFeeReceipt, DocumentAdditionalDoc}

// Documents holds opaque handles returned by file storage; empty means not supplied
type Documents struct {
	IDProof       *string `json:"idProof,omitempty"`
	Photo         *string `json:"photo,omitempty"`
	FeeReceipt    *string `json:"feeReceipt,omitempty"`
	AdditionalDoc *string `json:"additionalDoc,omitempty"`
}

// Set stores handle in the slot for kind
func (d *Documents) Set(kind DocumentKind, handle string) {
	h := handle
	switch kind {
	case DocumentIDProof:
		d.IDProof = &h
	case DocumentPhoto:
		d.Photo = &h
	case DocumentFeeReceipt:
		d.FeeReceipt = &h
	case DocumentAdditionalDoc:
		d.AdditionalDoc = &h
	}
}

// Handles returns every stored handle
func (d Documents) Handles() []string {
	var out []string
	for _, h := range []*string{d.IDProof, d.Photo, d.FeeReceipt, d.AdditionalDoc} {
		if h != nil && *h != "" {
			out = append(out, *h)
		}
	}
	return out
}
