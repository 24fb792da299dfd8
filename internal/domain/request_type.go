package domain

import "strings"

// RequestType identifies one of the services a student can apply for.
type RequestType string

const (
	RequestTypeRailway     RequestType = "railway"
	RequestTypeBonafide    RequestType = "bonafide"
	RequestTypeTransfer    RequestType = "transfer"
	RequestTypeScholarship RequestType = "scholarship"
	RequestTypeExam        RequestType = "exam"
	RequestTypeLibrary     RequestType = "library"
	RequestTypeIDCard      RequestType = "id_card"
)

// FallbackTokenPrefix is used for request types without a dedicated prefix.
const FallbackTokenPrefix = "SR"

// ServiceInfo describes a service in the public catalog.
type ServiceInfo struct {
	Type        RequestType `json:"type"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	TokenPrefix string      `json:"tokenPrefix"`
}

var catalog = []ServiceInfo{
	{RequestTypeRailway, "Railway Concession", "Apply for monthly or quarterly railway pass", "RC"},
	{RequestTypeBonafide, "Bonafide Certificate", "Certificate for bank, visa, or other official purposes", "BC"},
	{RequestTypeTransfer, "Transfer Certificate", "Leaving certificate for college change or other purposes", "TC"},
	{RequestTypeScholarship, "Scholarship Application", "Apply for government or institutional scholarships", "SC"},
	{RequestTypeExam, "Exam Form", "Submit examination registration form", "EF"},
	{RequestTypeLibrary, "Library Card", "Apply for new or renew existing library card", "LC"},
	{RequestTypeIDCard, "Digital ID Card", "Request or download digital student ID card", "IC"},
}

var catalogByType = func() map[RequestType]ServiceInfo {
	m := make(map[RequestType]ServiceInfo, len(catalog))
	for _, s := range catalog {
		m[s.Type] = s
	}
	return m
}()

// Catalog returns the services in display order.
func Catalog() []ServiceInfo {
	out := make([]ServiceInfo, len(catalog))
	copy(out, catalog)
	return out
}

// ParseRequestType normalises s and reports whether it names a known service.
func ParseRequestType(s string) (RequestType, bool) {
	t := RequestType(strings.ToLower(strings.TrimSpace(s)))
	_, ok := catalogByType[t]
	return t, ok
}

// Valid reports whether t is in the closed set of services.
func (t RequestType) Valid() bool {
	_, ok := catalogByType[t]
	return ok
}

// Info returns catalog data for t.
func (t RequestType) Info() (ServiceInfo, bool) {
	s, ok := catalogByType[t]
	return s, ok
}

// TokenPrefix returns the two letter token prefix for t.
func (t RequestType) TokenPrefix() string {
	if s, ok := catalogByType[t]; ok {
		return s.TokenPrefix
	}
	return FallbackTokenPrefix
}

// DisplayName returns the human name of the service, or the raw type.
func (t RequestType) DisplayName() string {
	if s, ok := catalogByType[t]; ok {
		return s.Name
	}
	return string(t)
}
