package domain

// StatusOK is the status code the control plane reports for a created entry.
const StatusOK int32 = 0

// RegisteredEntry is the control plane's echo of an entry. It is a plain data
// view: the server may omit fields, so it is not revalidated locally.
type RegisteredEntry struct {
	ID             string   `json:"id,omitempty" yaml:"id,omitempty"`
	SPIFFEID       string   `json:"spiffe_id,omitempty" yaml:"spiffe_id,omitempty"`
	ParentID       string   `json:"parent_id,omitempty" yaml:"parent_id,omitempty"`
	Selectors      []string `json:"selectors,omitempty" yaml:"selectors,omitempty"`
	DNSNames       []string `json:"dns_names,omitempty" yaml:"dns_names,omitempty"`
	FederatesWith  []string `json:"federates_with,omitempty" yaml:"federates_with,omitempty"`
	Admin          bool     `json:"admin,omitempty" yaml:"admin,omitempty"`
	Downstream     bool     `json:"downstream,omitempty" yaml:"downstream,omitempty"`
	X509SVIDTTL    int32    `json:"x509_svid_ttl,omitempty" yaml:"x509_svid_ttl,omitempty"`
	JWTSVIDTTL     int32    `json:"jwt_svid_ttl,omitempty" yaml:"jwt_svid_ttl,omitempty"`
	ExpiresAt      int64    `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Hint           string   `json:"hint,omitempty" yaml:"hint,omitempty"`
	StoreSVID      bool     `json:"store_svid,omitempty" yaml:"store_svid,omitempty"`
	CreatedAt      int64    `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	RevisionNumber int64    `json:"revision_number,omitempty" yaml:"revision_number,omitempty"`
}

// RegistrationResult is the outcome of one registration call that reached the
// control plane. A non-OK code is a successful exchange whose payload reports failure.
type RegistrationResult struct {
	Code     int32            `json:"code" yaml:"code"`
	CodeName string           `json:"code_name,omitempty" yaml:"code_name,omitempty"`
	Message  string           `json:"message" yaml:"message"`
	Entry    *RegisteredEntry `json:"entry,omitempty" yaml:"entry,omitempty"`
}

// Succeeded reports whether the control plane created the entry.
func (r *RegistrationResult) Succeeded() bool {
	return r != nil && r.Code == StatusOK
}
