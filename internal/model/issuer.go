package model

import "strings"

// NotAvailable is shown for issuer fields the provider could not supply.
const NotAvailable = "N/A"

// IssuerInfo is the best-effort company metadata for a ticker.
type IssuerInfo struct {
	Name   string
	Sector string
}

// PlaceholderIssuer is used when the issuer lookup fails altogether.
func PlaceholderIssuer(ticker string) IssuerInfo {
	return IssuerInfo{Name: strings.ToUpper(ticker), Sector: NotAvailable}
}

// WithDefaults fills blank fields with NotAvailable.
func (i IssuerInfo) WithDefaults() IssuerInfo {
	if strings.TrimSpace(i.Name) == "" {
		i.Name = NotAvailable
	}
	if strings.TrimSpace(i.Sector) == "" {
		i.Sector = NotAvailable
	}
	return i
}
