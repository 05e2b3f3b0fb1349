package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCandidateDomain(t *testing.T) {
	tests := []struct {
		name      string
		candidate string
		tld       string
		want      string
		wantErr   bool
	}{
		{name: "valid", candidate: "niceshop.online", tld: "online", want: "niceshop.online"},
		{name: "uppercase is lowercased", candidate: "NiceShop.Online", tld: "online", want: "niceshop.online"},
		{name: "surrounding whitespace trimmed", candidate: "  niceshop.online ", tld: "online", want: "niceshop.online"},
		{name: "tld with leading dot", candidate: "niceshop.online", tld: ".online", want: "niceshop.online"},
		{name: "digits in label", candidate: "shop24.online", tld: "online", want: "shop24.online"},
		{name: "empty", candidate: "", tld: "online", wantErr: true},
		{name: "wrong tld", candidate: "niceshop.com", tld: "online", wantErr: true},
		{name: "missing tld", candidate: "niceshop", tld: "online", wantErr: true},
		{name: "space in label", candidate: "nice shop.online", tld: "online", wantErr: true},
		{name: "hyphen in label", candidate: "nice-shop.online", tld: "online", wantErr: true},
		{name: "empty label", candidate: ".online", tld: "online", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ValidateCandidateDomain(tt.candidate, tt.tld)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDomainLabel(t *testing.T) {
	assert.Equal(t, "niceshop", DomainLabel("niceshop.online"))
	assert.Equal(t, "niceshop", DomainLabel("niceshop"))
}

func TestDomainTLD(t *testing.T) {
	assert.Equal(t, "online", DomainTLD("niceshop.online"))
	assert.Equal(t, "co.uk", DomainTLD("shop.co.uk"))
	assert.Equal(t, "", DomainTLD("niceshop"))
}
