package services

import (
	"testing"

	"github.com/ghuser/crm/services/customer/domain/models"
)

func callerAddress() models.Address {
	return models.Address{
		ZipCode:      "01001000",
		Street:       "Caller Street",
		Number:       "42",
		Neighborhood: "Caller Hood",
		City:         "Caller City",
		State:        "RJ",
	}
}

func TestMergeAddress(t *testing.T) {
	tests := []struct {
		name     string
		caller   models.Address
		resolved PostalAddress
		ok       bool
		want     models.Address
	}{
		{
			name:     "no enrichment keeps caller verbatim",
			caller:   callerAddress(),
			resolved: PostalAddress{Street: "ignored"},
			ok:       false,
			want:     callerAddress(),
		},
		{
			name:   "resolved fields win",
			caller: callerAddress(),
			resolved: PostalAddress{
				ZipCode:      "01001-000",
				Street:       "Praça da Sé",
				Complement:   "lado ímpar",
				Neighborhood: "Sé",
				City:         "São Paulo",
				State:        "sp",
			},
			ok: true,
			want: models.Address{
				ZipCode:      "01001000",
				Street:       "Praça da Sé",
				Number:       "42",
				Complement:   "lado ímpar",
				Neighborhood: "Sé",
				City:         "São Paulo",
				State:        "SP",
			},
		},
		{
			name:   "blank resolved fields fall back to caller",
			caller: callerAddress(),
			resolved: PostalAddress{
				ZipCode: "01001000",
				City:    "São Paulo",
				State:   "SP",
				Street:  "   ",
			},
			ok: true,
			want: models.Address{
				ZipCode:      "01001000",
				Street:       "Caller Street",
				Number:       "42",
				Neighborhood: "Caller Hood",
				City:         "São Paulo",
				State:        "SP",
			},
		},
		{
			name: "caller complement is kept",
			caller: func() models.Address {
				a := callerAddress()
				a.Complement = "apto 12"
				return a
			}(),
			resolved: PostalAddress{Complement: "lado ímpar"},
			ok:       true,
			want: func() models.Address {
				a := callerAddress()
				a.Complement = "apto 12"
				return a
			}(),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeAddress(tt.caller, tt.resolved, tt.ok)
			if got != tt.want {
				t.Fatalf("MergeAddress() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
