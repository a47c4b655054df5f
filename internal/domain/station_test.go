package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"  Place   Bellecour  ", "Place Bellecour"},
		{"Foch", "Foch"},
		{"Gare  Part-Dieu /  Villette", "Gare Part-Dieu / Villette"},
		{"Tabs\tand  spaces", "Tabs and spaces"},
		{"   ", ""},
		{"Ve\u0301nissieux", "Vénissieux"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizeName(tt.in))
		})
	}
}
