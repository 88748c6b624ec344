package domain_test

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/satishbabariya/prisma-soql/internal/core/schema/domain"
	"github.com/stretchr/testify/assert"
)

func TestNormalizeID(t *testing.T) {
	ext := &domain.Property{Name: "id", ExternalID: true}
	plain := &domain.Property{Name: "name"}

	tests := []struct {
		name  string
		prop  *domain.Property
		value any
		want  any
	}{
		{"truncates long id", ext, "0035000000aBcDeAAA", "0035000000aBcDe"},
		{"keeps short id", ext, "0035000000aBcDe", "0035000000aBcDe"},
		{"ignores plain property", plain, "0035000000aBcDeAAA", "0035000000aBcDeAAA"},
		{"passes nil", ext, nil, nil},
		{"passes numbers", ext, 42, 42},
		{"truncates slices", ext, []any{"0035000000aBcDeAAA", "short"}, []any{"0035000000aBcDe", "short"}},
		{"truncates string slices", ext, []string{"0035000000aBcDeAAA"}, []string{"0035000000aBcDe"}},
		{"truncates by character", ext, "ref-ärger-öl-über-1", "ref-ärger-öl-üb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, domain.NormalizeID(tt.prop, tt.value))
		})
	}
}

func TestNormalizeID_Idempotent(t *testing.T) {
	ext := &domain.Property{Name: "id", ExternalID: true}
	once := domain.NormalizeID(ext, "0035000000aBcDeAAA")
	assert.Equal(t, once, domain.NormalizeID(ext, once))
}

func TestTruncateID(t *testing.T) {
	long := strings.Repeat("é", 20)
	got := domain.TruncateID(long)
	assert.True(t, utf8.ValidString(got))
	assert.Equal(t, domain.ExternalIDLength, utf8.RuneCountInString(got))
	assert.Equal(t, strings.Repeat("é", 15), got)

	assert.Equal(t, "日本語", domain.TruncateID("日本語"))
	assert.Equal(t, "", domain.TruncateID(""))
}

func TestModelKeys(t *testing.T) {
	id := &domain.Property{Name: "id", Key: true, Serial: true}
	code := &domain.Property{Name: "code", Key: true}
	model := &domain.Model{
		Name:       "Account",
		Properties: []*domain.Property{code, id, {Name: "name"}},
	}

	assert.Equal(t, code, model.KeyProperty())
	assert.Equal(t, id, model.SerialKey())
	assert.Len(t, model.Keys(), 2)
	assert.Nil(t, model.Property("missing"))
	assert.Equal(t, "name", model.Property("name").Name)
}

func TestShortName(t *testing.T) {
	assert.Equal(t, "Account", domain.ShortName("crm::Account"))
	assert.Equal(t, "Contact", domain.ShortName("crm.sales.Contact"))
	assert.Equal(t, "Lead", domain.ShortName("Lead"))
}
