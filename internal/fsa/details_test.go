package fsa

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/mikael-devkh/sistema/internal/model"
)

func TestParseDetails_KnownCustomFields(t *testing.T) {
	issue := model.JiraIssue{
		Key: "FSA-1234",
		Fields: map[string]any{
			"summary":           "Loja 0451 - troca de impressora",
			"customfield_12271": "Av. Paulista, 1000",
			"customfield_11994": "São Paulo",
			"customfield_11948": map[string]any{"value": "sp - São Paulo"},
			"customfield_14829": float64(3),
		},
	}

	d := ParseDetails(issue, FieldMapping{})

	assert.Equal(t, "Av. Paulista, 1000", d.Address)
	assert.Equal(t, "São Paulo", d.City)
	assert.Equal(t, "SP", d.State)
	assert.Equal(t, "3", d.PDV)
	assert.Equal(t, "0451", d.StoreCode)
}

func TestParseDetails_MappingWins(t *testing.T) {
	issue := model.JiraIssue{
		Fields: map[string]any{
			"customfield_12271": "Rua Antiga, 1",
			"customfield_99001": "Rua Nova, 2",
			"customfield_99002": map[string]any{"value": "Loja 7788"},
		},
	}

	d := ParseDetails(issue, FieldMapping{Address: "customfield_99001", Store: "customfield_99002"})

	assert.Equal(t, "Rua Nova, 2", d.Address)
	assert.Equal(t, "7788", d.StoreCode)
}

func TestParseDetails_TextFallback(t *testing.T) {
	description := map[string]any{
		"type": "doc",
		"content": []any{
			map[string]any{"type": "paragraph", "content": []any{
				map[string]any{"type": "text", "text": "Endereço: Rua das Flores, 55"},
			}},
			map[string]any{"type": "paragraph", "content": []any{
				map[string]any{"type": "text", "text": "Cidade: Belo Horizonte"},
			}},
			map[string]any{"type": "paragraph", "content": []any{
				map[string]any{"type": "text", "text": "UF: mg"},
			}},
		},
	}
	issue := model.JiraIssue{
		Fields: map[string]any{
			"summary":     "Atendimento Loja: 3021",
			"description": description,
		},
	}

	d := ParseDetails(issue, FieldMapping{})

	assert.Equal(t, "Rua das Flores, 55", d.Address)
	assert.Equal(t, "Belo Horizonte", d.City)
	assert.Equal(t, "MG", d.State)
	assert.Equal(t, "3021", d.StoreCode)
}

func TestParseDetails_Empty(t *testing.T) {
	assert.Equal(t, Details{}, ParseDetails(model.JiraIssue{Fields: map[string]any{}}, FieldMapping{}))
}

func TestParseDetails_DecodedNumbers(t *testing.T) {
	var issue model.JiraIssue
	err := json.Unmarshal([]byte(`{"key":"FSA-9","fields":{"store":451,"customfield_14829":12}}`), &issue)
	assert.NoError(t, err)

	d := ParseDetails(issue, FieldMapping{})

	assert.Equal(t, "12", d.PDV)
	assert.Equal(t, "451", d.StoreCode)
}
