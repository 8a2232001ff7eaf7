package db

import "testing"

func TestIndexDefinitionValidate(t *testing.T) {
	tests := []struct {
		name    string
		def     IndexDefinition
		wantErr bool
	}{
		{
			name: "valid text index",
			def: IndexDefinition{
				Name:     "corpus-idx",
				Prefixes: []string{"doc:"},
				Fields: []IndexField{
					{Name: "content", Type: IndexFieldText},
					{Name: "title", Type: IndexFieldText},
					{Name: "source", Type: IndexFieldTag},
				},
			},
		},
		{
			name:    "missing name",
			def:     IndexDefinition{Fields: []IndexField{{Name: "content"}}},
			wantErr: true,
		},
		{
			name:    "invalid name characters",
			def:     IndexDefinition{Name: "bad name!", Fields: []IndexField{{Name: "content"}}},
			wantErr: true,
		},
		{
			name:    "no fields",
			def:     IndexDefinition{Name: "empty-idx"},
			wantErr: true,
		},
		{
			name: "duplicate field",
			def: IndexDefinition{
				Name: "dup-idx",
				Fields: []IndexField{
					{Name: "content"},
					{Name: "content"},
				},
			},
			wantErr: true,
		},
		{
			name: "alias collides with field name",
			def: IndexDefinition{
				Name: "alias-idx",
				Fields: []IndexField{
					{Name: "content"},
					{Name: "body", Alias: "content"},
				},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.def.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestIsValidIdentifier(t *testing.T) {
	valid := []string{"corpus-idx", "doc:index", "a_b_c", "idx1"}
	for _, s := range valid {
		if !IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = false, want true", s)
		}
	}
	invalid := []string{"", "has space", "semi;colon", "star*"}
	for _, s := range invalid {
		if IsValidIdentifier(s) {
			t.Errorf("IsValidIdentifier(%q) = true, want false", s)
		}
	}
}
