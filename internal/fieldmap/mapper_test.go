package fieldmap

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMapField_Phone(t *testing.T) {
	// Act
	res := MapField(Field{ID: "3", Label: "Telefono", Type: FieldTypePhone, Value: "+39 333 1234567"})

	// Assert
	assert.Equal(t, "+39 333 1234567", res.Entries["Telefono"])
	assert.Equal(t, "+393331234567", res.Entries["Telefono_numeric"])
	assert.Equal(t, HashSHA256("3331234567"), res.Entries["Telefono_hash"])
}

func TestMapField_PhoneWithoutSeparators(t *testing.T) {
	res := MapField(Field{ID: "3", Label: "Phone", Type: FieldTypePhone, Value: "0612345678"})

	_, hasNumeric := res.Entries["Phone_numeric"]
	assert.False(t, hasNumeric)
	assert.Equal(t, HashSHA256("612345678"), res.Entries["Phone_hash"])
}

func TestNationalNumber(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"italian plus", "+39 333 1234567", "3331234567"},
		{"italian double zero", "0039 333 1234567", "3331234567"},
		{"north american", "+1 (555) 010-9999", "5550109999"},
		{"three digit code", "+353 87 123 4567", "871234567"},
		{"national with trunk zero", "06 1234 5678", "612345678"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NationalNumber(tt.input))
		})
	}
}

func TestMapField_Email(t *testing.T) {
	// Act
	res := MapField(Field{ID: "2", Label: "Email", Type: FieldTypeEmail, Value: "Jane.Doe@Example.com"})

	// Assert
	assert.Equal(t, "Jane.Doe@Example.com", res.Entries["Email"])
	assert.Equal(t, "Example.com", res.Entries["Email_domain"])
	assert.Equal(t, HashSHA256("jane.doe@example.com"), res.Entries["Email_hash"])
}

func TestMapField_EmailHashIgnoresSurroundingSpace(t *testing.T) {
	a := MapField(Field{ID: "2", Label: "Email", Type: FieldTypeEmail, Value: "  JANE.DOE@example.com "})
	b := MapField(Field{ID: "2", Label: "Email", Type: FieldTypeEmail, Value: "jane.doe@example.com"})

	assert.Equal(t, a.Entries["Email_hash"], b.Entries["Email_hash"])
}

func TestMapField_Date(t *testing.T) {
	// Act
	res := MapField(Field{ID: "4", Label: "Appointment", Type: FieldTypeDate, Value: "25/12/2023"})

	// Assert
	assert.Equal(t, "25/12/2023", res.Entries["Appointment"])
	assert.Equal(t, "2023-12-25", res.Entries["Appointment_iso"])
	assert.Equal(t, time.Date(2023, 12, 25, 0, 0, 0, 0, time.UTC).Unix(), res.Entries["Appointment_timestamp"])
}

func TestMapField_UnparseableDate(t *testing.T) {
	res := MapField(Field{ID: "4", Label: "When", Type: FieldTypeDate, Value: "next tuesday"})

	assert.Equal(t, "next tuesday", res.Entries["When"])
	assert.NotContains(t, res.Entries, "When_iso")
	assert.Len(t, res.Warnings, 1)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"25/12/2023", "2023-12-25"},
		{"5/3/2024", "2024-03-05"},
		{"25-12-2023", "2023-12-25"},
		{"25.12.2023", "2023-12-25"},
		{"2023-12-25", "2023-12-25"},
		{"25/12/2023 14:30", "2023-12-25"},
		{"December 25, 2023", "2023-12-25"},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, ok := ParseDate(tt.input)
			require.True(t, ok)
			assert.Equal(t, tt.want, got.Format("2006-01-02"))
		})
	}
}

func TestMapField_FullNameLabel(t *testing.T) {
	// Act
	res := MapField(Field{ID: "1", Label: "Nome e Cognome", Type: FieldTypeText, Value: "Mario Rossi"})

	// Assert
	assert.Equal(t, TagFullName, res.Tag)
	assert.Equal(t, "Mario Rossi", res.Entries["Nome e Cognome"])
	assert.Equal(t, "Mario", res.Entries["nome"])
	assert.Equal(t, "Rossi", res.Entries["cognome"])
	assert.Equal(t, HashSHA256("mario"), res.Entries["nome_hash"])
	assert.Equal(t, HashSHA256("rossi"), res.Entries["cognome_hash"])
}

func TestMapField_NameSingleToken(t *testing.T) {
	res := MapField(Field{ID: "1", Label: "Name", Type: FieldTypeName, Value: "Cher"})

	assert.Equal(t, "Cher", res.Entries["nome"])
	assert.NotContains(t, res.Entries, "cognome")
	assert.NotContains(t, res.Entries, "cognome_hash")
}

func TestMapField_StructuredName(t *testing.T) {
	value := map[string]any{"first": "Anna", "middle": "Maria", "last": "De Luca"}

	res := MapField(Field{ID: "1", Label: "Name", Type: FieldTypeName, Value: value})

	assert.Equal(t, "Anna Maria De Luca", res.Entries["Name"])
	assert.Equal(t, "Anna Maria", res.Entries["nome"])
	assert.Equal(t, "De Luca", res.Entries["cognome"])
	assert.Equal(t, HashSHA256("de luca"), res.Entries["cognome_hash"])
	assert.Equal(t, "Maria", res.Entries["secondo_nome"])
	assert.Equal(t, HashSHA256("maria"), res.Entries["secondo_nome_hash"])
}

func TestMapField_StructuredNameWithoutMiddle(t *testing.T) {
	res := MapField(Field{ID: "1", Label: "Name", Type: FieldTypeName, Value: map[string]any{"first": "Anna", "last": "Bianchi"}})

	assert.Equal(t, "Anna", res.Entries["nome"])
	assert.NotContains(t, res.Entries, "secondo_nome")
	assert.NotContains(t, res.Entries, "secondo_nome_hash")
}

func TestMapField_ChoiceList(t *testing.T) {
	res := MapField(Field{ID: "5", Label: "Interests", Type: FieldTypeCheckbox, Value: []any{"Sport", " <b>Music</b> "}})

	assert.Equal(t, []string{"Sport", "Music"}, res.Entries["Interests"])
	assert.Equal(t, "Sport, Music", res.Entries["Interests_text"])
}

func TestMapField_ChoiceScalar(t *testing.T) {
	res := MapField(Field{ID: "5", Label: "Plan", Type: FieldTypeRadio, Value: "Pro"})

	assert.Equal(t, "Pro", res.Entries["Plan"])
	assert.NotContains(t, res.Entries, "Plan_text")
}

func TestMapField_FileUpload(t *testing.T) {
	value := []any{"https://example.com/a.pdf", "example.com/b.png", "javascript:alert(1)"}

	res := MapField(Field{ID: "6", Label: "Attachments", Type: FieldTypeFileUpload, Value: value})

	assert.Equal(t, []string{"https://example.com/a.pdf", "http://example.com/b.png", ""}, res.Entries["Attachments"])
	assert.Equal(t, 3, res.Entries["Attachments_count"])
}

func TestMapField_Payment(t *testing.T) {
	tests := []struct {
		value any
		want  float64
	}{
		{"$10.00", 10},
		{"€ 12,50", 12.5},
		{"1.234.50", 1.234},
		{"€ 1.234,50", 1.234},
		{"free", 0},
		{42.5, 42.5},
	}
	for _, tt := range tests {
		res := MapField(Field{ID: "7", Label: "Total", Type: FieldTypePaymentTotal, Value: tt.value})
		assert.Equal(t, tt.want, res.Entries["Total_numeric"], "value %v", tt.value)
	}
}

func TestMapField_Address(t *testing.T) {
	value := map[string]any{
		"country":  "IT",
		"address1": "Via Roma 1",
		"city":     "San Donà di Piave",
		"postal":   "30027",
		"address2": "",
	}

	res := MapField(Field{ID: "8", Label: "Address", Type: FieldTypeAddress, Value: value})

	assert.Equal(t, "Via Roma 1, San Donà di Piave, 30027, IT", res.Entries["Address"])
	assert.Equal(t, "Via Roma 1", res.Entries["Address_address1"])
	assert.Equal(t, "", res.Entries["Address_address2"])
	assert.Equal(t, "sandonadipiave", res.Entries["Address_city_normalized"])
	assert.Equal(t, HashSHA256("sandonadipiave"), res.Entries["Address_city_hash"])
}

func TestMapField_AddressLabelledCity(t *testing.T) {
	value := map[string]any{"address1": "Via Roma 1", "city": "San Donà"}

	res := MapField(Field{ID: "8", Label: "Città", Type: FieldTypeAddress, Value: value})

	assert.Equal(t, TagCity, res.Tag)
	assert.Equal(t, "sandona", res.Entries["Città_city_normalized"])
	assert.NotContains(t, res.Entries, "Città_normalized")
	assert.NotContains(t, res.Entries, "Città_hash")
}

func TestMapField_CitizenshipIsNotCity(t *testing.T) {
	res := MapField(Field{ID: "9", Label: "Cittadinanza", Type: FieldTypeText, Value: "Italiana"})

	assert.True(t, res.Unclassified)
	assert.NotContains(t, res.Entries, "Cittadinanza_normalized")
	assert.NotContains(t, res.Entries, "Cittadinanza_hash")
}

func TestMapField_CityLabel(t *testing.T) {
	res := MapField(Field{ID: "9", Label: "Città di residenza", Type: FieldTypeText, Value: "Forlì"})

	assert.Equal(t, TagCity, res.Tag)
	assert.Equal(t, "Forlì", res.Entries["Città di residenza"])
	assert.Equal(t, "forli", res.Entries["Città di residenza_normalized"])
	assert.Equal(t, HashSHA256("forli"), res.Entries["Città di residenza_hash"])
}

func TestMapField_BirthdateLabel(t *testing.T) {
	res := MapField(Field{ID: "10", Label: "Data di nascita", Type: FieldTypeDate, Value: "25/12/1990"})

	assert.Equal(t, TagBirthdate, res.Tag)
	assert.Equal(t, "1990-12-25", res.Entries["Data di nascita_iso"])
	assert.Equal(t, "19901225", res.Entries["Data di nascita_normalized"])
	assert.Equal(t, HashSHA256("19901225"), res.Entries["Data di nascita_hash"])
}

func TestMapField_TextSanitized(t *testing.T) {
	res := MapField(Field{ID: "11", Label: "", Type: "unknown", Value: "  hello<script>alert(1)</script>\n\tworld%20 "})

	assert.True(t, res.Unclassified)
	assert.Equal(t, "hello world", res.Entries["Field 11"])
}

func TestMapField_Deterministic(t *testing.T) {
	f := Field{ID: "8", Label: "Address", Type: FieldTypeAddress, Value: map[string]any{"city": "Roma", "state": "RM", "zip": "00100"}}

	first := MapField(f)
	for i := 0; i < 20; i++ {
		assert.Equal(t, first.Entries, MapField(f).Entries)
	}
}

func TestMapFields_Excluded(t *testing.T) {
	// Arrange
	fields := []Field{
		{ID: "1", Label: "Email", Type: FieldTypeEmail, Value: "jane@example.com"},
		{ID: "2", Label: "Message", Type: FieldTypeText, Value: "hi"},
	}

	// Act
	formFields, results := MapFields(fields, map[string]struct{}{"1": {}})

	// Assert
	assert.Len(t, results, 1)
	assert.Equal(t, map[string]any{"Message": "hi"}, formFields)
}

func TestMapFields_LaterLabelWins(t *testing.T) {
	fields := []Field{
		{ID: "1", Label: "Note", Value: "first"},
		{ID: "2", Label: "Note", Value: "second"},
	}

	formFields, _ := MapFields(fields, nil)

	assert.Equal(t, "second", formFields["Note"])
}

func TestClassify(t *testing.T) {
	tests := []struct {
		label string
		want  Tag
	}{
		{"Nome e cognome", TagFullName},
		{"Full Name", TagFullName},
		{"Città", TagCity},
		{"City", TagCity},
		{"Città di residenza", TagCity},
		{"Town / City", TagCity},
		{"Cittadinanza", TagNone},
		{"Electricity bill", TagNone},
		{"Ethnicity", TagNone},
		{"Luogo e data di nascita", TagBirthdate},
		{"Date of birth", TagBirthdate},
		{"Messaggio", TagNone},
		{"", TagNone},
	}
	for _, tt := range tests {
		t.Run(tt.label, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.label))
		})
	}
}

func TestSanitizeEmail(t *testing.T) {
	assert.Equal(t, "Jane.Doe@Example.com", SanitizeEmail(" Jane.Doe@Example.com "))
	assert.Equal(t, "jane@example.com", SanitizeEmail("ja ne@exa mple..com"))
	assert.Equal(t, "", SanitizeEmail("jane@localhost"))
	assert.Equal(t, "", SanitizeEmail("nope"))
}
