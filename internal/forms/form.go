package forms

// Field is one input of a form.
type Field struct {
	Name  string
	Label string
	// Rules is a validator tag string; empty means free text.
	Rules string
	// Messages overrides the rendered error per failing tag.
	Messages map[string]string
	// Trim validates the value without surrounding whitespace, matching
	// what gets stored.
	Trim bool
}

// Form is an ordered list of fields.
type Form struct {
	Fields []Field
}

// Field names shared by the screens.
const (
	FieldEmail           = "email"
	FieldPassword        = "password"
	FieldFarmDisplayName = "farmDisplayName"
	FieldFarmName        = "farmName"
	FieldFarmPhone       = "farmPhone"
	FieldURL             = "url"
	FieldOpenHour        = "openHour"
	FieldCloseHour       = "closehour"
)

var credentialFields = []Field{
	{Name: FieldEmail, Label: "Email", Rules: "required,email"},
	{
		Name:     FieldPassword,
		Label:    "Password",
		Rules:    "required,min=6,max=10",
		Messages: map[string]string{"max": "Password should be minimum 6 chars."},
	},
}

// LoginForm is the Login screen.
var LoginForm = Form{Fields: credentialFields}

// SignUpForm is the SignUp screen.
var SignUpForm = Form{Fields: credentialFields}

// AddFarmForm is the AddFarm screen.
var AddFarmForm = Form{Fields: []Field{
	{
		Name:     FieldFarmDisplayName,
		Label:    "Farm Display Name",
		Rules:    "required,min=5",
		Messages: map[string]string{"min": "Farm Display Name is Required"},
		Trim:     true,
	},
	{
		Name:     FieldFarmName,
		Label:    "Farm Name",
		Rules:    "required,min=5",
		Messages: map[string]string{"min": "Farm Name is Required"},
		Trim:     true,
	},
	{
		Name:     FieldFarmPhone,
		Label:    "Phone",
		Rules:    "omitempty,phone",
		Messages: map[string]string{"phone": "Invalid number"},
		Trim:     true,
	},
	{Name: FieldURL, Label: "Website"},
	{Name: FieldOpenHour, Label: "Opening hour"},
	{Name: FieldCloseHour, Label: "Closing hour"},
}}

// Field returns the field called name.
func (f Form) Field(name string) (Field, bool) {
	for _, field := range f.Fields {
		if field.Name == name {
			return field, true
		}
	}
	return Field{}, false
}
